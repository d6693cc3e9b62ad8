// Package ledger implements the general ledger journal and batch posting
// engine: double-entry journals, atomic batch posting, period locking,
// and reversal generation.
package ledger

import (
	"context"
	"fmt"
	"time"

	"gledger/internal/core/apperror"
	"gledger/internal/core/entity"
	"gledger/internal/core/id"
	"gledger/internal/core/types"
)

// JournalStatus is the lifecycle state of a journal.
type JournalStatus string

const (
	JournalStatusDraft  JournalStatus = "draft"
	JournalStatusPosted JournalStatus = "posted"
)

// Source tags identify the system that originated a journal.
const (
	SourcePayroll  = "payroll"
	SourceManual   = "manual"
	SourceReversal = "reversal"
)

// Journal is one double-entry accounting transaction.
//
// A Draft journal may be edited freely and may be temporarily unbalanced.
// Posting is the one-way transition to Posted: it requires the journal to
// be balanced and is irreversible - posted journals are immutable and can
// only be countered by a reversal journal.
type Journal struct {
	entity.Document

	Memo   string        `db:"memo" json:"memo,omitempty"`
	Source string        `db:"source" json:"source"`
	Status JournalStatus `db:"status" json:"status"`

	// BatchID is set while the journal belongs to a batch (at most one)
	BatchID *id.ID `db:"batch_id" json:"batchId,omitempty"`

	// Posting audit, set exactly once on the Draft -> Posted transition
	PostedBy string     `db:"posted_by" json:"postedBy,omitempty"`
	PostedAt *time.Time `db:"posted_at" json:"postedAt,omitempty"`

	// ReversalOf links a reversal journal to the journal it mirrors
	ReversalOf *id.ID `db:"reversal_of" json:"reversalOf,omitempty"`

	// Cached totals, recomputed on every entry mutation
	TotalDebit  types.MinorUnits `db:"total_debit" json:"totalDebit"`
	TotalCredit types.MinorUnits `db:"total_credit" json:"totalCredit"`
	Balanced    bool             `db:"balanced" json:"balanced"`

	// Table part: debit/credit lines
	Entries []Entry `db:"-" json:"entries"`
}

// Entry is one debit-or-credit line within a journal.
// Exactly one of Debit/Credit is nonzero; both are non-negative.
type Entry struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	AccountID string `db:"account_id" json:"accountId"`

	Debit  types.MinorUnits `db:"debit" json:"debit"`
	Credit types.MinorUnits `db:"credit" json:"credit"`

	Description string `db:"description" json:"description,omitempty"`

	// Optional link to the originating business entity (e.g. a payroll run)
	EntityType string `db:"entity_type" json:"entityType,omitempty"`
	EntityID   string `db:"entity_id" json:"entityId,omitempty"`
}

// NewJournal creates a Draft journal for the given tenant.
func NewJournal(tenantID string, date time.Time, memo, source string) *Journal {
	if source == "" {
		source = SourceManual
	}
	return &Journal{
		Document: entity.NewDocument(tenantID, date),
		Memo:     memo,
		Source:   source,
		Status:   JournalStatusDraft,
		Entries:  make([]Entry, 0),
	}
}

// Validate implements entity.Validatable. It checks document-level
// invariants only; per-entry and balance rules belong to the Validator.
func (j *Journal) Validate(ctx context.Context) error {
	if err := j.Document.Validate(ctx); err != nil {
		return err
	}

	if j.Source == "" {
		return apperror.NewValidation("source is required").
			WithDetail("field", "source")
	}

	return nil
}

// CanModify reports whether the journal accepts mutations.
// Posted journals are immutable regardless of tenant policy flags.
func (j *Journal) CanModify() error {
	if j.Status == JournalStatusPosted {
		return apperror.NewJournalPosted(j.ID.String())
	}
	return nil
}

// AddEntry appends a line with the next dense line number and recomputes
// cached totals. Legal only while Draft.
func (j *Journal) AddEntry(e Entry) error {
	if err := j.CanModify(); err != nil {
		return err
	}
	if err := checkEntryAmounts(e); err != nil {
		return err
	}

	e.LineID = id.New()
	e.LineNo = len(j.Entries) + 1
	j.Entries = append(j.Entries, e)
	j.recalculateTotals()
	return nil
}

// UpdateEntry replaces the line with the given number, keeping its
// position. Legal only while Draft.
func (j *Journal) UpdateEntry(lineNo int, e Entry) error {
	if err := j.CanModify(); err != nil {
		return err
	}
	if err := checkEntryAmounts(e); err != nil {
		return err
	}

	for i := range j.Entries {
		if j.Entries[i].LineNo == lineNo {
			e.LineID = j.Entries[i].LineID
			e.LineNo = lineNo
			j.Entries[i] = e
			j.recalculateTotals()
			return nil
		}
	}
	return apperror.NewNotFound("journal entry", lineNo)
}

// RemoveEntry deletes the line with the given number and renumbers the
// remaining lines densely from 1. Legal only while Draft.
func (j *Journal) RemoveEntry(lineNo int) error {
	if err := j.CanModify(); err != nil {
		return err
	}

	for i := range j.Entries {
		if j.Entries[i].LineNo == lineNo {
			j.Entries = append(j.Entries[:i], j.Entries[i+1:]...)
			for k := range j.Entries {
				j.Entries[k].LineNo = k + 1
			}
			j.recalculateTotals()
			return nil
		}
	}
	return apperror.NewNotFound("journal entry", lineNo)
}

// recalculateTotals updates cached totals and the balanced flag.
func (j *Journal) recalculateTotals() {
	j.TotalDebit = 0
	j.TotalCredit = 0
	for _, e := range j.Entries {
		j.TotalDebit += e.Debit
		j.TotalCredit += e.Credit
	}
	j.Balanced = len(j.Entries) > 0 && j.TotalDebit == j.TotalCredit
}

// Imbalance returns debits minus credits in minor units.
func (j *Journal) Imbalance() types.MinorUnits {
	return j.TotalDebit - j.TotalCredit
}

// MarkPosted flips the journal to Posted, recording the poster.
// Callers must have passed validation and the period guard first.
func (j *Journal) MarkPosted(actorID string, at time.Time) {
	j.Status = JournalStatusPosted
	j.PostedBy = actorID
	j.PostedAt = &at
}

// checkEntryAmounts enforces the per-entry sanity rules at mutation time;
// the Validator re-checks them at posting time.
func checkEntryAmounts(e Entry) error {
	if e.Debit.IsNegative() || e.Credit.IsNegative() {
		return apperror.NewValidation("entry amounts must be non-negative").
			WithDetail("debit", int64(e.Debit)).
			WithDetail("credit", int64(e.Credit))
	}
	if !e.Debit.IsZero() && !e.Credit.IsZero() {
		return apperror.NewValidation("entry cannot carry both a debit and a credit").
			WithDetail("debit", int64(e.Debit)).
			WithDetail("credit", int64(e.Credit))
	}
	if e.Debit.IsZero() && e.Credit.IsZero() {
		return apperror.NewValidation("entry must carry a debit or a credit")
	}
	if e.AccountID == "" {
		return apperror.NewValidation("entry account is required").
			WithDetail("field", "accountId")
	}
	return nil
}

// Summary renders a short human-readable description for notifications.
func (j *Journal) Summary() string {
	return fmt.Sprintf("%s (%d entries, %s debit / %s credit)",
		j.Number, len(j.Entries), j.TotalDebit, j.TotalCredit)
}
