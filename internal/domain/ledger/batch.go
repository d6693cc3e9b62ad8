package ledger

import (
	"context"
	"fmt"
	"time"

	"gledger/internal/core/apperror"
	"gledger/internal/core/entity"
	"gledger/internal/core/types"
)

// BatchStatus is the lifecycle state of a batch.
type BatchStatus string

const (
	BatchStatusDraft     BatchStatus = "draft"
	BatchStatusReady     BatchStatus = "ready"
	BatchStatusPosted    BatchStatus = "posted"
	BatchStatusCancelled BatchStatus = "cancelled"
)

// Batch is a named collection of journals that post together as one
// atomic unit. A Posted batch implies every member journal is Posted;
// a cancelled batch releases its members back to unassociated Draft.
type Batch struct {
	entity.Document

	Name        string      `db:"name" json:"name"`
	Description string      `db:"description" json:"description,omitempty"`
	Status      BatchStatus `db:"status" json:"status"`

	// ReviewedBy is recorded on the Draft -> Ready transition
	ReviewedBy string `db:"reviewed_by" json:"reviewedBy,omitempty"`

	// Posting audit
	PostedBy string     `db:"posted_by" json:"postedBy,omitempty"`
	PostedAt *time.Time `db:"posted_at" json:"postedAt,omitempty"`

	// Aggregates, derived from members as of the commit
	JournalCount int              `db:"journal_count" json:"journalCount"`
	TotalDebit   types.MinorUnits `db:"total_debit" json:"totalDebit"`
	TotalCredit  types.MinorUnits `db:"total_credit" json:"totalCredit"`
}

// NewBatch creates a Draft batch for the given tenant.
func NewBatch(tenantID, name, description string) *Batch {
	return &Batch{
		Document:    entity.NewDocument(tenantID, time.Now().UTC()),
		Name:        name,
		Description: description,
		Status:      BatchStatusDraft,
	}
}

// Validate implements entity.Validatable.
func (b *Batch) Validate(ctx context.Context) error {
	if err := b.Document.Validate(ctx); err != nil {
		return err
	}

	if b.Name == "" {
		return apperror.NewValidation("batch name is required").
			WithDetail("field", "name")
	}

	return nil
}

// CanModify reports whether batch membership may change.
// Only Draft batches accept member changes.
func (b *Batch) CanModify() error {
	if b.Status != BatchStatusDraft {
		return apperror.NewBusinessRule(apperror.CodeBatchState,
			fmt.Sprintf("batch in status %q cannot be modified", b.Status)).
			WithDetail("batch_id", b.ID.String()).
			WithDetail("status", string(b.Status))
	}
	return nil
}

// MarkReady records the reviewer and moves Draft -> Ready.
func (b *Batch) MarkReady(reviewerID string) error {
	if b.Status != BatchStatusDraft {
		return apperror.NewBusinessRule(apperror.CodeBatchState,
			fmt.Sprintf("only a draft batch can be marked ready, batch is %q", b.Status)).
			WithDetail("batch_id", b.ID.String())
	}
	b.Status = BatchStatusReady
	b.ReviewedBy = reviewerID
	return nil
}

// CanPost reports whether the batch may enter posting.
// requireApproval enforces the tenant's review policy.
func (b *Batch) CanPost(requireApproval bool) error {
	switch b.Status {
	case BatchStatusPosted:
		return apperror.NewConflict("batch is already posted").
			WithDetail("batch_id", b.ID.String())
	case BatchStatusCancelled:
		return apperror.NewBusinessRule(apperror.CodeBatchState,
			"cancelled batch cannot be posted").
			WithDetail("batch_id", b.ID.String())
	}
	if requireApproval && b.Status != BatchStatusReady {
		return apperror.NewBusinessRule(apperror.CodeBatchState,
			"batch requires review approval before posting").
			WithDetail("batch_id", b.ID.String()).
			WithDetail("status", string(b.Status))
	}
	return nil
}

// MarkPosted flips the batch to Posted with the given aggregates.
func (b *Batch) MarkPosted(actorID string, at time.Time, count int, debit, credit types.MinorUnits) {
	b.Status = BatchStatusPosted
	b.PostedBy = actorID
	b.PostedAt = &at
	b.JournalCount = count
	b.TotalDebit = debit
	b.TotalCredit = credit
}

// MarkCancelled moves Draft/Ready -> Cancelled.
func (b *Batch) MarkCancelled() error {
	if b.Status != BatchStatusDraft && b.Status != BatchStatusReady {
		return apperror.NewBusinessRule(apperror.CodeBatchState,
			fmt.Sprintf("batch in status %q cannot be cancelled", b.Status)).
			WithDetail("batch_id", b.ID.String())
	}
	b.Status = BatchStatusCancelled
	return nil
}

// Summary renders a short human-readable description for notifications.
func (b *Batch) Summary() string {
	return fmt.Sprintf("%s %q (%d journals, %s debit / %s credit)",
		b.Number, b.Name, b.JournalCount, b.TotalDebit, b.TotalCredit)
}
