package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"gledger/internal/core/apperror"
	"gledger/internal/core/types"
	"gledger/internal/domain/ledger"
)

// EntryPayload carries one journal line over the wire. Amounts are
// decimal strings; anything below cent precision is rejected.
type EntryPayload struct {
	AccountID   string          `json:"accountId" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	EntityType  string          `json:"entityType"`
	EntityID    string          `json:"entityId"`
}

// ToEntry converts the payload to a domain entry.
func (p EntryPayload) ToEntry() (ledger.Entry, error) {
	debit, err := types.FromDecimal(p.Debit)
	if err != nil {
		return ledger.Entry{}, apperror.NewValidation("invalid debit amount").
			WithDetail("debit", p.Debit.String()).
			WithDetail("error", err.Error())
	}
	credit, err := types.FromDecimal(p.Credit)
	if err != nil {
		return ledger.Entry{}, apperror.NewValidation("invalid credit amount").
			WithDetail("credit", p.Credit.String()).
			WithDetail("error", err.Error())
	}

	return ledger.Entry{
		AccountID:   p.AccountID,
		Debit:       debit,
		Credit:      credit,
		Description: p.Description,
		EntityType:  p.EntityType,
		EntityID:    p.EntityID,
	}, nil
}

// CreateJournalRequest creates a Draft journal, optionally with lines.
type CreateJournalRequest struct {
	Date    time.Time      `json:"date" binding:"required"`
	Memo    string         `json:"memo"`
	Source  string         `json:"source"`
	Entries []EntryPayload `json:"entries"`
}

// EntryRequest adds or replaces one line. Version, when nonzero, must
// match the journal's current version.
type EntryRequest struct {
	Entry   EntryPayload `json:"entry" binding:"required"`
	Version int          `json:"version"`
}

// ReverseJournalRequest creates the counter-journal. Date defaults to
// today.
type ReverseJournalRequest struct {
	Date *time.Time `json:"date"`
}

// JournalFilterRequest narrows journal listings.
type JournalFilterRequest struct {
	Status   string     `form:"status"`
	Source   string     `form:"source"`
	BatchID  string     `form:"batchId"`
	DateFrom *time.Time `form:"dateFrom"`
	DateTo   *time.Time `form:"dateTo"`
	Search   string     `form:"search"`
	OrderBy  string     `form:"orderBy"`
	Limit    int        `form:"limit"`
	Offset   int        `form:"offset"`
}

// EntryResponse is one journal line.
type EntryResponse struct {
	LineID      string `json:"lineId"`
	LineNo      int    `json:"lineNo"`
	AccountID   string `json:"accountId"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Description string `json:"description,omitempty"`
	EntityType  string `json:"entityType,omitempty"`
	EntityID    string `json:"entityId,omitempty"`
}

// JournalResponse is the full journal representation.
type JournalResponse struct {
	ID          string          `json:"id"`
	Number      string          `json:"number"`
	Date        time.Time       `json:"date"`
	Memo        string          `json:"memo,omitempty"`
	Source      string          `json:"source"`
	Status      string          `json:"status"`
	BatchID     *string         `json:"batchId,omitempty"`
	PostedBy    string          `json:"postedBy,omitempty"`
	PostedAt    *time.Time      `json:"postedAt,omitempty"`
	ReversalOf  *string         `json:"reversalOf,omitempty"`
	TotalDebit  string          `json:"totalDebit"`
	TotalCredit string          `json:"totalCredit"`
	Balanced    bool            `json:"balanced"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	CreatedBy   string          `json:"createdBy,omitempty"`
	Entries     []EntryResponse `json:"entries,omitempty"`
}

// FromJournal creates JournalResponse from a domain journal.
func FromJournal(j *ledger.Journal) JournalResponse {
	resp := JournalResponse{
		ID:          j.ID.String(),
		Number:      j.Number,
		Date:        j.Date,
		Memo:        j.Memo,
		Source:      j.Source,
		Status:      string(j.Status),
		PostedBy:    j.PostedBy,
		PostedAt:    j.PostedAt,
		TotalDebit:  j.TotalDebit.String(),
		TotalCredit: j.TotalCredit.String(),
		Balanced:    j.Balanced,
		Version:     j.Version,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		CreatedBy:   j.CreatedBy,
	}
	if j.BatchID != nil {
		s := j.BatchID.String()
		resp.BatchID = &s
	}
	if j.ReversalOf != nil {
		s := j.ReversalOf.String()
		resp.ReversalOf = &s
	}
	for _, e := range j.Entries {
		resp.Entries = append(resp.Entries, EntryResponse{
			LineID:      e.LineID.String(),
			LineNo:      e.LineNo,
			AccountID:   e.AccountID,
			Debit:       e.Debit.String(),
			Credit:      e.Credit.String(),
			Description: e.Description,
			EntityType:  e.EntityType,
			EntityID:    e.EntityID,
		})
	}
	return resp
}

// FromJournals converts a list of journal headers.
func FromJournals(journals []*ledger.Journal) []JournalResponse {
	out := make([]JournalResponse, 0, len(journals))
	for _, j := range journals {
		out = append(out, FromJournal(j))
	}
	return out
}
