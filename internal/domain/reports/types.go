package reports

import (
	"time"

	"gledger/internal/core/id"
	"gledger/internal/core/types"
)

// LedgerEntry is one posted journal line joined with its header,
// as exposed to reporting consumers.
type LedgerEntry struct {
	JournalID     id.ID            `db:"journal_id" json:"journal_id"`
	JournalNumber string           `db:"journal_number" json:"journal_number"`
	Date          time.Time        `db:"date" json:"date"`
	LineNo        int              `db:"line_no" json:"line_no"`
	AccountID     string           `db:"account_id" json:"account_id"`
	Debit         types.MinorUnits `db:"debit" json:"debit"`
	Credit        types.MinorUnits `db:"credit" json:"credit"`
	Description   string           `db:"description" json:"description,omitempty"`
	Source        string           `db:"source" json:"source"`
	BatchID       *id.ID           `db:"batch_id" json:"batch_id,omitempty"`
	EntityType    string           `db:"entity_type" json:"entity_type,omitempty"`
	EntityID      string           `db:"entity_id" json:"entity_id,omitempty"`
	PostedAt      time.Time        `db:"posted_at" json:"posted_at"`
}

// AccountTotal aggregates posted activity for one account.
type AccountTotal struct {
	AccountID   string           `db:"account_id" json:"account_id"`
	EntryCount  int              `db:"entry_count" json:"entry_count"`
	TotalDebit  types.MinorUnits `db:"total_debit" json:"total_debit"`
	TotalCredit types.MinorUnits `db:"total_credit" json:"total_credit"`
}

// Net returns debit minus credit.
func (t AccountTotal) Net() types.MinorUnits {
	return t.TotalDebit - t.TotalCredit
}

// EntryFilter narrows ledger queries. TenantID is mandatory; only
// posted journals are ever visible through this surface.
type EntryFilter struct {
	TenantID   string
	DateFrom   *time.Time
	DateTo     *time.Time
	AccountID  string
	Source     string
	BatchID    *id.ID
	EntityType string
	EntityID   string
	Limit      int
	Offset     int
}
