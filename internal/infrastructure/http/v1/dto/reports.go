package dto

import (
	"time"

	"gledger/internal/domain/reports"
)

// LedgerFilterRequest narrows posted-entry queries.
type LedgerFilterRequest struct {
	DateFrom   *time.Time `form:"dateFrom"`
	DateTo     *time.Time `form:"dateTo"`
	AccountID  string     `form:"accountId"`
	Source     string     `form:"source"`
	BatchID    string     `form:"batchId"`
	EntityType string     `form:"entityType"`
	EntityID   string     `form:"entityId"`
	Limit      int        `form:"limit"`
	Offset     int        `form:"offset"`
}

// LedgerEntryResponse is one posted line with its journal context.
type LedgerEntryResponse struct {
	JournalID     string    `json:"journalId"`
	JournalNumber string    `json:"journalNumber"`
	Date          time.Time `json:"date"`
	LineNo        int       `json:"lineNo"`
	AccountID     string    `json:"accountId"`
	Debit         string    `json:"debit"`
	Credit        string    `json:"credit"`
	Description   string    `json:"description,omitempty"`
	Source        string    `json:"source"`
	BatchID       *string   `json:"batchId,omitempty"`
	EntityType    string    `json:"entityType,omitempty"`
	EntityID      string    `json:"entityId,omitempty"`
	PostedAt      time.Time `json:"postedAt"`
}

// FromLedgerEntry creates LedgerEntryResponse from a report row.
func FromLedgerEntry(e reports.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		JournalID:     e.JournalID.String(),
		JournalNumber: e.JournalNumber,
		Date:          e.Date,
		LineNo:        e.LineNo,
		AccountID:     e.AccountID,
		Debit:         e.Debit.String(),
		Credit:        e.Credit.String(),
		Description:   e.Description,
		Source:        e.Source,
		EntityType:    e.EntityType,
		EntityID:      e.EntityID,
		PostedAt:      e.PostedAt,
	}
	if e.BatchID != nil {
		s := e.BatchID.String()
		resp.BatchID = &s
	}
	return resp
}

// AccountTotalResponse is the aggregate for one account.
type AccountTotalResponse struct {
	AccountID   string `json:"accountId"`
	EntryCount  int    `json:"entryCount"`
	TotalDebit  string `json:"totalDebit"`
	TotalCredit string `json:"totalCredit"`
	Net         string `json:"net"`
}

// FromAccountTotal creates AccountTotalResponse from a report row.
func FromAccountTotal(t reports.AccountTotal) AccountTotalResponse {
	return AccountTotalResponse{
		AccountID:   t.AccountID,
		EntryCount:  t.EntryCount,
		TotalDebit:  t.TotalDebit.String(),
		TotalCredit: t.TotalCredit.String(),
		Net:         t.Net().String(),
	}
}
