package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gledger/internal/core/apperror"
	"gledger/internal/domain/ledger"
)

func TestEntryPayload_ToEntry(t *testing.T) {
	p := EntryPayload{
		AccountID:   "6000",
		Debit:       decimal.RequireFromString("500.00"),
		Description: "rent",
	}

	e, err := p.ToEntry()
	if err != nil {
		t.Fatalf("ToEntry: %v", err)
	}
	if e.Debit != 50000 || e.Credit != 0 {
		t.Errorf("amounts = %d/%d", e.Debit, e.Credit)
	}
	if e.AccountID != "6000" || e.Description != "rent" {
		t.Errorf("fields not carried: %+v", e)
	}
}

func TestEntryPayload_SubCentRejected(t *testing.T) {
	p := EntryPayload{
		AccountID: "6000",
		Debit:     decimal.RequireFromString("10.005"),
	}

	_, err := p.ToEntry()
	if !apperror.HasCode(err, apperror.CodeValidation) {
		t.Errorf("sub-cent debit: %v", err)
	}

	p = EntryPayload{
		AccountID: "6000",
		Credit:    decimal.RequireFromString("0.001"),
	}
	if _, err := p.ToEntry(); !apperror.HasCode(err, apperror.CodeValidation) {
		t.Errorf("sub-cent credit: %v", err)
	}
}

func TestFromJournal(t *testing.T) {
	j := ledger.NewJournal("t1", time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), "memo", ledger.SourceManual)
	j.Number = "JRN-000001"
	_ = j.AddEntry(ledger.Entry{AccountID: "6000", Debit: 50000})
	_ = j.AddEntry(ledger.Entry{AccountID: "1000", Credit: 50000})

	resp := FromJournal(j)

	if resp.Number != "JRN-000001" || resp.Status != string(ledger.JournalStatusDraft) {
		t.Errorf("header: %+v", resp)
	}
	if resp.TotalDebit != "500.00" || resp.TotalCredit != "500.00" {
		t.Errorf("totals rendered as %s/%s, want 500.00", resp.TotalDebit, resp.TotalCredit)
	}
	if !resp.Balanced {
		t.Error("balanced flag lost")
	}
	if len(resp.Entries) != 2 {
		t.Fatalf("entries = %d", len(resp.Entries))
	}
	if resp.Entries[0].Debit != "500.00" || resp.Entries[1].Credit != "500.00" {
		t.Errorf("entry amounts: %+v", resp.Entries)
	}
}
