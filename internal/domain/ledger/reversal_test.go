package ledger

import (
	"testing"
	"time"
)

func TestBuildReversal(t *testing.T) {
	src := NewJournal("t1", time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), "payroll run", SourcePayroll)
	src.Number = "JRN-000042"
	_ = src.AddEntry(Entry{AccountID: "6000", Debit: 250000, Description: "salaries", EntityType: "payroll_run", EntityID: "pr-9"})
	_ = src.AddEntry(Entry{AccountID: "2100", Credit: 200000})
	_ = src.AddEntry(Entry{AccountID: "2200", Credit: 50000})
	src.MarkPosted("u1", time.Now().UTC())

	revDate := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	rev := BuildReversal(src, revDate)

	if rev.Status != JournalStatusDraft {
		t.Errorf("reversal must be draft, got %s", rev.Status)
	}
	if rev.Source != SourceReversal {
		t.Errorf("source = %q, want %q", rev.Source, SourceReversal)
	}
	if rev.ReversalOf == nil || *rev.ReversalOf != src.ID {
		t.Error("reversal must link back to the source journal")
	}
	if !rev.Date.Equal(revDate) {
		t.Errorf("date = %v, want %v", rev.Date, revDate)
	}
	if rev.ID == src.ID {
		t.Error("reversal must be a new journal")
	}
	if rev.Number != "" {
		t.Error("reversal number is issued by the sequencer, not copied")
	}

	if len(rev.Entries) != len(src.Entries) {
		t.Fatalf("entry count = %d, want %d", len(rev.Entries), len(src.Entries))
	}
	for i, e := range rev.Entries {
		s := src.Entries[i]
		if e.Debit != s.Credit || e.Credit != s.Debit {
			t.Errorf("line %d not mirrored: src %d/%d, rev %d/%d",
				e.LineNo, s.Debit, s.Credit, e.Debit, e.Credit)
		}
		if e.AccountID != s.AccountID || e.LineNo != s.LineNo {
			t.Errorf("line %d structure changed", s.LineNo)
		}
		if e.EntityType != s.EntityType || e.EntityID != s.EntityID {
			t.Errorf("line %d entity link not carried", s.LineNo)
		}
		if e.LineID == s.LineID {
			t.Errorf("line %d must get a fresh line ID", s.LineNo)
		}
	}

	if !rev.Balanced {
		t.Error("mirror of a balanced journal must be balanced")
	}
	if rev.TotalDebit != src.TotalCredit || rev.TotalCredit != src.TotalDebit {
		t.Errorf("totals not mirrored: %d/%d", rev.TotalDebit, rev.TotalCredit)
	}

	// Source stays untouched.
	if src.Status != JournalStatusPosted || len(src.Entries) != 3 {
		t.Error("source journal must not be mutated")
	}
}
