package ledger

import (
	"testing"
	"time"

	"gledger/internal/core/apperror"
	"gledger/internal/core/id"
)

func (f *fixture) mustCreateBatch(t *testing.T, name string) *Batch {
	t.Helper()
	b := NewBatch("t1", name, "")
	if err := f.batchSvc.Create(testCtx(), b); err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return b
}

func (f *fixture) mustAddJournal(t *testing.T, batchID, journalID id.ID) {
	t.Helper()
	if err := f.batchSvc.AddJournal(testCtx(), batchID, journalID); err != nil {
		t.Fatalf("add journal: %v", err)
	}
}

func TestBatchService_Create_AllocatesNumber(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreateBatch(t, "august close")

	if b.Number != "BAT-000001" {
		t.Errorf("number = %q, want BAT-000001", b.Number)
	}
	if b.Status != BatchStatusDraft {
		t.Errorf("status = %s", b.Status)
	}
}

func TestBatchService_AddJournal(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreateBatch(t, "b1")
	j := f.mustCreateBalanced(t, openDate)

	f.mustAddJournal(t, b.ID, j.ID)

	stored, _ := f.journalSvc.Get(testCtx(), j.ID)
	if stored.BatchID == nil || *stored.BatchID != b.ID {
		t.Error("journal not attached")
	}

	batch, _ := f.batchSvc.Get(testCtx(), b.ID)
	if batch.JournalCount != 1 {
		t.Errorf("journal count = %d", batch.JournalCount)
	}
	if batch.TotalDebit != 50000 || batch.TotalCredit != 50000 {
		t.Errorf("aggregates = %d/%d", batch.TotalDebit, batch.TotalCredit)
	}

	// Re-adding to the same batch is a no-op.
	if err := f.batchSvc.AddJournal(testCtx(), b.ID, j.ID); err != nil {
		t.Errorf("idempotent add failed: %v", err)
	}
	batch, _ = f.batchSvc.Get(testCtx(), b.ID)
	if batch.JournalCount != 1 {
		t.Errorf("idempotent add changed count to %d", batch.JournalCount)
	}
}

func TestBatchService_AddJournal_Rejections(t *testing.T) {
	t.Run("posted journal", func(t *testing.T) {
		f := newFixture(t)
		b := f.mustCreateBatch(t, "b1")
		j := f.mustCreateBalanced(t, openDate)
		if _, err := f.journalSvc.Post(testCtx(), j.ID); err != nil {
			t.Fatalf("post: %v", err)
		}
		err := f.batchSvc.AddJournal(testCtx(), b.ID, j.ID)
		if !apperror.HasCode(err, apperror.CodeBatchMember) {
			t.Errorf("posted journal must not join, got %v", err)
		}
	})

	t.Run("claimed by another batch", func(t *testing.T) {
		f := newFixture(t)
		b1 := f.mustCreateBatch(t, "b1")
		b2 := f.mustCreateBatch(t, "b2")
		j := f.mustCreateBalanced(t, openDate)
		f.mustAddJournal(t, b1.ID, j.ID)

		err := f.batchSvc.AddJournal(testCtx(), b2.ID, j.ID)
		if !apperror.HasCode(err, apperror.CodeConflict) {
			t.Errorf("membership must stay exclusive, got %v", err)
		}
	})

	t.Run("non-draft batch", func(t *testing.T) {
		f := newFixture(t)
		b := f.mustCreateBatch(t, "b1")
		if _, err := f.batchSvc.MarkReady(testCtx(), b.ID); err != nil {
			t.Fatalf("mark ready: %v", err)
		}
		j := f.mustCreateBalanced(t, openDate)
		err := f.batchSvc.AddJournal(testCtx(), b.ID, j.ID)
		if !apperror.HasCode(err, apperror.CodeBatchState) {
			t.Errorf("ready batch must not accept members, got %v", err)
		}
	})
}

func TestBatchService_RemoveJournal(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreateBatch(t, "b1")
	j := f.mustCreateBalanced(t, openDate)
	f.mustAddJournal(t, b.ID, j.ID)

	if err := f.batchSvc.RemoveJournal(testCtx(), b.ID, j.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	stored, _ := f.journalSvc.Get(testCtx(), j.ID)
	if stored.BatchID != nil {
		t.Error("journal still attached")
	}
	batch, _ := f.batchSvc.Get(testCtx(), b.ID)
	if batch.JournalCount != 0 || batch.TotalDebit != 0 {
		t.Errorf("aggregates not rolled back: %d, %d", batch.JournalCount, batch.TotalDebit)
	}

	err := f.batchSvc.RemoveJournal(testCtx(), b.ID, j.ID)
	if !apperror.IsNotFound(err) {
		t.Errorf("non-member removal: %v", err)
	}
}

func TestBatchService_MarkReady(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreateBatch(t, "b1")

	ready, err := f.batchSvc.MarkReady(testCtx(), b.ID)
	if err != nil {
		t.Fatalf("mark ready: %v", err)
	}
	if ready.Status != BatchStatusReady {
		t.Errorf("status = %s", ready.Status)
	}
	if ready.ReviewedBy != "u1" {
		t.Errorf("reviewer = %q", ready.ReviewedBy)
	}

	if _, err := f.batchSvc.MarkReady(testCtx(), b.ID); !apperror.HasCode(err, apperror.CodeBatchState) {
		t.Errorf("second mark ready: %v", err)
	}
}

func TestBatchService_Post(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreateBatch(t, "august close")
	j1 := f.mustCreateBalanced(t, openDate)
	j2 := f.mustCreateBalanced(t, openDate)
	f.mustAddJournal(t, b.ID, j1.ID)
	f.mustAddJournal(t, b.ID, j2.ID)

	posted, err := f.batchSvc.Post(testCtx(), b.ID)
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if posted.Status != BatchStatusPosted {
		t.Errorf("batch status = %s", posted.Status)
	}
	if posted.JournalCount != 2 {
		t.Errorf("journal count = %d", posted.JournalCount)
	}
	if posted.TotalDebit != 100000 || posted.TotalCredit != 100000 {
		t.Errorf("aggregates = %d/%d", posted.TotalDebit, posted.TotalCredit)
	}

	// Every member is posted with the same timestamp and actor.
	var postedAt *time.Time
	for _, jid := range []id.ID{j1.ID, j2.ID} {
		m, _ := f.journalSvc.Get(testCtx(), jid)
		if m.Status != JournalStatusPosted {
			t.Errorf("member %s not posted", m.Number)
		}
		if m.PostedBy != "u1" {
			t.Errorf("member posted by %q", m.PostedBy)
		}
		if postedAt == nil {
			postedAt = m.PostedAt
		} else if m.PostedAt == nil || !m.PostedAt.Equal(*postedAt) {
			t.Error("members must share one posting timestamp")
		}
	}

	event, ok := f.notifier.last()
	if !ok || event.Type != EventBatchPosted {
		t.Errorf("expected batch_posted event, got %+v", event)
	}
}

func TestBatchService_Post_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreateBatch(t, "mixed")
	good := f.mustCreateBalanced(t, openDate)

	bad := NewJournal("t1", openDate, "", SourceManual)
	_ = bad.AddEntry(Entry{AccountID: "6000", Debit: 30000})
	_ = bad.AddEntry(Entry{AccountID: "1000", Credit: 29000})
	if err := f.journalSvc.Create(testCtx(), bad); err != nil {
		t.Fatalf("create: %v", err)
	}

	late := f.mustCreateBalanced(t, closedDate)

	f.mustAddJournal(t, b.ID, good.ID)
	f.mustAddJournal(t, b.ID, bad.ID)
	f.mustAddJournal(t, b.ID, late.ID)

	_, err := f.batchSvc.Post(testCtx(), b.ID)
	if !apperror.HasCode(err, apperror.CodeBatchMember) {
		t.Fatalf("expected batch member failure, got %v", err)
	}

	appErr, _ := apperror.AsAppError(err)
	failures, ok := appErr.Details["journals"].([]MemberFailure)
	if !ok {
		t.Fatalf("journals detail missing: %v", appErr.Details)
	}
	if len(failures) != 2 {
		t.Fatalf("expected 2 member failures, got %d: %+v", len(failures), failures)
	}
	byID := make(map[id.ID]MemberFailure, len(failures))
	for _, mf := range failures {
		byID[mf.JournalID] = mf
	}
	if mf := byID[bad.ID]; !hasViolation(mf.Violations, ViolationUnbalanced) {
		t.Errorf("unbalanced member failure missing: %+v", mf)
	}
	if mf := byID[late.ID]; mf.Reason == "" {
		t.Errorf("period failure must carry a reason: %+v", mf)
	}

	// Nothing in the batch posts, the clean journal included.
	for _, jid := range []id.ID{good.ID, bad.ID, late.ID} {
		m, _ := f.journalSvc.Get(testCtx(), jid)
		if m.Status != JournalStatusDraft {
			t.Errorf("member %s posted despite batch failure", m.Number)
		}
	}
	batch, _ := f.batchSvc.Get(testCtx(), b.ID)
	if batch.Status != BatchStatusDraft {
		t.Errorf("batch status = %s", batch.Status)
	}

	event, ok2 := f.notifier.last()
	if !ok2 || event.Type != EventPostingFailed {
		t.Errorf("expected posting_failed event, got %+v", event)
	}
}

func TestBatchService_Post_Gates(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		f := newFixture(t)
		b := f.mustCreateBatch(t, "empty")
		_, err := f.batchSvc.Post(testCtx(), b.ID)
		if !apperror.HasCode(err, apperror.CodeBatchState) {
			t.Errorf("empty batch: %v", err)
		}
	})

	t.Run("already posted", func(t *testing.T) {
		f := newFixture(t)
		b := f.mustCreateBatch(t, "b1")
		j := f.mustCreateBalanced(t, openDate)
		f.mustAddJournal(t, b.ID, j.ID)
		if _, err := f.batchSvc.Post(testCtx(), b.ID); err != nil {
			t.Fatalf("first post: %v", err)
		}
		_, err := f.batchSvc.Post(testCtx(), b.ID)
		if !apperror.HasCode(err, apperror.CodeConflict) {
			t.Errorf("second post: %v", err)
		}
	})

	t.Run("approval required", func(t *testing.T) {
		f := newFixture(t)
		cfg := fixtureSettings()
		cfg.RequireBatchApproval = true
		f.settings.put(cfg)

		b := f.mustCreateBatch(t, "b1")
		j := f.mustCreateBalanced(t, openDate)
		f.mustAddJournal(t, b.ID, j.ID)

		_, err := f.batchSvc.Post(testCtx(), b.ID)
		if !apperror.HasCode(err, apperror.CodeBatchState) {
			t.Fatalf("unreviewed batch must not post, got %v", err)
		}

		if _, err := f.batchSvc.MarkReady(testCtx(), b.ID); err != nil {
			t.Fatalf("mark ready: %v", err)
		}
		if _, err := f.batchSvc.Post(testCtx(), b.ID); err != nil {
			t.Errorf("reviewed batch should post: %v", err)
		}
	})
}

func TestBatchService_Cancel(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreateBatch(t, "b1")
	j := f.mustCreateBalanced(t, openDate)
	f.mustAddJournal(t, b.ID, j.ID)

	cancelled, err := f.batchSvc.Cancel(testCtx(), b.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != BatchStatusCancelled {
		t.Errorf("status = %s", cancelled.Status)
	}
	if cancelled.JournalCount != 0 || cancelled.TotalDebit != 0 || cancelled.TotalCredit != 0 {
		t.Error("aggregates must reset on cancel")
	}

	// Members return to standalone drafts.
	released, _ := f.journalSvc.Get(testCtx(), j.ID)
	if released.BatchID != nil {
		t.Error("member not released")
	}
	if released.Status != JournalStatusDraft {
		t.Errorf("member status = %s", released.Status)
	}

	if _, err := f.batchSvc.Cancel(testCtx(), b.ID); !apperror.HasCode(err, apperror.CodeBatchState) {
		t.Errorf("second cancel: %v", err)
	}
}

func TestBatchService_ForeignTenantHidden(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreateBatch(t, "b1")

	if _, err := f.batchSvc.Get(foreignCtx(), b.ID); !apperror.IsNotFound(err) {
		t.Errorf("foreign get: %v", err)
	}
	if _, err := f.batchSvc.Post(foreignCtx(), b.ID); !apperror.IsNotFound(err) {
		t.Errorf("foreign post: %v", err)
	}
}
