package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"gledger/internal/core/apperror"
	appctx "gledger/internal/core/context"
	"gledger/internal/core/id"
	"gledger/internal/core/sequence"
	"gledger/internal/core/tx"
)

// --- In-memory repositories shared by the service tests ---

func cloneJournal(j *Journal) *Journal {
	c := *j
	c.Entries = append([]Entry(nil), j.Entries...)
	if j.BatchID != nil {
		b := *j.BatchID
		c.BatchID = &b
	}
	if j.PostedAt != nil {
		at := *j.PostedAt
		c.PostedAt = &at
	}
	if j.ReversalOf != nil {
		r := *j.ReversalOf
		c.ReversalOf = &r
	}
	return &c
}

type memJournalRepo struct {
	mu       sync.Mutex
	journals map[id.ID]*Journal
}

func newMemJournalRepo() *memJournalRepo {
	return &memJournalRepo{journals: make(map[id.ID]*Journal)}
}

func (r *memJournalRepo) Create(_ context.Context, j *Journal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.journals[j.ID]; ok {
		return apperror.NewConflict("journal already exists")
	}
	r.journals[j.ID] = cloneJournal(j)
	return nil
}

func (r *memJournalRepo) Get(_ context.Context, journalID id.ID) (*Journal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.journals[journalID]
	if !ok {
		return nil, apperror.NewNotFound("journal", journalID.String())
	}
	return cloneJournal(j), nil
}

func (r *memJournalRepo) GetForUpdate(ctx context.Context, journalID id.ID) (*Journal, error) {
	return r.Get(ctx, journalID)
}

func (r *memJournalRepo) Update(_ context.Context, j *Journal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.journals[j.ID]
	if !ok {
		return apperror.NewNotFound("journal", j.ID.String())
	}
	if stored.Version != j.Version {
		return apperror.NewConcurrentModification("journal", j.ID.String())
	}
	j.Touch()
	r.journals[j.ID] = cloneJournal(j)
	return nil
}

func (r *memJournalRepo) Delete(_ context.Context, journalID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.journals[journalID]; !ok {
		return apperror.NewNotFound("journal", journalID.String())
	}
	delete(r.journals, journalID)
	return nil
}

func (r *memJournalRepo) List(_ context.Context, filter JournalFilter) (ListResult[*Journal], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*Journal
	for _, j := range r.journals {
		if filter.TenantID != "" && j.TenantID != filter.TenantID {
			continue
		}
		if filter.Status != nil && j.Status != *filter.Status {
			continue
		}
		items = append(items, cloneJournal(j))
	}
	sort.Slice(items, func(i, k int) bool { return items[i].Number < items[k].Number })
	return ListResult[*Journal]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memJournalRepo) ListByBatch(_ context.Context, batchID id.ID) ([]*Journal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var members []*Journal
	for _, j := range r.journals {
		if j.BatchID != nil && *j.BatchID == batchID {
			members = append(members, cloneJournal(j))
		}
	}
	sort.Slice(members, func(i, k int) bool { return members[i].Number < members[k].Number })
	return members, nil
}

func (r *memJournalRepo) ClearBatch(_ context.Context, batchID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.journals {
		if j.BatchID != nil && *j.BatchID == batchID {
			j.BatchID = nil
			j.Touch()
		}
	}
	return nil
}

type memBatchRepo struct {
	mu      sync.Mutex
	batches map[id.ID]*Batch
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{batches: make(map[id.ID]*Batch)}
}

func cloneBatch(b *Batch) *Batch {
	c := *b
	if b.PostedAt != nil {
		at := *b.PostedAt
		c.PostedAt = &at
	}
	return &c
}

func (r *memBatchRepo) Create(_ context.Context, b *Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[b.ID]; ok {
		return apperror.NewConflict("batch already exists")
	}
	r.batches[b.ID] = cloneBatch(b)
	return nil
}

func (r *memBatchRepo) Get(_ context.Context, batchID id.ID) (*Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("batch", batchID.String())
	}
	return cloneBatch(b), nil
}

func (r *memBatchRepo) GetForUpdate(ctx context.Context, batchID id.ID) (*Batch, error) {
	return r.Get(ctx, batchID)
}

func (r *memBatchRepo) Update(_ context.Context, b *Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.batches[b.ID]
	if !ok {
		return apperror.NewNotFound("batch", b.ID.String())
	}
	if stored.Version != b.Version {
		return apperror.NewConcurrentModification("batch", b.ID.String())
	}
	b.Touch()
	r.batches[b.ID] = cloneBatch(b)
	return nil
}

func (r *memBatchRepo) List(_ context.Context, filter BatchFilter) (ListResult[*Batch], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*Batch
	for _, b := range r.batches {
		if filter.TenantID != "" && b.TenantID != filter.TenantID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		items = append(items, cloneBatch(b))
	}
	return ListResult[*Batch]{Items: items, TotalCount: int64(len(items))}, nil
}

type memSettingsRepo struct {
	mu       sync.Mutex
	settings map[string]*Settings
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{settings: make(map[string]*Settings)}
}

func (r *memSettingsRepo) Get(_ context.Context, tenantID string) (*Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.settings[tenantID]; ok {
		c := *s
		return &c, nil
	}
	return DefaultSettings(tenantID), nil
}

func (r *memSettingsRepo) Save(_ context.Context, s *Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.settings[s.TenantID]
	if !ok {
		c := *s
		c.Version = 1
		r.settings[s.TenantID] = &c
		s.Version = 1
		return nil
	}
	if stored.Version != s.Version {
		return apperror.NewConcurrentModification("settings", s.TenantID)
	}
	c := *s
	c.Version = stored.Version + 1
	r.settings[s.TenantID] = &c
	s.Version = c.Version
	return nil
}

func (r *memSettingsRepo) put(s *Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *s
	r.settings[s.TenantID] = &c
}

type captureNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *captureNotifier) Notify(_ context.Context, e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *captureNotifier) last() (Event, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return Event{}, false
	}
	return n.events[len(n.events)-1], true
}

// --- Fixture ---

// August 2026 is the open period in all service tests.
var (
	openDate   = time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	closedDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
)

func fixtureSettings() *Settings {
	return &Settings{
		TenantID:      "t1",
		Version:       1,
		JournalPrefix: "JRN",
		BatchPrefix:   "BAT",
		PadWidth:      6,
		PeriodStart:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	}
}

type fixture struct {
	journals *memJournalRepo
	batches  *memBatchRepo
	settings *memSettingsRepo
	notifier *captureNotifier

	journalSvc *JournalService
	batchSvc   *BatchService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		journals: newMemJournalRepo(),
		batches:  newMemBatchRepo(),
		settings: newMemSettingsRepo(),
		notifier: &captureNotifier{},
	}
	f.settings.put(fixtureSettings())

	validator := NewValidator(testDirectory())
	sequencer := &sequence.MockSequencer{}
	manager := tx.Passthrough{}

	f.journalSvc = NewJournalService(f.journals, f.settings, validator, sequencer, manager, f.notifier)
	f.batchSvc = NewBatchService(f.batches, f.journals, f.settings, validator, sequencer, manager, f.notifier)
	return f
}

func testCtx() context.Context {
	return appctx.WithActor(context.Background(), &appctx.Actor{
		UserID:   "u1",
		TenantID: "t1",
	})
}

func foreignCtx() context.Context {
	return appctx.WithActor(context.Background(), &appctx.Actor{
		UserID:   "u2",
		TenantID: "t2",
	})
}

// mustCreateBalanced persists a balanced draft journal through the service.
func (f *fixture) mustCreateBalanced(t *testing.T, date time.Time) *Journal {
	t.Helper()
	j := NewJournal("t1", date, "test", SourceManual)
	_ = j.AddEntry(Entry{AccountID: "6000", Debit: 50000})
	_ = j.AddEntry(Entry{AccountID: "1000", Credit: 50000})
	if err := f.journalSvc.Create(testCtx(), j); err != nil {
		t.Fatalf("create journal: %v", err)
	}
	return j
}

// --- Tests ---

func TestJournalService_Create_AllocatesNumber(t *testing.T) {
	f := newFixture(t)

	first := f.mustCreateBalanced(t, openDate)
	second := f.mustCreateBalanced(t, openDate)

	if first.Number != "JRN-000001" {
		t.Errorf("first number = %q, want JRN-000001", first.Number)
	}
	if second.Number != "JRN-000002" {
		t.Errorf("second number = %q, want JRN-000002", second.Number)
	}
	if first.CreatedBy != "u1" {
		t.Errorf("CreatedBy = %q, want u1", first.CreatedBy)
	}

	stored, err := f.journalSvc.Get(testCtx(), first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Entries) != 2 {
		t.Errorf("entries not persisted: %d", len(stored.Entries))
	}
}

func TestJournalService_Create_RejectsBadEntry(t *testing.T) {
	f := newFixture(t)

	j := NewJournal("t1", openDate, "", SourceManual)
	j.Entries = []Entry{{AccountID: "1000", Debit: -5}}

	if err := f.journalSvc.Create(testCtx(), j); err == nil {
		t.Fatal("negative entry must fail creation")
	}

	// A rejected create must not have burned a number for whoever comes next.
	next := f.mustCreateBalanced(t, openDate)
	if next.Number != "JRN-000001" {
		t.Errorf("number = %q, want JRN-000001", next.Number)
	}
}

func TestJournalService_Get_ForeignTenantHidden(t *testing.T) {
	f := newFixture(t)
	j := f.mustCreateBalanced(t, openDate)

	_, err := f.journalSvc.Get(foreignCtx(), j.ID)
	if !apperror.IsNotFound(err) {
		t.Errorf("foreign tenant must see not found, got %v", err)
	}
}

func TestJournalService_AddEntry_VersionCheck(t *testing.T) {
	f := newFixture(t)
	j := f.mustCreateBalanced(t, openDate)

	updated, err := f.journalSvc.AddEntry(testCtx(), j.ID, j.Version, Entry{AccountID: "2000", Credit: 100})
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if updated.Version != j.Version+1 {
		t.Errorf("version = %d, want %d", updated.Version, j.Version+1)
	}
	if len(updated.Entries) != 3 {
		t.Errorf("entries = %d, want 3", len(updated.Entries))
	}

	// The original version is now stale.
	_, err = f.journalSvc.AddEntry(testCtx(), j.ID, j.Version, Entry{AccountID: "2000", Credit: 100})
	if !apperror.IsConcurrentModification(err) {
		t.Errorf("stale version must be rejected, got %v", err)
	}
}

func TestJournalService_UpdateHooks(t *testing.T) {
	f := newFixture(t)
	j := f.mustCreateBalanced(t, openDate)

	var before, after int
	f.journalSvc.Hooks().OnBeforeUpdate(func(_ context.Context, _ *Journal) error {
		before++
		return nil
	})
	f.journalSvc.Hooks().OnAfterUpdate(func(_ context.Context, _ *Journal) error {
		after++
		return nil
	})

	updated, err := f.journalSvc.AddEntry(testCtx(), j.ID, j.Version, Entry{AccountID: "2000", Credit: 100})
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if before != 1 || after != 1 {
		t.Errorf("hook calls = %d before / %d after, want 1/1", before, after)
	}

	// A failing before-update hook aborts the mutation.
	f.journalSvc.Hooks().OnBeforeUpdate(func(_ context.Context, _ *Journal) error {
		return errors.New("rejected by integration")
	})
	if _, err := f.journalSvc.AddEntry(testCtx(), j.ID, updated.Version, Entry{AccountID: "2000", Credit: 100}); err == nil {
		t.Fatal("failing before-update hook must abort the mutation")
	}
	if after != 1 {
		t.Errorf("after-update ran on an aborted mutation: %d calls", after)
	}

	stored, err := f.journalSvc.Get(testCtx(), j.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Entries) != 3 {
		t.Errorf("entries = %d, aborted mutation must not persist", len(stored.Entries))
	}
	if stored.Version != updated.Version {
		t.Errorf("version = %d, want %d", stored.Version, updated.Version)
	}
}

func TestJournalService_Post(t *testing.T) {
	f := newFixture(t)
	j := f.mustCreateBalanced(t, openDate)

	posted, err := f.journalSvc.Post(testCtx(), j.ID)
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if posted.Status != JournalStatusPosted {
		t.Errorf("status = %s", posted.Status)
	}
	if posted.PostedBy != "u1" || posted.PostedAt == nil {
		t.Error("posting audit missing")
	}

	event, ok := f.notifier.last()
	if !ok || event.Type != EventJournalPosted {
		t.Errorf("expected journal_posted event, got %+v", event)
	}

	stored, _ := f.journalSvc.Get(testCtx(), j.ID)
	if stored.Status != JournalStatusPosted {
		t.Error("posted state not persisted")
	}
}

func TestJournalService_Post_Gates(t *testing.T) {
	t.Run("already posted", func(t *testing.T) {
		f := newFixture(t)
		j := f.mustCreateBalanced(t, openDate)
		if _, err := f.journalSvc.Post(testCtx(), j.ID); err != nil {
			t.Fatalf("first post: %v", err)
		}
		_, err := f.journalSvc.Post(testCtx(), j.ID)
		if !apperror.HasCode(err, apperror.CodeJournalPosted) {
			t.Errorf("second post: %v", err)
		}
	})

	t.Run("unbalanced", func(t *testing.T) {
		f := newFixture(t)
		j := NewJournal("t1", openDate, "", SourceManual)
		_ = j.AddEntry(Entry{AccountID: "6000", Debit: 50000})
		_ = j.AddEntry(Entry{AccountID: "1000", Credit: 40000})
		if err := f.journalSvc.Create(testCtx(), j); err != nil {
			t.Fatalf("create: %v", err)
		}

		_, err := f.journalSvc.Post(testCtx(), j.ID)
		if !apperror.HasCode(err, apperror.CodeUnbalanced) {
			t.Fatalf("expected unbalanced, got %v", err)
		}
		appErr, _ := apperror.AsAppError(err)
		if appErr.Details["imbalance"] != int64(10000) {
			t.Errorf("imbalance detail = %v, want 10000", appErr.Details["imbalance"])
		}

		stored, _ := f.journalSvc.Get(testCtx(), j.ID)
		if stored.Status != JournalStatusDraft {
			t.Error("failed post must leave the journal draft")
		}

		event, ok := f.notifier.last()
		if !ok || event.Type != EventPostingFailed {
			t.Errorf("expected posting_failed event, got %+v", event)
		}
	})

	t.Run("empty", func(t *testing.T) {
		f := newFixture(t)
		j := NewJournal("t1", openDate, "", SourceManual)
		if err := f.journalSvc.Create(testCtx(), j); err != nil {
			t.Fatalf("create: %v", err)
		}
		_, err := f.journalSvc.Post(testCtx(), j.ID)
		if !apperror.HasCode(err, apperror.CodeEmptyJournal) {
			t.Errorf("expected empty journal, got %v", err)
		}
	})

	t.Run("period closed", func(t *testing.T) {
		f := newFixture(t)
		j := f.mustCreateBalanced(t, closedDate)
		_, err := f.journalSvc.Post(testCtx(), j.ID)
		if !apperror.HasCode(err, apperror.CodePeriodClosed) {
			t.Errorf("expected period closed, got %v", err)
		}
	})

	t.Run("batch member", func(t *testing.T) {
		f := newFixture(t)
		j := f.mustCreateBalanced(t, openDate)
		b := NewBatch("t1", "august", "")
		if err := f.batchSvc.Create(testCtx(), b); err != nil {
			t.Fatalf("create batch: %v", err)
		}
		if err := f.batchSvc.AddJournal(testCtx(), b.ID, j.ID); err != nil {
			t.Fatalf("add journal: %v", err)
		}
		_, err := f.journalSvc.Post(testCtx(), j.ID)
		if !apperror.HasCode(err, apperror.CodeConflict) {
			t.Errorf("batch members must not post individually, got %v", err)
		}
	})
}

func TestJournalService_Delete(t *testing.T) {
	f := newFixture(t)
	j := f.mustCreateBalanced(t, openDate)

	if err := f.journalSvc.Delete(testCtx(), j.ID); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
	if _, err := f.journalSvc.Get(testCtx(), j.ID); !apperror.IsNotFound(err) {
		t.Errorf("journal should be gone, got %v", err)
	}

	posted := f.mustCreateBalanced(t, openDate)
	if _, err := f.journalSvc.Post(testCtx(), posted.ID); err != nil {
		t.Fatalf("post: %v", err)
	}
	if err := f.journalSvc.Delete(testCtx(), posted.ID); !apperror.HasCode(err, apperror.CodeJournalPosted) {
		t.Errorf("posted journal must not delete, got %v", err)
	}
}

func TestJournalService_Reverse(t *testing.T) {
	f := newFixture(t)
	j := f.mustCreateBalanced(t, openDate)
	if _, err := f.journalSvc.Post(testCtx(), j.ID); err != nil {
		t.Fatalf("post: %v", err)
	}

	rev, err := f.journalSvc.Reverse(testCtx(), j.ID, openDate.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	if rev.Status != JournalStatusDraft {
		t.Errorf("reversal auto-posted: %s", rev.Status)
	}
	if rev.Number == "" || rev.Number == j.Number {
		t.Errorf("reversal number = %q", rev.Number)
	}
	if rev.ReversalOf == nil || *rev.ReversalOf != j.ID {
		t.Error("reversal link missing")
	}

	// Mirror nets to zero against the source.
	if rev.TotalDebit != j.TotalCredit || rev.TotalCredit != j.TotalDebit {
		t.Errorf("not mirrored: %d/%d", rev.TotalDebit, rev.TotalCredit)
	}

	// Repeated reversal of the same journal is a caller policy, not
	// an engine restriction.
	if _, err := f.journalSvc.Reverse(testCtx(), j.ID, time.Time{}); err != nil {
		t.Errorf("second reversal rejected: %v", err)
	}
}

func TestJournalService_Reverse_DraftRejected(t *testing.T) {
	f := newFixture(t)
	j := f.mustCreateBalanced(t, openDate)

	_, err := f.journalSvc.Reverse(testCtx(), j.ID, time.Time{})
	if !apperror.HasCode(err, apperror.CodeJournalNotPosted) {
		t.Errorf("draft reversal must be rejected, got %v", err)
	}
}
