package ledger

import (
	"context"
	"time"

	"gledger/internal/core/id"
)

// --- Filter & Pagination ---

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// JournalFilter narrows journal listings.
type JournalFilter struct {
	TenantID string

	Status   *JournalStatus
	Source   string
	BatchID  *id.ID
	DateFrom *time.Time
	DateTo   *time.Time

	// Search matches journal number or memo
	Search string

	// OrderBy specifies sorting (e.g., "number", "-date")
	OrderBy string

	Limit  int
	Offset int
}

// BatchFilter narrows batch listings.
type BatchFilter struct {
	TenantID string

	Status   *BatchStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Search   string
	OrderBy  string

	Limit  int
	Offset int
}

// --- Repository contracts ---

// JournalRepository persists journals with their entries.
// Entries are never fetched independently of their parent journal.
type JournalRepository interface {
	// Create inserts the journal header and all entries
	Create(ctx context.Context, j *Journal) error

	// Get retrieves a journal with entries
	Get(ctx context.Context, journalID id.ID) (*Journal, error)

	// GetForUpdate retrieves a journal with entries under a row lock
	GetForUpdate(ctx context.Context, journalID id.ID) (*Journal, error)

	// Update writes the header (with optimistic version check) and
	// replaces the entry set
	Update(ctx context.Context, j *Journal) error

	// Delete removes a journal and cascades to its entries.
	// Callers guarantee the journal is Draft.
	Delete(ctx context.Context, journalID id.ID) error

	// List retrieves journals (headers only) with filtering
	List(ctx context.Context, filter JournalFilter) (ListResult[*Journal], error)

	// ListByBatch retrieves member journals with entries, ascending by
	// journal number, under row locks
	ListByBatch(ctx context.Context, batchID id.ID) ([]*Journal, error)

	// ClearBatch detaches all members of a batch (batch cancellation)
	ClearBatch(ctx context.Context, batchID id.ID) error
}

// BatchRepository persists batches.
type BatchRepository interface {
	Create(ctx context.Context, b *Batch) error
	Get(ctx context.Context, batchID id.ID) (*Batch, error)
	GetForUpdate(ctx context.Context, batchID id.ID) (*Batch, error)
	Update(ctx context.Context, b *Batch) error
	List(ctx context.Context, filter BatchFilter) (ListResult[*Batch], error)
}

// SettingsRepository persists per-tenant settings.
type SettingsRepository interface {
	// Get returns the tenant's settings, or defaults if none are stored
	Get(ctx context.Context, tenantID string) (*Settings, error)

	// Save upserts settings with optimistic version check
	Save(ctx context.Context, s *Settings) error
}
