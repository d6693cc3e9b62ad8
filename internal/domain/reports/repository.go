package reports

import (
	"context"

	"gledger/internal/domain/ledger"
)

// Repository is the read-only query surface over posted entries.
type Repository interface {
	// Entries returns posted lines matching the filter, newest journal
	// date first, line order preserved within a journal.
	Entries(ctx context.Context, filter EntryFilter) (ledger.ListResult[LedgerEntry], error)

	// AccountTotals aggregates posted lines per account for the filter's
	// tenant and date range.
	AccountTotals(ctx context.Context, filter EntryFilter) ([]AccountTotal, error)
}
