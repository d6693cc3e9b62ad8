package reports

import (
	"context"

	"gledger/internal/core/apperror"
	"gledger/internal/domain/ledger"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Service validates report queries and delegates to the repository.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) checkFilter(f *EntryFilter) error {
	if f.TenantID == "" {
		return apperror.NewValidation("tenant is required")
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return apperror.NewValidation("date range end is before start")
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return nil
}

// Entries returns posted ledger lines matching the filter.
func (s *Service) Entries(ctx context.Context, filter EntryFilter) (ledger.ListResult[LedgerEntry], error) {
	if err := s.checkFilter(&filter); err != nil {
		return ledger.ListResult[LedgerEntry]{}, err
	}
	return s.repo.Entries(ctx, filter)
}

// AccountTotals returns per-account debit/credit aggregates.
func (s *Service) AccountTotals(ctx context.Context, filter EntryFilter) ([]AccountTotal, error) {
	if err := s.checkFilter(&filter); err != nil {
		return nil, err
	}
	return s.repo.AccountTotals(ctx, filter)
}
