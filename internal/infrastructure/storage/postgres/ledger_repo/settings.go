package ledger_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"gledger/internal/core/apperror"
	"gledger/internal/domain/ledger"
	"gledger/internal/infrastructure/storage/postgres"
)

const settingsTable = "ledger_settings"

var settingsColumns = postgres.ExtractDBColumns[ledger.Settings]()

// Compile-time check that SettingsRepo implements ledger.SettingsRepository.
var _ ledger.SettingsRepository = (*SettingsRepo)(nil)

// SettingsRepo persists per-tenant settings, one row per tenant.
type SettingsRepo struct {
	txManager *postgres.TxManager
}

// NewSettingsRepo creates a new settings repository.
func NewSettingsRepo(txManager *postgres.TxManager) *SettingsRepo {
	return &SettingsRepo{txManager: txManager}
}

// Get returns the tenant's settings. A tenant that has never saved
// settings gets the defaults; they are not written back until Save.
func (r *SettingsRepo) Get(ctx context.Context, tenantID string) (*ledger.Settings, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE tenant_id = $1",
		strings.Join(settingsColumns, ", "), settingsTable)

	querier := r.txManager.GetQuerier(ctx)
	s := &ledger.Settings{}
	if err := pgxscan.Get(ctx, querier, s, sql, tenantID); err != nil {
		if pgxscan.NotFound(err) {
			return ledger.DefaultSettings(tenantID), nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

// Save upserts the tenant's settings. An update only lands when the
// stored version matches s.Version; a first-time save inserts version 1.
// s.Version is synced to the committed row so serial saves never trip
// the version check.
func (r *SettingsRepo) Save(ctx context.Context, s *ledger.Settings) error {
	querier := r.txManager.GetQuerier(ctx)

	err := querier.QueryRow(ctx, `
		INSERT INTO `+settingsTable+` (tenant_id, version, journal_prefix, batch_prefix, pad_width,
			period_start, period_end, allow_future_posting, require_batch_approval,
			lock_posted_entries, updated_at)
		VALUES ($1, 1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET
			version = `+settingsTable+`.version + 1,
			journal_prefix = EXCLUDED.journal_prefix,
			batch_prefix = EXCLUDED.batch_prefix,
			pad_width = EXCLUDED.pad_width,
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			allow_future_posting = EXCLUDED.allow_future_posting,
			require_batch_approval = EXCLUDED.require_batch_approval,
			lock_posted_entries = EXCLUDED.lock_posted_entries,
			updated_at = NOW()
		WHERE `+settingsTable+`.version = $10
		RETURNING version
	`, s.TenantID, s.JournalPrefix, s.BatchPrefix, s.PadWidth,
		s.PeriodStart, s.PeriodEnd, s.AllowFuturePosting, s.RequireBatchApproval,
		s.LockPostedEntries, s.Version).Scan(&s.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewConcurrentModification("settings", s.TenantID)
	}
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
