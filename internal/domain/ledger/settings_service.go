package ledger

import (
	"context"

	"gledger/pkg/logger"
)

// SettingsService reads and replaces per-tenant settings.
type SettingsService struct {
	settings SettingsRepository
}

// NewSettingsService creates a new settings service.
func NewSettingsService(settings SettingsRepository) *SettingsService {
	return &SettingsService{settings: settings}
}

// Get returns the tenant's settings, defaults included.
func (s *SettingsService) Get(ctx context.Context, tenantID string) (*Settings, error) {
	return s.settings.Get(ctx, tenantID)
}

// Update replaces the tenant's settings. The caller's version must
// match the stored record; changes never affect already posted journals.
func (s *SettingsService) Update(ctx context.Context, cfg *Settings) (*Settings, error) {
	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.settings.Save(ctx, cfg); err != nil {
		return nil, err
	}

	logger.Info(ctx, "settings updated",
		"tenant_id", cfg.TenantID,
		"period_start", cfg.PeriodStart,
		"period_end", cfg.PeriodEnd)

	return cfg, nil
}
