package ledger

import (
	"context"
	"time"

	"gledger/internal/core/apperror"
	"gledger/internal/core/sequence"
)

// Settings is the typed per-tenant configuration record: numbering,
// open-period boundaries, and posting policy flags. It replaces any
// open-ended configuration map with a fixed, validated shape.
type Settings struct {
	TenantID string `db:"tenant_id" json:"tenantId"`

	// Version for optimistic locking on settings updates
	Version int `db:"version" json:"version"`

	// Numbering
	JournalPrefix string `db:"journal_prefix" json:"journalPrefix"`
	BatchPrefix   string `db:"batch_prefix" json:"batchPrefix"`
	PadWidth      int    `db:"pad_width" json:"padWidth"`

	// Open posting window, inclusive on both ends (date granularity)
	PeriodStart time.Time `db:"period_start" json:"periodStart"`
	PeriodEnd   time.Time `db:"period_end" json:"periodEnd"`

	// AllowFuturePosting permits journals dated after PeriodEnd
	AllowFuturePosting bool `db:"allow_future_posting" json:"allowFuturePosting"`

	// RequireBatchApproval demands Ready status before batch posting
	RequireBatchApproval bool `db:"require_batch_approval" json:"requireBatchApproval"`

	// LockPostedEntries is a tenant-visible policy flag. Posted journals
	// are immutable regardless of its value; it is not an escape hatch.
	LockPostedEntries bool `db:"lock_posted_entries" json:"lockPostedEntries"`

	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// DefaultSettings returns the settings a tenant starts with:
// current calendar month open, no future posting, review optional.
func DefaultSettings(tenantID string) *Settings {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return &Settings{
		TenantID:          tenantID,
		Version:           1,
		JournalPrefix:     "JRN",
		BatchPrefix:       "BAT",
		PadWidth:          6,
		PeriodStart:       start,
		PeriodEnd:         start.AddDate(0, 1, -1),
		LockPostedEntries: true,
		UpdatedAt:         now,
	}
}

// Validate implements entity.Validatable.
func (s *Settings) Validate(ctx context.Context) error {
	if s.TenantID == "" {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	if s.JournalPrefix == "" || s.BatchPrefix == "" {
		return apperror.NewValidation("numbering prefixes are required").
			WithDetail("journalPrefix", s.JournalPrefix).
			WithDetail("batchPrefix", s.BatchPrefix)
	}
	if s.PadWidth < 1 || s.PadWidth > 12 {
		return apperror.NewValidation("pad width must be between 1 and 12").
			WithDetail("padWidth", s.PadWidth)
	}
	if s.PeriodStart.IsZero() || s.PeriodEnd.IsZero() {
		return apperror.NewValidation("period boundaries are required")
	}
	if s.PeriodEnd.Before(s.PeriodStart) {
		return apperror.NewValidation("period end must not precede period start").
			WithDetail("periodStart", s.PeriodStart).
			WithDetail("periodEnd", s.PeriodEnd)
	}
	return nil
}

// JournalFormat returns the sequencer format for journal numbers.
func (s *Settings) JournalFormat() sequence.Format {
	return sequence.Format{Prefix: s.JournalPrefix, PadWidth: s.PadWidth}
}

// BatchFormat returns the sequencer format for batch numbers.
func (s *Settings) BatchFormat() sequence.Format {
	return sequence.Format{Prefix: s.BatchPrefix, PadWidth: s.PadWidth}
}
