package dto

import (
	"time"

	"gledger/internal/domain/ledger"
)

// UpdateSettingsRequest replaces the tenant's settings. Version must
// match the stored record.
type UpdateSettingsRequest struct {
	JournalPrefix        string    `json:"journalPrefix" binding:"required"`
	BatchPrefix          string    `json:"batchPrefix" binding:"required"`
	PadWidth             int       `json:"padWidth" binding:"required,min=1,max=12"`
	PeriodStart          time.Time `json:"periodStart" binding:"required"`
	PeriodEnd            time.Time `json:"periodEnd" binding:"required"`
	AllowFuturePosting   bool      `json:"allowFuturePosting"`
	RequireBatchApproval bool      `json:"requireBatchApproval"`
	LockPostedEntries    bool      `json:"lockPostedEntries"`
	Version              int       `json:"version" binding:"required,min=1"`
}

// SettingsResponse is the tenant settings representation.
type SettingsResponse struct {
	TenantID             string    `json:"tenantId"`
	JournalPrefix        string    `json:"journalPrefix"`
	BatchPrefix          string    `json:"batchPrefix"`
	PadWidth             int       `json:"padWidth"`
	PeriodStart          time.Time `json:"periodStart"`
	PeriodEnd            time.Time `json:"periodEnd"`
	AllowFuturePosting   bool      `json:"allowFuturePosting"`
	RequireBatchApproval bool      `json:"requireBatchApproval"`
	LockPostedEntries    bool      `json:"lockPostedEntries"`
	Version              int       `json:"version"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// FromSettings creates SettingsResponse from domain settings.
func FromSettings(s *ledger.Settings) SettingsResponse {
	return SettingsResponse{
		TenantID:             s.TenantID,
		JournalPrefix:        s.JournalPrefix,
		BatchPrefix:          s.BatchPrefix,
		PadWidth:             s.PadWidth,
		PeriodStart:          s.PeriodStart,
		PeriodEnd:            s.PeriodEnd,
		AllowFuturePosting:   s.AllowFuturePosting,
		RequireBatchApproval: s.RequireBatchApproval,
		LockPostedEntries:    s.LockPostedEntries,
		Version:              s.Version,
		UpdatedAt:            s.UpdatedAt,
	}
}
