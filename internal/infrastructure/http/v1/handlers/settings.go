package handlers

import (
	"github.com/gin-gonic/gin"

	"gledger/internal/domain/ledger"
	"gledger/internal/infrastructure/http/v1/dto"
)

// SettingsHandler serves tenant settings endpoints.
type SettingsHandler struct {
	*BaseHandler
	service *ledger.SettingsService
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(service *ledger.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Get handles GET /settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.service.Get(c.Request.Context(), h.GetTenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSettings(s))
}

// Update handles PUT /settings.
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cfg := &ledger.Settings{
		TenantID:             h.GetTenantID(c),
		Version:              req.Version,
		JournalPrefix:        req.JournalPrefix,
		BatchPrefix:          req.BatchPrefix,
		PadWidth:             req.PadWidth,
		PeriodStart:          req.PeriodStart,
		PeriodEnd:            req.PeriodEnd,
		AllowFuturePosting:   req.AllowFuturePosting,
		RequireBatchApproval: req.RequireBatchApproval,
		LockPostedEntries:    req.LockPostedEntries,
	}

	updated, err := h.service.Update(c.Request.Context(), cfg)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSettings(updated))
}
