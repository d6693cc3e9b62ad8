package handlers

import (
	"github.com/gin-gonic/gin"

	"gledger/internal/core/apperror"
	"gledger/internal/core/id"
	"gledger/internal/domain/reports"
	"gledger/internal/infrastructure/http/v1/dto"
)

// ReportsHandler serves the posted-entry read surface.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

func (h *ReportsHandler) buildFilter(c *gin.Context) (reports.EntryFilter, bool) {
	var req dto.LedgerFilterRequest
	if !h.BindQuery(c, &req) {
		return reports.EntryFilter{}, false
	}

	filter := reports.EntryFilter{
		TenantID:   h.GetTenantID(c),
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		AccountID:  req.AccountID,
		Source:     req.Source,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Limit:      req.Limit,
		Offset:     req.Offset,
	}
	if req.BatchID != "" {
		batchID, err := id.Parse(req.BatchID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid batchId").WithDetail("batchId", req.BatchID))
			return reports.EntryFilter{}, false
		}
		filter.BatchID = &batchID
	}
	return filter, true
}

// Entries handles GET /ledger/entries.
func (h *ReportsHandler) Entries(c *gin.Context) {
	filter, ok := h.buildFilter(c)
	if !ok {
		return
	}

	result, err := h.service.Entries(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.LedgerEntryResponse, 0, len(result.Items))
	for _, e := range result.Items {
		items = append(items, dto.FromLedgerEntry(e))
	}

	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// AccountTotals handles GET /ledger/account-totals.
func (h *ReportsHandler) AccountTotals(c *gin.Context) {
	filter, ok := h.buildFilter(c)
	if !ok {
		return
	}

	totals, err := h.service.AccountTotals(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.AccountTotalResponse, 0, len(totals))
	for _, t := range totals {
		items = append(items, dto.FromAccountTotal(t))
	}

	h.OK(c, items)
}
