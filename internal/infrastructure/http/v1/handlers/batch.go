package handlers

import (
	"github.com/gin-gonic/gin"

	"gledger/internal/core/apperror"
	"gledger/internal/core/id"
	"gledger/internal/domain/ledger"
	"gledger/internal/infrastructure/http/v1/dto"
)

// BatchHandler serves the batch coordination endpoints.
type BatchHandler struct {
	*BaseHandler
	service *ledger.BatchService
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(service *ledger.BatchService) *BatchHandler {
	return &BatchHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /batches.
func (h *BatchHandler) Create(c *gin.Context) {
	var req dto.CreateBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b := ledger.NewBatch(h.GetTenantID(c), req.Name, req.Description)
	if err := h.service.Create(c.Request.Context(), b); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, b.ID)
}

// Get handles GET /batches/:id.
func (h *BatchHandler) Get(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(b))
}

// List handles GET /batches.
func (h *BatchHandler) List(c *gin.Context) {
	var req dto.BatchFilterRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := ledger.BatchFilter{
		TenantID: h.GetTenantID(c),
		Search:   req.Search,
		OrderBy:  req.OrderBy,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	if req.Status != "" {
		status := ledger.BatchStatus(req.Status)
		filter.Status = &status
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromBatches(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Journals handles GET /batches/:id/journals.
func (h *BatchHandler) Journals(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	journals, err := h.service.Journals(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromJournals(journals))
}

// AddJournal handles POST /batches/:id/journals.
func (h *BatchHandler) AddJournal(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.BatchJournalRequest
	if !h.BindJSON(c, &req) {
		return
	}
	journalID, err := id.Parse(req.JournalID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid journalId").WithDetail("journalId", req.JournalID))
		return
	}

	if err := h.service.AddJournal(c.Request.Context(), batchID, journalID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "journal added to batch")
}

// RemoveJournal handles DELETE /batches/:id/journals/:journalId.
func (h *BatchHandler) RemoveJournal(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	journalID, ok := h.ParseID(c, "journalId")
	if !ok {
		return
	}

	if err := h.service.RemoveJournal(c.Request.Context(), batchID, journalID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Ready handles POST /batches/:id/ready.
func (h *BatchHandler) Ready(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.MarkReady(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(b))
}

// Post handles POST /batches/:id/post.
func (h *BatchHandler) Post(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.Post(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(b))
}

// Cancel handles POST /batches/:id/cancel.
func (h *BatchHandler) Cancel(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(b))
}
