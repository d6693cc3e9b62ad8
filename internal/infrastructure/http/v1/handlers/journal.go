package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gledger/internal/core/apperror"
	"gledger/internal/core/id"
	"gledger/internal/domain/ledger"
	"gledger/internal/infrastructure/http/v1/dto"
)

// JournalHandler serves the journal lifecycle endpoints.
type JournalHandler struct {
	*BaseHandler
	service *ledger.JournalService
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(service *ledger.JournalService) *JournalHandler {
	return &JournalHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /journals.
func (h *JournalHandler) Create(c *gin.Context) {
	var req dto.CreateJournalRequest
	if !h.BindJSON(c, &req) {
		return
	}

	j := ledger.NewJournal(h.GetTenantID(c), req.Date, req.Memo, req.Source)
	for _, p := range req.Entries {
		entry, err := p.ToEntry()
		if err != nil {
			h.Error(c, err)
			return
		}
		if err := j.AddEntry(entry); err != nil {
			h.Error(c, err)
			return
		}
	}

	if err := h.service.Create(c.Request.Context(), j); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, j.ID)
}

// Get handles GET /journals/:id.
func (h *JournalHandler) Get(c *gin.Context) {
	journalID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	j, err := h.service.Get(c.Request.Context(), journalID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromJournal(j))
}

// List handles GET /journals.
func (h *JournalHandler) List(c *gin.Context) {
	var req dto.JournalFilterRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := ledger.JournalFilter{
		TenantID: h.GetTenantID(c),
		Source:   req.Source,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Search:   req.Search,
		OrderBy:  req.OrderBy,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	if req.Status != "" {
		status := ledger.JournalStatus(req.Status)
		filter.Status = &status
	}
	if req.BatchID != "" {
		batchID, err := id.Parse(req.BatchID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid batchId").WithDetail("batchId", req.BatchID))
			return
		}
		filter.BatchID = &batchID
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromJournals(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Delete handles DELETE /journals/:id.
func (h *JournalHandler) Delete(c *gin.Context) {
	journalID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), journalID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// AddEntry handles POST /journals/:id/entries.
func (h *JournalHandler) AddEntry(c *gin.Context) {
	journalID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.EntryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := req.Entry.ToEntry()
	if err != nil {
		h.Error(c, err)
		return
	}

	j, err := h.service.AddEntry(c.Request.Context(), journalID, req.Version, entry)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromJournal(j))
}

// UpdateEntry handles PUT /journals/:id/entries/:lineNo.
func (h *JournalHandler) UpdateEntry(c *gin.Context) {
	journalID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	lineNo, ok := h.parseLineNo(c)
	if !ok {
		return
	}

	var req dto.EntryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := req.Entry.ToEntry()
	if err != nil {
		h.Error(c, err)
		return
	}

	j, err := h.service.UpdateEntry(c.Request.Context(), journalID, req.Version, lineNo, entry)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromJournal(j))
}

// RemoveEntry handles DELETE /journals/:id/entries/:lineNo.
func (h *JournalHandler) RemoveEntry(c *gin.Context) {
	journalID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	lineNo, ok := h.parseLineNo(c)
	if !ok {
		return
	}

	version := h.parseIntQuery(c, "version", 0)

	j, err := h.service.RemoveEntry(c.Request.Context(), journalID, version, lineNo)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromJournal(j))
}

// Post handles POST /journals/:id/post.
func (h *JournalHandler) Post(c *gin.Context) {
	journalID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	j, err := h.service.Post(c.Request.Context(), journalID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromJournal(j))
}

// Reverse handles POST /journals/:id/reverse.
func (h *JournalHandler) Reverse(c *gin.Context) {
	journalID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReverseJournalRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	var date time.Time
	if req.Date != nil {
		date = *req.Date
	}

	rev, err := h.service.Reverse(c.Request.Context(), journalID, date)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromJournal(rev))
}

func (h *JournalHandler) parseLineNo(c *gin.Context) (int, bool) {
	lineNo, err := strconv.Atoi(c.Param("lineNo"))
	if err != nil || lineNo < 1 {
		h.Error(c, apperror.NewValidation("invalid line number").
			WithDetail("lineNo", c.Param("lineNo")))
		return 0, false
	}
	return lineNo, true
}

func (h *JournalHandler) parseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
