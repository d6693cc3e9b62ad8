package dto

import (
	"time"

	"gledger/internal/domain/ledger"
)

// CreateBatchRequest creates a Draft batch.
type CreateBatchRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// BatchJournalRequest attaches a journal to a batch.
type BatchJournalRequest struct {
	JournalID string `json:"journalId" binding:"required"`
}

// BatchFilterRequest narrows batch listings.
type BatchFilterRequest struct {
	Status  string `form:"status"`
	Search  string `form:"search"`
	OrderBy string `form:"orderBy"`
	Limit   int    `form:"limit"`
	Offset  int    `form:"offset"`
}

// BatchResponse is the batch header representation.
type BatchResponse struct {
	ID           string     `json:"id"`
	Number       string     `json:"number"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Status       string     `json:"status"`
	ReviewedBy   string     `json:"reviewedBy,omitempty"`
	PostedBy     string     `json:"postedBy,omitempty"`
	PostedAt     *time.Time `json:"postedAt,omitempty"`
	JournalCount int        `json:"journalCount"`
	TotalDebit   string     `json:"totalDebit"`
	TotalCredit  string     `json:"totalCredit"`
	Version      int        `json:"version"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	CreatedBy    string     `json:"createdBy,omitempty"`
}

// FromBatch creates BatchResponse from a domain batch.
func FromBatch(b *ledger.Batch) BatchResponse {
	return BatchResponse{
		ID:           b.ID.String(),
		Number:       b.Number,
		Name:         b.Name,
		Description:  b.Description,
		Status:       string(b.Status),
		ReviewedBy:   b.ReviewedBy,
		PostedBy:     b.PostedBy,
		PostedAt:     b.PostedAt,
		JournalCount: b.JournalCount,
		TotalDebit:   b.TotalDebit.String(),
		TotalCredit:  b.TotalCredit.String(),
		Version:      b.Version,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
		CreatedBy:    b.CreatedBy,
	}
}

// FromBatches converts a list of batch headers.
func FromBatches(batches []*ledger.Batch) []BatchResponse {
	out := make([]BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, FromBatch(b))
	}
	return out
}
