package entity

import (
	"context"
	"time"

	"gledger/internal/core/apperror"
)

// Document is the base type for numbered, dated business records
// (journals and batches). Numbers are issued by the sequencer and are
// unique per tenant and document kind.
type Document struct {
	BaseDocument

	// TenantID scopes the document; every query filters on it
	TenantID string `db:"tenant_id" json:"tenantId"`

	// Number is the sequencer-issued identifier (unique per tenant+kind)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`
}

// NewDocument creates a new Document for the given tenant.
func NewDocument(tenantID string, date time.Time) Document {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return Document{
		BaseDocument: NewBaseDocument(),
		TenantID:     tenantID,
		Date:         date,
	}
}

// Validate implements the Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.TenantID == "" {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}

	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}
