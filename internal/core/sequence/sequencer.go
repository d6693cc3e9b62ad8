// Package sequence provides domain contracts for per-tenant document numbering.
// Implementations live in the infrastructure layer.
package sequence

import (
	"context"
	"fmt"
)

// Kind distinguishes the independent number sequences a tenant owns.
type Kind string

const (
	KindJournal Kind = "journal"
	KindBatch   Kind = "batch"
)

// Format controls how a raw counter value is rendered.
type Format struct {
	// Prefix added to all numbers (e.g., "JRN", "BAT")
	Prefix string

	// PadWidth is the minimum counter width (default 6)
	PadWidth int
}

// DefaultFormat returns sensible defaults for the given prefix.
func DefaultFormat(prefix string) Format {
	return Format{
		Prefix:   prefix,
		PadWidth: 6,
	}
}

// Render produces the final number string, e.g. "JRN-000042".
func (f Format) Render(n int64) string {
	pad := f.PadWidth
	if pad == 0 {
		pad = 6
	}
	return fmt.Sprintf("%s-%0*d", f.Prefix, pad, n)
}

// Sequencer issues strictly increasing document numbers.
//
// Next must be a single atomic increment-and-read against the tenant's
// counter: two concurrent callers for the same tenant and kind never
// receive the same value. Gaps are acceptable (an aborted posting does
// not reclaim its number); duplicates are not. If the counter store is
// unreachable, Next fails - there is no fallback numbering scheme.
type Sequencer interface {
	Next(ctx context.Context, tenantID string, kind Kind, format Format) (string, error)
}
