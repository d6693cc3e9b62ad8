package sequence

import (
	"context"
	"sync"
)

// MockSequencer is a test implementation of Sequencer.
// It keeps independent in-memory counters per tenant+kind.
// Use in unit tests to avoid database dependencies.
type MockSequencer struct {
	// NextFunc overrides the default behaviour when set
	NextFunc func(ctx context.Context, tenantID string, kind Kind, format Format) (string, error)

	mu       sync.Mutex
	counters map[string]int64
}

// Next implements Sequencer.
func (m *MockSequencer) Next(ctx context.Context, tenantID string, kind Kind, format Format) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, tenantID, kind, format)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	key := tenantID + ":" + string(kind)
	m.counters[key]++
	return format.Render(m.counters[key]), nil
}

// Ensure compile-time interface compliance.
var _ Sequencer = (*MockSequencer)(nil)
