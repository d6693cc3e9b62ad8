package postgres

import (
	"context"
	"fmt"

	"gledger/internal/core/sequence"
)

// Compile-time check that PgSequencer implements sequence.Sequencer.
var _ sequence.Sequencer = (*PgSequencer)(nil)

// PgSequencer allocates document numbers from the ledger_sequences
// table. The counter advances with a single UPSERT + RETURNING, so two
// concurrent callers can never observe the same value. Numbers consumed
// by transactions that later roll back are not reused.
type PgSequencer struct {
	txManager *TxManager
}

// NewPgSequencer creates a sequencer backed by the given manager. When
// called inside a transaction the increment joins it; otherwise it runs
// on the pool and commits immediately.
func NewPgSequencer(txManager *TxManager) *PgSequencer {
	return &PgSequencer{txManager: txManager}
}

// Next increments and returns the tenant's counter for kind, rendered
// with the given format.
func (s *PgSequencer) Next(ctx context.Context, tenantID string, kind sequence.Kind, format sequence.Format) (string, error) {
	querier := s.txManager.GetQuerier(ctx)

	var num int64
	err := querier.QueryRow(ctx, `
        INSERT INTO ledger_sequences (tenant_id, kind, current_val)
        VALUES ($1, $2, 1)
        ON CONFLICT (tenant_id, kind) DO UPDATE SET current_val = ledger_sequences.current_val + 1
        RETURNING current_val
	`, tenantID, string(kind)).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next sequence %s/%s: %w", tenantID, kind, err)
	}

	return format.Render(num), nil
}
