package ledger_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"gledger/internal/domain/accounts"
	"gledger/internal/infrastructure/storage/postgres"
)

const accountsTable = "accounts"

// Compile-time check that AccountDirectory implements accounts.Directory.
var _ accounts.Directory = (*AccountDirectory)(nil)

// AccountDirectory resolves account references against the chart of
// accounts table.
type AccountDirectory struct {
	txManager *postgres.TxManager
}

// NewAccountDirectory creates a new chart of accounts directory.
func NewAccountDirectory(txManager *postgres.TxManager) *AccountDirectory {
	return &AccountDirectory{txManager: txManager}
}

// Lookup resolves one account. An unknown account is reported through
// Info.Exists, not as an error.
func (d *AccountDirectory) Lookup(ctx context.Context, tenantID, accountID string) (accounts.Info, error) {
	querier := d.txManager.GetQuerier(ctx)

	var row struct {
		IsActive bool          `db:"is_active"`
		Type     accounts.Type `db:"type"`
	}
	err := pgxscan.Get(ctx, querier, &row, `
		SELECT is_active, type FROM `+accountsTable+`
		WHERE tenant_id = $1 AND account_id = $2
	`, tenantID, accountID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return accounts.Info{}, nil
		}
		return accounts.Info{}, fmt.Errorf("lookup account %s: %w", accountID, err)
	}

	return accounts.Info{
		Exists:   true,
		IsActive: row.IsActive,
		Type:     row.Type,
	}, nil
}
