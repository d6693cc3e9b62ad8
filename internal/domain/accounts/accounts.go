// Package accounts defines the read-only contract to the Chart of Accounts
// provider. The posting engine consults it for account identity and status;
// it never mutates the chart.
package accounts

import (
	"context"
)

// Type classifies an account in the chart.
type Type string

const (
	TypeAsset     Type = "asset"
	TypeLiability Type = "liability"
	TypeEquity    Type = "equity"
	TypeRevenue   Type = "revenue"
	TypeExpense   Type = "expense"
)

// Info is what the engine needs to know about an account.
type Info struct {
	Exists   bool
	IsActive bool
	Type     Type
}

// Directory is the Chart of Accounts collaborator.
type Directory interface {
	// Lookup reports whether the account exists for the tenant and
	// whether it is active. A missing account returns Info{Exists: false},
	// not an error; errors are infrastructure failures only.
	Lookup(ctx context.Context, tenantID, accountID string) (Info, error)
}

// StaticDirectory is an in-memory Directory for tests.
// Keys are "tenantID/accountID".
type StaticDirectory map[string]Info

// Lookup implements Directory.
func (d StaticDirectory) Lookup(_ context.Context, tenantID, accountID string) (Info, error) {
	info, ok := d[tenantID+"/"+accountID]
	if !ok {
		return Info{}, nil
	}
	return info, nil
}
