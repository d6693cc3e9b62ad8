// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Actor identifies who is performing an operation and for which tenant.
// The engine trusts the identity provider that populated it; it records
// the supplied identity but never authenticates it.
type Actor struct {
	UserID   string
	TenantID string
	Email    string
	Roles    []string
}

type actorKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor returns Actor from context, or nil.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetUserID returns acting user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.UserID
	}
	return ""
}

// GetTenantID returns tenant ID from context or empty string.
func GetTenantID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.TenantID
	}
	return ""
}

// HasRole checks if the actor has a specific role.
func HasRole(ctx context.Context, role string) bool {
	a := GetActor(ctx)
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
