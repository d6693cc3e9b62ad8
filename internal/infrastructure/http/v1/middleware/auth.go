package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"gledger/internal/core/apperror"
	appctx "gledger/internal/core/context"
)

// TokenValidator validates an access token and resolves the acting
// identity, including its tenant.
type TokenValidator interface {
	ValidateToken(tokenString string) (*appctx.Actor, error)
}

// Auth middleware validates bearer tokens and populates the actor context.
// Every request is scoped to the tenant carried in the token.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		actor, err := validator.ValidateToken(parts[1])
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token"))
			c.Abort()
			return
		}

		ctx := appctx.WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", actor.UserID)
		c.Set("tenant_id", actor.TenantID)

		c.Next()
	}
}

// RequireRole middleware checks if the actor has one of the required roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := appctx.GetActor(c.Request.Context())
		if actor == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		for _, required := range roles {
			for _, role := range actor.Roles {
				if role == required {
					c.Next()
					return
				}
			}
		}
		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
