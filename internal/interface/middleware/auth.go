package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/communify/communify-backend/internal/domain/entity"
	"github.com/communify/communify-backend/internal/domain/repository"
	"github.com/communify/communify-backend/pkg/response"
)

// Context keys set by the guard chain.
const (
	CtxAccountKey = "account"
	CtxUserIDKey  = "userID"
)

// TokenVerifier is the part of the token service the guard chain needs.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AccountFromContext returns the account loaded by Authenticated.
func AccountFromContext(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(CtxAccountKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*entity.User)
	return u, ok
}

// Authenticated is stage one of the guard chain: it resolves the bearer
// token to an account and stores it in the request context. An invalid
// or expired token and a token whose subject no longer exists produce
// the same 401; the distinction must not leak to the caller.
func Authenticated(tokens TokenVerifier, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			denyUnauthenticated(c)
			return
		}
		subject, err := tokens.Verify(raw)
		if err != nil {
			denyUnauthenticated(c)
			return
		}
		u, err := users.GetByID(c.Request.Context(), subject)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				response.Abort(c, http.StatusGatewayTimeout, "request timed out", nil)
				return
			}
			denyUnauthenticated(c)
			return
		}
		c.Set(CtxAccountKey, u)
		c.Set(CtxUserIDKey, u.ID)
		c.Next()
	}
}

// ActiveOnly is stage two: it requires the account loaded by
// Authenticated to have the is_active flag set. The boolean is
// authoritative for this gate; the lifecycle status is informative only.
func ActiveOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := AccountFromContext(c)
		if !ok {
			denyUnauthenticated(c)
			return
		}
		if !u.IsActive {
			response.Abort(c, http.StatusBadRequest, "inactive account", nil)
			return
		}
		c.Next()
	}
}

// AdminOnly is stage three: it requires the administrator role. It must
// be composed after Authenticated and ActiveOnly.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := AccountFromContext(c)
		if !ok {
			denyUnauthenticated(c)
			return
		}
		if !u.IsAdmin() {
			response.Abort(c, http.StatusForbidden, "admin privileges required", nil)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func denyUnauthenticated(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	response.Abort(c, http.StatusUnauthorized, "could not validate credentials", nil)
}
