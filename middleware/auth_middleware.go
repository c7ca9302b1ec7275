package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arnold-commerce/backend/apperrors"
	"github.com/arnold-commerce/backend/services"
)

const (
	identityKey = "identity"
	tokenKey    = "session_token"
)

// Validator resolves a raw bearer token to an authenticated identity.
type Validator interface {
	Validate(ctx context.Context, token string) (services.Identity, error)
}

// RequireAuth is the session guard: it extracts the bearer token, validates
// it and stores the identity in the request context. Every failure mode
// (missing, malformed, expired, revoked) surfaces as UNAUTHENTICATED so
// handlers downstream never see credential-store internals.
func RequireAuth(v Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			apperrors.Fail(c, apperrors.New(apperrors.KindUnauthenticated, "", "missing bearer token"))
			return
		}

		identity, err := v.Validate(c, token)
		if err != nil {
			appErr := apperrors.From(err)
			if appErr.Kind != apperrors.KindUnauthenticated && appErr.Kind != apperrors.KindInternal {
				appErr = apperrors.New(apperrors.KindUnauthenticated, appErr.Code, "invalid session")
			}
			apperrors.Fail(c, appErr)
			return
		}

		c.Set(identityKey, identity)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// RequireRole gates a route on the authenticated identity's role. A valid
// identity with the wrong role gets FORBIDDEN, never UNAUTHENTICATED.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			apperrors.Fail(c, apperrors.New(apperrors.KindUnauthenticated, "", "missing bearer token"))
			return
		}
		if identity.Role != role {
			apperrors.Fail(c, apperrors.New(apperrors.KindForbidden, "", "insufficient role"))
			return
		}
		c.Next()
	}
}

// IdentityFrom reads the authenticated identity set by RequireAuth.
func IdentityFrom(c *gin.Context) (services.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return services.Identity{}, false
	}
	identity, ok := v.(services.Identity)
	return identity, ok
}

// TokenFrom reads the raw session token set by RequireAuth.
func TokenFrom(c *gin.Context) string {
	return c.GetString(tokenKey)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	// tolerate a bare token for older clients
	return strings.TrimSpace(header)
}
