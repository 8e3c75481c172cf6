package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"doculingua-backend/internal/shared/auth"
	"doculingua-backend/internal/shared/server/respond"
	"doculingua-backend/internal/shared/telemetry"
)

const (
	userIDKey      = "userId"
	userEmailKey   = "userEmail"
	tokenIDKey     = "tokenId"
	tokenExpiryKey = "tokenExpiry"
)

// TokenVerifier verifies bearer tokens. *auth.Manager satisfies it.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Auth validates the bearer JWT and stores the caller identity in context.
// A nil revoker disables the revocation check.
func Auth(verifier TokenVerifier, revoker auth.Revoker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Unauthorized: no token provided")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				respond.Error(c, http.StatusForbidden, "token_expired", "Forbidden: token expired")
				return
			}
			respond.Error(c, http.StatusForbidden, "invalid_token", "Forbidden: invalid token")
			return
		}

		if revoker != nil {
			revoked, err := revoker.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				telemetry.Warn("auth.revocation_check_failed", map[string]any{"error": err})
			} else if revoked {
				respond.Error(c, http.StatusUnauthorized, "token_revoked", "Unauthorized: token revoked")
				return
			}
		}

		c.Set(userIDKey, claims.Subject)
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		c.Set(tokenIDKey, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(tokenExpiryKey, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userEmailKey)
}

// TokenFromContext returns the verified token id and expiry, used by logout.
func TokenFromContext(c *gin.Context) (string, time.Time) {
	if c == nil {
		return "", time.Time{}
	}
	return c.GetString(tokenIDKey), c.GetTime(tokenExpiryKey)
}
