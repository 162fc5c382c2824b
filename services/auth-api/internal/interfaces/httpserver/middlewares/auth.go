package middlewares

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chatter-server/services/auth-api/internal/domain/user"
)

// CurrentUserKey is the context key under which the authenticated account is
// stored.
const CurrentUserKey = "current_user"

// AccessTokenVerifier resolves an access token to the account it belongs to.
type AccessTokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*user.User, error)
}

// RequireAuth rejects requests without a valid access token and stores the
// resolved account on the context.
func RequireAuth(verifier AccessTokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication credentials were not provided.",
			})
			return
		}

		u, err := verifier.VerifyAccessToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token.",
			})
			return
		}

		c.Set(CurrentUserKey, u)
		c.Next()
	}
}

// RequireServiceKey gates service-to-service endpoints behind the shared
// secret carried in the X-Service-Key header.
func RequireServiceKey(serviceKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader("X-Service-Key")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(serviceKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized service",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser retrieves the authenticated account placed by RequireAuth.
func CurrentUser(c *gin.Context) *user.User {
	if v, exists := c.Get(CurrentUserKey); exists {
		if u, ok := v.(*user.User); ok {
			return u
		}
	}
	return nil
}

// BearerToken extracts the token from the Authorization header. A bare token
// without the Bearer prefix is accepted as a fallback.
func BearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return header
}
