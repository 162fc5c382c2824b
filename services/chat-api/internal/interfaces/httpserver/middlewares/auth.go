package middlewares

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"chatter-server/services/chat-api/internal/domain/chat"
)

// IdentityKey is the context key under which the resolved identity is stored.
const IdentityKey = "identity"

// TokenVerifier resolves a bearer token to an identity. The boolean reports
// whether the token was accepted.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (chat.Identity, bool)
}

// Identity resolves the Authorization header into a chat identity and stores
// it on the request context. A missing or rejected token degrades to the
// anonymous identity; route handlers decide whether anonymity is acceptable.
func Identity(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := chat.Anonymous()
		if token := BearerToken(c); token != "" {
			identity, _ = verifier.VerifyToken(c.Request.Context(), token)
		}
		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// GetIdentity retrieves the resolved identity from the context.
func GetIdentity(c *gin.Context) chat.Identity {
	if v, exists := c.Get(IdentityKey); exists {
		if identity, ok := v.(chat.Identity); ok {
			return identity
		}
	}
	return chat.Anonymous()
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
