// Package authclient is a thin client for the auth-api service. It is the only
// upstream dependency on the chat hot path, so every call carries a short
// timeout and every failure degrades rather than propagates.
package authclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"chatter-server/services/chat-api/internal/config"
	"chatter-server/services/chat-api/internal/domain/chat"
	"chatter-server/services/chat-api/internal/infrastructure/metrics"
)

const serviceKeyHeader = "X-Service-Key"

// Client calls the auth-api over HTTP with a shared service credential.
type Client struct {
	client *resty.Client
	log    zerolog.Logger
}

var _ chat.UserDirectory = (*Client)(nil)

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type verifyTokenResponse struct {
	Valid bool         `json:"valid"`
	User  *userPayload `json:"user"`
}

type searchUsersResponse struct {
	Valid bool          `json:"valid"`
	Users []userPayload `json:"users"`
}

// New creates an auth service client.
func New(cfg *config.Config, log zerolog.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.AuthServiceURL).
		SetTimeout(cfg.AuthTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader(serviceKeyHeader, cfg.ServiceKey)

	return &Client{
		client: client,
		log:    log.With().Str("component", "auth-client").Logger(),
	}
}

// VerifyToken resolves a bearer token to an identity. Timeouts, transport
// failures and explicit rejections all degrade to the anonymous identity; the
// connection handshake must never fail because the auth service is down.
func (c *Client) VerifyToken(ctx context.Context, token string) (chat.Identity, bool) {
	if token == "" {
		return chat.Anonymous(), false
	}

	start := time.Now()
	defer func() {
		metrics.AuthVerifyDuration.Observe(time.Since(start).Seconds())
	}()

	var out verifyTokenResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"token": token}).
		SetResult(&out).
		Post("/users/verify-token/")
	if err != nil {
		c.log.Warn().Err(err).Msg("token verification unreachable, degrading to anonymous")
		return chat.Anonymous(), false
	}
	if resp.StatusCode() != http.StatusOK || !out.Valid || out.User == nil {
		return chat.Anonymous(), false
	}

	id, err := uuid.Parse(out.User.ID)
	if err != nil {
		c.log.Warn().Str("user_id", out.User.ID).Msg("auth service returned malformed user id")
		return chat.Anonymous(), false
	}
	return chat.NewIdentity(id, out.User.Username, out.User.Email), true
}

// SearchByUsernames resolves usernames to identities. The second return value
// lists usernames the auth service did not match.
func (c *Client) SearchByUsernames(ctx context.Context, usernames []string) ([]chat.Identity, []string, error) {
	var out searchUsersResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string][]string{"usernames": usernames}).
		SetResult(&out).
		Post("/users/search-by-username/")
	if err != nil {
		return nil, nil, fmt.Errorf("search usernames: %w", err)
	}
	if resp.StatusCode() != http.StatusOK || !out.Valid {
		return nil, nil, fmt.Errorf("search usernames: auth service returned %d", resp.StatusCode())
	}

	matched := make(map[string]chat.Identity, len(out.Users))
	for _, u := range out.Users {
		id, err := uuid.Parse(u.ID)
		if err != nil {
			continue
		}
		matched[u.Username] = chat.NewIdentity(id, u.Username, u.Email)
	}

	identities := make([]chat.Identity, 0, len(matched))
	var missing []string
	for _, name := range usernames {
		if identity, ok := matched[name]; ok {
			identities = append(identities, identity)
		} else {
			missing = append(missing, name)
		}
	}
	return identities, missing, nil
}
