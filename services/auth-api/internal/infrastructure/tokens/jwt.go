// Package tokens issues and validates the HS256 JWT pairs of the identity
// service.
package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"chatter-server/services/auth-api/internal/config"
	"chatter-server/services/auth-api/internal/domain/user"
)

const (
	// TypeAccess marks short-lived tokens accepted on authenticated routes.
	TypeAccess = "access"
	// TypeRefresh marks long-lived tokens accepted only for rotation and
	// logout.
	TypeRefresh = "refresh"
)

// Claims is the claim set carried by both token kinds.
type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Manager signs and validates tokens with a single shared HS256 secret.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

var _ user.TokenIssuer = (*Manager)(nil)

// NewManager creates a token manager from service configuration.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
}

// IssuePair creates a fresh access+refresh pair for the user.
func (m *Manager) IssuePair(userID uuid.UUID) (user.TokenPair, error) {
	access, err := m.issue(userID, TypeAccess, m.accessTTL)
	if err != nil {
		return user.TokenPair{}, err
	}
	refresh, err := m.issue(userID, TypeRefresh, m.refreshTTL)
	if err != nil {
		return user.TokenPair{}, err
	}
	return user.TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess creates a fresh access token for the user.
func (m *Manager) IssueAccess(userID uuid.UUID) (string, error) {
	return m.issue(userID, TypeAccess, m.accessTTL)
}

func (m *Manager) issue(userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ParseToken validates a token of the expected type. Any signature, expiry or
// type mismatch collapses into ErrInvalidToken.
func (m *Manager) ParseToken(raw, expectedType string) (user.TokenInfo, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return user.TokenInfo{}, user.ErrInvalidToken
	}
	if claims.TokenType != expectedType {
		return user.TokenInfo{}, user.ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return user.TokenInfo{}, user.ErrInvalidToken
	}

	info := user.TokenInfo{UserID: id, JTI: claims.ID}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
