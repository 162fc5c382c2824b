// Package userhandler handles user-related HTTP requests.
package userhandler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"chatter-server/services/auth-api/internal/domain/user"
)

// Handler is a thin adapter between routes and the user service.
type Handler struct {
	service  *user.Service
	validate *validator.Validate
}

// New creates a user handler.
func New(service *user.Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register creates an account and triggers the first OTP mail.
func (h *Handler) Register(ctx context.Context, in user.RegisterInput) (*user.User, error) {
	if err := h.validate.Struct(in); err != nil {
		return nil, err
	}
	return h.service.Register(ctx, in)
}

// Login checks credentials and issues a token pair.
func (h *Handler) Login(ctx context.Context, email, password string) (user.TokenPair, error) {
	return h.service.Login(ctx, email, password)
}

// Refresh rotates a new access token from a refresh token.
func (h *Handler) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return h.service.Refresh(ctx, refreshToken)
}

// VerifyOTP checks the submitted code and marks the account verified.
func (h *Handler) VerifyOTP(ctx context.Context, userID uuid.UUID, otp int) error {
	return h.service.VerifyOTP(ctx, userID, otp)
}

// ResendOTP regenerates and mails a fresh code.
func (h *Handler) ResendOTP(ctx context.Context, userID uuid.UUID) error {
	return h.service.ResendOTP(ctx, userID)
}

// Logout revokes the presented refresh token.
func (h *Handler) Logout(ctx context.Context, refreshToken string) error {
	return h.service.Logout(ctx, refreshToken)
}

// VerifyAccessToken resolves an access token to its account.
func (h *Handler) VerifyAccessToken(ctx context.Context, token string) (*user.User, error) {
	return h.service.VerifyAccessToken(ctx, token)
}

// SearchByUsernames resolves usernames to accounts.
func (h *Handler) SearchByUsernames(ctx context.Context, usernames []string) ([]*user.User, error) {
	return h.service.SearchByUsernames(ctx, usernames)
}
