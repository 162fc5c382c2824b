package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence port for user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsernames(ctx context.Context, usernames []string) ([]*User, error)
	// SetOTP stores a fresh OTP and its expiry for the user.
	SetOTP(ctx context.Context, id uuid.UUID, otp int, expiresAt time.Time) error
	// MarkVerified flags the account verified and clears any pending OTP.
	MarkVerified(ctx context.Context, id uuid.UUID) error
	// ClearExpiredOTPs removes OTPs whose expiry has passed and returns the
	// number of affected rows.
	ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error)
}

// TokenDenylist is the persistence port for revoked refresh tokens.
type TokenDenylist interface {
	Revoke(ctx context.Context, t *RevokedToken) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// PurgeExpired removes rows whose tokens have expired and returns the
	// number of affected rows.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
