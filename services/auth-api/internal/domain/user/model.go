package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the account record of the identity service.
type User struct {
	ID           uuid.UUID
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash string
	OTP          *int
	OTPExpiresAt *time.Time
	IsVerified   bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the external projection of a user, shared with peer services and
// returned from the profile endpoint.
type Profile struct {
	ID         uuid.UUID `json:"id"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
}

// Profile builds the external projection.
func (u *User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Username:   u.Username,
		Email:      u.Email,
		IsVerified: u.IsVerified,
	}
}

// RevokedToken is a denylisted refresh token, keyed by its jti claim. Rows are
// purged by the sweeper once the underlying token has expired anyway.
type RevokedToken struct {
	JTI       string
	UserID    uuid.UUID
	ExpiresAt time.Time
	RevokedAt time.Time
}
