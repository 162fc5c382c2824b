package dbschema

import (
	"time"

	"github.com/google/uuid"

	"chatter-server/services/auth-api/internal/domain/user"
	"chatter-server/services/auth-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(User{}, RevokedToken{})
}

// User is the persisted account schema.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	FirstName    *string    `gorm:"column:first_name;size:150"`
	LastName     *string    `gorm:"column:last_name;size:150"`
	Username     string     `gorm:"column:username;size:150;not null;uniqueIndex:ux_users_username"`
	Email        string     `gorm:"column:email;size:254;not null;uniqueIndex:ux_users_email"`
	PasswordHash string     `gorm:"column:password_hash;size:128;not null"`
	OTP          *int       `gorm:"column:otp"`
	OTPExpiresAt *time.Time `gorm:"column:otp_expires_at"`
	IsVerified   bool       `gorm:"column:is_verified;not null;default:false"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null"`
}

// TableName overrides the default pluralised name.
func (User) TableName() string {
	return "users"
}

// RevokedToken is the persisted refresh token denylist, keyed by jti.
type RevokedToken struct {
	JTI       string    `gorm:"column:jti;size:64;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:ix_revoked_tokens_user"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index:ix_revoked_tokens_expires"`
	RevokedAt time.Time `gorm:"column:revoked_at;not null;autoCreateTime"`
}

// TableName overrides the default pluralised name.
func (RevokedToken) TableName() string {
	return "revoked_tokens"
}

// NewSchemaUser converts a domain user into its schema representation.
func NewSchemaUser(u *user.User) *User {
	if u == nil {
		return nil
	}
	out := &User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		OTP:          u.OTP,
		OTPExpiresAt: u.OTPExpiresAt,
		IsVerified:   u.IsVerified,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.FirstName != "" {
		out.FirstName = &u.FirstName
	}
	if u.LastName != "" {
		out.LastName = &u.LastName
	}
	return out
}

// EtoD converts a schema user back to the domain representation.
func (u *User) EtoD() *user.User {
	if u == nil {
		return nil
	}
	out := &user.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		OTP:          u.OTP,
		OTPExpiresAt: u.OTPExpiresAt,
		IsVerified:   u.IsVerified,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.FirstName != nil {
		out.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		out.LastName = *u.LastName
	}
	return out
}

// NewSchemaRevokedToken converts a domain denylist entry.
func NewSchemaRevokedToken(t *user.RevokedToken) *RevokedToken {
	if t == nil {
		return nil
	}
	return &RevokedToken{
		JTI:       t.JTI,
		UserID:    t.UserID,
		ExpiresAt: t.ExpiresAt,
		RevokedAt: t.RevokedAt,
	}
}
