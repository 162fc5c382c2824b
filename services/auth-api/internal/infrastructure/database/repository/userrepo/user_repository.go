// Package userrepo is the gorm-backed implementation of the user repository.
package userrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chatter-server/services/auth-api/internal/domain/user"
	"chatter-server/services/auth-api/internal/infrastructure/database/dbschema"
)

// UserGormRepository persists users in PostgreSQL.
type UserGormRepository struct {
	db *gorm.DB
}

// NewUserGormRepository creates a user repository.
func NewUserGormRepository(db *gorm.DB) user.Repository {
	return &UserGormRepository{db: db}
}

// Create inserts a new account. Unique index collisions on username or email
// surface as ErrDuplicate.
func (repo *UserGormRepository) Create(ctx context.Context, u *user.User) error {
	row := dbschema.NewSchemaUser(u)
	if err := repo.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return user.ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	*u = *row.EtoD()
	return nil
}

// FindByID fetches a user by primary key.
func (repo *UserGormRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var row dbschema.User
	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return row.EtoD(), nil
}

// FindByEmail fetches a user by email.
func (repo *UserGormRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var row dbschema.User
	err := repo.db.WithContext(ctx).
		Where("email = ?", email).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return row.EtoD(), nil
}

// FindByUsernames fetches every user whose username is in the list. Unknown
// usernames are simply absent from the result.
func (repo *UserGormRepository) FindByUsernames(ctx context.Context, usernames []string) ([]*user.User, error) {
	var rows []dbschema.User
	err := repo.db.WithContext(ctx).
		Where("username IN ?", usernames).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find users by usernames: %w", err)
	}

	out := make([]*user.User, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].EtoD())
	}
	return out, nil
}

// SetOTP stores a fresh OTP and its expiry for the user.
func (repo *UserGormRepository) SetOTP(ctx context.Context, id uuid.UUID, otp int, expiresAt time.Time) error {
	res := repo.db.WithContext(ctx).
		Model(&dbschema.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"otp":            otp,
			"otp_expires_at": expiresAt,
		})
	if res.Error != nil {
		return fmt.Errorf("set otp: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}

// MarkVerified flags the account verified and clears any pending OTP.
func (repo *UserGormRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	res := repo.db.WithContext(ctx).
		Model(&dbschema.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_verified":    true,
			"otp":            nil,
			"otp_expires_at": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("mark verified: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}

// ClearExpiredOTPs removes OTPs whose expiry has passed.
func (repo *UserGormRepository) ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).
		Model(&dbschema.User{}).
		Where("otp IS NOT NULL AND otp_expires_at < ?", now).
		Updates(map[string]interface{}{
			"otp":            nil,
			"otp_expires_at": nil,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("clear expired otps: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}
