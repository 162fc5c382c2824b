// Package tokenrepo is the gorm-backed refresh token denylist.
package tokenrepo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatter-server/services/auth-api/internal/domain/user"
	"chatter-server/services/auth-api/internal/infrastructure/database/dbschema"
)

// TokenGormRepository persists revoked refresh tokens in PostgreSQL.
type TokenGormRepository struct {
	db *gorm.DB
}

// NewTokenGormRepository creates a denylist repository.
func NewTokenGormRepository(db *gorm.DB) user.TokenDenylist {
	return &TokenGormRepository{db: db}
}

// Revoke records a refresh token as revoked. Revoking the same token twice is
// a no-op.
func (repo *TokenGormRepository) Revoke(ctx context.Context, t *user.RevokedToken) error {
	row := dbschema.NewSchemaRevokedToken(t)
	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "jti"}},
			DoNothing: true,
		}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the jti is on the denylist.
func (repo *TokenGormRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&dbschema.RevokedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return count > 0, nil
}

// PurgeExpired removes denylist rows whose tokens have expired on their own.
func (repo *TokenGormRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&dbschema.RevokedToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
