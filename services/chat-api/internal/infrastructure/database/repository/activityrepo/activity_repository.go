package activityrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatter-server/services/chat-api/internal/domain/chat"
	"chatter-server/services/chat-api/internal/infrastructure/database/dbschema"
)

// ActivityGormRepository is the gorm-backed presence repository.
type ActivityGormRepository struct {
	db *gorm.DB
}

var _ chat.ActivityRepository = (*ActivityGormRepository)(nil)

// NewActivityGormRepository creates a gorm-backed presence repository.
func NewActivityGormRepository(db *gorm.DB) chat.ActivityRepository {
	return &ActivityGormRepository{db: db}
}

// Touch upserts the (user, room) presence row.
func (repo *ActivityGormRepository) Touch(ctx context.Context, userID, roomID uuid.UUID, isTyping bool) error {
	now := time.Now().UTC()
	entity := &dbschema.UserActivity{
		UserID:          userID,
		RoomID:          roomID,
		LastSeen:        now,
		IsTyping:        isTyping,
		TypingUpdatedAt: now,
	}
	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "room_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"last_seen":         now,
				"is_typing":         isTyping,
				"typing_updated_at": now,
			}),
		}).
		Create(entity).
		Error
	if err != nil {
		return fmt.Errorf("touch activity: %w", err)
	}
	return nil
}
