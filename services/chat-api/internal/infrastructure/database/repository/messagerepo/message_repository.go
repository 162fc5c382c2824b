package messagerepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatter-server/services/chat-api/internal/domain/chat"
	"chatter-server/services/chat-api/internal/infrastructure/database/dbschema"
)

// MessageGormRepository is the gorm-backed message repository.
type MessageGormRepository struct {
	db *gorm.DB
}

var _ chat.MessageRepository = (*MessageGormRepository)(nil)

// NewMessageGormRepository creates a gorm-backed message repository.
func NewMessageGormRepository(db *gorm.DB) chat.MessageRepository {
	return &MessageGormRepository{db: db}
}

// Create persists a message. The caller must have checked room existence;
// a vanished room surfaces as a foreign key violation.
func (repo *MessageGormRepository) Create(ctx context.Context, msg *chat.Message) error {
	var exists int64
	err := repo.db.WithContext(ctx).
		Model(&dbschema.Room{}).
		Where("room_id = ?", msg.RoomID).
		Count(&exists).
		Error
	if err != nil {
		return fmt.Errorf("check room: %w", err)
	}
	if exists == 0 {
		return chat.ErrRoomNotFound
	}

	entity, err := dbschema.NewSchemaMessage(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := repo.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	persisted, err := entity.EtoD()
	if err != nil {
		return err
	}
	*msg = *persisted
	return nil
}

// SenderOf returns the sender id of a message.
func (repo *MessageGormRepository) SenderOf(ctx context.Context, messageID uuid.UUID) (uuid.UUID, error) {
	var entity dbschema.Message
	err := repo.db.WithContext(ctx).
		Select("sender_id").
		Where("id = ?", messageID).
		First(&entity).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, chat.ErrMessageNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("find message sender: %w", err)
	}
	return entity.SenderID, nil
}

// ListByRoom returns a newest-first page of non-deleted messages.
func (repo *MessageGormRepository) ListByRoom(ctx context.Context, roomID uuid.UUID, limit, offset int) ([]*chat.Message, error) {
	var entities []dbschema.Message
	err := repo.db.WithContext(ctx).
		Where("room_id = ? AND is_deleted = ?", roomID, false).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entities).
		Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	messages := make([]*chat.Message, 0, len(entities))
	for i := range entities {
		msg, err := entities[i].EtoD()
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// UpsertStatus writes the per-user status of a message. The (message, user)
// pair is unique; an existing row is overwritten unconditionally.
func (repo *MessageGormRepository) UpsertStatus(ctx context.Context, messageID, userID uuid.UUID, status chat.DeliveryStatus) error {
	var exists int64
	err := repo.db.WithContext(ctx).
		Model(&dbschema.Message{}).
		Where("id = ?", messageID).
		Count(&exists).
		Error
	if err != nil {
		return fmt.Errorf("check message: %w", err)
	}
	if exists == 0 {
		return chat.ErrMessageNotFound
	}

	entity := &dbschema.MessageStatus{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    userID,
		Status:    status,
		UpdatedAt: time.Now().UTC(),
	}
	err = repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":     status,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(entity).
		Error
	if err != nil {
		return fmt.Errorf("upsert message status: %w", err)
	}
	return nil
}
