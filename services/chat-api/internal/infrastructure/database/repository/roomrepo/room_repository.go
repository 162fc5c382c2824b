package roomrepo

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chatter-server/services/chat-api/internal/domain/chat"
	"chatter-server/services/chat-api/internal/infrastructure/database/dbschema"
)

// RoomGormRepository is the gorm-backed room repository.
type RoomGormRepository struct {
	db *gorm.DB
}

var _ chat.RoomRepository = (*RoomGormRepository)(nil)

// NewRoomGormRepository creates a gorm-backed room repository.
func NewRoomGormRepository(db *gorm.DB) chat.RoomRepository {
	return &RoomGormRepository{db: db}
}

// Exists reports whether a room with the given id is stored.
func (repo *RoomGormRepository) Exists(ctx context.Context, roomID uuid.UUID) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&dbschema.Room{}).
		Where("room_id = ?", roomID).
		Count(&count).
		Error
	if err != nil {
		return false, fmt.Errorf("count room: %w", err)
	}
	return count > 0, nil
}

// FindByID loads a room by id.
func (repo *RoomGormRepository) FindByID(ctx context.Context, roomID uuid.UUID) (*chat.Room, error) {
	var entity dbschema.Room
	err := repo.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		First(&entity).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, chat.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}
	return entity.EtoD(), nil
}

// Create persists a room with its initial members in one transaction.
func (repo *RoomGormRepository) Create(ctx context.Context, room *chat.Room, members []chat.Member) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dbschema.NewSchemaRoom(room)).Error; err != nil {
			return fmt.Errorf("create room: %w", err)
		}
		for _, m := range members {
			entity := &dbschema.RoomMember{
				ID:     uuid.New(),
				RoomID: m.RoomID,
				UserID: m.UserID,
				Role:   m.Role,
			}
			if err := tx.Create(entity).Error; err != nil {
				return fmt.Errorf("create room member: %w", err)
			}
		}
		return nil
	})
}

// ListForUser returns the rooms the user belongs to, most recently updated
// first.
func (repo *RoomGormRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*chat.Room, error) {
	var entities []dbschema.Room
	err := repo.db.WithContext(ctx).
		Joins("JOIN chat_api.room_members rm ON rm.room_id = rooms.room_id").
		Where("rm.user_id = ?", userID).
		Order("rooms.updated_at DESC").
		Find(&entities).
		Error
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	rooms := make([]*chat.Room, 0, len(entities))
	for i := range entities {
		rooms = append(rooms, entities[i].EtoD())
	}
	return rooms, nil
}

// directPairLockKey derives the advisory lock key for an unordered user pair.
// The key must not depend on argument order so both creation directions
// contend on the same lock.
func directPairLockKey(a, b uuid.UUID) int64 {
	if b.String() < a.String() {
		a, b = b, a
	}
	h := fnv.New64a()
	h.Write(a[:])
	h.Write(b[:])
	return int64(h.Sum64())
}

// GetOrCreateDirect returns the direct room shared by exactly {creator, other},
// creating it when absent. A transaction-scoped advisory lock on the pair
// serializes concurrent first-time calls, otherwise two of them could both
// miss the lookup under READ COMMITTED and insert twice.
func (repo *RoomGormRepository) GetOrCreateDirect(ctx context.Context, creator, other uuid.UUID, name string) (*chat.Room, bool, error) {
	var result *chat.Room
	created := false

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", directPairLockKey(creator, other)).Error; err != nil {
			return fmt.Errorf("lock direct room pair: %w", err)
		}

		var entity dbschema.Room
		err := tx.
			Where("is_group = ?", false).
			Where(
				"room_id IN (?)",
				tx.Model(&dbschema.RoomMember{}).
					Select("room_id").
					Where("user_id IN ?", []uuid.UUID{creator, other}).
					Group("room_id").
					Having("COUNT(DISTINCT user_id) = 2"),
			).
			Where(
				"(SELECT COUNT(*) FROM chat_api.room_members m WHERE m.room_id = rooms.room_id) = 2",
			).
			First(&entity).
			Error
		if err == nil {
			result = entity.EtoD()
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find direct room: %w", err)
		}

		room := &chat.Room{
			ID:        uuid.New(),
			Name:      name,
			IsGroup:   false,
			CreatedBy: creator,
		}
		if err := tx.Create(dbschema.NewSchemaRoom(room)).Error; err != nil {
			return fmt.Errorf("create direct room: %w", err)
		}
		memberRows := []*dbschema.RoomMember{
			{ID: uuid.New(), RoomID: room.ID, UserID: creator, Role: chat.RoleAdmin},
			{ID: uuid.New(), RoomID: room.ID, UserID: other, Role: chat.RoleUser},
		}
		for _, row := range memberRows {
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("create direct room member: %w", err)
			}
		}

		var persisted dbschema.Room
		if err := tx.Where("room_id = ?", room.ID).First(&persisted).Error; err != nil {
			return fmt.Errorf("reload direct room: %w", err)
		}
		result = persisted.EtoD()
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}
