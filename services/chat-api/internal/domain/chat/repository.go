package chat

import (
	"context"

	"github.com/google/uuid"
)

// RoomRepository is durable storage for rooms and their memberships.
type RoomRepository interface {
	Exists(ctx context.Context, roomID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, roomID uuid.UUID) (*Room, error)
	// Create persists a room together with its initial members.
	Create(ctx context.Context, room *Room, members []Member) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Room, error)
	// GetOrCreateDirect returns the direct room between creator and other,
	// creating it atomically when absent. The boolean reports whether a new
	// room was created. Concurrent calls for the same pair must converge to a
	// single room.
	GetOrCreateDirect(ctx context.Context, creator, other uuid.UUID, name string) (*Room, bool, error)
}

// MessageRepository is durable storage for messages and per-user statuses.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	SenderOf(ctx context.Context, messageID uuid.UUID) (uuid.UUID, error)
	// ListByRoom returns non-deleted messages, newest first.
	ListByRoom(ctx context.Context, roomID uuid.UUID, limit, offset int) ([]*Message, error)
	// UpsertStatus writes the per-user status of a message, last write wins.
	UpsertStatus(ctx context.Context, messageID, userID uuid.UUID, status DeliveryStatus) error
}

// ActivityRepository records per-user per-room presence. Writes are a
// durability aid only; real-time delivery does not depend on them.
type ActivityRepository interface {
	Touch(ctx context.Context, userID, roomID uuid.UUID, isTyping bool) error
}
