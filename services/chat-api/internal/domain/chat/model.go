package chat

import (
	"time"

	"github.com/google/uuid"
)

// MemberRole is the role of a user within a room.
type MemberRole string

const (
	RoleAdmin MemberRole = "admin"
	RoleUser  MemberRole = "user"
)

// MessageType classifies the payload of a message.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// DeliveryStatus is the per-recipient status of a message.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusSeen      DeliveryStatus = "seen"
)

// Valid reports whether s is one of the allowed delivery statuses.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusSeen:
		return true
	}
	return false
}

// Room is a chat context, either a direct conversation or a group.
type Room struct {
	ID          uuid.UUID
	Name        string
	Description string
	IsGroup     bool
	AvatarURL   string
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Member is a user's membership in a room.
type Member struct {
	RoomID   uuid.UUID
	UserID   uuid.UUID
	Role     MemberRole
	JoinedAt time.Time
}

// Message is a persisted chat message. Content is immutable after creation;
// only the edit and delete flags change.
type Message struct {
	ID          uuid.UUID
	RoomID      uuid.UUID
	SenderID    uuid.UUID
	Content     string
	MessageType MessageType
	FileURL     string
	Mentions    []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	IsEdited    bool
	IsDeleted   bool
}

// Activity is the presence record for a user in a room.
type Activity struct {
	UserID          uuid.UUID
	RoomID          uuid.UUID
	LastSeen        time.Time
	IsTyping        bool
	TypingUpdatedAt time.Time
}
