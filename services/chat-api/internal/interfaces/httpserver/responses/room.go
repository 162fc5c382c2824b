package responses

import (
	"time"

	"github.com/google/uuid"

	"chatter-server/services/chat-api/internal/domain/chat"
)

// RoomResponse is the API projection of a room. AlreadyExists is set on
// creation requests that resolved to a previously created direct room.
type RoomResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	IsGroup       bool      `json:"is_group"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	CreatedBy     uuid.UUID `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	AlreadyExists bool      `json:"already_exists"`
}

// NewRoomResponse converts a domain room.
func NewRoomResponse(room *chat.Room) RoomResponse {
	return RoomResponse{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		IsGroup:     room.IsGroup,
		AvatarURL:   room.AvatarURL,
		CreatedBy:   room.CreatedBy,
		CreatedAt:   room.CreatedAt,
		UpdatedAt:   room.UpdatedAt,
	}
}

// ListRoomsResponse wraps the room collection.
type ListRoomsResponse struct {
	Rooms []RoomResponse `json:"rooms"`
}

// NewListRoomsResponse converts a domain room slice.
func NewListRoomsResponse(rooms []*chat.Room) ListRoomsResponse {
	out := ListRoomsResponse{Rooms: make([]RoomResponse, 0, len(rooms))}
	for _, room := range rooms {
		out.Rooms = append(out.Rooms, NewRoomResponse(room))
	}
	return out
}

// MessageResponse is the API projection of a message.
type MessageResponse struct {
	ID          uuid.UUID        `json:"id"`
	RoomID      uuid.UUID        `json:"room_id"`
	SenderID    uuid.UUID        `json:"sender_id"`
	Content     string           `json:"content"`
	MessageType chat.MessageType `json:"message_type"`
	FileURL     string           `json:"file_url,omitempty"`
	Mentions    []uuid.UUID      `json:"mentions"`
	CreatedAt   time.Time        `json:"created_at"`
	IsEdited    bool             `json:"is_edited"`
}

// NewMessageResponse converts a domain message.
func NewMessageResponse(msg *chat.Message) MessageResponse {
	mentions := msg.Mentions
	if mentions == nil {
		mentions = []uuid.UUID{}
	}
	return MessageResponse{
		ID:          msg.ID,
		RoomID:      msg.RoomID,
		SenderID:    msg.SenderID,
		Content:     msg.Content,
		MessageType: msg.MessageType,
		FileURL:     msg.FileURL,
		Mentions:    mentions,
		CreatedAt:   msg.CreatedAt,
		IsEdited:    msg.IsEdited,
	}
}

// ListMessagesResponse wraps a newest-first page of messages.
type ListMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// NewListMessagesResponse converts a domain message slice.
func NewListMessagesResponse(msgs []*chat.Message, limit, offset int) ListMessagesResponse {
	out := ListMessagesResponse{
		Messages: make([]MessageResponse, 0, len(msgs)),
		Limit:    limit,
		Offset:   offset,
	}
	for _, msg := range msgs {
		out.Messages = append(out.Messages, NewMessageResponse(msg))
	}
	return out
}
