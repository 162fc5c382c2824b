// Package roomhandler handles room-related HTTP requests.
package roomhandler

import (
	"context"

	"github.com/google/uuid"

	"chatter-server/services/chat-api/internal/domain/chat"
)

// Handler is a thin adapter between routes and the chat service.
type Handler struct {
	service *chat.Service
}

// New creates a room handler.
func New(service *chat.Service) *Handler {
	return &Handler{service: service}
}

// CreateRoom creates or retrieves a room. The boolean reports whether the
// room is newly created; direct rooms are idempotent per identity pair.
func (h *Handler) CreateRoom(ctx context.Context, creator chat.Identity, in chat.CreateRoomInput) (*chat.Room, bool, error) {
	return h.service.CreateRoom(ctx, creator, in)
}

// ListRooms returns the rooms the user belongs to.
func (h *Handler) ListRooms(ctx context.Context, user chat.Identity) ([]*chat.Room, error) {
	return h.service.ListRooms(ctx, user)
}

// ListMessages returns a newest-first page of a room's messages.
func (h *Handler) ListMessages(ctx context.Context, user chat.Identity, roomID uuid.UUID, limit, offset int) ([]*chat.Message, error) {
	return h.service.ListMessages(ctx, user, roomID, limit, offset)
}
