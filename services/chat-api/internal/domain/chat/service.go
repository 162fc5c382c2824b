package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UserDirectory resolves usernames to identities via the auth service. Partial
// matches are possible; the second return value lists usernames with no match.
type UserDirectory interface {
	SearchByUsernames(ctx context.Context, usernames []string) ([]Identity, []string, error)
}

// MessageInput is the payload of an inbound chat message.
type MessageInput struct {
	Content     string
	MessageType MessageType
	FileURL     string
	Mentions    []uuid.UUID
}

// CreateRoomInput is the payload for room creation over HTTP.
type CreateRoomInput struct {
	Name        string
	Description string
	IsGroup     bool
	Usernames   []string
}

// Service orchestrates room membership, message persistence and status
// propagation between the transport layer and the repositories.
type Service struct {
	rooms    RoomRepository
	messages MessageRepository
	activity ActivityRepository
	users    UserDirectory
	log      zerolog.Logger
}

// NewService creates a chat service.
func NewService(
	rooms RoomRepository,
	messages MessageRepository,
	activity ActivityRepository,
	users UserDirectory,
	log zerolog.Logger,
) *Service {
	return &Service{
		rooms:    rooms,
		messages: messages,
		activity: activity,
		users:    users,
		log:      log.With().Str("component", "chat-service").Logger(),
	}
}

// RoomExists reports whether the room is present in the store.
func (s *Service) RoomExists(ctx context.Context, roomID uuid.UUID) (bool, error) {
	return s.rooms.Exists(ctx, roomID)
}

// SaveMessage validates and persists an inbound message. A missing room is a
// benign race on this hot path: the message is dropped and (nil, nil) is
// returned.
func (s *Service) SaveMessage(ctx context.Context, sender Identity, roomID uuid.UUID, in MessageInput) (*Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if !sender.Authenticated() {
		return nil, ErrAuthRequired
	}

	msgType := in.MessageType
	if msgType == "" {
		msgType = MessageTypeText
	}
	mentions := in.Mentions
	if mentions == nil {
		mentions = []uuid.UUID{}
	}

	msg := &Message{
		ID:          uuid.New(),
		RoomID:      roomID,
		SenderID:    sender.ID,
		Content:     content,
		MessageType: msgType,
		FileURL:     in.FileURL,
		Mentions:    mentions,
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		if isRoomGone(err) {
			s.log.Debug().Str("room_id", roomID.String()).Msg("dropping message for vanished room")
			return nil, nil
		}
		return nil, fmt.Errorf("persist message: %w", err)
	}
	return msg, nil
}

// RecordTyping notes typing activity for presence. Persistence failures are
// logged and swallowed: the real-time indicator does not depend on them.
func (s *Service) RecordTyping(ctx context.Context, sender Identity, roomID uuid.UUID, isTyping bool) error {
	if !sender.Authenticated() {
		return ErrAuthRequired
	}
	if err := s.activity.Touch(ctx, sender.ID, roomID, isTyping); err != nil {
		s.log.Warn().Err(err).Str("room_id", roomID.String()).Msg("activity touch failed")
	}
	return nil
}

// UpdateMessageStatus upserts the per-user status of a message and returns the
// original sender's id so the transport can target the status broadcast.
func (s *Service) UpdateMessageStatus(ctx context.Context, actor Identity, messageID, status string) (uuid.UUID, error) {
	if messageID == "" || status == "" {
		return uuid.Nil, ErrMissingStatusFields
	}
	st := DeliveryStatus(status)
	if !st.Valid() {
		return uuid.Nil, ErrInvalidStatus
	}
	if !actor.Authenticated() {
		return uuid.Nil, ErrAuthRequired
	}

	msgID, err := uuid.Parse(messageID)
	if err != nil {
		return uuid.Nil, ErrStatusUpdateFailed
	}

	if err := s.messages.UpsertStatus(ctx, msgID, actor.ID, st); err != nil {
		s.log.Debug().Err(err).Str("message_id", messageID).Msg("status upsert failed")
		return uuid.Nil, ErrStatusUpdateFailed
	}

	senderID, err := s.messages.SenderOf(ctx, msgID)
	if err != nil {
		return uuid.Nil, ErrStatusUpdateFailed
	}
	return senderID, nil
}

// CreateRoom creates a room from a creator identity and a username list,
// resolving members through the auth service. Direct rooms are idempotent per
// unordered identity pair; the boolean reports whether a room was newly
// created.
func (s *Service) CreateRoom(ctx context.Context, creator Identity, in CreateRoomInput) (*Room, bool, error) {
	if !creator.Authenticated() {
		return nil, false, ErrAuthRequired
	}
	if !in.IsGroup && len(in.Usernames) != 1 {
		return nil, false, fmt.Errorf("%w: direct message requires exactly 1 user", ErrInvalidMembers)
	}
	if in.IsGroup && len(in.Usernames) < 1 {
		return nil, false, fmt.Errorf("%w: group rooms require at least 1 other person", ErrInvalidMembers)
	}

	members, missing, err := s.users.SearchByUsernames(ctx, in.Usernames)
	if err != nil {
		return nil, false, fmt.Errorf("resolve usernames: %w", err)
	}
	if len(missing) > 0 {
		return nil, false, fmt.Errorf("%w: %s", ErrMissingUsernames, strings.Join(missing, ", "))
	}

	if !in.IsGroup {
		name := in.Name
		if name == "" {
			name = "Direct message"
		}
		room, created, err := s.rooms.GetOrCreateDirect(ctx, creator.ID, members[0].ID, name)
		if err != nil {
			return nil, false, err
		}
		return room, created, nil
	}

	room := &Room{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		IsGroup:     true,
		CreatedBy:   creator.ID,
	}
	roomMembers := []Member{{RoomID: room.ID, UserID: creator.ID, Role: RoleAdmin}}
	for _, m := range members {
		if m.ID == creator.ID {
			continue
		}
		roomMembers = append(roomMembers, Member{RoomID: room.ID, UserID: m.ID, Role: RoleUser})
	}
	if err := s.rooms.Create(ctx, room, roomMembers); err != nil {
		return nil, false, err
	}
	return room, true, nil
}

// ListRooms returns the rooms the user is a member of.
func (s *Service) ListRooms(ctx context.Context, user Identity) ([]*Room, error) {
	if !user.Authenticated() {
		return nil, ErrAuthRequired
	}
	return s.rooms.ListForUser(ctx, user.ID)
}

// ListMessages returns a newest-first page of a room's messages.
func (s *Service) ListMessages(ctx context.Context, user Identity, roomID uuid.UUID, limit, offset int) ([]*Message, error) {
	if !user.Authenticated() {
		return nil, ErrAuthRequired
	}
	exists, err := s.rooms.Exists(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRoomNotFound
	}
	return s.messages.ListByRoom(ctx, roomID, limit, offset)
}

func isRoomGone(err error) bool {
	if errors.Is(err, ErrRoomNotFound) {
		return true
	}
	// A concurrent room delete surfaces as a foreign key violation on insert.
	return err != nil && strings.Contains(err.Error(), "violates foreign key constraint")
}
