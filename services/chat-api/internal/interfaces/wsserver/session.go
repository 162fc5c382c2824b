package wsserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatter-server/services/chat-api/internal/domain/chat"
	"chatter-server/services/chat-api/internal/infrastructure/metrics"
)

// Limits bounds a session's transport behaviour.
type Limits struct {
	ReadLimit    int64
	WriteTimeout time.Duration
	PongTimeout  time.Duration
}

const sendBufferSize = 256

// Session is one live WebSocket connection: it owns the connection lifecycle,
// frame dispatch and the per-connection identity. A session is the only
// writer of its own socket.
type Session struct {
	id        string
	conn      *websocket.Conn
	hub       *Hub
	svc       *chat.Service
	roomID    uuid.UUID
	groupName string
	identity  chat.Identity
	limits    Limits

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	log       zerolog.Logger
}

func newSession(
	conn *websocket.Conn,
	hub *Hub,
	svc *chat.Service,
	roomID uuid.UUID,
	identity chat.Identity,
	limits Limits,
	log zerolog.Logger,
) *Session {
	id := uuid.NewString()
	return &Session{
		id:        id,
		conn:      conn,
		hub:       hub,
		svc:       svc,
		roomID:    roomID,
		groupName: groupNameFor(roomID),
		identity:  identity,
		limits:    limits,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
		log: log.With().
			Str("component", "session").
			Str("channel", id).
			Str("room_id", roomID.String()).
			Logger(),
	}
}

func groupNameFor(roomID uuid.UUID) string {
	return fmt.Sprintf("room_%s", roomID)
}

// enqueue hands a marshalled frame to the write pump. A session whose buffer
// is full is disconnected instead of blocking the broadcaster.
func (s *Session) enqueue(data []byte) {
	select {
	case <-s.done:
	case s.send <- data:
	default:
		s.log.Warn().Msg("send buffer full, dropping slow consumer")
		go s.close()
	}
}

func (s *Session) sendFrame(frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal outbound frame")
		return
	}
	s.enqueue(data)
}

func (s *Session) sendError(code ErrorCode, message string) {
	metrics.FrameErrors.WithLabelValues(string(code)).Inc()
	s.sendFrame(newErrorFrame(code, message))
}

// close tears the session down exactly once: group membership is released on
// every exit path before the transport is closed.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.hub.Leave(s.groupName, s)
		close(s.done)
		_ = s.conn.Close()
		metrics.RecordConnectionClosed()
		s.log.Debug().Msg("session closed")
	})
}

// readPump consumes inbound frames until the connection drops. Frames from a
// single client are dispatched strictly in receipt order.
func (s *Session) readPump(ctx context.Context) {
	defer s.close()

	s.conn.SetReadLimit(s.limits.ReadLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.limits.PongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.limits.PongTimeout))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Msg("unexpected close")
			}
			return
		}
		s.dispatch(ctx, raw)
	}
}

// writePump drains the send buffer and keeps the connection alive with pings.
func (s *Session) writePump() {
	pingInterval := s.limits.PongTimeout * 9 / 10
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.limits.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.limits.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.limits.WriteTimeout))
			_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// dispatch routes one inbound frame by its type discriminator. A panic in a
// handler is converted to a SERVER_ERROR frame; it must never take down the
// transport.
func (s *Session) dispatch(ctx context.Context, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("recovered panic in frame dispatch")
			s.sendError(CodeServerError, fmt.Sprintf("Server error: %v", r))
		}
	}()

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.sendError(CodeInvalidJSON, "Invalid JSON format")
		return
	}

	switch env.Type {
	case FramePing:
		s.sendFrame(pongFrame{Type: "pong", Timestamp: time.Now().Format(time.RFC3339Nano)})
	case FrameInfo:
		s.sendFrame(roomInfoFrame{
			Type:        "room_info",
			RoomID:      s.roomID,
			GroupName:   s.groupName,
			ConnectedAt: time.Now().Format(time.RFC3339Nano),
		})
	case FrameChatMessage:
		s.handleChatMessage(ctx, raw)
	case FrameTyping:
		s.handleTyping(ctx, raw)
	case FrameMessageStatus:
		s.handleMessageStatus(ctx, raw)
	default:
		// Unknown frame types are dropped without feedback, mirroring the
		// upstream protocol's permissiveness.
	}
}

func (s *Session) handleChatMessage(ctx context.Context, raw []byte) {
	var payload chatMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.sendError(CodeMissingFields, fmt.Sprintf("Missing required fields: %v", err))
		return
	}

	msg, err := s.svc.SaveMessage(ctx, s.identity, s.roomID, chat.MessageInput{
		Content:     payload.Content,
		MessageType: chat.MessageType(payload.MessageType),
		FileURL:     payload.FileURL,
		Mentions:    payload.Mentions,
	})
	if err != nil {
		s.sendServiceError(err)
		return
	}
	if msg == nil {
		// Room vanished between connect and send; drop silently.
		return
	}

	metrics.MessagesPersisted.Inc()
	metrics.BroadcastsTotal.WithLabelValues("new_message").Inc()
	s.hub.Broadcast(s.groupName, newMessageFrame{
		Type:    "new_message",
		Message: newMessageView(msg, s.identity),
	}, s)
}

func (s *Session) handleTyping(ctx context.Context, raw []byte) {
	var payload typingPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.sendError(CodeMissingFields, fmt.Sprintf("Missing required fields: %v", err))
		return
	}

	if err := s.svc.RecordTyping(ctx, s.identity, s.roomID, payload.IsTyping); err != nil {
		// An anonymous typist is not an error worth reporting; the original
		// protocol drops the indicator silently.
		return
	}

	metrics.BroadcastsTotal.WithLabelValues("user_typing").Inc()
	s.hub.Broadcast(s.groupName, userTypingFrame{
		Type:     "user_typing",
		User:     s.identity.Info(),
		IsTyping: payload.IsTyping,
	}, s)
}

func (s *Session) handleMessageStatus(ctx context.Context, raw []byte) {
	var payload messageStatusPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.sendError(CodeMissingFields, fmt.Sprintf("Missing required fields: %v", err))
		return
	}

	senderID, err := s.svc.UpdateMessageStatus(ctx, s.identity, payload.MessageID, payload.Status)
	if err != nil {
		s.sendServiceError(err)
		return
	}

	frame := messageStatusUpdateFrame{
		Type:      "message_status_update",
		MessageID: payload.MessageID,
		Status:    payload.Status,
		User:      s.identity.Info(),
	}
	metrics.BroadcastsTotal.WithLabelValues("message_status_update").Inc()
	// Group-wide broadcast with per-consumer filtering: only the original
	// sender's sessions render the update.
	s.hub.BroadcastFilter(s.groupName, frame, func(peer *Session) bool {
		return peer.identity.Authenticated() && peer.identity.ID == senderID
	})
}

func (s *Session) sendServiceError(err error) {
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrEmptyContent):
		s.sendError(CodeEmptyContent, "Message content is required")
	case errors.Is(err, chat.ErrAuthRequired):
		s.sendError(CodeAuthRequired, "Authentication required")
	case errors.Is(err, chat.ErrMissingStatusFields):
		s.sendError(CodeMissingStatusFields, "message_id and status are required")
	case errors.Is(err, chat.ErrInvalidStatus):
		s.sendError(CodeInvalidStatus, "Invalid status. Must be: sent, delivered, seen")
	case errors.Is(err, chat.ErrStatusUpdateFailed):
		s.sendError(CodeStatusUpdateFailed, "Message not found or status update failed")
	default:
		s.log.Error().Err(err).Msg("frame handling failed")
		s.sendError(CodeServerError, fmt.Sprintf("Server error: %v", err))
	}
}
