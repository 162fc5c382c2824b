package wsserver

import (
	"time"

	"github.com/google/uuid"

	"chatter-server/services/chat-api/internal/domain/chat"
)

// FrameType discriminates inbound client frames.
type FrameType string

const (
	FramePing          FrameType = "ping"
	FrameInfo          FrameType = "info"
	FrameChatMessage   FrameType = "chat_message"
	FrameTyping        FrameType = "typing"
	FrameMessageStatus FrameType = "message_status"
)

// ErrorCode is a stable machine token carried on error frames.
type ErrorCode string

const (
	CodeInvalidJSON         ErrorCode = "INVALID_JSON"
	CodeMissingFields       ErrorCode = "MISSING_FIELDS"
	CodeServerError         ErrorCode = "SERVER_ERROR"
	CodeEmptyContent        ErrorCode = "EMPTY_CONTENT"
	CodeAuthRequired        ErrorCode = "AUTH_REQUIRED"
	CodeMissingStatusFields ErrorCode = "MISSING_STATUS_FIELDS"
	CodeInvalidStatus       ErrorCode = "INVALID_STATUS"
	CodeStatusUpdateFailed  ErrorCode = "STATUS_UPDATE_FAILED"
)

// CloseRoomNotFound is the close code signalling the target room does not
// exist.
const CloseRoomNotFound = 4404

// envelope carries only the discriminator; payloads are decoded per type.
type envelope struct {
	Type FrameType `json:"type"`
}

// chatMessagePayload is the type-specific payload of a chat_message frame.
type chatMessagePayload struct {
	Content     string      `json:"content"`
	MessageType string      `json:"message_type"`
	FileURL     string      `json:"file_url"`
	Mentions    []uuid.UUID `json:"mentions"`
}

// typingPayload is the type-specific payload of a typing frame.
type typingPayload struct {
	IsTyping bool `json:"is_typing"`
}

// messageStatusPayload is the type-specific payload of a message_status frame.
type messageStatusPayload struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

// Outbound frames. Each carries its own literal type tag so the set of frame
// kinds the server can emit is closed and greppable.

type connectionEstablishedFrame struct {
	Type      string        `json:"type"`
	Message   string        `json:"message"`
	RoomID    uuid.UUID     `json:"room_id"`
	GroupName string        `json:"room_group_name"`
	UserInfo  chat.UserInfo `json:"user_info"`
	Timestamp string        `json:"timestamp"`
	Status    string        `json:"status"`
}

type pongFrame struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

type roomInfoFrame struct {
	Type        string    `json:"type"`
	RoomID      uuid.UUID `json:"room_id"`
	GroupName   string    `json:"room_group_name"`
	ConnectedAt string    `json:"connected_at"`
}

// MessageView is the broadcast projection of a persisted message.
type MessageView struct {
	ID          uuid.UUID        `json:"id"`
	Sender      chat.UserInfo    `json:"sender"`
	Content     string           `json:"content"`
	MessageType chat.MessageType `json:"message_type"`
	FileURL     string           `json:"file_url,omitempty"`
	Mentions    []uuid.UUID      `json:"mentions"`
	CreatedAt   string           `json:"created_at"`
	IsEdited    bool             `json:"is_edited"`
}

type newMessageFrame struct {
	Type    string      `json:"type"`
	Message MessageView `json:"message"`
}

type userTypingFrame struct {
	Type     string        `json:"type"`
	User     chat.UserInfo `json:"user"`
	IsTyping bool          `json:"is_typing"`
}

type messageStatusUpdateFrame struct {
	Type      string        `json:"type"`
	MessageID string        `json:"message_id"`
	Status    string        `json:"status"`
	User      chat.UserInfo `json:"user"`
}

type errorFrame struct {
	Type  string    `json:"type"`
	Error string    `json:"error"`
	Code  ErrorCode `json:"code"`
}

func newErrorFrame(code ErrorCode, message string) errorFrame {
	return errorFrame{Type: "error", Error: message, Code: code}
}

func newMessageView(msg *chat.Message, sender chat.Identity) MessageView {
	mentions := msg.Mentions
	if mentions == nil {
		mentions = []uuid.UUID{}
	}
	return MessageView{
		ID:          msg.ID,
		Sender:      sender.Info(),
		Content:     msg.Content,
		MessageType: msg.MessageType,
		FileURL:     msg.FileURL,
		Mentions:    mentions,
		CreatedAt:   msg.CreatedAt.Format(time.RFC3339Nano),
		IsEdited:    msg.IsEdited,
	}
}
