package dbschema

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"chatter-server/services/chat-api/internal/domain/chat"
	"chatter-server/services/chat-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Message{}, MessageStatus{}, UserActivity{})
}

// Message is the persisted message schema.
type Message struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	RoomID      uuid.UUID        `gorm:"column:room_id;type:uuid;not null;index:ix_messages_room_created,priority:1"`
	SenderID    uuid.UUID        `gorm:"column:sender_id;type:uuid;not null;index:ix_messages_sender_created,priority:1"`
	Content     string           `gorm:"column:content;type:text"`
	MessageType chat.MessageType `gorm:"column:message_type;size:20;not null;default:'text'"`
	FileURL     *string          `gorm:"column:file_url;size:500"`
	Mentions    datatypes.JSON   `gorm:"column:mentions;type:jsonb"`
	CreatedAt   time.Time        `gorm:"column:created_at;not null;index:ix_messages_room_created,priority:2,sort:desc;index:ix_messages_sender_created,priority:2,sort:desc"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;not null"`
	IsEdited    bool             `gorm:"column:is_edited;not null;default:false"`
	IsDeleted   bool             `gorm:"column:is_deleted;not null;default:false"`

	Room *Room `gorm:"foreignKey:RoomID;references:RoomID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the default pluralised name.
func (Message) TableName() string {
	return "messages"
}

// MessageStatus is the per-user delivery status schema. One row per
// (message, user); last write wins.
type MessageStatus struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	MessageID uuid.UUID           `gorm:"column:message_id;type:uuid;not null;uniqueIndex:ux_message_statuses_message_user,priority:1"`
	UserID    uuid.UUID           `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_message_statuses_message_user,priority:2;index:ix_message_statuses_user_status,priority:1"`
	Status    chat.DeliveryStatus `gorm:"column:status;size:20;not null;default:'sent';index:ix_message_statuses_user_status,priority:2"`
	UpdatedAt time.Time           `gorm:"column:updated_at;not null"`

	Message *Message `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the default pluralised name.
func (MessageStatus) TableName() string {
	return "message_statuses"
}

// UserActivity is the presence schema. One row per (user, room).
type UserActivity struct {
	ID              uint      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_user_activities_user_room,priority:1"`
	RoomID          uuid.UUID `gorm:"column:room_id;type:uuid;not null;uniqueIndex:ux_user_activities_user_room,priority:2;index:ix_user_activities_room_seen,priority:1"`
	LastSeen        time.Time `gorm:"column:last_seen;not null;index:ix_user_activities_room_seen,priority:2"`
	IsTyping        bool      `gorm:"column:is_typing;not null;default:false"`
	TypingUpdatedAt time.Time `gorm:"column:typing_updated_at;not null"`

	Room *Room `gorm:"foreignKey:RoomID;references:RoomID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the default pluralised name.
func (UserActivity) TableName() string {
	return "user_activities"
}

// NewSchemaMessage converts a domain message into its schema representation.
func NewSchemaMessage(m *chat.Message) (*Message, error) {
	if m == nil {
		return nil, nil
	}
	mentions := m.Mentions
	if mentions == nil {
		mentions = []uuid.UUID{}
	}
	data, err := json.Marshal(mentions)
	if err != nil {
		return nil, err
	}
	out := &Message{
		ID:          m.ID,
		RoomID:      m.RoomID,
		SenderID:    m.SenderID,
		Content:     m.Content,
		MessageType: m.MessageType,
		Mentions:    datatypes.JSON(data),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		IsEdited:    m.IsEdited,
		IsDeleted:   m.IsDeleted,
	}
	if m.FileURL != "" {
		out.FileURL = &m.FileURL
	}
	return out, nil
}

// EtoD converts a schema message back to the domain representation.
func (m *Message) EtoD() (*chat.Message, error) {
	if m == nil {
		return nil, nil
	}
	out := &chat.Message{
		ID:          m.ID,
		RoomID:      m.RoomID,
		SenderID:    m.SenderID,
		Content:     m.Content,
		MessageType: m.MessageType,
		Mentions:    []uuid.UUID{},
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		IsEdited:    m.IsEdited,
		IsDeleted:   m.IsDeleted,
	}
	if m.FileURL != nil {
		out.FileURL = *m.FileURL
	}
	if len(m.Mentions) > 0 {
		if err := json.Unmarshal(m.Mentions, &out.Mentions); err != nil {
			return nil, err
		}
	}
	return out, nil
}
