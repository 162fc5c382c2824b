package dbschema

import (
	"time"

	"github.com/google/uuid"

	"chatter-server/services/chat-api/internal/domain/chat"
	"chatter-server/services/chat-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Room{}, RoomMember{})
}

// Room is the persisted room schema.
type Room struct {
	RoomID      uuid.UUID `gorm:"column:room_id;type:uuid;primaryKey"`
	RoomName    string    `gorm:"column:room_name;size:30;not null"`
	Description *string   `gorm:"column:description;size:350"`
	IsGroup     bool      `gorm:"column:is_group;not null;default:false;index:ix_rooms_is_group_updated,priority:1"`
	RoomAvatar  *string   `gorm:"column:room_avatar;size:500"`
	CreatedBy   uuid.UUID `gorm:"column:created_by;type:uuid;not null;index:ix_rooms_created_by_created,priority:1"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;index:ix_rooms_created_by_created,priority:2,sort:desc"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;index:ix_rooms_is_group_updated,priority:2,sort:desc"`

	Members []RoomMember `gorm:"foreignKey:RoomID;references:RoomID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the default pluralised name.
func (Room) TableName() string {
	return "rooms"
}

// RoomMember is the persisted membership schema. One row per (room, user).
type RoomMember struct {
	ID       uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	RoomID   uuid.UUID       `gorm:"column:room_id;type:uuid;not null;uniqueIndex:ux_room_members_room_user,priority:1"`
	UserID   uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_room_members_room_user,priority:2;index:ix_room_members_user"`
	Role     chat.MemberRole `gorm:"column:role;size:20;not null;default:'user'"`
	JoinedAt time.Time       `gorm:"column:joined_at;not null;autoCreateTime"`
}

// TableName overrides the default pluralised name.
func (RoomMember) TableName() string {
	return "room_members"
}

// NewSchemaRoom converts a domain room into its schema representation.
func NewSchemaRoom(r *chat.Room) *Room {
	if r == nil {
		return nil
	}
	out := &Room{
		RoomID:    r.ID,
		RoomName:  r.Name,
		IsGroup:   r.IsGroup,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Description != "" {
		out.Description = &r.Description
	}
	if r.AvatarURL != "" {
		out.RoomAvatar = &r.AvatarURL
	}
	return out
}

// EtoD converts a schema room back to the domain representation.
func (r *Room) EtoD() *chat.Room {
	if r == nil {
		return nil
	}
	out := &chat.Room{
		ID:        r.RoomID,
		Name:      r.RoomName,
		IsGroup:   r.IsGroup,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Description != nil {
		out.Description = *r.Description
	}
	if r.RoomAvatar != nil {
		out.AvatarURL = *r.RoomAvatar
	}
	return out
}

// EtoD converts a schema membership to the domain representation.
func (m *RoomMember) EtoD() *chat.Member {
	if m == nil {
		return nil
	}
	return &chat.Member{
		RoomID:   m.RoomID,
		UserID:   m.UserID,
		Role:     m.Role,
		JoinedAt: m.JoinedAt,
	}
}
