package domain

import (
	"time"

	"github.com/google/uuid"
)

type Room struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	IsGroup       bool       `json:"is_group"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	LastMessageID *int64     `json:"last_message_id,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Member struct {
	RoomID            uuid.UUID  `json:"room_id"`
	UserID            uuid.UUID  `json:"user_id"`
	Role              string     `json:"role"`
	JoinedAt          time.Time  `json:"joined_at"`
	LastReadMessageID *int64     `json:"last_read_message_id,omitempty"`
	LastReadAt        *time.Time `json:"last_read_at,omitempty"`
	UnreadCount       int        `json:"unread_count"`
}

// UserRoom — комната вместе с состоянием чтения конкретного участника
type UserRoom struct {
	Room
	MemberRole        string     `json:"member_role"`
	LastReadMessageID *int64     `json:"last_read_message_id,omitempty"`
	LastReadAt        *time.Time `json:"last_read_at,omitempty"`
	UnreadCount       int        `json:"unread_count"`
}

const (
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"
	MemberRoleViewer = "viewer"
)
