package domain

import (
	"time"

	"github.com/google/uuid"
)

// Входящие команды сокета
const (
	EventMessageSend   = "message:send"
	EventMessageGet    = "message:get"
	EventMessageEdit   = "message:edit"
	EventMessageDelete = "message:delete"
	EventTyping        = "typing"
	EventRoomOpen      = "room:open"
)

// Исходящие события
const (
	EventMessageNew    = "message:new"
	EventMessageList   = "message:list"
	EventMessageUpdate = "message:update"
	EventMessageError  = "message:error"
	EventRoomTyping    = "room:typing"
	EventRoomRead      = "room:read"
	EventUserOnline    = "user:online"
	EventUserOffline   = "user:offline"
)

type SendMessagePayload struct {
	RoomID      uuid.UUID       `json:"roomId"`
	Content     string          `json:"content"`
	MessageType string          `json:"messageType,omitempty"`
	Attachments []NewAttachment `json:"attachments,omitempty"`
}

type GetMessagesPayload struct {
	RoomID          uuid.UUID  `json:"roomId"`
	Limit           int        `json:"limit,omitempty"`
	CursorCreatedAt *time.Time `json:"cursorCreatedAt,omitempty"`
	CursorMessageID *int64     `json:"cursorMessageId,omitempty"`
}

type EditMessagePayload struct {
	RoomID     uuid.UUID `json:"roomId"`
	MessageID  int64     `json:"messageId"`
	NewContent string    `json:"newContent"`
}

type DeleteMessagePayload struct {
	RoomID    uuid.UUID `json:"roomId"`
	MessageID int64     `json:"messageId"`
}

type TypingPayload struct {
	RoomID uuid.UUID `json:"roomId"`
}

type RoomOpenPayload struct {
	RoomID uuid.UUID `json:"roomId"`
}

type MessageListPayload struct {
	RoomID   uuid.UUID  `json:"roomId"`
	Messages []*Message `json:"messages"`
}

type MessageDeletedPayload struct {
	MessageID int64 `json:"messageId"`
}

type RoomTypingPayload struct {
	RoomID uuid.UUID `json:"roomId"`
	UserID uuid.UUID `json:"userId"`
}

type RoomReadPayload struct {
	RoomID        uuid.UUID `json:"roomId"`
	UserID        uuid.UUID `json:"userId"`
	LastMessageID *int64    `json:"lastMessageId"`
}

type MessageErrorPayload struct {
	Action string `json:"action"`
	Code   string `json:"code"`
}

type SendAck struct {
	OK      bool     `json:"ok"`
	Message *Message `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
}
