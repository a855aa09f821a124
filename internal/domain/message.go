package domain

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID          int64        `json:"id"`
	RoomID      uuid.UUID    `json:"room_id"`
	SenderID    uuid.UUID    `json:"sender_id"`
	Content     string       `json:"content"`
	MessageType string       `json:"message_type"`
	CreatedAt   time.Time    `json:"created_at"`
	EditedAt    *time.Time   `json:"edited_at,omitempty"`
	IsDeleted   bool         `json:"is_deleted"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	ID             int64  `json:"id"`
	MessageID      int64  `json:"message_id"`
	AttachmentURL  string `json:"attachment_url"`
	AttachmentType string `json:"attachment_type"`
}

// NewAttachment — вложение в момент отправки, до присвоения идентификаторов
type NewAttachment struct {
	AttachmentURL  string `json:"attachment_url"`
	AttachmentType string `json:"attachment_type"`
}

const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)
