package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"team_messaging/internal/domain"
	apperrors "team_messaging/pkg/errors"
	"team_messaging/pkg/logger"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	CreateAttachment(ctx context.Context, attachment *domain.Attachment) error
	GetByID(ctx context.Context, messageID int64) (*domain.Message, error)
	History(ctx context.Context, roomID uuid.UUID, limit int) ([]*domain.Message, error)
	HistoryBefore(ctx context.Context, roomID uuid.UUID, cursorCreatedAt time.Time, cursorMessageID int64, limit int) ([]*domain.Message, error)
	UpdateContent(ctx context.Context, messageID int64, newContent string) (*domain.Message, error)
	SoftDelete(ctx context.Context, messageID int64) error
	Search(ctx context.Context, roomID uuid.UUID, query string) ([]*domain.Message, error)
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

const messageColumns = `message_id, room_id, sender_id, content, message_type, created_at, edited_at, is_deleted`

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (room_id, sender_id, content, message_type, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING message_id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		message.RoomID, message.SenderID, message.Content, message.MessageType,
	).Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		r.log.Error("Failed to create message", "error", err, "room_id", message.RoomID)
		return err
	}

	return nil
}

func (r *messageRepository) CreateAttachment(ctx context.Context, attachment *domain.Attachment) error {
	query := `
		INSERT INTO message_attachments (message_id, attachment_url, attachment_type)
		VALUES ($1, $2, $3)
		RETURNING attachment_id
	`

	err := r.db.QueryRow(ctx, query,
		attachment.MessageID, attachment.AttachmentURL, attachment.AttachmentType,
	).Scan(&attachment.ID)

	if err != nil {
		r.log.Error("Failed to create attachment", "error", err, "message_id", attachment.MessageID)
		return err
	}

	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, messageID int64) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE message_id = $1`

	message, err := scanMessage(r.db.QueryRow(ctx, query, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		r.log.Error("Failed to get message", "error", err, "message_id", messageID)
		return nil, err
	}

	return message, nil
}

// History возвращает последние limit сообщений в хронологическом порядке.
// Индекс оптимизирован под "свежие N", поэтому выборка идет DESC с разворотом.
func (r *messageRepository) History(ctx context.Context, roomID uuid.UUID, limit int) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at DESC, message_id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, roomID, limit)
	if err != nil {
		r.log.Error("Failed to get messages", "error", err, "room_id", roomID)
		return nil, err
	}
	defer rows.Close()

	messages, err := collectMessages(rows)
	if err != nil {
		r.log.Error("Failed to scan messages", "error", err)
		return nil, err
	}

	reverseMessages(messages)
	return messages, nil
}

// HistoryBefore — keyset-пагинация по составному курсору (created_at, message_id).
// Одного created_at недостаточно: сообщения могут делить миллисекунду.
func (r *messageRepository) HistoryBefore(ctx context.Context, roomID uuid.UUID, cursorCreatedAt time.Time, cursorMessageID int64, limit int) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE room_id = $1
		  AND (created_at < $2 OR (created_at = $2 AND message_id < $3))
		ORDER BY created_at DESC, message_id DESC
		LIMIT $4
	`

	rows, err := r.db.Query(ctx, query, roomID, cursorCreatedAt, cursorMessageID, limit)
	if err != nil {
		r.log.Error("Failed to get messages by cursor", "error", err, "room_id", roomID)
		return nil, err
	}
	defer rows.Close()

	messages, err := collectMessages(rows)
	if err != nil {
		r.log.Error("Failed to scan messages", "error", err)
		return nil, err
	}

	reverseMessages(messages)
	return messages, nil
}

func (r *messageRepository) UpdateContent(ctx context.Context, messageID int64, newContent string) (*domain.Message, error) {
	query := `
		UPDATE messages
		SET content = $2, edited_at = NOW()
		WHERE message_id = $1
		RETURNING ` + messageColumns

	message, err := scanMessage(r.db.QueryRow(ctx, query, messageID, newContent))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		r.log.Error("Failed to update message", "error", err, "message_id", messageID)
		return nil, err
	}

	return message, nil
}

func (r *messageRepository) SoftDelete(ctx context.Context, messageID int64) error {
	query := `UPDATE messages SET is_deleted = TRUE WHERE message_id = $1`

	_, err := r.db.Exec(ctx, query, messageID)
	if err != nil {
		r.log.Error("Failed to delete message", "error", err, "message_id", messageID)
		return err
	}

	return nil
}

func (r *messageRepository) Search(ctx context.Context, roomID uuid.UUID, query string) ([]*domain.Message, error) {
	// Шаблон собирается конкатенацией на стороне БД, подстрока передается
	// связанным параметром
	sqlQuery := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE room_id = $1
		  AND is_deleted = FALSE
		  AND content ILIKE '%' || $2 || '%'
		ORDER BY created_at DESC, message_id DESC
	`

	rows, err := r.db.Query(ctx, sqlQuery, roomID, query)
	if err != nil {
		r.log.Error("Failed to search messages", "error", err, "room_id", roomID)
		return nil, err
	}
	defer rows.Close()

	messages, err := collectMessages(rows)
	if err != nil {
		r.log.Error("Failed to scan messages", "error", err)
		return nil, err
	}

	return messages, nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	message := &domain.Message{}
	var editedAt *time.Time
	err := row.Scan(
		&message.ID, &message.RoomID, &message.SenderID, &message.Content,
		&message.MessageType, &message.CreatedAt, &editedAt, &message.IsDeleted,
	)
	if err != nil {
		return nil, err
	}
	message.EditedAt = editedAt
	return message, nil
}

func collectMessages(rows pgx.Rows) ([]*domain.Message, error) {
	var messages []*domain.Message
	for rows.Next() {
		message := &domain.Message{}
		var editedAt *time.Time
		err := rows.Scan(
			&message.ID, &message.RoomID, &message.SenderID, &message.Content,
			&message.MessageType, &message.CreatedAt, &editedAt, &message.IsDeleted,
		)
		if err != nil {
			return nil, err
		}
		message.EditedAt = editedAt
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

func reverseMessages(messages []*domain.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
