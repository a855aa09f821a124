package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"team_messaging/internal/domain"
	apperrors "team_messaging/pkg/errors"
	"team_messaging/pkg/logger"
)

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, roomID uuid.UUID) (*domain.Room, error)
	RoomsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserRoom, error)
	UpdateLastMessage(ctx context.Context, roomID uuid.UUID, messageID int64) error
	LastMessageID(ctx context.Context, roomID uuid.UUID) (*int64, error)
}

type roomRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewRoomRepository(db *pgxpool.Pool, log logger.Logger) RoomRepository {
	return &roomRepository{db: db, log: log}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	query := `
		INSERT INTO chat_rooms (room_id, name, is_group, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query, room.ID, room.Name, room.IsGroup, room.CreatedBy).Scan(&room.CreatedAt)
	if err != nil {
		r.log.Error("Failed to create room", "error", err, "name", room.Name)
		return err
	}

	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, roomID uuid.UUID) (*domain.Room, error) {
	query := `
		SELECT room_id, name, is_group, created_by, last_message_id, last_message_at, created_at
		FROM chat_rooms
		WHERE room_id = $1
	`

	room := &domain.Room{}
	err := r.db.QueryRow(ctx, query, roomID).Scan(
		&room.ID, &room.Name, &room.IsGroup, &room.CreatedBy,
		&room.LastMessageID, &room.LastMessageAt, &room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRoomNotFound
		}
		r.log.Error("Failed to get room", "error", err, "room_id", roomID)
		return nil, err
	}

	return room, nil
}

func (r *roomRepository) RoomsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserRoom, error) {
	query := `
		SELECT r.room_id, r.name, r.is_group, r.created_by, r.last_message_id, r.last_message_at, r.created_at,
		       m.role, m.last_read_message_id, m.last_read_at, m.unread_count
		FROM chat_rooms AS r
		INNER JOIN chat_room_members AS m ON r.room_id = m.room_id
		WHERE m.user_id = $1
		ORDER BY r.last_message_at DESC NULLS LAST
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to get user rooms", "error", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	var rooms []*domain.UserRoom
	for rows.Next() {
		room := &domain.UserRoom{}
		err := rows.Scan(
			&room.ID, &room.Name, &room.IsGroup, &room.CreatedBy,
			&room.LastMessageID, &room.LastMessageAt, &room.CreatedAt,
			&room.MemberRole, &room.LastReadMessageID, &room.LastReadAt, &room.UnreadCount,
		)
		if err != nil {
			r.log.Error("Failed to scan user room", "error", err)
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

func (r *roomRepository) UpdateLastMessage(ctx context.Context, roomID uuid.UUID, messageID int64) error {
	query := `
		UPDATE chat_rooms SET last_message_id = $2, last_message_at = NOW()
		WHERE room_id = $1
	`

	_, err := r.db.Exec(ctx, query, roomID, messageID)
	if err != nil {
		r.log.Error("Failed to update last message", "error", err, "room_id", roomID)
		return err
	}

	return nil
}

func (r *roomRepository) LastMessageID(ctx context.Context, roomID uuid.UUID) (*int64, error) {
	query := `SELECT last_message_id FROM chat_rooms WHERE room_id = $1`

	var lastMessageID *int64
	err := r.db.QueryRow(ctx, query, roomID).Scan(&lastMessageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRoomNotFound
		}
		r.log.Error("Failed to get last message id", "error", err, "room_id", roomID)
		return nil, err
	}

	return lastMessageID, nil
}
