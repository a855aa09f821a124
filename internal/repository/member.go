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

type MemberRepository interface {
	Add(ctx context.Context, roomID, userID uuid.UUID, role string) (*domain.Member, error)
	Remove(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	GetRole(ctx context.Context, roomID, userID uuid.UUID) (string, error)
	UpdateRole(ctx context.Context, roomID, userID uuid.UUID, newRole string) (string, error)
	MembersByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.Member, error)
	MarkRead(ctx context.Context, roomID, userID uuid.UUID, messageID *int64) error
	ResetUnread(ctx context.Context, roomID, userID uuid.UUID) error
	IncrementUnread(ctx context.Context, roomID, excludingUserID uuid.UUID) error
	UnreadCount(ctx context.Context, roomID, userID uuid.UUID) (int, error)
}

type memberRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMemberRepository(db *pgxpool.Pool, log logger.Logger) MemberRepository {
	return &memberRepository{db: db, log: log}
}

func (r *memberRepository) Add(ctx context.Context, roomID, userID uuid.UUID, role string) (*domain.Member, error) {
	query := `
		INSERT INTO chat_room_members (room_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (room_id, user_id) DO NOTHING
		RETURNING room_id, user_id, role, joined_at, unread_count
	`

	member := &domain.Member{}
	err := r.db.QueryRow(ctx, query, roomID, userID, role).Scan(
		&member.RoomID, &member.UserID, &member.Role, &member.JoinedAt, &member.UnreadCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMemberExists
		}
		r.log.Error("Failed to add member", "error", err, "room_id", roomID, "user_id", userID)
		return nil, err
	}

	return member, nil
}

func (r *memberRepository) Remove(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	query := `DELETE FROM chat_room_members WHERE room_id = $1 AND user_id = $2`

	tag, err := r.db.Exec(ctx, query, roomID, userID)
	if err != nil {
		r.log.Error("Failed to remove member", "error", err, "room_id", roomID, "user_id", userID)
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (r *memberRepository) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	query := `SELECT 1 FROM chat_room_members WHERE room_id = $1 AND user_id = $2`

	var one int
	err := r.db.QueryRow(ctx, query, roomID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		r.log.Error("Failed to check membership", "error", err, "room_id", roomID, "user_id", userID)
		return false, err
	}

	return true, nil
}

func (r *memberRepository) GetRole(ctx context.Context, roomID, userID uuid.UUID) (string, error) {
	query := `SELECT role FROM chat_room_members WHERE room_id = $1 AND user_id = $2`

	var role string
	err := r.db.QueryRow(ctx, query, roomID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotMember
		}
		r.log.Error("Failed to get role", "error", err, "room_id", roomID, "user_id", userID)
		return "", err
	}

	return role, nil
}

func (r *memberRepository) UpdateRole(ctx context.Context, roomID, userID uuid.UUID, newRole string) (string, error) {
	query := `
		UPDATE chat_room_members SET role = $1
		WHERE room_id = $2 AND user_id = $3
		RETURNING role
	`

	var role string
	err := r.db.QueryRow(ctx, query, newRole, roomID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotMember
		}
		r.log.Error("Failed to update role", "error", err, "room_id", roomID, "user_id", userID)
		return "", err
	}

	return role, nil
}

func (r *memberRepository) MembersByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.Member, error) {
	query := `
		SELECT room_id, user_id, role, joined_at, last_read_message_id, last_read_at, unread_count
		FROM chat_room_members
		WHERE room_id = $1
		ORDER BY joined_at
	`

	rows, err := r.db.Query(ctx, query, roomID)
	if err != nil {
		r.log.Error("Failed to get members", "error", err, "room_id", roomID)
		return nil, err
	}
	defer rows.Close()

	var members []*domain.Member
	for rows.Next() {
		member := &domain.Member{}
		err := rows.Scan(
			&member.RoomID, &member.UserID, &member.Role, &member.JoinedAt,
			&member.LastReadMessageID, &member.LastReadAt, &member.UnreadCount,
		)
		if err != nil {
			r.log.Error("Failed to scan member", "error", err)
			return nil, err
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

// MarkRead двигает указатель чтения; сброс счетчика — отдельный вызов ResetUnread
func (r *memberRepository) MarkRead(ctx context.Context, roomID, userID uuid.UUID, messageID *int64) error {
	query := `
		UPDATE chat_room_members
		SET last_read_message_id = $1, last_read_at = NOW()
		WHERE room_id = $2 AND user_id = $3
	`

	_, err := r.db.Exec(ctx, query, messageID, roomID, userID)
	if err != nil {
		r.log.Error("Failed to mark read", "error", err, "room_id", roomID, "user_id", userID)
		return err
	}

	return nil
}

func (r *memberRepository) ResetUnread(ctx context.Context, roomID, userID uuid.UUID) error {
	query := `
		UPDATE chat_room_members SET unread_count = 0
		WHERE room_id = $1 AND user_id = $2
	`

	_, err := r.db.Exec(ctx, query, roomID, userID)
	if err != nil {
		r.log.Error("Failed to reset unread count", "error", err, "room_id", roomID, "user_id", userID)
		return err
	}

	return nil
}

// IncrementUnread увеличивает счетчик всем участникам комнаты, кроме отправителя.
// Исключение идет по user_id: повторная отправка тем же отправителем сама себя
// не посчитает, но вызов должен происходить ровно один раз на успешный send.
func (r *memberRepository) IncrementUnread(ctx context.Context, roomID, excludingUserID uuid.UUID) error {
	query := `
		UPDATE chat_room_members SET unread_count = unread_count + 1
		WHERE room_id = $1 AND user_id <> $2
	`

	_, err := r.db.Exec(ctx, query, roomID, excludingUserID)
	if err != nil {
		r.log.Error("Failed to increment unread count", "error", err, "room_id", roomID)
		return err
	}

	return nil
}

func (r *memberRepository) UnreadCount(ctx context.Context, roomID, userID uuid.UUID) (int, error) {
	query := `
		SELECT unread_count FROM chat_room_members
		WHERE room_id = $1 AND user_id = $2
	`

	var count int
	err := r.db.QueryRow(ctx, query, roomID, userID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotMember
		}
		r.log.Error("Failed to get unread count", "error", err, "room_id", roomID, "user_id", userID)
		return 0, err
	}

	return count, nil
}
