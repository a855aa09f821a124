package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"team_messaging/pkg/logger"
)

type TypingRepository interface {
	// TryMark создает маркер (room, user) с TTL; false означает, что маркер
	// еще жив и повторный broadcast надо подавить
	TryMark(ctx context.Context, roomID, userID uuid.UUID, ttl time.Duration) (bool, error)
}

type typingRepository struct {
	rdb *redis.Client
	log logger.Logger
}

func NewTypingRepository(rdb *redis.Client, log logger.Logger) TypingRepository {
	return &typingRepository{rdb: rdb, log: log}
}

func typingKey(roomID, userID uuid.UUID) string {
	return fmt.Sprintf("typing_%s:%s", roomID, userID)
}

func (r *typingRepository) TryMark(ctx context.Context, roomID, userID uuid.UUID, ttl time.Duration) (bool, error) {
	created, err := r.rdb.SetNX(ctx, typingKey(roomID, userID), 1, ttl).Result()
	if err != nil {
		r.log.Error("Failed to set typing marker", "error", err, "room_id", roomID, "user_id", userID)
		return false, err
	}
	return created, nil
}
