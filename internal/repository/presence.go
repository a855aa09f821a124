package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"team_messaging/pkg/logger"
)

type PresenceRepository interface {
	// AddConnection атомарно добавляет соединение и возвращает новую мощность
	// множества соединений пользователя
	AddConnection(ctx context.Context, userID uuid.UUID, connID string) (int64, error)
	RemoveConnection(ctx context.Context, userID uuid.UUID, connID string) (int64, error)
	SetOnline(ctx context.Context, userID uuid.UUID) error
	SetOffline(ctx context.Context, userID uuid.UUID) error
	OnlineUsers(ctx context.Context) ([]uuid.UUID, error)
}

const onlineUsersKey = "online_users"

// SADD и SCARD в одном скрипте: два процесса не могут одновременно
// увидеть мощность 1 для одного пользователя
var addConnScript = redis.NewScript(`
redis.call('SADD', KEYS[1], ARGV[1])
return redis.call('SCARD', KEYS[1])
`)

var removeConnScript = redis.NewScript(`
redis.call('SREM', KEYS[1], ARGV[1])
return redis.call('SCARD', KEYS[1])
`)

type presenceRepository struct {
	rdb *redis.Client
	log logger.Logger
}

func NewPresenceRepository(rdb *redis.Client, log logger.Logger) PresenceRepository {
	return &presenceRepository{rdb: rdb, log: log}
}

func connectionsKey(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:sockets", userID)
}

func (r *presenceRepository) AddConnection(ctx context.Context, userID uuid.UUID, connID string) (int64, error) {
	count, err := addConnScript.Run(ctx, r.rdb, []string{connectionsKey(userID)}, connID).Int64()
	if err != nil {
		r.log.Error("Failed to add connection", "error", err, "user_id", userID)
		return 0, err
	}
	return count, nil
}

func (r *presenceRepository) RemoveConnection(ctx context.Context, userID uuid.UUID, connID string) (int64, error) {
	count, err := removeConnScript.Run(ctx, r.rdb, []string{connectionsKey(userID)}, connID).Int64()
	if err != nil {
		r.log.Error("Failed to remove connection", "error", err, "user_id", userID)
		return 0, err
	}
	return count, nil
}

func (r *presenceRepository) SetOnline(ctx context.Context, userID uuid.UUID) error {
	if err := r.rdb.SAdd(ctx, onlineUsersKey, userID.String()).Err(); err != nil {
		r.log.Error("Failed to set user online", "error", err, "user_id", userID)
		return err
	}
	return nil
}

func (r *presenceRepository) SetOffline(ctx context.Context, userID uuid.UUID) error {
	if err := r.rdb.SRem(ctx, onlineUsersKey, userID.String()).Err(); err != nil {
		r.log.Error("Failed to set user offline", "error", err, "user_id", userID)
		return err
	}
	return nil
}

func (r *presenceRepository) OnlineUsers(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := r.rdb.SMembers(ctx, onlineUsersKey).Result()
	if err != nil {
		r.log.Error("Failed to get online users", "error", err)
		return nil, err
	}

	users := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		userID, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		users = append(users, userID)
	}
	return users, nil
}
