package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"team_messaging/pkg/logger"
)

type Repositories struct {
	Message   MessageRepository
	Member    MemberRepository
	Room      RoomRepository
	Presence  PresenceRepository
	Typing    TypingRepository
	RateLimit RateLimitRepository
}

func NewRepositories(db *pgxpool.Pool, rdb *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		Message:   NewMessageRepository(db, log),
		Member:    NewMemberRepository(db, log),
		Room:      NewRoomRepository(db, log),
		Presence:  NewPresenceRepository(rdb, log),
		Typing:    NewTypingRepository(rdb, log),
		RateLimit: NewRateLimitRepository(rdb, log),
	}
}
