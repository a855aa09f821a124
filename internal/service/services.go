package service

import (
	"team_messaging/internal/bus"
	"team_messaging/internal/config"
	"team_messaging/internal/repository"
	"team_messaging/pkg/logger"
)

type Services struct {
	Auth       AuthService
	Message    MessageService
	Membership MembershipService
	Room       RoomService
	Presence   PresenceService
	Typing     TypingService
	RateLimit  RateLimitService
}

func NewServices(repos *repository.Repositories, eventBus bus.Bus, cfg *config.Config, log logger.Logger) *Services {
	return &Services{
		Auth:       NewAuthService(cfg.JWT, log),
		Message:    NewMessageService(repos.Message, repos.Member, repos.Room, eventBus, cfg.Chat, log),
		Membership: NewMembershipService(repos.Member, repos.Room, eventBus, log),
		Room:       NewRoomService(repos.Room, repos.Member, log),
		Presence:   NewPresenceService(repos.Presence, eventBus, log),
		Typing:     NewTypingService(repos.Typing, eventBus, cfg.Chat, log),
		RateLimit:  NewRateLimitService(repos.RateLimit, cfg.RateLimit, log),
	}
}
