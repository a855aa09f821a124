package service

import (
	"context"

	"github.com/google/uuid"
	"team_messaging/internal/bus"
	"team_messaging/internal/domain"
	"team_messaging/internal/repository"
	"team_messaging/pkg/logger"
)

type PresenceService interface {
	ConnectionOpened(ctx context.Context, userID uuid.UUID, connID string) error
	ConnectionClosed(ctx context.Context, userID uuid.UUID, connID string) error
	OnlineUsers(ctx context.Context) ([]uuid.UUID, error)
}

type presenceService struct {
	presenceRepo repository.PresenceRepository
	eventBus     bus.Bus
	log          logger.Logger
}

func NewPresenceService(presenceRepo repository.PresenceRepository, eventBus bus.Bus, log logger.Logger) PresenceService {
	return &presenceService{
		presenceRepo: presenceRepo,
		eventBus:     eventBus,
		log:          log,
	}
}

// ConnectionOpened регистрирует соединение. user:online уходит только на
// переходе 0→1: пользователь с N живыми соединениями онлайн ровно один раз
func (s *presenceService) ConnectionOpened(ctx context.Context, userID uuid.UUID, connID string) error {
	count, err := s.presenceRepo.AddConnection(ctx, userID, connID)
	if err != nil {
		return err
	}

	if count == 1 {
		if err := s.presenceRepo.SetOnline(ctx, userID); err != nil {
			return err
		}
		publishEvent(ctx, s.eventBus, bus.TopicGlobal, domain.EventUserOnline, userID, connID, s.log)
	}

	return nil
}

func (s *presenceService) ConnectionClosed(ctx context.Context, userID uuid.UUID, connID string) error {
	count, err := s.presenceRepo.RemoveConnection(ctx, userID, connID)
	if err != nil {
		return err
	}

	if count == 0 {
		if err := s.presenceRepo.SetOffline(ctx, userID); err != nil {
			return err
		}
		publishEvent(ctx, s.eventBus, bus.TopicGlobal, domain.EventUserOffline, userID, connID, s.log)
	}

	return nil
}

func (s *presenceService) OnlineUsers(ctx context.Context) ([]uuid.UUID, error) {
	return s.presenceRepo.OnlineUsers(ctx)
}
