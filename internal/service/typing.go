package service

import (
	"context"

	"github.com/google/uuid"
	"team_messaging/internal/bus"
	"team_messaging/internal/config"
	"team_messaging/internal/domain"
	"team_messaging/internal/repository"
	"team_messaging/pkg/logger"
)

type TypingService interface {
	Signal(ctx context.Context, roomID, userID uuid.UUID, excludeConn string) error
}

type typingService struct {
	typingRepo repository.TypingRepository
	eventBus   bus.Bus
	cfg        config.ChatConfig
	log        logger.Logger
}

func NewTypingService(typingRepo repository.TypingRepository, eventBus bus.Bus, cfg config.ChatConfig, log logger.Logger) TypingService {
	return &typingService{
		typingRepo: typingRepo,
		eventBus:   eventBus,
		cfg:        cfg,
		log:        log,
	}
}

// Signal дает не больше одного room:typing за окно TTL на пару (room, user).
// Дебаунс целиком держится на существовании маркера и его автоистечении
func (s *typingService) Signal(ctx context.Context, roomID, userID uuid.UUID, excludeConn string) error {
	created, err := s.typingRepo.TryMark(ctx, roomID, userID, s.cfg.TypingTTL)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	payload := domain.RoomTypingPayload{
		RoomID: roomID,
		UserID: userID,
	}
	publishEvent(ctx, s.eventBus, bus.TopicRoom(roomID), domain.EventRoomTyping, payload, excludeConn, s.log)

	return nil
}
