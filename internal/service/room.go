package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"team_messaging/internal/domain"
	"team_messaging/internal/repository"
	apperrors "team_messaging/pkg/errors"
	"team_messaging/pkg/logger"
)

type RoomService interface {
	Create(ctx context.Context, createdBy uuid.UUID, name string, isGroup bool, members []uuid.UUID) (*domain.Room, error)
	GetByID(ctx context.Context, roomID uuid.UUID) (*domain.Room, error)
	RoomsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserRoom, error)
}

type roomService struct {
	roomRepo   repository.RoomRepository
	memberRepo repository.MemberRepository
	log        logger.Logger
}

func NewRoomService(roomRepo repository.RoomRepository, memberRepo repository.MemberRepository, log logger.Logger) RoomService {
	return &roomService{
		roomRepo:   roomRepo,
		memberRepo: memberRepo,
		log:        log,
	}
}

func (s *roomService) Create(ctx context.Context, createdBy uuid.UUID, name string, isGroup bool, members []uuid.UUID) (*domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrBadRequest
	}

	room := &domain.Room{
		ID:        uuid.New(),
		Name:      name,
		IsGroup:   isGroup,
		CreatedBy: createdBy,
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, err
	}

	// Создатель становится администратором комнаты
	if _, err := s.memberRepo.Add(ctx, room.ID, createdBy, domain.MemberRoleAdmin); err != nil {
		return nil, err
	}

	for _, memberID := range members {
		if memberID == createdBy {
			continue
		}
		if _, err := s.memberRepo.Add(ctx, room.ID, memberID, domain.MemberRoleMember); err != nil {
			s.log.Warn("Failed to add initial member", "room_id", room.ID, "user_id", memberID, "error", err)
		}
	}

	return room, nil
}

func (s *roomService) GetByID(ctx context.Context, roomID uuid.UUID) (*domain.Room, error) {
	return s.roomRepo.GetByID(ctx, roomID)
}

func (s *roomService) RoomsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserRoom, error) {
	return s.roomRepo.RoomsByUser(ctx, userID)
}
