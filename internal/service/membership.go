package service

import (
	"context"

	"github.com/google/uuid"
	"team_messaging/internal/bus"
	"team_messaging/internal/domain"
	"team_messaging/internal/repository"
	apperrors "team_messaging/pkg/errors"
	"team_messaging/pkg/logger"
)

type MembershipService interface {
	IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, roomID, requesterID, userID uuid.UUID, role string) (*domain.Member, error)
	Leave(ctx context.Context, roomID, userID uuid.UUID) error
	GetRole(ctx context.Context, roomID, userID uuid.UUID) (string, error)
	UpdateRole(ctx context.Context, roomID, requesterID, userID uuid.UUID, newRole string) (string, error)
	MembersByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.Member, error)
	UnreadCount(ctx context.Context, roomID, userID uuid.UUID) (int, error)
	// OpenRoom двигает указатель чтения на последнее сообщение комнаты,
	// сбрасывает unread и рассылает room:read остальным участникам
	OpenRoom(ctx context.Context, roomID, userID uuid.UUID, excludeConn string) (*int64, error)
}

type membershipService struct {
	memberRepo repository.MemberRepository
	roomRepo   repository.RoomRepository
	eventBus   bus.Bus
	log        logger.Logger
}

func NewMembershipService(memberRepo repository.MemberRepository, roomRepo repository.RoomRepository, eventBus bus.Bus, log logger.Logger) MembershipService {
	return &membershipService{
		memberRepo: memberRepo,
		roomRepo:   roomRepo,
		eventBus:   eventBus,
		log:        log,
	}
}

func (s *membershipService) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	return s.memberRepo.IsMember(ctx, roomID, userID)
}

func (s *membershipService) AddMember(ctx context.Context, roomID, requesterID, userID uuid.UUID, role string) (*domain.Member, error) {
	requesterRole, err := s.memberRepo.GetRole(ctx, roomID, requesterID)
	if err != nil {
		return nil, err
	}
	if requesterRole != domain.MemberRoleAdmin {
		return nil, apperrors.ErrForbidden
	}

	if !validRole(role) {
		return nil, apperrors.ErrBadRequest
	}

	return s.memberRepo.Add(ctx, roomID, userID, role)
}

func (s *membershipService) Leave(ctx context.Context, roomID, userID uuid.UUID) error {
	removed, err := s.memberRepo.Remove(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return apperrors.ErrNotMember
	}
	return nil
}

func (s *membershipService) GetRole(ctx context.Context, roomID, userID uuid.UUID) (string, error) {
	return s.memberRepo.GetRole(ctx, roomID, userID)
}

func (s *membershipService) UpdateRole(ctx context.Context, roomID, requesterID, userID uuid.UUID, newRole string) (string, error) {
	requesterRole, err := s.memberRepo.GetRole(ctx, roomID, requesterID)
	if err != nil {
		return "", err
	}
	if requesterRole != domain.MemberRoleAdmin {
		return "", apperrors.ErrForbidden
	}

	if !validRole(newRole) {
		return "", apperrors.ErrBadRequest
	}

	return s.memberRepo.UpdateRole(ctx, roomID, userID, newRole)
}

func (s *membershipService) MembersByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.Member, error) {
	return s.memberRepo.MembersByRoom(ctx, roomID)
}

func (s *membershipService) UnreadCount(ctx context.Context, roomID, userID uuid.UUID) (int, error) {
	return s.memberRepo.UnreadCount(ctx, roomID, userID)
}

func (s *membershipService) OpenRoom(ctx context.Context, roomID, userID uuid.UUID, excludeConn string) (*int64, error) {
	lastMessageID, err := s.roomRepo.LastMessageID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if err := s.memberRepo.MarkRead(ctx, roomID, userID, lastMessageID); err != nil {
		return nil, err
	}
	if err := s.memberRepo.ResetUnread(ctx, roomID, userID); err != nil {
		return nil, err
	}

	payload := domain.RoomReadPayload{
		RoomID:        roomID,
		UserID:        userID,
		LastMessageID: lastMessageID,
	}
	publishEvent(ctx, s.eventBus, bus.TopicRoom(roomID), domain.EventRoomRead, payload, excludeConn, s.log)

	return lastMessageID, nil
}

func validRole(role string) bool {
	switch role {
	case domain.MemberRoleAdmin, domain.MemberRoleMember, domain.MemberRoleViewer:
		return true
	}
	return false
}
