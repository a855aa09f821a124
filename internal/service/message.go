package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"team_messaging/internal/bus"
	"team_messaging/internal/config"
	"team_messaging/internal/domain"
	"team_messaging/internal/repository"
	apperrors "team_messaging/pkg/errors"
	"team_messaging/pkg/logger"
)

type MessageService interface {
	Send(ctx context.Context, roomID, senderID uuid.UUID, content, messageType string, attachments []domain.NewAttachment) (*domain.Message, error)
	History(ctx context.Context, roomID uuid.UUID, limit int) ([]*domain.Message, error)
	HistoryBefore(ctx context.Context, roomID uuid.UUID, cursorCreatedAt time.Time, cursorMessageID int64, limit int) ([]*domain.Message, error)
	Edit(ctx context.Context, roomID uuid.UUID, messageID int64, userID uuid.UUID, newContent string) (*domain.Message, error)
	Delete(ctx context.Context, roomID uuid.UUID, messageID int64, userID uuid.UUID) error
	Search(ctx context.Context, roomID uuid.UUID, query string) ([]*domain.Message, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	memberRepo  repository.MemberRepository
	roomRepo    repository.RoomRepository
	eventBus    bus.Bus
	cfg         config.ChatConfig
	log         logger.Logger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	memberRepo repository.MemberRepository,
	roomRepo repository.RoomRepository,
	eventBus bus.Bus,
	cfg config.ChatConfig,
	log logger.Logger,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		memberRepo:  memberRepo,
		roomRepo:    roomRepo,
		eventBus:    eventBus,
		cfg:         cfg,
		log:         log,
	}
}

// Send выполняет append → обновление указателя комнаты → инкремент unread →
// публикацию как одну логическую единицу. Кросс-хранилищной транзакции нет:
// сбой между шагами оставляет частичное состояние (см. обработку ошибок)
func (s *messageService) Send(ctx context.Context, roomID, senderID uuid.UUID, content, messageType string, attachments []domain.NewAttachment) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.ErrBadRequest
	}
	if s.cfg.MaxContentLength > 0 && len(content) > s.cfg.MaxContentLength {
		return nil, apperrors.ErrBadRequest
	}

	switch messageType {
	case "":
		messageType = domain.MessageTypeText
	case domain.MessageTypeText, domain.MessageTypeImage, domain.MessageTypeFile:
	default:
		return nil, apperrors.ErrBadRequest
	}

	message := &domain.Message{
		RoomID:      roomID,
		SenderID:    senderID,
		Content:     content,
		MessageType: messageType,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	for _, a := range attachments {
		attachment := &domain.Attachment{
			MessageID:      message.ID,
			AttachmentURL:  a.AttachmentURL,
			AttachmentType: a.AttachmentType,
		}
		if err := s.messageRepo.CreateAttachment(ctx, attachment); err != nil {
			return nil, err
		}
		message.Attachments = append(message.Attachments, *attachment)
	}

	if err := s.roomRepo.UpdateLastMessage(ctx, roomID, message.ID); err != nil {
		return nil, err
	}

	// Инкремент идет ровно один раз на успешный send, до публикации:
	// потребители шины счетчиков не трогают, поэтому повторная доставка
	// события не приводит к двойному счету
	if err := s.memberRepo.IncrementUnread(ctx, roomID, senderID); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.eventBus, bus.TopicRoom(roomID), domain.EventMessageNew, message, "", s.log)

	return message, nil
}

func (s *messageService) History(ctx context.Context, roomID uuid.UUID, limit int) ([]*domain.Message, error) {
	return s.messageRepo.History(ctx, roomID, s.normalizeLimit(limit))
}

func (s *messageService) HistoryBefore(ctx context.Context, roomID uuid.UUID, cursorCreatedAt time.Time, cursorMessageID int64, limit int) ([]*domain.Message, error) {
	return s.messageRepo.HistoryBefore(ctx, roomID, cursorCreatedAt, cursorMessageID, s.normalizeLimit(limit))
}

func (s *messageService) Edit(ctx context.Context, roomID uuid.UUID, messageID int64, userID uuid.UUID, newContent string) (*domain.Message, error) {
	newContent = strings.TrimSpace(newContent)
	if newContent == "" {
		return nil, apperrors.ErrBadRequest
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.RoomID != roomID {
		return nil, apperrors.ErrMessageNotFound
	}
	if message.SenderID != userID {
		return nil, apperrors.ErrNotSender
	}

	updated, err := s.messageRepo.UpdateContent(ctx, messageID, newContent)
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.eventBus, bus.TopicRoom(roomID), domain.EventMessageUpdate, updated, "", s.log)

	return updated, nil
}

func (s *messageService) Delete(ctx context.Context, roomID uuid.UUID, messageID int64, userID uuid.UUID) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.RoomID != roomID {
		return apperrors.ErrMessageNotFound
	}
	if message.SenderID != userID {
		return apperrors.ErrNotSender
	}

	if err := s.messageRepo.SoftDelete(ctx, messageID); err != nil {
		return err
	}

	payload := domain.MessageDeletedPayload{MessageID: messageID}
	publishEvent(ctx, s.eventBus, bus.TopicRoom(roomID), domain.EventMessageDelete, payload, "", s.log)

	return nil
}

func (s *messageService) Search(ctx context.Context, roomID uuid.UUID, query string) ([]*domain.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ErrBadRequest
	}
	return s.messageRepo.Search(ctx, roomID, query)
}

func (s *messageService) normalizeLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultHistoryLimit
	}
	if limit > s.cfg.MaxHistoryLimit {
		return s.cfg.MaxHistoryLimit
	}
	return limit
}
