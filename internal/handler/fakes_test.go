package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"team_messaging/internal/domain"
	apperrors "team_messaging/pkg/errors"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newTestClient(connID string, userID uuid.UUID) *Client {
	return &Client{
		connID:   connID,
		identity: domain.Identity{UserID: userID, DisplayName: "tester", Role: "user"},
		send:     make(chan Frame, sendBufferSize),
		done:     make(chan struct{}),
		log:      nopLogger{},
	}
}

// drain снимает все кадры, накопленные в буфере клиента
func drain(client *Client) []Frame {
	var out []Frame
	for {
		select {
		case frame := <-client.send:
			out = append(out, frame)
		default:
			return out
		}
	}
}

type fakeMessageService struct {
	mu       sync.Mutex
	sent     []*domain.Message
	history  []*domain.Message
	sendErr  error
	editErr  error
	nextID   int64
	searched []string
}

func (s *fakeMessageService) Send(_ context.Context, roomID, senderID uuid.UUID, content, messageType string, _ []domain.NewAttachment) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	if messageType == "" {
		messageType = domain.MessageTypeText
	}
	s.nextID++
	message := &domain.Message{
		ID:          s.nextID,
		RoomID:      roomID,
		SenderID:    senderID,
		Content:     content,
		MessageType: messageType,
		CreatedAt:   time.Now(),
	}
	s.sent = append(s.sent, message)
	return message, nil
}

func (s *fakeMessageService) History(context.Context, uuid.UUID, int) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history, nil
}

func (s *fakeMessageService) HistoryBefore(context.Context, uuid.UUID, time.Time, int64, int) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history, nil
}

func (s *fakeMessageService) Edit(_ context.Context, roomID uuid.UUID, messageID int64, _ uuid.UUID, newContent string) (*domain.Message, error) {
	if s.editErr != nil {
		return nil, s.editErr
	}
	return &domain.Message{ID: messageID, RoomID: roomID, Content: newContent}, nil
}

func (s *fakeMessageService) Delete(context.Context, uuid.UUID, int64, uuid.UUID) error {
	return nil
}

func (s *fakeMessageService) Search(_ context.Context, _ uuid.UUID, query string) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searched = append(s.searched, query)
	return s.history, nil
}

func (s *fakeMessageService) sentMessages() []*domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.Message(nil), s.sent...)
}

type fakeMembershipService struct {
	mu      sync.Mutex
	members map[uuid.UUID]map[uuid.UUID]bool
	opened  []uuid.UUID
}

func newFakeMembershipService() *fakeMembershipService {
	return &fakeMembershipService{members: make(map[uuid.UUID]map[uuid.UUID]bool)}
}

func (s *fakeMembershipService) addMember(roomID, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[roomID] == nil {
		s.members[roomID] = make(map[uuid.UUID]bool)
	}
	s.members[roomID][userID] = true
}

func (s *fakeMembershipService) IsMember(_ context.Context, roomID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[roomID][userID], nil
}

func (s *fakeMembershipService) AddMember(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, string) (*domain.Member, error) {
	return nil, apperrors.ErrForbidden
}

func (s *fakeMembershipService) Leave(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (s *fakeMembershipService) GetRole(context.Context, uuid.UUID, uuid.UUID) (string, error) {
	return domain.MemberRoleMember, nil
}

func (s *fakeMembershipService) UpdateRole(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, string) (string, error) {
	return "", apperrors.ErrForbidden
}

func (s *fakeMembershipService) MembersByRoom(context.Context, uuid.UUID) ([]*domain.Member, error) {
	return nil, nil
}

func (s *fakeMembershipService) UnreadCount(context.Context, uuid.UUID, uuid.UUID) (int, error) {
	return 0, nil
}

func (s *fakeMembershipService) OpenRoom(_ context.Context, roomID, _ uuid.UUID, _ string) (*int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, roomID)
	return nil, nil
}

type fakeTypingService struct {
	mu      sync.Mutex
	signals []uuid.UUID
}

func (s *fakeTypingService) Signal(_ context.Context, roomID, _ uuid.UUID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, roomID)
	return nil
}
