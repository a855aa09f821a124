package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"team_messaging/internal/bus"
	"team_messaging/internal/domain"
	apperrors "team_messaging/pkg/errors"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// recordBus записывает публикации для проверок
type recordBus struct {
	mu     sync.Mutex
	events []bus.Event
}

func (b *recordBus) Publish(_ context.Context, event bus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *recordBus) Subscribe(context.Context) (<-chan bus.Event, error) {
	ch := make(chan bus.Event)
	close(ch)
	return ch, nil
}

func (b *recordBus) Close() error { return nil }

func (b *recordBus) byName(name string) []bus.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []bus.Event
	for _, e := range b.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type fakeMessageRepo struct {
	mu          sync.Mutex
	nextID      int64
	now         time.Time
	messages    []*domain.Message
	attachments []*domain.Attachment
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (r *fakeMessageRepo) Create(_ context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	message.ID = r.nextID
	if message.CreatedAt.IsZero() {
		r.now = r.now.Add(time.Millisecond)
		message.CreatedAt = r.now
	}
	stored := *message
	r.messages = append(r.messages, &stored)
	return nil
}

// createAt добавляет сообщение с заданным временем (для тестов курсора)
func (r *fakeMessageRepo) createAt(roomID, senderID uuid.UUID, content string, at time.Time) *domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	message := &domain.Message{
		ID:          r.nextID,
		RoomID:      roomID,
		SenderID:    senderID,
		Content:     content,
		MessageType: domain.MessageTypeText,
		CreatedAt:   at,
	}
	r.messages = append(r.messages, message)
	return message
}

func (r *fakeMessageRepo) CreateAttachment(_ context.Context, attachment *domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attachment.ID = int64(len(r.attachments) + 1)
	r.attachments = append(r.attachments, attachment)
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, messageID int64) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == messageID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, apperrors.ErrMessageNotFound
}

func (r *fakeMessageRepo) roomMessagesDesc(roomID uuid.UUID) []*domain.Message {
	var out []*domain.Message
	for _, m := range r.messages {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *fakeMessageRepo) History(_ context.Context, roomID uuid.UUID, limit int) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	desc := r.roomMessagesDesc(roomID)
	if len(desc) > limit {
		desc = desc[:limit]
	}
	return reverse(desc), nil
}

func (r *fakeMessageRepo) HistoryBefore(_ context.Context, roomID uuid.UUID, cursorCreatedAt time.Time, cursorMessageID int64, limit int) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var filtered []*domain.Message
	for _, m := range r.roomMessagesDesc(roomID) {
		if m.CreatedAt.Before(cursorCreatedAt) || (m.CreatedAt.Equal(cursorCreatedAt) && m.ID < cursorMessageID) {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return reverse(filtered), nil
}

func (r *fakeMessageRepo) UpdateContent(_ context.Context, messageID int64, newContent string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == messageID {
			m.Content = newContent
			now := time.Now()
			m.EditedAt = &now
			copied := *m
			return &copied, nil
		}
	}
	return nil, apperrors.ErrMessageNotFound
}

func (r *fakeMessageRepo) SoftDelete(_ context.Context, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == messageID {
			m.IsDeleted = true
			return nil
		}
	}
	return apperrors.ErrMessageNotFound
}

func (r *fakeMessageRepo) Search(_ context.Context, roomID uuid.UUID, query string) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Message
	for _, m := range r.roomMessagesDesc(roomID) {
		if !m.IsDeleted && strings.Contains(strings.ToLower(m.Content), strings.ToLower(query)) {
			out = append(out, m)
		}
	}
	return out, nil
}

func reverse(in []*domain.Message) []*domain.Message {
	out := make([]*domain.Message, len(in))
	for i, m := range in {
		out[len(in)-1-i] = m
	}
	return out
}

type fakeMemberRepo struct {
	mu      sync.Mutex
	members map[uuid.UUID]map[uuid.UUID]*domain.Member
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: make(map[uuid.UUID]map[uuid.UUID]*domain.Member)}
}

func (r *fakeMemberRepo) Add(_ context.Context, roomID, userID uuid.UUID, role string) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.members[roomID]
	if !ok {
		room = make(map[uuid.UUID]*domain.Member)
		r.members[roomID] = room
	}
	if _, exists := room[userID]; exists {
		return nil, apperrors.ErrMemberExists
	}
	member := &domain.Member{RoomID: roomID, UserID: userID, Role: role, JoinedAt: time.Now()}
	room[userID] = member
	copied := *member
	return &copied, nil
}

func (r *fakeMemberRepo) Remove(_ context.Context, roomID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[roomID][userID]; !ok {
		return false, nil
	}
	delete(r.members[roomID], userID)
	return true, nil
}

func (r *fakeMemberRepo) IsMember(_ context.Context, roomID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[roomID][userID]
	return ok, nil
}

func (r *fakeMemberRepo) GetRole(_ context.Context, roomID, userID uuid.UUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[roomID][userID]
	if !ok {
		return "", apperrors.ErrNotMember
	}
	return member.Role, nil
}

func (r *fakeMemberRepo) UpdateRole(_ context.Context, roomID, userID uuid.UUID, newRole string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[roomID][userID]
	if !ok {
		return "", apperrors.ErrNotMember
	}
	member.Role = newRole
	return newRole, nil
}

func (r *fakeMemberRepo) MembersByRoom(_ context.Context, roomID uuid.UUID) ([]*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Member
	for _, m := range r.members[roomID] {
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeMemberRepo) MarkRead(_ context.Context, roomID, userID uuid.UUID, messageID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[roomID][userID]
	if !ok {
		return apperrors.ErrNotMember
	}
	member.LastReadMessageID = messageID
	now := time.Now()
	member.LastReadAt = &now
	return nil
}

func (r *fakeMemberRepo) ResetUnread(_ context.Context, roomID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if member, ok := r.members[roomID][userID]; ok {
		member.UnreadCount = 0
	}
	return nil
}

func (r *fakeMemberRepo) IncrementUnread(_ context.Context, roomID, excludingUserID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, member := range r.members[roomID] {
		if userID != excludingUserID {
			member.UnreadCount++
		}
	}
	return nil
}

func (r *fakeMemberRepo) UnreadCount(_ context.Context, roomID, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[roomID][userID]
	if !ok {
		return 0, apperrors.ErrNotMember
	}
	return member.UnreadCount, nil
}

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*domain.Room
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[uuid.UUID]*domain.Room)}
}

func (r *fakeRoomRepo) Create(_ context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	room.CreatedAt = time.Now()
	stored := *room
	r.rooms[room.ID] = &stored
	return nil
}

func (r *fakeRoomRepo) GetByID(_ context.Context, roomID uuid.UUID) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (r *fakeRoomRepo) RoomsByUser(context.Context, uuid.UUID) ([]*domain.UserRoom, error) {
	return nil, nil
}

func (r *fakeRoomRepo) UpdateLastMessage(_ context.Context, roomID uuid.UUID, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return apperrors.ErrRoomNotFound
	}
	room.LastMessageID = &messageID
	now := time.Now()
	room.LastMessageAt = &now
	return nil
}

func (r *fakeRoomRepo) LastMessageID(_ context.Context, roomID uuid.UUID) (*int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	return room.LastMessageID, nil
}

type fakePresenceRepo struct {
	mu     sync.Mutex
	conns  map[uuid.UUID]map[string]struct{}
	online map[uuid.UUID]struct{}
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{
		conns:  make(map[uuid.UUID]map[string]struct{}),
		online: make(map[uuid.UUID]struct{}),
	}
}

func (r *fakePresenceRepo) AddConnection(_ context.Context, userID uuid.UUID, connID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		r.conns[userID] = set
	}
	set[connID] = struct{}{}
	return int64(len(set)), nil
}

func (r *fakePresenceRepo) RemoveConnection(_ context.Context, userID uuid.UUID, connID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns[userID], connID)
	return int64(len(r.conns[userID])), nil
}

func (r *fakePresenceRepo) SetOnline(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online[userID] = struct{}{}
	return nil
}

func (r *fakePresenceRepo) SetOffline(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.online, userID)
	return nil
}

func (r *fakePresenceRepo) OnlineUsers(context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for userID := range r.online {
		out = append(out, userID)
	}
	return out, nil
}

type typingKeyPair struct {
	roomID uuid.UUID
	userID uuid.UUID
}

type fakeTypingRepo struct {
	mu      sync.Mutex
	now     time.Time
	markers map[typingKeyPair]time.Time
}

func newFakeTypingRepo() *fakeTypingRepo {
	return &fakeTypingRepo{
		now:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		markers: make(map[typingKeyPair]time.Time),
	}
}

func (r *fakeTypingRepo) advance(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = r.now.Add(d)
}

func (r *fakeTypingRepo) TryMark(_ context.Context, roomID, userID uuid.UUID, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := typingKeyPair{roomID: roomID, userID: userID}
	if expiry, ok := r.markers[key]; ok && r.now.Before(expiry) {
		return false, nil
	}
	r.markers[key] = r.now.Add(ttl)
	return true, nil
}
