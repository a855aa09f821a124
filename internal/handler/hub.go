package handler

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"team_messaging/internal/bus"
	"team_messaging/pkg/logger"
)

// Hub хранит локальные broadcast-группы одного gateway-процесса и
// подписан на шину целиком: события, опубликованные любым процессом,
// доезжают до локально подключенных сокетов.
type Hub struct {
	eventBus bus.Bus
	log      logger.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[uuid.UUID]map[*Client]struct{}
}

func NewHub(eventBus bus.Bus, log logger.Logger) *Hub {
	return &Hub{
		eventBus: eventBus,
		log:      log,
		clients:  make(map[*Client]struct{}),
		rooms:    make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Run потребляет события шины до отмены контекста
func (h *Hub) Run(ctx context.Context) error {
	events, err := h.eventBus.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for event := range events {
			h.dispatch(event)
		}
	}()

	return nil
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, client)
	for roomID, group := range h.rooms {
		delete(group, client)
		if len(group) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// join добавляет соединение в локальную группу комнаты; членство группы
// живет только в памяти этого процесса и только на время соединения
func (h *Hub) join(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.rooms[roomID]
	if !ok {
		group = make(map[*Client]struct{})
		h.rooms[roomID] = group
	}
	group[client] = struct{}{}
}

func (h *Hub) dispatch(event bus.Event) {
	frame := Frame{Event: event.Name, Data: event.Payload}

	if event.Topic == bus.TopicGlobal {
		h.mu.RLock()
		defer h.mu.RUnlock()
		for client := range h.clients {
			if client.connID == event.Exclude {
				continue
			}
			client.enqueue(frame)
		}
		return
	}

	roomID, err := uuid.Parse(strings.TrimPrefix(event.Topic, "room:"))
	if err != nil {
		h.log.Warn("Dropping bus event with bad topic", "topic", event.Topic)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[roomID] {
		if client.connID == event.Exclude {
			continue
		}
		client.enqueue(frame)
	}
}
