package handler

import (
	"team_messaging/internal/service"
	"team_messaging/pkg/logger"
)

type Handlers struct {
	Health    *HealthHandler
	Message   *MessageHandler
	Room      *RoomHandler
	Presence  *PresenceHandler
	WebSocket *WebSocketHandler
}

func NewHandlers(services *service.Services, hub *Hub, log logger.Logger) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(),
		Message:   NewMessageHandler(services.Message, services.Membership, log),
		Room:      NewRoomHandler(services.Room, services.Membership, log),
		Presence:  NewPresenceHandler(services.Presence, log),
		WebSocket: NewWebSocketHandler(services, hub, log),
	}
}
