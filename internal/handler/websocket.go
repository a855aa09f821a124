package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"team_messaging/internal/domain"
	"team_messaging/internal/service"
	"team_messaging/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // В продакшене нужно проверять origin
	},
}

// Frame — кадр двунаправленного протокола сокета. AckID присутствует
// только у команд, ожидающих подтверждения (message:send).
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	AckID int64           `json:"ackId,omitempty"`
}

type Client struct {
	conn     *websocket.Conn
	connID   string
	identity domain.Identity
	send     chan Frame
	done     chan struct{}
	log      logger.Logger
}

func (c *Client) enqueue(frame Frame) {
	select {
	case c.send <- frame:
	default:
		// Медленный потребитель: кадр отбрасывается, клиент сверит
		// пропуски с историей по (created_at, id)
		c.log.Warn("Dropping frame for slow client", "conn_id", c.connID, "event", frame.Event)
	}
}

type WebSocketHandler struct {
	authService       service.AuthService
	messageService    service.MessageService
	membershipService service.MembershipService
	roomService       service.RoomService
	presenceService   service.PresenceService
	typingService     service.TypingService
	hub               *Hub
	log               logger.Logger
}

func NewWebSocketHandler(services *service.Services, hub *Hub, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		authService:       services.Auth,
		messageService:    services.Message,
		membershipService: services.Membership,
		roomService:       services.Room,
		presenceService:   services.Presence,
		typingService:     services.Typing,
		hub:               hub,
		log:               log,
	}
}

// HandleConnection аутентифицирует и обслуживает одно соединение.
// Невалидный токен отклоняется до апгрейда, никакого частичного состояния
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
	}

	identity, err := h.authService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication error"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := &Client{
		conn:     conn,
		connID:   uuid.NewString(),
		identity: *identity,
		send:     make(chan Frame, sendBufferSize),
		done:     make(chan struct{}),
		log:      h.log,
	}

	ctx := context.Background()

	h.hub.register(client)

	if err := h.presenceService.ConnectionOpened(ctx, identity.UserID, client.connID); err != nil {
		h.log.Error("Failed to register presence", "error", err, "user_id", identity.UserID)
	}

	// Соединение вступает во все комнаты пользователя
	rooms, err := h.roomService.RoomsByUser(ctx, identity.UserID)
	if err != nil {
		h.log.Error("Failed to load user rooms", "error", err, "user_id", identity.UserID)
	}
	for _, room := range rooms {
		h.hub.join(client, room.ID)
	}

	h.log.Info("Client connected", "conn_id", client.connID, "user_id", identity.UserID)

	go h.writePump(client)
	h.readPump(ctx, client)

	h.hub.unregister(client)
	if err := h.presenceService.ConnectionClosed(ctx, identity.UserID, client.connID); err != nil {
		h.log.Error("Failed to unregister presence", "error", err, "user_id", identity.UserID)
	}

	h.log.Info("Client disconnected", "conn_id", client.connID, "user_id", identity.UserID)
}

func (h *WebSocketHandler) readPump(ctx context.Context, client *Client) {
	defer close(client.done)

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := client.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("WebSocket read error", "conn_id", client.connID, "error", err)
			}
			return
		}

		h.handleFrame(ctx, client, frame)
	}
}

func (h *WebSocketHandler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case frame := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-client.done:
			return
		}
	}
}

func (h *WebSocketHandler) handleFrame(ctx context.Context, client *Client, frame Frame) {
	switch frame.Event {
	case domain.EventMessageSend:
		h.handleSend(ctx, client, frame)
	case domain.EventMessageGet:
		h.handleGet(ctx, client, frame)
	case domain.EventMessageEdit:
		h.handleEdit(ctx, client, frame)
	case domain.EventMessageDelete:
		h.handleDelete(ctx, client, frame)
	case domain.EventTyping:
		h.handleTyping(ctx, client, frame)
	case domain.EventRoomOpen:
		h.handleRoomOpen(ctx, client, frame)
	default:
		h.log.Debug("Unknown socket event", "event", frame.Event, "conn_id", client.connID)
	}
}

// isMember — единственные авторизационные ворота для команд комнаты.
// Команды не-участников молча игнорируются: не-участник не должен узнать,
// существует ли комната
func (h *WebSocketHandler) isMember(ctx context.Context, roomID uuid.UUID, client *Client) bool {
	if roomID == uuid.Nil {
		return false
	}
	ok, err := h.membershipService.IsMember(ctx, roomID, client.identity.UserID)
	if err != nil {
		h.log.Error("Membership check failed", "error", err, "room_id", roomID)
		return false
	}
	return ok
}

func (h *WebSocketHandler) handleSend(ctx context.Context, client *Client, frame Frame) {
	var payload domain.SendMessagePayload
	if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.RoomID == uuid.Nil || payload.Content == "" {
		client.enqueue(errorFrame("send", "INVALID_PAYLOAD"))
		h.ack(client, frame, domain.SendAck{OK: false, Error: "invalid payload"})
		return
	}

	if !h.isMember(ctx, payload.RoomID, client) {
		return
	}

	message, err := h.messageService.Send(ctx, payload.RoomID, client.identity.UserID, payload.Content, payload.MessageType, payload.Attachments)
	if err != nil {
		client.enqueue(errorFrame("send", "SEND_FAILED"))
		h.ack(client, frame, domain.SendAck{OK: false, Error: err.Error()})
		return
	}

	h.ack(client, frame, domain.SendAck{OK: true, Message: message})
}

func (h *WebSocketHandler) handleGet(ctx context.Context, client *Client, frame Frame) {
	var payload domain.GetMessagesPayload
	if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.RoomID == uuid.Nil {
		return
	}

	if !h.isMember(ctx, payload.RoomID, client) {
		return
	}

	var messages []*domain.Message
	var err error
	if payload.CursorCreatedAt == nil || payload.CursorMessageID == nil {
		messages, err = h.messageService.History(ctx, payload.RoomID, payload.Limit)
	} else {
		messages, err = h.messageService.HistoryBefore(ctx, payload.RoomID, *payload.CursorCreatedAt, *payload.CursorMessageID, payload.Limit)
	}
	if err != nil {
		client.enqueue(errorFrame("getMessages", "GET_FAILED"))
		return
	}

	list := domain.MessageListPayload{RoomID: payload.RoomID, Messages: messages}
	data, err := json.Marshal(list)
	if err != nil {
		h.log.Error("Failed to marshal message list", "error", err)
		return
	}
	client.enqueue(Frame{Event: domain.EventMessageList, Data: data})
}

func (h *WebSocketHandler) handleEdit(ctx context.Context, client *Client, frame Frame) {
	var payload domain.EditMessagePayload
	if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.RoomID == uuid.Nil {
		return
	}

	if !h.isMember(ctx, payload.RoomID, client) {
		return
	}

	if _, err := h.messageService.Edit(ctx, payload.RoomID, payload.MessageID, client.identity.UserID, payload.NewContent); err != nil {
		client.enqueue(errorFrame("editMessage", "EDIT_FAILED"))
	}
}

func (h *WebSocketHandler) handleDelete(ctx context.Context, client *Client, frame Frame) {
	var payload domain.DeleteMessagePayload
	if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.RoomID == uuid.Nil {
		return
	}

	if !h.isMember(ctx, payload.RoomID, client) {
		return
	}

	if err := h.messageService.Delete(ctx, payload.RoomID, payload.MessageID, client.identity.UserID); err != nil {
		client.enqueue(errorFrame("deleteMessage", "DELETE_FAILED"))
	}
}

func (h *WebSocketHandler) handleTyping(ctx context.Context, client *Client, frame Frame) {
	var payload domain.TypingPayload
	if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.RoomID == uuid.Nil {
		return
	}

	if !h.isMember(ctx, payload.RoomID, client) {
		return
	}

	if err := h.typingService.Signal(ctx, payload.RoomID, client.identity.UserID, client.connID); err != nil {
		h.log.Error("Typing signal failed", "error", err, "room_id", payload.RoomID)
	}
}

func (h *WebSocketHandler) handleRoomOpen(ctx context.Context, client *Client, frame Frame) {
	var payload domain.RoomOpenPayload
	if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.RoomID == uuid.Nil {
		return
	}

	if !h.isMember(ctx, payload.RoomID, client) {
		return
	}

	if _, err := h.membershipService.OpenRoom(ctx, payload.RoomID, client.identity.UserID, client.connID); err != nil {
		h.log.Error("Failed to open room", "error", err, "room_id", payload.RoomID)
	}
}

func (h *WebSocketHandler) ack(client *Client, frame Frame, ack domain.SendAck) {
	if frame.AckID == 0 {
		return
	}
	data, err := json.Marshal(ack)
	if err != nil {
		h.log.Error("Failed to marshal ack", "error", err)
		return
	}
	client.enqueue(Frame{Event: frame.Event, Data: data, AckID: frame.AckID})
}

func errorFrame(action, code string) Frame {
	data, _ := json.Marshal(domain.MessageErrorPayload{Action: action, Code: code})
	return Frame{Event: domain.EventMessageError, Data: data}
}
