package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"team_messaging/internal/domain"
	"team_messaging/internal/service"
	"team_messaging/pkg/logger"
)

type MessageHandler struct {
	messageService    service.MessageService
	membershipService service.MembershipService
	log               logger.Logger
}

func NewMessageHandler(messageService service.MessageService, membershipService service.MembershipService, log logger.Logger) *MessageHandler {
	return &MessageHandler{
		messageService:    messageService,
		membershipService: membershipService,
		log:               log,
	}
}

type LoadMessagesRequest struct {
	RoomID          uuid.UUID  `json:"roomId" binding:"required"`
	Limit           int        `json:"limit"`
	CursorCreatedAt *time.Time `json:"cursorCreatedAt"`
	CursorMessageID *int64     `json:"cursorMessageId"`
}

// Load отдает первую страницу истории или страницу по курсору
func (h *MessageHandler) Load(c *gin.Context) {
	var req LoadMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)

	// Не-участник получает пустой ответ: существование комнаты не раскрывается
	isMember, err := h.membershipService.IsMember(c.Request.Context(), req.RoomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !isMember {
		c.Status(http.StatusNoContent)
		return
	}

	var messages []*domain.Message
	if req.CursorCreatedAt == nil || req.CursorMessageID == nil {
		messages, err = h.messageService.History(c.Request.Context(), req.RoomID, req.Limit)
	} else {
		messages, err = h.messageService.HistoryBefore(c.Request.Context(), req.RoomID, *req.CursorCreatedAt, *req.CursorMessageID, req.Limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if len(messages) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type SearchMessagesRequest struct {
	RoomID uuid.UUID `json:"roomId" binding:"required"`
	Query  string    `json:"query" binding:"required"`
}

func (h *MessageHandler) Search(c *gin.Context) {
	var req SearchMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)

	isMember, err := h.membershipService.IsMember(c.Request.Context(), req.RoomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !isMember {
		c.Status(http.StatusNoContent)
		return
	}

	messages, err := h.messageService.Search(c.Request.Context(), req.RoomID, req.Query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if len(messages) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
