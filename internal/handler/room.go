package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"team_messaging/internal/service"
	apperrors "team_messaging/pkg/errors"
	"team_messaging/pkg/logger"
)

type RoomHandler struct {
	roomService       service.RoomService
	membershipService service.MembershipService
	log               logger.Logger
}

func NewRoomHandler(roomService service.RoomService, membershipService service.MembershipService, log logger.Logger) *RoomHandler {
	return &RoomHandler{
		roomService:       roomService,
		membershipService: membershipService,
		log:               log,
	}
}

type CreateRoomRequest struct {
	Name    string      `json:"name" binding:"required"`
	IsGroup bool        `json:"isGroup"`
	Members []uuid.UUID `json:"members"`
}

func (h *RoomHandler) Create(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)

	room, err := h.roomService.Create(c.Request.Context(), userID, req.Name, req.IsGroup, req.Members)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) List(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	rooms, err := h.roomService.RoomsByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

type AddMemberRequest struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
	Role   string    `json:"role"`
}

func (h *RoomHandler) AddMember(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role == "" {
		req.Role = "member"
	}

	requesterID := c.MustGet("user_id").(uuid.UUID)

	member, err := h.membershipService.AddMember(c.Request.Context(), roomID, requesterID, req.UserID, req.Role)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, member)
}

func (h *RoomHandler) Leave(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)

	if err := h.membershipService.Leave(c.Request.Context(), roomID, userID); err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left room"})
}

func (h *RoomHandler) GetMembers(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)

	isMember, err := h.membershipService.IsMember(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !isMember {
		c.Status(http.StatusNoContent)
		return
	}

	members, err := h.membershipService.MembersByRoom(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *RoomHandler) UpdateRole(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requesterID := c.MustGet("user_id").(uuid.UUID)

	role, err := h.membershipService.UpdateRole(c.Request.Context(), roomID, requesterID, memberID, req.Role)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": role})
}

func (h *RoomHandler) UnreadCount(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)

	count, err := h.membershipService.UnreadCount(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}
