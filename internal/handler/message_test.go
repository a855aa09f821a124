package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"team_messaging/internal/domain"
)

func newMessageRouter(h *MessageHandler, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	r.POST("/messages/load", h.Load)
	r.POST("/messages/search", h.Search)
	return r
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMessageHandler_Load(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	messages := &fakeMessageService{history: []*domain.Message{
		{ID: 1, RoomID: roomID, Content: "hello"},
	}}
	membership := newFakeMembershipService()
	membership.addMember(roomID, userID)
	router := newMessageRouter(NewMessageHandler(messages, membership, nopLogger{}), userID)

	w := postJSON(t, router, "/messages/load", LoadMessagesRequest{RoomID: roomID, Limit: 10})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Messages []*domain.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 1)
	require.Equal(t, "hello", resp.Messages[0].Content)
}

// Не-участник получает 204, как и участник пустой комнаты: ответы неотличимы
func TestMessageHandler_LoadNonMember(t *testing.T) {
	roomID := uuid.New()
	messages := &fakeMessageService{history: []*domain.Message{{ID: 1, RoomID: roomID}}}
	router := newMessageRouter(NewMessageHandler(messages, newFakeMembershipService(), nopLogger{}), uuid.New())

	w := postJSON(t, router, "/messages/load", LoadMessagesRequest{RoomID: roomID})
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.Bytes())
}

func TestMessageHandler_LoadEmptyRoom(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	membership := newFakeMembershipService()
	membership.addMember(roomID, userID)
	router := newMessageRouter(NewMessageHandler(&fakeMessageService{}, membership, nopLogger{}), userID)

	w := postJSON(t, router, "/messages/load", LoadMessagesRequest{RoomID: roomID})
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestMessageHandler_LoadBadRequest(t *testing.T) {
	router := newMessageRouter(NewMessageHandler(&fakeMessageService{}, newFakeMembershipService(), nopLogger{}), uuid.New())

	w := postJSON(t, router, "/messages/load", gin.H{"limit": 5})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessageHandler_Search(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	messages := &fakeMessageService{history: []*domain.Message{
		{ID: 3, RoomID: roomID, Content: "deploy friday"},
	}}
	membership := newFakeMembershipService()
	membership.addMember(roomID, userID)
	router := newMessageRouter(NewMessageHandler(messages, membership, nopLogger{}), userID)

	w := postJSON(t, router, "/messages/search", SearchMessagesRequest{RoomID: roomID, Query: "deploy"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"deploy"}, messages.searched)

	w = postJSON(t, router, "/messages/search", gin.H{"roomId": roomID})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
