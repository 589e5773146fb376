package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-service/internal/mocks"
	"social-service/internal/models"
	"social-service/internal/repositories"
	"social-service/internal/ws"
)

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/messages/send", handler.Send)
	r.GET("/messages/:conversation_id", handler.List)
	return r
}

func TestSendMessageSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	conversationRepo := new(mocks.ConversationRepositoryMock)
	handler := NewMessageHandler(messageRepo, conversationRepo, ws.NewHub())
	router := setupMessageRouter(handler)

	msg := models.Message{ID: "msg-1", ConversationID: "conv-1", SenderID: "alice", Content: "hi"}
	messageRepo.On("CreateMessage", mock.Anything, "conv-1", "alice", "hi").Return(msg, nil).Once()
	conversationRepo.On("TouchLastMessage", mock.Anything, "conv-1", "hi").Return(nil).Once()

	body := bytes.NewBufferString(`{"conversation_id":"conv-1","sender_id":"alice","content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages/send", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "msg-1", resp.ID)
	messageRepo.AssertExpectations(t)
	conversationRepo.AssertExpectations(t)
}

func TestSendMessageSummaryFailureStillCreated(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	conversationRepo := new(mocks.ConversationRepositoryMock)
	handler := NewMessageHandler(messageRepo, conversationRepo, ws.NewHub())
	router := setupMessageRouter(handler)

	msg := models.Message{ID: "msg-1", ConversationID: "conv-1", SenderID: "alice", Content: "hi"}
	messageRepo.On("CreateMessage", mock.Anything, "conv-1", "alice", "hi").Return(msg, nil).Once()
	conversationRepo.On("TouchLastMessage", mock.Anything, "conv-1", "hi").Return(assert.AnError).Once()

	body := bytes.NewBufferString(`{"conversation_id":"conv-1","sender_id":"alice","content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages/send", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	messageRepo.AssertExpectations(t)
	conversationRepo.AssertExpectations(t)
}

func TestSendMessageMissingFields(t *testing.T) {
	handler := NewMessageHandler(new(mocks.MessageRepositoryMock), new(mocks.ConversationRepositoryMock), ws.NewHub())
	router := setupMessageRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/messages/send", bytes.NewBufferString(`{"content":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageEmptyContent(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, new(mocks.ConversationRepositoryMock), ws.NewHub())
	router := setupMessageRouter(handler)

	messageRepo.On("CreateMessage", mock.Anything, "conv-1", "alice", "   ").
		Return(models.Message{}, repositories.ErrEmptyContent).Once()

	body := bytes.NewBufferString(`{"conversation_id":"conv-1","sender_id":"alice","content":"   "}`)
	req := httptest.NewRequest(http.MethodPost, "/messages/send", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestSendMessageUnknownConversation(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, new(mocks.ConversationRepositoryMock), ws.NewHub())
	router := setupMessageRouter(handler)

	messageRepo.On("CreateMessage", mock.Anything, "missing", "alice", "hi").
		Return(models.Message{}, repositories.ErrConversationNotFound).Once()

	body := bytes.NewBufferString(`{"conversation_id":"missing","sender_id":"alice","content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages/send", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestListMessagesSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, new(mocks.ConversationRepositoryMock), ws.NewHub())
	router := setupMessageRouter(handler)

	msgs := []models.Message{
		{ID: "msg-1", ConversationID: "conv-1", SenderID: "alice", Content: "hi"},
		{ID: "msg-2", ConversationID: "conv-1", SenderID: "bob", Content: "hello"},
	}
	messageRepo.On("ListByConversation", mock.Anything, "conv-1").Return(msgs, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/conv-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "msg-1", resp[0].ID)
	messageRepo.AssertExpectations(t)
}

func TestListMessagesEmptyConversation(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, new(mocks.ConversationRepositoryMock), ws.NewHub())
	router := setupMessageRouter(handler)

	messageRepo.On("ListByConversation", mock.Anything, "conv-1").Return([]models.Message{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/conv-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
	messageRepo.AssertExpectations(t)
}
