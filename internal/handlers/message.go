package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/models"
	"social-service/internal/repositories"
	"social-service/internal/ws"
)

// MessageHandler manages the message log endpoints.
type MessageHandler struct {
	messageRepo      repositories.MessageRepository
	conversationRepo repositories.ConversationRepository
	hub              *ws.Hub
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messageRepo repositories.MessageRepository, conversationRepo repositories.ConversationRepository, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		hub:              hub,
	}
}

// Send appends a message to a conversation, refreshes the conversation's
// advisory summary and broadcasts to the room. The broadcast and the
// summary update are best-effort; only the append decides the status code.
func (h *MessageHandler) Send(c *gin.Context) {
	var req struct {
		ConversationID string `json:"conversation_id" binding:"required"`
		SenderID       string `json:"sender_id" binding:"required"`
		Content        string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), req.ConversationID, req.SenderID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrEmptyContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message content is empty"})
		case errors.Is(err, repositories.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		}
		return
	}

	if err := h.conversationRepo.TouchLastMessage(c.Request.Context(), msg.ConversationID, msg.Content); err != nil {
		// advisory cache only, the append already committed
		log.Printf("update conversation summary failed conversation=%s: %v", msg.ConversationID, err)
	}

	h.hub.Broadcast(msg.ConversationID, nil, models.RoomEvent{
		Type:      models.RoomEventReceiveMessage,
		Message:   msg.Content,
		Sender:    msg.SenderID,
		Timestamp: msg.CreatedAt.UnixMilli(),
		Payload:   &msg,
	})

	c.JSON(http.StatusCreated, msg)
}

// List returns a conversation's messages, oldest first.
func (h *MessageHandler) List(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	msgs, err := h.messageRepo.ListByConversation(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, msgs)
}
