package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/repositories"
)

// ConversationHandler manages conversation endpoints.
type ConversationHandler struct {
	conversationRepo repositories.ConversationRepository
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(conversationRepo repositories.ConversationRepository) *ConversationHandler {
	return &ConversationHandler{conversationRepo: conversationRepo}
}

// GetOrCreate returns the conversation between two users, creating it on
// first lookup. Both orderings of the pair resolve to the same conversation.
func (h *ConversationHandler) GetOrCreate(c *gin.Context) {
	userA := c.Param("user_a")
	userB := c.Param("user_b")

	conv, err := h.conversationRepo.GetOrCreateConversation(c.Request.Context(), userA, userB)
	if err != nil {
		if errors.Is(err, repositories.ErrSameUser) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversation requires two distinct users"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch conversation"})
		return
	}

	c.JSON(http.StatusOK, conv)
}
