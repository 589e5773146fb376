package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/repositories"
)

// NotificationHandler manages the notification feed endpoints. The feed is
// pull-based: clients poll these routes, nothing is pushed here.
type NotificationHandler struct {
	notificationRepo repositories.NotificationRepository
}

// NewNotificationHandler builds a NotificationHandler.
func NewNotificationHandler(notificationRepo repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepo: notificationRepo}
}

// List returns the authenticated user's feed, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.GetString("userID")

	notifications, err := h.notificationRepo.ListForRecipient(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// UnreadCount returns the number of unread notifications.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := c.GetString("userID")

	count, err := h.notificationRepo.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkAllRead flips the user's unread notifications in one bulk update.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.notificationRepo.MarkAllRead(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notifications as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notifications marked as read"})
}

// DeleteAll clears the user's feed.
func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.notificationRepo.DeleteAll(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notifications deleted"})
}

// CreateMessageNotification records an explicit message notification. The
// client decides when to notify; message persistence never does this
// implicitly.
func (h *NotificationHandler) CreateMessageNotification(c *gin.Context) {
	var req struct {
		To             string `json:"to" binding:"required"`
		ConversationID string `json:"conversation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	fromID := c.GetString("userID")
	notification, err := h.notificationRepo.Create(c.Request.Context(), models.NotificationMessage, fromID, req.To, req.ConversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrMissingConversation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversation id is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create notification"})
		return
	}

	observability.IncNotificationCreated(models.NotificationMessage)
	c.JSON(http.StatusCreated, notification)
}
