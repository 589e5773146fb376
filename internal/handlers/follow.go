package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"social-service/internal/cache"
	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
)

// FollowHandler manages the follow graph endpoints.
type FollowHandler struct {
	followRepo       repositories.FollowRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	idCache          cache.Cache
	audit            *telemetry.AuditEmitter
	cacheTTL         time.Duration
}

// NewFollowHandler builds a FollowHandler.
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, notificationRepo repositories.NotificationRepository, idCache cache.Cache, audit *telemetry.AuditEmitter, cacheTTL time.Duration) *FollowHandler {
	return &FollowHandler{
		followRepo:       followRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		idCache:          idCache,
		audit:            audit,
		cacheTTL:         cacheTTL,
	}
}

// Toggle follows the target when not yet followed, unfollows otherwise,
// and reports the new state. A follow emits one notification to the
// target; an unfollow emits none.
func (h *FollowHandler) Toggle(c *gin.Context) {
	targetID := c.Param("id")
	actorID := c.GetString("userID")

	following, err := h.followRepo.ToggleFollow(c.Request.Context(), actorID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSelfFollow):
			c.JSON(http.StatusBadRequest, gin.H{"error": "you can't follow yourself"})
		case errors.Is(err, repositories.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.Printf("follow toggle failed actor=%s target=%s: %v", actorID, targetID, err)
			h.audit.Emit(c.Request.Context(), "ERROR",
				fmt.Sprintf("follow toggle failed actor=%s target=%s: %v", actorID, targetID, err),
				requestIDFromContext(c), userIDFromContext(c))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update follow state"})
		}
		return
	}

	action := "unfollow"
	if following {
		action = "follow"
	}
	observability.IncFollowToggle(action)
	h.idCache.Invalidate(c.Request.Context(), cache.FollowersKey(targetID), cache.FollowingKey(actorID))

	if following {
		if _, err := h.notificationRepo.Create(c.Request.Context(), models.NotificationFollow, actorID, targetID, ""); err != nil {
			log.Printf("follow notification failed actor=%s target=%s: %v", actorID, targetID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create notification"})
			return
		}
		observability.IncNotificationCreated(models.NotificationFollow)
	}

	followerIDs, err := h.followRepo.ListFollowerIDs(c.Request.Context(), targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load followers"})
		return
	}
	followingIDs, err := h.followRepo.ListFollowingIDs(c.Request.Context(), actorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load following"})
		return
	}

	message := "user unfollowed successfully"
	if following {
		message = "user followed successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     message,
		"isFollowing": following,
		"user": gin.H{
			"id":             targetID,
			"followers":      followerIDs,
			"follower_count": len(followerIDs),
		},
		"currentUser": gin.H{
			"id":              actorID,
			"following":       followingIDs,
			"following_count": len(followingIDs),
		},
	})
}

// Followers lists ids of users following the given user.
func (h *FollowHandler) Followers(c *gin.Context) {
	h.listEdges(c, cache.FollowersKey(c.Param("id")), h.followRepo.ListFollowerIDs)
}

// Following lists ids of users the given user follows.
func (h *FollowHandler) Following(c *gin.Context) {
	h.listEdges(c, cache.FollowingKey(c.Param("id")), h.followRepo.ListFollowingIDs)
}

// Profile returns a user looked up by username together with the id lists
// backing the follower and following counts.
func (h *FollowHandler) Profile(c *gin.Context) {
	username := c.Param("username")

	user, err := h.userRepo.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	followerIDs, err := h.followRepo.ListFollowerIDs(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load followers"})
		return
	}
	followingIDs, err := h.followRepo.ListFollowingIDs(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load following"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      user,
		"followers": followerIDs,
		"following": followingIDs,
	})
}

func (h *FollowHandler) listEdges(c *gin.Context, key string, list func(ctx context.Context, userID string) ([]string, error)) {
	userID := c.Param("id")

	if _, err := h.userRepo.GetUser(c.Request.Context(), userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	if ids, ok := h.idCache.GetIDs(c.Request.Context(), key); ok {
		c.JSON(http.StatusOK, ids)
		return
	}

	ids, err := list(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load follow graph"})
		return
	}

	h.idCache.SetIDs(c.Request.Context(), key, ids, h.cacheTTL)
	c.JSON(http.StatusOK, ids)
}
