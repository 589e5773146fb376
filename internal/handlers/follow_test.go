package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-service/internal/cache"
	"social-service/internal/mocks"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

func setupFollowRouter(handler *FollowHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "alice")
		c.Next()
	})
	r.POST("/users/follow/:id", handler.Toggle)
	r.GET("/users/:id/followers", handler.Followers)
	r.GET("/users/:id/following", handler.Following)
	r.GET("/users/profile/:username", handler.Profile)
	return r
}

func newFollowHandler(followRepo *mocks.FollowRepositoryMock, userRepo *mocks.UserRepositoryMock, notificationRepo *mocks.NotificationRepositoryMock) *FollowHandler {
	return NewFollowHandler(followRepo, userRepo, notificationRepo, cache.NewNoop(), nil, time.Minute)
}

func TestToggleFollowCreatesNotification(t *testing.T) {
	followRepo := new(mocks.FollowRepositoryMock)
	notificationRepo := new(mocks.NotificationRepositoryMock)
	handler := newFollowHandler(followRepo, new(mocks.UserRepositoryMock), notificationRepo)
	router := setupFollowRouter(handler)

	followRepo.On("ToggleFollow", mock.Anything, "alice", "bob").Return(true, nil).Once()
	notificationRepo.On("Create", mock.Anything, models.NotificationFollow, "alice", "bob", "").
		Return(models.Notification{ID: "n-1", Type: models.NotificationFollow}, nil).Once()
	followRepo.On("ListFollowerIDs", mock.Anything, "bob").Return([]string{"alice"}, nil).Once()
	followRepo.On("ListFollowingIDs", mock.Anything, "alice").Return([]string{"bob"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/users/follow/bob", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, true, resp["isFollowing"])
	followRepo.AssertExpectations(t)
	notificationRepo.AssertExpectations(t)
}

func TestToggleUnfollowSkipsNotification(t *testing.T) {
	followRepo := new(mocks.FollowRepositoryMock)
	notificationRepo := new(mocks.NotificationRepositoryMock)
	handler := newFollowHandler(followRepo, new(mocks.UserRepositoryMock), notificationRepo)
	router := setupFollowRouter(handler)

	followRepo.On("ToggleFollow", mock.Anything, "alice", "bob").Return(false, nil).Once()
	followRepo.On("ListFollowerIDs", mock.Anything, "bob").Return([]string{}, nil).Once()
	followRepo.On("ListFollowingIDs", mock.Anything, "alice").Return([]string{}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/users/follow/bob", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, false, resp["isFollowing"])
	notificationRepo.AssertNotCalled(t, "Create")
	followRepo.AssertExpectations(t)
}

func TestToggleSelfFollow(t *testing.T) {
	followRepo := new(mocks.FollowRepositoryMock)
	handler := newFollowHandler(followRepo, new(mocks.UserRepositoryMock), new(mocks.NotificationRepositoryMock))
	router := setupFollowRouter(handler)

	followRepo.On("ToggleFollow", mock.Anything, "alice", "alice").Return(false, repositories.ErrSelfFollow).Once()

	req := httptest.NewRequest(http.MethodPost, "/users/follow/alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	followRepo.AssertExpectations(t)
}

func TestToggleUnknownUser(t *testing.T) {
	followRepo := new(mocks.FollowRepositoryMock)
	handler := newFollowHandler(followRepo, new(mocks.UserRepositoryMock), new(mocks.NotificationRepositoryMock))
	router := setupFollowRouter(handler)

	followRepo.On("ToggleFollow", mock.Anything, "alice", "ghost").Return(false, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/users/follow/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	followRepo.AssertExpectations(t)
}

func TestListFollowersSuccess(t *testing.T) {
	followRepo := new(mocks.FollowRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := newFollowHandler(followRepo, userRepo, new(mocks.NotificationRepositoryMock))
	router := setupFollowRouter(handler)

	userRepo.On("GetUser", mock.Anything, "bob").Return(models.User{ID: "bob"}, nil).Once()
	followRepo.On("ListFollowerIDs", mock.Anything, "bob").Return([]string{"alice", "carol"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/bob/followers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["alice","carol"]`, rec.Body.String())
	followRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestListFollowingUnknownUser(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := newFollowHandler(new(mocks.FollowRepositoryMock), userRepo, new(mocks.NotificationRepositoryMock))
	router := setupFollowRouter(handler)

	userRepo.On("GetUser", mock.Anything, "ghost").Return(models.User{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/ghost/following", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestProfileSuccess(t *testing.T) {
	followRepo := new(mocks.FollowRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := newFollowHandler(followRepo, userRepo, new(mocks.NotificationRepositoryMock))
	router := setupFollowRouter(handler)

	userRepo.On("GetUserByUsername", mock.Anything, "bob").Return(models.User{ID: "u-2", Username: "bob"}, nil).Once()
	followRepo.On("ListFollowerIDs", mock.Anything, "u-2").Return([]string{"alice"}, nil).Once()
	followRepo.On("ListFollowingIDs", mock.Anything, "u-2").Return([]string{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/profile/bob", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp, "user")
	assert.Contains(t, resp, "followers")
	followRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestProfileUnknownUser(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := newFollowHandler(new(mocks.FollowRepositoryMock), userRepo, new(mocks.NotificationRepositoryMock))
	router := setupFollowRouter(handler)

	userRepo.On("GetUserByUsername", mock.Anything, "ghost").Return(models.User{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/profile/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	userRepo.AssertExpectations(t)
}
