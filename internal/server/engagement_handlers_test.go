package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"minato/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEngagementService is a mock of the service.EngagementService interface
type MockEngagementService struct {
	mock.Mock
}

func (m *MockEngagementService) Like(ctx context.Context, userID, postID string) error {
	args := m.Called(ctx, userID, postID)
	return args.Error(0)
}

func (m *MockEngagementService) Unlike(ctx context.Context, userID, postID string) error {
	args := m.Called(ctx, userID, postID)
	return args.Error(0)
}

func (m *MockEngagementService) Repost(ctx context.Context, userID, postID string) error {
	args := m.Called(ctx, userID, postID)
	return args.Error(0)
}

func (m *MockEngagementService) Unrepost(ctx context.Context, userID, postID string) error {
	args := m.Called(ctx, userID, postID)
	return args.Error(0)
}

func engagementApp(s *Server) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("viewerID", "u1")
		return c.Next()
	})
	posts := app.Group("/api/posts", s.AuthRequired())
	posts.Post("/:postId/like", s.LikePost)
	posts.Delete("/:postId/like", s.UnlikePost)
	posts.Post("/:postId/repost", s.RepostPost)
	posts.Delete("/:postId/repost", s.UnrepostPost)
	return app
}

func TestLikePost(t *testing.T) {
	mockSvc := new(MockEngagementService)
	s := &Server{config: testConfig(), engagementService: mockSvc}
	app := engagementApp(s)

	mockSvc.On("Like", mock.Anything, "u1", "p1").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/posts/p1/like", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Liked bool `json:"liked"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.True(t, body.Data.Liked)
	mockSvc.AssertExpectations(t)
}

func TestLikePost_UnknownPost(t *testing.T) {
	mockSvc := new(MockEngagementService)
	s := &Server{config: testConfig(), engagementService: mockSvc}
	app := engagementApp(s)

	mockSvc.On("Like", mock.Anything, "u1", "nope").
		Return(models.NewNotFoundError("post", "nope"))

	req := httptest.NewRequest(http.MethodPost, "/api/posts/nope/like", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnrepostPost_MissingRepost(t *testing.T) {
	mockSvc := new(MockEngagementService)
	s := &Server{config: testConfig(), engagementService: mockSvc}
	app := engagementApp(s)

	mockSvc.On("Unrepost", mock.Anything, "u1", "p1").
		Return(models.NewNotFoundError("repost", "p1"))

	req := httptest.NewRequest(http.MethodDelete, "/api/posts/p1/repost", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRepostPost(t *testing.T) {
	mockSvc := new(MockEngagementService)
	s := &Server{config: testConfig(), engagementService: mockSvc}
	app := engagementApp(s)

	mockSvc.On("Repost", mock.Anything, "u1", "p1").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/posts/p1/repost", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Reposted bool `json:"reposted"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Data.Reposted)
	mockSvc.AssertExpectations(t)
}

func TestEngagement_RequiresAuth(t *testing.T) {
	s := &Server{config: testConfig(), engagementService: new(MockEngagementService)}

	// No viewer middleware: the guard rejects before the service is touched.
	app := fiber.New()
	posts := app.Group("/api/posts", s.AuthRequired())
	posts.Post("/:postId/like", s.LikePost)

	req := httptest.NewRequest(http.MethodPost, "/api/posts/p1/like", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
}
