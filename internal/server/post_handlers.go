package server

import (
	"minato/internal/models"
	"minato/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var input service.CreatePostInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.Create(c.UserContext(), viewerID(c), input)
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, post)
}

// CreateReply handles POST /api/posts/:postId/replies
func (s *Server) CreateReply(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	reply, err := s.postService.Reply(c.UserContext(), viewerID(c), c.Params("postId"), req.Content)
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, reply)
}

// GetPost handles GET /api/posts/:postId. Opening a post counts as one
// impression for it, same as a timeline slot.
func (s *Server) GetPost(c *fiber.Ctx) error {
	detail, err := s.postService.Get(c.UserContext(), c.Params("postId"), viewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	if s.recorder != nil {
		s.recorder.Record([]string{detail.Post.ID})
	}
	return models.RespondWithData(c, fiber.StatusOK, detail)
}

// GetReplies handles GET /api/posts/:postId/replies
func (s *Server) GetReplies(c *fiber.Ctx) error {
	detail, err := s.postService.Get(c.UserContext(), c.Params("postId"), viewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithList(c, detail.Replies, len(detail.Replies))
}

// GetQuotes handles GET /api/posts/:postId/quotes
func (s *Server) GetQuotes(c *fiber.Ctx) error {
	quotes, err := s.postService.Quotes(
		c.UserContext(),
		c.Params("postId"),
		viewerID(c),
		c.Query("before"),
		c.QueryBool("products"),
	)
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithList(c, quotes, len(quotes))
}

// GetUserPosts handles GET /api/users/:username/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ByUser(c.UserContext(), c.Params("username"), viewerID(c), c.Query("before"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithList(c, posts, len(posts))
}

// SearchPosts handles GET /api/posts/search
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	posts, err := s.postService.Search(
		c.UserContext(),
		c.Query("q"),
		viewerID(c),
		c.Query("before"),
		c.QueryBool("tags", true),
		c.QueryBool("products"),
	)
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithList(c, posts, len(posts))
}

// DeletePost handles DELETE /api/posts/:postId
func (s *Server) DeletePost(c *fiber.Ctx) error {
	if err := s.postService.Delete(c.UserContext(), viewerID(c), c.Params("postId")); err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
