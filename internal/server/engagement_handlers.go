package server

import (
	"minato/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LikePost handles POST /api/posts/:postId/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	if err := s.engagementService.Like(c.UserContext(), viewerID(c), c.Params("postId")); err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"liked": true})
}

// UnlikePost handles DELETE /api/posts/:postId/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	if err := s.engagementService.Unlike(c.UserContext(), viewerID(c), c.Params("postId")); err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"liked": false})
}

// RepostPost handles POST /api/posts/:postId/repost
func (s *Server) RepostPost(c *fiber.Ctx) error {
	if err := s.engagementService.Repost(c.UserContext(), viewerID(c), c.Params("postId")); err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"reposted": true})
}

// UnrepostPost handles DELETE /api/posts/:postId/repost
func (s *Server) UnrepostPost(c *fiber.Ctx) error {
	if err := s.engagementService.Unrepost(c.UserContext(), viewerID(c), c.Params("postId")); err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"reposted": false})
}
