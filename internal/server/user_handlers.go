package server

import (
	"minato/internal/models"
	"minato/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetByID(c.UserContext(), viewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, user)
}

// UpdateMyProfile handles PUT /api/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var input service.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), viewerID(c), input)
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, user)
}

// GetUserProfile handles GET /api/users/:username
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, user)
}

// SearchUsers handles GET /api/users/search
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	users, err := s.userService.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithList(c, users, len(users))
}

// FollowUser handles POST /api/follows/:username
func (s *Server) FollowUser(c *fiber.Ctx) error {
	if err := s.userService.Follow(c.UserContext(), viewerID(c), c.Params("username")); err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"following": true})
}

// UnfollowUser handles DELETE /api/follows/:username
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	if err := s.userService.Unfollow(c.UserContext(), viewerID(c), c.Params("username")); err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"following": false})
}

// GetFollowStatus handles GET /api/follows/:username
func (s *Server) GetFollowStatus(c *fiber.Ctx) error {
	following, err := s.userService.IsFollowing(c.UserContext(), viewerID(c), c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"following": following})
}

// GetFollowers handles GET /api/users/:username/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	users, err := s.userService.Followers(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithList(c, users, len(users))
}

// GetFollowing handles GET /api/users/:username/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	users, err := s.userService.Following(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithList(c, users, len(users))
}

// GetMyStats handles GET /api/me/stats
func (s *Server) GetMyStats(c *fiber.Ctx) error {
	stats, err := s.statsService.ForUser(c.UserContext(), viewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, stats)
}
