package server

import (
	"minato/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetTags handles GET /api/tags
func (s *Server) GetTags(c *fiber.Ctx) error {
	tags, err := s.trendService.Tags(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithList(c, tags, len(tags))
}

// GetTrends handles GET /api/trends. The trend shortlist pairs the most
// tagged tags with the most purchased products.
func (s *Server) GetTrends(c *fiber.Ctx) error {
	tags, err := s.trendService.TrendingTags(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	products, err := s.productService.Trending(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{
		"tags":     tags,
		"products": products,
	})
}
