package server

import (
	"minato/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetProducts handles GET /api/products
func (s *Server) GetProducts(c *fiber.Ctx) error {
	products, err := s.productService.List(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithList(c, products, len(products))
}

// GetProduct handles GET /api/products/:productId
func (s *Server) GetProduct(c *fiber.Ctx) error {
	product, err := s.productService.Get(c.UserContext(), c.Params("productId"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, product)
}

// ChangeProductPrice handles POST /api/products/:productId/price
func (s *Server) ChangeProductPrice(c *fiber.Ctx) error {
	var req struct {
		Price *int `json:"price"`
	}
	if err := c.BodyParser(&req); err != nil || req.Price == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("price is required"))
	}

	err := s.productService.ChangePrice(c.UserContext(), viewerID(c), c.Params("productId"), *req.Price)
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"price": *req.Price})
}

// RateProduct handles PUT /api/products/:productId/rating
func (s *Server) RateProduct(c *fiber.Ctx) error {
	var req struct {
		Value int `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	err := s.productService.Rate(c.UserContext(), viewerID(c), c.Params("productId"), req.Value)
	if err != nil {
		return respondServiceError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"value": req.Value})
}
