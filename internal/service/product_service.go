package service

import (
	"context"

	"minato/internal/models"
	"minato/internal/repository"

	"gorm.io/gorm"
)

// ProductView is a product with its derived snapshot fields attached.
type ProductView struct {
	*models.Product
	CurrentPrice  *int     `json:"current_price,omitempty"`
	AverageRating *float64 `json:"average_rating,omitempty"`
	RatingCount   int      `json:"rating_count"`
}

// ProductService handles marketplace listings, pricing, and ratings.
type ProductService interface {
	List(ctx context.Context) ([]*ProductView, error)
	Get(ctx context.Context, id string) (*ProductView, error)
	ChangePrice(ctx context.Context, userID, productID string, price int) error
	Rate(ctx context.Context, userID, productID string, value int) error
	Trending(ctx context.Context) ([]*ProductView, error)
}

type productService struct {
	products repository.ProductRepository
	posts    repository.PostRepository
}

// NewProductService creates a new product service.
func NewProductService(products repository.ProductRepository, posts repository.PostRepository) ProductService {
	return &productService{products: products, posts: posts}
}

func (s *productService) List(ctx context.Context) ([]*ProductView, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.withSnapshots(ctx, products)
}

func (s *productService) Get(ctx context.Context, id string) (*ProductView, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("product", id)
		}
		return nil, err
	}
	views, err := s.withSnapshots(ctx, []*models.Product{product})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ChangePrice appends a new price row. Only the seller may reprice, and a
// live release has no price to change.
func (s *productService) ChangePrice(ctx context.Context, userID, productID string, price int) error {
	if price < 0 {
		return models.NewValidationError("price must not be negative")
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.NewNotFoundError("product", productID)
		}
		return err
	}
	if product.LiveRelease {
		return models.NewValidationError("live releases are not priced")
	}
	post, err := s.posts.GetByID(ctx, product.PostID, "")
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewUnauthorizedError("not the seller")
	}
	_, err = s.products.AppendPrice(ctx, productID, price)
	return err
}

// Rate upserts the caller's 1-5 rating. Sellers cannot rate their own listing.
func (s *productService) Rate(ctx context.Context, userID, productID string, value int) error {
	if value < 1 || value > 5 {
		return models.NewValidationError("rating must be between 1 and 5")
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.NewNotFoundError("product", productID)
		}
		return err
	}
	post, err := s.posts.GetByID(ctx, product.PostID, "")
	if err != nil {
		return err
	}
	if post.UserID == userID {
		return models.NewValidationError("cannot rate your own product")
	}
	return s.products.UpsertRating(ctx, productID, userID, value)
}

const trendingProductLimit = 3

func (s *productService) Trending(ctx context.Context) ([]*ProductView, error) {
	products, err := s.products.Trending(ctx, trendingProductLimit)
	if err != nil {
		return nil, err
	}
	return s.withSnapshots(ctx, products)
}

func (s *productService) withSnapshots(ctx context.Context, products []*models.Product) ([]*ProductView, error) {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	snapshots, err := s.products.Snapshots(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*ProductView, 0, len(products))
	for _, p := range products {
		view := &ProductView{Product: p}
		if snap, ok := snapshots[p.ID]; ok {
			view.CurrentPrice = snap.CurrentPrice
			view.AverageRating = snap.AverageRating
			view.RatingCount = snap.RatingCount
		}
		views = append(views, view)
	}
	return views, nil
}
