package service

import (
	"context"

	"minato/internal/models"
	"minato/internal/repository"
)

const trendingTagLimit = 3

// TrendService exposes tag listings and the trending shortlist.
type TrendService interface {
	Tags(ctx context.Context) ([]*models.Tag, error)
	TrendingTags(ctx context.Context) ([]*models.Tag, error)
}

type trendService struct {
	tags repository.TagRepository
}

// NewTrendService creates a new trend service.
func NewTrendService(tags repository.TagRepository) TrendService {
	return &trendService{tags: tags}
}

func (s *trendService) Tags(ctx context.Context) ([]*models.Tag, error) {
	return s.tags.List(ctx)
}

func (s *trendService) TrendingTags(ctx context.Context) ([]*models.Tag, error) {
	return s.tags.Trending(ctx, trendingTagLimit)
}
