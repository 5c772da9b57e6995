package service

import (
	"context"

	"minato/internal/repository"

	"golang.org/x/sync/errgroup"
)

// UserStats aggregates a user's daily activity series, keyed by the same
// unpadded Y-M-D date keys the counters are written with.
type UserStats struct {
	Impressions  map[string]int `json:"impressions"`
	NewFollowers map[string]int `json:"new_followers"`
	Sales        map[string]int `json:"sales"`
}

// StatsService assembles the per-user dashboard series.
type StatsService interface {
	ForUser(ctx context.Context, userID string) (*UserStats, error)
}

type statsService struct {
	impressions repository.ImpressionRepository
	users       repository.UserRepository
	products    repository.ProductRepository
}

// NewStatsService creates a new stats service.
func NewStatsService(
	impressions repository.ImpressionRepository,
	users repository.UserRepository,
	products repository.ProductRepository,
) StatsService {
	return &statsService{impressions: impressions, users: users, products: products}
}

// ForUser fetches the three series in parallel; none depends on another.
func (s *statsService) ForUser(ctx context.Context, userID string) (*UserStats, error) {
	stats := &UserStats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		series, err := s.impressions.SumByDate(gctx, userID)
		stats.Impressions = series
		return err
	})
	g.Go(func() error {
		series, err := s.users.FollowerCountsByDate(gctx, userID)
		stats.NewFollowers = series
		return err
	})
	g.Go(func() error {
		series, err := s.products.SalesByDate(gctx, userID)
		stats.Sales = series
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
