package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImpressionRepository defines the interface for daily view counter operations.
type ImpressionRepository interface {
	IncrementBatch(ctx context.Context, postIDs []string, dateKey string) error
	SumByDate(ctx context.Context, userID string) (map[string]int, error)
}

type impressionRepository struct {
	db *gorm.DB
}

// NewImpressionRepository creates a new impression repository.
func NewImpressionRepository(db *gorm.DB) ImpressionRepository {
	return &impressionRepository{db: db}
}

// IncrementBatch bumps the (post, date) counters for every post rendered on a
// page in a single multi-row upsert. Each rendered slot counts once, so a
// post appearing as both a post and a repost target on one page counts twice.
// Duplicate ids are collapsed into a single row with a larger increment since
// ON CONFLICT cannot touch the same row twice in one statement.
func (r *impressionRepository) IncrementBatch(ctx context.Context, postIDs []string, dateKey string) error {
	if len(postIDs) == 0 {
		return nil
	}

	counts := make(map[string]int, len(postIDs))
	order := make([]string, 0, len(postIDs))
	for _, id := range postIDs {
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}

	values := make([]string, 0, len(order))
	args := make([]interface{}, 0, len(order)*4)
	for _, id := range order {
		values = append(values, "(?, ?, ?, ?)")
		args = append(args, uuid.NewString(), id, dateKey, counts[id])
	}

	return r.db.WithContext(ctx).Exec(
		`INSERT INTO daily_post_impressions (id, post_id, date_key, impression)
		 VALUES `+strings.Join(values, ", ")+`
		 ON CONFLICT (post_id, date_key)
		 DO UPDATE SET impression = daily_post_impressions.impression + EXCLUDED.impression`,
		args...,
	).Error
}

type impressionSum struct {
	DateKey string
	Total   int
}

// SumByDate totals impressions per date key across every post the user owns.
func (r *impressionRepository) SumByDate(ctx context.Context, userID string) (map[string]int, error) {
	var sums []impressionSum
	err := r.db.WithContext(ctx).Raw(
		`SELECT daily_post_impressions.date_key AS date_key, SUM(daily_post_impressions.impression) AS total
		 FROM daily_post_impressions
		 JOIN posts ON posts.id = daily_post_impressions.post_id
		 WHERE posts.user_id = ?
		 GROUP BY daily_post_impressions.date_key`,
		userID,
	).Scan(&sums).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int, len(sums))
	for _, s := range sums {
		totals[s.DateKey] = s.Total
	}
	return totals, nil
}
