package repository

import (
	"context"
	"time"

	"minato/internal/cache"
	"minato/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RepostRepository defines the interface for repost data operations.
type RepostRepository interface {
	FeedCandidates(ctx context.Context, f models.FeedFilter, limit int) ([]*models.Repost, error)
	Create(ctx context.Context, userID, postID string) error
	Delete(ctx context.Context, userID, postID string) error
	CreatedAt(ctx context.Context, id string) (time.Time, error)
}

type repostRepository struct {
	db *gorm.DB
}

// NewRepostRepository creates a new repost repository.
func NewRepostRepository(db *gorm.DB) RepostRepository {
	return &repostRepository{db: db}
}

// FeedCandidates fetches reposts whose *target post* satisfies the page's
// content predicates and whose own created_at satisfies the cursor bound.
// The same feedScope used for the posts query runs against the join alias.
func (r *repostRepository) FeedCandidates(ctx context.Context, f models.FeedFilter, limit int) ([]*models.Repost, error) {
	var reposts []*models.Repost
	q := r.db.WithContext(ctx).Model(&models.Repost{}).
		Select("reposts.*").
		Joins("JOIN posts AS targets ON targets.id = reposts.post_id")
	q = feedScope(q, "targets", f)
	q = feedBound(q, "reposts", f)
	err := q.Limit(limit).Preload("User").Find(&reposts).Error
	if err != nil {
		return nil, err
	}
	return reposts, nil
}

// Create inserts the repost and bumps the target's ref count in one
// transaction. The (user, post) unique index is handled with ON CONFLICT DO
// NOTHING so a double-tap cannot double-count.
func (r *repostRepository) Create(ctx context.Context, userID, postID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`INSERT INTO reposts (id, user_id, post_id, created_at)
			 VALUES (?, ?, ?, NOW())
			 ON CONFLICT (user_id, post_id) DO NOTHING`,
			uuid.NewString(), userID, postID,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("ref_count", gorm.Expr("ref_count + 1")).Error
	})
	if err == nil {
		cache.InvalidatePost(ctx, postID)
		cache.InvalidateFeeds(ctx)
	}
	return err
}

func (r *repostRepository) Delete(ctx context.Context, userID, postID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Repost{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Post{}).Where("id = ? AND ref_count > 0", postID).
			UpdateColumn("ref_count", gorm.Expr("ref_count - 1")).Error
	})
	if err == nil {
		cache.InvalidatePost(ctx, postID)
		cache.InvalidateFeeds(ctx)
	}
	return err
}

// CreatedAt resolves a repost id to its creation timestamp for cursor anchoring.
func (r *repostRepository) CreatedAt(ctx context.Context, id string) (time.Time, error) {
	var repost models.Repost
	err := r.db.WithContext(ctx).Select("id", "created_at").First(&repost, "id = ?", id).Error
	if err != nil {
		return time.Time{}, err
	}
	return repost.CreatedAt, nil
}
