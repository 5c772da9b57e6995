// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"strings"
	"time"

	"minato/internal/cache"
	"minato/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, tagNames []string) error
	CreateReply(ctx context.Context, reply *models.Post) error
	GetByID(ctx context.Context, id string, viewerID string) (*models.Post, error)
	GetProjected(ctx context.Context, ids []string, viewerID string) (map[string]*models.Post, error)
	FeedCandidates(ctx context.Context, f models.FeedFilter, limit int) ([]*models.Post, error)
	Replies(ctx context.Context, postID string, viewerID string) ([]*models.Post, error)
	Quotes(ctx context.Context, quotedID string, viewerID string, before *time.Time, productsOnly bool, limit int) ([]*models.Post, error)
	ByUser(ctx context.Context, userID string, viewerID string, before *time.Time, limit int) ([]*models.Post, error)
	Search(ctx context.Context, words []string, viewerID string, before *time.Time, tagSearch bool, productsOnly bool, limit int) ([]*models.Post, error)
	CreatedAt(ctx context.Context, id string) (time.Time, error)
	Delete(ctx context.Context, post *models.Post) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// applyViewerDetails adds the per-viewer engagement flags as EXISTS
// subqueries so the result is bounded regardless of how popular a post is.
func applyViewerDetails(db *gorm.DB, viewerID string) *gorm.DB {
	if viewerID != "" {
		return db.Select(
			"posts.*, "+
				"EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS viewer_liked, "+
				"EXISTS(SELECT 1 FROM reposts WHERE reposts.post_id = posts.id AND reposts.user_id = ?) AS viewer_reposted",
			viewerID, viewerID,
		)
	}
	return db.Select("posts.*, false AS viewer_liked, false AS viewer_reposted")
}

// withRelations preloads the relations every projection needs.
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("post_images.position ASC")
		}).
		Preload("Tags").
		Preload("Product")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post, tagNames []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range tagNames {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			tag := models.Tag{Name: name}
			if err := tx.Where("name = ?", name).FirstOrCreate(&tag).Error; err != nil {
				return err
			}
			post.Tags = append(post.Tags, tag)
		}

		if err := tx.Create(post).Error; err != nil {
			return err
		}

		if post.QuotedID != nil {
			if err := tx.Model(&models.Post{}).Where("id = ?", *post.QuotedID).
				UpdateColumn("quote_count", gorm.Expr("quote_count + 1")).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		cache.InvalidateFeeds(ctx)
		if post.QuotedID != nil {
			cache.InvalidatePost(ctx, *post.QuotedID)
		}
	}
	return err
}

// CreateReply inserts a reply and bumps the parent's comment count in the
// same transaction.
func (r *postRepository) CreateReply(ctx context.Context, reply *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", *reply.RepliedID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err == nil {
		cache.InvalidatePost(ctx, *reply.RepliedID)
	}
	return err
}

func (r *postRepository) GetByID(ctx context.Context, id string, viewerID string) (*models.Post, error) {
	var post models.Post
	err := withRelations(applyViewerDetails(r.db.WithContext(ctx), viewerID)).
		Where("posts.is_active = true").
		First(&post, "posts.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetProjected batch-loads fully projected posts by id. Used for repost
// targets and quoted posts so a page never degenerates into per-item fetches.
func (r *postRepository) GetProjected(ctx context.Context, ids []string, viewerID string) (map[string]*models.Post, error) {
	byID := make(map[string]*models.Post, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	var posts []*models.Post
	err := withRelations(applyViewerDetails(r.db.WithContext(ctx), viewerID)).
		Where("posts.id IN ?", ids).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		byID[p.ID] = p
	}
	return byID, nil
}

func (r *postRepository) FeedCandidates(ctx context.Context, f models.FeedFilter, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	q := applyViewerDetails(r.db.WithContext(ctx), f.Viewer)
	q = feedScope(q, "posts", f)
	q = feedBound(q, "posts", f)
	err := withRelations(q).Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Replies(ctx context.Context, postID string, viewerID string) ([]*models.Post, error) {
	var replies []*models.Post
	err := withRelations(applyViewerDetails(r.db.WithContext(ctx), viewerID)).
		Where("posts.replied_id = ? AND posts.is_active = true", postID).
		Order("posts.created_at ASC, posts.id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	return replies, nil
}

func (r *postRepository) Quotes(ctx context.Context, quotedID string, viewerID string, before *time.Time, productsOnly bool, limit int) ([]*models.Post, error) {
	var quotes []*models.Post
	q := withRelations(applyViewerDetails(r.db.WithContext(ctx), viewerID)).
		Where("posts.quoted_id = ? AND posts.is_active = true", quotedID)
	if before != nil {
		q = q.Where("posts.created_at < ?", *before)
	}
	if productsOnly {
		q = q.Where("EXISTS (SELECT 1 FROM products WHERE products.post_id = posts.id)")
	}
	err := q.Order("posts.created_at DESC, posts.id ASC").Limit(limit).Find(&quotes).Error
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *postRepository) ByUser(ctx context.Context, userID string, viewerID string, before *time.Time, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	q := withRelations(applyViewerDetails(r.db.WithContext(ctx), viewerID)).
		Where("posts.user_id = ? AND posts.replied_id IS NULL AND posts.is_active = true", userID)
	if before != nil {
		q = q.Where("posts.created_at < ?", *before)
	}
	err := q.Order("posts.created_at DESC, posts.id ASC").Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Search matches every word (AND) against content, product name, or tag
// names (OR within a word), newest first.
func (r *postRepository) Search(ctx context.Context, words []string, viewerID string, before *time.Time, tagSearch bool, productsOnly bool, limit int) ([]*models.Post, error) {
	q := withRelations(applyViewerDetails(r.db.WithContext(ctx), viewerID)).
		Where("posts.replied_id IS NULL AND posts.is_active = true")

	for _, word := range words {
		if word == "" {
			continue
		}
		like := "%" + word + "%"
		clause := "posts.content ILIKE ? OR EXISTS (SELECT 1 FROM products WHERE products.post_id = posts.id AND products.name ILIKE ?)"
		args := []interface{}{like, like}
		if tagSearch {
			clause += " OR EXISTS (SELECT 1 FROM post_tags JOIN tags ON tags.id = post_tags.tag_id WHERE post_tags.post_id = posts.id AND tags.name ILIKE ?)"
			args = append(args, like)
		}
		q = q.Where(clause, args...)
	}
	if productsOnly {
		q = q.Where("EXISTS (SELECT 1 FROM products WHERE products.post_id = posts.id)")
	}
	if before != nil {
		q = q.Where("posts.created_at < ?", *before)
	}

	var posts []*models.Post
	err := q.Order("posts.created_at DESC, posts.id ASC").Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatedAt resolves a post id to its creation timestamp for cursor anchoring.
func (r *postRepository) CreatedAt(ctx context.Context, id string) (time.Time, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Select("id", "created_at").First(&post, "id = ?", id).Error
	if err != nil {
		return time.Time{}, err
	}
	return post.CreatedAt, nil
}

// Delete removes a post and unwinds the counters it contributed to. A reply
// decrements its parent's comment count; a quote decrements the quoted
// post's quote count.
func (r *postRepository) Delete(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if post.RepliedID != nil {
			if err := tx.Model(&models.Post{}).Where("id = ? AND comment_count > 0", *post.RepliedID).
				UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error; err != nil {
				return err
			}
		}
		if post.QuotedID != nil {
			if err := tx.Model(&models.Post{}).Where("id = ? AND quote_count > 0", *post.QuotedID).
				UpdateColumn("quote_count", gorm.Expr("quote_count - 1")).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Post{}, "id = ?", post.ID).Error
	})
	if err == nil {
		cache.InvalidatePost(ctx, post.ID)
		cache.InvalidateFeeds(ctx)
	}
	return err
}
