package service

import (
	"context"

	"minato/internal/models"
	"minato/internal/repository"

	"gorm.io/gorm"
)

// EngagementService handles likes and reposts. Both are idempotent on the
// write side; the unlike/unrepost side reports missing rows as not found.
type EngagementService interface {
	Like(ctx context.Context, userID, postID string) error
	Unlike(ctx context.Context, userID, postID string) error
	Repost(ctx context.Context, userID, postID string) error
	Unrepost(ctx context.Context, userID, postID string) error
}

type engagementService struct {
	posts   repository.PostRepository
	likes   repository.LikeRepository
	reposts repository.RepostRepository
}

// NewEngagementService creates a new engagement service.
func NewEngagementService(posts repository.PostRepository, likes repository.LikeRepository, reposts repository.RepostRepository) EngagementService {
	return &engagementService{posts: posts, likes: likes, reposts: reposts}
}

func (s *engagementService) Like(ctx context.Context, userID, postID string) error {
	if err := s.ensurePost(ctx, postID); err != nil {
		return err
	}
	return s.likes.Like(ctx, userID, postID)
}

func (s *engagementService) Unlike(ctx context.Context, userID, postID string) error {
	err := s.likes.Unlike(ctx, userID, postID)
	if err == gorm.ErrRecordNotFound {
		return models.NewNotFoundError("like", postID)
	}
	return err
}

func (s *engagementService) Repost(ctx context.Context, userID, postID string) error {
	if err := s.ensurePost(ctx, postID); err != nil {
		return err
	}
	return s.reposts.Create(ctx, userID, postID)
}

func (s *engagementService) Unrepost(ctx context.Context, userID, postID string) error {
	err := s.reposts.Delete(ctx, userID, postID)
	if err == gorm.ErrRecordNotFound {
		return models.NewNotFoundError("repost", postID)
	}
	return err
}

func (s *engagementService) ensurePost(ctx context.Context, postID string) error {
	if _, err := s.posts.CreatedAt(ctx, postID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.NewNotFoundError("post", postID)
		}
		return err
	}
	return nil
}
