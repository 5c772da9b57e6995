package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEngagementService_Like_UnknownPostIsNotFound(t *testing.T) {
	posts := noopPostRepo()
	posts.createdAtFn = func(_ context.Context, _ string) (time.Time, error) {
		return time.Time{}, gorm.ErrRecordNotFound
	}
	svc := NewEngagementService(posts, noopLikeRepo(), noopRepostRepo())

	assertNotFoundError(t, svc.Like(context.Background(), "u1", "missing"))
	assertNotFoundError(t, svc.Repost(context.Background(), "u1", "missing"))
}

func TestEngagementService_Unlike_MissingRowIsNotFound(t *testing.T) {
	likes := noopLikeRepo()
	likes.unlikeFn = func(_ context.Context, _, _ string) error { return gorm.ErrRecordNotFound }
	svc := NewEngagementService(noopPostRepo(), likes, noopRepostRepo())

	assertNotFoundError(t, svc.Unlike(context.Background(), "u1", "p1"))
}

func TestEngagementService_Unrepost_MissingRowIsNotFound(t *testing.T) {
	reposts := noopRepostRepo()
	reposts.deleteFn = func(_ context.Context, _, _ string) error { return gorm.ErrRecordNotFound }
	svc := NewEngagementService(noopPostRepo(), noopLikeRepo(), reposts)

	assertNotFoundError(t, svc.Unrepost(context.Background(), "u1", "p1"))
}

func TestEngagementService_LikeAndRepost_PassThrough(t *testing.T) {
	var liked, reposted bool
	likes := noopLikeRepo()
	likes.likeFn = func(_ context.Context, userID, postID string) error {
		liked = userID == "u1" && postID == "p1"
		return nil
	}
	reposts := noopRepostRepo()
	reposts.createFn = func(_ context.Context, userID, postID string) error {
		reposted = userID == "u1" && postID == "p1"
		return nil
	}
	svc := NewEngagementService(noopPostRepo(), likes, reposts)

	require.NoError(t, svc.Like(context.Background(), "u1", "p1"))
	require.NoError(t, svc.Repost(context.Background(), "u1", "p1"))
	require.True(t, liked)
	require.True(t, reposted)
}
