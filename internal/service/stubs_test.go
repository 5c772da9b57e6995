package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"minato/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn         func(context.Context, *models.Post, []string) error
	createReplyFn    func(context.Context, *models.Post) error
	getByIDFn        func(context.Context, string, string) (*models.Post, error)
	getProjectedFn   func(context.Context, []string, string) (map[string]*models.Post, error)
	feedCandidatesFn func(context.Context, models.FeedFilter, int) ([]*models.Post, error)
	repliesFn        func(context.Context, string, string) ([]*models.Post, error)
	quotesFn         func(context.Context, string, string, *time.Time, bool, int) ([]*models.Post, error)
	byUserFn         func(context.Context, string, string, *time.Time, int) ([]*models.Post, error)
	searchFn         func(context.Context, []string, string, *time.Time, bool, bool, int) ([]*models.Post, error)
	createdAtFn      func(context.Context, string) (time.Time, error)
	deleteFn         func(context.Context, *models.Post) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post, tags []string) error {
	return s.createFn(ctx, post, tags)
}
func (s *postRepoStub) CreateReply(ctx context.Context, reply *models.Post) error {
	return s.createReplyFn(ctx, reply)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID string) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) GetProjected(ctx context.Context, ids []string, viewerID string) (map[string]*models.Post, error) {
	return s.getProjectedFn(ctx, ids, viewerID)
}
func (s *postRepoStub) FeedCandidates(ctx context.Context, f models.FeedFilter, limit int) ([]*models.Post, error) {
	return s.feedCandidatesFn(ctx, f, limit)
}
func (s *postRepoStub) Replies(ctx context.Context, postID, viewerID string) ([]*models.Post, error) {
	return s.repliesFn(ctx, postID, viewerID)
}
func (s *postRepoStub) Quotes(ctx context.Context, quotedID, viewerID string, before *time.Time, productsOnly bool, limit int) ([]*models.Post, error) {
	return s.quotesFn(ctx, quotedID, viewerID, before, productsOnly, limit)
}
func (s *postRepoStub) ByUser(ctx context.Context, userID, viewerID string, before *time.Time, limit int) ([]*models.Post, error) {
	return s.byUserFn(ctx, userID, viewerID, before, limit)
}
func (s *postRepoStub) Search(ctx context.Context, words []string, viewerID string, before *time.Time, tagSearch, productsOnly bool, limit int) ([]*models.Post, error) {
	return s.searchFn(ctx, words, viewerID, before, tagSearch, productsOnly, limit)
}
func (s *postRepoStub) CreatedAt(ctx context.Context, id string) (time.Time, error) {
	return s.createdAtFn(ctx, id)
}
func (s *postRepoStub) Delete(ctx context.Context, post *models.Post) error {
	return s.deleteFn(ctx, post)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:      func(_ context.Context, _ *models.Post, _ []string) error { return nil },
		createReplyFn: func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id, _ string) (*models.Post, error) {
			return &models.Post{ID: id}, nil
		},
		getProjectedFn: func(_ context.Context, _ []string, _ string) (map[string]*models.Post, error) {
			return map[string]*models.Post{}, nil
		},
		feedCandidatesFn: func(_ context.Context, _ models.FeedFilter, _ int) ([]*models.Post, error) {
			return nil, nil
		},
		repliesFn: func(_ context.Context, _, _ string) ([]*models.Post, error) { return nil, nil },
		quotesFn: func(_ context.Context, _, _ string, _ *time.Time, _ bool, _ int) ([]*models.Post, error) {
			return nil, nil
		},
		byUserFn: func(_ context.Context, _, _ string, _ *time.Time, _ int) ([]*models.Post, error) {
			return nil, nil
		},
		searchFn: func(_ context.Context, _ []string, _ string, _ *time.Time, _, _ bool, _ int) ([]*models.Post, error) {
			return nil, nil
		},
		createdAtFn: func(_ context.Context, _ string) (time.Time, error) { return time.Time{}, nil },
		deleteFn:    func(_ context.Context, _ *models.Post) error { return nil },
	}
}

// repostRepoStub is a stub for repository.RepostRepository.
type repostRepoStub struct {
	feedCandidatesFn func(context.Context, models.FeedFilter, int) ([]*models.Repost, error)
	createFn         func(context.Context, string, string) error
	deleteFn         func(context.Context, string, string) error
	createdAtFn      func(context.Context, string) (time.Time, error)
}

func (s *repostRepoStub) FeedCandidates(ctx context.Context, f models.FeedFilter, limit int) ([]*models.Repost, error) {
	return s.feedCandidatesFn(ctx, f, limit)
}
func (s *repostRepoStub) Create(ctx context.Context, userID, postID string) error {
	return s.createFn(ctx, userID, postID)
}
func (s *repostRepoStub) Delete(ctx context.Context, userID, postID string) error {
	return s.deleteFn(ctx, userID, postID)
}
func (s *repostRepoStub) CreatedAt(ctx context.Context, id string) (time.Time, error) {
	return s.createdAtFn(ctx, id)
}

func noopRepostRepo() *repostRepoStub {
	return &repostRepoStub{
		feedCandidatesFn: func(_ context.Context, _ models.FeedFilter, _ int) ([]*models.Repost, error) {
			return nil, nil
		},
		createFn: func(_ context.Context, _, _ string) error { return nil },
		deleteFn: func(_ context.Context, _, _ string) error { return nil },
		createdAtFn: func(_ context.Context, _ string) (time.Time, error) {
			return time.Time{}, gorm.ErrRecordNotFound
		},
	}
}

// productRepoStub is a stub for repository.ProductRepository.
type productRepoStub struct {
	listFn         func(context.Context) ([]*models.Product, error)
	getByIDFn      func(context.Context, string) (*models.Product, error)
	snapshotsFn    func(context.Context, []string) (map[string]*models.ProductSnapshot, error)
	appendPriceFn  func(context.Context, string, int) (*models.PriceHistory, error)
	upsertRatingFn func(context.Context, string, string, int) error
	trendingFn     func(context.Context, int) ([]*models.Product, error)
	salesByDateFn  func(context.Context, string) (map[string]int, error)
}

func (s *productRepoStub) List(ctx context.Context) ([]*models.Product, error) {
	return s.listFn(ctx)
}
func (s *productRepoStub) GetByID(ctx context.Context, id string) (*models.Product, error) {
	return s.getByIDFn(ctx, id)
}
func (s *productRepoStub) Snapshots(ctx context.Context, ids []string) (map[string]*models.ProductSnapshot, error) {
	return s.snapshotsFn(ctx, ids)
}
func (s *productRepoStub) AppendPrice(ctx context.Context, productID string, price int) (*models.PriceHistory, error) {
	return s.appendPriceFn(ctx, productID, price)
}
func (s *productRepoStub) UpsertRating(ctx context.Context, productID, userID string, value int) error {
	return s.upsertRatingFn(ctx, productID, userID, value)
}
func (s *productRepoStub) Trending(ctx context.Context, limit int) ([]*models.Product, error) {
	return s.trendingFn(ctx, limit)
}
func (s *productRepoStub) SalesByDate(ctx context.Context, sellerID string) (map[string]int, error) {
	return s.salesByDateFn(ctx, sellerID)
}

func noopProductRepo() *productRepoStub {
	return &productRepoStub{
		listFn:    func(_ context.Context) ([]*models.Product, error) { return nil, nil },
		getByIDFn: func(_ context.Context, id string) (*models.Product, error) { return &models.Product{ID: id}, nil },
		snapshotsFn: func(_ context.Context, _ []string) (map[string]*models.ProductSnapshot, error) {
			return map[string]*models.ProductSnapshot{}, nil
		},
		appendPriceFn: func(_ context.Context, productID string, price int) (*models.PriceHistory, error) {
			return &models.PriceHistory{ProductID: productID, Price: price}, nil
		},
		upsertRatingFn: func(_ context.Context, _, _ string, _ int) error { return nil },
		trendingFn:     func(_ context.Context, _ int) ([]*models.Product, error) { return nil, nil },
		salesByDateFn:  func(_ context.Context, _ string) (map[string]int, error) { return map[string]int{}, nil },
	}
}

// impressionRepoStub is a stub for repository.ImpressionRepository.
type impressionRepoStub struct {
	incrementBatchFn func(context.Context, []string, string) error
	sumByDateFn      func(context.Context, string) (map[string]int, error)
}

func (s *impressionRepoStub) IncrementBatch(ctx context.Context, postIDs []string, dateKey string) error {
	return s.incrementBatchFn(ctx, postIDs, dateKey)
}
func (s *impressionRepoStub) SumByDate(ctx context.Context, userID string) (map[string]int, error) {
	return s.sumByDateFn(ctx, userID)
}

func noopImpressionRepo() *impressionRepoStub {
	return &impressionRepoStub{
		incrementBatchFn: func(_ context.Context, _ []string, _ string) error { return nil },
		sumByDateFn:      func(_ context.Context, _ string) (map[string]int, error) { return map[string]int{}, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn               func(context.Context, *models.User) error
	getByIDFn              func(context.Context, string) (*models.User, error)
	getByUsernameFn        func(context.Context, string) (*models.User, error)
	updateFn               func(context.Context, *models.User) error
	searchFn               func(context.Context, []string, int) ([]*models.User, error)
	followFn               func(context.Context, *models.Follow) error
	unfollowFn             func(context.Context, string, string) error
	isFollowingFn          func(context.Context, string, string) (bool, error)
	followersFn            func(context.Context, string) ([]*models.User, error)
	followingFn            func(context.Context, string) ([]*models.User, error)
	followerCountsByDateFn func(context.Context, string) (map[string]int, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Search(ctx context.Context, words []string, limit int) ([]*models.User, error) {
	return s.searchFn(ctx, words, limit)
}
func (s *userRepoStub) Follow(ctx context.Context, follow *models.Follow) error {
	return s.followFn(ctx, follow)
}
func (s *userRepoStub) Unfollow(ctx context.Context, followerID, followeeID string) error {
	return s.unfollowFn(ctx, followerID, followeeID)
}
func (s *userRepoStub) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followeeID)
}
func (s *userRepoStub) Followers(ctx context.Context, userID string) ([]*models.User, error) {
	return s.followersFn(ctx, userID)
}
func (s *userRepoStub) Following(ctx context.Context, userID string) ([]*models.User, error) {
	return s.followingFn(ctx, userID)
}
func (s *userRepoStub) FollowerCountsByDate(ctx context.Context, userID string) (map[string]int, error) {
	return s.followerCountsByDateFn(ctx, userID)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(_ context.Context, _ *models.User) error { return nil },
		getByIDFn: func(_ context.Context, id string) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			return &models.User{ID: "uid-" + username, Username: username}, nil
		},
		updateFn:               func(_ context.Context, _ *models.User) error { return nil },
		searchFn:               func(_ context.Context, _ []string, _ int) ([]*models.User, error) { return nil, nil },
		followFn:               func(_ context.Context, _ *models.Follow) error { return nil },
		unfollowFn:             func(_ context.Context, _, _ string) error { return nil },
		isFollowingFn:          func(_ context.Context, _, _ string) (bool, error) { return false, nil },
		followersFn:            func(_ context.Context, _ string) ([]*models.User, error) { return nil, nil },
		followingFn:            func(_ context.Context, _ string) ([]*models.User, error) { return nil, nil },
		followerCountsByDateFn: func(_ context.Context, _ string) (map[string]int, error) { return map[string]int{}, nil },
	}
}

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	likeFn    func(context.Context, string, string) error
	unlikeFn  func(context.Context, string, string) error
	isLikedFn func(context.Context, string, string) (bool, error)
}

func (s *likeRepoStub) Like(ctx context.Context, userID, postID string) error {
	return s.likeFn(ctx, userID, postID)
}
func (s *likeRepoStub) Unlike(ctx context.Context, userID, postID string) error {
	return s.unlikeFn(ctx, userID, postID)
}
func (s *likeRepoStub) IsLiked(ctx context.Context, userID, postID string) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		likeFn:    func(_ context.Context, _, _ string) error { return nil },
		unlikeFn:  func(_ context.Context, _, _ string) error { return nil },
		isLikedFn: func(_ context.Context, _, _ string) (bool, error) { return false, nil },
	}
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}
