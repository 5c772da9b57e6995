package repository

import (
	"context"

	"minato/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user and follow data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Search(ctx context.Context, words []string, limit int) ([]*models.User, error)

	Follow(ctx context.Context, follow *models.Follow) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	Followers(ctx context.Context, userID string) ([]*models.User, error)
	Following(ctx context.Context, userID string) ([]*models.User, error)
	FollowerCountsByDate(ctx context.Context, userID string) (map[string]int, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// Search matches every word against username, nickname, or bio.
func (r *userRepository) Search(ctx context.Context, words []string, limit int) ([]*models.User, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("is_active = true")
	for _, word := range words {
		if word == "" {
			continue
		}
		like := "%" + word + "%"
		q = q.Where("username ILIKE ? OR nickname ILIKE ? OR bio ILIKE ?", like, like, like)
	}

	var users []*models.User
	err := q.Order("created_at DESC").Limit(limit).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Follow inserts the edge, relying on the composite unique index to reject
// duplicates. The self-follow guard lives in the service layer.
func (r *userRepository) Follow(ctx context.Context, follow *models.Follow) error {
	return r.db.WithContext(ctx).Create(follow).Error
}

func (r *userRepository) Unfollow(ctx context.Context, followerID, followeeID string) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) Followers(ctx context.Context, userID string) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followee_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Following(ctx context.Context, userID string) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.followee_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

type followCount struct {
	DateKey string
	Cnt     int
}

// FollowerCountsByDate counts new followers per date key for the stats view.
func (r *userRepository) FollowerCountsByDate(ctx context.Context, userID string) (map[string]int, error) {
	var counts []followCount
	err := r.db.WithContext(ctx).Raw(
		`SELECT date_key, COUNT(*) AS cnt
		 FROM follows
		 WHERE followee_id = ?
		 GROUP BY date_key`,
		userID,
	).Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int, len(counts))
	for _, c := range counts {
		totals[c.DateKey] = c.Cnt
	}
	return totals, nil
}
