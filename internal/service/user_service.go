package service

import (
	"context"
	"strings"
	"time"

	"minato/internal/models"
	"minato/internal/repository"

	"gorm.io/gorm"
)

// UpdateProfileInput carries the editable profile fields. Empty strings mean
// "leave unchanged".
type UpdateProfileInput struct {
	Nickname     string `json:"nickname" validate:"max=50"`
	Bio          string `json:"bio" validate:"max=500"`
	HomepageLink string `json:"homepage_link" validate:"omitempty,url"`
	IconLink     string `json:"icon_link"`
}

// UserService handles profiles and the follow graph.
type UserService interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error)
	Search(ctx context.Context, query string) ([]*models.User, error)

	Follow(ctx context.Context, followerID, followeeUsername string) error
	Unfollow(ctx context.Context, followerID, followeeUsername string) error
	Followers(ctx context.Context, username string) ([]*models.User, error)
	Following(ctx context.Context, username string) ([]*models.User, error)
	IsFollowing(ctx context.Context, followerID, followeeUsername string) (bool, error)
}

type userService struct {
	users repository.UserRepository
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return nil, models.NewNotFoundError("user", id)
	}
	return user, err
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err == gorm.ErrRecordNotFound {
		return nil, models.NewNotFoundError("user", username)
	}
	return user, err
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	if err := validate.Struct(input); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.Nickname != "" {
		user.Nickname = input.Nickname
	}
	if input.Bio != "" {
		user.Bio = input.Bio
	}
	if input.HomepageLink != "" {
		user.HomepageLink = input.HomepageLink
	}
	if input.IconLink != "" {
		user.IconLink = input.IconLink
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Search(ctx context.Context, query string) ([]*models.User, error) {
	words := strings.Fields(query)
	if len(words) == 0 {
		return nil, models.NewValidationError("query is required")
	}
	return s.users.Search(ctx, words, PageSize)
}

func (s *userService) Follow(ctx context.Context, followerID, followeeUsername string) error {
	followee, err := s.GetByUsername(ctx, followeeUsername)
	if err != nil {
		return err
	}
	if followee.ID == followerID {
		return models.NewValidationError("cannot follow yourself")
	}
	following, err := s.users.IsFollowing(ctx, followerID, followee.ID)
	if err != nil {
		return err
	}
	if following {
		return nil
	}
	return s.users.Follow(ctx, &models.Follow{
		FollowerID: followerID,
		FolloweeID: followee.ID,
		DateKey:    dateKey(time.Now()),
	})
}

func (s *userService) Unfollow(ctx context.Context, followerID, followeeUsername string) error {
	followee, err := s.GetByUsername(ctx, followeeUsername)
	if err != nil {
		return err
	}
	err = s.users.Unfollow(ctx, followerID, followee.ID)
	if err == gorm.ErrRecordNotFound {
		return models.NewNotFoundError("follow", followeeUsername)
	}
	return err
}

func (s *userService) Followers(ctx context.Context, username string) ([]*models.User, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.users.Followers(ctx, user.ID)
}

func (s *userService) Following(ctx context.Context, username string) ([]*models.User, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.users.Following(ctx, user.ID)
}

func (s *userService) IsFollowing(ctx context.Context, followerID, followeeUsername string) (bool, error) {
	followee, err := s.GetByUsername(ctx, followeeUsername)
	if err != nil {
		return false, err
	}
	return s.users.IsFollowing(ctx, followerID, followee.ID)
}
