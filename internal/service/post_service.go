package service

import (
	"context"
	"strings"
	"time"

	"minato/internal/models"
	"minato/internal/repository"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = validator.New()

// CreateProductInput describes the listing attached to a new post. A live
// release carries no price; a priced listing opens its price history with the
// given value.
type CreateProductInput struct {
	Name          string `json:"name" validate:"required,max=200"`
	ThumbnailLink string `json:"thumbnail_link"`
	ProductLink   string `json:"product_link"`
	LiveRelease   bool   `json:"live_release"`
	Price         *int   `json:"price" validate:"omitempty,gte=0"`
}

// CreatePostInput describes a new top-level or quoting post.
type CreatePostInput struct {
	Content  string              `json:"content" validate:"required,max=1000"`
	LiveLink *string             `json:"live_link"`
	Images   []string            `json:"images" validate:"max=4"`
	Tags     []string            `json:"tags" validate:"max=10"`
	QuotedID *string             `json:"quoted_id"`
	Product  *CreateProductInput `json:"product"`
}

// PostDetail is the single-post view: the projected post plus its replies in
// conversation order.
type PostDetail struct {
	Post    *models.FeedPost   `json:"post"`
	Replies []*models.FeedPost `json:"replies"`
}

// PostService handles post lifecycle and read projections.
type PostService interface {
	Create(ctx context.Context, userID string, input CreatePostInput) (*models.FeedPost, error)
	Reply(ctx context.Context, userID, postID, content string) (*models.FeedPost, error)
	Get(ctx context.Context, id, viewerID string) (*PostDetail, error)
	Quotes(ctx context.Context, quotedID, viewerID, beforeID string, productsOnly bool) ([]*models.FeedPost, error)
	ByUser(ctx context.Context, username, viewerID, beforeID string) ([]*models.FeedPost, error)
	Search(ctx context.Context, query, viewerID, beforeID string, tagSearch, productsOnly bool) ([]*models.FeedPost, error)
	Delete(ctx context.Context, userID, postID string) error
}

type postService struct {
	posts    repository.PostRepository
	products repository.ProductRepository
	users    repository.UserRepository
}

// NewPostService creates a new post service.
func NewPostService(posts repository.PostRepository, products repository.ProductRepository, users repository.UserRepository) PostService {
	return &postService{posts: posts, products: products, users: users}
}

func (s *postService) Create(ctx context.Context, userID string, input CreatePostInput) (*models.FeedPost, error) {
	if err := validate.Struct(input); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if input.QuotedID != nil {
		if _, err := s.posts.CreatedAt(ctx, *input.QuotedID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, models.NewNotFoundError("post", *input.QuotedID)
			}
			return nil, err
		}
	}

	post := &models.Post{
		UserID:   userID,
		Content:  input.Content,
		LiveLink: input.LiveLink,
		QuotedID: input.QuotedID,
	}
	for i, link := range input.Images {
		post.Images = append(post.Images, models.PostImage{ImageLink: link, Position: i})
	}
	if input.Product != nil {
		post.Product = &models.Product{
			Name:          input.Product.Name,
			ThumbnailLink: input.Product.ThumbnailLink,
			ProductLink:   input.Product.ProductLink,
			LiveRelease:   input.Product.LiveRelease,
		}
	}

	if err := s.posts.Create(ctx, post, input.Tags); err != nil {
		return nil, err
	}

	if input.Product != nil && input.Product.Price != nil && !input.Product.LiveRelease {
		if _, err := s.products.AppendPrice(ctx, post.Product.ID, *input.Product.Price); err != nil {
			return nil, err
		}
	}

	return s.projectOne(ctx, post.ID, userID)
}

func (s *postService) Reply(ctx context.Context, userID, postID, content string) (*models.FeedPost, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("content is required")
	}
	if _, err := s.posts.CreatedAt(ctx, postID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("post", postID)
		}
		return nil, err
	}

	reply := &models.Post{
		UserID:    userID,
		Content:   content,
		RepliedID: &postID,
	}
	if err := s.posts.CreateReply(ctx, reply); err != nil {
		return nil, err
	}
	return s.projectOne(ctx, reply.ID, userID)
}

func (s *postService) Get(ctx context.Context, id, viewerID string) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, id, viewerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("post", id)
		}
		return nil, err
	}
	replies, err := s.posts.Replies(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}

	projected, err := s.projectMany(ctx, append([]*models.Post{post}, replies...), viewerID)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: projected[0], Replies: projected[1:]}, nil
}

func (s *postService) Quotes(ctx context.Context, quotedID, viewerID, beforeID string, productsOnly bool) ([]*models.FeedPost, error) {
	before, err := s.resolveBefore(ctx, beforeID)
	if err != nil {
		return nil, err
	}
	quotes, err := s.posts.Quotes(ctx, quotedID, viewerID, before, productsOnly, PageSize)
	if err != nil {
		return nil, err
	}
	return s.projectMany(ctx, quotes, viewerID)
}

func (s *postService) ByUser(ctx context.Context, username, viewerID, beforeID string) ([]*models.FeedPost, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("user", username)
		}
		return nil, err
	}
	before, err := s.resolveBefore(ctx, beforeID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ByUser(ctx, user.ID, viewerID, before, PageSize)
	if err != nil {
		return nil, err
	}
	return s.projectMany(ctx, posts, viewerID)
}

// Search splits the query on whitespace; every word must match at least one
// of content, product name, or (when enabled) tag name.
func (s *postService) Search(ctx context.Context, query, viewerID, beforeID string, tagSearch, productsOnly bool) ([]*models.FeedPost, error) {
	words := strings.Fields(query)
	if len(words) == 0 {
		return nil, models.NewValidationError("query is required")
	}
	before, err := s.resolveBefore(ctx, beforeID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.Search(ctx, words, viewerID, before, tagSearch, productsOnly, PageSize)
	if err != nil {
		return nil, err
	}
	return s.projectMany(ctx, posts, viewerID)
}

func (s *postService) Delete(ctx context.Context, userID, postID string) error {
	post, err := s.posts.GetByID(ctx, postID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.NewNotFoundError("post", postID)
		}
		return err
	}
	if post.UserID != userID {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil || !user.IsSuperuser {
			return models.NewUnauthorizedError("not the post author")
		}
	}
	return s.posts.Delete(ctx, post)
}

func (s *postService) resolveBefore(ctx context.Context, beforeID string) (*time.Time, error) {
	if beforeID == "" {
		return nil, nil
	}
	t, err := s.posts.CreatedAt(ctx, beforeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("cursor item", beforeID)
		}
		return nil, err
	}
	return &t, nil
}

// projectMany resolves quoted posts and product snapshots for a batch and
// returns render-ready projections in the same order.
func (s *postService) projectMany(ctx context.Context, posts []*models.Post, viewerID string) ([]*models.FeedPost, error) {
	quotedIDs := collectQuotedIDs(posts, nil)
	quoted, err := s.posts.GetProjected(ctx, quotedIDs, viewerID)
	if err != nil {
		return nil, err
	}
	productIDs := collectProductIDs(posts, quoted)
	snapshots, err := s.products.Snapshots(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	projected := make([]*models.FeedPost, 0, len(posts))
	for _, p := range posts {
		projected = append(projected, projectPost(p, snapshots, quoted, true))
	}
	return projected, nil
}

func (s *postService) projectOne(ctx context.Context, id, viewerID string) (*models.FeedPost, error) {
	post, err := s.posts.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	projected, err := s.projectMany(ctx, []*models.Post{post}, viewerID)
	if err != nil {
		return nil, err
	}
	return projected[0], nil
}
