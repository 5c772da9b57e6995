// Package service contains the business logic layer of the application.
package service

import (
	"context"
	"sort"
	"time"

	"minato/internal/cache"
	"minato/internal/models"
	"minato/internal/observability"
	"minato/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// PageSize is the fixed number of items on a timeline page.
const PageSize = 10

// TimelineQuery carries the decoded parameters of one timeline request.
type TimelineQuery struct {
	ViewerID string
	Tag      string
	LiveOnly bool
	AfterID  string
	BeforeID string
}

// FeedService assembles timeline pages from the post and repost streams.
type FeedService interface {
	Timeline(ctx context.Context, q TimelineQuery) ([]*models.FeedItem, error)
}

type feedService struct {
	posts       repository.PostRepository
	reposts     repository.RepostRepository
	products    repository.ProductRepository
	impressions *ImpressionRecorder
}

// NewFeedService creates a new feed service.
func NewFeedService(
	posts repository.PostRepository,
	reposts repository.RepostRepository,
	products repository.ProductRepository,
	impressions *ImpressionRecorder,
) FeedService {
	return &feedService{
		posts:       posts,
		reposts:     reposts,
		products:    products,
		impressions: impressions,
	}
}

// Timeline builds one page of the merged post/repost feed.
//
// Both streams are fetched with the same content scope and the same cursor
// bound, each already limited to a full page, so the merge can never lose an
// item that belongs on this page. The merged candidates are ordered by
// effective timestamp (a repost counts at its own created_at, not its
// target's), truncated to the page size, and oriented for display: the
// initial page and after-pages come back oldest-first, before-pages stay
// newest-first so clients can prepend history.
func (s *feedService) Timeline(ctx context.Context, q TimelineQuery) ([]*models.FeedItem, error) {
	ctx, span := observability.StartSpan(ctx, "feed.timeline",
		trace.WithAttributes(
			attribute.String("feed.tag", q.Tag),
			attribute.Bool("feed.live_only", q.LiveOnly),
		))
	defer span.End()

	if q.AfterID != "" && q.BeforeID != "" {
		return nil, models.NewValidationError("after and before are mutually exclusive")
	}

	filter := models.FeedFilter{
		Viewer:   q.ViewerID,
		Tag:      q.Tag,
		LiveOnly: q.LiveOnly,
	}
	switch {
	case q.AfterID != "":
		bound, err := s.resolveCursor(ctx, q.AfterID)
		if err != nil {
			return nil, err
		}
		filter.Direction = models.FeedAfter
		filter.Bound = bound
	case q.BeforeID != "":
		bound, err := s.resolveCursor(ctx, q.BeforeID)
		if err != nil {
			return nil, err
		}
		filter.Direction = models.FeedBefore
		filter.Bound = bound
	}

	// The anonymous default page is the hottest read; serve it cache-aside.
	if q.ViewerID == "" && filter.Direction == models.FeedLatest {
		var items []*models.FeedItem
		key := cache.FeedKey(q.Tag, q.LiveOnly)
		err := cache.Aside(ctx, key, &items, cache.FeedTTL, func() error {
			fetched, err := s.assemble(ctx, filter)
			if err != nil {
				return err
			}
			items = fetched
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.recordImpressions(items)
		return items, nil
	}

	items, err := s.assemble(ctx, filter)
	if err != nil {
		observability.RecordError(ctx, err)
		return nil, err
	}
	s.recordImpressions(items)
	return items, nil
}

// resolveCursor maps an item id to its creation timestamp. The id namespace
// spans both streams, so the post table is probed first and the repost table
// second.
func (s *feedService) resolveCursor(ctx context.Context, id string) (bound time.Time, err error) {
	bound, err = s.posts.CreatedAt(ctx, id)
	if err == nil {
		return bound, nil
	}
	if err != gorm.ErrRecordNotFound {
		return time.Time{}, err
	}
	bound, err = s.reposts.CreatedAt(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return time.Time{}, models.NewNotFoundError("cursor item", id)
	}
	return bound, err
}

func (s *feedService) assemble(ctx context.Context, f models.FeedFilter) ([]*models.FeedItem, error) {
	var (
		posts   []*models.Post
		reposts []*models.Repost
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = s.posts.FeedCandidates(gctx, f, PageSize)
		return err
	})
	g.Go(func() error {
		var err error
		reposts, err = s.reposts.FeedCandidates(gctx, f, PageSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Repost targets are batch-loaded with the viewer's engagement flags so
	// a page never costs one query per repost.
	targetIDs := make([]string, 0, len(reposts))
	for _, rp := range reposts {
		targetIDs = append(targetIDs, rp.PostID)
	}
	targets, err := s.posts.GetProjected(ctx, targetIDs, f.Viewer)
	if err != nil {
		return nil, err
	}

	quotedIDs := collectQuotedIDs(posts, targets)
	quoted, err := s.posts.GetProjected(ctx, quotedIDs, f.Viewer)
	if err != nil {
		return nil, err
	}

	productIDs := collectProductIDs(posts, targets, quoted)
	snapshots, err := s.products.Snapshots(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	items := make([]*models.FeedItem, 0, len(posts)+len(reposts))
	for _, p := range posts {
		items = append(items, &models.FeedItem{
			ID:       p.ID,
			Kind:     models.FeedItemPost,
			PostedAt: p.CreatedAt,
			Post:     projectPost(p, snapshots, quoted, true),
		})
	}
	for _, rp := range reposts {
		target, ok := targets[rp.PostID]
		if !ok {
			// Target vanished between the two fetches; drop the slot.
			continue
		}
		reposter := rp.User.Summary()
		items = append(items, &models.FeedItem{
			ID:       rp.ID,
			Kind:     models.FeedItemRepost,
			PostedAt: rp.CreatedAt,
			Reposter: &reposter,
			Post:     projectPost(target, snapshots, quoted, true),
		})
	}

	orderItems(items, f.Direction)
	if len(items) > PageSize {
		items = items[:PageSize]
	}

	// After-pages are truncated at the old end, so they are selected
	// ascending and already display-ordered. Latest pages are selected
	// descending to keep the newest ten, then flipped for display.
	if f.Direction == models.FeedLatest {
		reverse(items)
	}
	return items, nil
}

// orderItems sorts merged candidates by effective timestamp. Ties break on
// item id ascending so identical requests always truncate identically.
func orderItems(items []*models.FeedItem, dir models.FeedDirection) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.PostedAt.Equal(b.PostedAt) {
			if dir == models.FeedAfter {
				return a.PostedAt.Before(b.PostedAt)
			}
			return a.PostedAt.After(b.PostedAt)
		}
		return a.ID < b.ID
	})
}

func reverse(items []*models.FeedItem) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

func collectQuotedIDs(posts []*models.Post, targets map[string]*models.Post) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(p *models.Post) {
		if p.QuotedID == nil {
			return
		}
		if _, ok := seen[*p.QuotedID]; ok {
			return
		}
		seen[*p.QuotedID] = struct{}{}
		ids = append(ids, *p.QuotedID)
	}
	for _, p := range posts {
		add(p)
	}
	for _, p := range targets {
		add(p)
	}
	return ids
}

func collectProductIDs(groups ...interface{}) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(p *models.Post) {
		if p.Product == nil {
			return
		}
		if _, ok := seen[p.Product.ID]; ok {
			return
		}
		seen[p.Product.ID] = struct{}{}
		ids = append(ids, p.Product.ID)
	}
	for _, group := range groups {
		switch g := group.(type) {
		case []*models.Post:
			for _, p := range g {
				add(p)
			}
		case map[string]*models.Post:
			for _, p := range g {
				add(p)
			}
		}
	}
	return ids
}

// projectPost turns a loaded post into its render-ready shape. Quotes nest a
// single level; a quote of a quote renders without its own nested post.
func projectPost(p *models.Post, snapshots map[string]*models.ProductSnapshot, quoted map[string]*models.Post, allowQuote bool) *models.FeedPost {
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, img.ImageLink)
	}
	tagNames := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tagNames = append(tagNames, t.Name)
	}

	fp := &models.FeedPost{
		ID:           p.ID,
		Author:       p.Author.Summary(),
		Content:      p.Content,
		LiveLink:     p.LiveLink,
		LikeCount:    p.LikeCount,
		RefCount:     p.RefCount,
		CommentCount: p.CommentCount,
		QuoteCount:   p.QuoteCount,
		Liked:        p.ViewerLiked,
		Reposted:     p.ViewerReposted,
		Images:       images,
		TagNames:     tagNames,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.Product != nil {
		fp.Product = snapshots[p.Product.ID]
	}
	if allowQuote && p.QuotedID != nil {
		if q, ok := quoted[*p.QuotedID]; ok {
			fp.Quoted = projectPost(q, snapshots, quoted, false)
		}
	}
	return fp
}

// recordImpressions counts one view per rendered slot against the underlying
// post. A post shown twice on one page (as itself and as a repost target)
// counts twice; nested quoted posts do not count.
func (s *feedService) recordImpressions(items []*models.FeedItem) {
	if s.impressions == nil || len(items) == 0 {
		return
	}
	postIDs := make([]string, 0, len(items))
	for _, item := range items {
		if item.Post != nil {
			postIDs = append(postIDs, item.Post.ID)
		}
	}
	s.impressions.Record(postIDs)
}
