package models

import "time"

// FeedDirection selects which side of the cursor a page covers.
type FeedDirection int

const (
	// FeedLatest is the first page: newest items, no bound.
	FeedLatest FeedDirection = iota
	// FeedAfter pages toward newer items (created_at > bound).
	FeedAfter
	// FeedBefore pages toward history (created_at < bound).
	FeedBefore
)

// Pseudo-tags understood by the scope compiler. Real tag names pass through
// as literal membership filters.
const (
	TagFollowing = "フォロー中"
	TagLatest    = "最新"
)

// FeedFilter is the compiled predicate configuration for one timeline page.
// It is built once per request and applied unchanged to both the post query
// and the repost-via-target query.
type FeedFilter struct {
	Viewer    string
	Direction FeedDirection
	Bound     time.Time
	Tag       string
	LiveOnly  bool
}

// Scoped reports whether a content scope (tag or following) is active.
func (f FeedFilter) Scoped() bool {
	return f.Tag != "" && f.Tag != TagLatest
}

// FeedItemKind distinguishes the two shapes a feed item can take.
type FeedItemKind string

const (
	FeedItemPost   FeedItemKind = "post"
	FeedItemRepost FeedItemKind = "repost"
)

// FeedPost is the projected, render-ready view of a post: stored counters,
// viewer engagement flags, ordered images, tag names, product snapshot, and
// at most one level of quoted-post nesting.
type FeedPost struct {
	ID           string           `json:"id"`
	Author       AuthorSummary    `json:"author"`
	Content      string           `json:"content"`
	LiveLink     *string          `json:"live_link,omitempty"`
	LikeCount    int              `json:"like_count"`
	RefCount     int              `json:"ref_count"`
	CommentCount int              `json:"comment_count"`
	QuoteCount   int              `json:"quote_count"`
	Liked        bool             `json:"liked"`
	Reposted     bool             `json:"reposted"`
	Images       []string         `json:"images"`
	TagNames     []string         `json:"tags"`
	Product      *ProductSnapshot `json:"product,omitempty"`
	Quoted       *FeedPost        `json:"quoted,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// FeedItem is one slot in a timeline page. For reposts the nested post keeps
// its own timestamps while ID, PostedAt, and Reposter come from the repost,
// which is what lets an old post resurface at the top of the feed.
type FeedItem struct {
	ID       string         `json:"id"`
	Kind     FeedItemKind   `json:"type"`
	PostedAt time.Time      `json:"posted_at"`
	Reposter *AuthorSummary `json:"reposted_by,omitempty"`
	Post     *FeedPost      `json:"post"`
}
