package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is the central content entity. A post may be a top-level post, a reply
// (RepliedID set, excluded from timelines), or a quote (QuotedID set). When a
// Product is attached the post doubles as a marketplace listing.
type Post struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	UserID       string  `gorm:"not null;index;size:36" json:"user_id"`
	Author       User    `gorm:"foreignKey:UserID" json:"author"`
	Content      string  `gorm:"type:text;not null" json:"content"`
	LiveLink     *string `json:"live_link,omitempty"`
	LikeCount    int     `gorm:"not null;default:0" json:"like_count"`
	RefCount     int     `gorm:"not null;default:0" json:"ref_count"`
	CommentCount int     `gorm:"not null;default:0" json:"comment_count"`
	QuoteCount   int     `gorm:"not null;default:0" json:"quote_count"`
	RepliedID    *string `gorm:"index;size:36" json:"replied_id,omitempty"`
	QuotedID     *string `gorm:"index;size:36" json:"quoted_id,omitempty"`
	Quoted       *Post   `gorm:"foreignKey:QuotedID" json:"-"`
	IsActive     bool    `gorm:"default:true" json:"is_active"`

	Images  []PostImage `gorm:"foreignKey:PostID" json:"images"`
	Tags    []Tag       `gorm:"many2many:post_tags" json:"tags"`
	Product *Product    `gorm:"foreignKey:PostID" json:"product,omitempty"`

	// ViewerLiked and ViewerReposted are not persisted; they are selected per
	// request via EXISTS subqueries scoped to the current viewer.
	ViewerLiked    bool `gorm:"->;-:migration" json:"liked"`
	ViewerReposted bool `gorm:"->;-:migration" json:"reposted"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PostImage is one attached image, ordered by Position as stored.
type PostImage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"not null;index;size:36" json:"post_id"`
	ImageLink string    `gorm:"not null" json:"image_link"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

func (i *PostImage) BeforeCreate(_ *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Tag is a case-normalized label attached to posts via the post_tags join table.
type Tag struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`

	Posts []Post `gorm:"many2many:post_tags" json:"-"`
}

func (t *Tag) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Like marks that a user likes a post. The count lives denormalized on
// Post.LikeCount and is mutated in the same transaction as this row.
type Like struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_like_user_post;size:36" json:"user_id"`
	PostID    string    `gorm:"not null;uniqueIndex:idx_like_user_post;size:36" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Post Post `gorm:"foreignKey:PostID" json:"-"`
}

func (l *Like) BeforeCreate(_ *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Repost is a thin pointer resurfacing a post at the repost's own timestamp.
// Feed rendering borrows the target post's content but uses the repost's
// identity, created_at, and actor.
type Repost struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_repost_user_post;size:36" json:"user_id"`
	PostID    string    `gorm:"not null;uniqueIndex:idx_repost_user_post;size:36" json:"post_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user"`
	Post Post `gorm:"foreignKey:PostID" json:"-"`
}

func (r *Repost) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// DailyPostImpression is a per-post per-day view counter, incremented by an
// atomic upsert off the request path.
type DailyPostImpression struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	PostID     string `gorm:"not null;uniqueIndex:idx_impression_post_date;size:36" json:"post_id"`
	DateKey    string `gorm:"not null;uniqueIndex:idx_impression_post_date" json:"date_key"`
	Impression int    `gorm:"not null;default:0" json:"impression"`
}

func (d *DailyPostImpression) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
