package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product turns its owning post into a marketplace listing. Live-release
// products represent livestream listings and carry no price or data file.
type Product struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	PostID        string    `gorm:"not null;uniqueIndex;size:36" json:"post_id"`
	Name          string    `gorm:"not null" json:"name"`
	ThumbnailLink string    `json:"thumbnail_link"`
	ProductLink   string    `json:"product_link"`
	LiveRelease   bool      `gorm:"default:false" json:"live_release"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	PriceHistories []PriceHistory  `gorm:"foreignKey:ProductID" json:"-"`
	Ratings        []ProductRating `gorm:"foreignKey:ProductID" json:"-"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PriceHistory is append-only; the newest row is the product's current price.
type PriceHistory struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ProductID string    `gorm:"not null;index;size:36" json:"product_id"`
	Price     int       `gorm:"not null" json:"price"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (p *PriceHistory) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// ProductRating is one user's 1-5 rating of a product, upserted atomically
// per (product, user). The current rating is the aggregate mean.
type ProductRating struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ProductID string    `gorm:"not null;uniqueIndex:idx_rating_product_user;size:36" json:"product_id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_rating_product_user;size:36" json:"user_id"`
	Value     int       `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *ProductRating) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Purchase records a completed sale. The purchase flow itself lives outside
// this service; rows are read here for seller statistics only.
type Purchase struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserID        string    `gorm:"not null;index;size:36" json:"user_id"`
	ProductID     string    `gorm:"not null;index;size:36" json:"product_id"`
	PurchasePrice int       `gorm:"not null" json:"purchase_price"`
	DateKey       string    `gorm:"index" json:"date_key"`
	CreatedAt     time.Time `json:"created_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product"`
}

func (p *Purchase) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// ProductSnapshot is the per-page derived view of a product: current price
// from the newest price history row and the mean rating. Nil price means the
// listing is unpriced (no history yet, or live release); nil rating means no
// ratings exist (a real average can never be 0 since values are 1-5).
type ProductSnapshot struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ThumbnailLink string   `json:"thumbnail_link"`
	LiveRelease   bool     `json:"live_release"`
	CurrentPrice  *int     `json:"current_price,omitempty"`
	AverageRating *float64 `json:"average_rating,omitempty"`
	RatingCount   int      `json:"rating_count"`
}
