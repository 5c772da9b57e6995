// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account that can post, follow, and trade.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Nickname     string    `json:"nickname"`
	Bio          string    `gorm:"type:text" json:"bio"`
	HomepageLink string    `json:"homepage_link"`
	IconLink     string    `json:"icon_link"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	IsSuperuser  bool      `gorm:"default:false" json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Posts []Post `gorm:"foreignKey:UserID" json:"-"`
}

// BeforeCreate assigns a UUID primary key when none is set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// AuthorSummary is the denormalized author shape embedded in feed items.
type AuthorSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	IconLink string `json:"icon_link"`
}

// Summary reduces a User to the fields feed items carry.
func (u *User) Summary() AuthorSummary {
	return AuthorSummary{
		ID:       u.ID,
		Username: u.Username,
		Nickname: u.Nickname,
		IconLink: u.IconLink,
	}
}

// Follow represents a follower/followee edge. Self-follows are rejected at
// the service layer; the composite unique index rejects duplicates.
type Follow struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	FollowerID string    `gorm:"not null;uniqueIndex:idx_follower_followee;size:36" json:"follower_id"`
	FolloweeID string    `gorm:"not null;uniqueIndex:idx_follower_followee;size:36" json:"followee_id"`
	DateKey    string    `gorm:"index" json:"date_key"`
	CreatedAt  time.Time `json:"created_at"`

	Follower User `gorm:"foreignKey:FollowerID" json:"-"`
	Followee User `gorm:"foreignKey:FolloweeID" json:"-"`
}

func (f *Follow) BeforeCreate(_ *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
