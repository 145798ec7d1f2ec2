package models

import "time"

// Post represents a status update. A post is live once it is not a draft and
// its published_at timestamp has arrived; scheduled posts stay pending until
// the publisher sweep sets published_at.
type Post struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"index;not null" json:"user_id"`
	Content      string     `gorm:"size:500;not null" json:"content"`
	MediaURL     *string    `gorm:"size:1000" json:"media_url"`
	ParentPostID *uint      `gorm:"index" json:"parent_post_id"`
	IsDraft      bool       `gorm:"not null;default:false" json:"is_draft"`
	ScheduledAt  *time.Time `gorm:"index" json:"scheduled_at"`
	PublishedAt  *time.Time `gorm:"index" json:"published_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsLive reports whether the post is visible in feeds at the given time.
func (p Post) IsLive(now time.Time) bool {
	return !p.IsDraft && p.PublishedAt != nil && !p.PublishedAt.After(now)
}
