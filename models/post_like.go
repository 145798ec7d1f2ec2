package models

import "time"

// Reaction types stored in post_likes.type.
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// PostLike holds a single user's reaction to a post. The composite unique
// index guarantees at most one row per (post, user) pair.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index:idx_like_post_user,unique;not null" json:"post_id"`
	UserID    uint      `gorm:"index:idx_like_post_user,unique;not null" json:"user_id"`
	Type      string    `gorm:"size:10;not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
