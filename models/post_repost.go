package models

import "time"

// PostRepost marks that a user reposted a post. Presence is the whole state;
// the unique index keeps the (post, user) pair single-row.
type PostRepost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index:idx_repost_post_user,unique;not null" json:"post_id"`
	UserID    uint      `gorm:"index:idx_repost_post_user,unique;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
