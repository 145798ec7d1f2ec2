package models

import "time"

// Notification types.
const (
	NotificationFollow  = "follow"
	NotificationLike    = "like"
	NotificationDislike = "dislike"
	NotificationRepost  = "repost"
	NotificationNewPost = "new_post"
	NotificationReply   = "reply"
)

// Notification is delivered to UserID when ActorID performs an action.
// Rows are created by the originating action's service and only ever
// mutated by the recipient.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	ActorID   uint      `gorm:"index;not null" json:"actor_id"`
	Type      string    `gorm:"size:20;not null" json:"type"`
	PostID    *uint     `gorm:"index" json:"post_id"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
