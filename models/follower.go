package models

import "time"

// Follower is a directed follow edge: follower_user_id follows
// followed_user_id. Self-follows are rejected at the service layer.
type Follower struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	FollowerUserID uint      `gorm:"index:idx_follow_pair,unique;not null" json:"follower_user_id"`
	FollowedUserID uint      `gorm:"index:idx_follow_pair,unique;index;not null" json:"followed_user_id"`
	CreatedAt      time.Time `json:"created_at"`
}
