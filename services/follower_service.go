package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ripple-social/ripple/models"
	"github.com/ripple-social/ripple/utils"
)

// UserList is a paginated page of user summaries.
type UserList struct {
	Items  []models.UserSummary `json:"items"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// Relationship describes how two users are connected.
type Relationship struct {
	IsFollowing  bool `json:"is_following"`
	IsFollowedBy bool `json:"is_followed_by"`
	Mutual       bool `json:"mutual"`
}

type FollowerService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewFollowerService(db *gorm.DB) *FollowerService {
	return &FollowerService{db: db, notifications: NewNotificationService(db)}
}

// Follow creates a follow edge from followerID to followedID and
// notifies the followed user. Following yourself or someone you already
// follow is rejected.
func (s *FollowerService) Follow(followerID, followedID uint) error {
	if followerID == followedID {
		return ErrSelfAction
	}
	var exists int64
	if err := s.db.Model(&models.User{}).Where("id = ?", followedID).Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	edge := models.Follower{FollowerUserID: followerID, FollowedUserID: followedID}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}

	if err := s.notifications.Create(followedID, followerID, models.NotificationFollow, nil); err != nil {
		utils.Sugar.Errorw("follow notification failed",
			"follower_id", followerID, "followed_id", followedID, "error", err)
	}
	return nil
}

// Unfollow removes an existing follow edge.
func (s *FollowerService) Unfollow(followerID, followedID uint) error {
	if followerID == followedID {
		return ErrSelfAction
	}
	res := s.db.Where("follower_user_id = ? AND followed_user_id = ?", followerID, followedID).
		Delete(&models.Follower{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Followers pages through the users following userID.
func (s *FollowerService) Followers(userID uint, limit, offset int) (*UserList, error) {
	return s.edgeList(userID, "followed_user_id", "follower_user_id", limit, offset)
}

// Following pages through the users userID follows.
func (s *FollowerService) Following(userID uint, limit, offset int) (*UserList, error) {
	return s.edgeList(userID, "follower_user_id", "followed_user_id", limit, offset)
}

func (s *FollowerService) edgeList(userID uint, whereCol, joinCol string, limit, offset int) (*UserList, error) {
	var exists int64
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}
	limit, offset = normalizePage(limit, offset)

	var total int64
	if err := s.db.Model(&models.Follower{}).
		Where(whereCol+" = ?", userID).Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.db.Model(&models.User{}).
		Joins("JOIN followers f ON f."+joinCol+" = users.id").
		Where("f."+whereCol+" = ?", userID).
		Order("f.created_at DESC, users.id DESC").
		Limit(limit).Offset(offset).
		Find(&users).Error; err != nil {
		return nil, err
	}

	items := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		items = append(items, u.Summary())
	}
	return &UserList{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// FollowerCount returns how many users follow userID.
func (s *FollowerService) FollowerCount(userID uint) (int64, error) {
	var n int64
	err := s.db.Model(&models.Follower{}).Where("followed_user_id = ?", userID).Count(&n).Error
	return n, err
}

// FollowingCount returns how many users userID follows.
func (s *FollowerService) FollowingCount(userID uint) (int64, error) {
	var n int64
	err := s.db.Model(&models.Follower{}).Where("follower_user_id = ?", userID).Count(&n).Error
	return n, err
}

// Relationship reports both directions of the edge between two users.
func (s *FollowerService) Relationship(viewerID, targetID uint) (*Relationship, error) {
	var edges []models.Follower
	if err := s.db.Where(
		"(follower_user_id = ? AND followed_user_id = ?) OR (follower_user_id = ? AND followed_user_id = ?)",
		viewerID, targetID, targetID, viewerID).
		Find(&edges).Error; err != nil {
		return nil, err
	}
	rel := &Relationship{}
	for _, e := range edges {
		if e.FollowerUserID == viewerID {
			rel.IsFollowing = true
		}
		if e.FollowerUserID == targetID {
			rel.IsFollowedBy = true
		}
	}
	rel.Mutual = rel.IsFollowing && rel.IsFollowedBy
	return rel, nil
}
