package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ripple-social/ripple/models"
	"github.com/ripple-social/ripple/utils"
)

// NotificationView pairs a notification with a summary of the user who
// triggered it.
type NotificationView struct {
	models.Notification
	Actor models.UserSummary `json:"actor"`
}

// NotificationList is a paginated page of a user's notifications.
type NotificationList struct {
	Items       []NotificationView `json:"items"`
	Total       int64              `json:"total"`
	UnreadCount int64              `json:"unread_count"`
	Limit       int                `json:"limit"`
	Offset      int                `json:"offset"`
}

// NotificationStats summarizes a user's notification activity.
type NotificationStats struct {
	Total   int64            `json:"total"`
	Unread  int64            `json:"unread"`
	ByType  map[string]int64 `json:"by_type"`
	Last24h int64            `json:"last_24h"`
}

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Create records a notification for recipientID about an action by
// actorID. Self-notifications are silently skipped.
func (s *NotificationService) Create(recipientID, actorID uint, notifType string, postID *uint) error {
	if recipientID == actorID {
		return nil
	}
	var n int64
	if err := s.db.Model(&models.User{}).Where("id IN ?", []uint{recipientID, actorID}).Count(&n).Error; err != nil {
		return err
	}
	if n != 2 {
		return ErrNotFound
	}
	notif := models.Notification{
		UserID:  recipientID,
		ActorID: actorID,
		Type:    notifType,
		PostID:  postID,
	}
	return s.db.Create(&notif).Error
}

type ListNotificationsOptions struct {
	UnreadOnly bool
	MarkAsRead bool
	Limit      int
	Offset     int
}

func (s *NotificationService) List(userID uint, opts ListNotificationsOptions) (*NotificationList, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	base := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if opts.UnreadOnly {
		base = base.Where("is_read = ?", false)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var notifs []models.Notification
	if err := base.Order("created_at DESC, id DESC").
		Limit(opts.Limit).Offset(opts.Offset).
		Find(&notifs).Error; err != nil {
		return nil, err
	}

	var unread int64
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return nil, err
	}

	actors, err := s.actorSummaries(notifs)
	if err != nil {
		return nil, err
	}

	items := make([]NotificationView, 0, len(notifs))
	for _, n := range notifs {
		items = append(items, NotificationView{Notification: n, Actor: actors[n.ActorID]})
	}

	if opts.MarkAsRead && len(notifs) > 0 {
		ids := make([]uint, 0, len(notifs))
		for _, n := range notifs {
			if !n.IsRead {
				ids = append(ids, n.ID)
			}
		}
		if len(ids) > 0 {
			if err := s.db.Model(&models.Notification{}).
				Where("id IN ? AND user_id = ?", ids, userID).
				Update("is_read", true).Error; err != nil {
				return nil, err
			}
			unread -= int64(len(ids))
			if unread < 0 {
				unread = 0
			}
		}
	}

	return &NotificationList{
		Items:       items,
		Total:       total,
		UnreadCount: unread,
		Limit:       opts.Limit,
		Offset:      opts.Offset,
	}, nil
}

// actorSummaries loads summaries for every distinct actor in one query.
func (s *NotificationService) actorSummaries(notifs []models.Notification) (map[uint]models.UserSummary, error) {
	ids := make([]uint, 0, len(notifs))
	for _, n := range notifs {
		ids = append(ids, n.ActorID)
	}
	summaries := map[uint]models.UserSummary{}
	if len(ids) == 0 {
		return summaries, nil
	}
	var users []models.User
	if err := s.db.Where("id IN ?", utils.UniqueUint(ids)).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		summaries[u.ID] = u.Summary()
	}
	return summaries, nil
}

func (s *NotificationService) MarkRead(notifID, userID uint) error {
	var notif models.Notification
	if err := s.db.First(&notif, notifID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if notif.UserID != userID {
		return ErrForbidden
	}
	return s.db.Model(&notif).Update("is_read", true).Error
}

func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	res := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (s *NotificationService) Delete(notifID, userID uint) error {
	var notif models.Notification
	if err := s.db.First(&notif, notifID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if notif.UserID != userID {
		return ErrForbidden
	}
	return s.db.Delete(&notif).Error
}

func (s *NotificationService) ClearAll(userID uint) (int64, error) {
	res := s.db.Where("user_id = ?", userID).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

func (s *NotificationService) Stats(userID uint) (*NotificationStats, error) {
	stats := &NotificationStats{ByType: map[string]int64{}}

	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ?", userID).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&stats.Unread).Error; err != nil {
		return nil, err
	}

	type typeCount struct {
		Type string
		N    int64
	}
	var rows []typeCount
	if err := s.db.Model(&models.Notification{}).
		Select("type, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ByType[r.Type] = r.N
	}

	since := time.Now().Add(-24 * time.Hour)
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&stats.Last24h).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
