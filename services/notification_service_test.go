package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-social/ripple/models"
)

func TestNotificationListAndMarkAsRead(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Create(alice.ID, bob.ID, models.NotificationFollow, nil))
	}

	list, err := svc.List(alice.ID, ListNotificationsOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
	assert.Equal(t, int64(3), list.UnreadCount)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, "bob", list.Items[0].Actor.Name)

	read, err := svc.List(alice.ID, ListNotificationsOptions{Limit: 10, MarkAsRead: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), read.UnreadCount)

	after, err := svc.List(alice.ID, ListNotificationsOptions{UnreadOnly: true, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, after.Items)
}

func TestNotificationCreateSkipsSelf(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)
	alice := createTestUser(t, db, "alice")

	require.NoError(t, svc.Create(alice.ID, alice.ID, models.NotificationLike, nil))

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNotificationCreateValidatesUsers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)
	alice := createTestUser(t, db, "alice")

	assert.ErrorIs(t, svc.Create(alice.ID, 9999, models.NotificationLike, nil), ErrNotFound)
}

func TestNotificationRecipientOnlyAccess(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	require.NoError(t, svc.Create(alice.ID, bob.ID, models.NotificationFollow, nil))

	var notif models.Notification
	require.NoError(t, db.First(&notif).Error)

	assert.ErrorIs(t, svc.MarkRead(notif.ID, bob.ID), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(notif.ID, bob.ID), ErrForbidden)
	assert.ErrorIs(t, svc.MarkRead(9999, alice.ID), ErrNotFound)

	require.NoError(t, svc.MarkRead(notif.ID, alice.ID))
	require.NoError(t, svc.Delete(notif.ID, alice.ID))
}

func TestNotificationMarkAllReadAndClearAll(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	require.NoError(t, svc.Create(alice.ID, bob.ID, models.NotificationFollow, nil))
	require.NoError(t, svc.Create(alice.ID, bob.ID, models.NotificationRepost, nil))
	require.NoError(t, svc.Create(bob.ID, alice.ID, models.NotificationFollow, nil))

	marked, err := svc.MarkAllRead(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	cleared, err := svc.ClearAll(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared)

	// bob's inbox untouched
	list, err := svc.List(bob.ID, ListNotificationsOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
}

func TestNotificationStats(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	require.NoError(t, svc.Create(alice.ID, bob.ID, models.NotificationFollow, nil))
	require.NoError(t, svc.Create(alice.ID, bob.ID, models.NotificationLike, nil))
	require.NoError(t, svc.Create(alice.ID, bob.ID, models.NotificationLike, nil))

	old := models.Notification{
		UserID:    alice.ID,
		ActorID:   bob.ID,
		Type:      models.NotificationRepost,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(&old).Error)

	stats, err := svc.Stats(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(4), stats.Unread)
	assert.Equal(t, int64(2), stats.ByType[models.NotificationLike])
	assert.Equal(t, int64(1), stats.ByType[models.NotificationFollow])
	assert.Equal(t, int64(3), stats.Last24h)
}
