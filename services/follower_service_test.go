package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-social/ripple/models"
)

func TestFollowCreatesEdgeAndNotification(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFollowerService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	require.NoError(t, svc.Follow(alice.ID, bob.ID))

	count, err := svc.FollowerCount(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var notif models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", bob.ID, models.NotificationFollow).First(&notif).Error)
	assert.Equal(t, alice.ID, notif.ActorID)
	assert.Nil(t, notif.PostID)
}

func TestFollowRejectsSelfDuplicateAndMissing(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFollowerService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	assert.ErrorIs(t, svc.Follow(alice.ID, alice.ID), ErrSelfAction)

	require.NoError(t, svc.Follow(alice.ID, bob.ID))
	assert.ErrorIs(t, svc.Follow(alice.ID, bob.ID), ErrConflict)

	assert.ErrorIs(t, svc.Follow(alice.ID, 9999), ErrNotFound)
}

func TestUnfollow(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFollowerService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	require.NoError(t, svc.Follow(alice.ID, bob.ID))
	require.NoError(t, svc.Unfollow(alice.ID, bob.ID))

	count, err := svc.FollowerCount(bob.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.ErrorIs(t, svc.Unfollow(alice.ID, bob.ID), ErrNotFound)
}

func TestFollowerListsPaginate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFollowerService(db)
	star := createTestUser(t, db, "star")

	for i := 0; i < 5; i++ {
		fan := createTestUser(t, db, fmt.Sprintf("fan%d", i))
		require.NoError(t, svc.Follow(fan.ID, star.ID))
	}

	page, err := svc.Followers(star.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Len(t, page.Items, 2)

	_, err = svc.Followers(9999, 10, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFollowingList(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFollowerService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	require.NoError(t, svc.Follow(alice.ID, bob.ID))
	require.NoError(t, svc.Follow(alice.ID, carol.ID))

	page, err := svc.Following(alice.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	names := []string{page.Items[0].Name, page.Items[1].Name}
	assert.Contains(t, names, "bob")
	assert.Contains(t, names, "carol")
}

func TestRelationship(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFollowerService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	require.NoError(t, svc.Follow(alice.ID, bob.ID))

	rel, err := svc.Relationship(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, rel.IsFollowing)
	assert.False(t, rel.IsFollowedBy)
	assert.False(t, rel.Mutual)

	require.NoError(t, svc.Follow(bob.ID, alice.ID))
	rel, err = svc.Relationship(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, rel.Mutual)
}
