package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-social/ripple/models"
)

type fakeMediaDeleter struct {
	deleted []string
	err     error
}

func (f *fakeMediaDeleter) Delete(_ context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return f.err
}

func TestProfileCountsAndRelation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db, nil)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	createLivePost(t, db, alice.ID, "one")
	createLivePost(t, db, alice.ID, "two")
	require.NoError(t, db.Create(&models.Post{UserID: alice.ID, Content: "draft", IsDraft: true}).Error)
	follow(t, db, bob.ID, alice.ID)

	profile, err := svc.Profile("alice", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), profile.PostCount)
	assert.Equal(t, int64(1), profile.FollowerCount)
	assert.Zero(t, profile.FollowingCount)
	assert.True(t, profile.IsFollowing)
	assert.False(t, profile.IsCurrentUser)

	own, err := svc.Profile("alice", alice.ID)
	require.NoError(t, err)
	assert.True(t, own.IsCurrentUser)
	assert.False(t, own.IsFollowing)

	_, err = svc.Profile("nobody", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfileUniqueness(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db, nil)
	alice := createTestUser(t, db, "alice")
	createTestUser(t, db, "bob")

	taken := "bob"
	_, err := svc.UpdateProfile(alice.ID, UpdateProfileInput{Name: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	takenMail := "bob@example.com"
	_, err = svc.UpdateProfile(alice.ID, UpdateProfileInput{Email: &takenMail})
	assert.ErrorIs(t, err, ErrConflict)

	newBio := "hello there"
	newName := "alice2"
	updated, err := svc.UpdateProfile(alice.ID, UpdateProfileInput{Name: &newName, Bio: &newBio})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Name)
	assert.Equal(t, "hello there", updated.Bio)
}

func TestUpdateAvatarDeletesOldMedia(t *testing.T) {
	db := setupTestDB(t)
	fake := &fakeMediaDeleter{}
	svc := NewUserService(db, fake)
	alice := createTestUser(t, db, "alice")

	_, err := svc.UpdateAvatar(context.Background(), alice.ID, "https://cdn/one.png", "avatars/one")
	require.NoError(t, err)
	assert.Empty(t, fake.deleted)

	updated, err := svc.UpdateAvatar(context.Background(), alice.ID, "https://cdn/two.png", "avatars/two")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/two.png", updated.Avatar)
	assert.Equal(t, []string{"avatars/one"}, fake.deleted)
}

func TestUpdateAvatarSurvivesDeleteFailure(t *testing.T) {
	db := setupTestDB(t)
	fake := &fakeMediaDeleter{err: ErrUpstream}
	svc := NewUserService(db, fake)
	alice := createTestUser(t, db, "alice")

	_, err := svc.UpdateAvatar(context.Background(), alice.ID, "https://cdn/one.png", "avatars/one")
	require.NoError(t, err)

	updated, err := svc.UpdateAvatar(context.Background(), alice.ID, "https://cdn/two.png", "avatars/two")
	require.NoError(t, err)
	assert.Equal(t, "avatars/two", updated.AvatarPublicID)
}

func TestSuggestedExcludesFollowedAndSelf(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db, nil)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	dave := createTestUser(t, db, "dave")

	follow(t, db, alice.ID, bob.ID)

	// carol is the most followed
	follow(t, db, bob.ID, carol.ID)
	follow(t, db, dave.ID, carol.ID)

	suggested, err := svc.Suggested(alice.ID, 10)
	require.NoError(t, err)

	names := make([]string, 0, len(suggested))
	for _, u := range suggested {
		names = append(names, u.Name)
	}
	assert.NotContains(t, names, "alice")
	assert.NotContains(t, names, "bob")
	assert.Contains(t, names, "carol")
	assert.Contains(t, names, "dave")
	assert.Equal(t, "carol", names[0])
}

func TestSearchUsers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db, nil)
	for i := 0; i < 3; i++ {
		createTestUser(t, db, fmt.Sprintf("gopher%d", i))
	}
	createTestUser(t, db, "pythonista")

	list, err := svc.SearchUsers("gopher", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)

	_, err = svc.SearchUsers("   ", 10, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserStats(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db, nil)
	posts := NewPostService(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	post := createLivePost(t, db, alice.ID, "stats")
	_, err := posts.ToggleReaction(post.ID, bob.ID, models.ReactionLike)
	require.NoError(t, err)
	_, err = posts.ToggleRepost(post.ID, bob.ID)
	require.NoError(t, err)
	follow(t, db, bob.ID, alice.ID)

	stats, err := svc.Stats(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Posts)
	assert.Equal(t, int64(1), stats.LikesReceived)
	assert.Zero(t, stats.DislikesReceived)
	assert.Equal(t, int64(1), stats.RepostsReceived)
	assert.Equal(t, int64(1), stats.Followers)
	assert.Zero(t, stats.Following)

	_, err = svc.Stats(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
