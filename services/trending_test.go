package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-social/ripple/models"
)

func TestTrendingRespectsWindow(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)
	author := createTestUser(t, db, "alice")

	recent := createLivePostAt(t, db, author.ID, "fresh", time.Now().Add(-30*time.Minute))
	createLivePostAt(t, db, author.ID, "stale", time.Now().Add(-48*time.Hour))

	result, err := svc.Trending("1h", 10, 0)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, recent.ID, result.Items[0].ID)
	assert.False(t, result.IsFallback)

	wide, err := svc.Trending("7d", 10, 0)
	require.NoError(t, err)
	assert.Len(t, wide.Items, 2)
}

func TestTrendingExcludesDraftsAndScheduled(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)
	author := createTestUser(t, db, "alice")

	createLivePost(t, db, author.ID, "visible")
	_, err := svc.Create(author.ID, CreatePostInput{Content: "draft", IsDraft: true})
	require.NoError(t, err)
	future := time.Now().Add(time.Hour)
	_, err = svc.Create(author.ID, CreatePostInput{Content: "scheduled", ScheduledAt: &future})
	require.NoError(t, err)

	result, err := svc.Trending("24h", 10, 0)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "visible", result.Items[0].Content)
}

func TestTrendingOrdersByEngagement(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)
	author := createTestUser(t, db, "alice")

	published := time.Now().Add(-time.Hour)
	quiet := createLivePostAt(t, db, author.ID, "quiet", published)
	popular := createLivePostAt(t, db, author.ID, "popular", published)

	for i := 0; i < 3; i++ {
		fan := createTestUser(t, db, fmt.Sprintf("fan%d", i))
		_, err := svc.ToggleReaction(popular.ID, fan.ID, models.ReactionLike)
		require.NoError(t, err)
	}

	result, err := svc.Trending("24h", 10, 0)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, popular.ID, result.Items[0].ID)
	assert.Equal(t, quiet.ID, result.Items[1].ID)
	assert.Greater(t, result.Items[0].Score, result.Items[1].Score)
}

func TestTrendingFallbackWhenWindowEmpty(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)
	author := createTestUser(t, db, "alice")

	old := createLivePostAt(t, db, author.ID, "ancient hit", time.Now().Add(-90*24*time.Hour))

	result, err := svc.Trending("1h", 10, 0)
	require.NoError(t, err)
	assert.True(t, result.IsFallback)
	require.Len(t, result.Items, 1)
	assert.Equal(t, old.ID, result.Items[0].ID)
	assert.True(t, result.Items[0].IsFallback)
}

func TestTrendingDefaultsAndValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)
	author := createTestUser(t, db, "alice")
	createLivePost(t, db, author.ID, "hello")

	result, err := svc.Trending("", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "24h", result.Window)

	_, err = svc.Trending("2h", 10, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTrendingLimitClamp(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)
	author := createTestUser(t, db, "alice")
	for i := 0; i < 15; i++ {
		createLivePostAt(t, db, author.ID, fmt.Sprintf("post %d", i),
			time.Now().Add(-time.Duration(i)*time.Minute))
	}

	result, err := svc.Trending("24h", 12, 0)
	require.NoError(t, err)
	assert.Len(t, result.Items, 12)
}

func TestTrendingViewerState(t *testing.T) {
	db := setupTestDB(t)
	svc := NewPostService(db)
	author := createTestUser(t, db, "alice")
	fan := createTestUser(t, db, "bob")
	post := createLivePost(t, db, author.ID, "liked one")

	_, err := svc.ToggleReaction(post.ID, fan.ID, models.ReactionLike)
	require.NoError(t, err)

	result, err := svc.Trending("24h", 10, fan.ID)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.NotNil(t, result.Items[0].Viewer.Reaction)
	assert.Equal(t, models.ReactionLike, *result.Items[0].Viewer.Reaction)
	assert.Equal(t, int64(1), result.Items[0].Engagement.Likes)
}
