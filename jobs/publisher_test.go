package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ripple-social/ripple/models"
	"github.com/ripple-social/ripple/utils"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	if utils.Sugar == nil {
		utils.Logger = zap.NewNop()
		utils.Sugar = utils.Logger.Sugar()
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}))
	return db
}

func seedPost(t *testing.T, db *gorm.DB, isDraft bool, scheduledAt, publishedAt *time.Time) models.Post {
	t.Helper()
	user := models.User{Name: "author", Email: "author@example.com"}
	if err := db.Where("name = ?", user.Name).First(&user).Error; err != nil {
		require.NoError(t, db.Create(&user).Error)
	}
	post := models.Post{
		UserID:      user.ID,
		Content:     "scheduled content",
		IsDraft:     isDraft,
		ScheduledAt: scheduledAt,
		PublishedAt: publishedAt,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func TestSweepPromotesDuePosts(t *testing.T) {
	db := setupTestDB(t)
	pub := NewScheduledPublisher(db)

	past := time.Now().Add(-time.Minute)
	due := seedPost(t, db, false, &past, nil)

	now := time.Now()
	n, err := pub.Sweep(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, due.ID).Error)
	require.NotNil(t, reloaded.PublishedAt)
	assert.WithinDuration(t, now, *reloaded.PublishedAt, time.Second)
}

func TestSweepLeavesDraftsAndFuturePosts(t *testing.T) {
	db := setupTestDB(t)
	pub := NewScheduledPublisher(db)

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	draft := seedPost(t, db, true, &past, nil)
	scheduled := seedPost(t, db, false, &future, nil)

	n, err := pub.Sweep(time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, draft.ID).Error)
	assert.Nil(t, reloaded.PublishedAt)
	var reloadedScheduled models.Post
	require.NoError(t, db.First(&reloadedScheduled, scheduled.ID).Error)
	assert.Nil(t, reloadedScheduled.PublishedAt)
}

func TestSweepIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	pub := NewScheduledPublisher(db)

	past := time.Now().Add(-time.Minute)
	due := seedPost(t, db, false, &past, nil)

	first := time.Now()
	n, err := pub.Sweep(first)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = pub.Sweep(time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, due.ID).Error)
	require.NotNil(t, reloaded.PublishedAt)
	assert.WithinDuration(t, first, *reloaded.PublishedAt, time.Second)
}

func TestPublisherLoopPublishes(t *testing.T) {
	db := setupTestDB(t)

	past := time.Now().Add(-time.Minute)
	due := seedPost(t, db, false, &past, nil)

	pub := NewScheduledPublisher(db).WithInterval(10 * time.Millisecond)
	pub.Start()
	defer pub.Stop()

	deadline := time.After(2 * time.Second)
	for {
		var reloaded models.Post
		require.NoError(t, db.First(&reloaded, due.ID).Error)
		if reloaded.PublishedAt != nil {
			return
		}
		select {
		case <-deadline:
			t.Fatal("post was not published by the loop in time")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
