package services

import (
	"fmt"
	"testing"
	"time"

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

	// a single connection keeps the in-memory database alive and
	// serializes concurrent fan-out writes
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.PostLike{},
		&models.PostRepost{},
		&models.Follower{},
		&models.Notification{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	user := models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createLivePost(t *testing.T, db *gorm.DB, userID uint, content string) models.Post {
	t.Helper()
	return createLivePostAt(t, db, userID, content, time.Now())
}

func createLivePostAt(t *testing.T, db *gorm.DB, userID uint, content string, publishedAt time.Time) models.Post {
	t.Helper()
	post := models.Post{
		UserID:      userID,
		Content:     content,
		PublishedAt: &publishedAt,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func follow(t *testing.T, db *gorm.DB, followerID, followedID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.Follower{
		FollowerUserID: followerID,
		FollowedUserID: followedID,
	}).Error)
}
