package main

import (
	"github.com/ripple-social/ripple/config"
	"github.com/ripple-social/ripple/jobs"
	"github.com/ripple-social/ripple/models"
	"github.com/ripple-social/ripple/routes"
	"github.com/ripple-social/ripple/services"
	"github.com/ripple-social/ripple/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Post{},
		&models.PostLike{},
		&models.PostRepost{},
		&models.Follower{},
		&models.Notification{},
	)

	var media *services.MediaService
	if cfg.CloudinaryCloudName != "" {
		m, err := services.NewMediaService(cfg)
		if err != nil {
			utils.Sugar.Fatalf("media service init failed: %v", err)
		}
		media = m
	} else {
		utils.Sugar.Warn("cloudinary not configured, media endpoints disabled")
	}

	publisher := jobs.NewScheduledPublisher(db)
	publisher.Start()
	defer publisher.Stop()

	r := routes.SetupRouter(db, media)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
