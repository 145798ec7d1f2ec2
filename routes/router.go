package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ripple-social/ripple/config"
	"github.com/ripple-social/ripple/controllers"
	"github.com/ripple-social/ripple/middleware"
	"github.com/ripple-social/ripple/services"
	"github.com/ripple-social/ripple/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, media *services.MediaService) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.AccessLogPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	postController := controllers.NewPostController(db)
	userController := controllers.NewUserController(db, media)
	notificationController := controllers.NewNotificationController(db)
	mediaController := controllers.NewMediaController(media)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/signup", authController.Signup)
	authGroup.POST("/signin", authController.Signin)
	authGroup.POST("/forgot-password", authController.ForgotPassword)
	authGroup.POST("/reset-password", authController.ResetPassword)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/refresh-token", authController.RefreshToken)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	postsGroup := api.Group("/posts")
	postsGroup.GET("/trending", middleware.OptionalAuth(), postController.Trending)
	postsGroup.GET("/search", middleware.OptionalAuth(), postController.Search)
	postsGroup.GET("/users/:id", middleware.OptionalAuth(), postController.ListByUser)
	postsGroup.GET("/:id", middleware.OptionalAuth(), postController.Get)

	postsAuth := api.Group("/posts")
	postsAuth.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	postsAuth.POST("/create", postController.Create)
	postsAuth.PUT("/:id", postController.Update)
	postsAuth.DELETE("/:id", postController.Delete)
	postsAuth.POST("/:id/like", postController.ToggleReaction)
	postsAuth.POST("/:id/repost", postController.ToggleRepost)
	postsAuth.GET("/:id/analytics", postController.Analytics)

	usersGroup := api.Group("/users")
	usersGroup.GET("/profile/:name", middleware.OptionalAuth(), userController.Profile)
	usersGroup.GET("/search", userController.Search)
	usersGroup.GET("/:id/followers", userController.Followers)
	usersGroup.GET("/:id/following", userController.Following)

	usersAuth := api.Group("/users")
	usersAuth.Use(middleware.AuthRequired())
	usersAuth.GET("/suggested", userController.Suggested)
	usersAuth.GET("/stats", userController.Stats)
	usersAuth.GET("/:id/relationship", userController.Relationship)
	usersAuth.POST("/:id/follow", userController.Follow)
	usersAuth.POST("/:id/unfollow", userController.Unfollow)
	usersAuth.PATCH("/profile", userController.UpdateProfile)
	usersAuth.POST("/avatar", userController.UploadAvatar)

	notifGroup := api.Group("/notifications")
	notifGroup.Use(middleware.AuthRequired())
	notifGroup.GET("", notificationController.List)
	notifGroup.GET("/stats", notificationController.Stats)
	notifGroup.PUT("/:id/mark_as_read", notificationController.MarkRead)
	notifGroup.PUT("/mark_all_read", notificationController.MarkAllRead)
	notifGroup.DELETE("/:id", notificationController.Delete)
	notifGroup.DELETE("", notificationController.ClearAll)

	mediaGroup := api.Group("/media")
	mediaGroup.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	mediaGroup.POST("/upload", mediaController.Upload)
	mediaGroup.POST("/upload/multiple", mediaController.UploadMultiple)
	mediaGroup.POST("/crop", mediaController.Crop)
	mediaGroup.POST("/resize", mediaController.Resize)
	mediaGroup.GET("/info/:public_id", mediaController.Info)
	mediaGroup.GET("/optimize/:public_id", mediaController.Optimize)
	mediaGroup.DELETE("/:public_id", mediaController.Delete)

	return r
}
