package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ripple-social/ripple/middleware"
	"github.com/ripple-social/ripple/services"
	"github.com/ripple-social/ripple/utils"
)

const (
	profileCachePrefix = "cache:profile:"
	profileCacheTTL    = time.Minute

	maxAvatarBytes = 5 << 20
)

// UserController exposes profiles, the follow graph and avatar uploads.
type UserController struct {
	users     *services.UserService
	followers *services.FollowerService
	media     *services.MediaService
}

func NewUserController(db *gorm.DB, media *services.MediaService) *UserController {
	return &UserController{
		users:     services.NewUserService(db, media),
		followers: services.NewFollowerService(db),
		media:     media,
	}
}

// Profile returns a user's public profile. Anonymous lookups are served
// from cache when possible since they carry no viewer-specific state.
func (u *UserController) Profile(ctx *gin.Context) {
	name := strings.TrimSpace(ctx.Param("name"))
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40040, "missing user name")
		return
	}
	viewerID := middleware.CurrentUserID(ctx)

	if viewerID == 0 {
		if b, ok := utils.CacheGetBytes(profileCachePrefix + name); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	profile, err := u.users.Profile(name, viewerID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	if viewerID == 0 {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: profile}
		utils.CacheSetJSON(profileCachePrefix+name, wrapper, profileCacheTTL)
	}
	utils.Success(ctx, profile)
}

// UpdateProfile changes name, email or bio of the signed-in user.
func (u *UserController) UpdateProfile(ctx *gin.Context) {
	userID := middleware.CurrentUserID(ctx)

	var input services.UpdateProfileInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid request payload")
		return
	}

	user, err := u.users.UpdateProfile(userID, input)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(profileCachePrefix)
	utils.Success(ctx, user)
}

// UploadAvatar stores a new avatar image and links it to the account.
func (u *UserController) UploadAvatar(ctx *gin.Context) {
	userID := middleware.CurrentUserID(ctx)
	if u.media == nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "media storage not configured")
		return
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40042, "missing file")
		return
	}
	if header.Size > maxAvatarBytes {
		utils.Error(ctx, http.StatusBadRequest, 40043, "file exceeds 5MB limit")
		return
	}
	if !allowedImageType(header.Header.Get("Content-Type")) {
		utils.Error(ctx, http.StatusBadRequest, 40044, "unsupported file type")
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40042, "unreadable file")
		return
	}
	defer file.Close()

	result, err := u.media.Upload(ctx.Request.Context(), file, services.UploadOptions{
		Folder: "avatars",
		Avatar: true,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	user, err := u.users.UpdateAvatar(ctx.Request.Context(), userID, result.URL, result.PublicID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(profileCachePrefix)
	utils.Success(ctx, gin.H{"user": user, "media": result})
}

func (u *UserController) Follow(ctx *gin.Context) {
	targetID, ok := uintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40045, "invalid user id")
		return
	}
	if err := u.followers.Follow(middleware.CurrentUserID(ctx), targetID); err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"following": true})
}

func (u *UserController) Unfollow(ctx *gin.Context) {
	targetID, ok := uintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40045, "invalid user id")
		return
	}
	if err := u.followers.Unfollow(middleware.CurrentUserID(ctx), targetID); err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"following": false})
}

func (u *UserController) Followers(ctx *gin.Context) {
	targetID, ok := uintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40045, "invalid user id")
		return
	}
	list, err := u.followers.Followers(targetID, intQuery(ctx, "limit", 20), intQuery(ctx, "offset", 0))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, list)
}

func (u *UserController) Following(ctx *gin.Context) {
	targetID, ok := uintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40045, "invalid user id")
		return
	}
	list, err := u.followers.Following(targetID, intQuery(ctx, "limit", 20), intQuery(ctx, "offset", 0))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, list)
}

func (u *UserController) Relationship(ctx *gin.Context) {
	targetID, ok := uintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40045, "invalid user id")
		return
	}
	rel, err := u.followers.Relationship(middleware.CurrentUserID(ctx), targetID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, rel)
}

func (u *UserController) Suggested(ctx *gin.Context) {
	items, err := u.users.Suggested(middleware.CurrentUserID(ctx), intQuery(ctx, "limit", 10))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

func (u *UserController) Search(ctx *gin.Context) {
	list, err := u.users.SearchUsers(ctx.Query("q"), intQuery(ctx, "limit", 20), intQuery(ctx, "offset", 0))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, list)
}

// Stats returns activity totals for the signed-in user.
func (u *UserController) Stats(ctx *gin.Context) {
	stats, err := u.users.Stats(middleware.CurrentUserID(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, stats)
}

func allowedImageType(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
