package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ripple-social/ripple/services"
	"github.com/ripple-social/ripple/utils"
)

const (
	maxUploadBytes     = 5 << 20
	maxBatchUploadSize = 5
)

// MediaController handles direct media uploads for post attachments.
type MediaController struct {
	media *services.MediaService
}

func NewMediaController(media *services.MediaService) *MediaController {
	return &MediaController{media: media}
}

func (m *MediaController) available(ctx *gin.Context) bool {
	if m.media == nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "media storage not configured")
		return false
	}
	return true
}

// Upload stores an image and returns its URL and public id.
func (m *MediaController) Upload(ctx *gin.Context) {
	if !m.available(ctx) {
		return
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "missing file")
		return
	}
	if header.Size > maxUploadBytes {
		utils.Error(ctx, http.StatusBadRequest, 40061, "file exceeds 5MB limit")
		return
	}
	if !allowedImageType(header.Header.Get("Content-Type")) {
		utils.Error(ctx, http.StatusBadRequest, 40062, "unsupported file type")
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "unreadable file")
		return
	}
	defer file.Close()

	opts := services.UploadOptions{Folder: "posts"}
	if ctx.PostForm("thumbnail") == "true" {
		opts.Folder = "thumbnails"
		opts.Thumbnail = true
	}
	result, err := m.media.Upload(ctx.Request.Context(), file, opts)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, result)
}

// UploadMultiple stores a batch of images in one request.
func (m *MediaController) UploadMultiple(ctx *gin.Context) {
	if !m.available(ctx) {
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid multipart form")
		return
	}
	headers := form.File["images"]
	if len(headers) == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40060, "missing files")
		return
	}
	if len(headers) > maxBatchUploadSize {
		utils.Error(ctx, http.StatusBadRequest, 40065, "too many files, maximum is 5")
		return
	}

	files := make([]io.Reader, 0, len(headers))
	for _, header := range headers {
		if header.Size > maxUploadBytes {
			utils.Error(ctx, http.StatusBadRequest, 40061, "file exceeds 5MB limit")
			return
		}
		if !allowedImageType(header.Header.Get("Content-Type")) {
			utils.Error(ctx, http.StatusBadRequest, 40062, "unsupported file type")
			return
		}
		f, err := header.Open()
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40060, "unreadable file")
			return
		}
		defer f.Close()
		files = append(files, f)
	}

	results, err := m.media.UploadMultiple(ctx.Request.Context(), files, services.UploadOptions{Folder: "posts"})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"uploaded": len(results), "items": results})
}

// Crop returns a delivery URL for a rectangular crop of an uploaded asset.
func (m *MediaController) Crop(ctx *gin.Context) {
	if !m.available(ctx) {
		return
	}

	var req struct {
		PublicID string `json:"public_id" binding:"required"`
		X        int    `json:"x"`
		Y        int    `json:"y"`
		Width    int    `json:"width" binding:"required"`
		Height   int    `json:"height" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40063, "invalid request payload")
		return
	}

	url, err := m.media.CropURL(req.PublicID, req.X, req.Y, req.Width, req.Height)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"url": url})
}

// Delete removes an uploaded asset by its public id.
func (m *MediaController) Delete(ctx *gin.Context) {
	if !m.available(ctx) {
		return
	}

	publicID := strings.TrimSpace(ctx.Param("public_id"))
	if publicID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40064, "missing public id")
		return
	}

	if err := m.media.Delete(ctx.Request.Context(), publicID); err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": true})
}

// Info returns the stored metadata of an uploaded asset.
func (m *MediaController) Info(ctx *gin.Context) {
	if !m.available(ctx) {
		return
	}

	publicID := strings.TrimSpace(ctx.Param("public_id"))
	if publicID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40064, "missing public id")
		return
	}

	info, err := m.media.Info(ctx.Request.Context(), publicID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, info)
}

// Optimize returns a delivery URL with optional width, quality and
// format overrides.
func (m *MediaController) Optimize(ctx *gin.Context) {
	if !m.available(ctx) {
		return
	}

	publicID := strings.TrimSpace(ctx.Param("public_id"))
	if publicID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40064, "missing public id")
		return
	}

	width := intQuery(ctx, "width", 0)
	url, err := m.media.OptimizedURL(publicID, width, ctx.Query("quality"), ctx.Query("format"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"url": url})
}

// Resize returns a delivery URL that fills the requested box.
func (m *MediaController) Resize(ctx *gin.Context) {
	if !m.available(ctx) {
		return
	}

	var req struct {
		PublicID string `json:"public_id" binding:"required"`
		Width    int    `json:"width" binding:"required"`
		Height   int    `json:"height" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40063, "invalid request payload")
		return
	}

	url, err := m.media.ResizeURL(req.PublicID, req.Width, req.Height)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"url": url})
}
