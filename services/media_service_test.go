package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-social/ripple/config"
)

func setupMediaService(t *testing.T) *MediaService {
	t.Helper()
	svc, err := NewMediaService(config.AppConfig{
		CloudinaryCloudName: "demo",
		CloudinaryAPIKey:    "key",
		CloudinaryAPISecret: "secret",
	})
	require.NoError(t, err)
	return svc
}

func TestCropURLBuildsTransformation(t *testing.T) {
	svc := setupMediaService(t)

	url, err := svc.CropURL("posts/abc123", 10, 20, 300, 200)
	require.NoError(t, err)
	assert.Contains(t, url, "x_10,y_20,w_300,h_200,c_crop")
	assert.Contains(t, url, "posts/abc123")
}

func TestCropURLRejectsBadDimensions(t *testing.T) {
	svc := setupMediaService(t)

	_, err := svc.CropURL("posts/abc123", 0, 0, 0, 100)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CropURL("posts/abc123", -1, 0, 100, 100)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResizeURLBuildsTransformation(t *testing.T) {
	svc := setupMediaService(t)

	url, err := svc.ResizeURL("posts/abc123", 320, 240)
	require.NoError(t, err)
	assert.Contains(t, url, "c_fill,w_320,h_240,q_auto,f_auto")

	_, err = svc.ResizeURL("posts/abc123", 0, 240)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOptimizedURLDefaults(t *testing.T) {
	svc := setupMediaService(t)

	url, err := svc.OptimizedURL("posts/abc123", 0, "", "")
	require.NoError(t, err)
	assert.Contains(t, url, "q_auto,f_auto")
	assert.NotContains(t, url, "w_")

	url, err = svc.OptimizedURL("posts/abc123", 640, "80", "webp")
	require.NoError(t, err)
	assert.Contains(t, url, "q_80,f_webp,w_640,c_limit")
}

func TestUploadMultipleRejectsBadBatches(t *testing.T) {
	svc := setupMediaService(t)

	_, err := svc.UploadMultiple(context.Background(), nil, UploadOptions{})
	assert.ErrorIs(t, err, ErrValidation)

	files := make([]io.Reader, 6)
	for i := range files {
		files[i] = strings.NewReader("x")
	}
	_, err = svc.UploadMultiple(context.Background(), files, UploadOptions{})
	assert.ErrorIs(t, err, ErrValidation)
}
