package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/ripple-social/ripple/config"
)

const (
	avatarTransformation    = "c_fill,g_face,w_200,h_200"
	thumbnailTransformation = "c_fill,w_150,h_150,q_auto,f_auto"

	maxBatchUploadFiles = 5
)

// UploadResult describes a stored media asset.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bytes    int    `json:"bytes"`
	Format   string `json:"format"`
}

type UploadOptions struct {
	Folder string
	// Avatar applies the square face-crop preset at upload time.
	Avatar bool
	// Thumbnail applies the small square preset instead.
	Thumbnail bool
}

// AssetInfo is the stored metadata of an uploaded asset.
type AssetInfo struct {
	PublicID  string    `json:"public_id"`
	URL       string    `json:"url"`
	Format    string    `json:"format"`
	Bytes     int       `json:"bytes"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
	Tags      []string  `json:"tags,omitempty"`
}

// MediaService stores media on Cloudinary.
type MediaService struct {
	cld *cloudinary.Cloudinary
}

func NewMediaService(cfg config.AppConfig) (*MediaService, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &MediaService{cld: cld}, nil
}

func (s *MediaService) Upload(ctx context.Context, r io.Reader, opts UploadOptions) (*UploadResult, error) {
	params := uploader.UploadParams{Folder: opts.Folder}
	if opts.Avatar {
		params.Transformation = avatarTransformation
	} else if opts.Thumbnail {
		params.Transformation = thumbnailTransformation
	}
	resp, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return nil, fmt.Errorf("media upload: %w: %v", ErrUpstream, err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("media upload: %w: %s", ErrUpstream, resp.Error.Message)
	}
	return &UploadResult{
		URL:      resp.SecureURL,
		PublicID: resp.PublicID,
		Width:    resp.Width,
		Height:   resp.Height,
		Bytes:    resp.Bytes,
		Format:   resp.Format,
	}, nil
}

func (s *MediaService) Delete(ctx context.Context, publicID string) error {
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("media delete: %w: %v", ErrUpstream, err)
	}
	switch resp.Result {
	case "ok":
		return nil
	case "not found":
		return ErrNotFound
	default:
		return fmt.Errorf("media delete: %w: %s", ErrUpstream, resp.Result)
	}
}

// CropURL builds a delivery URL for a rectangular crop of an existing
// asset. Nothing is re-uploaded; the crop is a derived transformation.
func (s *MediaService) CropURL(publicID string, x, y, w, h int) (string, error) {
	if w <= 0 || h <= 0 || x < 0 || y < 0 {
		return "", ErrValidation
	}
	img, err := s.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("media crop: %w: %v", ErrUpstream, err)
	}
	img.Transformation = fmt.Sprintf("x_%d,y_%d,w_%d,h_%d,c_crop", x, y, w, h)
	url, err := img.String()
	if err != nil {
		return "", fmt.Errorf("media crop: %w: %v", ErrUpstream, err)
	}
	return url, nil
}

// ResizeURL builds a delivery URL that fills the given box, with
// automatic quality and format negotiation.
func (s *MediaService) ResizeURL(publicID string, w, h int) (string, error) {
	if w <= 0 || h <= 0 {
		return "", ErrValidation
	}
	return s.derivedURL(publicID, fmt.Sprintf("c_fill,w_%d,h_%d,q_auto,f_auto", w, h))
}

// OptimizedURL builds a delivery URL with optional width, quality and
// format overrides. Quality and format default to automatic.
func (s *MediaService) OptimizedURL(publicID string, width int, quality, format string) (string, error) {
	if width < 0 {
		return "", ErrValidation
	}
	if quality == "" {
		quality = "auto"
	}
	if format == "" {
		format = "auto"
	}

	parts := []string{"q_" + quality, "f_" + format}
	if width > 0 {
		parts = append(parts, fmt.Sprintf("w_%d,c_limit", width))
	}
	return s.derivedURL(publicID, strings.Join(parts, ","))
}

func (s *MediaService) derivedURL(publicID, transformation string) (string, error) {
	img, err := s.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("media url: %w: %v", ErrUpstream, err)
	}
	img.Transformation = transformation
	url, err := img.String()
	if err != nil {
		return "", fmt.Errorf("media url: %w: %v", ErrUpstream, err)
	}
	return url, nil
}

// Info fetches the stored metadata of an asset.
func (s *MediaService) Info(ctx context.Context, publicID string) (*AssetInfo, error) {
	resp, err := s.cld.Admin.Asset(ctx, admin.AssetParams{PublicID: publicID})
	if err != nil {
		return nil, fmt.Errorf("media info: %w: %v", ErrUpstream, err)
	}
	if resp.Error.Message != "" {
		if strings.Contains(strings.ToLower(resp.Error.Message), "not found") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("media info: %w: %s", ErrUpstream, resp.Error.Message)
	}
	return &AssetInfo{
		PublicID:  resp.PublicID,
		URL:       resp.SecureURL,
		Format:    resp.Format,
		Bytes:     resp.Bytes,
		Width:     resp.Width,
		Height:    resp.Height,
		CreatedAt: resp.CreatedAt,
		Tags:      resp.Tags,
	}, nil
}

// UploadMultiple stores up to maxBatchUploadFiles assets in one call.
// The batch fails fast on the first upload error.
func (s *MediaService) UploadMultiple(ctx context.Context, files []io.Reader, opts UploadOptions) ([]*UploadResult, error) {
	if len(files) == 0 {
		return nil, ErrValidation
	}
	if len(files) > maxBatchUploadFiles {
		return nil, ErrValidation
	}

	results := make([]*UploadResult, 0, len(files))
	for _, f := range files {
		res, err := s.Upload(ctx, f, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}
