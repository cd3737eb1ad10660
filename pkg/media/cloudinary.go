package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/example/storefront/pkg/config"
)

// Upload folders and transformations used by the storefront.
const (
	FolderStoreLogo  = "store/logo"
	FolderCategories = "categories"
	FolderProducts   = "products"
	FolderBanners    = "banners"

	LimitLogo = "c_limit,w_300,h_300"
)

// Image is a hosted image reference.
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

type Uploader struct {
	cld *cloudinary.Cloudinary
}

func NewUploader(cfg *config.CloudinaryConfig) (*Uploader, error) {
	if cfg.CloudName == "" {
		return nil, errors.New("cloudinary: cloud_name is required")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	return &Uploader{cld: cld}, nil
}

func (u *Uploader) Upload(ctx context.Context, file io.Reader, folder, transformation string) (*Image, error) {
	params := uploader.UploadParams{Folder: folder}
	if transformation != "" {
		params.Transformation = transformation
	}

	res, err := u.cld.Upload.Upload(ctx, file, params)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("failed to upload image: %s", res.Error.Message)
	}
	return &Image{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

func (u *Uploader) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	res, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to destroy image %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("failed to destroy image %s: %s", publicID, res.Error.Message)
	}
	return nil
}
