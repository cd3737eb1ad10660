package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/example/storefront/pkg/media"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type SettingsInput struct {
	MarqueeText string `json:"marquee_text"`
	BannerText  string `json:"banner_text"`
}

type DeliveryInput struct {
	DeliveryCharge    *float64 `json:"deliveryCharge"`
	FreeDeliveryAbove *float64 `json:"freeDeliveryAbove"`
}

// ContentService manages per-store settings and the banner carousel.
// Settings are keyed by the store id, which the admin resolves through the
// store they own.
type ContentService struct {
	content ContentStore
	admins  AdminStore
	cache   SettingsCache
	images  ImageHost
	logger  *zap.Logger
}

func NewContentService(content ContentStore, admins AdminStore, cache SettingsCache, images ImageHost, logger *zap.Logger) *ContentService {
	return &ContentService{
		content: content,
		admins:  admins,
		cache:   cache,
		images:  images,
		logger:  logger.Named("content"),
	}
}

func (s *ContentService) storeOf(ctx context.Context, adminID primitive.ObjectID) (primitive.ObjectID, error) {
	store, err := s.admins.FindStore(ctx, adminID)
	if err != nil {
		return primitive.NilObjectID, notFound(err, "store")
	}
	return store.ID, nil
}

// AdminSettings returns the settings of the admin's store.
func (s *ContentService) AdminSettings(ctx context.Context, adminID primitive.ObjectID) (*models.Setting, error) {
	storeID, err := s.storeOf(ctx, adminID)
	if err != nil {
		return nil, err
	}
	return s.settings(ctx, storeID)
}

// StoreSettings is the public read used by the app.
func (s *ContentService) StoreSettings(ctx context.Context, storeID string) (*models.Setting, error) {
	oid, err := parseID("storeId", storeID)
	if err != nil {
		return nil, err
	}
	return s.settings(ctx, oid)
}

// settings reads through the cache. A store without saved settings yields
// nil with no error.
func (s *ContentService) settings(ctx context.Context, storeID primitive.ObjectID) (*models.Setting, error) {
	if s.cache != nil {
		cached, err := s.cache.CachedSettings(ctx, storeID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Settings cache read failed", zap.String("store_id", storeID.Hex()), zap.Error(err))
		}
	}

	setting, err := s.content.FindSettings(ctx, storeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// Cache in Redis
	if s.cache != nil {
		if err := s.cache.CacheSettings(ctx, setting); err != nil {
			s.logger.Warn("Settings cache write failed", zap.String("store_id", storeID.Hex()), zap.Error(err))
		}
	}
	return setting, nil
}

func (s *ContentService) invalidate(ctx context.Context, storeID primitive.ObjectID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSettings(ctx, storeID); err != nil {
		s.logger.Warn("Settings cache invalidation failed", zap.String("store_id", storeID.Hex()), zap.Error(err))
	}
}

// SaveSettings upserts the store texts, leaving empty values unchanged.
func (s *ContentService) SaveSettings(ctx context.Context, adminID primitive.ObjectID, in SettingsInput) (*models.Setting, error) {
	storeID, err := s.storeOf(ctx, adminID)
	if err != nil {
		return nil, err
	}
	setting, err := s.content.SaveSettingTexts(ctx, storeID, in.MarqueeText, in.BannerText)
	if err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	s.invalidate(ctx, storeID)
	return setting, nil
}

func (s *ContentService) SaveDelivery(ctx context.Context, adminID primitive.ObjectID, in DeliveryInput) (*models.Setting, error) {
	if in.DeliveryCharge == nil && in.FreeDeliveryAbove == nil {
		return nil, fail(ErrValidation, "deliveryCharge or freeDeliveryAbove is required")
	}
	if (in.DeliveryCharge != nil && *in.DeliveryCharge < 0) || (in.FreeDeliveryAbove != nil && *in.FreeDeliveryAbove < 0) {
		return nil, fail(ErrValidation, "delivery amounts cannot be negative")
	}
	storeID, err := s.storeOf(ctx, adminID)
	if err != nil {
		return nil, err
	}
	setting, err := s.content.SaveDeliverySettings(ctx, storeID, in.DeliveryCharge, in.FreeDeliveryAbove)
	if err != nil {
		return nil, fmt.Errorf("failed to save delivery settings: %w", err)
	}
	s.invalidate(ctx, storeID)
	return setting, nil
}

// Banners

func (s *ContentService) AddBanner(ctx context.Context, image io.Reader) (*models.Banner, error) {
	if image == nil {
		return nil, fail(ErrValidation, "image is required")
	}
	img, err := s.images.Upload(ctx, image, media.FolderBanners, "")
	if err != nil {
		return nil, fail(ErrGateway, "%s", err.Error())
	}
	banner := &models.Banner{ImageURL: img.URL, PublicID: img.PublicID}
	if err := s.content.CreateBanner(ctx, banner); err != nil {
		if derr := s.images.Destroy(ctx, img.PublicID); derr != nil {
			s.logger.Warn("Failed to destroy orphaned banner image", zap.String("public_id", img.PublicID), zap.Error(derr))
		}
		return nil, fmt.Errorf("failed to save banner: %w", err)
	}
	return banner, nil
}

func (s *ContentService) ListBanners(ctx context.Context) ([]models.Banner, error) {
	return s.content.ListBanners(ctx)
}

func (s *ContentService) DeleteBanner(ctx context.Context, id string) error {
	oid, err := parseID("banner id", id)
	if err != nil {
		return err
	}
	banner, err := s.content.FindBanner(ctx, oid)
	if err != nil {
		return notFound(err, "banner")
	}
	if banner.PublicID != "" {
		if err := s.images.Destroy(ctx, banner.PublicID); err != nil {
			return fail(ErrGateway, "%s", err.Error())
		}
	}
	return notFound(s.content.DeleteBanner(ctx, oid), "banner")
}
