package repository

import (
	"context"
	"time"

	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ContentRepository struct {
	settings *mongo.Collection
	banners  *mongo.Collection
}

func NewContentRepository(m *MongoRepository) *ContentRepository {
	return &ContentRepository{
		settings: m.collection(collSettings),
		banners:  m.collection(collBanners),
	}
}

func (r *ContentRepository) FindSettings(ctx context.Context, storeID primitive.ObjectID) (*models.Setting, error) {
	return findOne[models.Setting](ctx, r.settings, bson.M{"storeId": storeID})
}

// SaveSettingTexts upserts the store texts; empty values keep what is stored.
func (r *ContentRepository) SaveSettingTexts(ctx context.Context, storeID primitive.ObjectID, marquee, banner string) (*models.Setting, error) {
	set := bson.M{}
	if marquee != "" {
		set["marquee_text"] = marquee
	}
	if banner != "" {
		set["banner_text"] = banner
	}
	return r.upsertSettings(ctx, storeID, set)
}

func (r *ContentRepository) SaveDeliverySettings(ctx context.Context, storeID primitive.ObjectID, charge, freeAbove *float64) (*models.Setting, error) {
	set := bson.M{}
	if charge != nil {
		set["deliveryCharge"] = *charge
	}
	if freeAbove != nil {
		set["freeDeliveryAbove"] = *freeAbove
	}
	return r.upsertSettings(ctx, storeID, set)
}

func (r *ContentRepository) upsertSettings(ctx context.Context, storeID primitive.ObjectID, set bson.M) (*models.Setting, error) {
	now := time.Now().UTC()
	set["updatedAt"] = now
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"storeId": storeID, "createdAt": now},
	}

	var s models.Setting
	err := r.settings.FindOneAndUpdate(ctx, bson.M{"storeId": storeID}, update, afterUpdate().SetUpsert(true)).Decode(&s)
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

func (r *ContentRepository) CreateBanner(ctx context.Context, b *models.Banner) error {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	b.CreatedAt = time.Now().UTC()

	_, err := r.banners.InsertOne(ctx, b)
	return mapError(err)
}

func (r *ContentRepository) FindBanner(ctx context.Context, id primitive.ObjectID) (*models.Banner, error) {
	return findOne[models.Banner](ctx, r.banners, bson.M{"_id": id})
}

func (r *ContentRepository) ListBanners(ctx context.Context) ([]models.Banner, error) {
	return findAll[models.Banner](ctx, r.banners, bson.M{}, newestFirst())
}

func (r *ContentRepository) DeleteBanner(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.banners, id)
}
