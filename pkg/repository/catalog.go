package repository

import (
	"context"
	"regexp"
	"time"

	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CatalogRepository struct {
	categories    *mongo.Collection
	subcategories *mongo.Collection
	products      *mongo.Collection
}

func NewCatalogRepository(m *MongoRepository) *CatalogRepository {
	return &CatalogRepository{
		categories:    m.collection(collCategories),
		subcategories: m.collection(collSubcategories),
		products:      m.collection(collProducts),
	}
}

// containing builds a case-insensitive literal substring match.
func containing(keyword string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
}

func replaceByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, doc any) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories

func (r *CatalogRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := r.categories.InsertOne(ctx, c)
	return mapError(err)
}

func (r *CatalogRepository) FindCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	return findOne[models.Category](ctx, r.categories, bson.M{"_id": id})
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	return findAll[models.Category](ctx, r.categories, bson.M{}, options.Find().SetSort(bson.D{{Key: "categoryName", Value: 1}}))
}

func (r *CatalogRepository) CountCategories(ctx context.Context) (int64, error) {
	return r.categories.CountDocuments(ctx, bson.M{})
}

func (r *CatalogRepository) SaveCategory(ctx context.Context, c *models.Category) error {
	c.UpdatedAt = time.Now().UTC()
	return replaceByID(ctx, r.categories, c.ID, c)
}

func (r *CatalogRepository) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.categories, id)
}

func (r *CatalogRepository) FindCategoriesByName(ctx context.Context, keyword string) ([]models.Category, error) {
	return findAll[models.Category](ctx, r.categories, bson.M{"categoryName": containing(keyword)})
}

// Subcategories

func (r *CatalogRepository) CreateSubcategory(ctx context.Context, s *models.Subcategory) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now

	_, err := r.subcategories.InsertOne(ctx, s)
	return mapError(err)
}

func (r *CatalogRepository) FindSubcategory(ctx context.Context, id primitive.ObjectID) (*models.Subcategory, error) {
	return findOne[models.Subcategory](ctx, r.subcategories, bson.M{"_id": id})
}

func (r *CatalogRepository) ListSubcategories(ctx context.Context, categoryID *primitive.ObjectID) ([]models.Subcategory, error) {
	filter := bson.M{}
	if categoryID != nil {
		filter["categoryId"] = *categoryID
	}
	return findAll[models.Subcategory](ctx, r.subcategories, filter, newestFirst())
}

func (r *CatalogRepository) CountSubcategories(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	return r.subcategories.CountDocuments(ctx, bson.M{"categoryId": categoryID})
}

func (r *CatalogRepository) SaveSubcategory(ctx context.Context, s *models.Subcategory) error {
	s.UpdatedAt = time.Now().UTC()
	return replaceByID(ctx, r.subcategories, s.ID, s)
}

func (r *CatalogRepository) DeleteSubcategory(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.subcategories, id)
}

func (r *CatalogRepository) FindSubcategoriesByName(ctx context.Context, keyword string) ([]models.Subcategory, error) {
	return findAll[models.Subcategory](ctx, r.subcategories, bson.M{"subcategoryName": containing(keyword)})
}

// Products

func (r *CatalogRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.products.InsertOne(ctx, p)
	return mapError(err)
}

func (r *CatalogRepository) FindProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return findOne[models.Product](ctx, r.products, bson.M{"_id": id})
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	return findAll[models.Product](ctx, r.products, bson.M{}, newestFirst())
}

func (r *CatalogRepository) SaveProduct(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()
	return replaceByID(ctx, r.products, p.ID, p)
}

func (r *CatalogRepository) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.products, id)
}

func underFilter(categoryID primitive.ObjectID, subcategoryIDs []primitive.ObjectID) bson.M {
	or := bson.A{bson.M{"categoryId": categoryID}}
	if len(subcategoryIDs) > 0 {
		or = append(or, bson.M{"sub_categoryId": bson.M{"$in": subcategoryIDs}})
	}
	return bson.M{"$or": or}
}

// ListProductsUnder returns products filed directly under the category or
// under any of the given subcategories.
func (r *CatalogRepository) ListProductsUnder(ctx context.Context, categoryID primitive.ObjectID, subcategoryIDs []primitive.ObjectID) ([]models.Product, error) {
	return findAll[models.Product](ctx, r.products, underFilter(categoryID, subcategoryIDs))
}

func (r *CatalogRepository) CountProductsUnder(ctx context.Context, categoryID primitive.ObjectID, subcategoryIDs []primitive.ObjectID) (int64, error) {
	return r.products.CountDocuments(ctx, underFilter(categoryID, subcategoryIDs))
}

func (r *CatalogRepository) ListProductsInSubcategory(ctx context.Context, subcategoryID primitive.ObjectID) ([]models.Product, error) {
	return findAll[models.Product](ctx, r.products, bson.M{"sub_categoryId": subcategoryID})
}

func (r *CatalogRepository) CountProductsInSubcategory(ctx context.Context, subcategoryID primitive.ObjectID) (int64, error) {
	return r.products.CountDocuments(ctx, bson.M{"sub_categoryId": subcategoryID})
}

// SearchProducts matches keyword against product name and details, or
// returns products filed under one of the given categories/subcategories.
func (r *CatalogRepository) SearchProducts(ctx context.Context, keyword string, categoryIDs, subcategoryIDs []primitive.ObjectID, limit int64) ([]models.Product, error) {
	re := containing(keyword)
	or := bson.A{
		bson.M{"productname": re},
		bson.M{"product_details": re},
	}
	if len(categoryIDs) > 0 {
		or = append(or, bson.M{"categoryId": bson.M{"$in": categoryIDs}})
	}
	if len(subcategoryIDs) > 0 {
		or = append(or, bson.M{"sub_categoryId": bson.M{"$in": subcategoryIDs}})
	}
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[models.Product](ctx, r.products, bson.M{"$or": or}, opts)
}
