package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/media"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ProductRequest is the writable product body shared by create and update.
type ProductRequest struct {
	Name          string  `json:"productname"`
	Size          string  `json:"size"`
	Details       string  `json:"product_details"`
	CategoryID    string  `json:"categoryId"`
	SubcategoryID string  `json:"sub_categoryId"`
	MRP           float64 `json:"mrp"`
	StorePrice    float64 `json:"store_price"`
	Offer         string  `json:"offer"`
	VideoURL      string  `json:"video_url"`
	ShowWarning   bool    `json:"show_warning"`
}

type CatalogService struct {
	store  CatalogStore
	orders OrderStore
	images ImageHost
	limits config.LimitsConfig
	audit  *auditor
	logger *zap.Logger
}

func NewCatalogService(store CatalogStore, orders OrderStore, images ImageHost, limits config.LimitsConfig, audit AuditLogger, logger *zap.Logger) *CatalogService {
	logger = logger.Named("catalog")
	return &CatalogService{
		store:  store,
		orders: orders,
		images: images,
		limits: limits,
		audit:  newAuditor(audit, "catalog", logger),
		logger: logger,
	}
}

// destroyImage removes a hosted image; failures are logged only.
func (s *CatalogService) destroyImage(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.images.Destroy(ctx, publicID); err != nil {
		s.logger.Warn("Failed to destroy hosted image", zap.String("public_id", publicID), zap.Error(err))
	}
}

// Categories

func (s *CatalogService) CreateCategory(ctx context.Context, name string, image io.Reader) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fail(ErrValidation, "categoryName is required")
	}

	count, err := s.store.CountCategories(ctx)
	if err != nil {
		return nil, err
	}
	if s.limits.Categories > 0 && count >= int64(s.limits.Categories) {
		return nil, fail(ErrForbidden, "category limit reached (%d)", s.limits.Categories)
	}

	category := &models.Category{Name: name}
	if image != nil {
		img, err := s.images.Upload(ctx, image, media.FolderCategories, "")
		if err != nil {
			return nil, fail(ErrGateway, "%s", err.Error())
		}
		category.ImageURL, category.ImagePublicID = &img.URL, &img.PublicID
	}

	if err := s.store.CreateCategory(ctx, category); err != nil {
		if category.ImagePublicID != nil {
			s.destroyImage(ctx, *category.ImagePublicID)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fail(ErrValidation, "category %q already exists", name)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	oid, err := parseID("category id", id)
	if err != nil {
		return nil, err
	}
	c, err := s.store.FindCategory(ctx, oid)
	if err != nil {
		return nil, notFound(err, "category")
	}
	return c, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// UpdateCategory renames the category and/or replaces its image. The old
// image is destroyed only after the new one is stored.
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, name *string, image io.Reader) (*models.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, fail(ErrValidation, "categoryName cannot be empty")
		}
		category.Name = trimmed
	}

	var oldPublicID string
	if image != nil {
		img, err := s.images.Upload(ctx, image, media.FolderCategories, "")
		if err != nil {
			return nil, fail(ErrGateway, "%s", err.Error())
		}
		if category.ImagePublicID != nil {
			oldPublicID = *category.ImagePublicID
		}
		category.ImageURL, category.ImagePublicID = &img.URL, &img.PublicID
	}

	if err := s.store.SaveCategory(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fail(ErrValidation, "category %q already exists", category.Name)
		}
		return nil, notFound(err, "category")
	}
	s.destroyImage(ctx, oldPublicID)
	return category, nil
}

func (s *CatalogService) RemoveCategoryImage(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if category.ImagePublicID == nil || *category.ImagePublicID == "" {
		return nil, fail(ErrValidation, "category image already removed")
	}

	if err := s.images.Destroy(ctx, *category.ImagePublicID); err != nil {
		return nil, fail(ErrGateway, "%s", err.Error())
	}
	category.ImageURL, category.ImagePublicID = nil, nil
	if err := s.store.SaveCategory(ctx, category); err != nil {
		return nil, notFound(err, "category")
	}
	return category, nil
}

// Subcategories

func (s *CatalogService) CreateSubcategory(ctx context.Context, categoryID, name string) (*models.Subcategory, error) {
	catID, err := parseID("categoryId", categoryID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fail(ErrValidation, "subcategoryName is required")
	}
	if _, err := s.store.FindCategory(ctx, catID); err != nil {
		return nil, notFound(err, "category")
	}

	count, err := s.store.CountSubcategories(ctx, catID)
	if err != nil {
		return nil, err
	}
	if s.limits.SubcategoriesPer > 0 && count >= int64(s.limits.SubcategoriesPer) {
		return nil, fail(ErrForbidden, "subcategory limit reached for this category (%d)", s.limits.SubcategoriesPer)
	}

	sub := &models.Subcategory{CategoryID: catID, Name: name}
	if err := s.store.CreateSubcategory(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fail(ErrValidation, "subcategory %q already exists in this category", name)
		}
		return nil, fmt.Errorf("failed to create subcategory: %w", err)
	}
	return sub, nil
}

func (s *CatalogService) ListSubcategories(ctx context.Context, categoryID string) ([]models.Subcategory, error) {
	if categoryID == "" {
		return s.store.ListSubcategories(ctx, nil)
	}
	catID, err := parseID("categoryId", categoryID)
	if err != nil {
		return nil, err
	}
	return s.store.ListSubcategories(ctx, &catID)
}

func (s *CatalogService) UpdateSubcategory(ctx context.Context, id string, name, categoryID *string) (*models.Subcategory, error) {
	oid, err := parseID("subcategory id", id)
	if err != nil {
		return nil, err
	}
	sub, err := s.store.FindSubcategory(ctx, oid)
	if err != nil {
		return nil, notFound(err, "subcategory")
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, fail(ErrValidation, "subcategoryName cannot be empty")
		}
		sub.Name = trimmed
	}
	if categoryID != nil && *categoryID != "" {
		catID, err := parseID("categoryId", *categoryID)
		if err != nil {
			return nil, err
		}
		if _, err := s.store.FindCategory(ctx, catID); err != nil {
			return nil, notFound(err, "category")
		}
		sub.CategoryID = catID
	}

	if err := s.store.SaveSubcategory(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fail(ErrValidation, "subcategory %q already exists in this category", sub.Name)
		}
		return nil, notFound(err, "subcategory")
	}
	return sub, nil
}

// Products

func (s *CatalogService) productInput(ctx context.Context, req ProductRequest) (models.ProductInput, error) {
	var in models.ProductInput
	in.Name = strings.TrimSpace(req.Name)
	if in.Name == "" {
		return in, fail(ErrValidation, "productname is required")
	}
	if req.MRP < 0 || req.StorePrice < 0 {
		return in, fail(ErrValidation, "mrp and store_price cannot be negative")
	}

	catID, err := parseID("categoryId", req.CategoryID)
	if err != nil {
		return in, err
	}
	if _, err := s.store.FindCategory(ctx, catID); err != nil {
		return in, notFound(err, "category")
	}
	in.CategoryID = catID

	if req.SubcategoryID != "" {
		subID, err := parseID("sub_categoryId", req.SubcategoryID)
		if err != nil {
			return in, err
		}
		sub, err := s.store.FindSubcategory(ctx, subID)
		if err != nil {
			return in, notFound(err, "subcategory")
		}
		if sub.CategoryID != catID {
			return in, fail(ErrValidation, "subcategory does not belong to the category")
		}
		in.SubcategoryID = &subID
	}

	in.Size = strings.TrimSpace(req.Size)
	in.Details = req.Details
	in.MRP = req.MRP
	in.StorePrice = req.StorePrice
	in.Offer = req.Offer
	in.VideoURL = req.VideoURL
	in.ShowWarning = req.ShowWarning
	return in, nil
}

func applyProductInput(p *models.Product, in models.ProductInput) {
	p.Name = in.Name
	p.Size = in.Size
	p.Details = in.Details
	p.CategoryID = in.CategoryID
	p.SubcategoryID = in.SubcategoryID
	p.MRP = in.MRP
	p.StorePrice = in.StorePrice
	p.Offer = in.Offer
	p.VideoURL = in.VideoURL
	p.ShowWarning = in.ShowWarning
}

func (s *CatalogService) CreateProduct(ctx context.Context, req ProductRequest) (*models.Product, error) {
	in, err := s.productInput(ctx, req)
	if err != nil {
		return nil, err
	}
	product := &models.Product{}
	applyProductInput(product, in)
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, req ProductRequest) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err := s.productInput(ctx, req)
	if err != nil {
		return nil, err
	}
	applyProductInput(product, in)
	if err := s.store.SaveProduct(ctx, product); err != nil {
		return nil, notFound(err, "product")
	}
	return product, nil
}

// SetProductImage uploads image into one of the four product slots and then
// destroys whatever the slot held before.
func (s *CatalogService) SetProductImage(ctx context.Context, productID, field string, image io.Reader) (*models.Product, error) {
	if image == nil {
		return nil, fail(ErrValidation, "image is required")
	}
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	oldPublicID, ok := product.ImageSlot(field)
	if !ok {
		return nil, fail(ErrValidation, "imageField must be one of %s", strings.Join(models.ImageFields, ", "))
	}

	img, err := s.images.Upload(ctx, image, media.FolderProducts, "")
	if err != nil {
		return nil, fail(ErrGateway, "%s", err.Error())
	}
	product.SetImage(field, img.URL, img.PublicID)
	if err := s.store.SaveProduct(ctx, product); err != nil {
		s.destroyImage(ctx, img.PublicID)
		return nil, notFound(err, "product")
	}
	s.destroyImage(ctx, oldPublicID)
	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID("product id", id)
	if err != nil {
		return nil, err
	}
	p, err := s.store.FindProduct(ctx, oid)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.store.ListProducts(ctx)
}

func (s *CatalogService) ListProductsByCategory(ctx context.Context, categoryID string) ([]models.Product, error) {
	catID, err := parseID("categoryId", categoryID)
	if err != nil {
		return nil, err
	}
	return s.store.ListProductsUnder(ctx, catID, nil)
}

// GroupByCategory returns every category that has products, sorted by
// name, with its products attached.
func (s *CatalogService) GroupByCategory(ctx context.Context) ([]models.CategoryGroup, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[primitive.ObjectID][]models.Product)
	for _, p := range products {
		byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
	}

	groups := make([]models.CategoryGroup, 0, len(categories))
	for _, c := range categories {
		ps, ok := byCategory[c.ID]
		if !ok {
			continue
		}
		groups = append(groups, models.CategoryGroup{
			ID:           c.ID,
			CategoryName: c.Name,
			ImageURL:     c.ImageURL,
			Products:     ps,
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].CategoryName) < strings.ToLower(groups[j].CategoryName)
	})
	return groups, nil
}

// Search matches keyword against product names and details and against
// category and subcategory names, flattening each hit with its names.
func (s *CatalogService) Search(ctx context.Context, keyword string) ([]models.SearchProduct, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fail(ErrValidation, "keyword is required")
	}

	cats, err := s.store.FindCategoriesByName(ctx, keyword)
	if err != nil {
		return nil, err
	}
	subs, err := s.store.FindSubcategoriesByName(ctx, keyword)
	if err != nil {
		return nil, err
	}
	catIDs := make([]primitive.ObjectID, 0, len(cats))
	for _, c := range cats {
		catIDs = append(catIDs, c.ID)
	}
	subIDs := make([]primitive.ObjectID, 0, len(subs))
	for _, sub := range subs {
		subIDs = append(subIDs, sub.ID)
	}

	limit := s.limits.SearchResults
	if limit <= 0 {
		limit = 20
	}
	products, err := s.store.SearchProducts(ctx, keyword, catIDs, subIDs, limit)
	if err != nil {
		return nil, err
	}

	allCats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	allSubs, err := s.store.ListSubcategories(ctx, nil)
	if err != nil {
		return nil, err
	}
	catNames := make(map[primitive.ObjectID]string, len(allCats))
	for _, c := range allCats {
		catNames[c.ID] = c.Name
	}
	subNames := make(map[primitive.ObjectID]string, len(allSubs))
	for _, sub := range allSubs {
		subNames[sub.ID] = sub.Name
	}

	out := make([]models.SearchProduct, 0, len(products))
	for _, p := range products {
		hit := models.SearchProduct{
			ID:            p.ID,
			Name:          p.Name,
			Size:          p.Size,
			Details:       p.Details,
			SubcategoryID: p.SubcategoryID,
			MRP:           p.MRP,
			StorePrice:    p.StorePrice,
			Offer:         p.Offer,
			VideoURL:      p.VideoURL,
			ShowWarning:   p.ShowWarning,
			ImageURL1:     p.ImageURL1,
		}
		if !p.CategoryID.IsZero() {
			catID := p.CategoryID
			hit.CategoryID = &catID
			if name, ok := catNames[catID]; ok {
				hit.CategoryName = &name
			}
		}
		if p.SubcategoryID != nil {
			if name, ok := subNames[*p.SubcategoryID]; ok {
				hit.SubcategoryName = &name
			}
		}
		out = append(out, hit)
	}
	return out, nil
}
