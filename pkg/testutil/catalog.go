package testutil

import (
	"context"
	"sort"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Categories

func (s *Store) CreateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Categories {
		if existing.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	c.ID = newID(c.ID)
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.Categories[c.ID] = *c
	return nil
}

func (s *Store) FindCategory(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *Store) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Category, 0, len(s.Categories))
	for _, c := range s.Categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CountCategories(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.Categories)), nil
}

func (s *Store) SaveCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Categories[c.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range s.Categories {
		if id != c.ID && existing.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	c.UpdatedAt = s.now()
	s.Categories[c.ID] = *c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.Categories, id)
	return nil
}

func (s *Store) FindCategoriesByName(_ context.Context, keyword string) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Category
	for _, c := range s.Categories {
		if containsFold(c.Name, keyword) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Subcategories

func (s *Store) CreateSubcategory(_ context.Context, sub *models.Subcategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Subcategories {
		if existing.CategoryID == sub.CategoryID && existing.Name == sub.Name {
			return repository.ErrDuplicate
		}
	}
	sub.ID = newID(sub.ID)
	sub.CreatedAt = s.now()
	sub.UpdatedAt = sub.CreatedAt
	s.Subcategories[sub.ID] = *sub
	return nil
}

func (s *Store) FindSubcategory(_ context.Context, id primitive.ObjectID) (*models.Subcategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.Subcategories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sub, nil
}

func (s *Store) ListSubcategories(_ context.Context, categoryID *primitive.ObjectID) ([]models.Subcategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Subcategory, 0)
	for _, sub := range s.Subcategories {
		if categoryID == nil || sub.CategoryID == *categoryID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CountSubcategories(_ context.Context, categoryID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, sub := range s.Subcategories {
		if sub.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *Store) SaveSubcategory(_ context.Context, sub *models.Subcategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Subcategories[sub.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range s.Subcategories {
		if id != sub.ID && existing.CategoryID == sub.CategoryID && existing.Name == sub.Name {
			return repository.ErrDuplicate
		}
	}
	sub.UpdatedAt = s.now()
	s.Subcategories[sub.ID] = *sub
	return nil
}

func (s *Store) DeleteSubcategory(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Subcategories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.Subcategories, id)
	return nil
}

func (s *Store) FindSubcategoriesByName(_ context.Context, keyword string) ([]models.Subcategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Subcategory
	for _, sub := range s.Subcategories {
		if containsFold(sub.Name, keyword) {
			out = append(out, sub)
		}
	}
	return out, nil
}

// Products

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = newID(p.ID)
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.Products[p.ID] = *p
	return nil
}

func (s *Store) FindProduct(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *Store) productsWhere(match func(models.Product) bool) []models.Product {
	out := make([]models.Product, 0)
	for _, p := range s.Products {
		if match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListProducts(_ context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.productsWhere(func(models.Product) bool { return true }), nil
}

func (s *Store) SaveProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	p.UpdatedAt = s.now()
	s.Products[p.ID] = *p
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.Products, id)
	return nil
}

func under(p models.Product, categoryID primitive.ObjectID, subIDs []primitive.ObjectID) bool {
	if p.CategoryID == categoryID {
		return true
	}
	if p.SubcategoryID == nil {
		return false
	}
	for _, id := range subIDs {
		if *p.SubcategoryID == id {
			return true
		}
	}
	return false
}

func (s *Store) ListProductsUnder(_ context.Context, categoryID primitive.ObjectID, subcategoryIDs []primitive.ObjectID) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.productsWhere(func(p models.Product) bool { return under(p, categoryID, subcategoryIDs) }), nil
}

func (s *Store) CountProductsUnder(ctx context.Context, categoryID primitive.ObjectID, subcategoryIDs []primitive.ObjectID) (int64, error) {
	ps, err := s.ListProductsUnder(ctx, categoryID, subcategoryIDs)
	return int64(len(ps)), err
}

func (s *Store) ListProductsInSubcategory(_ context.Context, subcategoryID primitive.ObjectID) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.productsWhere(func(p models.Product) bool {
		return p.SubcategoryID != nil && *p.SubcategoryID == subcategoryID
	}), nil
}

func (s *Store) CountProductsInSubcategory(ctx context.Context, subcategoryID primitive.ObjectID) (int64, error) {
	ps, err := s.ListProductsInSubcategory(ctx, subcategoryID)
	return int64(len(ps)), err
}

func (s *Store) SearchProducts(_ context.Context, keyword string, categoryIDs, subcategoryIDs []primitive.ObjectID, limit int64) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inIDs := func(id primitive.ObjectID, ids []primitive.ObjectID) bool {
		for _, x := range ids {
			if x == id {
				return true
			}
		}
		return false
	}
	out := s.productsWhere(func(p models.Product) bool {
		if containsFold(p.Name, keyword) || containsFold(p.Details, keyword) {
			return true
		}
		if inIDs(p.CategoryID, categoryIDs) {
			return true
		}
		return p.SubcategoryID != nil && inIDs(*p.SubcategoryID, subcategoryIDs)
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Settings and banners

func (s *Store) FindSettings(_ context.Context, storeID primitive.ObjectID) (*models.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.Settings[storeID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (s *Store) upsertSettings(storeID primitive.ObjectID, apply func(*models.Setting)) *models.Setting {
	st, ok := s.Settings[storeID]
	if !ok {
		st = models.Setting{ID: primitive.NewObjectID(), StoreID: storeID, CreatedAt: s.now()}
	}
	apply(&st)
	st.UpdatedAt = s.now()
	s.Settings[storeID] = st
	return &st
}

func (s *Store) SaveSettingTexts(_ context.Context, storeID primitive.ObjectID, marquee, banner string) (*models.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertSettings(storeID, func(st *models.Setting) {
		if marquee != "" {
			st.MarqueeText = marquee
		}
		if banner != "" {
			st.BannerText = banner
		}
	}), nil
}

func (s *Store) SaveDeliverySettings(_ context.Context, storeID primitive.ObjectID, charge, freeAbove *float64) (*models.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertSettings(storeID, func(st *models.Setting) {
		if charge != nil {
			v := *charge
			st.DeliveryCharge = &v
		}
		if freeAbove != nil {
			v := *freeAbove
			st.FreeDeliveryAbove = &v
		}
	}), nil
}

func (s *Store) CreateBanner(_ context.Context, b *models.Banner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = newID(b.ID)
	b.CreatedAt = s.now()
	s.Banners[b.ID] = *b
	return nil
}

func (s *Store) FindBanner(_ context.Context, id primitive.ObjectID) (*models.Banner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.Banners[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (s *Store) ListBanners(_ context.Context) ([]models.Banner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Banner, 0, len(s.Banners))
	for _, b := range s.Banners {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteBanner(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Banners[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.Banners, id)
	return nil
}
