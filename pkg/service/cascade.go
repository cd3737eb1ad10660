package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DeleteResult describes what a cascade delete removed. Deleted reports
// whether the target itself is gone; KeptProducts lists products that
// survive because an order references them.
type DeleteResult struct {
	Deleted              bool                 `json:"deleted"`
	DeletedProducts      int                  `json:"deletedProducts"`
	DeletedSubcategories int                  `json:"deletedSubcategories"`
	KeptProducts         []primitive.ObjectID `json:"keptProducts"`
}

func (r *DeleteResult) Partial() bool { return !r.Deleted }

// DeleteCategory removes a category with everything beneath it, except
// products referenced by an order. Leaves go first, so a failure part way
// leaves no dangling references. The category itself is removed only when
// no product remains under it.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) (*DeleteResult, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	subs, err := s.store.ListSubcategories(ctx, &category.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subcategories: %w", err)
	}
	subIDs := make([]primitive.ObjectID, 0, len(subs))
	for _, sub := range subs {
		subIDs = append(subIDs, sub.ID)
	}

	products, err := s.store.ListProductsUnder(ctx, category.ID, subIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	res := &DeleteResult{KeptProducts: []primitive.ObjectID{}}
	if err := s.deleteUnusedProducts(ctx, products, res); err != nil {
		return nil, err
	}

	for _, sub := range subs {
		remaining, err := s.store.CountProductsInSubcategory(ctx, sub.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count products of subcategory %s: %w", sub.ID.Hex(), err)
		}
		if remaining > 0 {
			continue
		}
		if err := s.store.DeleteSubcategory(ctx, sub.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to delete subcategory %s: %w", sub.ID.Hex(), err)
		}
		res.DeletedSubcategories++
	}

	remaining, err := s.store.CountProductsUnder(ctx, category.ID, subIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count remaining products: %w", err)
	}
	if remaining == 0 {
		if category.ImagePublicID != nil {
			s.destroyImage(ctx, *category.ImagePublicID)
		}
		if err := s.store.DeleteCategory(ctx, category.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to delete category: %w", err)
		}
		res.Deleted = true
	}

	s.logger.Info("Category cascade delete",
		zap.String("category_id", category.ID.Hex()),
		zap.Bool("deleted", res.Deleted),
		zap.Int("deleted_products", res.DeletedProducts),
		zap.Int("kept_products", len(res.KeptProducts)),
		zap.Int("deleted_subcategories", res.DeletedSubcategories))
	s.audit.record(ctx, "category.delete", category.ID.Hex(), bson.M{
		"name":                 category.Name,
		"deleted":              res.Deleted,
		"deletedProducts":      res.DeletedProducts,
		"deletedSubcategories": res.DeletedSubcategories,
		"keptProducts":         hexIDs(res.KeptProducts),
	})
	return res, nil
}

// DeleteSubcategory is DeleteCategory scoped to one subcategory.
func (s *CatalogService) DeleteSubcategory(ctx context.Context, id string) (*DeleteResult, error) {
	oid, err := parseID("subcategory id", id)
	if err != nil {
		return nil, err
	}
	sub, err := s.store.FindSubcategory(ctx, oid)
	if err != nil {
		return nil, notFound(err, "subcategory")
	}

	products, err := s.store.ListProductsInSubcategory(ctx, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	res := &DeleteResult{KeptProducts: []primitive.ObjectID{}}
	if err := s.deleteUnusedProducts(ctx, products, res); err != nil {
		return nil, err
	}

	remaining, err := s.store.CountProductsInSubcategory(ctx, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count remaining products: %w", err)
	}
	if remaining == 0 {
		if err := s.store.DeleteSubcategory(ctx, sub.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to delete subcategory: %w", err)
		}
		res.Deleted = true
		res.DeletedSubcategories = 1
	}

	s.audit.record(ctx, "subcategory.delete", sub.ID.Hex(), bson.M{
		"name":            sub.Name,
		"deleted":         res.Deleted,
		"deletedProducts": res.DeletedProducts,
		"keptProducts":    hexIDs(res.KeptProducts),
	})
	return res, nil
}

// DeleteProduct removes a single product unless an order references it.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	used, err := s.orders.ReferencedProductIDs(ctx, []primitive.ObjectID{product.ID})
	if err != nil {
		return fmt.Errorf("failed to check order references: %w", err)
	}
	if len(used) > 0 {
		return fail(ErrConflict, "product is part of existing orders and cannot be deleted")
	}
	return s.removeProduct(ctx, product)
}

func (s *CatalogService) deleteUnusedProducts(ctx context.Context, products []models.Product, res *DeleteResult) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]primitive.ObjectID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	usedIDs, err := s.orders.ReferencedProductIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check order references: %w", err)
	}
	used := make(map[primitive.ObjectID]struct{}, len(usedIDs))
	for _, id := range usedIDs {
		used[id] = struct{}{}
	}

	for i := range products {
		p := &products[i]
		if _, ok := used[p.ID]; ok {
			res.KeptProducts = append(res.KeptProducts, p.ID)
			continue
		}
		if err := s.removeProduct(ctx, p); err != nil {
			return err
		}
		res.DeletedProducts++
	}
	return nil
}

func (s *CatalogService) removeProduct(ctx context.Context, p *models.Product) error {
	for _, publicID := range p.ImagePublicIDs() {
		s.destroyImage(ctx, publicID)
	}
	if err := s.store.DeleteProduct(ctx, p.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to delete product %s: %w", p.ID.Hex(), err)
	}
	return nil
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}
