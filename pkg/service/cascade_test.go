package service

import (
	"context"
	"strings"
	"testing"

	"github.com/example/storefront/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (f *fixture) addCategory(t *testing.T, name string) models.Category {
	t.Helper()
	c, err := f.catalog.CreateCategory(context.Background(), name, strings.NewReader("png"))
	require.NoError(t, err)
	return *c
}

func (f *fixture) addSubcategory(t *testing.T, categoryID primitive.ObjectID, name string) models.Subcategory {
	t.Helper()
	sub, err := f.catalog.CreateSubcategory(context.Background(), categoryID.Hex(), name)
	require.NoError(t, err)
	return *sub
}

func (f *fixture) addProduct(t *testing.T, name string, categoryID primitive.ObjectID, subID *primitive.ObjectID) models.Product {
	t.Helper()
	p := &models.Product{
		Name:           name,
		CategoryID:     categoryID,
		SubcategoryID:  subID,
		StorePrice:     10,
		ImageURL1:      "https://img.test/" + name,
		ImagePublicID1: "products/" + name,
	}
	require.NoError(t, f.store.CreateProduct(context.Background(), p))
	return *p
}

func (f *fixture) orderProducts(t *testing.T, ids ...primitive.ObjectID) {
	t.Helper()
	items := make([]models.OrderItem, len(ids))
	for i, id := range ids {
		items[i] = models.OrderItem{ProductID: id, Quantity: 1, Price: 10}
	}
	order := &models.Order{
		UserID:        primitive.NewObjectID(),
		Items:         items,
		TotalAmount:   10,
		PaymentMethod: models.PaymentMethodCOD,
		OrderStatus:   models.OrderStatusDelivered,
	}
	require.NoError(t, f.store.CreateOrder(context.Background(), order))
}

func TestDeleteCategoryKeepsOrderedProducts(t *testing.T) {
	f := newFixture(t)
	cat := f.addCategory(t, "Beverages")
	tea := f.addSubcategory(t, cat.ID, "Tea")
	coffee := f.addSubcategory(t, cat.ID, "Coffee")

	direct := f.addProduct(t, "water", cat.ID, nil)
	orderedDirect := f.addProduct(t, "soda", cat.ID, nil)
	greenTea := f.addProduct(t, "green-tea", cat.ID, &tea.ID)
	espresso := f.addProduct(t, "espresso", cat.ID, &coffee.ID)
	f.orderProducts(t, orderedDirect.ID, espresso.ID)

	res, err := f.catalog.DeleteCategory(context.Background(), cat.ID.Hex())
	require.NoError(t, err)

	assert.False(t, res.Deleted)
	assert.True(t, res.Partial())
	assert.Equal(t, 2, res.DeletedProducts)
	assert.Equal(t, 1, res.DeletedSubcategories)
	assert.ElementsMatch(t, []primitive.ObjectID{orderedDirect.ID, espresso.ID}, res.KeptProducts)

	assert.NotContains(t, f.store.Products, direct.ID)
	assert.NotContains(t, f.store.Products, greenTea.ID)
	assert.Contains(t, f.store.Products, orderedDirect.ID)
	assert.Contains(t, f.store.Products, espresso.ID)

	assert.NotContains(t, f.store.Subcategories, tea.ID)
	assert.Contains(t, f.store.Subcategories, coffee.ID)
	assert.Contains(t, f.store.Categories, cat.ID)

	assert.ElementsMatch(t, []string{"products/water", "products/green-tea"}, f.images.Destroyed)
	assert.Contains(t, f.audit.Actions(), "category.delete")
}

func TestDeleteCategoryRemovesEverythingWhenUnused(t *testing.T) {
	f := newFixture(t)
	cat := f.addCategory(t, "Snacks")
	chips := f.addSubcategory(t, cat.ID, "Chips")
	f.addProduct(t, "nachos", cat.ID, &chips.ID)
	f.addProduct(t, "popcorn", cat.ID, nil)

	// Orders for products elsewhere in the catalog do not pin this category.
	other := f.addCategory(t, "Dairy")
	milk := f.addProduct(t, "milk", other.ID, nil)
	f.orderProducts(t, milk.ID)

	res, err := f.catalog.DeleteCategory(context.Background(), cat.ID.Hex())
	require.NoError(t, err)

	assert.True(t, res.Deleted)
	assert.False(t, res.Partial())
	assert.Equal(t, 2, res.DeletedProducts)
	assert.Equal(t, 1, res.DeletedSubcategories)
	assert.Empty(t, res.KeptProducts)

	assert.NotContains(t, f.store.Categories, cat.ID)
	assert.Empty(t, f.store.Subcategories)
	assert.Len(t, f.store.Products, 1)
	assert.Contains(t, f.images.Destroyed, *cat.ImagePublicID)
	assert.NotContains(t, f.images.Destroyed, "products/milk")
}

func TestDeleteCategoryIsRepeatable(t *testing.T) {
	f := newFixture(t)
	cat := f.addCategory(t, "Beverages")
	kept := f.addProduct(t, "soda", cat.ID, nil)
	f.orderProducts(t, kept.ID)

	for i := 0; i < 2; i++ {
		res, err := f.catalog.DeleteCategory(context.Background(), cat.ID.Hex())
		require.NoError(t, err)
		assert.False(t, res.Deleted)
		assert.Equal(t, []primitive.ObjectID{kept.ID}, res.KeptProducts)
	}
	assert.Contains(t, f.store.Products, kept.ID)
}

func TestDeleteCategoryNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.DeleteCategory(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.catalog.DeleteCategory(context.Background(), "123")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteSubcategory(t *testing.T) {
	f := newFixture(t)
	cat := f.addCategory(t, "Beverages")
	tea := f.addSubcategory(t, cat.ID, "Tea")
	green := f.addProduct(t, "green-tea", cat.ID, &tea.ID)
	black := f.addProduct(t, "black-tea", cat.ID, &tea.ID)
	f.orderProducts(t, black.ID)

	res, err := f.catalog.DeleteSubcategory(context.Background(), tea.ID.Hex())
	require.NoError(t, err)
	assert.False(t, res.Deleted)
	assert.Equal(t, 1, res.DeletedProducts)
	assert.Equal(t, []primitive.ObjectID{black.ID}, res.KeptProducts)
	assert.NotContains(t, f.store.Products, green.ID)
	assert.Contains(t, f.store.Subcategories, tea.ID)

	herbal := f.addSubcategory(t, cat.ID, "Herbal")
	f.addProduct(t, "chamomile", cat.ID, &herbal.ID)
	res, err = f.catalog.DeleteSubcategory(context.Background(), herbal.ID.Hex())
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Equal(t, 1, res.DeletedSubcategories)
	assert.NotContains(t, f.store.Subcategories, herbal.ID)
	assert.Contains(t, f.store.Categories, cat.ID)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	cat := f.addCategory(t, "Beverages")
	ordered := f.addProduct(t, "soda", cat.ID, nil)
	free := f.addProduct(t, "water", cat.ID, nil)
	f.orderProducts(t, ordered.ID)

	err := f.catalog.DeleteProduct(context.Background(), ordered.ID.Hex())
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, f.store.Products, ordered.ID)

	require.NoError(t, f.catalog.DeleteProduct(context.Background(), free.ID.Hex()))
	assert.NotContains(t, f.store.Products, free.ID)
	assert.Contains(t, f.images.Destroyed, "products/water")

	err = f.catalog.DeleteProduct(context.Background(), free.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}
