package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/pkg/apperror"
	"github.com/shashiranjanraj/storefront/pkg/cache"
)

func ptr[T any](v T) *T { return &v }

func newCatalog(t *testing.T) (*CatalogService, repositories.Store) {
	t.Helper()
	store := repositories.NewMemoryStore()
	return NewCatalogService(store, cache.NewMemory(), nil, time.Minute), store
}

func TestCreateProductRules(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, requests.CreateProduct{Name: "Smart LED Bulb", Price: 79900, Stock: 45})
	require.NoError(t, err)
	assert.True(t, p.Active, "active defaults to true")
	assert.NotZero(t, p.ID)

	_, err = svc.CreateProduct(ctx, requests.CreateProduct{Name: "Bulb", Price: 1000, SalePrice: ptr(int64(1000))})
	assert.Contains(t, apperror.FieldsOf(err), "salePrice")

	_, err = svc.CreateProduct(ctx, requests.CreateProduct{Name: "Bulb", Price: 1000, CategoryID: ptr(uint(42))})
	assert.Contains(t, apperror.FieldsOf(err), "categoryId")

	_, err = svc.CreateProduct(ctx, requests.CreateProduct{Name: "", Price: 0, Stock: -1})
	fields := apperror.FieldsOf(err)
	for _, k := range []string{"name", "price", "stock"} {
		assert.Contains(t, fields, k)
	}
}

func TestUpdateProductPartial(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, requests.CreateProduct{Name: "Desk Lamp", Price: 149900, SalePrice: ptr(int64(129900)), Stock: 12})
	require.NoError(t, err)

	got, err := svc.UpdateProduct(ctx, p.ID, requests.UpdateProduct{Stock: ptr(20)})
	require.NoError(t, err)
	assert.Equal(t, 20, got.Stock)
	assert.Equal(t, "Desk Lamp", got.Name)
	require.NotNil(t, got.SalePrice)

	_, err = svc.UpdateProduct(ctx, p.ID, requests.UpdateProduct{Price: ptr(int64(100000))})
	assert.Contains(t, apperror.FieldsOf(err), "salePrice", "lowering the price below the sale price")

	got, err = svc.UpdateProduct(ctx, p.ID, requests.UpdateProduct{SalePrice: ptr(int64(0))})
	require.NoError(t, err)
	assert.Nil(t, got.SalePrice)

	_, err = svc.UpdateProduct(ctx, 999, requests.UpdateProduct{Stock: ptr(1)})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestListProductsFilters(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	strips, err := svc.CreateCategory(ctx, requests.CreateCategory{Name: "LED Strips", Slug: "led-strips"})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, requests.CreateProduct{Name: "Strip Kit", Price: 129900, CategoryID: &strips.ID, Featured: true})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, requests.CreateProduct{Name: "Bulb", Price: 79900})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, requests.CreateProduct{Name: "Retired", Price: 100, Active: ptr(false)})
	require.NoError(t, err)

	all, err := svc.ListProducts(ctx, ProductQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bySlug, err := svc.ListProducts(ctx, ProductQuery{Category: "led-strips"})
	require.NoError(t, err)
	require.Len(t, bySlug, 1)
	assert.Equal(t, "Strip Kit", bySlug[0].Name)

	// The second listing may come from the cache, whose JSON round trip
	// keeps the instant but not the time.Location.
	byID, err := svc.ListProducts(ctx, ProductQuery{Category: "1"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, bySlug[0].ID, byID[0].ID)
	assert.Equal(t, bySlug[0].Name, byID[0].Name)
	assert.True(t, bySlug[0].CreatedAt.Equal(byID[0].CreatedAt))

	none, err := svc.ListProducts(ctx, ProductQuery{Category: "no-such"})
	require.NoError(t, err)
	assert.Empty(t, none)

	featured, err := svc.ListProducts(ctx, ProductQuery{Featured: "true"})
	require.NoError(t, err)
	assert.Len(t, featured, 1)

	_, err = svc.ListProducts(ctx, ProductQuery{Featured: "sometimes"})
	assert.Contains(t, apperror.FieldsOf(err), "featured")
}

func TestListingCacheIsInvalidated(t *testing.T) {
	svc, store := newCatalog(t)
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, requests.CreateProduct{Name: "Bulb", Price: 79900, Stock: 5})
	require.NoError(t, err)

	first, err := svc.ListProducts(ctx, ProductQuery{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Writes that bypass the service are not seen until invalidation.
	_, err = store.Products().Update(ctx, p.ID, func(p *models.Product) error { p.Stock = 1; return nil })
	require.NoError(t, err)
	cached, err := svc.ListProducts(ctx, ProductQuery{})
	require.NoError(t, err)
	assert.Equal(t, 5, cached[0].Stock)

	svc.Invalidate(ctx)
	fresh, err := svc.ListProducts(ctx, ProductQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, fresh[0].Stock)

	_, err = svc.UpdateProduct(ctx, p.ID, requests.UpdateProduct{Name: ptr("Smart Bulb")})
	require.NoError(t, err)
	renamed, err := svc.ListProducts(ctx, ProductQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Smart Bulb", renamed[0].Name)
}

func TestCategoryLifecycle(t *testing.T) {
	svc, store := newCatalog(t)
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, requests.CreateCategory{Name: "Spotlights", Slug: "spotlights"})
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, requests.CreateCategory{Name: "Spots", Slug: "spotlights"})
	assert.Contains(t, apperror.FieldsOf(err), "slug")

	_, err = svc.CreateCategory(ctx, requests.CreateCategory{Name: "Bad", Slug: "Not A Slug"})
	assert.Contains(t, apperror.FieldsOf(err), "slug")

	p, err := svc.CreateProduct(ctx, requests.CreateProduct{Name: "Recessed Spotlight", Price: 69900, CategoryID: &c.ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(ctx, c.ID))
	got, err := store.Products().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(svc.DeleteCategory(ctx, c.ID)))

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestDeleteProduct(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, requests.CreateProduct{Name: "Bulb", Price: 79900})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	_, err = svc.GetProduct(ctx, p.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(svc.DeleteProduct(ctx, p.ID)))
}
