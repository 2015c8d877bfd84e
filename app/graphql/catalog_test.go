package graphql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	schemautil "github.com/shashiranjanraj/storefront/pkg/graphql"
)

func newServer(t *testing.T) (http.Handler, *services.CatalogService) {
	t.Helper()
	store := repositories.NewMemoryStore()
	catalog := services.NewCatalogService(store, cache.NewMemory(), nil, time.Minute)
	schema, err := NewSchema(catalog, services.NewOrderService(store, nil))
	require.NoError(t, err)
	return schemautil.Handler(schema), catalog
}

type result struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func post(t *testing.T, h http.Handler, query string) (int, result) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"query": query})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(string(body))))
	var res result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return w.Code, res
}

func TestProductsQuery(t *testing.T) {
	h, catalog := newServer(t)
	ctx := context.Background()
	strips, err := catalog.CreateCategory(ctx, requests.CreateCategory{Name: "LED Strips", Slug: "led-strips"})
	require.NoError(t, err)
	sale := int64(109900)
	_, err = catalog.CreateProduct(ctx, requests.CreateProduct{Name: "LED Strip Light Kit", Price: 129900, SalePrice: &sale, CategoryID: &strips.ID, Stock: 32})
	require.NoError(t, err)
	_, err = catalog.CreateProduct(ctx, requests.CreateProduct{Name: "Smart LED Bulb", Price: 79900, Stock: 45})
	require.NoError(t, err)

	code, res := post(t, h, `{ products(category: "led-strips") { name price salePrice effectivePrice onSale category { slug } } }`)
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, res.Errors)

	var products []struct {
		Name           string `json:"name"`
		EffectivePrice int64  `json:"effectivePrice"`
		SalePrice      *int64 `json:"salePrice"`
		OnSale         bool   `json:"onSale"`
		Category       struct {
			Slug string `json:"slug"`
		} `json:"category"`
	}
	require.NoError(t, json.Unmarshal(res.Data["products"], &products))
	require.Len(t, products, 1)
	assert.Equal(t, "LED Strip Light Kit", products[0].Name)
	assert.Equal(t, int64(109900), products[0].EffectivePrice)
	assert.True(t, products[0].OnSale)
	assert.Equal(t, "led-strips", products[0].Category.Slug)

	_, res = post(t, h, `{ product(id: 999) { name } }`)
	assert.Empty(t, res.Errors)
	assert.JSONEq(t, `null`, string(res.Data["product"]))
}

func TestQuoteQuery(t *testing.T) {
	h, catalog := newServer(t)
	p, err := catalog.CreateProduct(context.Background(), requests.CreateProduct{Name: "Smart LED Bulb", Price: 79900, Stock: 45})
	require.NoError(t, err)

	_, res := post(t, h, `{ quote(items: [{productId: `+jsonInt(p.ID)+`, quantity: 1}]) { subtotal tax shipping total } }`)
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"subtotal":79900,"tax":14382,"shipping":4900,"total":99182}`, string(res.Data["quote"]))
}

func TestHandlerRejectsMissingQuery(t *testing.T) {
	h, _ := newServer(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graphql", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape("{ categories { slug } }"), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"categories":[]}}`, w.Body.String())
}

func jsonInt(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
