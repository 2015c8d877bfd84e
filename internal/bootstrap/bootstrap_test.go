package bootstrap

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/shashiranjanraj/storefront/app/audit"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/reports"
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/config"
	apiclient "github.com/shashiranjanraj/storefront/pkg/http"
	"github.com/shashiranjanraj/storefront/pkg/pricing"
)

type envelope[T any] struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    T                 `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type APISuite struct {
	suite.Suite
	app   *App
	srv   *httptest.Server
	api   *apiclient.Client
	token string
	// storage is the local disk root for exports.
	storage string
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	config.Set("STORE_DRIVER", "memory")
	config.Set("REDIS_ADDR", "127.0.0.1:1")
	config.Set("MONGO_URI", "")
	config.Set("RATE_LIMIT_RPS", "1000")
	config.Set("STORAGE_DISK", "local")
	s.storage = s.T().TempDir()
	config.Set("STORAGE_LOCAL_ROOT", s.storage)

	app, err := New(context.Background())
	s.Require().NoError(err)
	s.app = app
	s.srv = httptest.NewServer(app.HTTP.Handler())
	s.api = apiclient.NewClient(s.srv.URL, apiclient.WithTimeout(5*time.Second))

	var session envelope[struct {
		Token string `json:"token"`
	}]
	s.do(s.api.Post("/api/auth/login").Body(requests.Login{
		Username: config.AdminUsername(), Password: config.AdminPassword(),
	}), http.StatusOK, &session)
	s.Require().NotEmpty(session.Data.Token)
	s.token = session.Data.Token
}

func (s *APISuite) TearDownTest() {
	s.srv.Close()
	s.Require().NoError(s.app.Close(context.Background()))
}

func (s *APISuite) do(req *apiclient.Request, want int, dest any) {
	s.T().Helper()
	resp, err := req.Send(context.Background())
	s.Require().NoError(err)
	s.Require().Equal(want, resp.StatusCode, resp.Text())
	if dest != nil {
		s.Require().NoError(resp.JSON(dest))
	}
}

func order(lines ...requests.OrderLine) requests.CreateOrder {
	return requests.CreateOrder{
		CustomerName: "Asha Rao", Email: "asha@example.com", Phone: "9876543210",
		Address: "12 MG Road", City: "Bengaluru", State: "KA", PostalCode: "560001",
		PaymentMethod: "upi", Items: lines,
	}
}

func (s *APISuite) productNamed(name string) models.Product {
	var out envelope[[]models.Product]
	s.do(s.api.Get("/api/products"), http.StatusOK, &out)
	for _, p := range out.Data {
		if p.Name == name {
			return p
		}
	}
	s.FailNow("product not seeded", name)
	return models.Product{}
}

func (s *APISuite) TestSeededCatalog() {
	var products envelope[[]models.Product]
	s.do(s.api.Get("/api/products"), http.StatusOK, &products)
	s.Len(products.Data, 8)

	var categories envelope[[]models.Category]
	s.do(s.api.Get("/api/categories"), http.StatusOK, &categories)
	s.Len(categories.Data, 4)

	var outdoor envelope[[]models.Product]
	s.do(s.api.Get("/api/products?category=outdoor-lighting"), http.StatusOK, &outdoor)
	s.Require().Len(outdoor.Data, 1)
	s.Equal("Solar Garden Lights", outdoor.Data[0].Name)
}

func (s *APISuite) TestUnknownRoutesAndIDs() {
	s.do(s.api.Get("/api/nope"), http.StatusNotFound, nil)
	s.do(s.api.Get("/api/products/abc"), http.StatusNotFound, nil)
	s.do(s.api.Get("/api/products/999"), http.StatusNotFound, nil)
	s.do(s.api.Delete("/api/auth/login"), http.StatusMethodNotAllowed, nil)
}

func (s *APISuite) TestAdminRoutesRequireToken() {
	s.do(s.api.Get("/api/orders"), http.StatusUnauthorized, nil)
	s.do(s.api.Post("/api/products").Body(requests.CreateProduct{Name: "Lamp", Price: 100}), http.StatusUnauthorized, nil)
	s.do(s.api.Get("/api/orders").Bearer("not-a-token"), http.StatusUnauthorized, nil)
	s.do(s.api.Get("/api/orders").Bearer(s.token), http.StatusOK, nil)
}

func (s *APISuite) TestCheckoutLifecycle() {
	bulb := s.productNamed("Smart LED Bulb")

	var quote envelope[pricing.Totals]
	s.do(s.api.Post("/api/orders/quote").Body(requests.Quote{
		Items: []requests.OrderLine{{ProductID: bulb.ID, Quantity: 2}},
	}), http.StatusOK, &quote)
	s.Equal(pricing.Totals{Subtotal: 159800, Tax: 28764, Shipping: 0, Total: 188564}, quote.Data)

	var created envelope[models.Order]
	s.do(s.api.Post("/api/orders").Body(order(requests.OrderLine{ProductID: bulb.ID, Quantity: 2})),
		http.StatusCreated, &created)
	o := created.Data
	s.Equal(models.OrderStatusPending, o.Status)
	s.Equal(quote.Data.Subtotal, o.TotalAmount, "order total is the sum of line totals")
	s.Equal(quote.Data.Tax, o.TaxAmount)
	s.Equal(quote.Data.Shipping, o.ShippingFee)
	s.Equal(quote.Data.Total, o.AmountDue())

	after := s.productNamed("Smart LED Bulb")
	s.Equal(bulb.Stock-2, after.Stock, "listing reflects the decrement")

	path := "/api/orders/" + strconv.FormatUint(uint64(o.ID), 10)
	s.do(s.api.Put(path+"/status").Bearer(s.token).Body(requests.UpdateOrderStatus{Status: "shipped"}),
		http.StatusConflict, nil)
	s.do(s.api.Put(path+"/status").Bearer(s.token).Body(requests.UpdateOrderStatus{Status: "bogus"}),
		http.StatusBadRequest, nil)
	s.do(s.api.Put(path+"/status").Bearer(s.token).Body(requests.UpdateOrderStatus{Status: "processing"}),
		http.StatusOK, nil)

	var trail envelope[[]audit.Entry]
	s.do(s.api.Get(path+"/audit").Bearer(s.token), http.StatusOK, &trail)
	s.Require().Len(trail.Data, 2)
	s.Equal(audit.ActionCreated, trail.Data[0].Action)
	s.Equal("processing", trail.Data[1].To)

	s.do(s.api.Get("/api/orders/999/audit").Bearer(s.token), http.StatusNotFound, nil)
}

func (s *APISuite) TestCheckoutRejections() {
	solar := s.productNamed("Solar Garden Lights")

	var conflict envelope[any]
	s.do(s.api.Post("/api/orders").Body(order(requests.OrderLine{ProductID: solar.ID, Quantity: 1})),
		http.StatusConflict, &conflict)
	s.NotEmpty(conflict.Errors)

	var invalid envelope[any]
	bad := order(requests.OrderLine{ProductID: solar.ID, Quantity: 1})
	bad.Email = "not-an-email"
	s.do(s.api.Post("/api/orders").Body(bad), http.StatusBadRequest, &invalid)
	s.Contains(invalid.Errors, "email")

	s.do(s.api.Post("/api/orders").Body(order()), http.StatusBadRequest, nil)
}

func (s *APISuite) TestHealthAndGraphQL() {
	s.do(s.api.Get("/healthz"), http.StatusOK, nil)

	var out struct {
		Data struct {
			Categories []struct {
				Slug string `json:"slug"`
			} `json:"categories"`
		} `json:"data"`
	}
	s.do(s.api.Post("/graphql").Body(map[string]string{"query": "{ categories { slug } }"}), http.StatusOK, &out)
	s.Len(out.Data.Categories, 4)
}

func (s *APISuite) TestOrderExport() {
	bulb := s.productNamed("Smart LED Bulb")
	s.do(s.api.Post("/api/orders").Body(order(requests.OrderLine{ProductID: bulb.ID, Quantity: 1})),
		http.StatusCreated, nil)

	s.do(s.api.Post("/api/orders/export"), http.StatusUnauthorized, nil)
	s.do(s.api.Post("/api/orders/export?status=bogus").Bearer(s.token), http.StatusBadRequest, nil)

	var out envelope[reports.Export]
	s.do(s.api.Post("/api/orders/export?status=pending").Bearer(s.token), http.StatusCreated, &out)
	s.Equal(1, out.Data.Orders)

	raw, err := os.ReadFile(filepath.Join(s.storage, filepath.FromSlash(out.Data.Key)))
	s.Require().NoError(err)
	rows, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal("Asha Rao", rows[1][3])
	s.Equal("799.00", rows[1][11])
	s.Equal("991.82", rows[1][14])
}

func TestOpenStoreMemorySeeds(t *testing.T) {
	config.Set("STORE_DRIVER", "memory")
	store, db, err := OpenStore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, db)

	users, err := store.Users().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
