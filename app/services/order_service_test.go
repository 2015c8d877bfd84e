package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/pkg/apperror"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/event"
)

func seedProduct(t *testing.T, store repositories.Store, name string, price int64, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: price, Stock: stock, Active: true}
	require.NoError(t, store.Products().Create(context.Background(), &p))
	return p
}

func checkout(lines ...requests.OrderLine) requests.CreateOrder {
	return requests.CreateOrder{
		CustomerName:  "Asha Rao",
		Email:         "asha@example.com",
		Phone:         "9876543210",
		Address:       "12 MG Road",
		City:          "Bengaluru",
		State:         "Karnataka",
		PostalCode:    "560001",
		PaymentMethod: "upi",
		Items:         lines,
	}
}

func buy(id uint, qty int) requests.OrderLine {
	return requests.OrderLine{ProductID: id, Quantity: qty}
}

func stockOf(t *testing.T, store repositories.Store, id uint) int {
	t.Helper()
	p, err := store.Products().Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func orderCount(t *testing.T, store repositories.Store) int {
	t.Helper()
	orders, err := store.Orders().List(context.Background())
	require.NoError(t, err)
	return len(orders)
}

func TestCreateOrderUsesServerPrices(t *testing.T) {
	store := repositories.NewMemoryStore()
	bulb := seedProduct(t, store, "Smart LED Bulb", 79900, 45)
	strip := seedProduct(t, store, "LED Strip", 129900, 32)
	svc := NewOrderService(store, nil)

	stale := int64(100)
	req := checkout(
		requests.OrderLine{ProductID: bulb.ID, Quantity: 2, Price: &stale},
		buy(strip.ID, 1),
	)
	order, err := svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, int64(2*79900+129900), order.TotalAmount)
	assert.Equal(t, int64(79900), order.Items[0].UnitPrice)
	assert.Equal(t, 43, stockOf(t, store, bulb.ID))
	assert.Equal(t, 31, stockOf(t, store, strip.ID))
}

func TestCreateOrderChargesSalePrice(t *testing.T) {
	store := repositories.NewMemoryStore()
	sale := int64(59900)
	p := models.Product{Name: "Desk Lamp", Price: 149900, SalePrice: &sale, Stock: 5, Active: true}
	require.NoError(t, store.Products().Create(context.Background(), &p))

	order, err := NewOrderService(store, nil).CreateOrder(context.Background(), checkout(buy(p.ID, 2)))
	require.NoError(t, err)
	assert.Equal(t, int64(2*59900), order.TotalAmount)
}

func TestOrderAmountDueMatchesQuote(t *testing.T) {
	store := repositories.NewMemoryStore()
	lamp := seedProduct(t, store, "Desk Lamp", 34900, 10)
	svc := NewOrderService(store, nil)

	quote, err := svc.Quote(context.Background(), requests.Quote{Items: []requests.OrderLine{buy(lamp.ID, 2)}})
	require.NoError(t, err)
	order, err := svc.CreateOrder(context.Background(), checkout(buy(lamp.ID, 2)))
	require.NoError(t, err)

	assert.Equal(t, int64(69800), order.TotalAmount)
	assert.Equal(t, int64(12564), order.TaxAmount)
	assert.Equal(t, int64(4900), order.ShippingFee)
	assert.Equal(t, quote.Total, order.AmountDue())
}

func TestCreateOrderRejectsShortStockWithoutSideEffects(t *testing.T) {
	store := repositories.NewMemoryStore()
	a := seedProduct(t, store, "Product A", 500, 3)
	b := seedProduct(t, store, "Product B", 1200, 0)
	svc := NewOrderService(store, nil)

	_, err := svc.CreateOrder(context.Background(), checkout(buy(a.ID, 1), buy(b.ID, 1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	var se *StockError
	require.True(t, errors.As(err, &se))
	require.Len(t, se.Shortages, 1)
	assert.Equal(t, b.ID, se.Shortages[0].ProductID)
	assert.Equal(t, "Product B", se.Shortages[0].Name)
	assert.Contains(t, apperror.FieldsOf(err), "items[1].quantity")

	assert.Equal(t, 3, stockOf(t, store, a.ID))
	assert.Zero(t, orderCount(t, store))
}

func TestCreateOrderExceedingStockIsConflict(t *testing.T) {
	store := repositories.NewMemoryStore()
	p := seedProduct(t, store, "Pendant", 249900, 2)

	_, err := NewOrderService(store, nil).CreateOrder(context.Background(), checkout(buy(p.ID, 3)))
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, 2, stockOf(t, store, p.ID))
	assert.Zero(t, orderCount(t, store))
}

func TestSequentialOrdersForLastUnit(t *testing.T) {
	store := repositories.NewMemoryStore()
	p := seedProduct(t, store, "Spotlight", 69900, 1)
	svc := NewOrderService(store, nil)

	_, err := svc.CreateOrder(context.Background(), checkout(buy(p.ID, 1)))
	require.NoError(t, err)
	assert.Zero(t, stockOf(t, store, p.ID))

	_, err = svc.CreateOrder(context.Background(), checkout(buy(p.ID, 1)))
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, 1, orderCount(t, store))
}

func TestDuplicateLinesAreCheckedTogether(t *testing.T) {
	store := repositories.NewMemoryStore()
	p := seedProduct(t, store, "Bulb", 79900, 3)
	svc := NewOrderService(store, nil)

	_, err := svc.CreateOrder(context.Background(), checkout(buy(p.ID, 2), buy(p.ID, 2)))
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, 3, stockOf(t, store, p.ID))

	order, err := svc.CreateOrder(context.Background(), checkout(buy(p.ID, 1), buy(p.ID, 2)))
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
}

func TestCreateOrderValidation(t *testing.T) {
	store := repositories.NewMemoryStore()
	p := seedProduct(t, store, "Bulb", 79900, 3)
	svc := NewOrderService(store, nil)

	t.Run("every failing field is listed", func(t *testing.T) {
		req := checkout(buy(p.ID, 1), buy(p.ID, 0), buy(0, 1))
		req.Email = "not-an-email"
		req.PaymentMethod = "bitcoin"

		_, err := svc.CreateOrder(context.Background(), req)
		require.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		fields := apperror.FieldsOf(err)
		for _, k := range []string{"email", "paymentMethod", "items[1].quantity", "items[2].productId"} {
			assert.Contains(t, fields, k)
		}
	})

	t.Run("empty cart", func(t *testing.T) {
		_, err := svc.CreateOrder(context.Background(), checkout())
		assert.Contains(t, apperror.FieldsOf(err), "items")
	})

	t.Run("unknown product rejects the whole order", func(t *testing.T) {
		_, err := svc.CreateOrder(context.Background(), checkout(buy(p.ID, 1), buy(999, 1)))
		require.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		assert.Contains(t, apperror.FieldsOf(err), "items[1].productId")
		assert.Equal(t, 3, stockOf(t, store, p.ID))
	})

	t.Run("inactive product", func(t *testing.T) {
		hidden := models.Product{Name: "Old", Price: 100, Stock: 10, Active: false}
		require.NoError(t, store.Products().Create(context.Background(), &hidden))
		_, err := svc.CreateOrder(context.Background(), checkout(buy(hidden.ID, 1)))
		assert.Contains(t, apperror.FieldsOf(err), "items[0].productId")
	})

	assert.Zero(t, orderCount(t, store))
}

func TestOrderSnapshotIsFrozen(t *testing.T) {
	store := repositories.NewMemoryStore()
	p := seedProduct(t, store, "Bulb", 79900, 3)
	svc := NewOrderService(store, nil)

	order, err := svc.CreateOrder(context.Background(), checkout(buy(p.ID, 1)))
	require.NoError(t, err)

	_, err = store.Products().Update(context.Background(), p.ID, func(p *models.Product) error {
		p.Name, p.Price = "Renamed", 1
		return nil
	})
	require.NoError(t, err)

	got, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bulb", got.Items[0].Name)
	assert.Equal(t, int64(79900), got.TotalAmount)
}

func TestCreateOrderFiresEvent(t *testing.T) {
	store := repositories.NewMemoryStore()
	p := seedProduct(t, store, "Bulb", 79900, 3)
	bus := event.New()
	var got []OrderCreated
	bus.Listen(EventOrderCreated, func(_ context.Context, payload any) {
		got = append(got, payload.(OrderCreated))
	})

	order, err := NewOrderService(store, bus).CreateOrder(context.Background(), checkout(buy(p.ID, 1)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, order.ID, got[0].Order.ID)

	_, err = NewOrderService(store, bus).CreateOrder(context.Background(), checkout(buy(p.ID, 10)))
	require.Error(t, err)
	assert.Len(t, got, 1)
}

func TestUpdateOrderStatus(t *testing.T) {
	store := repositories.NewMemoryStore()
	p := seedProduct(t, store, "Bulb", 79900, 10)
	svc := NewOrderService(store, nil)
	ctx := context.Background()

	place := func() models.Order {
		o, err := svc.CreateOrder(ctx, checkout(buy(p.ID, 1)))
		require.NoError(t, err)
		return o
	}

	t.Run("pending to cancelled", func(t *testing.T) {
		o := place()
		got, err := svc.UpdateOrderStatus(ctx, o.ID, "cancelled")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, got.Status)
	})

	t.Run("delivered is terminal", func(t *testing.T) {
		o := place()
		for _, st := range []string{"processing", "shipped", "delivered"} {
			_, err := svc.UpdateOrderStatus(ctx, o.ID, st)
			require.NoError(t, err)
		}
		for _, st := range models.OrderStatuses() {
			_, err := svc.UpdateOrderStatus(ctx, o.ID, string(st))
			assert.Equal(t, apperror.KindConflict, apperror.KindOf(err), "delivered -> %s", st)
			assert.ErrorIs(t, err, ErrIllegalTransition)
		}
		got, err := svc.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusDelivered, got.Status)
	})

	t.Run("skipping a step is a conflict", func(t *testing.T) {
		o := place()
		_, err := svc.UpdateOrderStatus(ctx, o.ID, "shipped")
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	})

	t.Run("unknown status is a validation error", func(t *testing.T) {
		o := place()
		_, err := svc.UpdateOrderStatus(ctx, o.ID, "lost")
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		assert.Contains(t, apperror.FieldsOf(err), "status")
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		_, err := svc.UpdateOrderStatus(ctx, 9999, "processing")
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	})

	t.Run("status is case insensitive", func(t *testing.T) {
		o := place()
		got, err := svc.UpdateOrderStatus(ctx, o.ID, " Processing ")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusProcessing, got.Status)
	})
}

func TestListOrders(t *testing.T) {
	store := repositories.NewMemoryStore()
	p := seedProduct(t, store, "Bulb", 79900, 10)
	svc := NewOrderService(store, nil)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, checkout(buy(p.ID, 1)))
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, checkout(buy(p.ID, 1)))
	require.NoError(t, err)
	_, err = svc.UpdateOrderStatus(ctx, first.ID, "processing")
	require.NoError(t, err)

	all, err := svc.ListOrders(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	processing, err := svc.ListOrders(ctx, "processing")
	require.NoError(t, err)
	require.Len(t, processing, 1)
	assert.Equal(t, first.ID, processing[0].ID)

	_, err = svc.ListOrders(ctx, "bogus")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestQuote(t *testing.T) {
	store := repositories.NewMemoryStore()
	bulb := seedProduct(t, store, "Bulb", 79900, 45)
	svc := NewOrderService(store, nil)

	totals, err := svc.Quote(context.Background(), requests.Quote{Items: []requests.OrderLine{buy(bulb.ID, 1)}})
	require.NoError(t, err)
	assert.Equal(t, int64(79900), totals.Subtotal)
	assert.Equal(t, int64(14382), totals.Tax)
	assert.Equal(t, int64(4900), totals.Shipping)
	assert.Equal(t, int64(79900+14382+4900), totals.Total)
	assert.Equal(t, 45, stockOf(t, store, bulb.ID))

	_, err = svc.Quote(context.Background(), requests.Quote{})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	stores := map[string]repositories.Store{"memory": repositories.NewMemoryStore()}

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, &models.Category{}, &models.Product{}, &models.User{}, &models.Order{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	stores["gorm"] = repositories.NewGormStore(db)

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			p := seedProduct(t, store, "Last lamps", 149900, 3)
			svc := NewOrderService(store, nil)

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				created   int
				conflicts int
			)
			for i := 0; i < 12; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := svc.CreateOrder(context.Background(), checkout(buy(p.ID, 1)))
					mu.Lock()
					defer mu.Unlock()
					switch apperror.KindOf(err) {
					case apperror.KindConflict:
						conflicts++
					default:
						if err == nil {
							created++
						}
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 3, created)
			assert.Equal(t, 9, conflicts)
			assert.Zero(t, stockOf(t, store, p.ID))
			assert.Equal(t, 3, orderCount(t, store))
		})
	}
}

func TestCreateOrderRejectsHugeQuantities(t *testing.T) {
	store := repositories.NewMemoryStore()
	lamp := seedProduct(t, store, "Desk Lamp", 34900, 5)
	svc := NewOrderService(store, nil)

	_, err := svc.CreateOrder(context.Background(), checkout(buy(lamp.ID, 1<<62), buy(lamp.ID, 1<<62)))
	require.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Equal(t, "The items[0].quantity must not be greater than 10000.",
		apperror.FieldsOf(err)["items[0].quantity"])
	assert.Equal(t, 5, stockOf(t, store, lamp.ID))
	assert.Zero(t, orderCount(t, store))
}

func TestMergedQuantityIsCapped(t *testing.T) {
	store := repositories.NewMemoryStore()
	lamp := seedProduct(t, store, "Desk Lamp", 34900, 50000)
	svc := NewOrderService(store, nil)

	_, err := svc.CreateOrder(context.Background(),
		checkout(buy(lamp.ID, 6000), buy(lamp.ID, 4000), buy(lamp.ID, 1)))
	require.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Contains(t, apperror.FieldsOf(err), "items[0].quantity")
	assert.Equal(t, 50000, stockOf(t, store, lamp.ID))
	assert.Zero(t, orderCount(t, store))

	order, err := svc.CreateOrder(context.Background(),
		checkout(buy(lamp.ID, 6000), buy(lamp.ID, requests.MaxLineQuantity-6000)))
	require.NoError(t, err)
	assert.Equal(t, requests.MaxLineQuantity, order.Items[0].Quantity)
	assert.Equal(t, 40000, stockOf(t, store, lamp.ID))
}

func TestQuoteRejectsHugeQuantities(t *testing.T) {
	store := repositories.NewMemoryStore()
	lamp := seedProduct(t, store, "Desk Lamp", 34900, 5)
	svc := NewOrderService(store, nil)

	_, err := svc.Quote(context.Background(), requests.Quote{Items: []requests.OrderLine{buy(lamp.ID, 1<<50)}})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.Quote(context.Background(), requests.Quote{Items: []requests.OrderLine{
		buy(lamp.ID, 9000), buy(lamp.ID, 9000),
	}})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

// racingStore loses every stock decrement to another buyer and then fails
// to reload the product.
type racingStore struct {
	repositories.Store
	lost bool
}

func (s *racingStore) Products() repositories.ProductRepository {
	return racingProducts{ProductRepository: s.Store.Products(), store: s}
}

func (s *racingStore) Transaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repositories.Store) error {
		return fn(&racingStore{Store: tx})
	})
}

type racingProducts struct {
	repositories.ProductRepository
	store *racingStore
}

func (p racingProducts) DecrementStock(context.Context, uint, int) error {
	p.store.lost = true
	return repositories.ErrInsufficientStock
}

func (p racingProducts) Get(ctx context.Context, id uint) (models.Product, error) {
	if p.store.lost {
		return models.Product{}, errors.New("connection reset")
	}
	return p.ProductRepository.Get(ctx, id)
}

func TestLostRaceWithFailedReloadIsInternal(t *testing.T) {
	mem := repositories.NewMemoryStore()
	lamp := seedProduct(t, mem, "Desk Lamp", 34900, 5)
	svc := NewOrderService(&racingStore{Store: mem}, nil)

	_, err := svc.CreateOrder(context.Background(), checkout(buy(lamp.ID, 1)))
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	assert.ErrorContains(t, err, "connection reset")
	assert.Zero(t, orderCount(t, mem))
}
