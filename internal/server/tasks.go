package server

import (
	"context"
	"time"

	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/internal/bootstrap"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/schedule"
)

// LowStockThreshold is the stock level at or below which an active product
// is reported.
const LowStockThreshold = 5

// EventLowStock is published to the admin feed by the low stock check.
const EventLowStock = "catalog.low_stock"

// LowStockItem is one entry of a low stock report.
type LowStockItem struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

// Tasks registers the recurring housekeeping jobs of a running server.
func Tasks(app *bootstrap.App) *schedule.Scheduler {
	s := schedule.New()
	s.Every(time.Minute).Name("limiter.sweep").Run(func(context.Context) {
		if n := app.Limiter.Sweep(time.Now()); n > 0 {
			logger.Debug("limiter: evicted idle clients", "count", n)
		}
	})
	s.Every(time.Hour).Name("stock.low").WithoutOverlapping().Run(func(ctx context.Context) {
		items, err := LowStock(ctx, app.Store.Products())
		if err != nil {
			logger.Error("stock: low stock check failed", "error", err)
			return
		}
		if len(items) == 0 {
			return
		}
		logger.Warn("stock: products running low", "count", len(items))
		app.Hub.Publish(EventLowStock, items)
	})
	if app.Exports != nil {
		s.Every(24 * time.Hour).Name("orders.export").Delayed().WithoutOverlapping().Run(func(ctx context.Context) {
			if _, err := app.Exports.Export(ctx, ""); err != nil {
				logger.Error("reports: scheduled order export failed", "error", err)
			}
		})
	}
	return s
}

// LowStock lists active products with stock at or below LowStockThreshold.
func LowStock(ctx context.Context, products repositories.ProductRepository) ([]LowStockItem, error) {
	all, err := products.Search(ctx, repositories.ProductFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	var out []LowStockItem
	for _, p := range all {
		if p.Stock <= LowStockThreshold {
			out = append(out, LowStockItem{ID: p.ID, Name: p.Name, Stock: p.Stock})
		}
	}
	return out, nil
}
