// Package reports exports orders as CSV files onto a storage disk, for
// bookkeeping outside the storefront.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

// Header is the first row of every export.
var Header = []string{
	"id", "placed_at", "status", "customer", "email", "phone",
	"city", "state", "postal_code", "payment", "items", "total",
	"tax", "shipping", "amount_due",
}

// Export describes a file written by OrderExporter.
type Export struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Orders int    `json:"orders"`
}

type OrderExporter struct {
	orders *services.OrderService
	disk   storage.Disk
	now    func() time.Time
}

func NewOrderExporter(orders *services.OrderService, disk storage.Disk) *OrderExporter {
	return &OrderExporter{orders: orders, disk: disk, now: time.Now}
}

// Export writes every order in status (all orders when empty) to a new
// timestamped object. An unknown status is a validation error.
func (e *OrderExporter) Export(ctx context.Context, status string) (Export, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	orders, err := e.orders.ListOrders(ctx, status)
	if err != nil {
		return Export{}, err
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, orders); err != nil {
		return Export{}, err
	}

	name := "orders"
	if status != "" {
		name += "-" + status
	}
	key := fmt.Sprintf("reports/%s-%s.csv", name, e.now().UTC().Format("20060102-150405"))
	if err := e.disk.Put(ctx, key, &buf, "text/csv"); err != nil {
		return Export{}, fmt.Errorf("reports: store %s: %w", key, err)
	}

	logger.WithCtx(ctx).Info("reports: orders exported", "key", key, "orders", len(orders))
	return Export{Key: key, URL: e.disk.URL(key), Orders: len(orders)}, nil
}

// WriteCSV renders orders one row each. Amounts are in rupees with two
// decimals; items is the total unit count and total the sum of line totals.
func WriteCSV(w io.Writer, orders []models.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, o := range orders {
		units := 0
		for _, it := range o.Items {
			units += it.Quantity
		}
		row := []string{
			strconv.FormatUint(uint64(o.ID), 10),
			o.CreatedAt.UTC().Format(time.RFC3339),
			string(o.Status),
			o.CustomerName,
			o.Email,
			o.Phone,
			o.City,
			o.State,
			o.PostalCode,
			string(o.PaymentMethod),
			strconv.Itoa(units),
			rupees(o.TotalAmount),
			rupees(o.TaxAmount),
			rupees(o.ShippingFee),
			rupees(o.AmountDue()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func rupees(paise int64) string { return decimal.New(paise, -2).StringFixed(2) }
