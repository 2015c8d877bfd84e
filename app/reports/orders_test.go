package reports

import (
	"context"
	"encoding/csv"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/apperror"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

func placeOrders(t *testing.T) *services.OrderService {
	t.Helper()
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	bulb := models.Product{Name: "Smart LED Bulb", Price: 79900, Stock: 10, Active: true}
	hook := models.Product{Name: "Ceiling Hook", Price: 10000, Stock: 10, Active: true}
	require.NoError(t, store.Products().Create(ctx, &bulb))
	require.NoError(t, store.Products().Create(ctx, &hook))

	svc := services.NewOrderService(store, nil)
	for _, line := range []requests.OrderLine{
		{ProductID: bulb.ID, Quantity: 2},
		{ProductID: hook.ID, Quantity: 1},
	} {
		_, err := svc.CreateOrder(ctx, requests.CreateOrder{
			CustomerName: "Asha Rao", Email: "asha@example.com", Phone: "9876543210",
			Address: "12 MG Road", City: "Bengaluru", State: "KA", PostalCode: "560001",
			PaymentMethod: "upi", Items: []requests.OrderLine{line},
		})
		require.NoError(t, err)
	}
	return svc
}

func readExport(t *testing.T, disk storage.Disk, key string) [][]string {
	t.Helper()
	rc, err := disk.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	rows, err := csv.NewReader(rc).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportWritesAllOrders(t *testing.T) {
	disk := storage.NewLocal(t.TempDir())
	e := NewOrderExporter(placeOrders(t), disk)
	e.now = func() time.Time { return time.Date(2026, 1, 15, 3, 0, 0, 0, time.UTC) }

	exp, err := e.Export(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "reports/orders-20260115-030000.csv", exp.Key)
	assert.Equal(t, 2, exp.Orders)
	assert.Contains(t, exp.URL, "reports/orders-20260115-030000.csv")

	rows := readExport(t, disk, exp.Key)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])

	amounts := map[string][]string{}
	for _, row := range rows[1:] {
		assert.Equal(t, "pending", row[2])
		amounts[row[10]] = row[11:]
	}
	assert.Equal(t, map[string][]string{
		"2": {"1598.00", "287.64", "0.00", "1885.64"},
		"1": {"100.00", "18.00", "49.00", "167.00"},
	}, amounts)
}

func TestExportByStatus(t *testing.T) {
	disk := storage.NewLocal(t.TempDir())
	e := NewOrderExporter(placeOrders(t), disk)

	exp, err := e.Export(context.Background(), "delivered")
	require.NoError(t, err)
	assert.Zero(t, exp.Orders)
	assert.Regexp(t, `^reports/orders-delivered-\d{8}-\d{6}\.csv$`, exp.Key)
	assert.Len(t, readExport(t, disk, exp.Key), 1, "header only")

	_, err = e.Export(context.Background(), "bogus")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestWriteCSVQuotesFields(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(WriteCSV(pw, []models.Order{{
			ID: 7, CustomerName: "Rao, Asha", TotalAmount: 99900, Status: models.OrderStatusShipped,
		}}))
	}()
	rows, err := csv.NewReader(pr).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Rao, Asha", rows[1][3])
	assert.Equal(t, "999.00", rows[1][11])
}
