package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/internal/bootstrap"
	"github.com/shashiranjanraj/storefront/pkg/pricing"
)

var ordersStatusFlag string

// storefront orders
var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Inspect and advance orders",
}

// storefront orders list [--status pending]
var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			orders, err := app.Orders.ListOrders(cmd.Context(), ordersStatusFlag)
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				fmt.Println("No orders.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tCUSTOMER\tSTATUS\tITEMS\tTOTAL\tPLACED")
			for _, o := range orders {
				items := 0
				for _, it := range o.Items {
					items += it.Quantity
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
					o.ID, o.CustomerName, o.Status, items, pricing.Format(o.TotalAmount),
					o.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		})
	},
}

// storefront orders status <id> <status>
var ordersStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Move an order to a new status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid order id %q", args[0])
		}
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			o, err := app.Orders.UpdateOrderStatus(cmd.Context(), uint(id), args[1])
			if err != nil {
				return err
			}
			fmt.Printf("✅ Order #%d is now %s\n", o.ID, o.Status)
			return nil
		})
	},
}

// storefront orders export [--status delivered]
var ordersExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write orders as CSV to the storage disk (STORAGE_DISK)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			if app.Exports == nil {
				return errors.New("storage disk is not available; check STORAGE_DISK")
			}
			exp, err := app.Exports.Export(cmd.Context(), ordersStatusFlag)
			if err != nil {
				return err
			}
			fmt.Printf("📄 Exported %d orders to %s\n", exp.Orders, exp.URL)
			return nil
		})
	},
}

// withApp runs fn against a bootstrapped app and closes it afterwards, so
// listeners (audit trail, cache invalidation) see CLI changes too.
func withApp(ctx context.Context, fn func(*bootstrap.App) error) error {
	app, err := bootstrap.New(ctx)
	if err != nil {
		return err
	}
	runErr := fn(app)
	app.Events.Wait()
	if err := app.Close(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func init() {
	ordersListCmd.Flags().StringVar(&ordersStatusFlag, "status", "", "Only orders in this status")
	ordersExportCmd.Flags().StringVar(&ordersStatusFlag, "status", "", "Only orders in this status")
	ordersCmd.AddCommand(ordersListCmd, ordersStatusCmd, ordersExportCmd)
}
