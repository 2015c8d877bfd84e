package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/app/cart"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	apiclient "github.com/shashiranjanraj/storefront/pkg/http"
	"github.com/shashiranjanraj/storefront/pkg/pricing"
)

var (
	cartQtyFlag     int
	checkoutDetails requests.CreateOrder
)

// storefront cart
var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "A shopper's cart, kept in CART_FILE (or Redis) and checked out against API_URL",
}

func apiClient() *apiclient.Client {
	return apiclient.NewClient(config.APIURL(), apiclient.WithTimeout(10*time.Second))
}

func openCart(ctx context.Context, opts ...cart.Option) (*cart.Cart, error) {
	var store cart.Storage = cart.NewFileStorage(config.CartFile())
	if config.CartStore() == "redis" {
		if err := cache.Connect(ctx); err != nil {
			return nil, err
		}
		store = cart.NewRedisStorage(cache.RDB, config.CartSession(), config.CartTTL())
	}
	return cart.New(ctx, store, opts...)
}

func parseProductID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return uint(id), nil
}

func printCart(c *cart.Cart) {
	if c.IsEmpty() {
		fmt.Println("🛒 Your cart is empty.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCT\tQTY\tUNIT\tLINE")
	for _, it := range c.Items() {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
			it.ProductID, it.Name, it.Quantity, pricing.Format(it.UnitPrice()), pricing.Format(it.LineTotal()))
	}
	t := c.Totals()
	fmt.Fprintf(w, "\t\t\tSubtotal\t%s\n", pricing.Format(t.Subtotal))
	fmt.Fprintf(w, "\t\t\tTax\t%s\n", pricing.Format(t.Tax))
	if t.Shipping == 0 {
		fmt.Fprintf(w, "\t\t\tShipping\tFree\n")
	} else {
		fmt.Fprintf(w, "\t\t\tShipping\t%s\n", pricing.Format(t.Shipping))
	}
	fmt.Fprintf(w, "\t\t\tTotal\t%s\n", pricing.Format(t.Total))
	w.Flush()
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cart lines and totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCart(cmd.Context())
		if err != nil {
			return err
		}
		printCart(c)
		return nil
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add <productId>",
	Short: "Add a product (looked up from the API) to the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProductID(args[0])
		if err != nil {
			return err
		}
		resp, err := apiClient().Get("/api/products/" + strconv.FormatUint(uint64(id), 10)).Send(cmd.Context())
		if err != nil {
			return err
		}
		if err := resp.Throw(); err != nil {
			return fmt.Errorf("product %d: %w", id, err)
		}
		var env struct {
			Data models.Product `json:"data"`
		}
		if err := resp.JSON(&env); err != nil {
			return err
		}

		c, err := openCart(cmd.Context(), cart.WithRevealHook(func() { fmt.Println("🛒 Cart opened") }))
		if err != nil {
			return err
		}
		if err := c.AddItem(cmd.Context(), env.Data, cartQtyFlag); err != nil {
			return err
		}
		fmt.Printf("✅ Added %s to your cart.\n", env.Data.Name)
		printCart(c)
		return nil
	},
}

var cartUpdateCmd = &cobra.Command{
	Use:   "update <productId> <quantity>",
	Short: "Set a line's quantity; below 1 removes it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProductID(args[0])
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
		c, err := openCart(cmd.Context())
		if err != nil {
			return err
		}
		if err := c.UpdateQuantity(cmd.Context(), id, qty); err != nil {
			return err
		}
		printCart(c)
		return nil
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <productId>",
	Short: "Remove a line from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProductID(args[0])
		if err != nil {
			return err
		}
		c, err := openCart(cmd.Context())
		if err != nil {
			return err
		}
		if err := c.RemoveItem(cmd.Context(), id); err != nil {
			return err
		}
		printCart(c)
		return nil
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCart(cmd.Context())
		if err != nil {
			return err
		}
		if err := c.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("🛒 Cart cleared.")
		return nil
	},
}

var cartQuoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Ask the server for the authoritative totals of the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCart(cmd.Context())
		if err != nil {
			return err
		}
		totals, err := cart.NewCheckout(apiClient()).Quote(cmd.Context(), c)
		if err != nil {
			return err
		}
		if totals != c.Totals() {
			fmt.Println("⚠️  Prices changed since items were added; the server's totals apply.")
		}
		fmt.Printf("Subtotal %s  Tax %s  Shipping %s  Total %s\n",
			pricing.Format(totals.Subtotal), pricing.Format(totals.Tax),
			pricing.Format(totals.Shipping), pricing.Format(totals.Total))
		return nil
	},
}

var cartCheckoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order for the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCart(cmd.Context())
		if err != nil {
			return err
		}
		order, err := cart.NewCheckout(apiClient()).Submit(cmd.Context(), c, checkoutDetails)
		var apiErr *cart.APIError
		switch {
		case errors.As(err, &apiErr):
			for field, msg := range apiErr.Fields {
				fmt.Printf("  • %s: %s\n", field, msg)
			}
			if apiErr.Retryable() {
				return fmt.Errorf("%w; your cart was kept, try again", err)
			}
			return err
		case err != nil:
			return err
		}
		fmt.Printf("🎉 Order #%d placed. Amount due %s, status %s.\n",
			order.ID, pricing.Format(order.AmountDue()), order.Status)
		return nil
	},
}

func init() {
	cartAddCmd.Flags().IntVarP(&cartQtyFlag, "qty", "q", 1, "Quantity to add")

	f := cartCheckoutCmd.Flags()
	f.StringVar(&checkoutDetails.CustomerName, "name", "", "Customer name")
	f.StringVar(&checkoutDetails.Email, "email", "", "Email address")
	f.StringVar(&checkoutDetails.Phone, "phone", "", "Phone number")
	f.StringVar(&checkoutDetails.Address, "address", "", "Street address")
	f.StringVar(&checkoutDetails.City, "city", "", "City")
	f.StringVar(&checkoutDetails.State, "state", "", "State")
	f.StringVar(&checkoutDetails.PostalCode, "postal-code", "", "Postal code")
	f.StringVar(&checkoutDetails.PaymentMethod, "payment", "cash", "cash, card, upi or netbanking")

	cartCmd.AddCommand(cartShowCmd, cartAddCmd, cartUpdateCmd, cartRemoveCmd, cartClearCmd, cartQuoteCmd, cartCheckoutCmd)
}
