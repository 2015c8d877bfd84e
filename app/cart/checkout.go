package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/requests"
	apiclient "github.com/shashiranjanraj/storefront/pkg/http"
	"github.com/shashiranjanraj/storefront/pkg/pricing"
)

// ErrEmptyCart is returned when checking out a cart with no lines.
var ErrEmptyCart = errors.New("cart: cart is empty")

// APIError is a failed call to the storefront API. Status is 0 when no
// response arrived (network failure or timeout).
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
	Err     error
}

func (e *APIError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return "storefront unreachable: " + e.Err.Error()
	case len(e.Fields) > 0:
		return fmt.Sprintf("%s (%d field errors)", e.Message, len(e.Fields))
	default:
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the same request may succeed later without
// changes: no response, rate limited, or a server failure. Validation,
// stock conflicts and not found need the shopper to change something.
func (e *APIError) Retryable() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

type envelope[T any] struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    T                 `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// Checkout submits carts to the storefront API.
type Checkout struct {
	api *apiclient.Client
}

func NewCheckout(api *apiclient.Client) *Checkout {
	return &Checkout{api: api}
}

// Submit places an order for the cart's lines with the customer details in
// details (its Items are replaced). On success the cart is cleared and the
// created order returned.
func (k *Checkout) Submit(ctx context.Context, c *Cart, details requests.CreateOrder) (models.Order, error) {
	if c.IsEmpty() {
		return models.Order{}, ErrEmptyCart
	}
	details.Items = c.Snapshot()

	var out envelope[models.Order]
	if err := k.post(ctx, "/api/orders", details, http.StatusCreated, &out); err != nil {
		return models.Order{}, err
	}
	if err := c.Clear(ctx); err != nil {
		return out.Data, fmt.Errorf("order %d placed but cart not cleared: %w", out.Data.ID, err)
	}
	return out.Data, nil
}

// Quote asks the server for authoritative totals of the cart as it is now.
func (k *Checkout) Quote(ctx context.Context, c *Cart) (pricing.Totals, error) {
	if c.IsEmpty() {
		return pricing.Totals{}, nil
	}
	var out envelope[pricing.Totals]
	if err := k.post(ctx, "/api/orders/quote", requests.Quote{Items: c.Snapshot()}, http.StatusOK, &out); err != nil {
		return pricing.Totals{}, err
	}
	return out.Data, nil
}

func (k *Checkout) post(ctx context.Context, path string, body any, want int, dest any) error {
	resp, err := k.api.Post(path).Body(body).Send(ctx)
	if err != nil {
		return &APIError{Message: "request failed", Err: err}
	}
	if resp.StatusCode != want {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var env envelope[any]
		if resp.JSON(&env) == nil {
			if env.Message != "" {
				apiErr.Message = env.Message
			}
			apiErr.Fields = env.Errors
		}
		return apiErr
	}
	if err := resp.JSON(dest); err != nil {
		return &APIError{Status: resp.StatusCode, Message: "unreadable response", Err: err}
	}
	return nil
}
