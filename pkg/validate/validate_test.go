package validate_test

import (
	"testing"

	"github.com/shashiranjanraj/storefront/pkg/validate"
)

type line struct {
	ProductID uint `json:"productId" validate:"gte=1"`
	Quantity  int  `json:"quantity"  validate:"gte=1"`
}

type checkoutInput struct {
	CustomerName  string `json:"customerName"  validate:"required,min=2,max=100"`
	Email         string `json:"email"         validate:"required,email"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=cash card upi netbanking"`
	Items         []line `json:"items"         validate:"required,min=1,dive"`
}

func validInput() checkoutInput {
	return checkoutInput{
		CustomerName:  "Asha Rao",
		Email:         "asha@example.com",
		PaymentMethod: "upi",
		Items:         []line{{ProductID: 1, Quantity: 2}},
	}
}

func TestValidInput(t *testing.T) {
	in := validInput()
	if errs := validate.Struct(&in); validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(checkoutInput{})
	if !validate.HasErrors(errs) {
		t.Fatal("expected required errors")
	}
	for _, key := range []string{"customerName", "email", "paymentMethod", "items"} {
		if _, ok := errs[key]; !ok {
			t.Errorf("expected %s to be required, got %v", key, errs)
		}
	}
}

func TestEmptyItemsFails(t *testing.T) {
	in := validInput()
	in.Items = []line{}
	errs := validate.Struct(in)
	if got := errs["items"]; got != "The items must contain at least 1 item(s)." {
		t.Errorf("unexpected items message: %q", got)
	}
}

func TestNestedLineKeys(t *testing.T) {
	in := validInput()
	in.Items = []line{
		{ProductID: 1, Quantity: 1},
		{ProductID: 0, Quantity: -1},
	}
	errs := validate.Struct(in)

	if got := errs["items[1].quantity"]; got != "The items[1].quantity must be at least 1." {
		t.Errorf("unexpected quantity message: %q (all: %v)", got, errs)
	}
	if _, ok := errs["items[1].productId"]; !ok {
		t.Errorf("expected items[1].productId error, got %v", errs)
	}
	if _, ok := errs["items[0].quantity"]; ok {
		t.Error("valid first line must not be reported")
	}
}

func TestOneOf(t *testing.T) {
	in := validInput()
	in.PaymentMethod = "bitcoin"
	errs := validate.Struct(in)
	if _, ok := errs["paymentMethod"]; !ok {
		t.Error("expected paymentMethod to be rejected")
	}
}

func TestEmailRule(t *testing.T) {
	type in struct {
		Email string `json:"email" validate:"required,email"`
	}
	if errs := validate.Struct(in{Email: "not-an-email"}); errs["email"] != "The email must be a valid email address." {
		t.Errorf("unexpected: %v", errs)
	}
	if errs := validate.Struct(in{Email: "valid@example.com"}); validate.HasErrors(errs) {
		t.Errorf("expected valid email to pass, got: %v", errs)
	}
}

func TestSlugRule(t *testing.T) {
	type in struct {
		Slug string `json:"slug" validate:"required,slug"`
	}
	for _, ok := range []string{"led-strips", "spotlights", "a1"} {
		if errs := validate.Struct(in{Slug: ok}); validate.HasErrors(errs) {
			t.Errorf("%q: expected valid, got %v", ok, errs)
		}
	}
	for _, bad := range []string{"LED Strips", "-lead", "trail-", "a--b"} {
		if errs := validate.Struct(in{Slug: bad}); !validate.HasErrors(errs) {
			t.Errorf("%q: expected invalid", bad)
		}
	}
}

func TestOptionalPointer(t *testing.T) {
	type in struct {
		SalePrice *int64 `json:"salePrice" validate:"omitempty,gt=0"`
	}
	if errs := validate.Struct(in{}); validate.HasErrors(errs) {
		t.Errorf("nil pointer should be skipped, got %v", errs)
	}
	neg := int64(-5)
	if errs := validate.Struct(in{SalePrice: &neg}); !validate.HasErrors(errs) {
		t.Error("expected negative salePrice to fail")
	}
}

func TestNonStructReturnsEmpty(t *testing.T) {
	if errs := validate.Struct("hello"); validate.HasErrors(errs) {
		t.Errorf("expected empty map, got %v", errs)
	}
}
