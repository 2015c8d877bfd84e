// Package validate runs struct-tag validation and reports failures as a flat
// map keyed by JSON field path.
//
// Rules are go-playground/validator tags. Nested slices use `dive`, and the
// resulting keys follow the JSON shape of the input:
//
//	type Line struct {
//	    ProductID uint `json:"productId" validate:"gte=1"`
//	    Quantity  int  `json:"quantity"  validate:"gte=1"`
//	}
//	type Input struct {
//	    Email string `json:"email" validate:"required,email"`
//	    Items []Line `json:"items" validate:"required,min=1,dive"`
//	}
//
//	errs := validate.Struct(in)
//	// errs["items[1].quantity"] == "The items[1].quantity must be at least 1."
//
// Besides the built-in tags, "slug" accepts lowercase URL-safe identifiers.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

var slugRE = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func engine() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugRE.MatchString(fl.Field().String())
		})
	})
	return v
}

// ─── Public API ───────────────────────────────────────────────────────────────

// Struct validates v and returns fieldPath → message. An empty map means valid.
func Struct(s interface{}) map[string]string {
	errs := make(map[string]string)

	rv := reflect.ValueOf(s)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return errs
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}

	err := engine().Struct(s)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs["_"] = err.Error()
		return errs
	}

	for _, fe := range fieldErrs {
		key := fieldPath(fe.Namespace())
		if _, seen := errs[key]; seen {
			continue // first failing rule per field
		}
		errs[key] = message(key, fe)
	}
	return errs
}

// HasErrors returns true when the errs map is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

// ─── Helpers ──────────────────────────────────────────────────────────────────

// fieldPath drops the leading struct type from a validator namespace,
// "CreateOrder.items[0].quantity" → "items[0].quantity".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

func message(field string, fe validator.FieldError) string {
	param := fe.Param()
	numeric := isNumeric(fe.Kind())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", field)
	case "url", "http_url":
		return fmt.Sprintf("The %s must be a valid URL.", field)
	case "slug":
		return fmt.Sprintf("The %s may only contain lowercase letters, numbers, and single dashes.", field)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid (allowed: %s).", field, strings.ReplaceAll(param, " ", ", "))
	case "numeric":
		return fmt.Sprintf("The %s field must be a number.", field)
	case "min", "gte":
		switch {
		case numeric:
			return fmt.Sprintf("The %s must be at least %s.", field, param)
		case fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array:
			return fmt.Sprintf("The %s must contain at least %s item(s).", field, param)
		default:
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		}
	case "max", "lte":
		if numeric {
			return fmt.Sprintf("The %s must not be greater than %s.", field, param)
		}
		return fmt.Sprintf("The %s must not be greater than %s characters.", field, param)
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", field, param)
	case "lt", "ltfield":
		return fmt.Sprintf("The %s must be less than %s.", field, param)
	case "len":
		return fmt.Sprintf("The %s must be %s characters.", field, param)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
