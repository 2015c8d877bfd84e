// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/apperror"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// maxBodyBytes returns the configured request body size limit (default 1 MB).
func maxBodyBytes() int64 {
	n, err := strconv.ParseInt(config.Get("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || n <= 0 {
		return 1 << 20
	}
	return n
}

// Decode reads r.Body as JSON into dest without validating it. The body is
// capped at MAX_BODY_BYTES. Failures are apperror validation errors on the
// "body" field.
func Decode(r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.InvalidField("body", "The request body is required.")
		case errors.As(err, &maxErr):
			return apperror.InvalidField("body", fmt.Sprintf("The request body must not exceed %d bytes.", maxErr.Limit))
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return apperror.InvalidField(typeErr.Field, fmt.Sprintf("The %s must be a %s.", typeErr.Field, typeErr.Type))
		default:
			return apperror.InvalidField("body", "The request body must be valid JSON.")
		}
	}
	return nil
}

// JSON decodes like Decode and then validates dest's struct tags.
func JSON(r *http.Request, dest any) error {
	if err := Decode(r, dest); err != nil {
		return err
	}
	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return apperror.Validation(errs)
	}
	return nil
}
