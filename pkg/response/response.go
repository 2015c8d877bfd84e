// Package response writes the JSON envelope every endpoint uses:
//
//	{"status":201,"data":{...}}
//	{"status":400,"message":"validation failed","errors":{"items[0].quantity":"..."}}
package response

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/apperror"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/reqid"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Status    int               `json:"status"`
	Message   string            `json:"message,omitempty"`
	Data      any               `json:"data,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// Write encodes body with the given status.
func Write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 JSON response with data.
func Success(w http.ResponseWriter, data any) {
	Write(w, http.StatusOK, Envelope{Status: http.StatusOK, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(w http.ResponseWriter, data any) {
	Write(w, http.StatusCreated, Envelope{Status: http.StatusCreated, Data: data})
}

// Error sends a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, Envelope{Status: status, Message: message})
}

// ValidationError sends a 400 with a field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	Write(w, http.StatusBadRequest, Envelope{
		Status:  http.StatusBadRequest,
		Message: "validation failed",
		Errors:  errs,
	})
}

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "unauthorized"
	}
	Error(w, http.StatusUnauthorized, message)
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "not found")
}

// FromError maps err onto its apperror kind. Internal errors are logged with
// the request id; in production their message is replaced by a generic one.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperror.KindOf(err)
	status := kind.HTTPStatus()
	body := Envelope{
		Status:  status,
		Message: apperror.MessageOf(err),
		Errors:  apperror.FieldsOf(err),
	}

	if kind == apperror.KindInternal {
		logger.WithCtx(r.Context()).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		body.RequestID = reqid.FromCtx(r.Context())
		if config.IsProduction() {
			body.Message = "internal server error"
		}
	}
	Write(w, status, body)
}
