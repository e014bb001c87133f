// Package response writes the console's JSON envelope.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/form"
)

type envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 JSON response with data.
func Success(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusCreated, envelope{Status: http.StatusCreated, Data: data})
}

// Accepted sends a 202; used when work continues in the background.
func Accepted(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusAccepted, envelope{Status: http.StatusAccepted, Data: data})
}

// Error sends a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Status: status, Message: message})
}

// ValidationError sends a 422 with field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	write(w, http.StatusUnprocessableEntity, envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  errs,
	})
}

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "Unauthorized")
}

// Forbidden sends a 403.
func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "Forbidden")
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not found")
}

// FromError maps err onto a status: missing form fields become a validation
// error, backend answers keep their status and detail, and an unreachable
// backend is a 502.
func FromError(w http.ResponseWriter, err error) {
	var required *form.RequiredError
	if errors.As(err, &required) {
		errs := make(map[string]string, len(required.Fields))
		for _, f := range required.Fields {
			errs[f] = "required"
		}
		ValidationError(w, errs)
		return
	}

	var field *form.FieldError
	if errors.As(err, &field) {
		ValidationError(w, map[string]string{field.Key: field.Err.Error()})
		return
	}

	var apiErr *catalog.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Detail
		if msg == "" {
			msg = http.StatusText(apiErr.Status)
		}
		Error(w, apiErr.Status, msg)
		return
	}

	if errors.Is(err, catalog.ErrTransport) {
		Error(w, http.StatusBadGateway, "Backend unreachable")
		return
	}
	Error(w, http.StatusInternalServerError, "Internal Server Error")
}
