package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrTransport wraps failures where no response was received.
	ErrTransport = errors.New("catalog: backend unreachable")
	// ErrNotFound matches 404 responses.
	ErrNotFound = errors.New("catalog: not found")
	// ErrUnauthorized matches 401 and 403 responses.
	ErrUnauthorized = errors.New("catalog: unauthorized")
	// ErrConflict matches 409 responses, e.g. deleting a referenced record.
	ErrConflict = errors.New("catalog: conflict")
	// ErrValidation matches 400 and 422 responses.
	ErrValidation = errors.New("catalog: validation failed")
)

// APIError is any non-2xx answer from the backend.
type APIError struct {
	Op     string
	Status int
	// Detail is the backend's human readable explanation, if any.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("catalog: %s: %d: %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("catalog: %s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

// Is lets errors.Is match an APIError against the status sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrValidation:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	}
	return false
}

// Message picks the text shown to a user for err: the backend's detail when
// there is one, fallback otherwise.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// newAPIError decodes {"detail": "..."} or FastAPI-style
// {"detail": [{"msg": "..."}, ...]} bodies.
func newAPIError(op string, status int, body []byte) *APIError {
	e := &APIError{Op: op, Status: status}

	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		return e
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		e.Detail = s
		return e
	}

	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, l := range list {
			if l.Msg != "" {
				msgs = append(msgs, l.Msg)
			}
		}
		e.Detail = strings.Join(msgs, "; ")
		return e
	}

	e.Detail = payload.Message
	return e
}
