package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/form"
	"github.com/shashiranjanraj/muestras/pkg/response"
)

type body struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) body {
	t.Helper()
	var b body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return b
}

func TestFromError(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"backend detail", &catalog.APIError{Op: "create brands", Status: 400, Detail: "duplicate"}, 400, "duplicate"},
		{"backend without detail", &catalog.APIError{Op: "get fits", Status: 404}, 404, "Not Found"},
		{"unreachable", fmt.Errorf("catalog: list brands: %w: %w", catalog.ErrTransport, errors.New("refused")), http.StatusBadGateway, "Backend unreachable"},
		{"other", errors.New("boom"), 500, "Internal Server Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			response.FromError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			b := decode(t, rec)
			assert.Equal(t, tc.status, b.Status)
			assert.Equal(t, tc.message, b.Message)
		})
	}
}

func TestFromError_RequiredFields(t *testing.T) {
	rec := httptest.NewRecorder()
	response.FromError(rec, &form.RequiredError{Fields: []string{"nombre", "base_id"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, map[string]string{"nombre": "required", "base_id": "required"}, decode(t, rec).Errors)
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Success(rec, map[string]int{"n": 1})

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":200,"data":{"n":1}}`, rec.Body.String())
}
