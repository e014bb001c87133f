package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/muestras/pkg/router"
)

func TestRouter_GroupsAndParams(t *testing.T) {
	r := router.New()
	var seen []string
	tag := func(name string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				seen = append(seen, name)
				next.ServeHTTP(w, req)
			})
		}
	}

	api := r.Group("/console/api", tag("api"))
	pages := api.Group("pages", tag("pages"))
	pages.Delete("/{resource}/items/{id}", "pages.items.delete", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(router.Param(req, "resource") + ":" + router.Param(req, "id") + ":" + router.Pattern(req)))
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/console/api/pages/brands/items/7", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "brands:7:/console/api/pages/{resource}/items/{id}", rec.Body.String())
	assert.Equal(t, []string{"api", "pages"}, seen)
}

func TestRouter_NamedURLs(t *testing.T) {
	r := router.New()
	r.Put("/console/api/pages/{resource}/items/{id}", "pages.items.update", func(http.ResponseWriter, *http.Request) {})

	url, err := r.URL("pages.items.update", map[string]string{"resource": "fits", "id": "3"})
	require.NoError(t, err)
	assert.Equal(t, "/console/api/pages/fits/items/3", url)

	_, err = r.URL("pages.items.update", map[string]string{"resource": "fits"})
	assert.Error(t, err)
	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestRouter_RoutesSorted(t *testing.T) {
	r := router.New()
	h := func(http.ResponseWriter, *http.Request) {}
	r.Post("/b", "b.post", h)
	r.Get("/b", "b.get", h)
	r.Get("/a", "", h)

	assert.Equal(t, []router.RouteInfo{
		{Method: http.MethodGet, Path: "/a"},
		{Method: http.MethodGet, Path: "/b", Name: "b.get"},
		{Method: http.MethodPost, Path: "/b", Name: "b.post"},
	}, r.Routes())
}
