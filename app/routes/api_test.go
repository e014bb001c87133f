package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/muestras/app/routes"
	"github.com/shashiranjanraj/muestras/app/services"
	"github.com/shashiranjanraj/muestras/pkg/app"
	"github.com/shashiranjanraj/muestras/pkg/router"
	"github.com/shashiranjanraj/muestras/pkg/session"
	"github.com/shashiranjanraj/muestras/pkg/testkit"
)

const backend = "http://backend.test"

type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func newClient(t *testing.T) *client {
	t.Helper()
	console := services.NewConsole(services.Config{
		BackendURL:  backend,
		Timeout:     time.Second,
		TokenDriver: "memory",
	}, session.DefaultOptions())

	h := app.New().
		CORSOrigins("*").
		Sessions(console.Sessions().Middleware).
		Routes(func(r *router.Router) { routes.RegisterAPI(r, console) }).
		Handler()
	return &client{t: t, handler: h}
}

func (c *client) send(req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	if got := rec.Result().Cookies(); len(got) > 0 {
		c.cookies = got
	}

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (c *client) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

const loginBody = `{"access_token":"tok","token_type":"bearer","user":{"id":"1","username":"ana","rol":"admin","activo":true}}`

func login(t *testing.T, c *client, mt *testkit.MockTransport, body string) {
	t.Helper()
	mt.Add(testkit.MockStep{Method: "POST", MatchURL: "/api/auth/login", Body: body})
	rec, _ := c.do("POST", "/console/api/login", map[string]string{"username": "ana", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealthAndMetrics_NoSession(t *testing.T) {
	c := newClient(t)

	rec, _ := c.do("GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec, _ = c.do("GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnonymousIsTurnedAway(t *testing.T) {
	testkit.Install(t)
	c := newClient(t)

	rec, _ := c.do("GET", "/console/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, c.cookies)

	rec, _ = c.do("GET", "/console/api/pages/brands", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_MissingCredentials(t *testing.T) {
	testkit.Install(t)
	c := newClient(t)

	rec, out := c.do("POST", "/console/api/login", map[string]string{"username": "ana"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "required", out["errors"].(map[string]any)["password"])
}

func TestLogin_RejectedShowsBackendDetail(t *testing.T) {
	testkit.Install(t, testkit.MockStep{
		Method: "POST", MatchURL: "/api/auth/login", StatusCode: 401, Body: `{"detail":"Bad credentials"}`,
	})
	c := newClient(t)

	rec, out := c.do("POST", "/console/api/login", map[string]string{"username": "ana", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bad credentials", out["message"])
}

func TestLoginMeLogout(t *testing.T) {
	mt := testkit.Install(t)
	c := newClient(t)
	login(t, c, mt, loginBody)

	rec, out := c.do("GET", "/console/api/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := out["data"].(map[string]any)
	assert.Equal(t, "authenticated", data["state"])
	assert.Equal(t, true, data["admin"])
	assert.Equal(t, "ana", data["user"].(map[string]any)["username"])

	rec, _ = c.do("POST", "/console/api/login", map[string]string{"username": "ana", "password": "pw"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, out = c.do("GET", "/console/api/toasts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	toasts := out["data"].([]any)
	require.Len(t, toasts, 1)
	assert.Equal(t, "Welcome ana", toasts[0].(map[string]any)["message"])

	rec, _ = c.do("POST", "/console/api/logout", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = c.do("GET", "/console/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestToastStream_SendsQueuedToasts(t *testing.T) {
	mt := testkit.Install(t)
	c := newClient(t)
	login(t, c, mt, loginBody)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest("GET", "/console/api/toasts/stream", nil).WithContext(ctx)
	rec, _ := c.send(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: toast\n")
	assert.Contains(t, rec.Body.String(), "Welcome ana")

	_, out := c.do("GET", "/console/api/toasts", nil)
	assert.Empty(t, out["data"])
}

func TestPages_IndexHidesAdminPages(t *testing.T) {
	mt := testkit.Install(t)
	c := newClient(t)
	login(t, c, mt, strings.Replace(loginBody, `"rol":"admin"`, `"rol":"usuario"`, 1))

	_, out := c.do("GET", "/console/api/pages", nil)
	for _, p := range out["data"].([]any) {
		assert.NotEqual(t, "users", p.(map[string]any)["resource"])
	}

	rec, _ := c.do("GET", "/console/api/pages/users", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPages_ShowPassesQuery(t *testing.T) {
	mt := testkit.Install(t, testkit.MockStep{
		Method: "GET", MatchURL: "/api/brands", Body: `[{"id":"1","nombre":"Nike","activo":true,"orden":0}]`,
	})
	c := newClient(t)
	login(t, c, mt, loginBody)

	rec, out := c.do("GET", "/console/api/pages/brands?search=nik&filter=active", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	view := out["data"].(map[string]any)["view"].(map[string]any)
	rows := view["rows"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, []any{"Nike", "active"}, rows[0].(map[string]any)["cells"])

	calls := mt.CallsTo("GET", "/api/brands")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Query, "search=nik")
	assert.Contains(t, calls[0].Query, "activo=true")
	assert.Equal(t, "Bearer tok", calls[0].Header.Get("Authorization"))

	rec, _ = c.do("GET", "/console/api/pages/brands?filter=sometimes", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = c.do("GET", "/console/api/pages/unicorns", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPages_CreateAndValidation(t *testing.T) {
	mt := testkit.Install(t,
		testkit.MockStep{Method: "POST", MatchURL: "/api/fits", Body: `{"id":"9","nombre":"Slim","activo":true}`},
		testkit.MockStep{Method: "GET", MatchURL: "/api/fits", Body: `[{"id":"9","nombre":"Slim","activo":true}]`},
	)
	c := newClient(t)
	login(t, c, mt, loginBody)

	rec, out := c.do("POST", "/console/api/pages/fits/items", map[string]any{"descripcion": "narrow"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "required", out["errors"].(map[string]any)["nombre"])
	assert.Empty(t, mt.CallsTo("POST", "/api/fits"))

	rec, out = c.do("POST", "/console/api/pages/fits/items", map[string]any{"nombre": "Slim", "owner_id": 7})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, out["errors"].(map[string]any), "owner_id")
	assert.Empty(t, mt.CallsTo("POST", "/api/fits"))

	rec, _ = c.do("POST", "/console/api/pages/fits/items", map[string]any{"nombre": "Slim", "activo": true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	posts := mt.CallsTo("POST", "/api/fits")
	require.Len(t, posts, 1)
	var sent map[string]any
	require.NoError(t, json.Unmarshal(posts[0].Body, &sent))
	assert.Equal(t, "Slim", sent["nombre"])
	assert.Equal(t, true, sent["activo"])

	_, out = c.do("GET", "/console/api/toasts", nil)
	var messages []string
	for _, tst := range out["data"].([]any) {
		messages = append(messages, tst.(map[string]any)["message"].(string))
	}
	assert.Contains(t, messages, "complete the required fields")
	assert.Contains(t, messages, "Fit created")
}

func TestPages_UpdateLoadsListFirst(t *testing.T) {
	mt := testkit.Install(t,
		testkit.MockStep{Method: "GET", MatchURL: "/api/threads", Body: `[{"id":"4","nombre":"Cotton","activo":true}]`},
		testkit.MockStep{Method: "PUT", MatchURL: "/api/threads/4", Body: `{"id":"4","nombre":"Polyester","activo":true}`},
	)
	c := newClient(t)
	login(t, c, mt, loginBody)

	rec, _ := c.do("PUT", "/console/api/pages/threads/items/4", map[string]any{"nombre": "Polyester"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, mt.CallsTo("PUT", "/api/threads/4"), 1)

	rec, _ = c.do("PUT", "/console/api/pages/threads/items/404", map[string]any{"nombre": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPages_DeleteSelfRefused(t *testing.T) {
	mt := testkit.Install(t, testkit.MockStep{
		Method: "GET", MatchURL: "/api/users", Body: `[{"id":"1","username":"ana","rol":"admin","activo":true}]`,
	})
	c := newClient(t)
	login(t, c, mt, loginBody)

	rec, _ := c.do("POST", "/console/api/pages/users/confirmation", map[string]string{"id": "1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = c.do("DELETE", "/console/api/pages/users/items/1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, mt.CallsTo("DELETE", "/api/users/1"))
}

func TestPages_DeleteNeedsConfirmation(t *testing.T) {
	mt := testkit.Install(t,
		testkit.MockStep{Method: "GET", MatchURL: "/api/fabrics", Body: `[{"id":"2","nombre":"Denim","activo":true},{"id":"3","nombre":"Linen","activo":true}]`},
		testkit.MockStep{Method: "DELETE", MatchURL: "/api/fabrics/2", StatusCode: 204},
	)
	c := newClient(t)
	login(t, c, mt, loginBody)

	rec, _ := c.do("DELETE", "/console/api/pages/fabrics/items/2", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, out := c.do("POST", "/console/api/pages/fabrics/confirmation", map[string]string{"id": "2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := out["data"].(map[string]any)
	assert.Equal(t, "open", data["state"])
	assert.Equal(t, "Denim", data["name"])

	rec, _ = c.do("DELETE", "/console/api/pages/fabrics/items/3", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "only the confirmed record may be deleted")

	rec, _ = c.do("DELETE", "/console/api/pages/fabrics/items/2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, mt.CallsTo("DELETE", "/api/fabrics/2"), 1)

	_, out = c.do("GET", "/console/api/pages/fabrics/confirmation", nil)
	assert.Equal(t, "closed", out["data"].(map[string]any)["state"])
}

func TestPages_DeleteFailureKeepsDialogOpen(t *testing.T) {
	mt := testkit.Install(t,
		testkit.MockStep{Method: "GET", MatchURL: "/api/fabrics", Body: `[{"id":"2","nombre":"Denim","activo":true}]`},
		testkit.MockStep{Method: "DELETE", MatchURL: "/api/fabrics/2", StatusCode: 409, Body: `{"detail":"Fabric is in use"}`},
	)
	c := newClient(t)
	login(t, c, mt, loginBody)

	rec, _ := c.do("POST", "/console/api/pages/fabrics/confirmation", map[string]string{"id": "2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, out := c.do("DELETE", "/console/api/pages/fabrics/items/2", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Fabric is in use", out["message"])

	_, out = c.do("GET", "/console/api/pages/fabrics/confirmation", nil)
	data := out["data"].(map[string]any)
	assert.Equal(t, "open", data["state"])
	assert.Equal(t, "2", data["target"])
	assert.Equal(t, "Fabric is in use", data["error"])

	_, out = c.do("DELETE", "/console/api/pages/fabrics/confirmation", nil)
	assert.Equal(t, "closed", out["data"].(map[string]any)["state"])
}

func TestPages_ReorderPersistsInBackground(t *testing.T) {
	mt := testkit.Install(t,
		testkit.MockStep{Method: "GET", MatchURL: "/api/brands", Body: `[{"id":"a","nombre":"A","orden":0},{"id":"b","nombre":"B","orden":1},{"id":"c","nombre":"C","orden":2}]`},
		testkit.MockStep{Method: "PUT", MatchURL: "/api/brands/reorder", StatusCode: 204},
	)
	c := newClient(t)
	login(t, c, mt, loginBody)

	rec, out := c.do("POST", "/console/api/pages/brands/reorder", map[string]any{"from": 0, "to": 2})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["data"].(map[string]any)["reordered"])

	assert.Eventually(t, func() bool { return len(mt.CallsTo("PUT", "/api/brands/reorder")) == 1 },
		2*time.Second, 10*time.Millisecond)
	var sent struct {
		Items []struct {
			ID    string `json:"id"`
			Order int    `json:"orden"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(mt.CallsTo("PUT", "/api/brands/reorder")[0].Body, &sent))
	require.Len(t, sent.Items, 3)
	assert.Equal(t, "b", sent.Items[0].ID)
	assert.Equal(t, "a", sent.Items[2].ID)

	rec, _ = c.do("POST", "/console/api/pages/brands/reorder", map[string]any{"from": 0, "to": 9})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = c.do("POST", "/console/api/pages/brands/reorder", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPages_ReorderRefusedOnUnorderedList(t *testing.T) {
	mt := testkit.Install(t, testkit.MockStep{Method: "GET", MatchURL: "/api/fits", Body: `[{"id":"1","nombre":"Slim"}]`})
	c := newClient(t)
	login(t, c, mt, loginBody)

	rec, _ := c.do("POST", "/console/api/pages/fits/reorder", map[string]any{"id": "1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPages_UploadForwardsMultipart(t *testing.T) {
	mt := testkit.Install(t,
		testkit.MockStep{Method: "POST", MatchURL: "/api/sheets/3/file", Body: `{"id":"3","nombre":"Sheet","archivo":"fichas/a.pdf"}`},
		testkit.MockStep{Method: "GET", MatchURL: "/api/sheets", Body: `[]`},
	)
	c := newClient(t)
	login(t, c, mt, loginBody)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "a.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/console/api/pages/sheets/items/3/file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec, _ := c.send(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	calls := mt.CallsTo("POST", "/api/sheets/3/file")
	require.Len(t, calls, 1)
	assert.Contains(t, string(calls[0].Body), "%PDF-1.4")
	assert.Contains(t, calls[0].Header.Get("Content-Type"), "multipart/form-data")

	rec, _ = c.do("DELETE", "/console/api/pages/sheets/items/3/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFilesProxy(t *testing.T) {
	mt := testkit.Install(t, testkit.MockStep{Method: "GET", MatchURL: "/api/files/fichas/a.pdf", Body: "%PDF-1.4"})
	c := newClient(t)
	login(t, c, mt, loginBody)

	rec, _ := c.do("GET", "/console/api/files/fichas/a.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
}

func TestDashboard(t *testing.T) {
	mt := testkit.Install(t, testkit.MockStep{
		Method: "GET", MatchURL: "/api/dashboard/stats", Body: `{"brands":3,"fabrics":2}`,
	})
	c := newClient(t)
	login(t, c, mt, loginBody)

	rec, out := c.do("GET", "/console/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 5, out["data"].(map[string]any)["total"])
}
