// Package catalog is the typed client for the textile catalog backend.
//
//	c := catalog.New(config.BackendURL(), sess)
//	brands, err := c.List(ctx, catalog.Brands, catalog.Query{Search: "nik"})
//
// Every call reads the bearer token from the TokenSource at send time, is
// sent exactly once, and maps failures onto ErrTransport or *APIError.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	khttp "github.com/shashiranjanraj/muestras/pkg/http"
	"github.com/shashiranjanraj/muestras/pkg/metrics"
)

// TokenSource supplies the current access token; empty means anonymous.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource over a fixed string.
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// Client talks to one backend.
type Client struct {
	base    string
	tokens  TokenSource
	timeout time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout bounds every call. Zero leaves only the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New builds a client for baseURL (without the /api suffix). tokens may be nil.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string { return c.base }

func (c *Client) endpoint(parts ...string) string {
	var b strings.Builder
	b.WriteString(c.base)
	b.WriteString("/api")
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// do sends req and decodes a 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, label, op string, req *khttp.Request, out any) error {
	start := time.Now()
	status := 0
	defer func() { metrics.ObserveAPICall(label, op, status, start) }()

	if c.timeout > 0 {
		req.Timeout(c.timeout)
	}
	resp, err := req.Bearer(c.token()).WithContext(ctx).Send()
	if err != nil {
		return fmt.Errorf("catalog: %s %s: %w: %w", op, label, ErrTransport, err)
	}
	status = resp.StatusCode

	if !resp.OK() {
		return newAPIError(op+" "+label, resp.StatusCode, resp.Raw)
	}
	if out == nil || len(bytes.TrimSpace(resp.Raw)) == 0 {
		return nil
	}
	if err := resp.JSON(out); err != nil {
		return fmt.Errorf("catalog: %s %s: %w", op, label, err)
	}
	return nil
}

func (q Query) apply(req *khttp.Request) *khttp.Request {
	req.Query("search", strings.TrimSpace(q.Search))
	if q.Active != nil {
		req.Query("activo", strconv.FormatBool(*q.Active))
	}
	return req
}

// List returns the records of r matching q, in backend order.
func (c *Client) List(ctx context.Context, r Resource, q Query) ([]Item, error) {
	var items []Item
	req := q.apply(khttp.Get(c.endpoint(string(r))))
	if err := c.do(ctx, string(r), "list", req, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Count returns how many records of r match q. Both {"count": n} and a bare
// number are accepted.
func (c *Client) Count(ctx context.Context, r Resource, q Query) (int, error) {
	var raw json.RawMessage
	req := q.apply(khttp.Get(c.endpoint(string(r), "count")))
	if err := c.do(ctx, string(r), "count", req, &raw); err != nil {
		return 0, err
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var wrapped struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return 0, fmt.Errorf("catalog: count %s: %w", r, err)
	}
	return wrapped.Count, nil
}

// Get fetches one record.
func (c *Client) Get(ctx context.Context, r Resource, id string) (Item, error) {
	var it Item
	err := c.do(ctx, string(r), "get", khttp.Get(c.endpoint(string(r), id)), &it)
	return it, err
}

// Create stores a new record and returns it as saved by the backend.
func (c *Client) Create(ctx context.Context, r Resource, v Values) (Item, error) {
	var it Item
	err := c.do(ctx, string(r), "create", khttp.Post(c.endpoint(string(r))).Body(map[string]any(v)), &it)
	return it, err
}

// Update replaces the editable fields of id.
func (c *Client) Update(ctx context.Context, r Resource, id string, v Values) (Item, error) {
	var it Item
	err := c.do(ctx, string(r), "update", khttp.Put(c.endpoint(string(r), id)).Body(map[string]any(v)), &it)
	return it, err
}

// Delete removes id.
func (c *Client) Delete(ctx context.Context, r Resource, id string) error {
	return c.do(ctx, string(r), "delete", khttp.Delete(c.endpoint(string(r), id)), nil)
}

// Reorder persists a full ordering batch. The body is {"items":[{id,orden}...]}.
func (c *Client) Reorder(ctx context.Context, r Resource, items []ReorderItem) error {
	if !r.Reorderable() {
		return fmt.Errorf("catalog: %s is not reorderable", r)
	}
	body := ReorderRequest{Items: items}
	if body.Items == nil {
		body.Items = []ReorderItem{}
	}
	return c.do(ctx, string(r), "reorder", khttp.Put(c.endpoint(string(r), "reorder")).Body(body), nil)
}

// Upload attaches files to the asset slot of id and returns the updated
// record. Single-file assets take exactly one file.
func (c *Client) Upload(ctx context.Context, r Resource, id, asset string, files []File) (Item, error) {
	a, err := r.Asset(asset)
	if err != nil {
		return Item{}, err
	}
	if len(files) == 0 {
		return Item{}, fmt.Errorf("catalog: upload %s/%s: no files", r, asset)
	}
	if !a.Multi && len(files) > 1 {
		return Item{}, fmt.Errorf("catalog: upload %s/%s: accepts a single file", r, asset)
	}

	req := khttp.Post(c.endpoint(string(r), id, a.Name))
	for _, f := range files {
		req.File(khttp.FilePart{Field: a.Field, Filename: f.Filename, Content: f.Content})
		if a.Named && f.Name != "" {
			req.Field("names", f.Name)
		}
	}

	var it Item
	err = c.do(ctx, string(r), "upload", req, &it)
	return it, err
}

// DeleteAsset removes the attachment at index of a multi asset, or the single
// attachment when the asset holds one file (index is then ignored).
func (c *Client) DeleteAsset(ctx context.Context, r Resource, id, asset string, index int) error {
	a, err := r.Asset(asset)
	if err != nil {
		return err
	}
	parts := []string{string(r), id, a.Name}
	if a.Multi {
		if index < 0 {
			return fmt.Errorf("catalog: delete %s/%s: negative index", r, asset)
		}
		parts = append(parts, strconv.Itoa(index))
	}
	return c.do(ctx, string(r), "delete_asset", khttp.Delete(c.endpoint(parts...)), nil)
}

// FileURL is the public URL of a stored attachment path.
func (c *Client) FileURL(path string) string {
	path = strings.TrimLeft(path, "/")
	segs := strings.Split(path, "/")
	return c.endpoint(append([]string{"files"}, segs...)...)
}

// FetchFile downloads a stored attachment.
func (c *Client) FetchFile(ctx context.Context, path string) (io.ReadCloser, error) {
	start := time.Now()
	status := 0
	defer func() { metrics.ObserveAPICall("files", "fetch", status, start) }()

	req := khttp.Get(c.FileURL(path)).Header("Accept", "*/*")
	if c.timeout > 0 {
		req.Timeout(c.timeout)
	}
	resp, err := req.Bearer(c.token()).WithContext(ctx).Send()
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch %s: %w: %w", path, ErrTransport, err)
	}
	status = resp.StatusCode
	if !resp.OK() {
		return nil, newAPIError("fetch "+path, resp.StatusCode, resp.Raw)
	}
	return io.NopCloser(bytes.NewReader(resp.Raw)), nil
}

// Stats returns the record count per resource stat key.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{}
	if err := c.do(ctx, "dashboard", "stats", khttp.Get(c.endpoint("dashboard", "stats")), &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Login exchanges credentials for an access token. It never sends the
// current token.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	var out LoginResponse
	req := khttp.Post(c.endpoint("auth", "login")).Body(map[string]string{
		"username": username,
		"password": password,
	})
	anon := *c
	anon.tokens = nil
	if err := anon.do(ctx, "auth", "login", req, &out); err != nil {
		return LoginResponse{}, err
	}
	if out.AccessToken == "" {
		return LoginResponse{}, errors.New("catalog: login: response carried no access token")
	}
	return out, nil
}

// Me resolves the user behind token.
func (c *Client) Me(ctx context.Context, token string) (User, error) {
	var u User
	fixed := *c
	fixed.tokens = StaticToken(token)
	err := fixed.do(ctx, "auth", "me", khttp.Get(c.endpoint("auth", "me")), &u)
	return u, err
}
