// Package http provides the fluent HTTP request builder used for every call
// to the catalog backend.
//
// Usage:
//
//	resp, err := http.Get(base + "/api/brands").
//	    Bearer(token).
//	    Query("search", "nik").
//	    WithContext(ctx).
//	    Send()
//
//	var brands []catalog.Item
//	err = resp.JSON(&brands)
//
// Requests are sent exactly once. Retrying is the caller's decision.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	gohttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/muestras/pkg/logger"
	"github.com/shashiranjanraj/muestras/pkg/reqid"
)

// RequestIDHeader carries a per-request correlation id to the backend.
const RequestIDHeader = "X-Request-ID"

// defaultTransport is the connection-pooled transport used in production.
// Tests can replace DefaultClient.Transport to inject mocks.
var defaultTransport = &gohttp.Transport{
	MaxIdleConns:        50,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
}

// DefaultClient is the shared HTTP client used by all outgoing requests.
// Tests can swap DefaultClient.Transport to intercept calls:
//
//	http.DefaultClient.Transport = myMockTransport
//	defer http.ResetTransport()
var DefaultClient = &gohttp.Client{
	Transport: defaultTransport,
}

// ResetTransport restores the production transport on DefaultClient.
func ResetTransport() {
	DefaultClient.Transport = defaultTransport
}

// ------------------- Request -------------------

// FilePart is one file of a multipart body.
type FilePart struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Request is a fluent HTTP request builder.
type Request struct {
	method  string
	url     string
	headers map[string]string
	query   url.Values
	body    interface{}
	fields  url.Values
	files   []FilePart
	timeout time.Duration
	ctx     context.Context
}

// Get starts a GET request.
func Get(rawURL string) *Request { return newRequest(gohttp.MethodGet, rawURL) }

// Post starts a POST request.
func Post(rawURL string) *Request { return newRequest(gohttp.MethodPost, rawURL) }

// Put starts a PUT request.
func Put(rawURL string) *Request { return newRequest(gohttp.MethodPut, rawURL) }

// Delete starts a DELETE request.
func Delete(rawURL string) *Request { return newRequest(gohttp.MethodDelete, rawURL) }

func newRequest(method, rawURL string) *Request {
	return &Request{
		method:  method,
		url:     rawURL,
		headers: map[string]string{"Accept": "application/json"},
		query:   url.Values{},
		timeout: 30 * time.Second,
		ctx:     context.Background(),
	}
}

// Header adds a single header to the request.
func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Bearer sets the Authorization: Bearer <token> header. An empty token is
// ignored so anonymous calls carry no header at all.
func (r *Request) Bearer(token string) *Request {
	if token == "" {
		return r
	}
	return r.Header("Authorization", "Bearer "+token)
}

// Query adds a query-string parameter. Empty values are skipped.
func (r *Request) Query(key, value string) *Request {
	if value == "" {
		return r
	}
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Add(key, value)
	return r
}

// Body sets a JSON request body. Pass a string or []byte to send raw bodies.
func (r *Request) Body(v interface{}) *Request {
	r.body = v
	return r
}

// Field adds a plain multipart form value.
func (r *Request) Field(name, value string) *Request {
	if r.fields == nil {
		r.fields = url.Values{}
	}
	r.fields.Add(name, value)
	return r
}

// File adds a file to a multipart body. Any call to File or Field turns the
// request into multipart/form-data and Body is ignored.
func (r *Request) File(part FilePart) *Request {
	r.files = append(r.files, part)
	return r
}

// Timeout sets the overall request timeout.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// WithContext sets a custom context.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx != nil {
		r.ctx = ctx
	}
	return r
}

// ------------------- Send -------------------

// Send executes the request once. A non-nil error means the request never
// produced a response (transport failure, timeout, cancelled context); any
// HTTP status, 2xx or not, is returned as a Response.
func (r *Request) Send() (*Response, error) {
	start := time.Now()

	body, ct, err := r.buildBody()
	if err != nil {
		return nil, err
	}

	ctx := r.ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	target := r.url
	if len(r.query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + r.query.Encode()
	}

	req, err := gohttp.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	rid := req.Header.Get(RequestIDHeader)
	if rid == "" {
		rid = reqid.FromCtx(r.ctx)
	}
	if rid == "" {
		rid = uuid.NewString()
	}
	req.Header.Set(RequestIDHeader, rid)

	resp, err := DefaultClient.Do(req)
	if err != nil {
		logger.WithCtx(r.ctx).Debug("http: send failed",
			"method", r.method, "url", r.url, "request_id", rid, "error", err)
		return nil, fmt.Errorf("http: send: %w", err)
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}

	logger.WithCtx(r.ctx).Debug("http: request",
		"method", r.method,
		"url", r.url,
		"status", resp.StatusCode,
		"request_id", rid,
		"duration", time.Since(start).String(),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Raw:        raw,
	}, nil
}

func (r *Request) buildBody() (io.Reader, string, error) {
	if len(r.files) > 0 || len(r.fields) > 0 {
		return r.buildMultipart()
	}
	if r.body == nil {
		return nil, "", nil
	}
	switch v := r.body.(type) {
	case string:
		return bytes.NewBufferString(v), "text/plain", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("http: marshal body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}
}

func (r *Request) buildMultipart() (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for name, vals := range r.fields {
		for _, v := range vals {
			if err := mw.WriteField(name, v); err != nil {
				return nil, "", fmt.Errorf("http: multipart field %s: %w", name, err)
			}
		}
	}
	for _, f := range r.files {
		w, err := mw.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("http: multipart file %s: %w", f.Filename, err)
		}
		if _, err := io.Copy(w, f.Content); err != nil {
			return nil, "", fmt.Errorf("http: multipart copy %s: %w", f.Filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("http: multipart close: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

// ------------------- Response -------------------

// Response wraps the HTTP response with convenience methods.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON unmarshals the response body into dest.
func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Raw)
}

// Header returns a single response header value.
func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}
