// Package testkit intercepts outgoing calls made through pkg/http so packages
// that talk to the catalog backend can be tested without a network.
//
//	mt := testkit.Install(t,
//	    testkit.MockStep{Method: "GET", MatchURL: "/api/brands", Body: `[{"id":"1","nombre":"Nike"}]`},
//	    testkit.MockStep{Method: "PUT", MatchURL: "/api/brands/reorder", StatusCode: 500, Body: `{"detail":"boom"}`},
//	)
//	// ... exercise the client ...
//	mt.AssertAllCalled(t)
package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	khttp "github.com/shashiranjanraj/muestras/pkg/http"
)

// MockStep describes one canned response.
type MockStep struct {
	Method     string // empty matches any method
	MatchURL   string // path prefix (or full URL prefix); empty matches any URL
	StatusCode int    // defaults to 200
	Body       string
	Err        error // returned instead of a response, simulates a transport failure
	// Handle overrides StatusCode/Body/Err when set.
	Handle func(req *http.Request, body []byte) (int, string, error)
}

// Call is one intercepted request.
type Call struct {
	Method string
	URL    string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// MockTransport implements http.RoundTripper. Steps are matched in
// registration order; the most specific matching prefix wins.
type MockTransport struct {
	mu      sync.Mutex
	steps   []httpMockEntry
	calls   []Call
	require bool
}

type httpMockEntry struct {
	step      MockStep
	callCount int
}

// NewMockTransport builds a transport that fails any unmatched call.
func NewMockTransport(steps ...MockStep) *MockTransport {
	mt := &MockTransport{require: true}
	for _, s := range steps {
		mt.steps = append(mt.steps, httpMockEntry{step: s})
	}
	return mt
}

// Install puts a new MockTransport on pkg/http.DefaultClient for the duration of t.
func Install(t testing.TB, steps ...MockStep) *MockTransport {
	t.Helper()
	mt := NewMockTransport(steps...)
	khttp.DefaultClient.Transport = mt
	t.Cleanup(khttp.ResetTransport)
	return mt
}

// Add registers more steps after installation.
func (mt *MockTransport) Add(steps ...MockStep) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	for _, s := range steps {
		mt.steps = append(mt.steps, httpMockEntry{step: s})
	}
}

// RoundTrip intercepts the outgoing request and returns a synthetic response.
func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	mt.mu.Lock()
	mt.calls = append(mt.calls, Call{
		Method: req.Method,
		URL:    req.URL.String(),
		Path:   req.URL.Path,
		Query:  req.URL.RawQuery,
		Header: req.Header.Clone(),
		Body:   body,
	})

	entry := mt.match(req)
	if entry == nil {
		mt.mu.Unlock()
		if mt.require {
			return nil, fmt.Errorf("testkit: unexpected outgoing HTTP call %s %s, no matching mock step", req.Method, req.URL)
		}
		return buildHTTPResponse(req, http.StatusNotFound, `{"detail":"no mock configured"}`), nil
	}
	entry.callCount++
	step := entry.step
	mt.mu.Unlock()

	if step.Handle != nil {
		code, out, err := step.Handle(req, body)
		if err != nil {
			return nil, err
		}
		return buildHTTPResponse(req, code, out), nil
	}
	if step.Err != nil {
		return nil, step.Err
	}
	return buildHTTPResponse(req, step.StatusCode, step.Body), nil
}

func (mt *MockTransport) match(req *http.Request) *httpMockEntry {
	var best *httpMockEntry
	for i := range mt.steps {
		e := &mt.steps[i]
		if e.step.Method != "" && !strings.EqualFold(e.step.Method, req.Method) {
			continue
		}
		if !urlMatches(req.URL, e.step.MatchURL) {
			continue
		}
		if best == nil || len(e.step.MatchURL) > len(best.step.MatchURL) {
			best = e
		}
	}
	return best
}

// Calls returns a copy of every intercepted request, in order.
func (mt *MockTransport) Calls() []Call {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]Call(nil), mt.calls...)
}

// CallsTo returns the intercepted requests with the given method and exact path.
func (mt *MockTransport) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range mt.Calls() {
		if strings.EqualFold(c.Method, method) && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// AssertAllCalled fails t for every step that was never matched.
func (mt *MockTransport) AssertAllCalled(t testing.TB) {
	t.Helper()
	mt.mu.Lock()
	defer mt.mu.Unlock()

	for _, e := range mt.steps {
		if e.callCount == 0 {
			t.Errorf("testkit: mock step %s %q was never called", e.step.Method, e.step.MatchURL)
		}
	}
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// urlMatches reports whether pattern is a prefix of the request path or of
// the full URL. An empty pattern matches everything.
func urlMatches(u interface{ String() string }, pattern string) bool {
	if pattern == "" {
		return true
	}
	full := u.String()
	if strings.HasPrefix(full, pattern) {
		return true
	}
	if i := strings.Index(full, "://"); i >= 0 {
		rest := full[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			return strings.HasPrefix(rest[j:], pattern)
		}
	}
	return false
}

func buildHTTPResponse(req *http.Request, code int, body string) *http.Response {
	if code == 0 {
		code = http.StatusOK
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Request:    req,
	}
}
