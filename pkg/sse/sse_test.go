package sse_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/muestras/pkg/sse"
)

type plainWriter struct {
	header http.Header
	status int
}

func (p *plainWriter) Header() http.Header { return p.header }
func (p *plainWriter) Write(b []byte) (int, error) { return len(b), nil }
func (p *plainWriter) WriteHeader(code int) { p.status = code }

func TestStream_SendAndComment(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/stream", nil)

	s, err := sse.New(w, r)
	require.NoError(t, err)
	require.NoError(t, s.Send("toast", map[string]string{"summary": "Saved"}))
	require.NoError(t, s.Comment("ping"))

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, "event: toast\ndata: {\"summary\":\"Saved\"}\n\n: ping\n\n", w.Body.String())
}

func TestStream_ClosedClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)

	s, err := sse.New(w, r)
	require.NoError(t, err)
	cancel()

	<-s.Done()
	assert.ErrorIs(t, s.Send("toast", "late"), context.Canceled)
	assert.Empty(t, w.Body.String())
}

func TestNew_Unsupported(t *testing.T) {
	w := &plainWriter{header: http.Header{}}
	r := httptest.NewRequest(http.MethodGet, "/stream", nil)

	s, err := sse.New(w, r)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, sse.ErrUnsupported)
	assert.Equal(t, http.StatusInternalServerError, w.status)
}
