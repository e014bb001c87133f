// Package sse writes Server-Sent Events to a browser.
//
//	stream, err := sse.New(w, r)
//	if err != nil { return }
//	stream.Send("toast", notify.Toast{Level: notify.LevelSuccess, Message: "Saved"})
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnsupported is returned when the ResponseWriter cannot flush.
var ErrUnsupported = errors.New("sse: streaming unsupported")

// Stream is one open event stream.
type Stream struct {
	w       http.ResponseWriter
	r       *http.Request
	flusher http.Flusher
}

// New sets the event-stream headers and writes the 200 status. When w cannot
// flush it answers 500 and returns ErrUnsupported.
func New(w http.ResponseWriter, r *http.Request) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return nil, ErrUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, r: r, flusher: flusher}, nil
}

// Send writes a named event with a JSON payload.
func (s *Stream) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal %s: %w", event, err)
	}
	return s.write("event: %s\ndata: %s\n\n", event, payload)
}

// Comment writes a comment line. Browsers ignore it; proxies see traffic.
func (s *Stream) Comment(msg string) error {
	return s.write(": %s\n\n", msg)
}

// Done is closed when the client goes away.
func (s *Stream) Done() <-chan struct{} {
	return s.r.Context().Done()
}

func (s *Stream) write(format string, args ...any) error {
	select {
	case <-s.Done():
		return s.r.Context().Err()
	default:
	}
	if _, err := fmt.Fprintf(s.w, format, args...); err != nil {
		return fmt.Errorf("sse: write: %w", err)
	}
	s.flusher.Flush()
	return nil
}
