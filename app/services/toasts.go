package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shashiranjanraj/muestras/pkg/cache"
	"github.com/shashiranjanraj/muestras/pkg/logger"
	"github.com/shashiranjanraj/muestras/pkg/notify"
)

// ToastSink queues the notifications of one console session until the
// browser polls them.
type ToastSink interface {
	Push(ctx context.Context, t notify.Toast) error
	Drain(ctx context.Context) ([]notify.Toast, error)
}

// MemoryToasts keeps toasts in process.
type MemoryToasts struct {
	rec *notify.Recorder
}

func NewMemoryToasts() *MemoryToasts { return &MemoryToasts{rec: notify.NewRecorder()} }

func (m *MemoryToasts) Push(_ context.Context, t notify.Toast) error {
	m.rec.Listen(t)
	return nil
}

func (m *MemoryToasts) Drain(context.Context) ([]notify.Toast, error) {
	return m.rec.Drain(), nil
}

// RedisToasts keeps toasts in a redis list so they survive a restart of the
// console and are visible to every replica.
type RedisToasts struct {
	c   *cache.Cache
	key string
	ttl time.Duration
}

// NewRedisToasts queues under "toasts:<id>". Unread toasts expire after ttl.
func NewRedisToasts(c *cache.Cache, id string, ttl time.Duration) *RedisToasts {
	return &RedisToasts{c: c, key: "toasts:" + id, ttl: ttl}
}

func (r *RedisToasts) Push(ctx context.Context, t notify.Toast) error {
	return r.c.Push(ctx, r.key, t, r.ttl)
}

func (r *RedisToasts) Drain(ctx context.Context) ([]notify.Toast, error) {
	raw, err := r.c.Drain(ctx, r.key)
	if err != nil {
		return nil, err
	}
	out := make([]notify.Toast, 0, len(raw))
	for _, b := range raw {
		var t notify.Toast
		if err := json.Unmarshal(b, &t); err != nil {
			logger.Warn("toasts: dropping undecodable entry", "key", r.key, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// listener pushes every toast of a bus into sink.
func listener(sink ToastSink) notify.Listener {
	return func(t notify.Toast) {
		if err := sink.Push(context.Background(), t); err != nil {
			logger.Warn("toasts: push failed", "error", err)
		}
	}
}
