package dashboard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/dashboard"
	"github.com/shashiranjanraj/muestras/pkg/notify"
)

type stubStats struct {
	stats catalog.Stats
	err   error
	calls int
}

func (s *stubStats) Stats(context.Context) (catalog.Stats, error) {
	s.calls++
	return s.stats, s.err
}

func TestLoad_FillsCounts(t *testing.T) {
	src := &stubStats{stats: catalog.Stats{"brands": 4, "product_types": 2, "cutting_layouts": 1}}

	sum, err := dashboard.Load(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 7, sum.Total)

	counts := map[string]int{}
	for _, c := range sum.Cards {
		counts[c.Key] = c.Count
	}
	assert.Equal(t, 4, counts["brands"])
	assert.Equal(t, 2, counts["product_types"])
	assert.Equal(t, 1, counts["cutting_layouts"])
	assert.Equal(t, 0, counts["models"])
}

func TestLoad_FailureNotifies(t *testing.T) {
	bus := notify.NewBus()
	rec := notify.NewRecorder()
	bus.Listen(rec.Listen)

	sum, err := dashboard.Load(context.Background(), &stubStats{err: errors.New("down")}, bus)
	require.Error(t, err)
	assert.Len(t, sum.Cards, len(dashboard.Cards()))
	assert.Equal(t, []string{"could not load the dashboard"}, rec.Messages(notify.LevelError))
}

func TestCards_LinkToPages(t *testing.T) {
	for _, c := range dashboard.Cards() {
		assert.True(t, c.Res.Valid())
		assert.Equal(t, "/"+string(c.Res), c.Path)
		assert.Equal(t, c.Res.StatKey(), c.Key)
		assert.False(t, c.Res.AdminOnly())
	}
}
