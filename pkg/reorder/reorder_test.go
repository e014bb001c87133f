package reorder_test

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/notify"
	"github.com/shashiranjanraj/muestras/pkg/reorder"
)

type row struct{ id string }

func (r row) ItemID() string { return r.id }

func rows(ids ...string) []row {
	out := make([]row, len(ids))
	for i, id := range ids {
		out[i] = row{id}
	}
	return out
}

func ids(rs []row) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.id
	}
	return out
}

func ptr(s string) *string { return &s }

// referenceMove is remove-then-insert on a fresh slice.
func referenceMove(in []row, from, to int) []row {
	tmp := append([]row(nil), in[:from]...)
	tmp = append(tmp, in[from+1:]...)
	out := append([]row(nil), tmp[:to]...)
	out = append(out, in[from])
	return append(out, tmp[to:]...)
}

func TestMove_MatchesStandardMove(t *testing.T) {
	for n := 2; n <= 6; n++ {
		var in []row
		for k := 0; k < n; k++ {
			in = append(in, row{strconv.Itoa(k)})
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				got := reorder.Move(in, i, j)
				assert.Equal(t, referenceMove(in, i, j), got, "n=%d %d->%d", n, i, j)

				p := reorder.Payload(got)
				require.NoError(t, reorder.ValidatePayload(in, p))
				for pos, e := range p {
					assert.Equal(t, pos, e.Order)
				}
			}
		}
		assert.Equal(t, ids(in), ids(reorder.Move(in, 0, n)), "out of range is a copy")
	}
}

func TestMove_DoesNotMutateInput(t *testing.T) {
	in := rows("1", "2", "3")
	_ = reorder.Move(in, 2, 0)
	assert.Equal(t, []string{"1", "2", "3"}, ids(in))
}

func TestPayload_ExampleScenario(t *testing.T) {
	got := reorder.Move(rows("1", "2", "3"), 2, 0)
	assert.Equal(t, []string{"3", "1", "2"}, ids(got))
	assert.Equal(t, []catalog.ReorderItem{
		{ID: "3", Order: 0}, {ID: "1", Order: 1}, {ID: "2", Order: 2},
	}, reorder.Payload(got))
}

func TestValidatePayload_Rejects(t *testing.T) {
	cur := rows("a", "b")
	assert.Error(t, reorder.ValidatePayload(cur, []catalog.ReorderItem{{ID: "a", Order: 0}}))
	assert.Error(t, reorder.ValidatePayload(cur, []catalog.ReorderItem{{ID: "a", Order: 0}, {ID: "a", Order: 1}}))
	assert.Error(t, reorder.ValidatePayload(cur, []catalog.ReorderItem{{ID: "a", Order: 0}, {ID: "b", Order: 0}}))
	assert.Error(t, reorder.ValidatePayload(cur, []catalog.ReorderItem{{ID: "a", Order: 0}, {ID: "c", Order: 1}}))
	assert.Error(t, reorder.ValidatePayload(cur, []catalog.ReorderItem{{ID: "a", Order: 0}, {ID: "b", Order: 2}}))
}

// store simulates the backend's orden column.
type store struct {
	mu    sync.Mutex
	order map[string]int
	fail  error
	calls int
}

func newStore(ids ...string) *store {
	s := &store{order: map[string]int{}}
	for i, id := range ids {
		s.order[id] = i
	}
	return s
}

func (s *store) persist(_ context.Context, p []catalog.ReorderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail != nil {
		return s.fail
	}
	for _, e := range p {
		s.order[e.ID] = e.Order
	}
	return nil
}

func (s *store) fetch(context.Context) ([]row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []row
	for id := range s.order {
		out = append(out, row{id})
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].id] < s.order[out[j].id] })
	return out, nil
}

func (s *store) snapshot() []string {
	r, _ := s.fetch(context.Background())
	return ids(r)
}

func TestPayload_Idempotent(t *testing.T) {
	s := newStore("1", "2", "3")
	p := reorder.Payload(rows("3", "1", "2"))

	require.NoError(t, s.persist(context.Background(), p))
	once := s.snapshot()
	require.NoError(t, s.persist(context.Background(), p))
	assert.Equal(t, once, s.snapshot())
}

func newList(s *store, rec *notify.Recorder, items []row) *reorder.List[row] {
	bus := notify.NewBus()
	bus.Listen(rec.Listen)
	return reorder.NewList(reorder.Config[row]{
		Resource: "brands",
		Persist:  s.persist,
		Fetch:    s.fetch,
		Notifier: bus,
	}, items)
}

func TestList_DragPersists(t *testing.T) {
	s := newStore("1", "2", "3")
	rec := notify.NewRecorder()
	l := newList(s, rec, rows("1", "2", "3"))

	require.True(t, l.BeginDrag("3"))
	assert.Equal(t, reorder.Dragging, l.State())

	res := l.EndDrag(context.Background(), ptr("1"))
	assert.True(t, res.Reordered)
	assert.Equal(t, reorder.Idle, l.State())
	assert.Equal(t, []string{"3", "1", "2"}, ids(l.Items()), "optimistic update is synchronous")

	l.Wait()
	assert.Equal(t, []string{"3", "1", "2"}, s.snapshot())
	assert.Empty(t, rec.Toasts())
}

func TestList_NoOpDrops(t *testing.T) {
	s := newStore("1", "2", "3")
	l := newList(s, notify.NewRecorder(), rows("1", "2", "3"))

	l.BeginDrag("2")
	assert.False(t, l.EndDrag(context.Background(), nil).Reordered)

	l.BeginDrag("2")
	assert.False(t, l.EndDrag(context.Background(), ptr("2")).Reordered)

	l.BeginDrag("2")
	assert.False(t, l.EndDrag(context.Background(), ptr("missing")).Reordered)

	assert.False(t, l.EndDrag(context.Background(), ptr("1")).Reordered, "no drag in progress")

	l.Wait()
	assert.Equal(t, []string{"1", "2", "3"}, ids(l.Items()))
	assert.Zero(t, s.calls)
}

func TestList_TinyCollections(t *testing.T) {
	s := newStore()
	empty := newList(s, notify.NewRecorder(), nil)
	assert.False(t, empty.BeginDrag("x"))
	assert.False(t, empty.EndDrag(context.Background(), ptr("x")).Reordered)

	one := newList(s, notify.NewRecorder(), rows("1"))
	assert.False(t, one.BeginDrag("1"))
	_, err := one.MoveByPosition(context.Background(), 0, 1)
	assert.Error(t, err)

	one.Wait()
	assert.Zero(t, s.calls)
}

func TestList_FailureResyncsToAuthoritative(t *testing.T) {
	s := newStore("1", "2", "3")
	s.fail = &catalog.APIError{Status: 500}
	rec := notify.NewRecorder()
	l := newList(s, rec, rows("1", "2", "3"))

	res, err := l.MoveByPosition(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.True(t, res.Reordered)
	assert.Equal(t, []string{"2", "3", "1"}, ids(l.Items()))

	l.Wait()
	assert.Equal(t, []string{"1", "2", "3"}, ids(l.Items()))
	assert.Equal(t, []string{reorder.MsgSaveFailed}, rec.Messages(notify.LevelError))
}

func TestList_FailureSurfacesBackendDetail(t *testing.T) {
	s := newStore("1", "2")
	s.fail = &catalog.APIError{Status: 422, Detail: "orden inválido"}
	rec := notify.NewRecorder()
	l := newList(s, rec, rows("1", "2"))

	_, err := l.MoveByPosition(context.Background(), 1, 0)
	require.NoError(t, err)
	l.Wait()
	assert.Equal(t, []string{"orden inválido"}, rec.Messages(notify.LevelError))
}

func TestList_ResyncFailureKeepsState(t *testing.T) {
	rec := notify.NewRecorder()
	bus := notify.NewBus()
	bus.Listen(rec.Listen)
	l := reorder.NewList(reorder.Config[row]{
		Resource: "brands",
		Persist:  func(context.Context, []catalog.ReorderItem) error { return errors.New("down") },
		Fetch:    func(context.Context) ([]row, error) { return nil, errors.New("still down") },
		Notifier: bus,
	}, rows("1", "2"))

	_, err := l.MoveByPosition(context.Background(), 0, 1)
	require.NoError(t, err)
	l.Wait()

	assert.Equal(t, []string{"2", "1"}, ids(l.Items()))
	assert.Equal(t, []string{reorder.MsgSaveFailed, reorder.MsgReloadFailed}, rec.Messages(notify.LevelError))
}

func TestList_SuccessiveDragsFireIndependentBatches(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var batches [][]catalog.ReorderItem

	l := reorder.NewList(reorder.Config[row]{
		Resource: "sewing-states",
		Persist: func(_ context.Context, p []catalog.ReorderItem) error {
			mu.Lock()
			batches = append(batches, p)
			mu.Unlock()
			<-release
			return nil
		},
	}, rows("a", "b", "c"))

	_, err := l.MoveByPosition(context.Background(), 0, 2)
	require.NoError(t, err)
	_, err = l.MoveByPosition(context.Background(), 0, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "b", "a"}, ids(l.Items()), "second drag starts from the latest visible sequence")

	close(release)
	l.Wait()
	assert.Len(t, batches, 2)
}

func TestList_PersistOutlivesCallerContext(t *testing.T) {
	s := newStore("1", "2")

	ctx, cancel := context.WithCancel(context.Background())
	var seen error
	l := reorder.NewList(reorder.Config[row]{
		Resource: "brands",
		Persist: func(ctx context.Context, p []catalog.ReorderItem) error {
			seen = ctx.Err()
			return s.persist(ctx, p)
		},
	}, rows("1", "2"))
	cancel()

	_, err := l.MoveByPosition(ctx, 0, 1)
	require.NoError(t, err)
	l.Wait()
	assert.NoError(t, seen)
	assert.Equal(t, []string{"2", "1"}, s.snapshot())
}
