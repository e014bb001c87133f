// Package listview is the searchable, filterable table behind every catalog
// page: it owns the query, debounces input, fetches rows and renders them
// through column descriptors.
package listview

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/logger"
	"github.com/shashiranjanraj/muestras/pkg/notify"
)

// DefaultEmpty is shown when a query returns no rows.
const DefaultEmpty = "No records"

// Row actions offered on every rendered row.
const (
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// Column describes one table column. Render is optional.
type Column struct {
	Key    string
	Label  string
	Render func(v any, it catalog.Item) string
}

func (c Column) render(it catalog.Item) string {
	v, _ := it.Get(c.Key)
	if c.Render != nil {
		return c.Render(v, it)
	}
	return Plain(v)
}

// Plain prints v, or "-" when it is missing or empty.
func Plain(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		if t == "" {
			return "-"
		}
		return t
	case bool:
		if t {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprint(t)
	}
}

// Filter is the tri-state active filter.
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterInactive
)

// ParseFilter accepts all, active and inactive (and true/false).
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "active", "true":
		return FilterActive, nil
	case "inactive", "false":
		return FilterInactive, nil
	}
	return FilterAll, fmt.Errorf("listview: unknown filter %q", s)
}

func (f Filter) String() string {
	switch f {
	case FilterActive:
		return "active"
	case FilterInactive:
		return "inactive"
	}
	return "all"
}

// Param is the value of the activo query parameter; nil omits it.
func (f Filter) Param() *bool {
	switch f {
	case FilterActive:
		v := true
		return &v
	case FilterInactive:
		v := false
		return &v
	}
	return nil
}

// Fetcher loads rows for a query.
type Fetcher func(ctx context.Context, q catalog.Query) ([]catalog.Item, error)

// Config builds a Controller.
type Config struct {
	// Label names the collection in error messages ("could not load <Label>").
	Label     string
	Columns   []Column
	Fetch     Fetcher
	Notifier  notify.Notifier
	Debouncer *Debouncer
	Empty     string
	// Context is used for debounced fetches.
	Context context.Context
	// OnRows, when set, receives the rows of every successful fetch.
	OnRows func([]catalog.Item)
}

// Controller holds the state of one list view.
type Controller struct {
	cfg Config

	mu      sync.Mutex
	search  string
	filter  Filter
	rows    []catalog.Item
	loading bool
	err     error
	seq     uint64

	inflight sync.WaitGroup
}

// NewController builds a controller. Nothing is fetched until Refresh or a
// settled SetSearch/SetFilter.
func NewController(cfg Config) *Controller {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}
	if cfg.Debouncer == nil {
		cfg.Debouncer = NewDebouncer(nil, DefaultDelay)
	}
	if cfg.Empty == "" {
		cfg.Empty = DefaultEmpty
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	return &Controller{cfg: cfg, loading: true}
}

// Query returns the query the current search and filter translate to.
func (c *Controller) Query() catalog.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query()
}

func (c *Controller) query() catalog.Query {
	return catalog.Query{Search: strings.TrimSpace(c.search), Active: c.filter.Param()}
}

// SetSearch updates the search text and schedules a fetch once input settles.
func (c *Controller) SetSearch(text string) {
	c.mu.Lock()
	c.search = text
	c.mu.Unlock()
	c.schedule()
}

// SetFilter updates the active filter and schedules a fetch once input settles.
func (c *Controller) SetFilter(f Filter) {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
	c.schedule()
}

// SetQuery replaces search and filter at once without scheduling a fetch.
func (c *Controller) SetQuery(text string, f Filter) {
	c.mu.Lock()
	c.search, c.filter = text, f
	c.mu.Unlock()
}

func (c *Controller) schedule() {
	c.cfg.Debouncer.Trigger(func() {
		_ = c.Refresh(c.cfg.Context)
	})
}

// Refresh fetches at once with the current query. On failure the previous
// rows are kept and an error toast is published.
func (c *Controller) Refresh(ctx context.Context) error {
	c.inflight.Add(1)
	defer c.inflight.Done()

	c.mu.Lock()
	c.seq++
	seq := c.seq
	q := c.query()
	c.loading = true
	c.mu.Unlock()

	rows, err := c.cfg.Fetch(ctx, q)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return err
	}
	c.loading = false
	c.err = err
	if err == nil {
		c.rows = rows
	}
	c.mu.Unlock()

	if err != nil {
		logger.WithCtx(ctx).Warn("listview: fetch failed", "label", c.cfg.Label, "error", err)
		c.cfg.Notifier.Error("could not load " + c.cfg.Label)
		return err
	}
	if c.cfg.OnRows != nil {
		c.cfg.OnRows(rows)
	}
	return nil
}

// Rows returns the rows of the last successful fetch.
func (c *Controller) Rows() []catalog.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]catalog.Item(nil), c.rows...)
}

// SetRows replaces the rows without fetching, e.g. after a reorder.
func (c *Controller) SetRows(rows []catalog.Item) {
	c.mu.Lock()
	c.rows = append([]catalog.Item(nil), rows...)
	c.mu.Unlock()
}

// Loading reports whether a fetch is outstanding (or none has finished yet).
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the error of the last fetch.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Wait blocks until running fetches return. Scheduled ones are not awaited.
func (c *Controller) Wait() { c.inflight.Wait() }

// Close cancels any scheduled fetch.
func (c *Controller) Close() { c.cfg.Debouncer.Stop() }

// Row is one rendered table row.
type Row struct {
	ID      string   `json:"id"`
	Cells   []string `json:"cells"`
	Actions []string `json:"actions"`
}

// Header is one rendered column heading.
type Header struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// View is a render-ready snapshot.
type View struct {
	Columns []Header `json:"columns"`
	Rows    []Row    `json:"rows"`
	Search  string   `json:"search"`
	Filter  string   `json:"filter"`
	Loading bool     `json:"loading"`
	// Placeholder is the single row text shown instead of rows: the loading
	// marker or the empty message.
	Placeholder string `json:"placeholder,omitempty"`
}

// LoadingText replaces the rows while a fetch runs.
const LoadingText = "Loading..."

// View renders the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	rows := append([]catalog.Item(nil), c.rows...)
	v := View{Search: c.search, Filter: c.filter.String(), Loading: c.loading}
	c.mu.Unlock()

	for _, col := range c.cfg.Columns {
		v.Columns = append(v.Columns, Header{Key: col.Key, Label: col.Label})
	}

	v.Rows = make([]Row, 0, len(rows))
	switch {
	case v.Loading:
		v.Placeholder = LoadingText
		return v
	case len(rows) == 0:
		v.Placeholder = c.cfg.Empty
		return v
	}

	for _, it := range rows {
		r := Row{ID: it.ID, Actions: []string{ActionEdit, ActionDelete}}
		for _, col := range c.cfg.Columns {
			r.Cells = append(r.Cells, col.render(it))
		}
		v.Rows = append(v.Rows, r)
	}
	return v
}
