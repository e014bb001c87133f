package pages

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/confirm"
	"github.com/shashiranjanraj/muestras/pkg/form"
	"github.com/shashiranjanraj/muestras/pkg/listview"
	"github.com/shashiranjanraj/muestras/pkg/logger"
	"github.com/shashiranjanraj/muestras/pkg/notify"
	"github.com/shashiranjanraj/muestras/pkg/reorder"
	"github.com/shashiranjanraj/muestras/pkg/storage"
	"github.com/shashiranjanraj/muestras/pkg/workerpool"
)

var (
	// ErrNotReorderable is returned by Move and Drag on pages without ordering.
	ErrNotReorderable = errors.New("pages: list cannot be reordered")
	// ErrSelfDelete is returned when a user tries to delete their own account.
	ErrSelfDelete = errors.New("pages: you cannot delete your own user")
	// ErrUnknownItem is returned for ids that are not in the list.
	ErrUnknownItem = errors.New("pages: no such record in the list")
)

// Backend is the part of *catalog.Client a page needs.
type Backend interface {
	List(ctx context.Context, r catalog.Resource, q catalog.Query) ([]catalog.Item, error)
	Create(ctx context.Context, r catalog.Resource, v catalog.Values) (catalog.Item, error)
	Update(ctx context.Context, r catalog.Resource, id string, v catalog.Values) (catalog.Item, error)
	Delete(ctx context.Context, r catalog.Resource, id string) error
	Reorder(ctx context.Context, r catalog.Resource, items []catalog.ReorderItem) error
	Upload(ctx context.Context, r catalog.Resource, id, asset string, files []catalog.File) (catalog.Item, error)
	DeleteAsset(ctx context.Context, r catalog.Resource, id, asset string, index int) error
}

// Options are the collaborators shared by every page of a session.
type Options struct {
	Notifier  notify.Notifier
	Debouncer *listview.Debouncer
	// CurrentUser returns the signed-in user.
	CurrentUser func() catalog.User
	// Uploads reads upload sources concurrently. Nil reads them one by one.
	Uploads *workerpool.Pool
	// Context runs debounced fetches.
	Context context.Context
}

// Page is one resource screen.
type Page struct {
	def     Definition
	backend Backend
	opts    Options

	list    *listview.Controller
	order   *reorder.List[catalog.Item]
	confirm *confirm.Dialog

	mu     sync.Mutex
	fields []form.Field
	names  map[catalog.Resource]map[string]string
}

// New builds the page of def.
func New(def Definition, backend Backend, opts Options) *Page {
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.CurrentUser == nil {
		opts.CurrentUser = func() catalog.User { return catalog.User{} }
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	p := &Page{
		def:     def,
		backend: backend,
		opts:    opts,
		confirm: confirm.New(),
		names:   map[catalog.Resource]map[string]string{},
	}

	columns := make([]listview.Column, len(def.Columns))
	copy(columns, def.Columns)
	for i, col := range columns {
		if src, ok := def.Refs[col.Key]; ok {
			columns[i].Render = p.refRenderer(src)
		}
	}

	if def.Resource.Reorderable() {
		p.order = reorder.NewList(reorder.Config[catalog.Item]{
			Resource: string(def.Resource),
			Persist: func(ctx context.Context, payload []catalog.ReorderItem) error {
				return backend.Reorder(ctx, def.Resource, payload)
			},
			Fetch: func(ctx context.Context) ([]catalog.Item, error) {
				return backend.List(ctx, def.Resource, p.list.Query())
			},
			Notifier: opts.Notifier,
			OnChange: func(items []catalog.Item) { p.list.SetRows(items) },
		}, nil)
	}

	p.list = listview.NewController(listview.Config{
		Label:     strings.ToLower(def.Title),
		Columns:   columns,
		Notifier:  opts.Notifier,
		Debouncer: opts.Debouncer,
		Empty:     def.Empty,
		Context:   opts.Context,
		Fetch: func(ctx context.Context, q catalog.Query) ([]catalog.Item, error) {
			return backend.List(ctx, def.Resource, q)
		},
		OnRows: func(items []catalog.Item) {
			if p.order != nil {
				p.order.Replace(items)
			}
		},
	})
	return p
}

// Definition returns what the page was built from.
func (p *Page) Definition() Definition { return p.def }

// Load fetches the rows and, when the list shows references, the names of
// the referenced records.
func (p *Page) Load(ctx context.Context) error {
	if len(p.def.Refs) > 0 {
		if _, err := p.Fields(ctx); err != nil {
			return err
		}
	}
	return p.list.Refresh(ctx)
}

// SetSearch narrows the list once typing settles.
func (p *Page) SetSearch(text string) { p.list.SetSearch(text) }

// SetFilter applies the active filter once input settles. Pages without the
// filter ignore it.
func (p *Page) SetFilter(f listview.Filter) {
	if !p.def.Filterable {
		return
	}
	p.list.SetFilter(f)
}

// Search runs a query immediately, bypassing the debounce.
func (p *Page) Search(ctx context.Context, text string, f listview.Filter) error {
	if !p.def.Filterable {
		f = listview.FilterAll
	}
	p.list.SetQuery(text, f)
	return p.Load(ctx)
}

// Rows returns the visible records in display order.
func (p *Page) Rows() []catalog.Item {
	if p.order != nil {
		return p.order.Items()
	}
	return p.list.Rows()
}

// View renders the list.
func (p *Page) View() listview.View { return p.list.View() }

// Wait blocks until running fetches and background reorder saves finish.
func (p *Page) Wait() {
	p.list.Wait()
	if p.order != nil {
		p.order.Wait()
	}
}

// Close stops scheduled fetches.
func (p *Page) Close() { p.list.Close() }

// Fields returns the form fields with every Select bound to another resource
// filled with that resource's active records. Sources are fetched
// concurrently once per page; a source that fails to load leaves its select
// empty.
func (p *Page) Fields(ctx context.Context) ([]form.Field, error) {
	p.mu.Lock()
	if p.fields != nil {
		defer p.mu.Unlock()
		return p.fields, nil
	}
	p.mu.Unlock()

	sources := map[catalog.Resource]bool{}
	for _, f := range p.def.Fields {
		if s, ok := f.(form.Select); ok && s.Source != "" {
			sources[s.Source] = true
		}
	}
	for _, src := range p.def.Refs {
		sources[src] = true
	}

	active := true
	var (
		mu     sync.Mutex
		loaded = map[catalog.Resource][]catalog.Item{}
	)
	g, gctx := errgroup.WithContext(ctx)
	for src := range sources {
		g.Go(func() error {
			items, err := p.backend.List(gctx, src, catalog.Query{Active: &active})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.WithCtx(ctx).Warn("pages: options not loaded", "resource", p.def.Resource, "source", src, "error", err)
				return nil
			}
			mu.Lock()
			loaded[src] = items
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fields := make([]form.Field, len(p.def.Fields))
	for i, f := range p.def.Fields {
		s, ok := f.(form.Select)
		if !ok || s.Source == "" {
			fields[i] = f
			continue
		}
		s.Options = make([]form.Option, 0, len(loaded[s.Source]))
		for _, it := range loaded[s.Source] {
			s.Options = append(s.Options, form.Option{Value: it.ID, Label: it.Name})
		}
		fields[i] = s
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for src, items := range loaded {
		names := make(map[string]string, len(items))
		for _, it := range items {
			names[it.ID] = it.Name
		}
		p.names[src] = names
	}
	p.fields = fields
	return fields, nil
}

func (p *Page) refRenderer(src catalog.Resource) func(any, catalog.Item) string {
	return func(v any, _ catalog.Item) string {
		id := fmt.Sprint(v)
		p.mu.Lock()
		name := p.names[src][id]
		p.mu.Unlock()
		if name == "" {
			return "-"
		}
		return name
	}
}

// NewItem opens an empty add dialog.
func (p *Page) NewItem(ctx context.Context) (*form.Dialog, error) {
	fields, err := p.Fields(ctx)
	if err != nil {
		return nil, err
	}
	return form.NewCreate(fields), nil
}

// EditItem opens the edit dialog of a listed record.
func (p *Page) EditItem(ctx context.Context, id string) (*form.Dialog, error) {
	it, ok := p.find(id)
	if !ok {
		return nil, ErrUnknownItem
	}
	fields, err := p.Fields(ctx)
	if err != nil {
		return nil, err
	}
	return form.NewEdit(fields, it), nil
}

func (p *Page) find(id string) (catalog.Item, bool) {
	for _, it := range p.Rows() {
		if it.ID == id {
			return it, true
		}
	}
	return catalog.Item{}, false
}

// Save submits d, creating or updating the record, then reloads the list.
// Outcomes are reported through the notifier.
func (p *Page) Save(ctx context.Context, d *form.Dialog) error {
	var saved catalog.Item
	err := d.Submit(ctx, func(ctx context.Context, v catalog.Values) error {
		var err error
		if d.Mode() == form.ModeEdit {
			saved, err = p.backend.Update(ctx, p.def.Resource, d.ItemID(), v)
		} else {
			saved, err = p.backend.Create(ctx, p.def.Resource, v)
		}
		return err
	})

	var required *form.RequiredError
	switch {
	case errors.As(err, &required):
		p.opts.Notifier.Error("complete the required fields")
		return err
	case errors.Is(err, form.ErrBusy), errors.Is(err, form.ErrClosed):
		return err
	case err != nil:
		logger.WithCtx(ctx).Warn("pages: save failed", "resource", p.def.Resource, "error", err)
		p.opts.Notifier.Error(catalog.Message(err, "could not save "+p.singular()))
		return err
	}

	if d.Mode() == form.ModeEdit {
		p.opts.Notifier.Success(p.def.Singular + " updated")
	} else {
		p.opts.Notifier.Success(p.def.Singular + " created")
	}
	logger.WithCtx(ctx).Info("pages: saved", "resource", p.def.Resource, "id", saved.ID, "mode", d.Mode().String())
	_ = p.list.Refresh(ctx)
	return nil
}

// RequestDelete opens the confirmation for id. Users cannot delete
// themselves.
func (p *Page) RequestDelete(id string) error {
	it, ok := p.find(id)
	if !ok {
		return ErrUnknownItem
	}
	if p.def.Resource == catalog.Users && id == p.opts.CurrentUser().ID {
		p.opts.Notifier.Error("you cannot delete your own user")
		return ErrSelfDelete
	}
	name := it.Name
	if username, ok := it.Get("username"); ok {
		name = fmt.Sprint(username)
	}
	p.confirm.Open(id, name)
	return nil
}

// Confirmation exposes the delete dialog.
func (p *Page) Confirmation() *confirm.Dialog { return p.confirm }

// ConfirmDelete deletes the record awaiting confirmation. On failure the
// dialog stays open with the error.
func (p *Page) ConfirmDelete(ctx context.Context) error {
	id := p.confirm.Target()
	err := p.confirm.Confirm(ctx, func(ctx context.Context) error {
		return p.backend.Delete(ctx, p.def.Resource, id)
	})
	switch {
	case errors.Is(err, confirm.ErrNotOpen), errors.Is(err, confirm.ErrBusy):
		return err
	case err != nil:
		logger.WithCtx(ctx).Warn("pages: delete failed", "resource", p.def.Resource, "id", id, "error", err)
		p.opts.Notifier.Error(catalog.Message(err, "could not delete "+p.singular()))
		return err
	}
	p.opts.Notifier.Success(p.def.Singular + " deleted")
	_ = p.list.Refresh(ctx)
	return nil
}

// Move drags the record at position from onto position to.
func (p *Page) Move(ctx context.Context, from, to int) (reorder.Result, error) {
	if p.order == nil {
		return reorder.Result{}, ErrNotReorderable
	}
	return p.order.MoveByPosition(ctx, from, to)
}

// Drag drops the record source onto the position of target. A nil target
// cancels the drag.
func (p *Page) Drag(ctx context.Context, source string, target *string) (reorder.Result, error) {
	if p.order == nil {
		return reorder.Result{}, ErrNotReorderable
	}
	if !p.order.BeginDrag(source) {
		return reorder.Result{}, nil
	}
	return p.order.EndDrag(ctx, target), nil
}

// Source is one file to upload, read from a storage disk.
type Source struct {
	Path string
	// Name is the display name for assets that take one.
	Name string
}

// Upload reads the sources from disk and attaches them to the asset of id in
// one request. Sources are read concurrently through the upload pool.
func (p *Page) Upload(ctx context.Context, id, asset string, disk storage.Disk, sources []Source) (catalog.Item, error) {
	files, err := p.readSources(ctx, disk, sources)
	if err != nil {
		p.opts.Notifier.Error("could not read the file to upload")
		return catalog.Item{}, err
	}
	return p.UploadFiles(ctx, id, asset, files)
}

// UploadFiles attaches already opened files to the asset of id.
func (p *Page) UploadFiles(ctx context.Context, id, asset string, files []catalog.File) (catalog.Item, error) {
	it, err := p.backend.Upload(ctx, p.def.Resource, id, asset, files)
	if err != nil {
		logger.WithCtx(ctx).Warn("pages: upload failed", "resource", p.def.Resource, "id", id, "asset", asset, "error", err)
		p.opts.Notifier.Error(catalog.Message(err, "could not upload the file"))
		return catalog.Item{}, err
	}
	if len(files) == 1 {
		p.opts.Notifier.Success("File uploaded")
	} else {
		p.opts.Notifier.Success(fmt.Sprintf("%d files uploaded", len(files)))
	}
	_ = p.list.Refresh(ctx)
	return it, nil
}

func (p *Page) readSources(ctx context.Context, disk storage.Disk, sources []Source) ([]catalog.File, error) {
	files := make([]catalog.File, len(sources))
	tasks := make([]func(context.Context) error, len(sources))
	for i, src := range sources {
		tasks[i] = func(ctx context.Context) error {
			rc, err := disk.Open(ctx, src.Path)
			if err != nil {
				return fmt.Errorf("pages: open %s: %w", src.Path, err)
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				return fmt.Errorf("pages: read %s: %w", src.Path, err)
			}
			files[i] = catalog.File{Filename: path.Base(src.Path), Name: src.Name, Content: bytes.NewReader(data)}
			return nil
		}
	}

	if p.opts.Uploads != nil {
		return files, workerpool.Join(p.opts.Uploads.Run(ctx, tasks...))
	}
	for _, task := range tasks {
		if err := task(ctx); err != nil {
			return nil, err
		}
	}
	return files, nil
}

// RemoveAsset deletes one attachment of id.
func (p *Page) RemoveAsset(ctx context.Context, id, asset string, index int) error {
	if err := p.backend.DeleteAsset(ctx, p.def.Resource, id, asset, index); err != nil {
		logger.WithCtx(ctx).Warn("pages: remove attachment failed", "resource", p.def.Resource, "id", id, "asset", asset, "error", err)
		p.opts.Notifier.Error(catalog.Message(err, "could not remove the file"))
		return err
	}
	p.opts.Notifier.Success("File removed")
	_ = p.list.Refresh(ctx)
	return nil
}

func (p *Page) singular() string { return strings.ToLower(p.def.Singular) }
