package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/muestras/app/services"
	"github.com/shashiranjanraj/muestras/pkg/bind"
	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/confirm"
	"github.com/shashiranjanraj/muestras/pkg/form"
	"github.com/shashiranjanraj/muestras/pkg/listview"
	"github.com/shashiranjanraj/muestras/pkg/pages"
	"github.com/shashiranjanraj/muestras/pkg/reorder"
	"github.com/shashiranjanraj/muestras/pkg/response"
	"github.com/shashiranjanraj/muestras/pkg/router"
	"github.com/shashiranjanraj/muestras/pkg/session"
)

// PageController drives the resource pages of a workspace.
type PageController struct {
	console *services.Console
}

func NewPageController(console *services.Console) *PageController {
	return &PageController{console: console}
}

// PageSummary is one menu entry.
type PageSummary struct {
	Resource catalog.Resource `json:"resource"`
	Title    string           `json:"title"`
	Path     string           `json:"path"`
}

// PageBody is a rendered page.
type PageBody struct {
	PageSummary
	Singular    string          `json:"singular"`
	Filterable  bool            `json:"filterable"`
	Reorderable bool            `json:"reorderable"`
	Assets      []catalog.Asset `json:"assets,omitempty"`
	View        listview.View   `json:"view"`
}

func body(p *pages.Page) PageBody {
	def := p.Definition()
	return PageBody{
		PageSummary: PageSummary{Resource: def.Resource, Title: def.Title, Path: def.Path()},
		Singular:    def.Singular,
		Filterable:  def.Filterable,
		Reorderable: def.Resource.Reorderable(),
		Assets:      def.Resource.Assets(),
		View:        p.View(),
	}
}

// Index lists the pages the signed-in user may open.
func (c *PageController) Index(w http.ResponseWriter, r *http.Request) {
	var user catalog.User
	if u := session.FromCtx(r.Context()).User(); u != nil {
		user = *u
	}
	defs := pages.Visible(user)
	out := make([]PageSummary, len(defs))
	for i, d := range defs {
		out[i] = PageSummary{Resource: d.Resource, Title: d.Title, Path: d.Path()}
	}
	response.Success(w, out)
}

func (c *PageController) page(w http.ResponseWriter, r *http.Request) (*pages.Page, bool) {
	ws, ok := workspace(c.console, w, r)
	if !ok {
		return nil, false
	}
	res, err := catalog.Lookup(router.Param(r, "resource"))
	if err != nil {
		response.NotFound(w)
		return nil, false
	}
	p, err := ws.Page(res)
	if err != nil {
		response.NotFound(w)
		return nil, false
	}
	return p, true
}

// Show runs the page query given by ?search= and ?filter=.
func (c *PageController) Show(w http.ResponseWriter, r *http.Request) {
	p, ok := c.page(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter, err := listview.ParseFilter(q.Get("filter"))
	if err != nil {
		response.ValidationError(w, map[string]string{"filter": err.Error()})
		return
	}
	if err := p.Search(r.Context(), q.Get("search"), filter); err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, body(p))
}

// Form renders the add dialog, or the edit dialog of ?id=.
func (c *PageController) Form(w http.ResponseWriter, r *http.Request) {
	p, ok := c.page(w, r)
	if !ok {
		return
	}
	var (
		d   *form.Dialog
		err error
	)
	if id := r.URL.Query().Get("id"); id != "" {
		d, err = edit(r.Context(), p, id)
	} else {
		d, err = p.NewItem(r.Context())
	}
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, map[string]any{"mode": d.Mode().String(), "inputs": d.Inputs()})
}

func (c *PageController) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := c.page(w, r)
	if !ok {
		return
	}
	var values map[string]any
	if err := bind.JSON(r, &values); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := p.NewItem(r.Context())
	if err == nil {
		err = fill(d, values)
	}
	if err == nil {
		err = p.Save(r.Context(), d)
	}
	if err != nil {
		fail(w, err)
		return
	}
	response.Created(w, body(p))
}

func (c *PageController) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := c.page(w, r)
	if !ok {
		return
	}
	var values map[string]any
	if err := bind.JSON(r, &values); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := edit(r.Context(), p, router.Param(r, "id"))
	if err == nil {
		err = fill(d, values)
	}
	if err == nil {
		err = p.Save(r.Context(), d)
	}
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, body(p))
}

// Confirmation is the delete dialog as the browser renders it.
type Confirmation struct {
	State  string `json:"state"`
	Target string `json:"target,omitempty"`
	Name   string `json:"name,omitempty"`
	Error  string `json:"error,omitempty"`
}

func confirmation(d *confirm.Dialog) Confirmation {
	out := Confirmation{State: d.State().String(), Target: d.Target(), Name: d.Name()}
	if err := d.Err(); err != nil {
		out.Error = catalog.Message(err, "Could not delete")
	}
	return out
}

// RequestDelete opens the confirmation for {"id"}.
func (c *PageController) RequestDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := c.page(w, r)
	if !ok {
		return
	}
	var in struct {
		ID string `json:"id"`
	}
	if err := bind.JSON(r, &in); err != nil || in.ID == "" {
		response.ValidationError(w, map[string]string{"id": "required"})
		return
	}
	if err := loaded(r.Context(), p, in.ID, func() error { return p.RequestDelete(in.ID) }); err != nil {
		fail(w, err)
		return
	}
	response.Success(w, confirmation(p.Confirmation()))
}

// Confirmation shows the delete dialog, including the error of a failed
// attempt.
func (c *PageController) Confirmation(w http.ResponseWriter, r *http.Request) {
	p, ok := c.page(w, r)
	if !ok {
		return
	}
	response.Success(w, confirmation(p.Confirmation()))
}

// CancelDelete dismisses the delete dialog.
func (c *PageController) CancelDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := c.page(w, r)
	if !ok {
		return
	}
	p.Confirmation().Close()
	response.Success(w, confirmation(p.Confirmation()))
}

// Delete confirms the deletion opened by RequestDelete. A failure leaves the
// dialog open with its error.
func (c *PageController) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := c.page(w, r)
	if !ok {
		return
	}
	d := p.Confirmation()
	if d.State() == confirm.Closed || d.Target() != router.Param(r, "id") {
		response.Error(w, http.StatusConflict, "Confirm the deletion first")
		return
	}
	if err := p.ConfirmDelete(r.Context()); err != nil {
		fail(w, err)
		return
	}
	response.Success(w, body(p))
}

// Reorder moves a record, by position ({"from","to"}) or by drag
// ({"id","target"}). The new order is saved in the background.
func (c *PageController) Reorder(w http.ResponseWriter, r *http.Request) {
	p, ok := c.page(w, r)
	if !ok {
		return
	}
	var in struct {
		From   *int    `json:"from"`
		To     *int    `json:"to"`
		ID     string  `json:"id"`
		Target *string `json:"target"`
	}
	if err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(p.Rows()) == 0 {
		if err := p.Load(r.Context()); err != nil {
			response.FromError(w, err)
			return
		}
	}

	var (
		res reorder.Result
		err error
	)
	switch {
	case in.From != nil && in.To != nil:
		res, err = p.Move(r.Context(), *in.From, *in.To)
	case in.ID != "":
		res, err = p.Drag(r.Context(), in.ID, in.Target)
	default:
		response.ValidationError(w, map[string]string{"from": "required", "to": "required"})
		return
	}
	if err != nil {
		fail(w, err)
		return
	}
	response.Accepted(w, map[string]any{"reordered": res.Reordered, "page": body(p)})
}

// Upload forwards the multipart files to the asset slot of the record.
func (c *PageController) Upload(w http.ResponseWriter, r *http.Request) {
	p, ok := c.page(w, r)
	if !ok {
		return
	}
	files, release, err := bind.Files(r)
	defer release()
	if err != nil {
		response.ValidationError(w, map[string]string{"file": err.Error()})
		return
	}

	asset := router.Param(r, "asset")
	if _, err := p.Definition().Resource.Asset(asset); err != nil {
		response.NotFound(w)
		return
	}
	it, err := p.UploadFiles(r.Context(), router.Param(r, "id"), asset, files)
	if err != nil {
		fail(w, err)
		return
	}
	response.Created(w, it)
}

func (c *PageController) RemoveAsset(w http.ResponseWriter, r *http.Request) {
	p, ok := c.page(w, r)
	if !ok {
		return
	}
	asset := router.Param(r, "asset")
	if _, err := p.Definition().Resource.Asset(asset); err != nil {
		response.NotFound(w)
		return
	}
	index := 0
	if raw := router.Param(r, "index"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.ValidationError(w, map[string]string{"index": "must be a non-negative integer"})
			return
		}
		index = n
	}
	if err := p.RemoveAsset(r.Context(), router.Param(r, "id"), asset, index); err != nil {
		fail(w, err)
		return
	}
	response.Success(w, body(p))
}

// loaded runs fn, loading the list first when id is not in it yet.
func loaded(ctx context.Context, p *pages.Page, id string, fn func() error) error {
	err := fn()
	if !errors.Is(err, pages.ErrUnknownItem) {
		return err
	}
	if err := p.Load(ctx); err != nil {
		return err
	}
	return fn()
}

func edit(ctx context.Context, p *pages.Page, id string) (*form.Dialog, error) {
	var d *form.Dialog
	err := loaded(ctx, p, id, func() error {
		var err error
		d, err = p.EditItem(ctx, id)
		return err
	})
	return d, err
}

// fill copies JSON values into d. Keys must name a field of the page.
func fill(d *form.Dialog, values map[string]any) error {
	for k, v := range values {
		if err := d.Assign(k, v); err != nil {
			return err
		}
	}
	return nil
}

func fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pages.ErrUnknownItem):
		response.NotFound(w)
	case errors.Is(err, pages.ErrSelfDelete):
		response.Error(w, http.StatusForbidden, "You cannot delete your own user")
	case errors.Is(err, pages.ErrNotReorderable):
		response.Error(w, http.StatusConflict, "This list cannot be reordered")
	case errors.Is(err, form.ErrBusy), errors.Is(err, confirm.ErrBusy):
		response.Error(w, http.StatusConflict, "Another change is in progress")
	case errors.Is(err, reorder.ErrOutOfRange):
		response.ValidationError(w, map[string]string{"position": err.Error()})
	default:
		response.FromError(w, err)
	}
}
