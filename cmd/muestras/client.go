package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shashiranjanraj/muestras/config"
	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/gate"
	"github.com/shashiranjanraj/muestras/pkg/listview"
	"github.com/shashiranjanraj/muestras/pkg/notify"
	"github.com/shashiranjanraj/muestras/pkg/pages"
	"github.com/shashiranjanraj/muestras/pkg/session"
	"github.com/shashiranjanraj/muestras/pkg/tokenstore"
	"github.com/shashiranjanraj/muestras/pkg/workerpool"
)

var errNotSignedIn = errors.New("not signed in, run: muestras login")

// terminal is the CLI's session: the stored token, an API client and a bus
// that prints toasts to stderr.
type terminal struct {
	sess   *session.Session
	client *catalog.Client
	bus    *notify.Bus
}

func open(ctx context.Context) (*terminal, error) {
	store, err := tokenstore.Open(config.TokenStore(), tokenstore.DefaultScope)
	if err != nil {
		return nil, err
	}
	bus := notify.NewBus()
	bus.Listen(printToasts(os.Stderr))

	authn := catalog.New(config.BackendURL(), nil, catalog.WithTimeout(config.HTTPTimeout()))
	sess := session.New(store, authn, session.WithBus(bus))
	sess.Init(ctx)

	return &terminal{
		sess:   sess,
		client: catalog.New(config.BackendURL(), sess, catalog.WithTimeout(config.HTTPTimeout())),
		bus:    bus,
	}, nil
}

func printToasts(w io.Writer) notify.Listener {
	return func(t notify.Toast) {
		fmt.Fprintf(w, "[%s] %s\n", t.Level, t.Message)
	}
}

// authorize applies the console's navigation rules to route.
func (t *terminal) authorize(route string) error {
	d := gate.Default().Decide(t.sess.State(), t.sess.User(), route)
	switch {
	case d.Allow:
		return nil
	case d.Redirect == gate.LoginPath:
		return errNotSignedIn
	default:
		return fmt.Errorf("%s is for administrators only", route)
	}
}

// page opens the page of a resource key after checking access.
func (t *terminal) page(ctx context.Context, key string, uploads *workerpool.Pool) (*pages.Page, error) {
	r, err := catalog.Lookup(key)
	if err != nil {
		return nil, err
	}
	if err := t.authorize("/" + string(r)); err != nil {
		return nil, err
	}
	def, ok := pages.Lookup(r)
	if !ok {
		return nil, fmt.Errorf("no page for %s", r)
	}
	return pages.New(def, t.client, pages.Options{
		Notifier: t.bus,
		CurrentUser: func() catalog.User {
			if u := t.sess.User(); u != nil {
				return *u
			}
			return catalog.User{}
		},
		Uploads: uploads,
		Context: ctx,
	}), nil
}

// parseSet splits key=value assignments.
func parseSet(pairs []string) ([][2]string, error) {
	out := make([][2]string, 0, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", p)
		}
		out = append(out, [2]string{k, v})
	}
	return out, nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
}

func printView(w io.Writer, v listview.View) error {
	tw := newTable(w)
	header := []string{"ID"}
	for _, c := range v.Columns {
		header = append(header, strings.ToUpper(c.Label))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	if v.Placeholder != "" {
		fmt.Fprintln(tw, v.Placeholder)
		return tw.Flush()
	}
	for _, r := range v.Rows {
		fmt.Fprintln(tw, r.ID+"\t"+strings.Join(r.Cells, "\t"))
	}
	return tw.Flush()
}
