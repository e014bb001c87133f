package controllers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/shashiranjanraj/muestras/app/services"
	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/dashboard"
	"github.com/shashiranjanraj/muestras/pkg/logger"
	"github.com/shashiranjanraj/muestras/pkg/notify"
	"github.com/shashiranjanraj/muestras/pkg/response"
	"github.com/shashiranjanraj/muestras/pkg/router"
	"github.com/shashiranjanraj/muestras/pkg/sse"
)

// ConsoleController serves the dashboard, attachments and notifications.
type ConsoleController struct {
	console *services.Console

	// Poll is how often ToastStream drains the queue; Heartbeat how often it
	// writes a keep-alive comment.
	Poll      time.Duration
	Heartbeat time.Duration
}

func NewConsoleController(console *services.Console) *ConsoleController {
	return &ConsoleController{console: console, Poll: time.Second, Heartbeat: 15 * time.Second}
}

func workspace(console *services.Console, w http.ResponseWriter, r *http.Request) (*services.Workspace, bool) {
	ws, ok := console.FromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
	}
	return ws, ok
}

func (c *ConsoleController) Dashboard(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(c.console, w, r)
	if !ok {
		return
	}
	summary, err := dashboard.Load(r.Context(), ws.Client(), ws.Notifier())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, summary)
}

// File streams a stored attachment from the backend.
func (c *ConsoleController) File(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(c.console, w, r)
	if !ok {
		return
	}
	p := router.Param(r, "*")
	if p == "" {
		response.NotFound(w)
		return
	}

	body, err := ws.Client().FetchFile(r.Context(), p)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			response.NotFound(w)
			return
		}
		response.FromError(w, err)
		return
	}
	defer body.Close()

	ctype := mime.TypeByExtension(path.Ext(p))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	if _, err := io.Copy(w, body); err != nil {
		logger.WithCtx(r.Context()).Warn("console: file copy interrupted", "path", p, "error", err)
	}
}

// Toasts returns and forgets the notifications queued for this session.
func (c *ConsoleController) Toasts(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(c.console, w, r)
	if !ok {
		return
	}
	toasts, err := ws.Toasts().Drain(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	if toasts == nil {
		toasts = []notify.Toast{}
	}
	response.Success(w, toasts)
}

// ToastStream pushes queued notifications as "toast" events until the
// browser disconnects.
func (c *ConsoleController) ToastStream(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(c.console, w, r)
	if !ok {
		return
	}
	stream, err := sse.New(w, r)
	if err != nil {
		return
	}
	log := logger.WithCtx(r.Context())

	flush := func() bool {
		toasts, err := ws.Toasts().Drain(r.Context())
		if err != nil {
			log.Warn("console: toast drain failed", "error", err)
			return true
		}
		for _, t := range toasts {
			if err := stream.Send("toast", t); err != nil {
				return false
			}
		}
		return true
	}

	poll := time.NewTicker(c.Poll)
	defer poll.Stop()
	beat := time.NewTicker(c.Heartbeat)
	defer beat.Stop()

	if !flush() {
		return
	}
	for {
		select {
		case <-stream.Done():
			return
		case <-poll.C:
			if !flush() {
				return
			}
		case <-beat.C:
			if stream.Comment("ping") != nil {
				return
			}
		}
	}
}

func Health(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{"status": "ok"})
}
