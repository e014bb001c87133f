// Package controllers implements the console's JSON endpoints.
package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/muestras/app/services"
	"github.com/shashiranjanraj/muestras/pkg/bind"
	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/logger"
	"github.com/shashiranjanraj/muestras/pkg/response"
	"github.com/shashiranjanraj/muestras/pkg/session"
)

type AuthController struct {
	console *services.Console
}

func NewAuthController(console *services.Console) *AuthController {
	return &AuthController{console: console}
}

// Me is the body of the session endpoints.
type Me struct {
	State string        `json:"state"`
	User  *catalog.User `json:"user,omitempty"`
	Admin bool          `json:"admin"`
}

func me(sess *session.Session) Me {
	return Me{State: sess.State().String(), User: sess.User(), Admin: sess.IsAdmin()}
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := session.FromCtx(r.Context())
	err := sess.Login(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, session.ErrMissingCredentials):
		errs := map[string]string{}
		if body.Username == "" {
			errs["username"] = "required"
		}
		if body.Password == "" {
			errs["password"] = "required"
		}
		response.ValidationError(w, errs)
		return
	case errors.Is(err, catalog.ErrTransport):
		response.FromError(w, err)
		return
	case err != nil:
		logger.WithCtx(r.Context()).Info("console: login rejected", "username", body.Username)
		response.Error(w, http.StatusUnauthorized, catalog.Message(err, "Invalid username or password"))
		return
	}

	if ws, ok := c.console.FromCtx(r.Context()); ok {
		ws.Notifier().Success("Welcome " + sess.User().Username)
	}
	response.Success(w, me(sess))
}

func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromCtx(r.Context())
	if err := sess.Logout(r.Context()); err != nil {
		logger.WithCtx(r.Context()).Warn("console: token store not cleared", "error", err)
	}
	response.Success(w, me(sess))
}

func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	response.Success(w, me(session.FromCtx(r.Context())))
}
