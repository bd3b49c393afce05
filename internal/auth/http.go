// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lumenpress/lumen/internal/platform/config"
	"github.com/lumenpress/lumen/internal/platform/constants"
	requestutil "github.com/lumenpress/lumen/internal/platform/request"
	"github.com/lumenpress/lumen/internal/platform/respond"
)

// HTTP exposes the authentication service over REST endpoints.
type HTTP struct {
	service *Service
	cfg     *config.Config
}

// NewHTTP creates the HTTP transport for the authentication domain.
func NewHTTP(service *Service, cfg *config.Config) *HTTP {
	return &HTTP{service: service, cfg: cfg}
}

// Routes returns the router for /api/v1/auth.
func (h *HTTP) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", h.handleLogin)
	router.Post("/logout", h.handleLogout)
	router.Get("/session", h.handleSession)
	router.Post("/forgot-password", h.handleForgotPassword)
	router.Post("/reset-password", h.handleResetPassword)

	return router
}

// # Request Payloads

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// # Handlers

/*
handleLogin processes POST /api/v1/auth/login.

On success, the opaque session token is delivered exclusively through an
HttpOnly cookie; the JSON body carries the user profile and expiry only.
*/
func (h *HTTP) handleLogin(writer http.ResponseWriter, request *http.Request) {
	var payload loginRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := h.service.Login(request.Context(), payload.Username, payload.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	h.setSessionCookie(writer, result.Token, result.ExpiresAt)
	respond.OK(writer, result)
}

/*
handleLogout processes POST /api/v1/auth/logout.

Always succeeds, even without a session cookie, and clears the cookie in
either case so the browser state ends up clean.
*/
func (h *HTTP) handleLogout(writer http.ResponseWriter, request *http.Request) {
	if cookie, err := request.Cookie(constants.SessionCookieName); err == nil {
		if err := h.service.Logout(request.Context(), cookie.Value); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	h.clearSessionCookie(writer)
	respond.OK(writer, map[string]bool{"logged_out": true})
}

/*
handleSession processes GET /api/v1/auth/session.

It reports the caller's current user, or a null user for anonymous and
expired sessions. This endpoint never returns an authentication error: the
admin dashboard polls it to decide whether to show the login screen.
*/
func (h *HTTP) handleSession(writer http.ResponseWriter, request *http.Request) {
	var token string
	if cookie, err := request.Cookie(constants.SessionCookieName); err == nil {
		token = cookie.Value
	}

	user := h.service.CurrentUser(request.Context(), token)
	respond.OK(writer, map[string]any{"user": user})
}

/*
handleForgotPassword processes POST /api/v1/auth/forgot-password.

The response is identical for known and unknown addresses.
*/
func (h *HTTP) handleForgotPassword(writer http.ResponseWriter, request *http.Request) {
	var payload forgotPasswordRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.service.RequestPasswordReset(request.Context(), payload.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		"message": "If that email address is registered, reset instructions have been sent.",
	})
}

/*
handleResetPassword processes POST /api/v1/auth/reset-password.
*/
func (h *HTTP) handleResetPassword(writer http.ResponseWriter, request *http.Request) {
	var payload resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.service.ResetPassword(request.Context(), payload.Token, payload.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		"message": "Password updated. Please sign in again.",
	})
}

// # Cookie Helpers

// setSessionCookie installs the session cookie.
//
// HttpOnly keeps the token away from scripts; SameSite=Lax lets top-level
// navigations carry it while blocking cross-site POSTs. Secure is enabled
// outside development so the cookie never travels over plain HTTP.
func (h *HTTP) setSessionCookie(writer http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     constants.SessionCookiePath,
		Expires:  expiresAt,
		MaxAge:   int(SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie immediately.
func (h *HTTP) clearSessionCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}
