// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package middleware

import (
	"net/http"

	"github.com/lumenpress/lumen/internal/platform/apperr"
	"github.com/lumenpress/lumen/internal/platform/constants"
	"github.com/lumenpress/lumen/internal/platform/ctxutil"
	"github.com/lumenpress/lumen/internal/platform/respond"
	"github.com/lumenpress/lumen/internal/platform/sec"
)

// IdentityFunc resolves an opaque session token to an identity, or nil.
//
// # Why a func type?
//
// A plain func type decouples the middleware from the auth service
// implementation and keeps the wiring in main simple: the auth service
// exposes a compatible method and is passed in directly. Resolution must
// never fail for an invalid or expired token — that case is simply an
// anonymous request (nil identity).
type IdentityFunc func(r *http.Request, token string) *sec.Identity

// Authenticate resolves the session cookie into an identity, if present.
//
// # Flow
//  1. Check for the 'session_token' cookie.
//  2. If absent, the request proceeds as anonymous.
//  3. If present, resolve it through the session store (expiry checked there).
//  4. Inject [*sec.Identity] into the request context for downstream use.
//
// An invalid or expired cookie is treated as anonymous, not as an error:
// public pages must keep working for visitors with stale cookies.
func Authenticate(resolve IdentityFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			cookie, err := request.Cookie(constants.SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(writer, request)
				return
			}

			identity := resolve(request, cookie.Value)
			if identity == nil {
				next.ServeHTTP(writer, request)
				return
			}

			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that lack an authenticated identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetIdentity(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireAdmin rejects requests whose identity lacks the admin flag.
//
// It implies RequireAuth: anonymous callers get 401, authenticated
// non-admins get 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		identity := ctxutil.GetIdentity(request.Context())
		if identity == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		if !identity.IsAdmin {
			respond.Error(writer, request, apperr.Forbidden("Administrator access required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
