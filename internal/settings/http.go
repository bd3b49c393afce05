// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/lumenpress/lumen/internal/platform/request"
	"github.com/lumenpress/lumen/internal/platform/respond"
)

// HTTP exposes the settings service over REST endpoints.
type HTTP struct {
	service *Service
}

// NewHTTP creates the HTTP transport for the settings domain.
func NewHTTP(service *Service) *HTTP {
	return &HTTP{service: service}
}

// PublicRoutes returns the unauthenticated router mounted at
// /api/v1/settings.
func (h *HTTP) PublicRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", h.handlePublicGet)
	return router
}

// AdminRoutes returns the router mounted behind the admin guard at
// /api/v1/admin/settings.
func (h *HTTP) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", h.handleGet)
	router.Put("/", h.handleUpdate)
	return router
}

// handlePublicGet processes GET /api/v1/settings: the rendering hints only.
func (h *HTTP) handlePublicGet(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, h.service.Get(request.Context()).Public())
}

// handleGet processes GET /api/v1/admin/settings: the full snapshot.
func (h *HTTP) handleGet(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, h.service.Get(request.Context()))
}

// handleUpdate processes PUT /api/v1/admin/settings.
func (h *HTTP) handleUpdate(writer http.ResponseWriter, request *http.Request) {
	var input Settings
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := h.service.Update(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}
