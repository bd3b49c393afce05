// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package media

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumenpress/lumen/internal/platform/apperr"
	"github.com/lumenpress/lumen/internal/platform/respond"
)

// HTTP exposes blob uploads over REST. The route group is mounted behind
// the admin guard; anonymous uploads are impossible by construction.
type HTTP struct {
	store Store
}

// NewHTTP creates the HTTP transport for media uploads.
func NewHTTP(store Store) *HTTP {
	return &HTTP{store: store}
}

// Routes returns the router for /api/v1/media.
func (h *HTTP) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", h.handleUpload)
	return router
}

/*
handleUpload processes POST /api/v1/media.

Expects a multipart form with a single "file" part. Responds with the
public URL of the stored blob.
*/
func (h *HTTP) handleUpload(writer http.ResponseWriter, request *http.Request) {
	request.Body = http.MaxBytesReader(writer, request.Body, MaxUploadBytes)

	file, header, err := request.FormFile("file")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("Missing 'file' upload field"))
		return
	}
	defer file.Close()

	url, err := h.store.Upload(request.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]string{"url": url})
}
