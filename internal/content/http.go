// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package content

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumenpress/lumen/internal/pagecache"
	"github.com/lumenpress/lumen/internal/platform/apperr"
	requestutil "github.com/lumenpress/lumen/internal/platform/request"
	"github.com/lumenpress/lumen/internal/platform/respond"
	"github.com/lumenpress/lumen/pkg/pagination"
)

// HTTP exposes the content service over REST endpoints.
type HTTP struct {
	service *Service

	// perPage supplies the site's configured posts-per-page default for
	// public listings. Wired from the settings service; nil falls back to
	// the package default.
	perPage func(r *http.Request) int

	// pages caches the rendered public payloads under the same paths the
	// service invalidates on every mutation. Nil disables caching.
	pages pagecache.Store

	// structuredData builds the machine-readable metadata embedded in the
	// public post detail. Wired from the SEO layer; nil omits it.
	structuredData func(r *http.Request, post *Post) any
}

// NewHTTP creates the HTTP transport for the content domain. perPage, pages,
// and structuredData are optional collaborators; nil disables each.
func NewHTTP(
	service *Service,
	perPage func(r *http.Request) int,
	pages pagecache.Store,
	structuredData func(r *http.Request, post *Post) any,
) *HTTP {
	return &HTTP{
		service:        service,
		perPage:        perPage,
		pages:          pages,
		structuredData: structuredData,
	}
}

// PublicRoutes returns the unauthenticated router mounted at /api/v1.
func (h *HTTP) PublicRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/posts", h.handleListPublished)
	router.Get("/posts/{slug}", h.handleGetPost)
	router.Get("/categories", h.handleListCategories)
	router.Get("/categories/featured", h.handleListFeatured)
	router.Get("/categories/{slug}", h.handleGetCategory)
	router.Get("/preview", h.handlePreview)

	return router
}

// AdminRoutes returns the router mounted behind the admin guard at
// /api/v1/admin.
func (h *HTTP) AdminRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/posts", h.handleAdminListPosts)
	router.Post("/posts", h.handleCreatePost)
	router.Get("/posts/{id}", h.handleAdminGetPost)
	router.Put("/posts/{id}", h.handleUpdatePost)
	router.Delete("/posts/{id}", h.handleDeletePost)
	router.Post("/posts/{id}/preview-token", h.handlePreviewToken)
	router.Post("/posts/generate", h.handleGenerateDraft)
	router.Post("/posts/improve", h.handleImproveDraft)

	router.Post("/categories", h.handleCreateCategory)
	router.Put("/categories/{id}", h.handleUpdateCategory)
	router.Delete("/categories/{id}", h.handleDeleteCategory)

	return router
}

// # Public Handlers

/*
handleListPublished processes GET /api/v1/posts.

The page size honors the site's posts_per_page setting unless the request
overrides it with an explicit limit. The unqualified request is the home
page and is served from (and refills) the rendered-page cache; requests
with explicit pagination bypass it.
*/
func (h *HTTP) handleListPublished(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	query := request.URL.Query()
	cacheable := query.Get("page") == "" && query.Get("limit") == ""
	if cacheable && h.serveCached(writer, request, homePath) {
		return
	}

	defaultLimit := 0
	if h.perPage != nil {
		defaultLimit = h.perPage(request)
	}
	params := pagination.FromRequest(request, defaultLimit)

	posts, meta, err := h.service.ListPublished(ctx, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	payload, err := json.Marshal(respond.PaginatedEnvelope{Data: posts, Meta: meta})
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	if cacheable {
		h.fillCache(ctx, homePath, payload)
	}
	writeJSON(writer, payload)
}

/*
handleGetPost processes GET /api/v1/posts/{slug}.

A cache hit serves the rendered snapshot; like any pre-rendered page it
skips the view counter until the snapshot is invalidated or expires.
*/
func (h *HTTP) handleGetPost(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	postSlug := requestutil.Param(request, "slug")

	if h.serveCached(writer, request, postPath(postSlug)) {
		return
	}

	post, err := h.service.GetPostBySlug(ctx, postSlug)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	body := map[string]any{"post": post}
	if h.structuredData != nil {
		body["json_ld"] = h.structuredData(request, post)
	}

	payload, err := json.Marshal(respond.SuccessEnvelope{Data: body})
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	h.fillCache(ctx, postPath(postSlug), payload)
	writeJSON(writer, payload)
}

// handleListCategories processes GET /api/v1/categories.
func (h *HTTP) handleListCategories(writer http.ResponseWriter, request *http.Request) {
	categories, err := h.service.ListCategories(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, categories)
}

// handleListFeatured processes GET /api/v1/categories/featured.
func (h *HTTP) handleListFeatured(writer http.ResponseWriter, request *http.Request) {
	categories, err := h.service.ListFeaturedCategories(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, categories)
}

// handleGetCategory processes GET /api/v1/categories/{slug}. The rendered
// category page is cached under the same path the service invalidates.
func (h *HTTP) handleGetCategory(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	categorySlug := requestutil.Param(request, "slug")

	if h.serveCached(writer, request, categoryPath(categorySlug)) {
		return
	}

	category, err := h.service.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	payload, err := json.Marshal(respond.SuccessEnvelope{Data: category})
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	h.fillCache(ctx, categoryPath(categorySlug), payload)
	writeJSON(writer, payload)
}

// # Page Cache Plumbing

// serveCached writes the cached snapshot for path when one exists.
func (h *HTTP) serveCached(writer http.ResponseWriter, request *http.Request, path string) bool {
	if h.pages == nil {
		return false
	}

	payload, hit := h.pages.Get(request.Context(), path)
	if !hit {
		return false
	}

	writeJSON(writer, payload)
	return true
}

// fillCache stores a freshly rendered payload. Write failures are already
// logged by the cache and never affect the response.
func (h *HTTP) fillCache(ctx context.Context, path string, payload []byte) {
	if h.pages != nil {
		_ = h.pages.Set(ctx, path, payload)
	}
}

func writeJSON(writer http.ResponseWriter, payload []byte) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = writer.Write(payload)
}

/*
handlePreview processes GET /api/v1/preview?token=…

The signed token is the sole credential: no session is needed, which is the
point — editors share these links with reviewers who have no account.
*/
func (h *HTTP) handlePreview(writer http.ResponseWriter, request *http.Request) {
	post, err := h.service.PreviewPost(request.Context(), request.URL.Query().Get("token"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, post)
}

// # Admin Handlers

// handleAdminListPosts processes GET /api/v1/admin/posts?status=…
func (h *HTTP) handleAdminListPosts(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request, 0)
	status := PostStatus(request.URL.Query().Get("status"))

	posts, meta, err := h.service.ListPosts(request.Context(), status, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, posts, meta)
}

// handleAdminGetPost processes GET /api/v1/admin/posts/{id}.
func (h *HTTP) handleAdminGetPost(writer http.ResponseWriter, request *http.Request) {
	post, err := h.service.GetPost(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, post)
}

// handleCreatePost processes POST /api/v1/admin/posts.
func (h *HTTP) handleCreatePost(writer http.ResponseWriter, request *http.Request) {
	authorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input PostInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	post, links, err := h.service.CreatePost(request.Context(), authorID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]any{"post": post, "links": links})
}

// handleUpdatePost processes PUT /api/v1/admin/posts/{id}.
func (h *HTTP) handleUpdatePost(writer http.ResponseWriter, request *http.Request) {
	var input PostInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	post, err := h.service.UpdatePost(request.Context(), requestutil.Param(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, post)
}

// handleDeletePost processes DELETE /api/v1/admin/posts/{id}.
//
// The response reports the blob cleanup outcome so the dashboard can
// surface orphaned files.
func (h *HTTP) handleDeletePost(writer http.ResponseWriter, request *http.Request) {
	report, err := h.service.DeletePost(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"cleanup": report})
}

// handlePreviewToken processes POST /api/v1/admin/posts/{id}/preview-token.
func (h *HTTP) handlePreviewToken(writer http.ResponseWriter, request *http.Request) {
	token, err := h.service.PreviewToken(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]string{"token": token})
}

// handleGenerateDraft processes POST /api/v1/admin/posts/generate.
func (h *HTTP) handleGenerateDraft(writer http.ResponseWriter, request *http.Request) {
	var input struct {
		Prompt string `json:"prompt"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := h.service.GenerateDraft(request.Context(), input.Prompt)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"content": draft})
}

// handleImproveDraft processes POST /api/v1/admin/posts/improve.
func (h *HTTP) handleImproveDraft(writer http.ResponseWriter, request *http.Request) {
	var input struct {
		Content     string `json:"content"`
		Instruction string `json:"instruction"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	improved, err := h.service.ImproveDraft(request.Context(), input.Content, input.Instruction)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"content": improved})
}

// handleCreateCategory processes POST /api/v1/admin/categories.
func (h *HTTP) handleCreateCategory(writer http.ResponseWriter, request *http.Request) {
	var input CategoryInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	category, err := h.service.CreateCategory(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, category)
}

// handleUpdateCategory processes PUT /api/v1/admin/categories/{id}.
func (h *HTTP) handleUpdateCategory(writer http.ResponseWriter, request *http.Request) {
	var input CategoryInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	category, err := h.service.UpdateCategory(request.Context(), requestutil.Param(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, category)
}

// handleDeleteCategory processes DELETE /api/v1/admin/categories/{id}.
func (h *HTTP) handleDeleteCategory(writer http.ResponseWriter, request *http.Request) {
	if err := h.service.DeleteCategory(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
