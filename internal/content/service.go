// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package content

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lumenpress/lumen/internal/media"
	"github.com/lumenpress/lumen/internal/pagecache"
	"github.com/lumenpress/lumen/internal/platform/apperr"
	"github.com/lumenpress/lumen/internal/platform/dberr"
	"github.com/lumenpress/lumen/internal/platform/sec"
	"github.com/lumenpress/lumen/internal/platform/validate"
	"github.com/lumenpress/lumen/pkg/htmlimg"
	"github.com/lumenpress/lumen/pkg/pagination"
	"github.com/lumenpress/lumen/pkg/slug"
)

// # Public Paths

// Paths of the rendered pages each mutation can stale.
const (
	homePath    = "/"
	sitemapPath = "/sitemap.xml"
)

func postPath(postSlug string) string         { return "/" + postSlug }
func categoryPath(categorySlug string) string { return "/category/" + categorySlug }

// Service implements the publication business logic.
type Service struct {
	posts      PostRepository
	categories CategoryRepository
	blobs      media.Store
	cache      pagecache.Invalidator
	preview    *sec.PreviewTokenService
	generator  Generator
	logger     *slog.Logger

	// now is injectable for deterministic publish-timestamp tests.
	now func() time.Time
}

// NewService creates the content service with its dependencies. generator
// may be nil when no model provider is configured; the drafting operations
// then report unavailable.
func NewService(
	posts PostRepository,
	categories CategoryRepository,
	blobs media.Store,
	cache pagecache.Invalidator,
	preview *sec.PreviewTokenService,
	generator Generator,
	logger *slog.Logger,
) *Service {
	return &Service{
		posts:      posts,
		categories: categories,
		blobs:      blobs,
		cache:      cache,
		preview:    preview,
		generator:  generator,
		logger:     logger,
		now:        time.Now,
	}
}

// # Posts

/*
CreatePost validates, slugs, and persists a new post.

Policies applied here:

  - The slug derives from the title and is made unique by optimistic insert
    retries: the base slug first, then -1, -2, … on each unique-violation.
  - When the author picked no featured image, the first embedded <img> of
    the content body is promoted.
  - published_at is stamped iff the post is created as published.
  - Category links are attached one by one; a failing link does not undo
    the post, it is reported in the LinkReport instead.
*/
func (s *Service) CreatePost(ctx context.Context, authorID string, input PostInput) (*Post, *LinkReport, error) {
	if input.Status == "" {
		input.Status = StatusDraft
	}

	if err := s.validatePostInput(input); err != nil {
		return nil, nil, err
	}

	post := &Post{
		Title:         input.Title,
		Content:       input.Content,
		Excerpt:       input.Excerpt,
		FeaturedImage: featuredImageFor(input),
		Status:        input.Status,
		AuthorID:      authorID,
	}
	if post.Status == StatusPublished {
		now := s.now()
		post.PublishedAt = &now
	}

	insertedSlug, err := s.insertWithUniqueSlug(ctx, input.Title, "post",
		s.posts.SlugExists,
		func(ctx context.Context, candidate string) error {
			post.Slug = candidate
			return s.posts.Create(ctx, post)
		})
	if err != nil {
		return nil, nil, err
	}
	post.Slug = insertedSlug

	report := s.linkCategories(ctx, post.ID, input.CategoryIDs)

	s.invalidatePostScope(ctx, post, report.Linked)

	s.logger.InfoContext(ctx, "post created",
		"post_id", post.ID, "slug", post.Slug, "status", post.Status)

	return post, report, nil
}

/*
UpdatePost rewrites a post's content and category set.

The slug is never regenerated: published URLs stay stable across retitles.
published_at changes only on status transitions — stamped on draft→published,
cleared on published→draft, untouched otherwise. The category set is
replaced wholesale inside one transaction.
*/
func (s *Service) UpdatePost(ctx context.Context, id string, input PostInput) (*Post, error) {
	if input.Status == "" {
		input.Status = StatusDraft
	}

	if err := s.validatePostInput(input); err != nil {
		return nil, err
	}

	existing, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	wasPublished := existing.Published()

	existing.Title = input.Title
	existing.Content = input.Content
	existing.Excerpt = input.Excerpt
	existing.FeaturedImage = featuredImageFor(input)
	existing.Status = input.Status

	switch {
	case !wasPublished && existing.Published():
		now := s.now()
		existing.PublishedAt = &now
	case wasPublished && !existing.Published():
		existing.PublishedAt = nil
	}

	if err := s.posts.Update(ctx, existing); err != nil {
		return nil, err
	}

	if err := s.posts.ReplaceCategories(ctx, existing.ID, input.CategoryIDs); err != nil {
		return nil, err
	}

	s.invalidatePostScope(ctx, existing, input.CategoryIDs)
	if wasPublished || existing.Published() {
		s.invalidate(ctx, postPath(existing.Slug))
	}

	s.logger.InfoContext(ctx, "post updated",
		"post_id", existing.ID, "status", existing.Status)

	return s.posts.FindByID(ctx, id)
}

/*
DeletePost removes a post together with its managed images.

Images embedded in the content and the featured image are deleted from the
blob store concurrently, allSettled-style: every deletion is attempted, the
per-URL outcome lands in the CleanupReport, and no blob failure blocks the
row deletion. Join rows disappear via ON DELETE CASCADE.
*/
func (s *Service) DeletePost(ctx context.Context, id string) (*CleanupReport, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	report := s.cleanupImages(ctx, managedImages(post, s.blobs))

	if err := s.posts.Delete(ctx, id); err != nil {
		return report, err
	}

	var categorySlugs []string
	for _, c := range post.Categories {
		categorySlugs = append(categorySlugs, categoryPath(c.Slug))
	}
	s.invalidate(ctx, append(categorySlugs, homePath, sitemapPath, postPath(post.Slug))...)

	s.logger.InfoContext(ctx, "post deleted",
		"post_id", id, "blobs_deleted", len(report.Deleted), "blobs_failed", len(report.Failed))

	return report, nil
}

/*
GetPostBySlug serves the public post detail.

Drafts are invisible here: a draft slug behaves exactly like a missing one.
Each successful fetch bumps the view counter once, best-effort — a failed
bump is logged and the page still renders.
*/
func (s *Service) GetPostBySlug(ctx context.Context, postSlug string) (*Post, error) {
	post, err := s.posts.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	if !post.Published() {
		return nil, apperr.NotFound("Post")
	}

	if err := s.posts.IncrementViewCount(ctx, post.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to increment view count",
			"post_id", post.ID, "error", err)
	} else {
		post.ViewCount++
	}

	return post, nil
}

// GetPost retrieves a post by ID regardless of status (admin surface).
func (s *Service) GetPost(ctx context.Context, id string) (*Post, error) {
	return s.posts.FindByID(ctx, id)
}

// ListPosts returns posts filtered by status ("" for all), newest first
// (admin surface).
func (s *Service) ListPosts(ctx context.Context, status PostStatus, p pagination.Params) ([]*Post, pagination.Meta, error) {
	if status != "" && !status.Valid() {
		return nil, pagination.Meta{}, validate.RequiredError(FieldStatus, "Unknown status filter")
	}

	posts, total, err := s.posts.List(ctx, status, p)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	return posts, pagination.NewMeta(p.Page, p.Limit, total), nil
}

// ListPublished returns published posts ordered by publish date, newest
// first (public surface).
func (s *Service) ListPublished(ctx context.Context, p pagination.Params) ([]*Post, pagination.Meta, error) {
	posts, total, err := s.posts.ListPublished(ctx, p)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	return posts, pagination.NewMeta(p.Page, p.Limit, total), nil
}

// # Draft Preview

// PreviewToken issues a short-lived signed link token for one post, letting
// an editor share a draft with reviewers who have no account.
func (s *Service) PreviewToken(ctx context.Context, postID string) (string, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return "", err
	}

	token, err := s.preview.GeneratePreviewToken(post.ID, PreviewTokenTTL)
	if err != nil {
		return "", apperr.Internal(err)
	}

	return token, nil
}

// PreviewPost resolves a preview token to its post, any status.
func (s *Service) PreviewPost(ctx context.Context, token string) (*Post, error) {
	postID, err := s.preview.VerifyPreviewToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired preview link")
	}

	return s.posts.FindByID(ctx, postID)
}

// # Assisted Drafting

// generationUnavailableMessage is client-safe; the real cause is logged.
const generationUnavailableMessage = "Content could not be generated. Please try again later."

/*
GenerateDraft produces an editor-ready HTML draft for a topic description.

The model provider is an optional collaborator: when none is configured the
operation reports unavailable rather than failing obscurely, and provider
errors surface as the same client-safe message.
*/
func (s *Service) GenerateDraft(ctx context.Context, prompt string) (string, error) {
	if s.generator == nil {
		return "", apperr.ServiceUnavailable("Content generation is not configured")
	}

	v := &validate.Validator{}
	v.Required(FieldPrompt, prompt)
	if err := v.Err(); err != nil {
		return "", err
	}

	draft, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.ErrorContext(ctx, "draft generation failed", "error", err)
		return "", apperr.ServiceUnavailable(generationUnavailableMessage)
	}

	return draft, nil
}

// ImproveDraft rewrites an existing draft body per the given instruction.
func (s *Service) ImproveDraft(ctx context.Context, body, instruction string) (string, error) {
	if s.generator == nil {
		return "", apperr.ServiceUnavailable("Content generation is not configured")
	}

	v := &validate.Validator{}
	v.Required(FieldContent, body).Required(FieldInstruction, instruction)
	if err := v.Err(); err != nil {
		return "", err
	}

	improved, err := s.generator.Improve(ctx, body, instruction)
	if err != nil {
		s.logger.ErrorContext(ctx, "draft improvement failed", "error", err)
		return "", apperr.ServiceUnavailable(generationUnavailableMessage)
	}

	return improved, nil
}

// # Categories

/*
CreateCategory validates, slugs, and persists a new category.

Same slug policy as posts: derived from the name, unique via optimistic
insert retries.
*/
func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (*Category, error) {
	if err := s.validateCategoryInput(input); err != nil {
		return nil, err
	}

	category := &Category{
		Name:        input.Name,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Featured:    input.Featured,
	}

	insertedSlug, err := s.insertWithUniqueSlug(ctx, input.Name, "category",
		func(ctx context.Context, candidate string) (bool, error) {
			return s.categories.SlugExistsExcept(ctx, candidate, "")
		},
		func(ctx context.Context, candidate string) error {
			category.Slug = candidate
			return s.categories.Create(ctx, category)
		})
	if err != nil {
		return nil, err
	}
	category.Slug = insertedSlug

	s.invalidate(ctx, homePath, sitemapPath, categoryPath(category.Slug))

	s.logger.InfoContext(ctx, "category created",
		"category_id", category.ID, "slug", category.Slug)

	return category, nil
}

/*
UpdateCategory renames a category and re-derives its slug.

Unlike posts, a category rename DOES move its URL: the slug follows the
name, with the category itself excluded from the uniqueness probe so an
unchanged name keeps its slug. A replaced image has its old managed blob
deleted, best-effort.
*/
func (s *Service) UpdateCategory(ctx context.Context, id string, input CategoryInput) (*Category, error) {
	if err := s.validateCategoryInput(input); err != nil {
		return nil, err
	}

	existing, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldSlug := existing.Slug
	oldImage := existing.ImageURL

	existing.Name = input.Name
	existing.Description = input.Description
	existing.ImageURL = input.ImageURL
	existing.Featured = input.Featured

	insertedSlug, err := s.insertWithUniqueSlug(ctx, input.Name, "category",
		func(ctx context.Context, candidate string) (bool, error) {
			return s.categories.SlugExistsExcept(ctx, candidate, id)
		},
		func(ctx context.Context, candidate string) error {
			existing.Slug = candidate
			return s.categories.Update(ctx, existing)
		})
	if err != nil {
		return nil, err
	}
	existing.Slug = insertedSlug

	if oldImage != "" && oldImage != existing.ImageURL && s.blobs.Owns(oldImage) {
		if err := s.blobs.Delete(ctx, oldImage); err != nil {
			s.logger.WarnContext(ctx, "failed to delete replaced category image",
				"category_id", id, "url", oldImage, "error", err)
		}
	}

	paths := []string{homePath, sitemapPath, categoryPath(existing.Slug)}
	if oldSlug != existing.Slug {
		paths = append(paths, categoryPath(oldSlug))
	}
	s.invalidate(ctx, paths...)

	return existing, nil
}

/*
DeleteCategory removes a category, refusing while posts still reference it.

The refusal is a Conflict carrying the live reference count, so the admin
dashboard can tell the editor exactly how much reassignment is left to do.
*/
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.categories.CountPosts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict(fmt.Sprintf(
			"Cannot delete category %q: %d post(s) still reference it", category.Name, count))
	}

	if category.ImageURL != "" && s.blobs.Owns(category.ImageURL) {
		if err := s.blobs.Delete(ctx, category.ImageURL); err != nil {
			s.logger.WarnContext(ctx, "failed to delete category image",
				"category_id", id, "url", category.ImageURL, "error", err)
		}
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, homePath, sitemapPath, categoryPath(category.Slug))

	s.logger.InfoContext(ctx, "category deleted", "category_id", id, "slug", category.Slug)

	return nil
}

// GetCategoryBySlug serves the public category detail.
func (s *Service) GetCategoryBySlug(ctx context.Context, categorySlug string) (*Category, error) {
	return s.categories.FindBySlug(ctx, categorySlug)
}

// ListCategories returns all categories ordered by name, with post counts.
func (s *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.categories.List(ctx)
}

// ListFeaturedCategories returns the categories carrying the featured flag.
func (s *Service) ListFeaturedCategories(ctx context.Context) ([]*Category, error) {
	return s.categories.ListFeatured(ctx)
}

// # Internals

// validatePostInput enforces the writable-field rules shared by create and
// update.
func (s *Service) validatePostInput(input PostInput) error {
	v := &validate.Validator{}
	v.Required(FieldTitle, input.Title).MaxLen(FieldTitle, input.Title, MaxTitleLength)
	v.Required(FieldContent, input.Content)
	v.OneOf(FieldStatus, string(input.Status), string(StatusDraft), string(StatusPublished))
	return v.Err()
}

func (s *Service) validateCategoryInput(input CategoryInput) error {
	v := &validate.Validator{}
	v.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, MaxTitleLength)
	return v.Err()
}

// insertWithUniqueSlug runs the optimistic slug-uniqueness loop around an
// insert (or update) callback.
//
// The base slug derives from the source text; a short existence probe skips
// suffixes that are already visibly taken, then the insert is attempted.
// Losing a concurrent race surfaces as a unique-violation, which simply
// advances to the next suffix. The UNIQUE constraint is the authority; the
// probe only keeps the loop short.
func (s *Service) insertWithUniqueSlug(
	ctx context.Context,
	source, fallback string,
	exists func(context.Context, string) (bool, error),
	insert func(context.Context, string) error,
) (string, error) {
	base := slug.From(source)
	if base == "" {
		base = fallback
	}

	suffix := 0
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate := slug.WithSuffix(base, suffix)

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if taken {
			suffix++
			continue
		}

		err = insert(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if dberr.IsUniqueViolation(err) {
			// Lost the race against a concurrent writer. Next suffix.
			suffix++
			continue
		}
		return "", err
	}

	return "", apperr.Conflict("Could not allocate a unique slug for " + fallback)
}

// featuredImageFor applies the auto-selection policy: an explicit choice
// wins, otherwise the first embedded image of the body.
func featuredImageFor(input PostInput) string {
	if input.FeaturedImage != "" {
		return input.FeaturedImage
	}
	return htmlimg.FirstImage(input.Content)
}

// managedImages collects the post's featured and embedded image URLs that
// live on the managed blob store, deduplicated.
func managedImages(post *Post, blobs media.Store) []string {
	candidates := append([]string{post.FeaturedImage}, htmlimg.ImageURLs(post.Content)...)

	seen := make(map[string]struct{}, len(candidates))
	var owned []string
	for _, url := range candidates {
		if url == "" || !blobs.Owns(url) {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		owned = append(owned, url)
	}

	return owned
}

// cleanupImages deletes blobs concurrently, every deletion attempted
// regardless of the others' outcomes.
func (s *Service) cleanupImages(ctx context.Context, urls []string) *CleanupReport {
	report := &CleanupReport{}
	if len(urls) == 0 {
		return report
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, url := range urls {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := s.blobs.Delete(ctx, url)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.WarnContext(ctx, "blob cleanup failed", "url", url, "error", err)
				report.Failed = append(report.Failed, url)
				return
			}
			report.Deleted = append(report.Deleted, url)
		}()
	}
	wg.Wait()

	return report
}

// linkCategories attaches categories one by one, isolating failures.
func (s *Service) linkCategories(ctx context.Context, postID string, categoryIDs []string) *LinkReport {
	report := &LinkReport{Linked: []string{}}
	for _, categoryID := range categoryIDs {
		if err := s.posts.LinkCategory(ctx, postID, categoryID); err != nil {
			s.logger.WarnContext(ctx, "failed to link category",
				"post_id", postID, "category_id", categoryID, "error", err)
			report.Failed = append(report.Failed, categoryID)
			continue
		}
		report.Linked = append(report.Linked, categoryID)
	}
	return report
}

// invalidatePostScope drops the pages a post mutation stales: home, the
// sitemap, every affected category page, and the post page when visible.
func (s *Service) invalidatePostScope(ctx context.Context, post *Post, categoryIDs []string) {
	paths := []string{homePath, sitemapPath}
	if post.Published() {
		paths = append(paths, postPath(post.Slug))
	}

	for _, categoryID := range categoryIDs {
		category, err := s.categories.FindByID(ctx, categoryID)
		if err != nil {
			continue
		}
		paths = append(paths, categoryPath(category.Slug))
	}

	s.invalidate(ctx, paths...)
}

// invalidate drops rendered pages, logging rather than propagating failure:
// the cache is never allowed to fail a content operation.
func (s *Service) invalidate(ctx context.Context, paths ...string) {
	if err := s.cache.Invalidate(ctx, paths...); err != nil {
		s.logger.WarnContext(ctx, "page invalidation failed", "paths", paths, "error", err)
	}
}
