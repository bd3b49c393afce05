// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package content

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenpress/lumen/internal/platform/apperr"
	"github.com/lumenpress/lumen/internal/platform/dberr"
	"github.com/lumenpress/lumen/internal/platform/sec"
	"github.com/lumenpress/lumen/pkg/pagination"
	"github.com/lumenpress/lumen/pkg/uuid"
)

// # Test Fakes

type fakePostRepo struct {
	posts map[string]*Post    // by ID
	links map[string][]string // postID -> category IDs

	// raceSlugs simulates a concurrent writer: Create fails once with a
	// unique-violation for each listed slug even though SlugExists said free.
	raceSlugs map[string]bool

	linkErrs map[string]error // categoryID -> forced link failure
	bumpErr  error
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		posts:     map[string]*Post{},
		links:     map[string][]string{},
		raceSlugs: map[string]bool{},
		linkErrs:  map[string]error{},
	}
}

func uniqueViolation() error {
	return dberr.Wrap(&pgconn.PgError{Code: "23505"}, "post")
}

func (f *fakePostRepo) Create(_ context.Context, post *Post) error {
	if f.raceSlugs[post.Slug] {
		delete(f.raceSlugs, post.Slug)
		return uniqueViolation()
	}
	for _, existing := range f.posts {
		if existing.Slug == post.Slug {
			return uniqueViolation()
		}
	}
	if post.ID == "" {
		post.ID = uuid.New()
	}
	copied := *post
	f.posts[post.ID] = &copied
	return nil
}

func (f *fakePostRepo) Update(_ context.Context, post *Post) error {
	stored, ok := f.posts[post.ID]
	if !ok {
		return apperr.NotFound("Post")
	}
	copied := *post
	copied.Slug = stored.Slug // slug column is never updated
	f.posts[post.ID] = &copied
	return nil
}

func (f *fakePostRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.posts[id]; !ok {
		return apperr.NotFound("Post")
	}
	delete(f.posts, id)
	delete(f.links, id)
	return nil
}

func (f *fakePostRepo) FindByID(_ context.Context, id string) (*Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return nil, apperr.NotFound("Post")
	}
	copied := *post
	return &copied, nil
}

func (f *fakePostRepo) FindBySlug(_ context.Context, slug string) (*Post, error) {
	for _, post := range f.posts {
		if post.Slug == slug {
			copied := *post
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Post")
}

func (f *fakePostRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, post := range f.posts {
		if post.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePostRepo) List(_ context.Context, status PostStatus, _ pagination.Params) ([]*Post, int, error) {
	var out []*Post
	for _, post := range f.posts {
		if status == "" || post.Status == status {
			copied := *post
			out = append(out, &copied)
		}
	}
	return out, len(out), nil
}

func (f *fakePostRepo) ListPublished(ctx context.Context, p pagination.Params) ([]*Post, int, error) {
	return f.List(ctx, StatusPublished, p)
}

func (f *fakePostRepo) IncrementViewCount(_ context.Context, id string) error {
	if f.bumpErr != nil {
		return f.bumpErr
	}
	if post, ok := f.posts[id]; ok {
		post.ViewCount++
	}
	return nil
}

func (f *fakePostRepo) LinkCategory(_ context.Context, postID, categoryID string) error {
	if err := f.linkErrs[categoryID]; err != nil {
		return err
	}
	f.links[postID] = append(f.links[postID], categoryID)
	return nil
}

func (f *fakePostRepo) ReplaceCategories(_ context.Context, postID string, categoryIDs []string) error {
	f.links[postID] = append([]string{}, categoryIDs...)
	return nil
}

type fakeCategoryRepo struct {
	categories map[string]*Category // by ID
	postCounts map[string]int       // categoryID -> references
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{
		categories: map[string]*Category{},
		postCounts: map[string]int{},
	}
}

func (f *fakeCategoryRepo) Create(_ context.Context, category *Category) error {
	for _, existing := range f.categories {
		if existing.Slug == category.Slug {
			return uniqueViolation()
		}
	}
	if category.ID == "" {
		category.ID = uuid.New()
	}
	copied := *category
	f.categories[category.ID] = &copied
	return nil
}

func (f *fakeCategoryRepo) Update(_ context.Context, category *Category) error {
	if _, ok := f.categories[category.ID]; !ok {
		return apperr.NotFound("Category")
	}
	for id, existing := range f.categories {
		if id != category.ID && existing.Slug == category.Slug {
			return uniqueViolation()
		}
	}
	copied := *category
	f.categories[category.ID] = &copied
	return nil
}

func (f *fakeCategoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.categories[id]; !ok {
		return apperr.NotFound("Category")
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeCategoryRepo) FindByID(_ context.Context, id string) (*Category, error) {
	category, ok := f.categories[id]
	if !ok {
		return nil, apperr.NotFound("Category")
	}
	copied := *category
	return &copied, nil
}

func (f *fakeCategoryRepo) FindBySlug(_ context.Context, slug string) (*Category, error) {
	for _, category := range f.categories {
		if category.Slug == slug {
			copied := *category
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Category")
}

func (f *fakeCategoryRepo) SlugExistsExcept(_ context.Context, slug, excludeID string) (bool, error) {
	for id, category := range f.categories {
		if id != excludeID && category.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategoryRepo) List(_ context.Context) ([]*Category, error) {
	var out []*Category
	for _, category := range f.categories {
		copied := *category
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeCategoryRepo) ListFeatured(ctx context.Context) ([]*Category, error) {
	all, _ := f.List(ctx)
	var out []*Category
	for _, category := range all {
		if category.Featured {
			out = append(out, category)
		}
	}
	return out, nil
}

func (f *fakeCategoryRepo) CountPosts(_ context.Context, categoryID string) (int, error) {
	return f.postCounts[categoryID], nil
}

type fakeBlobStore struct {
	mu      sync.Mutex
	deleted []string
	failOn  map[string]bool
}

func (f *fakeBlobStore) Upload(_ context.Context, filename, _ string, _ io.Reader) (string, error) {
	return "/uploads/" + filename, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[url] {
		return assert.AnError
	}
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *fakeBlobStore) Owns(url string) bool {
	return strings.HasPrefix(url, "/uploads/")
}

type fakeInvalidator struct {
	paths   []string
	flushed bool
}

func (f *fakeInvalidator) Invalidate(_ context.Context, paths ...string) error {
	f.paths = append(f.paths, paths...)
	return nil
}

func (f *fakeInvalidator) InvalidateAll(_ context.Context) error {
	f.flushed = true
	return nil
}

// # Harness

type contentFixture struct {
	service    *Service
	posts      *fakePostRepo
	categories *fakeCategoryRepo
	blobs      *fakeBlobStore
	cache      *fakeInvalidator
	now        time.Time
}

func newContentFixture(t *testing.T) *contentFixture {
	t.Helper()

	posts := newFakePostRepo()
	categories := newFakeCategoryRepo()
	blobs := &fakeBlobStore{failOn: map[string]bool{}}
	cache := &fakeInvalidator{}
	preview := sec.NewPreviewTokenService("test-secret-test-secret", "test")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewService(posts, categories, blobs, cache, preview, nil, logger)

	fixed := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	return &contentFixture{
		service:    service,
		posts:      posts,
		categories: categories,
		blobs:      blobs,
		cache:      cache,
		now:        fixed,
	}
}

func (f *contentFixture) createPost(t *testing.T, title string, status PostStatus) *Post {
	t.Helper()
	post, _, err := f.service.CreatePost(context.Background(), "author-1", PostInput{
		Title:   title,
		Content: "<p>body</p>",
		Status:  status,
	})
	require.NoError(t, err)
	return post
}

// # Slug Uniqueness

/*
TestCreatePost_SlugCollision verifies the collision policy end to end: the
first post takes the base slug, the second the -1 suffix, and messy titles
normalize before suffixing.
*/
func TestCreatePost_SlugCollision(t *testing.T) {
	f := newContentFixture(t)

	first := f.createPost(t, "Kids' Toys!", StatusDraft)
	second := f.createPost(t, "Kids' Toys!", StatusDraft)
	third := f.createPost(t, "Kids' Toys!", StatusDraft)

	assert.Equal(t, "kids-toys", first.Slug)
	assert.Equal(t, "kids-toys-1", second.Slug)
	assert.Equal(t, "kids-toys-2", third.Slug)
}

/*
TestCreatePost_SlugRace verifies the optimistic retry: when the existence
probe reports the slug free but the insert still hits the UNIQUE constraint
(a concurrent writer won), the service advances to the next suffix instead
of failing.
*/
func TestCreatePost_SlugRace(t *testing.T) {
	f := newContentFixture(t)
	f.posts.raceSlugs["kids-toys"] = true

	post := f.createPost(t, "Kids' Toys!", StatusDraft)

	assert.Equal(t, "kids-toys-1", post.Slug)
}

func TestCreatePost_EmptyTitleSlugFallback(t *testing.T) {
	f := newContentFixture(t)

	// A title of pure punctuation slugs to nothing; the type fallback kicks in.
	post := f.createPost(t, "!!!", StatusDraft)

	assert.Equal(t, "post", post.Slug)
}

// # Featured Image Policy

func TestCreatePost_FeaturedImage(t *testing.T) {
	tests := []struct {
		name     string
		input    PostInput
		expected string
	}{
		{
			"explicit_choice_wins",
			PostInput{
				Title:         "A",
				Content:       `<img src="/uploads/embedded.png">`,
				FeaturedImage: "/uploads/chosen.png",
				Status:        StatusDraft,
			},
			"/uploads/chosen.png",
		},
		{
			"first_embedded_promoted",
			PostInput{
				Title:   "B",
				Content: `<p>x</p><img src="/uploads/one.png"><img src="/uploads/two.png">`,
				Status:  StatusDraft,
			},
			"/uploads/one.png",
		},
		{
			"no_images_no_featured",
			PostInput{Title: "C", Content: "<p>plain</p>", Status: StatusDraft},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newContentFixture(t)
			post, _, err := f.service.CreatePost(context.Background(), "author-1", tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, post.FeaturedImage)
		})
	}
}

// # Publish Timestamps

func TestCreatePost_PublishedAt(t *testing.T) {
	f := newContentFixture(t)

	draft := f.createPost(t, "Draft", StatusDraft)
	published := f.createPost(t, "Published", StatusPublished)

	assert.Nil(t, draft.PublishedAt)
	require.NotNil(t, published.PublishedAt)
	assert.Equal(t, f.now, *published.PublishedAt)
}

/*
TestUpdatePost_PublishTransitions verifies that published_at moves exactly
with status transitions and survives unrelated edits, and that the slug is
never regenerated on update.
*/
func TestUpdatePost_PublishTransitions(t *testing.T) {
	f := newContentFixture(t)
	post := f.createPost(t, "Launch Notes", StatusDraft)
	assert.Equal(t, "launch-notes", post.Slug)

	input := PostInput{Title: "Launch Notes", Content: "<p>body</p>", Status: StatusPublished}

	// draft → published stamps the timestamp.
	updated, err := f.service.UpdatePost(context.Background(), post.ID, input)
	require.NoError(t, err)
	require.NotNil(t, updated.PublishedAt)
	firstPublish := *updated.PublishedAt

	// An unrelated edit (retitle) keeps timestamp AND slug stable.
	f.service.now = func() time.Time { return f.now.Add(48 * time.Hour) }
	input.Title = "Launch Notes, Revised Edition"
	updated, err = f.service.UpdatePost(context.Background(), post.ID, input)
	require.NoError(t, err)
	require.NotNil(t, updated.PublishedAt)
	assert.Equal(t, firstPublish, *updated.PublishedAt)
	assert.Equal(t, "launch-notes", updated.Slug)

	// published → draft clears it.
	input.Status = StatusDraft
	updated, err = f.service.UpdatePost(context.Background(), post.ID, input)
	require.NoError(t, err)
	assert.Nil(t, updated.PublishedAt)

	// Re-publishing stamps the new time, not the old one.
	input.Status = StatusPublished
	updated, err = f.service.UpdatePost(context.Background(), post.ID, input)
	require.NoError(t, err)
	require.NotNil(t, updated.PublishedAt)
	assert.Equal(t, f.now.Add(48*time.Hour), *updated.PublishedAt)
}

// # Category Links

func TestCreatePost_PartialLinkFailure(t *testing.T) {
	f := newContentFixture(t)
	f.posts.linkErrs["cat-bad"] = assert.AnError

	post, report, err := f.service.CreatePost(context.Background(), "author-1", PostInput{
		Title:       "Linked",
		Content:     "<p>x</p>",
		Status:      StatusDraft,
		CategoryIDs: []string{"cat-ok", "cat-bad", "cat-ok-2"},
	})
	require.NoError(t, err)

	// The post survives; the report isolates the failure.
	assert.Equal(t, []string{"cat-ok", "cat-ok-2"}, report.Linked)
	assert.Equal(t, []string{"cat-bad"}, report.Failed)
	assert.Equal(t, []string{"cat-ok", "cat-ok-2"}, f.posts.links[post.ID])
}

func TestUpdatePost_ReplacesCategoriesWholesale(t *testing.T) {
	f := newContentFixture(t)

	post, _, err := f.service.CreatePost(context.Background(), "author-1", PostInput{
		Title:       "Categorized",
		Content:     "<p>x</p>",
		Status:      StatusDraft,
		CategoryIDs: []string{"cat-a", "cat-b"},
	})
	require.NoError(t, err)

	_, err = f.service.UpdatePost(context.Background(), post.ID, PostInput{
		Title:       "Categorized",
		Content:     "<p>x</p>",
		Status:      StatusDraft,
		CategoryIDs: []string{"cat-b", "cat-c"},
	})
	require.NoError(t, err)

	got := append([]string{}, f.posts.links[post.ID]...)
	sort.Strings(got)
	assert.Equal(t, []string{"cat-b", "cat-c"}, got)
}

// # Deletion & Blob Cleanup

/*
TestDeletePost_CleansManagedImages verifies the allSettled cleanup: every
managed blob is attempted, external URLs are left alone, one failure does
not stop the others, and the row is deleted regardless.
*/
func TestDeletePost_CleansManagedImages(t *testing.T) {
	f := newContentFixture(t)
	f.blobs.failOn["/uploads/stubborn.png"] = true

	post, _, err := f.service.CreatePost(context.Background(), "author-1", PostInput{
		Title: "Illustrated",
		Content: `<img src="/uploads/a.png">` +
			`<img src="https://elsewhere.example/ext.png">` +
			`<img src="/uploads/stubborn.png">` +
			`<img src="/uploads/a.png">`, // duplicate, deleted once
		FeaturedImage: "/uploads/cover.png",
		Status:        StatusPublished,
	})
	require.NoError(t, err)

	report, err := f.service.DeletePost(context.Background(), post.ID)
	require.NoError(t, err)

	deleted := append([]string{}, report.Deleted...)
	sort.Strings(deleted)
	assert.Equal(t, []string{"/uploads/a.png", "/uploads/cover.png"}, deleted)
	assert.Equal(t, []string{"/uploads/stubborn.png"}, report.Failed)

	// The external image was never touched.
	assert.NotContains(t, f.blobs.deleted, "https://elsewhere.example/ext.png")

	// The row itself is gone.
	_, err = f.service.GetPost(context.Background(), post.ID)
	require.Error(t, err)
}

func TestDeletePost_NotFound(t *testing.T) {
	f := newContentFixture(t)

	_, err := f.service.DeletePost(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

// # Public Reads

func TestGetPostBySlug(t *testing.T) {
	f := newContentFixture(t)
	published := f.createPost(t, "Visible", StatusPublished)
	draft := f.createPost(t, "Hidden", StatusDraft)

	t.Run("published_with_view_bump", func(t *testing.T) {
		post, err := f.service.GetPostBySlug(context.Background(), published.Slug)
		require.NoError(t, err)
		assert.Equal(t, 1, post.ViewCount)

		post, err = f.service.GetPostBySlug(context.Background(), published.Slug)
		require.NoError(t, err)
		assert.Equal(t, 2, post.ViewCount)
	})

	t.Run("draft_is_invisible", func(t *testing.T) {
		_, err := f.service.GetPostBySlug(context.Background(), draft.Slug)
		require.Error(t, err)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("view_bump_failure_is_soft", func(t *testing.T) {
		f.posts.bumpErr = assert.AnError
		post, err := f.service.GetPostBySlug(context.Background(), published.Slug)
		require.NoError(t, err)
		assert.NotNil(t, post)
	})
}

// # Draft Preview

func TestPreviewFlow(t *testing.T) {
	f := newContentFixture(t)
	draft := f.createPost(t, "Sneak Peek", StatusDraft)

	token, err := f.service.PreviewToken(context.Background(), draft.ID)
	require.NoError(t, err)

	post, err := f.service.PreviewPost(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, post.ID)

	_, err = f.service.PreviewPost(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired preview link", err.Error())
}

// # Categories

func TestCategoryLifecycle(t *testing.T) {
	f := newContentFixture(t)

	created, err := f.service.CreateCategory(context.Background(), CategoryInput{Name: "Kids' Toys!"})
	require.NoError(t, err)
	assert.Equal(t, "kids-toys", created.Slug)

	t.Run("rename_moves_slug", func(t *testing.T) {
		updated, err := f.service.UpdateCategory(context.Background(), created.ID,
			CategoryInput{Name: "Outdoor Games"})
		require.NoError(t, err)
		assert.Equal(t, "outdoor-games", updated.Slug)
	})

	t.Run("same_name_keeps_slug", func(t *testing.T) {
		// Self is excluded from the uniqueness probe, so re-saving with the
		// same name must not grow a suffix.
		updated, err := f.service.UpdateCategory(context.Background(), created.ID,
			CategoryInput{Name: "Outdoor Games"})
		require.NoError(t, err)
		assert.Equal(t, "outdoor-games", updated.Slug)
	})

	t.Run("rename_onto_taken_slug_suffixes", func(t *testing.T) {
		other, err := f.service.CreateCategory(context.Background(), CategoryInput{Name: "Board Games"})
		require.NoError(t, err)
		assert.Equal(t, "board-games", other.Slug)

		updated, err := f.service.UpdateCategory(context.Background(), created.ID,
			CategoryInput{Name: "Board Games"})
		require.NoError(t, err)
		assert.Equal(t, "board-games-1", updated.Slug)
	})
}

/*
TestDeleteCategory verifies the reference guard: deletion is refused with a
count-bearing message while posts reference the category, allowed once they
stop, and the category's managed image goes with it.
*/
func TestDeleteCategory(t *testing.T) {
	f := newContentFixture(t)

	category, err := f.service.CreateCategory(context.Background(), CategoryInput{
		Name:     "Crafts",
		ImageURL: "/uploads/crafts.png",
	})
	require.NoError(t, err)

	f.categories.postCounts[category.ID] = 3

	err = f.service.DeleteCategory(context.Background(), category.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	assert.Contains(t, err.Error(), "3 post(s)")

	// Still there, image untouched.
	_, err = f.service.GetCategoryBySlug(context.Background(), "crafts")
	require.NoError(t, err)
	assert.Empty(t, f.blobs.deleted)

	// Last reference gone: delete proceeds and the blob is cleaned up.
	f.categories.postCounts[category.ID] = 0
	require.NoError(t, f.service.DeleteCategory(context.Background(), category.ID))
	assert.Equal(t, []string{"/uploads/crafts.png"}, f.blobs.deleted)
}

// # Cache Invalidation

func TestCreatePost_InvalidatesPublicPages(t *testing.T) {
	f := newContentFixture(t)

	category, err := f.service.CreateCategory(context.Background(), CategoryInput{Name: "News"})
	require.NoError(t, err)
	f.cache.paths = nil

	post, _, err := f.service.CreatePost(context.Background(), "author-1", PostInput{
		Title:       "Breaking",
		Content:     "<p>x</p>",
		Status:      StatusPublished,
		CategoryIDs: []string{category.ID},
	})
	require.NoError(t, err)

	assert.Contains(t, f.cache.paths, "/")
	assert.Contains(t, f.cache.paths, "/sitemap.xml")
	assert.Contains(t, f.cache.paths, "/"+post.Slug)
	assert.Contains(t, f.cache.paths, "/category/news")
}
