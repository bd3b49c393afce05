// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package content

import (
	"context"

	"github.com/lumenpress/lumen/pkg/pagination"
)

// # Repository Contracts

// PostRepository handles persistence operations for posts.
//
// Create and the slug probes cooperate with the service's optimistic retry:
// the table carries a UNIQUE constraint on slug, Create surfaces the
// unique-violation so the service can retry with the next suffix.
type PostRepository interface {
	// Create inserts a post row. A slug collision surfaces as a
	// unique-violation conflict (detectable via dberr.IsUniqueViolation).
	Create(ctx context.Context, post *Post) error

	// Update rewrites the mutable columns of a post row. The slug column
	// is never touched by updates.
	Update(ctx context.Context, post *Post) error

	// Delete removes a post row; join rows go with it via ON DELETE CASCADE.
	Delete(ctx context.Context, id string) error

	// FindByID retrieves a post with author and categories, any status.
	FindByID(ctx context.Context, id string) (*Post, error)

	// FindBySlug retrieves a post with author and categories, any status.
	// Visibility filtering is the service's concern.
	FindBySlug(ctx context.Context, slug string) (*Post, error)

	// SlugExists probes whether any post already uses the slug.
	SlugExists(ctx context.Context, slug string) (bool, error)

	// List returns posts of the given status ("" for all), newest first,
	// with the total count for pagination.
	List(ctx context.Context, status PostStatus, p pagination.Params) ([]*Post, int, error)

	// ListPublished returns published posts ordered by published_at
	// descending, with the total count.
	ListPublished(ctx context.Context, p pagination.Params) ([]*Post, int, error)

	// IncrementViewCount bumps the view counter by exactly one.
	IncrementViewCount(ctx context.Context, id string) error

	// LinkCategory attaches one category to a post. Failures are isolated
	// per category so the service can report partial success.
	LinkCategory(ctx context.Context, postID, categoryID string) error

	// ReplaceCategories swaps the full category set of a post inside one
	// transaction: the old links are gone and the new ones present, or
	// nothing changed.
	ReplaceCategories(ctx context.Context, postID string, categoryIDs []string) error
}

// CategoryRepository handles persistence operations for categories.
type CategoryRepository interface {
	// Create inserts a category row. A slug collision surfaces as a
	// unique-violation conflict.
	Create(ctx context.Context, category *Category) error

	// Update rewrites the mutable columns, including the re-derived slug.
	Update(ctx context.Context, category *Category) error

	// Delete removes a category row. The reference guard (no posts still
	// attached) is enforced by the service before calling this.
	Delete(ctx context.Context, id string) error

	// FindByID retrieves a category.
	FindByID(ctx context.Context, id string) (*Category, error)

	// FindBySlug retrieves a category.
	FindBySlug(ctx context.Context, slug string) (*Category, error)

	// SlugExistsExcept probes whether another category (excluding the given
	// ID, empty to exclude none) already uses the slug.
	SlugExistsExcept(ctx context.Context, slug, excludeID string) (bool, error)

	// List returns all categories ordered by name, with post counts.
	List(ctx context.Context) ([]*Category, error)

	// ListFeatured returns categories carrying the featured flag, ordered
	// by name.
	ListFeatured(ctx context.Context) ([]*Category, error)

	// CountPosts reports how many posts reference the category.
	CountPosts(ctx context.Context, categoryID string) (int, error)
}
