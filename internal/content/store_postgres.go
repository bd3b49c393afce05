// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package content

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenpress/lumen/internal/platform/dberr"
	"github.com/lumenpress/lumen/pkg/pagination"
	"github.com/lumenpress/lumen/pkg/uuid"
)

// # Post Store

// PostgresPostStore implements PostRepository backed by PostgreSQL.
type PostgresPostStore struct {
	pool *pgxpool.Pool
}

// NewPostgresPostStore creates a PostgreSQL-backed post store.
func NewPostgresPostStore(pool *pgxpool.Pool) *PostgresPostStore {
	return &PostgresPostStore{pool: pool}
}

const postColumns = `
	p.id, p.title, p.slug, p.content,
	COALESCE(p.excerpt, ''), COALESCE(p.featured_image, ''),
	p.status, p.author_id, COALESCE(u.full_name, u.username),
	p.view_count, p.published_at, p.created_at, p.updated_at`

const postJoin = `
	FROM posts p
	JOIN users u ON u.id = p.author_id`

func scanPost(row interface{ Scan(dest ...any) error }) (*Post, error) {
	var p Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content,
		&p.Excerpt, &p.FeaturedImage,
		&p.Status, &p.AuthorID, &p.AuthorName,
		&p.ViewCount, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a post row. Slug collisions surface as conflicts with the
// unique-violation cause preserved for the retry loop.
func (s *PostgresPostStore) Create(ctx context.Context, post *Post) error {
	query := `
		INSERT INTO posts (
			id, title, slug, content, excerpt, featured_image,
			status, author_id, view_count, published_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, NOW(), NOW())
		RETURNING view_count, created_at, updated_at`

	if post.ID == "" {
		post.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, query,
		post.ID, post.Title, post.Slug, post.Content,
		nullable(post.Excerpt), nullable(post.FeaturedImage),
		post.Status, post.AuthorID, post.PublishedAt,
	).Scan(&post.ViewCount, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "post")
	}

	return nil
}

// Update rewrites the mutable columns. The slug is intentionally absent
// from the SET list: URL identity is fixed at creation.
func (s *PostgresPostStore) Update(ctx context.Context, post *Post) error {
	query := `
		UPDATE posts
		SET title = $2, content = $3, excerpt = $4, featured_image = $5,
		    status = $6, published_at = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query,
		post.ID, post.Title, post.Content,
		nullable(post.Excerpt), nullable(post.FeaturedImage),
		post.Status, post.PublishedAt,
	).Scan(&post.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "post")
	}

	return nil
}

// Delete removes a post row; post_categories rows cascade.
func (s *PostgresPostStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return dberr.Wrap(err, "post")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Post")
	}
	return nil
}

// FindByID retrieves a post with author and categories, any status.
func (s *PostgresPostStore) FindByID(ctx context.Context, id string) (*Post, error) {
	query := `SELECT` + postColumns + postJoin + ` WHERE p.id = $1`

	post, err := scanPost(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "Post")
	}

	if err := s.attachCategories(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// FindBySlug retrieves a post with author and categories, any status.
func (s *PostgresPostStore) FindBySlug(ctx context.Context, slug string) (*Post, error) {
	query := `SELECT` + postColumns + postJoin + ` WHERE p.slug = $1`

	post, err := scanPost(s.pool.QueryRow(ctx, query, slug))
	if err != nil {
		return nil, dberr.Wrap(err, "Post")
	}

	if err := s.attachCategories(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// SlugExists probes whether any post already uses the slug.
func (s *PostgresPostStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, dberr.Wrap(err, "post")
	}
	return exists, nil
}

// List returns posts of the given status ("" for all), newest first.
func (s *PostgresPostStore) List(ctx context.Context, status PostStatus, p pagination.Params) ([]*Post, int, error) {
	countQuery := `SELECT COUNT(*) FROM posts WHERE ($1 = '' OR status = $1)`

	var total int
	if err := s.pool.QueryRow(ctx, countQuery, string(status)).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "post")
	}

	query := `
		SELECT` + postColumns + postJoin + `
		WHERE ($1 = '' OR p.status = $1)
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3`

	return s.listPosts(ctx, query, total, string(status), p.Limit, p.Offset())
}

// ListPublished returns published posts ordered by published_at descending.
func (s *PostgresPostStore) ListPublished(ctx context.Context, p pagination.Params) ([]*Post, int, error) {
	countQuery := `SELECT COUNT(*) FROM posts WHERE status = 'published'`

	var total int
	if err := s.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "post")
	}

	query := `
		SELECT` + postColumns + postJoin + `
		WHERE p.status = 'published'
		ORDER BY p.published_at DESC
		LIMIT $1 OFFSET $2`

	return s.listPosts(ctx, query, total, p.Limit, p.Offset())
}

// listPosts runs a post listing query and attaches categories to each row.
func (s *PostgresPostStore) listPosts(ctx context.Context, query string, total int, args ...any) ([]*Post, int, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "post")
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "post")
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "post")
	}

	for _, post := range posts {
		if err := s.attachCategories(ctx, post); err != nil {
			return nil, 0, err
		}
	}

	return posts, total, nil
}

// IncrementViewCount bumps the view counter by exactly one.
func (s *PostgresPostStore) IncrementViewCount(ctx context.Context, id string) error {
	query := `UPDATE posts SET view_count = view_count + 1 WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return dberr.Wrap(err, "post")
	}
	return nil
}

// LinkCategory attaches one category to a post.
func (s *PostgresPostStore) LinkCategory(ctx context.Context, postID, categoryID string) error {
	query := `
		INSERT INTO post_categories (post_id, category_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := s.pool.Exec(ctx, query, postID, categoryID); err != nil {
		return dberr.Wrap(err, "category link")
	}
	return nil
}

// ReplaceCategories swaps the full category set of a post atomically.
func (s *PostgresPostStore) ReplaceCategories(ctx context.Context, postID string, categoryIDs []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "category link")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM post_categories WHERE post_id = $1`, postID); err != nil {
		return dberr.Wrap(err, "category link")
	}

	for _, categoryID := range categoryIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO post_categories (post_id, category_id) VALUES ($1, $2)`,
			postID, categoryID)
		if err != nil {
			return dberr.Wrap(err, "category link")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "category link")
	}
	return nil
}

// attachCategories loads the post's categories in join order by name.
func (s *PostgresPostStore) attachCategories(ctx context.Context, post *Post) error {
	query := `
		SELECT c.id, c.name, c.slug, COALESCE(c.description, ''),
		       COALESCE(c.image_url, ''), c.featured, c.created_at, c.updated_at
		FROM post_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.post_id = $1
		ORDER BY c.name`

	rows, err := s.pool.Query(ctx, query, post.ID)
	if err != nil {
		return dberr.Wrap(err, "category")
	}
	defer rows.Close()

	for rows.Next() {
		var c Category
		err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description,
			&c.ImageURL, &c.Featured, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return dberr.Wrap(err, "category")
		}
		post.Categories = append(post.Categories, c)
	}

	return dberr.Wrap(rows.Err(), "category")
}

// # Category Store

// PostgresCategoryStore implements CategoryRepository backed by PostgreSQL.
type PostgresCategoryStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCategoryStore creates a PostgreSQL-backed category store.
func NewPostgresCategoryStore(pool *pgxpool.Pool) *PostgresCategoryStore {
	return &PostgresCategoryStore{pool: pool}
}

const categoryColumns = `
	c.id, c.name, c.slug, COALESCE(c.description, ''),
	COALESCE(c.image_url, ''), c.featured,
	(SELECT COUNT(*) FROM post_categories pc WHERE pc.category_id = c.id),
	c.created_at, c.updated_at`

func scanCategory(row interface{ Scan(dest ...any) error }) (*Category, error) {
	var c Category
	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description,
		&c.ImageURL, &c.Featured, &c.PostCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a category row.
func (s *PostgresCategoryStore) Create(ctx context.Context, category *Category) error {
	query := `
		INSERT INTO categories (id, name, slug, description, image_url, featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at`

	if category.ID == "" {
		category.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, query,
		category.ID, category.Name, category.Slug,
		nullable(category.Description), nullable(category.ImageURL), category.Featured,
	).Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "category")
	}

	return nil
}

// Update rewrites the mutable columns, including the re-derived slug.
func (s *PostgresCategoryStore) Update(ctx context.Context, category *Category) error {
	query := `
		UPDATE categories
		SET name = $2, slug = $3, description = $4, image_url = $5,
		    featured = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query,
		category.ID, category.Name, category.Slug,
		nullable(category.Description), nullable(category.ImageURL), category.Featured,
	).Scan(&category.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "category")
	}

	return nil
}

// Delete removes a category row.
func (s *PostgresCategoryStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return dberr.Wrap(err, "category")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Category")
	}
	return nil
}

// FindByID retrieves a category with its post count.
func (s *PostgresCategoryStore) FindByID(ctx context.Context, id string) (*Category, error) {
	query := `SELECT` + categoryColumns + ` FROM categories c WHERE c.id = $1`

	category, err := scanCategory(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "Category")
	}
	return category, nil
}

// FindBySlug retrieves a category with its post count.
func (s *PostgresCategoryStore) FindBySlug(ctx context.Context, slug string) (*Category, error) {
	query := `SELECT` + categoryColumns + ` FROM categories c WHERE c.slug = $1`

	category, err := scanCategory(s.pool.QueryRow(ctx, query, slug))
	if err != nil {
		return nil, dberr.Wrap(err, "Category")
	}
	return category, nil
}

// SlugExistsExcept probes whether another category already uses the slug.
func (s *PostgresCategoryStore) SlugExistsExcept(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1 AND ($2 = '' OR id <> $2))`,
		slug, excludeID).Scan(&exists)
	if err != nil {
		return false, dberr.Wrap(err, "category")
	}
	return exists, nil
}

// List returns all categories ordered by name, with post counts.
func (s *PostgresCategoryStore) List(ctx context.Context) ([]*Category, error) {
	query := `SELECT` + categoryColumns + ` FROM categories c ORDER BY c.name`
	return s.listCategories(ctx, query)
}

// ListFeatured returns featured categories ordered by name.
func (s *PostgresCategoryStore) ListFeatured(ctx context.Context) ([]*Category, error) {
	query := `SELECT` + categoryColumns + ` FROM categories c WHERE c.featured ORDER BY c.name`
	return s.listCategories(ctx, query)
}

func (s *PostgresCategoryStore) listCategories(ctx context.Context, query string) ([]*Category, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, "category")
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "category")
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "category")
	}

	return categories, nil
}

// CountPosts reports how many posts reference the category.
func (s *PostgresCategoryStore) CountPosts(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM post_categories WHERE category_id = $1`, categoryID).Scan(&count)
	if err != nil {
		return 0, dberr.Wrap(err, "category")
	}
	return count, nil
}

// nullable maps the empty string to SQL NULL, so optional text columns stay
// NULL instead of collecting empty strings.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
