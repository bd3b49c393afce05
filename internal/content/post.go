// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

/*
Package content implements the publication manager: posts, categories, and
the policies that govern them.

# Responsibilities

  - Post lifecycle: draft and published states, with `published_at` stamped
    exactly on the draft→published transition.
  - URL identity: slugs derived from titles, kept unique by optimistic
    insert retries against the database's UNIQUE constraint.
  - Featured images: auto-selected from the first embedded image when the
    author does not pick one.
  - Category links: many-to-many, replaced wholesale on update; categories
    refuse deletion while posts still reference them.
  - Cache hygiene: every mutation invalidates the public pages it staled.
*/
package content

import "time"

// # Post Status

// PostStatus is the publication state of a post.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// Valid reports whether the status is one of the known states.
func (s PostStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// # Domain Entities

// Post is a blog article.
type Post struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       string     `json:"content"`
	Excerpt       string     `json:"excerpt,omitempty"`
	FeaturedImage string     `json:"featured_image,omitempty"`
	Status        PostStatus `json:"status"`
	AuthorID      string     `json:"author_id"`
	AuthorName    string     `json:"author_name,omitempty"` // joined from users
	ViewCount     int        `json:"view_count"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Categories    []Category `json:"categories,omitempty"`
}

// Published reports whether the post is publicly visible.
func (p *Post) Published() bool { return p.Status == StatusPublished }

// # Operation Inputs

// PostInput carries the writable fields for creating or updating a post.
type PostInput struct {
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Excerpt       string     `json:"excerpt"`
	FeaturedImage string     `json:"featured_image"`
	Status        PostStatus `json:"status"`
	CategoryIDs   []string   `json:"category_ids"`
}

// # Reports

// LinkReport describes the outcome of attaching categories to a post.
// Link failures do not fail the post operation; the caller learns which
// categories could not be attached and can retry.
type LinkReport struct {
	Linked []string `json:"linked"`
	Failed []string `json:"failed,omitempty"`
}

// CleanupReport describes the outcome of the best-effort blob cleanup that
// accompanies a post deletion.
type CleanupReport struct {
	Deleted []string `json:"deleted,omitempty"`
	Failed  []string `json:"failed,omitempty"`
}

// # Constraints

const (
	// MaxTitleLength bounds post and category titles.
	MaxTitleLength = 200

	// PreviewTokenTTL is the lifetime of a signed draft-preview link.
	PreviewTokenTTL = 15 * time.Minute

	// maxSlugAttempts bounds the collision-suffix retry loop. Hitting it
	// means something is deeply wrong with the data, not normal contention.
	maxSlugAttempts = 50
)

// # Field Identifiers

const (
	FieldTitle       = "title"
	FieldContent     = "content"
	FieldName        = "name"
	FieldStatus      = "status"
	FieldPrompt      = "prompt"
	FieldInstruction = "instruction"
)
