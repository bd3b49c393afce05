// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package content

import "time"

// Category groups posts by topic.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Featured    bool      `json:"featured"`
	PostCount   int       `json:"post_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryInput carries the writable fields for creating or updating a category.
//
// The slug is always derived from the name; there is no way to set it
// directly, which keeps URL identity consistent with display identity.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Featured    bool   `json:"featured"`
}
