// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package seo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lumenpress/lumen/internal/content"
)

/*
TestBlogPosting verifies the structured-data document: canonical URL built
from the site URL, timestamps in RFC 3339, and optional fields present only
when the post carries them.
*/
func TestBlogPosting(t *testing.T) {
	published := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	updated := published.Add(48 * time.Hour)

	doc := BlogPosting("https://blog.example/", &content.Post{
		Title:         "Launch Notes",
		Slug:          "launch-notes",
		Excerpt:       "What shipped and why.",
		FeaturedImage: "/uploads/cover.png",
		AuthorName:    "Jamie Editor",
		PublishedAt:   &published,
		UpdatedAt:     updated,
	})

	assert.Equal(t, "https://schema.org", doc["@context"])
	assert.Equal(t, "BlogPosting", doc["@type"])
	assert.Equal(t, "Launch Notes", doc["headline"])
	assert.Equal(t, "https://blog.example/launch-notes", doc["url"])
	assert.Equal(t, "https://blog.example/launch-notes", doc["mainEntityOfPage"])
	assert.Equal(t, "2026-05-01T09:30:00Z", doc["datePublished"])
	assert.Equal(t, "2026-05-03T09:30:00Z", doc["dateModified"])
	assert.Equal(t, "What shipped and why.", doc["description"])
	assert.Equal(t, "/uploads/cover.png", doc["image"])
	assert.Equal(t, map[string]any{"@type": "Person", "name": "Jamie Editor"}, doc["author"])
}

func TestBlogPosting_OmitsEmptyFields(t *testing.T) {
	doc := BlogPosting("https://blog.example", &content.Post{
		Title:     "Bare Draft",
		Slug:      "bare-draft",
		UpdatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	})

	assert.NotContains(t, doc, "datePublished")
	assert.NotContains(t, doc, "description")
	assert.NotContains(t, doc, "image")
	assert.NotContains(t, doc, "author")
}
