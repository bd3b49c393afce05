// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package seo

import (
	"strings"
	"time"

	"github.com/lumenpress/lumen/internal/content"
)

const schemaOrgContext = "https://schema.org"

/*
BlogPosting builds the schema.org structured-data document for a public post
page. The content transport embeds it in the rendered detail response as
`json_ld`, so crawlers get machine-readable article metadata without a
separate endpoint.
*/
func BlogPosting(siteURL string, post *content.Post) map[string]any {
	base := strings.TrimSuffix(siteURL, "/")
	canonical := base + "/" + post.Slug

	doc := map[string]any{
		"@context":         schemaOrgContext,
		"@type":            "BlogPosting",
		"headline":         post.Title,
		"url":              canonical,
		"mainEntityOfPage": canonical,
		"dateModified":     post.UpdatedAt.Format(time.RFC3339),
	}

	if post.PublishedAt != nil {
		doc["datePublished"] = post.PublishedAt.Format(time.RFC3339)
	}
	if post.Excerpt != "" {
		doc["description"] = post.Excerpt
	}
	if post.FeaturedImage != "" {
		doc["image"] = post.FeaturedImage
	}
	if post.AuthorName != "" {
		doc["author"] = map[string]any{"@type": "Person", "name": post.AuthorName}
	}

	return doc
}
