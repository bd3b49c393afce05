// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

// Package htmlimg extracts image references from HTML content bodies.
//
// # Usage
//
// Post bodies are stored as HTML produced by the rich-text editor. The
// content service uses this package for two policies:
//
//   - Featured-image auto-selection: the first <img> of the body becomes the
//     post's featured image when the author did not pick one explicitly.
//   - Cleanup-on-delete: every embedded image hosted on the managed blob
//     store is collected and removed when its post is deleted.
//
// Extraction walks a real parse tree (golang.org/x/net/html) rather than
// pattern-matching the markup, so attribute order and quoting style do not
// affect the result. The parser is tolerant of malformed input; on a body
// that cannot be tokenized at all, extraction returns no matches.
package htmlimg

import (
	"strings"

	"golang.org/x/net/html"
)

// FirstImage returns the src of the first <img> element in document order,
// or "" if the content contains no image with a non-empty src.
func FirstImage(content string) string {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}

	var first string
	walk(root, func(src string) bool {
		first = src
		return false // stop after the first hit
	})

	return first
}

// ImageURLs returns the src of every <img> element in document order.
// Elements with an empty or missing src are skipped. Duplicates are kept:
// the caller decides whether repeated references matter.
func ImageURLs(content string) []string {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil
	}

	var urls []string
	walk(root, func(src string) bool {
		urls = append(urls, src)
		return true
	})

	return urls
}

// walk performs a depth-first traversal, invoking visit for each <img> src.
// The traversal stops early when visit returns false.
func walk(node *html.Node, visit func(src string) bool) bool {
	if node.Type == html.ElementNode && node.Data == "img" {
		for _, attribute := range node.Attr {
			if attribute.Key == "src" && attribute.Val != "" {
				if !visit(attribute.Val) {
					return false
				}
				break
			}
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if !walk(child, visit) {
			return false
		}
	}

	return true
}
