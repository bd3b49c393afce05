// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumenpress/lumen/pkg/slug"
)

/*
TestFrom covers the core slugification pipeline.
*/
func TestFrom(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Hello World", "hello-world"},
		{"punctuation_stripped", "Kids' Toys!", "kids-toys"},
		{"accents_removed", "Çünkü Öğrenmek Güzel", "cunku-ogrenmek-guzel"},
		{"combining_marks_removed", "café naïve", "cafe-naive"},
		{"collapsed_whitespace", "too    many   spaces", "too-many-spaces"},
		{"collapsed_hyphens", "a -- b --- c", "a-b-c"},
		{"trimmed_edges", "  -padded-  ", "padded"},
		{"digits_kept", "Top 10 Posts of 2026", "top-10-posts-of-2026"},
		{"empty", "", ""},
		{"symbols_only", "!!! ???", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, slug.From(tt.input))
		})
	}
}

/*
TestFrom_Idempotent verifies that slugifying a slug is a no-op.
*/
func TestFrom_Idempotent(t *testing.T) {
	inputs := []string{"Hello World", "Kids' Toys!", "çılgın başlık", "already-a-slug"}

	for _, input := range inputs {
		once := slug.From(input)
		assert.Equal(t, once, slug.From(once), "From must be idempotent for %q", input)
	}
}

/*
TestWithSuffix verifies collision-suffix formatting.
*/
func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "kids-toys", slug.WithSuffix("kids-toys", 0))
	assert.Equal(t, "kids-toys-1", slug.WithSuffix("kids-toys", 1))
	assert.Equal(t, "kids-toys-7", slug.WithSuffix("kids-toys", 7))
}
