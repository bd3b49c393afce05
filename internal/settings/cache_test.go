// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package settings

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettingsRepo struct {
	rows  map[string]string
	err   error
	loads int
}

func (f *fakeSettingsRepo) Load(context.Context) (map[string]string, error) {
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeSettingsRepo) Save(_ context.Context, rows map[string]string) error {
	if f.err != nil {
		return f.err
	}
	for key, value := range rows {
		f.rows[key] = value
	}
	return nil
}

func newCacheFixture() (*Cache, *fakeSettingsRepo, *time.Time) {
	repo := &fakeSettingsRepo{rows: map[string]string{
		"site_title":     "Test Site",
		"posts_per_page": "25",
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cache := NewCache(repo, logger)
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	return cache, repo, &now
}

/*
TestCache_TTL verifies that a snapshot is loaded once per TTL window and
refreshed after it elapses.
*/
func TestCache_TTL(t *testing.T) {
	cache, repo, now := newCacheFixture()

	first := cache.Get(context.Background())
	assert.Equal(t, "Test Site", first.SiteTitle)
	assert.Equal(t, 25, first.PostsPerPage)
	assert.Equal(t, 1, repo.loads)

	// Within the window: served from memory.
	*now = now.Add(CacheTTL - time.Second)
	cache.Get(context.Background())
	assert.Equal(t, 1, repo.loads)

	// Window elapsed: reloaded, new values visible.
	repo.rows["site_title"] = "Renamed Site"
	*now = now.Add(2 * time.Second)
	refreshed := cache.Get(context.Background())
	assert.Equal(t, 2, repo.loads)
	assert.Equal(t, "Renamed Site", refreshed.SiteTitle)
}

/*
TestCache_StaleOnError verifies the degradation ladder: a load failure
serves the previous snapshot, and the defaults when there never was one.
*/
func TestCache_StaleOnError(t *testing.T) {
	t.Run("stale_snapshot", func(t *testing.T) {
		cache, repo, now := newCacheFixture()

		cache.Get(context.Background())

		repo.err = assert.AnError
		*now = now.Add(CacheTTL + time.Second)

		stale := cache.Get(context.Background())
		assert.Equal(t, "Test Site", stale.SiteTitle)
	})

	t.Run("defaults_without_snapshot", func(t *testing.T) {
		cache, repo, _ := newCacheFixture()
		repo.err = assert.AnError

		got := cache.Get(context.Background())
		assert.Equal(t, Defaults(), got)
	})
}

func TestCache_Invalidate(t *testing.T) {
	cache, repo, _ := newCacheFixture()

	cache.Get(context.Background())
	require.Equal(t, 1, repo.loads)

	cache.Invalidate()

	// Same instant, but the dropped snapshot forces a reload.
	cache.Get(context.Background())
	assert.Equal(t, 2, repo.loads)
}

/*
TestFromRows verifies default fallback for missing and malformed rows.
*/
func TestFromRows(t *testing.T) {
	got := fromRows(map[string]string{
		"site_title":     "Partial",
		"posts_per_page": "not-a-number",
		"dark_mode":      "true",
	})

	assert.Equal(t, "Partial", got.SiteTitle)
	assert.Equal(t, Defaults().PostsPerPage, got.PostsPerPage)
	assert.True(t, got.DarkMode)
	assert.Equal(t, Defaults().SiteDescription, got.SiteDescription)
}

func TestRowsRoundTrip(t *testing.T) {
	original := Defaults()
	original.SiteTitle = "Round Trip"
	original.PostsPerPage = 7
	original.NewsletterEnabled = true

	assert.Equal(t, original, fromRows(original.toRows()))
}
