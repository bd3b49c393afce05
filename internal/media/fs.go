// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lumenpress/lumen/internal/platform/apperr"
	"github.com/lumenpress/lumen/pkg/uuid"
)

// FileStore implements [Store] on the local filesystem.
//
// Blobs live flat under baseDir and are served by the API under baseURL
// (e.g. /uploads). Stored names are UUIDv7 plus the sanitized original
// extension, so names never collide and never carry user input.
type FileStore struct {
	baseDir string
	baseURL string
	logger  *slog.Logger
}

// NewFileStore creates a filesystem-backed blob store, ensuring the
// directory exists.
func NewFileStore(baseDir, baseURL string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("media: failed to create upload directory: %w", err)
	}

	return &FileStore{
		baseDir: baseDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}, nil
}

// Upload persists the blob and returns its public URL.
func (s *FileStore) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperr.Unprocessable("Only image uploads are allowed")
	}

	name := uuid.New() + sanitizeExtension(filename)
	path := filepath.Join(s.baseDir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("media: failed to create blob: %w", err))
	}
	defer file.Close()

	written, err := io.Copy(file, io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		_ = os.Remove(path)
		return "", apperr.Internal(fmt.Errorf("media: failed to write blob: %w", err))
	}
	if written > MaxUploadBytes {
		_ = os.Remove(path)
		return "", apperr.Unprocessable("File exceeds the 10 MiB upload limit")
	}

	s.logger.InfoContext(ctx, "blob stored", "name", name, "bytes", written)

	return s.baseURL + "/" + name, nil
}

// Delete removes a blob by its public URL. Foreign and missing URLs are no-ops.
func (s *FileStore) Delete(ctx context.Context, url string) error {
	name, ok := s.blobName(url)
	if !ok {
		return nil
	}

	if err := os.Remove(filepath.Join(s.baseDir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return apperr.Internal(fmt.Errorf("media: failed to delete blob: %w", err))
	}

	s.logger.InfoContext(ctx, "blob deleted", "name", name)
	return nil
}

// Owns reports whether the URL points at this store.
func (s *FileStore) Owns(url string) bool {
	_, ok := s.blobName(url)
	return ok
}

// blobName extracts the stored filename from a managed URL, rejecting
// anything that escapes the flat namespace (slashes, dot-dot).
func (s *FileStore) blobName(url string) (string, bool) {
	name, found := strings.CutPrefix(url, s.baseURL+"/")
	if !found || name == "" {
		return "", false
	}
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		return "", false
	}
	return name, true
}

// sanitizeExtension returns a safe lowercase extension, or empty when the
// original name carries none or a suspicious one.
func sanitizeExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".avif":
		return ext
	}
	return ""
}
