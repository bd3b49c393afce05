// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

/*
Package media manages uploaded blobs (post and category images).

# Architecture

The domain talks to storage through the narrow [Store] interface so the
backing implementation stays swappable (local filesystem today, an object
store later). Ownership matters: content cleanup must only ever delete
blobs that live on the managed store, never external URLs an author pasted
into a post body.
*/
package media

import (
	"context"
	"io"
)

// MaxUploadBytes caps a single uploaded file at 10 MiB.
const MaxUploadBytes = 10 << 20

// Store is the blob storage contract.
type Store interface {
	// Upload persists the blob and returns its public URL. The original
	// filename contributes only its extension; the stored name is random.
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)

	// Delete removes a blob by its public URL. Deleting a URL the store
	// does not own, or one already gone, is not an error.
	Delete(ctx context.Context, url string) error

	// Owns reports whether the URL points at this store.
	Owns(url string) bool
}
