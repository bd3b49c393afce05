// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package settings

import "context"

// Repository handles persistence of the raw key-value rows.
type Repository interface {
	// Load returns all stored rows. Missing keys are simply absent; the
	// typed layer fills in defaults.
	Load(ctx context.Context) (map[string]string, error)

	// Save upserts every given row atomically.
	Save(ctx context.Context, rows map[string]string) error
}
