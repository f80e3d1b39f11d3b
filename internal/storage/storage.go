// Package storage holds the blob backends material files live in.
package storage

import (
	"context"
	"fmt"

	"cpa-academy/internal/config"
	"cpa-academy/internal/domain"
)

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (domain.BlobStore, error) {
	switch cfg.Backend {
	case config.StorageBackendLocal:
		return NewLocalDisk(cfg.Local.Root)
	case config.StorageBackendS3:
		return NewObjectStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Backend)
	}
}
