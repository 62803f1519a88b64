package main

import (
	"context"
	"fmt"

	"superfest/internal/config"
	"superfest/internal/storage"
	"superfest/internal/storage/postgres"
)

func openStore(ctx context.Context, cfg config.StoreConfig) (storage.BlobStore, func(), error) {
	switch cfg.Kind {
	case "fs":
		return storage.NewFileStore(cfg.Dir), func() {}, nil
	case "memory":
		return storage.NewMemoryStore(), func() {}, nil
	case "gcs":
		store, err := storage.NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("connect gcs: %w", err)
		}
		return store, func() { store.Close() }, nil
	case "postgres":
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Kind)
	}
}
