package storage

import (
	"context"

	"finwatch/pkg/config"

	"go.uber.org/zap"
)

// PutResult describes a stored blob: the opaque key used for later deletion
// and the durable URL used to retrieve the file.
type PutResult struct {
	Key  string
	URL  string
	Size int64
}

// BlobStore stores and deletes opaque file blobs. Delete is best-effort at
// the call site: callers log failures and move on.
type BlobStore interface {
	Put(ctx context.Context, data []byte, folder, fileName string) (*PutResult, error)
	Delete(ctx context.Context, key, kindHint string) error
}

// New selects the blob store from configuration: GCS when a bucket is
// configured, local disk otherwise.
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (BlobStore, error) {
	if cfg.Bucket != "" {
		return NewGCSStore(ctx, cfg.Bucket, logger)
	}
	return NewLocalStore(cfg.UploadDir, logger)
}
