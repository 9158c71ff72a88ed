package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"finwatch/internal/storage"
)

// fileResolver turns a document's retrieval URL back into raw bytes for the
// AI providers: gs:// URIs go through the GCS store, /uploads/ URLs map onto
// the local upload directory.
type fileResolver struct {
	uploadDir string
	gcs       *storage.GCSStore
}

func newFileResolver(uploadDir string, blobs storage.BlobStore) *fileResolver {
	r := &fileResolver{uploadDir: uploadDir}
	if gcs, ok := blobs.(*storage.GCSStore); ok {
		r.gcs = gcs
	}
	return r
}

func (r *fileResolver) Read(ctx context.Context, fileURL string) ([]byte, error) {
	if strings.HasPrefix(fileURL, "gs://") {
		if r.gcs == nil {
			return nil, fmt.Errorf("no GCS store configured for %s", fileURL)
		}
		return r.gcs.FetchBytes(ctx, fileURL)
	}

	path := fileURL
	if rest, ok := strings.CutPrefix(fileURL, "/uploads/"); ok {
		path = filepath.Join(r.uploadDir, filepath.FromSlash(rest))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}
