package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalStore writes blobs under a base directory and serves them from the
// /uploads static route.
type LocalStore struct {
	baseDir string
	logger  *zap.Logger
}

func NewLocalStore(baseDir string, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir, logger: logger}, nil
}

func (s *LocalStore) Put(ctx context.Context, data []byte, folder, fileName string) (*PutResult, error) {
	ext := filepath.Ext(fileName)
	key := filepath.Join(folder, uuid.NewString()+ext)

	fullPath := filepath.Join(s.baseDir, key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return &PutResult{
		Key:  key,
		URL:  "/uploads/" + filepath.ToSlash(key),
		Size: int64(len(data)),
	}, nil
}

func (s *LocalStore) Delete(ctx context.Context, key, kindHint string) error {
	if err := os.Remove(filepath.Join(s.baseDir, key)); err != nil {
		return fmt.Errorf("failed to delete %s blob: %w", kindHint, err)
	}
	return nil
}

// BaseDir is the root directory served under /uploads.
func (s *LocalStore) BaseDir() string {
	return s.baseDir
}
