package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStorePutAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, zap.NewNop())
	require.NoError(t, err)

	data := []byte("%PDF-1.4 demo")
	put, err := store.Put(context.Background(), data, "documents", "receipt.pdf")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(put.URL, "/uploads/documents/"))
	assert.True(t, strings.HasSuffix(put.Key, ".pdf"))
	assert.Equal(t, int64(len(data)), put.Size)

	stored, err := os.ReadFile(filepath.Join(dir, put.Key))
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	require.NoError(t, store.Delete(context.Background(), put.Key, "receipt"))
	_, err = os.Stat(filepath.Join(dir, put.Key))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreDeleteMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	assert.Error(t, store.Delete(context.Background(), "documents/missing.pdf", "receipt"))
}

func TestParseGCSURI(t *testing.T) {
	bucket, object, err := ParseGCSURI("gs://my-bucket/documents/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "documents/a.pdf", object)

	_, _, err = ParseGCSURI("https://example.com/a.pdf")
	assert.Error(t, err)
}
