package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPutWritesFileAndReturnsURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "http://files.local/docs/")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "delivery-orders/2026/03/DO-2026-0001.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "http://files.local/docs/delivery-orders/2026/03/DO-2026-0001.pdf", url)

	data, err := os.ReadFile(filepath.Join(dir, "delivery-orders", "2026", "03", "DO-2026-0001.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
}

func TestLocalPutRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "")
	require.NoError(t, err)

	for _, key := range []string{"../etc/passwd", "", "/abs.pdf"} {
		_, err := store.Put(context.Background(), key, "application/pdf", nil)
		assert.Error(t, err, key)
	}
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	key := ObjectKey("delivery-orders", "DO-2026-0007", ".pdf", at)

	assert.True(t, strings.HasPrefix(key, "delivery-orders/2026/03/DO-2026-0007-"), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.NotEqual(t, key, ObjectKey("delivery-orders", "DO-2026-0007", ".pdf", at))
}

func TestDefaultPublicURL(t *testing.T) {
	assert.Equal(t, "http://minio:9000/docs",
		defaultPublicURL(S3Config{Bucket: "docs", Endpoint: "http://minio:9000/", PathStyle: true}, "us-east-1"))
	assert.Equal(t, "https://docs.s3.eu-west-1.amazonaws.com",
		defaultPublicURL(S3Config{Bucket: "docs"}, "eu-west-1"))
}
