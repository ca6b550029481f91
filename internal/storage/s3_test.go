package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidshare/internal/config"
)

func TestNewS3Store_MissingConfig(t *testing.T) {
	cfg := &config.Config{S3Endpoint: "http://localhost:9000"}

	store, err := NewS3Store(context.Background(), cfg)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewS3Store(t *testing.T) {
	cfg := &config.Config{
		Backend:           config.Backend{BucketID: "media"},
		S3Endpoint:        "http://localhost:9000",
		S3Region:          "auto",
		S3AccessKeyID:     "key",
		S3SecretAccessKey: "secret",
	}

	store, err := NewS3Store(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "media", store.bucket)
}

func TestS3Store_DeleteEmptyKey(t *testing.T) {
	store := &S3Store{bucket: "media"}
	assert.NoError(t, store.Delete(context.Background(), ""))
}
