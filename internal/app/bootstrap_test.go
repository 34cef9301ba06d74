package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lingua-backend/internal/platform/gcp"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
	"github.com/yungbote/lingua-backend/internal/services/extraction"
)

func TestResolveBucketServiceLocal(t *testing.T) {
	dir := t.TempDir()
	bucket, mediaDir, err := resolveBucketService(logger.Nop(), StorageConfig{
		Mode:          "local",
		LocalDir:      dir,
		PublicBaseURL: "http://localhost:8080",
	})
	require.NoError(t, err)
	require.NotNil(t, bucket)
	assert.Equal(t, dir, mediaDir)
	assert.Equal(t, "http://localhost:8080/media/cover/a.png", bucket.GetPublicURL(gcp.BucketCategoryCover, "a.png"))
}

func TestResolveBucketServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  StorageConfig
		code BootstrapErrorCode
	}{
		{"unknown mode", StorageConfig{Mode: "s3"}, BootstrapErrorInvalidMode},
		{"gcs without bucket", StorageConfig{Mode: "gcs"}, BootstrapErrorInvalidConfig},
		{"emulator without host", StorageConfig{Mode: "gcs_emulator", Bucket: "b"}, BootstrapErrorInvalidConfig},
		{"relative public url", StorageConfig{Mode: "local", LocalDir: "x", PublicBaseURL: "media"}, BootstrapErrorInvalidConfig},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := resolveBucketService(logger.Nop(), tc.cfg)
			require.Error(t, err)
			var be *BootstrapError
			require.True(t, errors.As(err, &be), "got %T", err)
			assert.Equal(t, tc.code, be.Code)
			assert.Equal(t, tc.code, bootstrapErrorCode(err))
		})
	}
}

func TestResolveBucketServiceConnectFailed(t *testing.T) {
	orig := newBucketService
	t.Cleanup(func() { newBucketService = orig })
	newBucketService = func(*logger.Logger, gcp.ObjectStorageConfig) (gcp.BucketService, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	_, _, err := resolveBucketService(logger.Nop(), StorageConfig{Mode: "gcs", Bucket: "lingua-media"})
	assert.Equal(t, BootstrapErrorConnectFailed, bootstrapErrorCode(err))
	assert.ErrorContains(t, err, "connection refused")
}

func TestResolveExtractionProvider(t *testing.T) {
	ctx := context.Background()

	p, err := resolveExtractionProvider(ctx, logger.Nop(), ExtractionConfig{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = resolveExtractionProvider(ctx, logger.Nop(), ExtractionConfig{Provider: "openai"})
	assert.Equal(t, BootstrapErrorInvalidConfig, bootstrapErrorCode(err), "missing key")

	_, err = resolveExtractionProvider(ctx, logger.Nop(), ExtractionConfig{Provider: "gemini"})
	assert.Equal(t, BootstrapErrorInvalidConfig, bootstrapErrorCode(err), "missing key")

	_, err = resolveExtractionProvider(ctx, logger.Nop(), ExtractionConfig{Provider: "llama"})
	assert.Equal(t, BootstrapErrorInvalidMode, bootstrapErrorCode(err))

	p, err = resolveExtractionProvider(ctx, logger.Nop(), ExtractionConfig{Provider: "openai", OpenAIAPIKey: "sk-test", OpenAIModel: "gpt-test"})
	require.NoError(t, err)
	assert.Equal(t, extraction.ProviderOpenAI, p.Name())
	assert.Equal(t, "gpt-test", p.Model())
}
