package blob

import (
	"context"
	"fmt"

	"github.com/lalith-99/reelroom/internal/config"
)

// New builds the Store selected by cfg.BlobBackend.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.BlobBackend {
	case config.BlobS3:
		return NewS3Store(ctx, S3Options{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
	case config.BlobAzure:
		return NewAzureStore(cfg.Azure.ConnectionString, cfg.Azure.ContainerName)
	case config.BlobFS:
		return NewFSStore(cfg.FSDir, cfg.FSBaseURL)
	case config.BlobMemory:
		return NewMemoryStore(cfg.FSBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}
