package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/spec-kit/helpdesk-workflow/internal/config"
)

// MinioStore uploads rendered reports to object storage and returns the URL
// clients download them from.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinioStore connects to the configured MinIO endpoint. Returns nil when
// no endpoint is configured; callers treat a nil store as "exports disabled".
func NewMinioStore(cfg config.ReportConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio init: %w", err)
	}
	publicBase := cfg.PublicBase
	if publicBase == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, publicBase: publicBase}, nil
}

// Upload persists the buffer and returns its download URL.
func (s *MinioStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("object store not configured")
	}
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", s.publicBase, s.bucket, objectName), nil
}
