package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
)

type minioService struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

// NewMinioService creates a store backed by the MinIO client. Endpoint may
// carry an http:// or https:// scheme; without one plain HTTP is used.
func NewMinioService(cfg S3Config) (ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("S3_ENDPOINT is required for the minio backend")
	}

	endpoint := cfg.Endpoint
	secure := false
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = strings.TrimPrefix(endpoint, "http://")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &minioService{
		client:    client,
		bucket:    cfg.Bucket,
		urlExpiry: UploadURLExpiry,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet. It is a no-op
// for stores other than MinIO.
func EnsureBucket(ctx context.Context, store ObjectStore) error {
	for {
		u, ok := store.(interface{ Unwrap() ObjectStore })
		if !ok {
			break
		}
		store = u.Unwrap()
	}
	m, ok := store.(*minioService)
	if !ok {
		return nil
	}
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", m.bucket, err)
	}
	return nil
}

func (m *minioService) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	if err := ValidateUpload(key, contentType); err != nil {
		return "", err
	}

	u, err := m.client.PresignedPutObject(ctx, m.bucket, key, m.urlExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to generate upload URL: %w", err)
	}
	return u.String(), nil
}

func (m *minioService) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, DownloadURLExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}
	return u.String(), nil
}

func (m *minioService) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var keys []string
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (m *minioService) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if len(data) > maxObjectSize {
		return nil, fmt.Errorf("object %s exceeds %d bytes", key, maxObjectSize)
	}
	return data, nil
}

func (m *minioService) DeleteFile(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
