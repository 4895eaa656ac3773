package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore handles measurement file storage
type ObjectStore interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error)
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	DownloadFile(ctx context.Context, key string) ([]byte, error)
	DeleteFile(ctx context.Context, key string) error
}

// UploadURLExpiry is how long a pre-signed upload URL stays valid.
const UploadURLExpiry = 15 * time.Minute

// DownloadURLExpiry is how long a pre-signed download URL stays valid.
const DownloadURLExpiry = 24 * time.Hour

// maxObjectSize caps downloads; Touchstone files are text and small.
const maxObjectSize = 64 << 20

type s3Service struct {
	client    *s3.Client
	bucket    string
	urlExpiry time.Duration
	endpoint  string // For MinIO compatibility
}

// S3Config holds configuration for the S3 and MinIO stores
type S3Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3Service creates a new S3 backed store
func NewS3Service(cfg S3Config) (ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}

	region := cfg.Region
	if cfg.Endpoint != "" || region == "" {
		region = "us-east-1" // MinIO doesn't care about region
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "http://" + endpoint
		}

		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = true // MinIO requires path-style URLs
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &s3Service{
		client:    client,
		bucket:    cfg.Bucket,
		urlExpiry: UploadURLExpiry,
		endpoint:  cfg.Endpoint,
	}, nil
}

// GenerateUploadURL generates a pre-signed URL for uploading a measurement file
func (s *s3Service) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	if err := ValidateUpload(key, contentType); err != nil {
		return "", err
	}

	presignClient := s3.NewPresignClient(s.client)

	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.urlExpiry
	})

	if err != nil {
		return "", fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return request.URL, nil
}

// GenerateDownloadURL generates a pre-signed URL for fetching a stored measurement
func (s *s3Service) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	presignClient := s3.NewPresignClient(s.client)

	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = DownloadURLExpiry
	})

	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}

	return request.URL, nil
}

// ListKeys returns every key under prefix
func (s *s3Service) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	return keys, nil
}

// DownloadFile downloads a file from S3/MinIO
func (s *s3Service) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}

	defer result.Body.Close()

	data, err := io.ReadAll(io.LimitReader(result.Body, maxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if len(data) > maxObjectSize {
		return nil, fmt.Errorf("object %s exceeds %d bytes", key, maxObjectSize)
	}

	return data, nil
}

// DeleteFile deletes a file from S3/MinIO
func (s *s3Service) DeleteFile(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
