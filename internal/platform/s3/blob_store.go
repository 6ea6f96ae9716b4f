// Package s3 implements the media blob store on any S3-compatible
// backend. A custom endpoint with path-style addressing covers MinIO in
// development; leaving it empty targets AWS.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/caselight/caselight-api/internal/config"
	"github.com/caselight/caselight-api/internal/store"
)

// BlobStore implements store.BlobStore on an S3-compatible bucket.
type BlobStore struct {
	client   *awss3.Client
	bucket   string
	endpoint string
	region   string
	logger   *slog.Logger
}

// NewBlobStore creates a new BlobStore from the given configuration.
func NewBlobStore(ctx context.Context, logger *slog.Logger, cfg config.BlobConfig) (*BlobStore, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("blob bucket cannot be empty")
	}
	if cfg.Region == "" {
		return nil, errors.New("blob region cannot be empty")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &BlobStore{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		region:   cfg.Region,
		logger:   logger.With("component", "blob_store"),
	}, nil
}

// Ensure BlobStore implements store.BlobStore
var _ store.BlobStore = (*BlobStore)(nil)

// Put implements store.BlobStore.Put
// It uploads the object and returns its public URL.
func (s *BlobStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("failed to upload blob",
			"key", key,
			"error", err)
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	url := s.objectURL(key)
	s.logger.Debug("blob uploaded",
		"key", key,
		"bytes", len(data),
		"url", url)
	return url, nil
}

// objectURL builds the object's URL: path-style against a custom
// endpoint, virtual-hosted style against AWS.
func (s *BlobStore) objectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
