// Package storage publishes generated workbooks to S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pharmdist/salesflow/internal/application/pipeline"
	"github.com/pharmdist/salesflow/internal/infrastructure/config"
	"go.uber.org/zap"
)

// XLSXContentType is the MIME type of generated workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	_ pipeline.Publisher = (*S3Publisher)(nil)
	_ pipeline.Publisher = NoopPublisher{}
)

// PutObjectAPI is the part of the S3 client used for uploads
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads run outputs under <prefix>/<run-id>/<file>
type S3Publisher struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

// S3PublisherOption is a functional option for configuring S3Publisher
type S3PublisherOption func(*S3Publisher)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3PublisherOption {
	return func(p *S3Publisher) {
		p.logger = logger
	}
}

// WithClient replaces the S3 client
func WithClient(client PutObjectAPI) S3PublisherOption {
	return func(p *S3Publisher) {
		p.client = client
	}
}

// NewS3Publisher creates a publisher from configuration. Static credentials are
// used when both keys are set, otherwise the default AWS credential chain.
func NewS3Publisher(ctx context.Context, cfg *config.StorageConfig, opts ...S3PublisherOption) (*S3Publisher, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	p := &S3Publisher{
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client != nil {
		return p, nil
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	p.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return p, nil
}

// Key returns the object key of a local file for a run
func (p *S3Publisher) Key(runID, file string) string {
	return path.Join(p.prefix, runID, filepath.Base(file))
}

// Publish uploads every file and returns the object keys in the same order
func (p *S3Publisher) Publish(ctx context.Context, runID string, files []string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		key := p.Key(runID, file)
		if err := p.upload(ctx, key, file); err != nil {
			return keys, err
		}
		p.logger.Info("Published workbook",
			zap.String("bucket", p.bucket),
			zap.String("key", key))
		keys = append(keys, key)
	}
	return keys, nil
}

func (p *S3Publisher) upload(ctx context.Context, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(XLSXContentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// Bucket returns the bucket name
func (p *S3Publisher) Bucket() string {
	return p.bucket
}

// NoopPublisher is used when storage is disabled
type NoopPublisher struct{}

// Publish does nothing
func (NoopPublisher) Publish(context.Context, string, []string) ([]string, error) {
	return nil, nil
}

// NewPublisher returns an S3 publisher when storage is enabled, otherwise a no-op
func NewPublisher(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (pipeline.Publisher, error) {
	if cfg == nil || !cfg.Enabled {
		return NoopPublisher{}, nil
	}
	return NewS3Publisher(ctx, cfg, WithLogger(logger.Named("storage")))
}
