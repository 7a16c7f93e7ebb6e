// Package storage archives uploaded reconciliation files in S3-compatible
// object storage (AWS S3, MinIO, RustFS).
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	importapp "github.com/StoneFind22/CineMan/internal/application/import"
	"github.com/StoneFind22/CineMan/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ importapp.ImportArchive = (*S3ImportArchive)(nil)

// S3ImportArchive stores a copy of every analyzed import file under
// <prefix>/<yyyy>/<mm>/<dd>/<plan id>/<file name>
type S3ImportArchive struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

// S3ImportArchiveOption is a functional option for configuring S3ImportArchive
type S3ImportArchiveOption func(*S3ImportArchive)

// WithLogger sets a custom logger for S3ImportArchive
func WithLogger(logger *zap.Logger) S3ImportArchiveOption {
	return func(a *S3ImportArchive) {
		a.logger = logger
	}
}

// NewS3ImportArchive creates an archive from configuration. Static credentials
// are used when both keys are set; otherwise the default AWS chain applies.
func NewS3ImportArchive(ctx context.Context, cfg *config.StorageConfig, opts ...S3ImportArchiveOption) (*S3ImportArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
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

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	a := &S3ImportArchive{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// EnsureBucket creates the bucket if it does not exist yet
func (a *S3ImportArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}

	a.logger.Info("Creating import archive bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Put uploads one import file and returns its s3:// location
func (a *S3ImportArchive) Put(ctx context.Context, planID uuid.UUID, filename string, data []byte) (string, error) {
	key := a.objectKey(planID, filename)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(filename)),
		Metadata:    map[string]string{"plan-id": planID.String()},
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive import file %s: %w", filename, err)
	}

	location := "s3://" + a.bucket + "/" + key
	a.logger.Debug("Import file archived",
		zap.String("plan_id", planID.String()),
		zap.String("location", location),
		zap.Int("bytes", len(data)))
	return location, nil
}

func (a *S3ImportArchive) objectKey(planID uuid.UUID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	parts := []string{a.now().UTC().Format("2006/01/02"), planID.String(), name}
	if a.prefix != "" {
		parts = append([]string{a.prefix}, parts...)
	}
	return strings.Join(parts, "/")
}

func contentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
