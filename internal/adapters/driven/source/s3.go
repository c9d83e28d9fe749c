package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentSource = (*S3Source)(nil)

const s3Scheme = "s3://"

// S3API is the subset of the S3 client the source calls.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds S3 connection settings. Empty keys use the default AWS
// credential chain; Endpoint targets S3-compatible stores.
type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// S3Source reads s3://bucket/key objects.
type S3Source struct {
	client   S3API
	maxBytes int64
}

// NewS3Source builds an S3 client from AWS configuration.
func NewS3Source(ctx context.Context, cfg S3Config, maxBytes int64) (*S3Source, error) {
	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3SourceWithClient(client, maxBytes), nil
}

// NewS3SourceWithClient wraps an existing client.
func NewS3SourceWithClient(client S3API, maxBytes int64) *S3Source {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &S3Source{client: client, maxBytes: maxBytes}
}

func (s *S3Source) Supports(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// Fetch downloads the object and returns its ContentType as the MIME hint.
func (s *S3Source) Fetch(ctx context.Context, location string) ([]byte, string, error) {
	bucket, key, err := parseS3URI(location)
	if err != nil {
		return nil, "", err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, "", domain.NewIOError(fmt.Sprintf("object not found: %s", location), domain.ErrNotFound)
		}
		return nil, "", domain.NewIOError(fmt.Sprintf("failed to get %s", location), err)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && *out.ContentLength > s.maxBytes {
		return nil, "", domain.NewIOError(fmt.Sprintf("%s exceeds %d bytes", location, s.maxBytes), nil)
	}
	data, err := readLimited(out.Body, s.maxBytes, location)
	if err != nil {
		return nil, "", err
	}
	return data, aws.ToString(out.ContentType), nil
}

// parseS3URI splits s3://bucket/key.
func parseS3URI(location string) (string, string, error) {
	rest := strings.TrimPrefix(location, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", domain.NewIOError(fmt.Sprintf("invalid s3 uri %q, expected s3://bucket/key", location), nil)
	}
	return bucket, key, nil
}
