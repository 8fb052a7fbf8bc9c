package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config configures an S3-compatible object store
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// S3Storage implements Storage on an S3 bucket
type S3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Client builds an S3 client from cfg.
// A custom endpoint (MinIO, LocalStack) is used when set.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(region),
	}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewS3Storage creates S3-backed storage for cfg.Bucket
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 storage requires a bucket")
	}

	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewS3StorageWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3StorageWithClient wraps an existing client
func NewS3StorageWithClient(client *s3.Client, bucket, prefix string) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Put stores content at the given key with optional metadata
func (s *S3Storage) Put(ctx context.Context, key string, content []byte, metadata *Metadata) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
	}

	meta := Metadata{}
	if metadata != nil {
		meta = *metadata
	}
	if meta.Checksum == "" {
		meta.Checksum = ComputeChecksum(content)
	}
	if meta.ContentType != "" {
		input.ContentType = aws.String(meta.ContentType)
	}
	input.Metadata = toObjectMetadata(meta)

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", s.bucket, s.objectKey(key), err)
	}
	return nil
}

// Get retrieves content from the given key
func (s *S3Storage) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return nil, s.wrapErr("get", key, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3 object %s: %w", key, err)
	}
	return content, nil
}

// GetInfo retrieves file information without content
func (s *S3Storage) GetInfo(ctx context.Context, key string) (*FileInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return nil, s.wrapErr("head", key, err)
	}

	meta := fromObjectMetadata(out.Metadata)
	meta.ContentType = aws.ToString(out.ContentType)

	return &FileInfo{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		Checksum:    meta.Checksum,
		ContentType: meta.ContentType,
		ModifiedAt:  aws.ToTime(out.LastModified),
		Metadata:    &meta,
	}, nil
}

// Exists checks if a file exists at the given key
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.GetInfo(ctx, key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Delete removes a file at the given key
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return s.wrapErr("delete", key, err)
	}
	return nil
}

// List returns all keys matching the given prefix
func (s *S3Storage) List(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.objectKey(prefix)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, s.storageKey(aws.ToString(obj.Key)))
		}
	}

	return keys, nil
}

func (s *S3Storage) objectKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3Storage) storageKey(objectKey string) string {
	if s.prefix == "" {
		return objectKey
	}
	return strings.TrimPrefix(objectKey, s.prefix+"/")
}

func (s *S3Storage) wrapErr(op, key string, err error) error {
	var noSuchKey *s3types.NoSuchKey
	var notFound *s3types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return fmt.Errorf("s3 %s %s: %w", op, key, err)
}

// S3 user metadata keys are lower-cased by the service
func toObjectMetadata(meta Metadata) map[string]string {
	out := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set("original-name", meta.OriginalName)
	set("provider-code", meta.ProviderCode)
	set("batch-id", meta.BatchID)
	set("source-url", meta.SourceURL)
	set("checksum", meta.Checksum)
	if !meta.StoredAt.IsZero() {
		out["stored-at"] = meta.StoredAt.UTC().Format(time.RFC3339)
	}
	for k, v := range meta.Custom {
		set("x-"+strings.ToLower(k), v)
	}
	return out
}

func fromObjectMetadata(in map[string]string) Metadata {
	meta := Metadata{
		OriginalName: in["original-name"],
		ProviderCode: in["provider-code"],
		BatchID:      in["batch-id"],
		SourceURL:    in["source-url"],
		Checksum:     in["checksum"],
	}
	if ts, err := time.Parse(time.RFC3339, in["stored-at"]); err == nil {
		meta.StoredAt = ts
	}
	for k, v := range in {
		if rest, ok := strings.CutPrefix(k, "x-"); ok {
			if meta.Custom == nil {
				meta.Custom = map[string]string{}
			}
			meta.Custom[rest] = v
		}
	}
	return meta
}
