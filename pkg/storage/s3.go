package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Client is the subset of the aws-sdk-go-v2 S3 client the store
// uses. *s3.Client satisfies it; tests stub it.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3 stores values as objects in an S3 bucket under a key prefix.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	st := storage.NewS3(s3.NewFromConfig(cfg), "my-bucket",
//	    storage.WithS3Prefix("jotai/"))
type S3 struct {
	client S3Client
	bucket string
	prefix string
}

// S3Option configures the S3 store.
type S3Option func(*s3Config)

type s3Config struct {
	prefix string
}

// WithS3Prefix sets the object key prefix. Default: "jotai/".
func WithS3Prefix(prefix string) S3Option {
	return func(c *s3Config) {
		c.prefix = prefix
	}
}

// NewS3 creates an S3-backed store.
func NewS3(client S3Client, bucket string, opts ...S3Option) *S3 {
	cfg := &s3Config{prefix: "jotai/"}
	for _, opt := range opts {
		opt(cfg)
	}
	return &S3{
		client: client,
		bucket: bucket,
		prefix: cfg.prefix,
	}
}

func (s *S3) objectKey(key string) string {
	return s.prefix + key
}

// Load retrieves the value for key.
func (s *S3) Load(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: loading %s from s3: %w", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("storage: loading %s from s3: %w", key, err)
	}
	return data, nil
}

// Save persists data under key.
func (s *S3) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("storage: saving %s to s3: %w", key, err)
	}
	return nil
}

// Delete removes key. S3 deletes are idempotent, so missing keys are
// not an error.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("storage: deleting %s from s3: %w", key, err)
	}
	return nil
}

// Keys lists all stored keys under the prefix, following pagination.
func (s *S3) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: listing keys in s3: %w", err)
		}
		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			keys = append(keys, strings.TrimPrefix(*obj.Key, s.prefix))
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			return keys, nil
		}
		token = out.NextContinuationToken
	}
}

// Close is a no-op; the caller owns the client.
func (s *S3) Close() error { return nil }

var _ Storage = (*S3)(nil)
