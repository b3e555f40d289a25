// Package minio stores uploaded documents in an S3-compatible bucket.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
)

// Options configure a Store.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	// PublicBaseURL prefixes object URLs handed to reviewers; the endpoint is used when empty.
	PublicBaseURL string
}

// Store implements domain.BlobStore.
type Store struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// New constructs a Store. It does not touch the network; call EnsureBucket at startup.
func New(opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket required", domain.ErrInvalidArgument)
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("op=minio.new: %w", err)
	}
	base := strings.TrimRight(opts.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + opts.Endpoint
	}
	return &Store{client: client, bucket: opts.Bucket, baseURL: base}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("op=minio.bucket_exists: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("op=minio.make_bucket: %w", err)
	}
	slog.Info("blob bucket created", slog.String("bucket", s.bucket))
	return nil
}

// Put uploads data under key.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (domain.BlobRef, error) {
	if key == "" {
		return domain.BlobRef{}, fmt.Errorf("%w: blob key required", domain.ErrInvalidArgument)
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return domain.BlobRef{}, fmt.Errorf("op=minio.put: %w", err)
	}
	return domain.BlobRef{Bucket: s.bucket, Key: key, URL: s.objectURL(key)}, nil
}

// Get reads an object back. A missing object is domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, ref domain.BlobRef) ([]byte, error) {
	bucket := ref.Bucket
	if bucket == "" {
		bucket = s.bucket
	}
	obj, err := s.client.GetObject(ctx, bucket, ref.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("op=minio.get: %w", mapErr(err))
	}
	defer func() { _ = obj.Close() }()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("op=minio.get: %w", mapErr(err))
	}
	return data, nil
}

// Ping checks that the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("op=minio.ping: %w", err)
	}
	if !ok {
		return fmt.Errorf("op=minio.ping: bucket %q missing", s.bucket)
	}
	return nil
}

func (s *Store) objectURL(key string) string {
	return s.baseURL + "/" + s.bucket + "/" + (&url.URL{Path: key}).EscapedPath()
}

func mapErr(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, resp.Message)
	}
	return err
}
