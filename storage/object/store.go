// Package object implements a blob.Backend against an S3-compatible
// object store, adapted from this repository's original S3Backend.
// Google Cloud Storage (and most object-store-as-a-service offerings)
// expose an S3-compatible XML API, so the same client serves the
// GOOGLE backend tag.
package object

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/relaychain/blobvault/blob"
)

// Config holds explicit construction parameters for the object backend.
type Config struct {
	Bucket          string
	Region          string // default us-east-1
	Endpoint        string // optional; set for GCS's S3-compatible endpoint or MinIO
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string // optional key prefix, e.g. "blobs/"
}

// Store implements blob.Backend using an S3-compatible client.
type Store struct {
	client *s3.S3
	bucket string
	prefix string
	log    *slog.Logger
}

// New creates an object-store blob.Backend from Config.
func New(cfg Config, log *slog.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("object: bucket required")
	}
	if log == nil {
		log = slog.Default()
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg := aws.Config{Region: aws.String(region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(&awsCfg)
	if err != nil {
		return nil, fmt.Errorf("object: session: %w", err)
	}

	return &Store{client: s3.New(sess), bucket: cfg.Bucket, prefix: cfg.Prefix, log: log}, nil
}

// Name returns this backend's stable tag.
func (s *Store) Name() blob.BackendName { return blob.Google }

// Store uploads data under a key derived from versionedHash and returns
// the bucket key as the reference.
func (s *Store) Store(ctx context.Context, versionedHash string, data []byte) (string, error) {
	key := s.keyFor(versionedHash)
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("object: put %s: %w", key, err)
	}
	s.log.Debug("stored blob in object store", slog.String("bucket", s.bucket), slog.String("key", key))
	return key, nil
}

// Fetch retrieves data for the given bucket key reference.
func (s *Store) Fetch(ctx context.Context, reference string) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(reference),
	})
	if err != nil {
		return nil, fmt.Errorf("object: get %s: %w", reference, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("object: read %s: %w", reference, err)
	}
	return data, nil
}

// keyFor derives a bucket key from the caller's versioned hash. A
// re-store of the same hash overwrites the existing object.
func (s *Store) keyFor(versionedHash string) string {
	if s.prefix != "" {
		return s.prefix + versionedHash
	}
	return versionedHash
}
