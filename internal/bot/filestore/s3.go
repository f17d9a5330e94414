// Package filestore stages uploaded file bytes in S3-compatible object
// storage, keyed by content digest so repeat uploads of the same file are
// free.
package filestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/sarhadsec/scanbot/internal/bot/config"
	"github.com/sarhadsec/scanbot/internal/common"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Store is a content-addressed staging area for scan uploads.
type Store struct {
	bucket string
	client s3API
}

// s3API is the slice of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// New connects to the object storage configured in cfg (MinIO in
// development, any S3-compatible endpoint in production).
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,     // MINIO_ROOT_USER
			cfg.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &Store{bucket: cfg.S3Bucket, client: client}, nil
}

func storageKey(sha256hex string) string {
	return "scans/" + sha256hex
}

// Stage buffers content, computes its SHA-256 and uploads the bytes under
// the digest key. Re-staging identical bytes overwrites the same object.
// Callers enforce the size ceiling before downloading content.
func (s *Store) Stage(ctx context.Context, content io.Reader) (string, int64, error) {
	var buf bytes.Buffer
	h := sha256.New()

	size, err := io.Copy(io.MultiWriter(&buf, h), content)
	if err != nil {
		return "", 0, fmt.Errorf("reading content: %w", err)
	}

	digest := hex.EncodeToString(h.Sum(nil))
	key := storageKey(digest)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", 0, fmt.Errorf("uploading object: %w", err)
	}

	return digest, size, nil
}

// Open streams previously staged bytes by digest. Returns
// common.ErrNotFound when nothing was staged under that digest.
func (s *Store) Open(ctx context.Context, sha256hex string) (io.ReadCloser, error) {
	key := storageKey(sha256hex)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("fetching object: %w", err)
	}
	return out.Body, nil
}
