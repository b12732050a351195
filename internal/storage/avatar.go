// Package storage presigns direct-to-bucket avatar uploads so image bytes
// never pass through the API.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const uploadExpiry = 15 * time.Minute

type Config struct {
	Bucket        string
	Region        string
	Endpoint      string // optional, for MinIO or other S3-compatible hosts
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// AvatarStore issues presigned PUT URLs against an S3-compatible bucket.
type AvatarStore struct {
	presign func(ctx context.Context, in *s3.PutObjectInput) (string, error)
	head    func(ctx context.Context) error
	bucket  string
	baseURL string
}

func NewAvatarStore(ctx context.Context, cfg Config) (*AvatarStore, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	pc := s3.NewPresignClient(client)

	store := newAvatarStore(func(ctx context.Context, in *s3.PutObjectInput) (string, error) {
		req, err := pc.PresignPutObject(ctx, in, s3.WithPresignExpires(uploadExpiry))
		if err != nil {
			return "", err
		}
		return req.URL, nil
	}, cfg.Bucket, cfg.PublicBaseURL)
	store.head = func(ctx context.Context) error {
		_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)})
		return err
	}
	return store, nil
}

func newAvatarStore(presign func(context.Context, *s3.PutObjectInput) (string, error), bucket, baseURL string) *AvatarStore {
	return &AvatarStore{presign: presign, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

// PresignUpload returns a URL the browser can PUT the image to directly.
func (s *AvatarStore) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	url, err := s.presign(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return url, nil
}

// PublicURL is where the object is served from once uploaded.
func (s *AvatarStore) PublicURL(key string) string {
	return s.baseURL + "/" + key
}

// Ping checks that the bucket exists and the credentials can reach it.
func (s *AvatarStore) Ping(ctx context.Context) error {
	if s.head == nil {
		return nil
	}
	if err := s.head(ctx); err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	return nil
}
