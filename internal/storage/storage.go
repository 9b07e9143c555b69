// Package storage issues presigned upload URLs against an S3-compatible
// object store (MinIO locally, R2 or S3 in production).
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"murmur/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Presigner signs PUT URLs for direct client uploads.
type S3Presigner struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// New builds a presigner from config. It does not contact the store; use
// CheckBucket for that.
func New(cfg *config.Config) (*S3Presigner, error) {
	const op = "storage.New"

	endpoint := cfg.StorageEndpoint
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	region := cfg.StorageRegion
	if region == "" {
		// Presigning without a region makes minio-go look it up over the network.
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &S3Presigner{
		client:    client,
		bucket:    cfg.StorageBucket,
		publicURL: strings.TrimRight(cfg.StoragePublicURL, "/"),
	}, nil
}

// PresignPut returns a URL the client can PUT the object to until ttl expires.
func (p *S3Presigner) PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := p.client.PresignedPutObject(ctx, p.bucket, key, ttl)
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return u.String(), nil
}

// PublicURL is where the object is served from once uploaded.
func (p *S3Presigner) PublicURL(key string) string {
	if p.publicURL == "" {
		return ""
	}
	return p.publicURL + "/" + key
}

// CheckBucket verifies the store is reachable and the bucket exists.
func (p *S3Presigner) CheckBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", p.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", p.bucket)
	}
	return nil
}
