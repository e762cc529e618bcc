// utils/r2.go
package utils

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AssetResolver turns a stored asset key (e.g. "plants/tree-2.png") into a
// URL a browser can load.
type AssetResolver interface {
	URL(ctx context.Context, key string) string
}

// StaticAssets prefixes keys with a public base URL. An empty base leaves
// keys untouched.
type StaticAssets struct {
	BaseURL string
}

func (s StaticAssets) URL(_ context.Context, key string) string {
	if key == "" || s.BaseURL == "" {
		return key
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(key, "/")
}

// R2Config holds Cloudflare R2 credentials.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	TTL             time.Duration
}

// Enabled reports whether every credential is present.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

func (c R2Config) endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

// R2Assets hands out short-lived presigned GET URLs for a private bucket.
type R2Assets struct {
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
}

// NewR2Assets loads an AWS config with the R2 static credentials.
func NewR2Assets(ctx context.Context, c R2Config) (*R2Assets, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID, c.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}
	return NewR2AssetsFromConfig(cfg, c.endpoint(), c.Bucket, c.TTL), nil
}

// NewR2AssetsFromConfig builds the resolver on an existing AWS config.
func NewR2AssetsFromConfig(cfg aws.Config, endpoint, bucket string, ttl time.Duration) *R2Assets {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &R2Assets{presign: s3.NewPresignClient(client), bucket: bucket, ttl: ttl}
}

func (r *R2Assets) URL(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	req, err := r.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.ttl))
	if err != nil {
		log.Printf("⚠️ [Assets] presign %s failed: %v", key, err)
		return key
	}
	return req.URL
}
