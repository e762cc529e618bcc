package utils

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
)

func TestStaticAssets(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "plants/a.png", StaticAssets{}.URL(ctx, "plants/a.png"))
	assert.Equal(t, "https://cdn.example.com/plants/a.png", StaticAssets{BaseURL: "https://cdn.example.com/"}.URL(ctx, "/plants/a.png"))
	assert.Equal(t, "", StaticAssets{BaseURL: "https://cdn.example.com"}.URL(ctx, ""))
}

func TestR2Config_Enabled(t *testing.T) {
	assert.False(t, R2Config{AccountID: "acc"}.Enabled())
	assert.True(t, R2Config{AccountID: "acc", AccessKeyID: "k", AccessKeySecret: "s", Bucket: "b"}.Enabled())
}

func TestR2Assets_PresignsLocally(t *testing.T) {
	cfg := aws.Config{
		Region:      "auto",
		Credentials: credentials.NewStaticCredentialsProvider("key", "secret", ""),
	}
	r := NewR2AssetsFromConfig(cfg, "https://acc.r2.cloudflarestorage.com", "garden", 5*time.Minute)

	url := r.URL(context.Background(), "plants/tree-1.png")
	assert.True(t, strings.HasPrefix(url, "https://acc.r2.cloudflarestorage.com/garden/plants/tree-1.png?"), url)
	assert.Contains(t, url, "X-Amz-Expires=300")
	assert.Contains(t, url, "X-Amz-Signature=")

	assert.Equal(t, "", r.URL(context.Background(), ""))
}
