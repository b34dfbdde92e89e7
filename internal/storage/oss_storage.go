package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"storefront/internal/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// ossBucket adapts an Aliyun OSS bucket.
type ossBucket struct {
	bucket *oss.Bucket
}

func (b *ossBucket) Put(ctx context.Context, key string, body []byte, contentType string) error {
	return b.bucket.PutObject(key, bytes.NewReader(body), oss.WithContext(ctx), oss.ContentType(contentType))
}

func (b *ossBucket) Exists(ctx context.Context, key string) (bool, error) {
	return b.bucket.IsObjectExist(key, oss.WithContext(ctx))
}

// Remove relies on OSS answering success for missing keys.
func (b *ossBucket) Remove(ctx context.Context, key string) error {
	return b.bucket.DeleteObject(key, oss.WithContext(ctx))
}

// NewOSSStorage builds an Aliyun OSS backend.
func NewOSSStorage(cfg config.Config) (Storage, error) {
	if err := requireSettings(TypeOSS,
		setting{"STORAGE_OSS_ENDPOINT", cfg.StorageOSSEndpoint},
		setting{"STORAGE_OSS_BUCKET", cfg.StorageOSSBucket},
		setting{"STORAGE_OSS_ACCESS_KEY_ID", cfg.StorageOSSAccessKeyID},
		setting{"STORAGE_OSS_ACCESS_KEY_SECRET", cfg.StorageOSSAccessKeySecret},
	); err != nil {
		return nil, err
	}

	client, err := oss.New(
		strings.TrimSpace(cfg.StorageOSSEndpoint),
		strings.TrimSpace(cfg.StorageOSSAccessKeyID),
		strings.TrimSpace(cfg.StorageOSSAccessKeySecret),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: oss client: %w", err)
	}
	handle, err := client.Bucket(strings.TrimSpace(cfg.StorageOSSBucket))
	if err != nil {
		return nil, fmt.Errorf("storage: oss bucket: %w", err)
	}
	return newRemoteStorage(TypeOSS, &ossBucket{bucket: handle}, cfg.StorageOSSPrefix), nil
}
