package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"storefront/internal/config"

	"github.com/tencentyun/cos-go-sdk-v5"
)

// cosBucket adapts a Tencent COS bucket.
type cosBucket struct {
	client *cos.Client
}

func (b *cosBucket) Put(ctx context.Context, key string, body []byte, contentType string) error {
	opts := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{ContentType: contentType},
	}
	resp, err := b.client.Object.Put(ctx, key, bytes.NewReader(body), opts)
	closeCOSResponse(resp)
	return err
}

func (b *cosBucket) Exists(ctx context.Context, key string) (bool, error) {
	resp, err := b.client.Object.Head(ctx, key, nil)
	closeCOSResponse(resp)
	switch {
	case err == nil:
		return true, nil
	case cos.IsNotFoundError(err):
		return false, nil
	default:
		return false, err
	}
}

func (b *cosBucket) Remove(ctx context.Context, key string) error {
	resp, err := b.client.Object.Delete(ctx, key)
	closeCOSResponse(resp)
	if cos.IsNotFoundError(err) {
		return nil
	}
	return err
}

func closeCOSResponse(resp *cos.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}

// NewCOSStorage builds a Tencent COS backend from the bucket URL.
func NewCOSStorage(cfg config.Config) (Storage, error) {
	if err := requireSettings(TypeCOS,
		setting{"STORAGE_COS_BUCKET_URL", cfg.StorageCOSBucketURL},
		setting{"STORAGE_COS_SECRET_ID", cfg.StorageCOSSecretID},
		setting{"STORAGE_COS_SECRET_KEY", cfg.StorageCOSSecretKey},
	); err != nil {
		return nil, err
	}
	bucketURL, err := url.Parse(strings.TrimSpace(cfg.StorageCOSBucketURL))
	if err != nil {
		return nil, fmt.Errorf("storage: cos bucket url: %w", err)
	}

	httpClient := &http.Client{Transport: &cos.AuthorizationTransport{
		SecretID:  strings.TrimSpace(cfg.StorageCOSSecretID),
		SecretKey: strings.TrimSpace(cfg.StorageCOSSecretKey),
	}}
	client := cos.NewClient(&cos.BaseURL{BucketURL: bucketURL}, httpClient)
	return newRemoteStorage(TypeCOS, &cosBucket{client: client}, cfg.StorageCOSPrefix), nil
}
