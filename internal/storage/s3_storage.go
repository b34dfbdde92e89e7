package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// s3Bucket adapts an S3 compatible bucket (AWS, MinIO, Cloudflare R2).
type s3Bucket struct {
	client *s3.Client
	name   string
}

func (b *s3Bucket) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.name),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	return err
}

func (b *s3Bucket) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(b.name), Key: aws.String(key)})
	switch {
	case err == nil:
		return true, nil
	case isS3NotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// Remove relies on S3 answering success for missing keys.
func (b *s3Bucket) Remove(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(b.name), Key: aws.String(key)})
	if isS3NotFound(err) {
		return nil
	}
	return err
}

func isS3NotFound(err error) bool {
	if err == nil {
		return false
	}
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch strings.ToLower(apiErr.ErrorCode()) {
		case "notfound", "nosuchkey", "404":
			return true
		}
	}
	return false
}

// s3Endpoint describes how to reach an S3 compatible service.
type s3Endpoint struct {
	region         string
	url            string
	accessKeyID    string
	secretKey      string
	sessionToken   string
	forcePathStyle bool
}

func (e s3Endpoint) client() *s3.Client {
	awsCfg := aws.Config{
		Region: e.region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(e.accessKeyID, e.secretKey, e.sessionToken),
		),
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = e.forcePathStyle
		if e.url != "" {
			o.BaseEndpoint = aws.String(e.url)
		}
	})
}

// withScheme defaults bare host endpoints to https.
func withScheme(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" || strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "https://" + endpoint
}

// NewS3Storage builds an Amazon S3 (or compatible) backend.
func NewS3Storage(cfg config.Config) (Storage, error) {
	if err := requireSettings(TypeS3,
		setting{"STORAGE_S3_BUCKET", cfg.StorageS3Bucket},
		setting{"STORAGE_S3_REGION", cfg.StorageS3Region},
		setting{"STORAGE_S3_ACCESS_KEY_ID", cfg.StorageS3AccessKeyID},
		setting{"STORAGE_S3_SECRET_ACCESS_KEY", cfg.StorageS3SecretAccessKey},
	); err != nil {
		return nil, err
	}
	endpoint := s3Endpoint{
		region:         strings.TrimSpace(cfg.StorageS3Region),
		url:            withScheme(cfg.StorageS3Endpoint),
		accessKeyID:    strings.TrimSpace(cfg.StorageS3AccessKeyID),
		secretKey:      strings.TrimSpace(cfg.StorageS3SecretAccessKey),
		sessionToken:   strings.TrimSpace(cfg.StorageS3SessionToken),
		forcePathStyle: cfg.StorageS3ForcePathStyle,
	}
	b := &s3Bucket{client: endpoint.client(), name: strings.TrimSpace(cfg.StorageS3Bucket)}
	return newRemoteStorage(TypeS3, b, cfg.StorageS3Prefix), nil
}

// NewR2Storage builds a Cloudflare R2 backend through the S3 API. The endpoint
// is derived from the account id when not given.
func NewR2Storage(cfg config.Config) (Storage, error) {
	if err := requireSettings(TypeR2,
		setting{"STORAGE_R2_BUCKET", cfg.StorageR2Bucket},
		setting{"STORAGE_R2_ACCESS_KEY_ID", cfg.StorageR2AccessKeyID},
		setting{"STORAGE_R2_SECRET_ACCESS_KEY", cfg.StorageR2SecretAccessKey},
	); err != nil {
		return nil, err
	}
	url := withScheme(cfg.StorageR2Endpoint)
	if url == "" {
		accountID := strings.TrimSpace(cfg.StorageR2AccountID)
		if accountID == "" {
			return nil, errors.New("storage: r2 requires STORAGE_R2_ENDPOINT or STORAGE_R2_ACCOUNT_ID")
		}
		url = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	}
	region := strings.TrimSpace(cfg.StorageR2Region)
	if region == "" {
		region = "auto"
	}
	endpoint := s3Endpoint{
		region:         region,
		url:            url,
		accessKeyID:    strings.TrimSpace(cfg.StorageR2AccessKeyID),
		secretKey:      strings.TrimSpace(cfg.StorageR2SecretAccessKey),
		forcePathStyle: true,
	}
	b := &s3Bucket{client: endpoint.client(), name: strings.TrimSpace(cfg.StorageR2Bucket)}
	return newRemoteStorage(TypeR2, b, cfg.StorageR2Prefix), nil
}
