package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"storefront/internal/config"
	"strings"
)

const (
	// TypeLocal stores files on the local filesystem.
	TypeLocal = "local"
	// TypeS3 stores files in Amazon S3 or a compatible service.
	TypeS3 = "s3"
	// TypeOSS stores files in Aliyun OSS.
	TypeOSS = "oss"
	// TypeCOS stores files in Tencent COS.
	TypeCOS = "cos"
	// TypeR2 stores files in Cloudflare R2.
	TypeR2 = "r2"
)

// ErrInvalidKey is returned for keys that are empty or escape the storage root.
var ErrInvalidKey = errors.New("storage: invalid object key")

// SaveOptions controls how a backend names a stored object.
//
// Category groups objects (for example "avatars"). Extension is the preferred
// file extension without the leading dot. BaseName overrides the generated name.
type SaveOptions struct {
	Category     string
	Extension    string
	BaseName     string
	SkipIfExists bool
}

// Storage persists uploaded media and returns a backend relative key.
type Storage interface {
	Save(ctx context.Context, data []byte, opts SaveOptions) (string, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}

// LocalBaseDirProvider is implemented by backends whose files can be served
// straight from a local directory.
type LocalBaseDirProvider interface {
	LocalBaseDir() string
}

// NewStorage builds the backend selected by STORAGE_TYPE.
func NewStorage(cfg config.Config) (Storage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch typeName {
	case "", TypeLocal:
		return NewLocalStorage(cfg.StorageLocalDir)
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeOSS:
		return NewOSSStorage(cfg)
	case TypeCOS:
		return NewCOSStorage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}

// CleanKey normalises a caller supplied key and rejects traversal.
func CleanKey(key string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(key), "/")
	if trimmed == "" {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(trimmed, "/") {
		if part == "" || part == "." || part == ".." {
			return "", ErrInvalidKey
		}
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// PublicURL joins the public base URL and a stored key.
func PublicURL(baseURL, key string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	key = strings.TrimLeft(key, "/")
	if base == "" {
		return "/" + key
	}
	return base + "/" + key
}
