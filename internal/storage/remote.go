package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// bucket is the object API a cloud SDK adapter has to provide.
// Remove must succeed for keys that do not exist.
type bucket interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) error
}

// remoteStorage adds key naming, prefix ownership and payload checks on top
// of a bucket adapter. Every backend, local disk included, is built on it.
type remoteStorage struct {
	backend string
	bucket  bucket
	prefix  string
}

func newRemoteStorage(backend string, b bucket, prefix string) *remoteStorage {
	return &remoteStorage{backend: backend, bucket: b, prefix: trimPrefix(prefix)}
}

func (s *remoteStorage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty payload")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := objectKey(s.prefix, opts)
	if opts.SkipIfExists {
		exists, err := s.bucket.Exists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("%s: check object: %w", s.backend, err)
		}
		if exists {
			return key, nil
		}
	}
	if err := s.bucket.Put(ctx, key, data, detectContentType(opts.Extension)); err != nil {
		return "", fmt.Errorf("%s: put object: %w", s.backend, err)
	}
	return key, nil
}

func (s *remoteStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := ownedKey(s.prefix, key)
	if err != nil {
		return err
	}
	if err := s.bucket.Remove(ctx, target); err != nil {
		return fmt.Errorf("%s: delete object: %w", s.backend, err)
	}
	return nil
}

var _ Storage = (*remoteStorage)(nil)

// setting is a named configuration value checked by requireSettings.
type setting struct {
	name  string
	value string
}

// requireSettings reports the first empty setting of a backend.
func requireSettings(backend string, settings ...setting) error {
	for _, s := range settings {
		if strings.TrimSpace(s.value) == "" {
			return fmt.Errorf("storage: %s requires %s", backend, s.name)
		}
	}
	return nil
}
