package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultLocalDir = "datas/uploads"

// dirBucket stores objects as files below root.
type dirBucket struct {
	root string
}

func (b dirBucket) file(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(key))
}

func (b dirBucket) Put(_ context.Context, key string, body []byte, _ string) error {
	target := b.file(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, body, 0o644)
}

func (b dirBucket) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(b.file(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (b dirBucket) Remove(_ context.Context, key string) error {
	if err := os.Remove(b.file(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// LocalStorage keeps uploads on disk so they can be served by the HTTP server.
type LocalStorage struct {
	*remoteStorage
	baseDir string
}

func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		baseDir = defaultLocalDir
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", baseDir, err)
	}
	return &LocalStorage{
		remoteStorage: newRemoteStorage(TypeLocal, dirBucket{root: baseDir}, ""),
		baseDir:       baseDir,
	}, nil
}

func (s *LocalStorage) LocalBaseDir() string {
	return s.baseDir
}

var (
	_ Storage              = (*LocalStorage)(nil)
	_ LocalBaseDirProvider = (*LocalStorage)(nil)
)
