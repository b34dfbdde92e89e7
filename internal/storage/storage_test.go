package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storefront/internal/config"
)

func TestLocalStorageSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	ctx := context.Background()

	key, err := store.Save(ctx, []byte("png-bytes"), SaveOptions{Category: "Avatars", Extension: ".PNG", BaseName: "abc 123"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(key, "avatars/") || !strings.HasSuffix(key, "/abc-123.png") {
		t.Fatalf("unexpected key %q", key)
	}
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("file not written: %v", err)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(key))); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file to be removed, stat err %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
}

func TestLocalStorageRejectsEmptyPayload(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if _, err := store.Save(context.Background(), nil, SaveOptions{}); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestLocalStorageDeleteRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	for _, key := range []string{"", "../outside.txt", "avatars/../../outside.txt", "a//b", "./a"} {
		if err := store.Delete(context.Background(), key); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Delete(%q) = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "avatars/2024/01/01/a.png", want: "avatars/2024/01/01/a.png"},
		{in: "/avatars/a.png/", want: "avatars/a.png"},
		{in: "..", wantErr: true},
		{in: "a/../b", wantErr: true},
		{in: "   ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := CleanKey(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("CleanKey(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("CleanKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOwnedKeyRequiresPrefix(t *testing.T) {
	if _, err := ownedKey("media", "other/a.png"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected key outside prefix to be rejected, got %v", err)
	}
	got, err := ownedKey("media", "media/avatars/a.png")
	if err != nil || got != "media/avatars/a.png" {
		t.Fatalf("ownedKey = %q, %v", got, err)
	}
}

func TestPublicURL(t *testing.T) {
	tests := []struct{ base, key, want string }{
		{base: "/files", key: "avatars/a.png", want: "/files/avatars/a.png"},
		{base: "https://cdn.example.com/", key: "/avatars/a.png", want: "https://cdn.example.com/avatars/a.png"},
		{base: "", key: "a.png", want: "/a.png"},
	}
	for _, tt := range tests {
		if got := PublicURL(tt.base, tt.key); got != tt.want {
			t.Fatalf("PublicURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}

func TestNewStorageSelectsBackend(t *testing.T) {
	cfg := config.Config{StorageType: "local", StorageLocalDir: t.TempDir()}
	store, err := NewStorage(cfg)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	if _, ok := store.(LocalBaseDirProvider); !ok {
		t.Fatalf("expected local backend")
	}

	if _, err := NewStorage(config.Config{StorageType: "ftp"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	if _, err := NewStorage(config.Config{StorageType: "s3"}); err == nil {
		t.Fatalf("expected error for incomplete s3 config")
	}
	if _, err := NewStorage(config.Config{StorageType: "r2", StorageR2Bucket: "b"}); err == nil {
		t.Fatalf("expected error for incomplete r2 config")
	}
}
