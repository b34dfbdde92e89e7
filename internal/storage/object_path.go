package storage

import (
	"mime"
	"path"
	"strconv"
	"strings"
	"time"
)

const (
	defaultCategory  = "misc"
	defaultExtension = "bin"
)

// slugSegment lowercases value and keeps only [a-z0-9_-].
func slugSegment(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, strings.TrimSpace(value))
}

func extensionOf(ext string) string {
	if e := slugSegment(strings.TrimPrefix(strings.TrimSpace(ext), ".")); e != "" {
		return e
	}
	return defaultExtension
}

// relativeKey lays objects out as category/yyyy/mm/dd/name.ext.
func relativeKey(opts SaveOptions, now time.Time) string {
	category := slugSegment(opts.Category)
	if category == "" {
		category = defaultCategory
	}
	name := strings.Trim(slugSegment(strings.ReplaceAll(strings.TrimSpace(opts.BaseName), " ", "-")), "-_")
	if name == "" {
		name = strconv.FormatInt(now.UnixNano(), 10)
	}
	return path.Join(category, now.Format("2006/01/02"), name+"."+extensionOf(opts.Extension))
}

func detectContentType(ext string) string {
	if typ := mime.TypeByExtension("." + extensionOf(ext)); typ != "" {
		return typ
	}
	return "application/octet-stream"
}

func trimPrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

// objectKey builds the stored key under the backend prefix.
func objectKey(prefix string, opts SaveOptions) string {
	key := relativeKey(opts, time.Now().UTC())
	if p := trimPrefix(prefix); p != "" {
		return path.Join(p, key)
	}
	return key
}

// ownedKey validates a key returned by Save. Keys outside the backend prefix
// are rejected.
func ownedKey(prefix, key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	if prefix != "" && !strings.HasPrefix(cleaned, prefix+"/") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
