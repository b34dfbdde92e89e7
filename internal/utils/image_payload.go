package utils

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// AllowedImageExtensions are the upload formats accepted by the media host.
var AllowedImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
}

// DecodeMediaPayload decodes an inline base64 or data URL payload and returns
// the raw bytes together with a guessed file extension.
func DecodeMediaPayload(payload string) ([]byte, string, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, "", fmt.Errorf("empty media payload")
	}

	mimeType, base64Payload := splitDataURL(trimmed)
	base64Payload = strings.TrimSpace(base64Payload)
	if base64Payload == "" {
		return nil, "", fmt.Errorf("empty base64 payload")
	}

	data, err := base64.StdEncoding.DecodeString(base64Payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}

	ext := DetectImageExtension(data)
	if ext == "" {
		ext = ExtensionFromMime(mimeType)
	}
	if ext == "" {
		ext = "bin"
	}

	return data, ext, nil
}

// DetectImageExtension sniffs the content rather than trusting the declared type.
func DetectImageExtension(data []byte) string {
	return ExtensionFromMime(http.DetectContentType(data))
}

// IsAllowedImageExtension reports whether ext is an accepted upload format.
func IsAllowedImageExtension(ext string) bool {
	_, ok := AllowedImageExtensions[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return ok
}

// ExtensionFromMime maps an image mime type to a file extension.
func ExtensionFromMime(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}

	switch strings.ToLower(mimeType) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	default:
		return ""
	}
}

// splitDataURL returns the declared mime type and the base64 body of a data
// URL. Bare base64 is treated as jpeg.
func splitDataURL(value string) (mimeType, body string) {
	rest, ok := strings.CutPrefix(value, "data:")
	if !ok {
		return "image/jpeg", value
	}
	mimeType, body, ok = strings.Cut(rest, ";base64,")
	if !ok {
		return "image/jpeg", ""
	}
	return mimeType, body
}
