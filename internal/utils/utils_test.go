package utils

import (
	"encoding/base64"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Ann Lee", want: "ann-lee"},
		{in: "  Nguyễn Văn Đức  ", want: "nguyen-van-duc"},
		{in: "José  O'Neil!", want: "jose-o-neil"},
		{in: "---", want: ""},
		{in: "R2-D2", want: "r2-d2"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// 1x1 transparent gif
var gifPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

func TestDecodeMediaPayloadSniffsContent(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(gifPixel)

	for _, payload := range []string{"data:image/png;base64," + encoded, encoded} {
		data, ext, err := DecodeMediaPayload(payload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) != len(gifPixel) {
			t.Fatalf("expected %d bytes, got %d", len(gifPixel), len(data))
		}
		if ext != "gif" {
			t.Fatalf("expected sniffed gif extension, got %q", ext)
		}
	}
}

func TestDecodeMediaPayloadErrors(t *testing.T) {
	for _, payload := range []string{"", "data:image/png;base64,", "data:image/png;base64,@@@"} {
		if _, _, err := DecodeMediaPayload(payload); err == nil {
			t.Fatalf("expected error for %q", payload)
		}
	}
}

func TestIsAllowedImageExtension(t *testing.T) {
	for _, ext := range []string{"jpg", ".PNG", "gif", "jpeg"} {
		if !IsAllowedImageExtension(ext) {
			t.Fatalf("expected %q to be allowed", ext)
		}
	}
	for _, ext := range []string{"webp", "bin", ""} {
		if IsAllowedImageExtension(ext) {
			t.Fatalf("expected %q to be rejected", ext)
		}
	}
}
