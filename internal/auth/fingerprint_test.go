package auth

import (
	"strings"
	"testing"
)

func TestTokenFingerprintHasFixedWidth(t *testing.T) {
	mgr := newTestManager(t)
	id := Identity{
		UserID:   7,
		Fullname: strings.Repeat("F", 255),
		Username: strings.Repeat("u", 100),
		Email:    strings.Repeat("e", 240) + "@example.com",
	}
	refresh, _, err := mgr.IssueRefreshToken(id)
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	if len(refresh) <= 512 {
		t.Fatalf("expected a token longer than 512 bytes for long identity fields, got %d", len(refresh))
	}

	fp := TokenFingerprint(refresh)
	if len(fp) != 64 {
		t.Fatalf("fingerprint length = %d, want 64", len(fp))
	}
	if fp != TokenFingerprint(refresh) {
		t.Fatal("fingerprint must be deterministic")
	}
	other, _, _ := mgr.IssueRefreshToken(id)
	if TokenFingerprint(other) == fp {
		t.Fatal("distinct tokens must not share a fingerprint")
	}
	if TokenFingerprint("") != "" {
		t.Fatal("empty token must have an empty fingerprint")
	}
}
