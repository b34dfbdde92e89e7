package auth

import (
	"strconv"
	"testing"
	"time"
)

func TestGenerateCodeIsSixDigits(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil || n < 100000 || n > 999999 {
			t.Fatalf("code out of range: %q", code)
		}
	}
}

func TestCodeValidWindow(t *testing.T) {
	sent := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		stored    string
		sentAt    *time.Time
		candidate string
		elapsed   time.Duration
		want      bool
	}{
		{name: "fresh match", stored: "123456", sentAt: &sent, candidate: "123456", elapsed: time.Minute, want: true},
		{name: "exactly at expiry", stored: "123456", sentAt: &sent, candidate: "123456", elapsed: 300 * time.Second, want: true},
		{name: "one second late", stored: "123456", sentAt: &sent, candidate: "123456", elapsed: 301 * time.Second, want: false},
		{name: "wrong code", stored: "123456", sentAt: &sent, candidate: "654321", elapsed: time.Second, want: false},
		{name: "cleared code", stored: "", sentAt: nil, candidate: "", elapsed: 0, want: false},
		{name: "missing timestamp", stored: "123456", sentAt: nil, candidate: "123456", elapsed: 0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CodeValid(tt.stored, tt.sentAt, tt.candidate, sent.Add(tt.elapsed), DefaultCodeTTL)
			if got != tt.want {
				t.Fatalf("CodeValid = %v, want %v", got, tt.want)
			}
		})
	}
}
