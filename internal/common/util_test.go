package common

import (
	"strings"
	"testing"
)

// ---------- RandomString ----------

func TestRandomString_LengthAndAlphabet(t *testing.T) {
	s, err := RandomString(KeyAlphabet, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 24 {
		t.Fatalf("expected length 24, got %d", len(s))
	}
	for _, r := range s {
		if !strings.ContainsRune(KeyAlphabet, r) {
			t.Fatalf("unexpected symbol %q in %q", r, s)
		}
	}
}

func TestRandomString_EmptyAlphabet(t *testing.T) {
	if _, err := RandomString("", 4); err == nil {
		t.Fatalf("expected error for empty alphabet")
	}
}

func TestRandomString_EntropyHint(t *testing.T) {
	a, err := RandomString(KeyAlphabet, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := RandomString(KeyAlphabet, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Logf("warning: two RandomString results are identical; extremely unlikely")
	}
}

// ---------- Redact ----------

func TestRedact(t *testing.T) {
	tests := []struct {
		in      string
		visible int
		want    string
	}{
		{"SKY-ABCDEFGH", 8, "SKY-ABCD…"},
		{"short", 8, "short"},
		{"abc", -1, "…"},
		{"", 3, ""},
	}
	for _, tt := range tests {
		if got := Redact(tt.in, tt.visible); got != tt.want {
			t.Fatalf("Redact(%q, %d) = %q, want %q", tt.in, tt.visible, got, tt.want)
		}
	}
}
