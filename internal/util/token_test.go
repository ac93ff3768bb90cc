package util

import "testing"

func TestRandomHex(t *testing.T) {
	a, err := RandomHex(32)
	if err != nil {
		t.Fatalf("RandomHex: %v", err)
	}
	if len(a) != 64 || !IsLikelyHex(a) {
		t.Fatalf("unexpected token %q", a)
	}
	b, _ := RandomHex(32)
	if a == b {
		t.Fatal("expected distinct tokens")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  AE@TegPR.com "); got != "ae@tegpr.com" {
		t.Fatalf("got %q", got)
	}
}
