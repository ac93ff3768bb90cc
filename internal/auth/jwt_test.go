package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSignerRoundTrip(t *testing.T) {
	s := NewSigner("test-secret")
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok, err := s.Sign(Claims{Subject: "user-1", SessionID: "sid", Role: "ae", ExpiresAt: exp})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	c, err := s.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if c.Subject != "user-1" || c.SessionID != "sid" || c.Role != "ae" || !c.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected claims %+v", c)
	}
}

func TestSignerRejectsForeignKey(t *testing.T) {
	tok, _ := NewSigner("a").Sign(Claims{Subject: "u", SessionID: "s", ExpiresAt: time.Now().Add(time.Hour)})
	if _, err := NewSigner("b").Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := NewSigner("a").Verify("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestSignerExpiredKeepsClaims(t *testing.T) {
	s := NewSigner("k")
	tok, _ := s.Sign(Claims{Subject: "u", SessionID: "sid-9", ExpiresAt: time.Now().Add(-time.Minute)})
	c, err := s.Verify(tok)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if c.SessionID != "sid-9" {
		t.Fatalf("expected claims with expired error, got %+v", c)
	}
}
