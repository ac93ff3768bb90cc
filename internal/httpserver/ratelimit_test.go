package httpserver

import (
	"testing"
	"time"
)

func TestIPLimiterRefillsAndSweeps(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := newIPLimiter(60, 1)
	l.now = func() time.Time { return now }

	if !l.allow("10.0.0.1") {
		t.Fatal("first request denied")
	}
	if l.allow("10.0.0.1") {
		t.Fatal("burst exceeded but allowed")
	}
	if !l.allow("10.0.0.2") {
		t.Fatal("other ip should have its own bucket")
	}

	now = now.Add(time.Second)
	if !l.allow("10.0.0.1") {
		t.Fatal("bucket did not refill")
	}

	now = now.Add(2 * bucketTTL)
	l.allow("10.0.0.3")
	if _, ok := l.buckets["10.0.0.1"]; ok {
		t.Fatal("idle bucket not swept")
	}
}
