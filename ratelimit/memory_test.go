package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterAllowAndReset(t *testing.T) {
	lim := NewMemory(2, time.Second)
	now := time.Now()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, retry, err := lim.Allow(ctx, "ip", now)
		if err != nil || !allowed || retry != 0 {
			t.Fatalf("expected allow on call %d", i+1)
		}
	}

	allowed, retry, err := lim.Allow(ctx, "ip", now.Add(200*time.Millisecond))
	if err != nil || allowed {
		t.Fatalf("expected rate limit on third call")
	}
	if retry != 800*time.Millisecond {
		t.Fatalf("expected retryAfter 800ms, got %v", retry)
	}

	allowed, _, err = lim.Allow(ctx, "other-ip", now)
	if err != nil || !allowed {
		t.Fatalf("expected keys to be independent")
	}

	allowed, _, err = lim.Allow(ctx, "ip", now.Add(2*time.Second))
	if err != nil || !allowed {
		t.Fatalf("expected allow after window reset")
	}
}

func TestMemoryLimiterCleanup(t *testing.T) {
	lim := NewMemory(1, time.Second)
	now := time.Now()

	lim.Allow(context.Background(), "1.1.1.1", now)
	lim.Allow(context.Background(), "2.2.2.2", now.Add(2*time.Second))

	if len(lim.entries) != 1 {
		t.Fatalf("expected cleanup to remove expired entries, have %d", len(lim.entries))
	}
}
