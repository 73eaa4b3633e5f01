package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/harsh-haria/unified-event-analytics-engine/internal/store"
)

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(store.NewMemoryStorage(), 3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, err := limiter.Allow(ctx, "user:1")
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if !ok {
			t.Fatalf("Request %d rejected, want all %d within the limit", i, 3)
		}
	}

	ok, err := limiter.Allow(ctx, "user:1")
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if ok {
		t.Error("Request over the limit was allowed")
	}
}

func TestLimiter_IndependentKeys(t *testing.T) {
	limiter := NewLimiter(store.NewMemoryStorage(), 1, time.Minute)
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "user:1"); !ok {
		t.Fatal("First request for user:1 rejected")
	}
	if ok, _ := limiter.Allow(ctx, "user:1"); ok {
		t.Error("Second request for user:1 allowed")
	}
	if ok, _ := limiter.Allow(ctx, "key:abcdef"); !ok {
		t.Error("Exhausting user:1 affected key:abcdef")
	}
}

func TestLimiter_WindowReset(t *testing.T) {
	limiter := NewLimiter(store.NewMemoryStorage(), 1, 20*time.Millisecond)
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "user:1"); !ok {
		t.Fatal("First request rejected")
	}
	if ok, _ := limiter.Allow(ctx, "user:1"); ok {
		t.Fatal("Second request in the same window allowed")
	}

	time.Sleep(40 * time.Millisecond)
	if ok, _ := limiter.Allow(ctx, "user:1"); !ok {
		t.Error("Request after window expiry rejected")
	}
}

func TestLimiter_DefaultsOnZeroConfig(t *testing.T) {
	limiter := NewLimiter(store.NewMemoryStorage(), 0, 0)
	ok, err := limiter.Allow(context.Background(), "user:1")
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if !ok {
		t.Error("First request rejected under default limits")
	}
}
