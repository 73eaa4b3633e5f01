package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// needs a local redis; skipped otherwise
func redisStorageForTest(t *testing.T) *RedisStorage {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{"localhost:6379"},
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStorage(rdb)
}

func TestRedisStorage_SetGet(t *testing.T) {
	storage := redisStorageForTest(t)
	ctx := context.Background()

	type payload struct {
		Field string `json:"field"`
	}
	if err := storage.Set(ctx, "test:setget", payload{Field: "value"}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	defer storage.Delete(ctx, "test:setget")

	var got payload
	if err := storage.Get(ctx, "test:setget", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Field != "value" {
		t.Errorf("Got %q, want %q", got.Field, "value")
	}
}

func TestRedisStorage_GetMissing(t *testing.T) {
	storage := redisStorageForTest(t)

	var got string
	err := storage.Get(context.Background(), "test:definitely-missing", &got)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRedisStorage_Incr(t *testing.T) {
	storage := redisStorageForTest(t)
	ctx := context.Background()
	defer storage.Delete(ctx, "test:counter")

	first, err := storage.Incr(ctx, "test:counter", 1, time.Minute)
	if err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	second, err := storage.Incr(ctx, "test:counter", 1, time.Minute)
	if err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	if second != first+1 {
		t.Errorf("Counter went %d -> %d, want +1", first, second)
	}
}
