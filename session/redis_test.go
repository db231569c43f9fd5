package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStorageRoundTrip(t *testing.T) {
	storage := NewRedisStorage(newTestRedis(t), "")
	ctx := context.Background()

	if _, ok, err := storage.Load(ctx); err != nil || ok {
		t.Fatalf("empty storage: ok=%v err=%v", ok, err)
	}

	want := Credential{AccessToken: "acc-1", RefreshToken: "ref-1"}
	if err := storage.Store(ctx, want); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, ok, err := storage.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("loaded %+v, want %+v", got, want)
	}

	if err := storage.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, err := storage.Load(ctx); err != nil || ok {
		t.Fatalf("after clear: ok=%v err=%v", ok, err)
	}
	// Clearing again must not error.
	if err := storage.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestRedisStorageNamespacesKeys(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	a := NewRedisStorage(client, "portal-a")
	b := NewRedisStorage(client, "portal-b")

	if err := a.Store(ctx, Credential{AccessToken: "acc-a", RefreshToken: "ref-a"}); err != nil {
		t.Fatalf("Store a: %v", err)
	}
	if _, ok, err := b.Load(ctx); err != nil || ok {
		t.Fatalf("namespace b must not see namespace a's pair: ok=%v err=%v", ok, err)
	}

	keys, err := client.Keys(ctx, "portal-a:*").Result()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 namespaced keys, got %v", keys)
	}
}

func TestRedisStorageTreatsPartialPairAsAbsent(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	storage := NewRedisStorage(client, "authgate")

	if err := client.Set(ctx, "authgate:access_token", "orphan", 0).Err(); err != nil {
		t.Fatalf("seed orphan key: %v", err)
	}
	if _, ok, err := storage.Load(ctx); err != nil || ok {
		t.Fatalf("orphaned half must load as absent: ok=%v err=%v", ok, err)
	}
}
