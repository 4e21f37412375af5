package cache

import (
	"context"
	"testing"
	"time"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"
)

func newTestShared(t *testing.T, ttl time.Duration) *Shared {
	t.Helper()
	if testing.Short() {
		t.Skip("requires docker")
	}
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}
	s, err := NewShared("redis://"+endpoint, ttl, zap.NewNop())
	if err != nil {
		t.Fatalf("connect shared cache: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSharedRoundTrip(t *testing.T) {
	s := newTestShared(t, time.Minute)
	ctx := context.Background()
	k := DeriveKey("example.com", "Hello, my name is John and I", "en")

	if _, ok := s.Get(ctx, k); ok {
		t.Fatal("hit on an empty cache")
	}
	s.Set(ctx, k, " work as an engineer.")
	text, ok := s.Get(ctx, k)
	if !ok {
		t.Fatal("miss after set")
	}
	if text != " work as an engineer." {
		t.Errorf("got %q, want %q", text, " work as an engineer.")
	}
}

func TestSharedExpiry(t *testing.T) {
	s := newTestShared(t, time.Second)
	ctx := context.Background()
	k := DeriveKey("example.com", "short lived", "en")

	s.Set(ctx, k, "gone soon")
	time.Sleep(1500 * time.Millisecond)
	if _, ok := s.Get(ctx, k); ok {
		t.Error("entry survived past its TTL")
	}
}
