package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func stubRedis(t *testing.T) *string {
	origNewClient := newRedisClient
	origPing := pingRedis
	t.Cleanup(func() {
		newRedisClient = origNewClient
		pingRedis = origPing
		Client = nil
	})

	var capturedAddr string
	newRedisClient = func(opts *redis.Options) *redis.Client {
		capturedAddr = opts.Addr
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return nil
	}
	return &capturedAddr
}

func TestInitRedisWithCustomAddr(t *testing.T) {
	addr := stubRedis(t)
	InitRedis(context.Background(), "redis:9999")
	if *addr != "redis:9999" {
		t.Fatalf("expected custom addr, got %s", *addr)
	}
}

func TestInitRedisDefaults(t *testing.T) {
	addr := stubRedis(t)
	InitRedis(context.Background(), "")
	if *addr != "localhost:6379" {
		t.Fatalf("expected default addr, got %s", *addr)
	}
}

func TestInitRedisParsesURL(t *testing.T) {
	addr := stubRedis(t)
	InitRedis(context.Background(), "redis://:secret@cache.internal:6380/2")
	if *addr != "cache.internal:6380" {
		t.Fatalf("expected parsed addr, got %s", *addr)
	}
}

type fakeRedis struct {
	data map[string][]byte
	ttl  map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.data[key] = value.([]byte)
	f.ttl[key] = expiration
	return cmd
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	v, ok := f.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(v))
	return cmd
}

type reading struct {
	Value float64 `json:"value"`
}

func TestStoreRoundTrip(t *testing.T) {
	fake := newFakeRedis()
	store := NewStore(fake, "mood:")

	if err := store.Set(context.Background(), "latest", reading{Value: 21.5}, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.ttl["mood:latest"] != time.Hour {
		t.Fatalf("expected ttl on prefixed key, got %v", fake.ttl)
	}

	var got reading
	if err := store.Get(context.Background(), "latest", &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != 21.5 {
		t.Fatalf("unexpected value %+v", got)
	}
}

func TestStoreMissAndErrors(t *testing.T) {
	fake := newFakeRedis()
	store := NewStore(fake, "")

	var got reading
	if err := store.Get(context.Background(), "absent", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}

	fake.err = errors.New("connection refused")
	if err := store.Get(context.Background(), "absent", &got); err == nil || errors.Is(err, ErrMiss) {
		t.Fatalf("expected transport error, got %v", err)
	}

	var nilStore *Store
	if err := nilStore.Set(context.Background(), "k", 1, 0); err != nil {
		t.Fatalf("nil store set should be a no-op, got %v", err)
	}
	if err := nilStore.Get(context.Background(), "k", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("nil store get should miss, got %v", err)
	}
}
