package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/redis"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, "cart"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}
	if err := store.Set(ctx, "cart", `[]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "cart", `[{"productId":"p1","quantity":2}]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx, "cart")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != `[{"productId":"p1","quantity":2}]` {
		t.Fatalf("unexpected value %q", got)
	}
	if err := store.Delete(ctx, "cart"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "cart"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, err := store.Get(ctx, "cart"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	store, err := NewFile(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	exerciseStore(t, store)

	if err := store.Set(context.Background(), "user/profile", "x"); err != nil {
		t.Fatalf("set with slash key: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single escaped file, got %d", len(entries))
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFile(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := first.Set(context.Background(), "cart", "persisted"); err != nil {
		t.Fatalf("set: %v", err)
	}
	second, err := NewFile(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := second.Get(context.Background(), "cart")
	if err != nil || got != "persisted" {
		t.Fatalf("expected persisted value, got %q err=%v", got, err)
	}
}

func TestRedisStore(t *testing.T) {
	exerciseStore(t, &Redis{client: newFakeRedis()})
}

func TestOpenSelectsDriver(t *testing.T) {
	if _, err := Open(config.StorageConfig{Driver: "memory"}, nil); err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, err := Open(config.StorageConfig{Driver: "file", Dir: t.TempDir()}, nil); err != nil {
		t.Fatalf("file: %v", err)
	}
	if _, err := Open(config.StorageConfig{Driver: "redis"}, nil); err == nil {
		t.Fatalf("redis without client should fail")
	}
	if _, err := Open(config.StorageConfig{Driver: "sessionStorage"}, nil); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}

type fakeRedis struct {
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", redis.ErrNil
	}
	return v, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key] = value.(string)
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) Key(parts ...string) string {
	return (&redis.Client{}).Key(parts...)
}
