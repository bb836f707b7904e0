package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	// Miss before Set
	_, hit, err := c.Get(ctx, "scene:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("expected miss before Set")
	}

	// Round trip
	want := []byte(`{"nodes":[]}`)
	if err := c.Set(ctx, "scene:abc", want, time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, hit, err := c.Get(ctx, "scene:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit {
		t.Fatal("expected hit after Set")
	}
	if string(got) != string(want) {
		t.Errorf("Get = %q, want %q", got, want)
	}

	// Expired entries are misses
	if err := c.Set(ctx, "scene:old", []byte("stale"), -time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "scene:old"); hit {
		t.Error("expired entry should be a miss")
	}

	// Delete removes the entry
	if err := c.Delete(ctx, "scene:abc"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "scene:abc"); hit {
		t.Error("expected miss after Delete")
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// Same inputs produce the same key
	opts := LayoutKeyOpts{Mode: "force", Filter: "all", Width: 800, Height: 600, Seed: 42}
	if k.LayoutKey("abc", opts) != k.LayoutKey("abc", opts) {
		t.Error("LayoutKey should be deterministic")
	}

	// Different options produce different keys
	other := opts
	other.Mode = "radial"
	if k.LayoutKey("abc", opts) == k.LayoutKey("abc", other) {
		t.Error("different modes should produce different keys")
	}

	// Different graph hashes produce different keys
	if k.LayoutKey("abc", opts) == k.LayoutKey("def", opts) {
		t.Error("different graph hashes should produce different keys")
	}

	// Scene keys depend on format
	if k.SceneKey("abc", SceneKeyOpts{Format: "svg"}) == k.SceneKey("abc", SceneKeyOpts{Format: "png"}) {
		t.Error("different formats should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "prod:")

	key := scoped.DatasetKey("data.json")
	if key[:5] != "prod:" {
		t.Errorf("scoped key should carry the prefix, got %q", key)
	}
	if key == inner.DatasetKey("data.json") {
		t.Error("scoped key should differ from unscoped key")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Non-retryable errors fail immediately
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return errors.New("fatal")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("non-retryable error should not retry, calls = %d", calls)
	}

	// Retryable errors retry until success
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
