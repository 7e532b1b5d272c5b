package cache_test

import (
	"testing"
	"time"

	"github.com/freshpress/portal-bff-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("stats", "cached")
	val, ok := c.Get("stats")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "cached" {
		t.Errorf("expected 'cached', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("stats", "cached")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("stats")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("stats", "cached")
	c.Delete("stats")

	_, ok := c.Get("stats")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}
