package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedItem struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheHelper(client, "case-service:"), mr
}

func TestCacheHelperSetGet(t *testing.T) {
	ctx := context.Background()
	helper, _ := newTestHelper(t)

	item := cachedItem{ID: 7, Name: "Canada"}
	if err := helper.Set(ctx, "destination:7", item, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got cachedItem
	if err := helper.Get(ctx, "destination:7", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != item {
		t.Errorf("Get returned %+v, want %+v", got, item)
	}

	t.Run("missing key is a cache miss", func(t *testing.T) {
		var missing cachedItem
		if err := helper.Get(ctx, "destination:999", &missing); !errors.Is(err, ErrCacheNotFound) {
			t.Errorf("Expected ErrCacheNotFound, got %v", err)
		}
	})

	t.Run("expired key is a cache miss", func(t *testing.T) {
		helper2, mr := newTestHelper(t)
		if err := helper2.Set(ctx, "destination:8", item, time.Second); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		mr.FastForward(2 * time.Second)

		var expired cachedItem
		if err := helper2.Get(ctx, "destination:8", &expired); !errors.Is(err, ErrCacheNotFound) {
			t.Errorf("Expected ErrCacheNotFound after expiry, got %v", err)
		}
	})
}

func TestCacheHelperDeleteAndExists(t *testing.T) {
	ctx := context.Background()
	helper, _ := newTestHelper(t)

	if err := helper.SetString(ctx, "exists:APP-202508-1234", "1", time.Minute); err != nil {
		t.Fatalf("SetString failed: %v", err)
	}

	found, err := helper.Exists(ctx, "exists:APP-202508-1234")
	if err != nil || !found {
		t.Fatalf("Exists = %v, %v; want true", found, err)
	}

	if err := helper.Delete(ctx, "exists:APP-202508-1234"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	found, err = helper.Exists(ctx, "exists:APP-202508-1234")
	if err != nil || found {
		t.Errorf("Exists after delete = %v, %v; want false", found, err)
	}
}

func TestCacheOrExecute(t *testing.T) {
	ctx := context.Background()
	helper, _ := newTestHelper(t)

	fetchCalls := 0
	fetch := func() (interface{}, error) {
		fetchCalls++
		return cachedItem{ID: 3, Name: "Australia"}, nil
	}

	var first cachedItem
	if err := helper.CacheOrExecute(ctx, "destination:3", &first, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute failed: %v", err)
	}
	if fetchCalls != 1 {
		t.Errorf("Expected 1 fetch on a cold cache, got %d", fetchCalls)
	}
	if first.Name != "Australia" {
		t.Errorf("Expected fetched value, got %+v", first)
	}

	// The write-back is asynchronous, wait for it to land
	deadline := time.Now().Add(2 * time.Second)
	for {
		if found, _ := helper.Exists(ctx, "destination:3"); found {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Cached value never appeared")
		}
		time.Sleep(10 * time.Millisecond)
	}

	var second cachedItem
	if err := helper.CacheOrExecute(ctx, "destination:3", &second, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute failed: %v", err)
	}
	if fetchCalls != 1 {
		t.Errorf("Warm cache should not fetch again, got %d calls", fetchCalls)
	}
	if second != first {
		t.Errorf("Cached value %+v differs from fetched %+v", second, first)
	}

	t.Run("fetch errors surface", func(t *testing.T) {
		var dest cachedItem
		err := helper.CacheOrExecute(ctx, "destination:broken", &dest, time.Minute, func() (interface{}, error) {
			return nil, errors.New("db unreachable")
		})
		if err == nil {
			t.Fatal("Expected fetch error to surface")
		}
	})
}

func TestInvalidatePattern(t *testing.T) {
	ctx := context.Background()
	helper, _ := newTestHelper(t)

	keys := []string{"application:1", "application:2", "destination:1"}
	for _, key := range keys {
		if err := helper.SetString(ctx, key, "x", time.Minute); err != nil {
			t.Fatalf("SetString failed: %v", err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "application:*"); err != nil {
		t.Fatalf("InvalidatePattern failed: %v", err)
	}

	for _, key := range []string{"application:1", "application:2"} {
		if found, _ := helper.Exists(ctx, key); found {
			t.Errorf("Key %s should be gone", key)
		}
	}
	if found, _ := helper.Exists(ctx, "destination:1"); !found {
		t.Error("Unmatched key should survive")
	}
}

func TestCacheHelperWithoutClient(t *testing.T) {
	ctx := context.Background()
	helper := NewCacheHelper(nil, "case-service:")

	t.Run("reads miss, writes are no-ops", func(t *testing.T) {
		var dest cachedItem
		if err := helper.Get(ctx, "key", &dest); !errors.Is(err, ErrCacheNotAvailable) {
			t.Errorf("Expected ErrCacheNotAvailable, got %v", err)
		}
		if err := helper.Set(ctx, "key", dest, time.Minute); err != nil {
			t.Errorf("Set without client should be a no-op, got %v", err)
		}
		if err := helper.Delete(ctx, "key"); err != nil {
			t.Errorf("Delete without client should be a no-op, got %v", err)
		}
	})

	t.Run("cache-aside falls through to fetch", func(t *testing.T) {
		var dest cachedItem
		err := helper.CacheOrExecute(ctx, "key", &dest, time.Minute, func() (interface{}, error) {
			return cachedItem{ID: 1, Name: "Canada"}, nil
		})
		if err != nil {
			t.Fatalf("CacheOrExecute failed: %v", err)
		}
		if dest.Name != "Canada" {
			t.Errorf("Expected fetched value, got %+v", dest)
		}
	})
}
