package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

// TestInMemoryCache_GetSet verifies that Set stores values and Get retrieves
// them correctly with the expected data.
func TestInMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	if err := c.Set(ctx, "page:2015", []byte(`{"title":"Seattle Weather"}`), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := c.Get(ctx, "page:2015")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if string(got) != `{"title":"Seattle Weather"}` {
		t.Errorf("Get() = %s", got)
	}
}

// TestInMemoryCache_Get_Miss verifies that Get returns ok=false when
// the requested key does not exist in cache.
func TestInMemoryCache_Get_Miss(t *testing.T) {
	c := NewInMemoryCache()

	_, ok, err := c.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for miss")
	}
}

// TestInMemoryCache_Get_Expired verifies that entries expire exactly at their TTL
// and are removed from the map on access.
func TestInMemoryCache_Get_Expired(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	c := NewInMemoryCacheWithClock(clock)

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	clock.Advance(59 * time.Second)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("Get() ok = false before TTL elapsed")
	}

	clock.Advance(time.Second)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Get() ok = true, want false at TTL")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, expired entry should be deleted", c.Len())
	}
}

// TestInMemoryCache_Set_CopiesValue verifies that mutating the caller's slice after Set
// does not change the cached bytes.
func TestInMemoryCache_Set_CopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, time.Minute)
	buf[0] = 'x'

	got, _, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("Get() = %s, want abc", got)
	}
}

// TestInMemoryCache_CanceledContext verifies Get and Set honour a canceled context.
func TestInMemoryCache_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewInMemoryCache()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err == nil {
		t.Error("Set() with canceled ctx should fail")
	}
	if _, _, err := c.Get(ctx, "k"); err == nil {
		t.Error("Get() with canceled ctx should fail")
	}
}

// TestInMemoryCache_Concurrent verifies the cache is safe for concurrent readers and writers.
// Run with -race.
func TestInMemoryCache_Concurrent(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.Set(ctx, "k", []byte{byte(j)}, time.Minute)
				_, _, _ = c.Get(ctx, "k")
			}
		}()
	}
	wg.Wait()
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

// TestMemcached_Expiration verifies TTL conversion and the out-of-range fallback.
func TestMemcached_Expiration(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want int32
	}{
		{10 * time.Minute, 600},
		{time.Second, 1},
		{0, 3600},
		{500 * time.Millisecond, 3600},
		{31 * 24 * time.Hour, 3600},
	}
	for _, tt := range tests {
		if got := expiration(tt.ttl); got != tt.want {
			t.Errorf("expiration(%v) = %d, want %d", tt.ttl, got, tt.want)
		}
	}
}

// TestParseAddrs verifies comma-separated server lists are split and trimmed.
func TestParseAddrs(t *testing.T) {
	got := parseAddrs(" a:1, ,b:2 ")
	if len(got) != 2 || got[0] != "a:1" || got[1] != "b:2" {
		t.Errorf("parseAddrs() = %v", got)
	}
	if got := parseAddrs(""); len(got) != 0 {
		t.Errorf("parseAddrs(\"\") = %v, want empty", got)
	}
}

// TestMemcachedCache_CanceledContext verifies no network call is attempted once ctx is done.
func TestMemcachedCache_CanceledContext(t *testing.T) {
	c, err := NewMemcachedCache("127.0.0.1:1", 10*time.Millisecond, 1)
	if err != nil {
		t.Fatalf("NewMemcachedCache() error = %v", err)
	}
	defer c.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := c.Get(ctx, "k"); err != context.Canceled {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != context.Canceled {
		t.Errorf("Set() error = %v, want context.Canceled", err)
	}
}
