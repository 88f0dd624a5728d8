package credentials

import (
	"errors"
	"sync"
	"testing"
)

func TestPoolFallbackOrder(t *testing.T) {
	pool := NewPool([]string{"key1", "key2", "key3"})
	if pool.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", pool.Size())
	}

	key, idx, err := pool.Current()
	if err != nil || key != "key1" || idx != 0 {
		t.Fatalf("Current() = %q, %d, %v, want key1, 0, nil", key, idx, err)
	}

	pool.Advance(0)
	key, idx, err = pool.Current()
	if err != nil || key != "key2" || idx != 1 {
		t.Fatalf("after advance Current() = %q, %d, %v, want key2, 1, nil", key, idx, err)
	}

	pool.Advance(1)
	if key, _, _ = pool.Current(); key != "key3" {
		t.Fatalf("Current() = %q, want key3", key)
	}

	pool.Advance(2)
	if _, _, err = pool.Current(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("exhausted pool must return ErrExhausted, got %v", err)
	}
}

func TestPoolNeverWraps(t *testing.T) {
	pool := NewPool([]string{"key1", "key2"})
	pool.Advance(0)
	pool.Advance(1)

	// Further advances past the end stay exhausted.
	pool.Advance(2)
	if _, _, err := pool.Current(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestPoolStaleAdvanceIgnored(t *testing.T) {
	pool := NewPool([]string{"key1", "key2", "key3"})
	pool.Advance(0)

	// A late report about the already-skipped first key must not move the
	// cursor again.
	pool.Advance(0)
	key, idx, err := pool.Current()
	if err != nil || key != "key2" || idx != 1 {
		t.Fatalf("Current() = %q, %d, %v, want key2 after one real advance", key, idx, err)
	}
}

func TestPoolConcurrentAdvance(t *testing.T) {
	pool := NewPool([]string{"key1", "key2", "key3"})

	// Many goroutines report the same failing index; the cursor advances once.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Advance(0)
		}()
	}
	wg.Wait()

	key, idx, err := pool.Current()
	if err != nil || key != "key2" || idx != 1 {
		t.Fatalf("Current() = %q, %d, %v, want key2, 1, nil", key, idx, err)
	}
}

func TestPoolBlankKeysDropped(t *testing.T) {
	pool := NewPool([]string{"", "  ", "key1", "\t"})
	if pool.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", pool.Size())
	}
	if key, _, _ := pool.Current(); key != "key1" {
		t.Fatalf("Current() = %q, want key1", key)
	}
}

func TestPoolEmpty(t *testing.T) {
	pool := NewPool(nil)
	if pool.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", pool.Size())
	}
	if _, _, err := pool.Current(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("empty pool must be exhausted, got %v", err)
	}
}
