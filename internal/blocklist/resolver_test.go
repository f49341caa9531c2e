package blocklist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type fakeStore struct {
	mu     sync.Mutex
	fixed  []string
	custom []string
	err    error

	queries atomic.Int64

	// When set, EnabledFixedExtensions signals entered and blocks until
	// release is closed. Used to stage a mid-rebuild invalidation.
	entered chan struct{}
	release chan struct{}
}

func (s *fakeStore) EnabledFixedExtensions(context.Context) ([]string, error) {
	s.queries.Add(1)

	// Snapshot the data before optionally blocking, so a staged test can
	// deliver pre-mutation results after an invalidation has happened.
	s.mu.Lock()
	err := s.err
	fixed := append([]string(nil), s.fixed...)
	s.mu.Unlock()

	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}

	if err != nil {
		return nil, err
	}
	return fixed, nil
}

func (s *fakeStore) CustomExtensions(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]string(nil), s.custom...), nil
}

func (s *fakeStore) set(fixed, custom []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixed = fixed
	s.custom = custom
}

func TestCurrentBlockedSetFillsCacheOnce(t *testing.T) {
	store := &fakeStore{fixed: []string{"exe", "bat"}, custom: []string{"zip"}}
	resolver := NewResolver(store)

	for i := 0; i < 5; i++ {
		set, err := resolver.CurrentBlockedSet(context.Background())
		if err != nil {
			t.Fatalf("CurrentBlockedSet returned error: %v", err)
		}
		if len(set) != 3 {
			t.Fatalf("blocked set has %d entries, want 3", len(set))
		}
		for _, ext := range []string{"exe", "bat", "zip"} {
			if _, found := set[ext]; !found {
				t.Fatalf("blocked set missing %q", ext)
			}
		}
	}

	if got := store.queries.Load(); got != 1 {
		t.Fatalf("store queried %d times, want 1 (cache hit after first read)", got)
	}
}

func TestCurrentBlockedSetLowercasesEntries(t *testing.T) {
	store := &fakeStore{fixed: []string{"EXE"}, custom: []string{"Zip"}}
	resolver := NewResolver(store)

	set, err := resolver.CurrentBlockedSet(context.Background())
	if err != nil {
		t.Fatalf("CurrentBlockedSet returned error: %v", err)
	}

	if _, found := set["exe"]; !found {
		t.Fatal("blocked set should contain lowercased fixed entry")
	}
	if _, found := set["zip"]; !found {
		t.Fatal("blocked set should contain lowercased custom entry")
	}
}

func TestInvalidateForcesRecompute(t *testing.T) {
	store := &fakeStore{fixed: []string{"exe"}}
	resolver := NewResolver(store)

	if _, err := resolver.CurrentBlockedSet(context.Background()); err != nil {
		t.Fatalf("CurrentBlockedSet returned error: %v", err)
	}

	store.set([]string{"exe", "js"}, nil)
	resolver.Invalidate()

	set, err := resolver.CurrentBlockedSet(context.Background())
	if err != nil {
		t.Fatalf("CurrentBlockedSet returned error: %v", err)
	}
	if _, found := set["js"]; !found {
		t.Fatal("blocked set should reflect registry state after invalidation")
	}

	if got := store.queries.Load(); got != 2 {
		t.Fatalf("store queried %d times, want 2", got)
	}
}

func TestInvalidateIsIdempotent(t *testing.T) {
	store := &fakeStore{fixed: []string{"exe"}}
	resolver := NewResolver(store)

	// On an empty cache and repeated in a row: no panic, no extra queries.
	resolver.Invalidate()
	resolver.Invalidate()

	if _, err := resolver.CurrentBlockedSet(context.Background()); err != nil {
		t.Fatalf("CurrentBlockedSet returned error: %v", err)
	}

	resolver.Invalidate()
	resolver.Invalidate()

	if _, err := resolver.CurrentBlockedSet(context.Background()); err != nil {
		t.Fatalf("CurrentBlockedSet returned error: %v", err)
	}

	if got := store.queries.Load(); got != 2 {
		t.Fatalf("store queried %d times, want 2", got)
	}
}

func TestStoreFailureIsAFault(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	resolver := NewResolver(store)

	_, err := resolver.CurrentBlockedSet(context.Background())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("CurrentBlockedSet error = %v, want ErrStoreUnavailable", err)
	}

	// The failure must not poison the cache: once the store recovers the
	// next read succeeds.
	store.mu.Lock()
	store.err = nil
	store.fixed = []string{"exe"}
	store.mu.Unlock()

	set, err := resolver.CurrentBlockedSet(context.Background())
	if err != nil {
		t.Fatalf("CurrentBlockedSet returned error after recovery: %v", err)
	}
	if _, found := set["exe"]; !found {
		t.Fatal("blocked set missing entry after store recovery")
	}
}

func TestConcurrentReadsSettleOnOneQuery(t *testing.T) {
	store := &fakeStore{fixed: []string{"exe"}}
	resolver := NewResolver(store)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := resolver.CurrentBlockedSet(context.Background())
			if err != nil {
				t.Errorf("CurrentBlockedSet returned error: %v", err)
				return
			}
			if _, found := set["exe"]; !found {
				t.Error("blocked set missing entry under concurrency")
			}
		}()
	}
	wg.Wait()

	if got := store.queries.Load(); got != 1 {
		t.Fatalf("store queried %d times, want 1 (singleflight)", got)
	}
}

func TestInvalidationDuringRebuildIsNotPinned(t *testing.T) {
	store := &fakeStore{
		fixed:   []string{"exe"},
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	resolver := NewResolver(store)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := resolver.CurrentBlockedSet(context.Background()); err != nil {
			t.Errorf("CurrentBlockedSet returned error: %v", err)
		}
	}()

	// Wait for the rebuild to reach the store, then mutate and invalidate
	// while it is still in flight.
	<-store.entered
	store.set([]string{"exe", "js"}, nil)
	resolver.Invalidate()
	close(store.release)
	<-done

	// The in-flight rebuild read pre-mutation state; its result must not
	// have been cached across the invalidation.
	store.entered = nil
	set, err := resolver.CurrentBlockedSet(context.Background())
	if err != nil {
		t.Fatalf("CurrentBlockedSet returned error: %v", err)
	}
	if _, found := set["js"]; !found {
		t.Fatal("stale rebuild result was pinned in the cache across an invalidation")
	}
}
