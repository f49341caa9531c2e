package blocklist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// ErrStoreUnavailable marks a failed registry read. It is an infrastructure
// fault, distinct from a validation rejection; the HTTP layer maps it to a
// 5xx response instead of a "file blocked" answer.
var ErrStoreUnavailable = errors.New("blocklist: extension store unavailable")

// Store is the slice of the extension registry the resolver needs: the
// enabled half of the fixed registry and the whole custom registry.
type Store interface {
	EnabledFixedExtensions(ctx context.Context) ([]string, error)
	CustomExtensions(ctx context.Context) ([]string, error)
}

// Resolver computes and caches the effective blocked-extension set, the union
// of enabled fixed extensions and all custom extensions. Reads are lock-free
// cache hits; mutations go through Invalidate and the next read recomputes.
type Resolver struct {
	store Store

	cache atomic.Pointer[map[string]struct{}]
	gen   atomic.Uint64
	group singleflight.Group
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// CurrentBlockedSet returns the effective blocked set, rebuilding it from the
// store when the cache is cold. The returned map is shared and must not be
// mutated by callers.
func (r *Resolver) CurrentBlockedSet(ctx context.Context) (map[string]struct{}, error) {
	if cached := r.cache.Load(); cached != nil {
		return *cached, nil
	}

	// Concurrent misses collapse onto one store query; losers share the
	// winner's result.
	result, err, _ := r.group.Do("blocked-set", func() (interface{}, error) {
		return r.rebuild(ctx)
	})
	if err != nil {
		return nil, err
	}

	set, _ := result.(map[string]struct{})
	return set, nil
}

func (r *Resolver) rebuild(ctx context.Context) (map[string]struct{}, error) {
	// Snapshot the generation first: if an invalidation lands while we are
	// reading the store, the freshly built set may predate the mutation and
	// must not be pinned in the cache.
	gen := r.gen.Load()

	fixed, err := r.store.EnabledFixedExtensions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	custom, err := r.store.CustomExtensions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	set := make(map[string]struct{}, len(fixed)+len(custom))
	for _, ext := range fixed {
		set[strings.ToLower(ext)] = struct{}{}
	}
	for _, ext := range custom {
		set[strings.ToLower(ext)] = struct{}{}
	}

	if r.gen.Load() == gen {
		r.cache.Store(&set)
	}

	log.Debug("Blocked extension set rebuilt", "size", len(set))
	return set, nil
}

// Invalidate drops the cached set. Idempotent and safe to call concurrently
// with reads; a read in flight either returns the old value or recomputes.
func (r *Resolver) Invalidate() {
	r.gen.Add(1)
	r.cache.Store(nil)
}
