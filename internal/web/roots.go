package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jspm/jspm-packages/pkg/hasher"
	"github.com/jspm/jspm-packages/pkg/middleware"
	"github.com/jspm/jspm-packages/pkg/storage"
	"github.com/jspm/jspm-packages/pkg/store"
)

// Root is the application root of one browser session: its store and the
// recomputer writing hashes into it. Pages and live connections borrow it
// through Roots.
type Root struct {
	ID     string
	Store  *store.Store
	Hasher *hasher.Recomputer

	mu      sync.Mutex
	refs    int
	evicted bool
	closed  bool
}

// reuse takes a reference unless the root is already closed.
func (r *Root) reuse() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.evicted = false
	r.refs++
	return true
}

// release drops a reference and reports whether the root was closed.
func (r *Root) release() bool {
	r.mu.Lock()
	r.refs--
	done := r.evicted && r.refs == 0 && !r.closed
	if done {
		r.closed = true
	}
	r.mu.Unlock()
	if done {
		r.Hasher.Close()
	}
	return done
}

// evict marks the root evicted. It closes at once when unused and reports
// whether it is still referenced.
func (r *Root) evict() (inUse bool) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	r.evicted = true
	inUse = r.refs > 0
	if !inUse {
		r.closed = true
	}
	r.mu.Unlock()
	if !inUse {
		r.Hasher.Close()
	}
	return inUse
}

// RootsConfig configures Roots.
type RootsConfig struct {
	// Backend persists session state. Nil keeps state in memory only.
	Backend storage.Backend

	// Service computes generator hashes.
	Service hasher.Service

	// IdleTTL evicts a root after this long without use. Default: 30m.
	IdleTTL time.Duration

	// MaxRoots bounds the roots held in memory. Default: 10000.
	MaxRoots int

	// HashTimeout bounds each hash computation.
	HashTimeout time.Duration

	Metrics *middleware.Metrics
	Logger  *slog.Logger
}

// Roots holds the live application roots by session id. Evicted roots
// are rebuilt from storage on the next request.
type Roots struct {
	cfg   RootsConfig
	cache *expirable.LRU[string, *Root]

	// mu serializes creation so one session never gets two roots.
	mu sync.Mutex

	// pinned holds evicted roots that are still borrowed, so a returning
	// session finds the same store its live connection is using.
	pinMu  sync.Mutex
	pinned map[string]*Root
}

// NewRoots creates the registry.
func NewRoots(cfg RootsConfig) *Roots {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.MaxRoots <= 0 {
		cfg.MaxRoots = 10000
	}
	if cfg.Service == nil {
		cfg.Service = hasher.LocalService{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := &Roots{cfg: cfg, pinned: make(map[string]*Root)}
	r.cache = expirable.NewLRU[string, *Root](cfg.MaxRoots, func(id string, root *Root) {
		cfg.Logger.Debug("session root evicted", "session", id)
		if root.evict() {
			r.pinMu.Lock()
			r.pinned[id] = root
			r.pinMu.Unlock()
		}
	}, cfg.IdleTTL)
	return r
}

// Acquire returns the root for id, loading it from storage when needed,
// and marks it used. The caller must call release when done.
func (r *Roots) Acquire(ctx context.Context, id string) (root *Root, release func()) {
	r.mu.Lock()
	root, ok := r.cache.Get(id)
	if ok && !root.reuse() {
		ok = false
	}
	if !ok {
		// Expired entries linger until collected; evict explicitly so a
		// borrowed one is pinned rather than replaced.
		r.cache.Remove(id)
		root = r.unpin(id)
		if root == nil {
			root = r.build(ctx, id)
			root.reuse()
		}
	}
	// Re-adding refreshes the idle deadline.
	r.cache.Add(id, root)
	r.mu.Unlock()

	if r.cfg.Metrics != nil {
		r.cfg.Metrics.SetSessionRoots(r.cache.Len())
	}

	var once sync.Once
	return root, func() {
		once.Do(func() {
			if root.release() {
				r.pinMu.Lock()
				if r.pinned[id] == root {
					delete(r.pinned, id)
				}
				r.pinMu.Unlock()
			}
		})
	}
}

// unpin returns a borrowed evicted root for id with a new reference, or
// nil.
func (r *Roots) unpin(id string) *Root {
	r.pinMu.Lock()
	defer r.pinMu.Unlock()
	root, ok := r.pinned[id]
	if !ok {
		return nil
	}
	delete(r.pinned, id)
	if !root.reuse() {
		return nil
	}
	return root
}

// State returns a snapshot of the session state without holding the root.
func (r *Roots) State(ctx context.Context, id string) store.State {
	root, release := r.Acquire(ctx, id)
	defer release()
	return root.Store.GetState()
}

// Len returns the number of roots in memory, borrowed evicted roots
// included.
func (r *Roots) Len() int {
	r.pinMu.Lock()
	defer r.pinMu.Unlock()
	return r.cache.Len() + len(r.pinned)
}

// Close evicts every root.
func (r *Roots) Close() {
	r.cache.Purge()
}

func (r *Roots) build(ctx context.Context, id string) *Root {
	var st storage.Storage
	if r.cfg.Backend != nil {
		st = storage.Scope(r.cfg.Backend, "session:"+id)
	}

	logger := r.cfg.Logger.With("session", id)
	storeOpts := []store.Option{store.WithLogger(logger)}
	hashOpts := []hasher.RecomputerOption{hasher.WithLogger(logger)}
	if r.cfg.Metrics != nil {
		storeOpts = append(storeOpts, store.WithObserver(r.cfg.Metrics))
		hashOpts = append(hashOpts, hasher.WithObserver(r.cfg.Metrics))
	}
	if r.cfg.HashTimeout > 0 {
		hashOpts = append(hashOpts, hasher.WithTimeout(r.cfg.HashTimeout))
	}

	s := store.New(ctx, st, storeOpts...)
	root := &Root{
		ID:     id,
		Store:  s,
		Hasher: hasher.NewRecomputer(s, r.cfg.Service, hashOpts...),
	}

	// A selection restored without its hash gets one computed.
	if cur := s.GetState(); len(cur.SelectedDeps) > 0 && cur.GeneratorHash == "" {
		root.Hasher.Trigger(cur)
	}
	return root
}
