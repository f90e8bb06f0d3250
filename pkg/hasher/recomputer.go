package hasher

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jspm/jspm-packages/pkg/store"
)

// Observer receives the outcome of each computation, typically for metrics.
// kind is "generator" or "sandbox".
type Observer interface {
	ObserveHash(kind string, d time.Duration, err error)
}

// Recomputer applies hash results to a store, last issued wins.
type Recomputer struct {
	store    *store.Store
	service  Service
	logger   *slog.Logger
	observer Observer
	timeout  time.Duration

	root context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu      sync.Mutex
	main    task
	sandbox map[string]*task
}

type task struct {
	seq    uint64
	cancel context.CancelFunc
}

// RecomputerOption configures a Recomputer.
type RecomputerOption func(*Recomputer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RecomputerOption {
	return func(r *Recomputer) {
		r.logger = l
	}
}

// WithObserver reports computation outcomes to o.
func WithObserver(o Observer) RecomputerOption {
	return func(r *Recomputer) {
		r.observer = o
	}
}

// WithTimeout bounds each computation. Default: 15 seconds.
func WithTimeout(d time.Duration) RecomputerOption {
	return func(r *Recomputer) {
		r.timeout = d
	}
}

// NewRecomputer creates a recomputer writing into st.
func NewRecomputer(st *store.Store, svc Service, opts ...RecomputerOption) *Recomputer {
	r := &Recomputer{
		store:   st,
		service: svc,
		logger:  slog.Default(),
		timeout: 15 * time.Second,
		sandbox: make(map[string]*task),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.root, r.stop = context.WithCancel(context.Background())
	return r
}

// begin supersedes t and returns the new sequence and context.
func (r *Recomputer) begin(t *task) (uint64, context.Context, context.CancelFunc) {
	if t.cancel != nil {
		t.cancel()
	}
	t.seq++
	ctx, cancel := context.WithTimeout(r.root, r.timeout)
	t.cancel = cancel
	return t.seq, ctx, cancel
}

// Trigger starts computing the hash of s.SelectedDeps and returns the
// sequence number issued. It never blocks on the service.
func (r *Recomputer) Trigger(s store.State) uint64 {
	deps := slices.Clone(s.SelectedDeps)

	r.mu.Lock()
	seq, ctx, cancel := r.begin(&r.main)
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		hash := ""
		if len(deps) > 0 {
			var ok bool
			if hash, ok = r.compute(ctx, "generator", deps); !ok {
				return
			}
		}

		r.store.Update(ctx, func(cur store.State) (store.State, bool) {
			if !r.isLatest(&r.main, seq) || !slices.Equal(cur.SelectedDeps, deps) || cur.GeneratorHash == hash {
				return cur, false
			}
			cur.GeneratorHash = hash
			return cur, true
		})
	}()
	return seq
}

// TriggerSandbox computes the hash for a sandbox's dependency list and
// stores it under SandboxHashes[id]. Sandboxes are sequenced independently.
func (r *Recomputer) TriggerSandbox(id string, deps []string) uint64 {
	deps = slices.Clone(deps)

	r.mu.Lock()
	t, ok := r.sandbox[id]
	if !ok {
		t = &task{}
		r.sandbox[id] = t
	}
	seq, ctx, cancel := r.begin(t)
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		hash, ok := r.compute(ctx, "sandbox", deps)
		if !ok {
			return
		}
		r.store.Update(ctx, func(cur store.State) (store.State, bool) {
			if !r.isLatest(t, seq) || cur.SandboxHashes[id] == hash {
				return cur, false
			}
			return store.SetSandboxHash(cur, id, hash), true
		})
	}()
	return seq
}

func (r *Recomputer) compute(ctx context.Context, kind string, deps []string) (string, bool) {
	start := time.Now()
	hash, err := r.service.Hash(ctx, DescriptorFor(deps))
	if r.observer != nil {
		r.observer.ObserveHash(kind, time.Since(start), err)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			r.logger.Debug("hash computation superseded", "kind", kind)
		} else {
			r.logger.Warn("hash computation failed, keeping cached hash", "kind", kind, "deps", len(deps), "error", err)
		}
		return "", false
	}
	return hash, true
}

func (r *Recomputer) isLatest(t *task, seq uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return t.seq == seq
}

// Latest returns the most recently issued generator sequence number.
func (r *Recomputer) Latest() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.main.seq
}

// Wait blocks until all issued computations have finished.
func (r *Recomputer) Wait() {
	r.wg.Wait()
}

// Close cancels all in-flight computations and waits for them.
func (r *Recomputer) Close() {
	r.stop()
	r.wg.Wait()
}
