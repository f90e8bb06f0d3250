package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jspm/jspm-packages/pkg/storage"
)

// Listener is called with the new and previous state after every SetState.
// Listeners run synchronously on the SetState caller's goroutine and must
// not call SetState or Update themselves; hand follow-up work to another
// goroutine instead.
type Listener func(next, prev State)

// Observer receives persistence outcomes, typically for metrics.
type Observer interface {
	ObserveStoreWrite(err error)
}

// Store is a persisted reactive state container.
// It is safe for concurrent use.
type Store struct {
	// writeMu serializes SetState so that persistence and notification
	// happen in revision order.
	writeMu sync.Mutex

	mu    sync.RWMutex
	state State

	subMu  sync.Mutex
	subs   map[uint64]Listener
	nextID uint64

	storage        storage.Storage
	logger         *slog.Logger
	observer       Observer
	persistTimeout time.Duration

	// legacy is set when the state was migrated from split keys that are
	// still present in storage.
	legacy bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithObserver reports storage writes to o.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// WithPersistTimeout bounds each storage write. Default: 5 seconds.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.persistTimeout = d
	}
}

// New creates a store seeded from st. Missing, malformed or unreadable
// storage yields Default(); New never fails. A nil st gives a store that
// only lives in memory.
func New(ctx context.Context, st storage.Storage, opts ...Option) *Store {
	s := &Store{
		subs:           make(map[uint64]Listener),
		storage:        st,
		logger:         slog.Default(),
		persistTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) State {
	def := Default()
	if s.storage == nil {
		return def
	}

	data, ok, err := s.storage.GetItem(ctx, BlobKey)
	if err != nil {
		s.logger.Warn("store load failed, using defaults", "error", err)
		return def
	}
	if ok {
		p, err := Decode(data)
		if err != nil {
			s.logger.Warn("stored state rejected, using defaults", "error", err)
			return def
		}
		return p.Apply(def)
	}
	return s.loadLegacy(ctx, def)
}

// loadLegacy reads the split-key layout. SelectedDeps is re-derived from
// the exports rather than trusted.
func (s *Store) loadLegacy(ctx context.Context, def State) State {
	data, ok, err := s.storage.GetItem(ctx, LegacyExportsKey)
	if err != nil || !ok {
		if err != nil {
			s.logger.Warn("legacy store load failed, using defaults", "error", err)
		}
		return def
	}
	exports, err := decodeLegacyExports(data)
	if err != nil {
		s.logger.Warn("legacy exports rejected, using defaults", "error", err)
		return def
	}

	next := def.Clone()
	next.SelectedExports = exports
	next.SelectedDeps = exports.Selected()

	if raw, ok, err := s.storage.GetItem(ctx, LegacyHashKey); err == nil && ok {
		var hash string
		if json.Unmarshal(raw, &hash) == nil {
			next.GeneratorHash = hash
		}
	}
	s.legacy = true
	s.logger.Info("migrating legacy store layout", "deps", len(next.SelectedDeps))
	return next
}

// GetState returns a snapshot of the current state.
func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Revision returns the current revision.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Revision
}

// SetState replaces the whole state, persists the durable fields and
// notifies every current subscriber before returning. next.Revision and
// next.SelectedDeps are ignored; the store assigns the revision and
// derives the dependency list from next.SelectedExports.
func (s *Store) SetState(ctx context.Context, next State) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.setLocked(ctx, next)
}

// Update applies fn to the current state atomically with respect to other
// writers. When fn returns false nothing is written and no one is notified.
func (s *Store) Update(ctx context.Context, fn func(State) (State, bool)) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next, ok := fn(s.GetState())
	if !ok {
		return false
	}
	s.setLocked(ctx, next)
	return true
}

func (s *Store) setLocked(ctx context.Context, next State) {
	next = next.Clone()
	// SelectedDeps is always derived from SelectedExports.
	next.SelectedDeps = next.SelectedExports.Selected()

	s.mu.Lock()
	prev := s.state
	next.Revision = prev.Revision + 1
	s.state = next
	s.mu.Unlock()

	s.persist(ctx, next)
	s.notify(next, prev)
}

// persist writes the blob synchronously. Failures are logged and never
// reach subscribers.
func (s *Store) persist(ctx context.Context, st State) {
	if s.storage == nil {
		return
	}

	data, err := Encode(st)
	if err == nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
		err = s.storage.SetItem(pctx, BlobKey, data)
		if err == nil && s.legacy {
			s.dropLegacy(pctx)
		}
		cancel()
	}
	if s.observer != nil {
		s.observer.ObserveStoreWrite(err)
	}
	if err != nil {
		s.logger.Warn("store persist failed", "revision", st.Revision, "error", err)
	}
}

func (s *Store) dropLegacy(ctx context.Context) {
	for _, key := range []string{LegacyExportsKey, LegacyDepsKey, LegacyHashKey} {
		if err := s.storage.RemoveItem(ctx, key); err != nil {
			s.logger.Warn("legacy key cleanup failed", "key", key, "error", err)
			return
		}
	}
	s.legacy = false
}

func (s *Store) notify(next, prev State) {
	s.subMu.Lock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, l := range s.subs {
		listeners = append(listeners, l)
	}
	s.subMu.Unlock()

	for _, l := range listeners {
		l(next.Clone(), prev.Clone())
	}
}

// Subscribe registers a listener. Delivery order across listeners is
// unspecified.
func (s *Store) Subscribe(l Listener) *Subscription {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs[id] = l
	return &Subscription{store: s, id: id}
}

// Unsubscribe cancels sub. It is equivalent to sub.Cancel().
func (s *Store) Unsubscribe(sub *Subscription) {
	if sub != nil {
		sub.Cancel()
	}
}

// SubscriberCount returns the number of registered listeners.
func (s *Store) SubscriberCount() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	store *Store
	id    uint64
	once  sync.Once
}

// Cancel removes the listener. Calling it more than once is a no-op.
func (sub *Subscription) Cancel() {
	sub.once.Do(func() {
		sub.store.subMu.Lock()
		delete(sub.store.subs, sub.id)
		sub.store.subMu.Unlock()
	})
}
