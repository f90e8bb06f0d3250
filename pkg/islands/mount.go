package islands

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/jspm/jspm-packages/pkg/render"
	"github.com/jspm/jspm-packages/pkg/store"
)

// Env carries the collaborators shared by the islands of one connection.
type Env struct {
	Sink     Sink
	Hasher   Hasher // may be nil
	Renderer *render.Renderer
	Logger   *slog.Logger
}

func (e Env) withDefaults() Env {
	if e.Renderer == nil {
		e.Renderer = render.NewRenderer(render.RendererConfig{})
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	if e.Sink == nil {
		e.Sink = SinkFunc(func(Fragment) error { return nil })
	}
	return e
}

// Mounted is a mounted island. It borrows the store; it never owns it.
type Mounted struct {
	island Island
	store  *store.Store
	env    Env
	sub    *store.Subscription

	mu        sync.Mutex
	unmounted bool
}

// Mount locates island's anchor in doc and mounts it against the store
// registered on ctx. An absent anchor returns (nil, nil) without touching
// the store.
func Mount(ctx context.Context, doc Document, island Island, env Env) (*Mounted, error) {
	anchor, ok := doc.Find(island.Tag())
	if !ok {
		return nil, nil
	}

	st, ok := store.FromContext(ctx)
	if !ok {
		return nil, ErrNoStore
	}

	if err := island.Init(anchor.Props); err != nil {
		return nil, fmt.Errorf("init %s: %w", island.Tag(), err)
	}

	m := &Mounted{island: island, store: st, env: env.withDefaults()}
	m.sub = st.Subscribe(m.react)
	cur := st.GetState()
	m.push(cur)
	if s, ok := island.(Starter); ok && m.env.Hasher != nil {
		s.Start(cur, m.env.Hasher)
	}
	return m, nil
}

// Tag returns the island's tag.
func (m *Mounted) Tag() string {
	return m.island.Tag()
}

// react is the store listener.
func (m *Mounted) react(next, prev store.State) {
	if !m.island.Changed(prev, next) {
		return
	}
	m.push(next)
}

// push renders s and sends the fragment. A panicking or failing render is
// logged and contained to this island.
func (m *Mounted) push(s store.State) {
	defer func() {
		if r := recover(); r != nil {
			m.env.Logger.Error("island render panicked", "island", m.island.Tag(), "panic", r)
		}
	}()

	html, err := m.env.Renderer.RenderToString(m.island.Render(s))
	if err != nil {
		m.env.Logger.Warn("island render failed", "island", m.island.Tag(), "error", err)
		return
	}
	if err := m.env.Sink.Push(Fragment{Tag: m.island.Tag(), HTML: html, Revision: s.Revision}); err != nil {
		m.env.Logger.Debug("fragment push failed", "island", m.island.Tag(), "error", err)
	}
}

// Dispatch applies action a: the island computes the next state from the
// current one, the store is written once, then the hash is recomputed
// asynchronously when the selection changed.
func (m *Mounted) Dispatch(ctx context.Context, a Action) error {
	m.mu.Lock()
	gone := m.unmounted
	m.mu.Unlock()
	if gone {
		return ErrUnmounted
	}

	var (
		prev, next store.State
		handled    bool
	)
	m.store.Update(ctx, func(cur store.State) (store.State, bool) {
		prev = cur
		next, handled = m.island.Handle(a, cur)
		return next, handled
	})
	if !handled {
		return fmt.Errorf("%w: %s on %s", ErrUnknownAction, a.Name, m.island.Tag())
	}

	if m.env.Hasher != nil && !slices.Equal(prev.SelectedDeps, next.SelectedDeps) {
		m.env.Hasher.Trigger(m.store.GetState())
	}
	return nil
}

// Unmount cancels the subscription. Further calls are no-ops.
func (m *Mounted) Unmount() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unmounted {
		return
	}
	m.unmounted = true
	m.sub.Cancel()
}

// Set is the group of islands mounted for one page connection.
type Set struct {
	mu      sync.Mutex
	mounted []*Mounted
}

// MountAll mounts every island whose anchor is present in doc. Failures
// are logged per island and never prevent the others from mounting.
func MountAll(ctx context.Context, doc Document, islands []Island, env Env) *Set {
	env = env.withDefaults()
	set := &Set{}
	for _, island := range islands {
		m, err := Mount(ctx, doc, island, env)
		if err != nil {
			env.Logger.Warn("island mount failed", "island", island.Tag(), "error", err)
			continue
		}
		if m != nil {
			set.mounted = append(set.mounted, m)
		}
	}
	return set
}

// Tags lists the mounted islands.
func (s *Set) Tags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tags := make([]string, len(s.mounted))
	for i, m := range s.mounted {
		tags[i] = m.Tag()
	}
	return tags
}

// Dispatch routes an action to the island mounted under tag.
func (s *Set) Dispatch(ctx context.Context, tag string, a Action) error {
	s.mu.Lock()
	var target *Mounted
	for _, m := range s.mounted {
		if m.Tag() == tag {
			target = m
			break
		}
	}
	s.mu.Unlock()

	if target == nil {
		return fmt.Errorf("%w: %s", ErrNotMounted, tag)
	}
	return target.Dispatch(ctx, a)
}

// Unmount unmounts every island in the set.
func (s *Set) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.mounted {
		m.Unmount()
	}
}
