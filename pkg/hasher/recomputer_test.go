package hasher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jspm/jspm-packages/pkg/store"
)

// gatedService blocks each call until released, so tests control the
// order in which results arrive.
type gatedService struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	calls int
	fail  bool
}

func newGatedService() *gatedService {
	return &gatedService{gates: make(map[string]chan struct{})}
}

func (g *gatedService) gate(key string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[key]
	if !ok {
		ch = make(chan struct{})
		g.gates[key] = ch
	}
	return ch
}

func (g *gatedService) Hash(ctx context.Context, d Descriptor) (string, error) {
	key := strings.Join(d.Deps(), ",")
	g.mu.Lock()
	g.calls++
	fail := g.fail
	g.mu.Unlock()

	<-g.gate(key)
	if fail {
		return "", &HashServiceError{Service: "gated", Err: ErrServiceUnavailable}
	}
	// Results are delivered even when superseded, like a service that
	// ignores cancellation.
	return "hash(" + key + ")", nil
}

func (g *gatedService) release(key string) {
	close(g.gate(key))
}

func TestRecomputerAppliesHash(t *testing.T) {
	ctx := context.Background()
	st := store.New(ctx, nil)
	r := NewRecomputer(st, LocalService{})
	defer r.Close()

	next := store.ToggleExport(st.GetState(), "react@18.2.0")
	st.SetState(ctx, next)
	r.Trigger(next)
	r.Wait()

	want, _ := LocalService{}.Hash(ctx, DescriptorFor([]string{"react@18.2.0"}))
	if got := st.GetState().GeneratorHash; got != want {
		t.Errorf("GeneratorHash = %q, want %q", got, want)
	}
}

func TestRecomputerLastIssuedWins(t *testing.T) {
	ctx := context.Background()
	st := store.New(ctx, nil)
	svc := newGatedService()
	r := NewRecomputer(st, svc)
	defer r.Close()

	first := store.ToggleExport(st.GetState(), "a")
	st.SetState(ctx, first)
	r.Trigger(first)

	second := store.ToggleExport(st.GetState(), "b")
	st.SetState(ctx, second)
	r.Trigger(second)

	// The later computation resolves first, then the stale one arrives.
	svc.release("a,b")
	waitFor(t, func() bool { return st.GetState().GeneratorHash == "hash(a,b)" })
	svc.release("a")
	r.Wait()

	if got := st.GetState().GeneratorHash; got != "hash(a,b)" {
		t.Errorf("GeneratorHash = %q, stale result overwrote newer", got)
	}
	if r.Latest() != 2 {
		t.Errorf("Latest() = %d, want 2", r.Latest())
	}
}

func TestRecomputerKeepsStaleHashOnFailure(t *testing.T) {
	ctx := context.Background()
	st := store.New(ctx, nil)

	s := store.ToggleExport(st.GetState(), "a")
	s.GeneratorHash = "previous"
	st.SetState(ctx, s)

	failing := ServiceFunc(func(context.Context, Descriptor) (string, error) {
		return "", &HashServiceError{Service: "test", Err: errors.New("unreachable")}
	})
	r := NewRecomputer(st, failing)
	defer r.Close()

	next := store.ToggleExport(st.GetState(), "b")
	st.SetState(ctx, next)
	rev := st.Revision()
	r.Trigger(next)
	r.Wait()

	got := st.GetState()
	if got.GeneratorHash != "previous" {
		t.Errorf("GeneratorHash = %q, want previous", got.GeneratorHash)
	}
	if got.Revision != rev {
		t.Error("failed computation wrote the store")
	}
}

func TestRecomputerEmptySelection(t *testing.T) {
	ctx := context.Background()
	st := store.New(ctx, nil)

	s := st.GetState()
	s.GeneratorHash = "old"
	st.SetState(ctx, s)

	called := false
	svc := ServiceFunc(func(context.Context, Descriptor) (string, error) {
		called = true
		return "x", nil
	})
	r := NewRecomputer(st, svc)
	defer r.Close()

	r.Trigger(st.GetState())
	r.Wait()

	if called {
		t.Error("service called for empty selection")
	}
	if st.GetState().GeneratorHash != "" {
		t.Errorf("GeneratorHash = %q, want empty", st.GetState().GeneratorHash)
	}
}

func TestRecomputerIgnoresChangedSelection(t *testing.T) {
	ctx := context.Background()
	st := store.New(ctx, nil)
	svc := newGatedService()
	r := NewRecomputer(st, svc)
	defer r.Close()

	s := store.ToggleExport(st.GetState(), "a")
	st.SetState(ctx, s)
	r.Trigger(s)

	// The selection changes without a new trigger.
	st.SetState(ctx, store.ToggleExport(st.GetState(), "z"))
	svc.release("a")
	r.Wait()

	if st.GetState().GeneratorHash != "" {
		t.Errorf("hash for an outdated selection applied: %q", st.GetState().GeneratorHash)
	}
}

func TestRecomputerTriggerDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	st := store.New(ctx, nil)
	svc := newGatedService()
	r := NewRecomputer(st, svc)

	done := make(chan struct{})
	go func() {
		r.Trigger(store.ToggleExport(st.GetState(), "a"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Trigger blocked on the service")
	}
	svc.release("a")
	r.Close()
}

func TestRecomputerSandbox(t *testing.T) {
	ctx := context.Background()
	st := store.New(ctx, nil)
	r := NewRecomputer(st, LocalService{})
	defer r.Close()

	r.TriggerSandbox("main", []string{"react@18.2.0"})
	r.TriggerSandbox("other", []string{"vue@3.4.0"})
	r.Wait()

	got := st.GetState().SandboxHashes
	if got["main"] == "" || got["other"] == "" || got["main"] == got["other"] {
		t.Errorf("SandboxHashes = %v", got)
	}
}

type hashRecorder struct {
	mu   sync.Mutex
	errs []error
}

func (h *hashRecorder) ObserveHash(kind string, d time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func TestRecomputerObserver(t *testing.T) {
	ctx := context.Background()
	st := store.New(ctx, nil)
	rec := &hashRecorder{}
	r := NewRecomputer(st, LocalService{}, WithObserver(rec))
	defer r.Close()

	r.Trigger(store.ToggleExport(st.GetState(), "a"))
	r.Wait()
	if len(rec.errs) != 1 || rec.errs[0] != nil {
		t.Errorf("observed = %v", rec.errs)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}
