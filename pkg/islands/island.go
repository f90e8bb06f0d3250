package islands

import (
	"errors"

	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

// Island is one hydratable page fragment.
type Island interface {
	// Tag is the custom element name marking the island's anchor.
	Tag() string

	// Init parses the anchor's data attributes. It is called once per mount.
	Init(props Props) error

	// Render returns the island's content for s.
	Render(s store.State) *vdom.VNode

	// Changed reports whether the island's view differs between prev and next.
	Changed(prev, next store.State) bool

	// Handle computes the state after action a. It returns false for
	// actions the island does not support.
	Handle(a Action, s store.State) (store.State, bool)
}

// Starter is implemented by islands that schedule work when mounted.
type Starter interface {
	Start(s store.State, h Hasher)
}

// Props are an anchor's data attributes without the "data-" prefix.
type Props map[string]string

// Action is a user interaction routed to an island.
type Action struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// Fragment is a rendered island pushed to the browser.
type Fragment struct {
	Tag      string `json:"tag"`
	HTML     string `json:"html"`
	Revision uint64 `json:"revision"`
}

// Sink receives fragments for one page connection.
type Sink interface {
	Push(f Fragment) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f Fragment) error

// Push calls f.
func (f SinkFunc) Push(fr Fragment) error {
	return f(fr)
}

// Hasher schedules asynchronous hash recomputation.
type Hasher interface {
	Trigger(s store.State) uint64
	TriggerSandbox(id string, deps []string) uint64
}

var (
	// ErrNoStore is returned when the context carries no store.
	ErrNoStore = errors.New("islands: no store registered on context")

	// ErrUnknownAction is returned by Dispatch for unsupported actions.
	ErrUnknownAction = errors.New("islands: unknown action")

	// ErrNotMounted is returned when dispatching to an island that is not
	// mounted on the connection.
	ErrNotMounted = errors.New("islands: island not mounted")

	// ErrUnmounted is returned when dispatching to an unmounted island.
	ErrUnmounted = errors.New("islands: island already unmounted")
)
