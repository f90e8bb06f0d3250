package hasher

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Descriptor is the hash input: the ordered selection as [dep, true] pairs.
type Descriptor struct {
	SelectedDeps [][2]any `json:"selectedDeps"`
}

// DescriptorFor builds a descriptor from the ordered derived list.
// Pass store.State.SelectedDeps, never the export map.
func DescriptorFor(deps []string) Descriptor {
	d := Descriptor{SelectedDeps: make([][2]any, len(deps))}
	for i, dep := range deps {
		d.SelectedDeps[i] = [2]any{dep, true}
	}
	return d
}

// Deps returns the dependency names in order.
func (d Descriptor) Deps() []string {
	out := make([]string, 0, len(d.SelectedDeps))
	for _, pair := range d.SelectedDeps {
		if s, ok := pair[0].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Equal reports whether two descriptors hash the same input.
func (d Descriptor) Equal(o Descriptor) bool {
	return slices.Equal(d.Deps(), o.Deps())
}

// Service computes a hash that is deterministic in the ordered input.
type Service interface {
	Hash(ctx context.Context, d Descriptor) (string, error)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, d Descriptor) (string, error)

// Hash calls f.
func (f ServiceFunc) Hash(ctx context.Context, d Descriptor) (string, error) {
	return f(ctx, d)
}

// ErrServiceUnavailable is wrapped when the hash service cannot be reached
// or its circuit breaker is open.
var ErrServiceUnavailable = errors.New("hash service unavailable")

// HashServiceError reports a failed hash computation.
type HashServiceError struct {
	Service string
	Err     error
}

func (e *HashServiceError) Error() string {
	return fmt.Sprintf("hash service %s: %v", e.Service, e.Err)
}

func (e *HashServiceError) Unwrap() error {
	return e.Err
}
