package store

import "context"

// contextKey is unexported to prevent collisions with other packages.
type contextKey struct{ name string }

// Key is the well-known identifier under which an application root
// registers its store.
var Key = &contextKey{"jspm-store"}

// WithStore returns a context carrying s.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, Key, s)
}

// FromContext returns the store registered on ctx, if any.
func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(Key).(*Store)
	return s, ok && s != nil
}
