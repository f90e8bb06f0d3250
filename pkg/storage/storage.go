package storage

import (
	"context"
	"errors"
	"fmt"
)

// Backend defines the interface for storage backends.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Get retrieves an item.
	// Returns (nil, nil) if the item doesn't exist.
	Get(ctx context.Context, namespace, key string) ([]byte, error)

	// Put stores an item, overwriting any previous value.
	Put(ctx context.Context, namespace, key string, value []byte) error

	// Delete removes an item.
	// Should not return an error if the item doesn't exist.
	Delete(ctx context.Context, namespace, key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// Storage is a Backend bound to a single namespace.
type Storage interface {
	GetItem(ctx context.Context, key string) ([]byte, bool, error)
	SetItem(ctx context.Context, key string, value []byte) error
	RemoveItem(ctx context.Context, key string) error
}

// ErrClosed is returned when operations are attempted on a closed backend.
var ErrClosed = errors.New("storage: backend is closed")

// StorageError reports a failed storage operation.
type StorageError struct {
	Op        string // "get", "set" or "remove"
	Namespace string
	Key       string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s/%s: %v", e.Op, e.Namespace, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Scope binds a backend to a namespace.
func Scope(b Backend, namespace string) Storage {
	return &scoped{backend: b, namespace: namespace}
}

type scoped struct {
	backend   Backend
	namespace string
}

func (s *scoped) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.backend.Get(ctx, s.namespace, key)
	if err != nil {
		return nil, false, &StorageError{Op: "get", Namespace: s.namespace, Key: key, Err: err}
	}
	return v, v != nil, nil
}

func (s *scoped) SetItem(ctx context.Context, key string, value []byte) error {
	if err := s.backend.Put(ctx, s.namespace, key, value); err != nil {
		return &StorageError{Op: "set", Namespace: s.namespace, Key: key, Err: err}
	}
	return nil
}

func (s *scoped) RemoveItem(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, s.namespace, key); err != nil {
		return &StorageError{Op: "remove", Namespace: s.namespace, Key: key, Err: err}
	}
	return nil
}
