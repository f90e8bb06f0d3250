package storage

import (
	"context"
	"errors"
	"testing"
)

// backendContract exercises the behavior every backend must share.
func backendContract(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	got, err := b.Get(ctx, "s1", "missing")
	if err != nil || got != nil {
		t.Fatalf("Get(missing) = %v, %v; want nil, nil", got, err)
	}

	if err := b.Put(ctx, "s1", "k", []byte("v1")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := b.Put(ctx, "s1", "k", []byte("v2")); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}
	if err := b.Put(ctx, "s2", "k", []byte("other")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err = b.Get(ctx, "s1", "k")
	if err != nil || string(got) != "v2" {
		t.Fatalf("Get() = %q, %v; want v2", got, err)
	}
	got, _ = b.Get(ctx, "s2", "k")
	if string(got) != "other" {
		t.Fatalf("namespaces leak: got %q", got)
	}

	if err := b.Put(ctx, "s1", "empty", []byte{}); err != nil {
		t.Fatalf("Put(empty) error = %v", err)
	}
	got, err = b.Get(ctx, "s1", "empty")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("Get(empty) = %v, %v; want empty non-nil", got, err)
	}

	if err := b.Delete(ctx, "s1", "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := b.Delete(ctx, "s1", "k"); err != nil {
		t.Fatalf("Delete() twice error = %v", err)
	}
	got, _ = b.Get(ctx, "s1", "k")
	if got != nil {
		t.Fatalf("Get() after delete = %q", got)
	}
}

func TestMemoryBackend(t *testing.T) {
	m := NewMemory()
	backendContract(t, m)
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	v := []byte("abc")
	m.Put(ctx, "n", "k", v)
	v[0] = 'x'

	got, _ := m.Get(ctx, "n", "k")
	if string(got) != "abc" {
		t.Errorf("stored value mutated: %q", got)
	}
	got[0] = 'y'
	again, _ := m.Get(ctx, "n", "k")
	if string(again) != "abc" {
		t.Errorf("returned value aliases storage: %q", again)
	}
}

func TestMemoryClosed(t *testing.T) {
	m := NewMemory()
	m.Close()

	if _, err := m.Get(context.Background(), "n", "k"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get() after close error = %v, want ErrClosed", err)
	}
	if err := m.Put(context.Background(), "n", "k", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Put() after close error = %v, want ErrClosed", err)
	}
}

type failingBackend struct{ err error }

func (f failingBackend) Get(context.Context, string, string) ([]byte, error) { return nil, f.err }
func (f failingBackend) Put(context.Context, string, string, []byte) error  { return f.err }
func (f failingBackend) Delete(context.Context, string, string) error       { return f.err }
func (f failingBackend) Close() error                                      { return nil }

func TestScopeWrapsErrors(t *testing.T) {
	cause := errors.New("quota exceeded")
	s := Scope(failingBackend{err: cause}, "sess")
	ctx := context.Background()

	_, ok, err := s.GetItem(ctx, "jspm:store")
	if ok {
		t.Error("GetItem() ok = true on failure")
	}
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("GetItem() error = %T, want *StorageError", err)
	}
	if se.Op != "get" || se.Namespace != "sess" || se.Key != "jspm:store" {
		t.Errorf("StorageError = %+v", se)
	}
	if !errors.Is(err, cause) {
		t.Error("StorageError does not unwrap to cause")
	}

	if err := s.SetItem(ctx, "k", nil); !errors.As(err, &se) || se.Op != "set" {
		t.Errorf("SetItem() error = %v", err)
	}
	if err := s.RemoveItem(ctx, "k"); !errors.As(err, &se) || se.Op != "remove" {
		t.Errorf("RemoveItem() error = %v", err)
	}
}

func TestScopeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := Scope(NewMemory(), "sess")

	if _, ok, _ := s.GetItem(ctx, "k"); ok {
		t.Fatal("GetItem() found missing item")
	}
	s.SetItem(ctx, "k", []byte("v"))
	v, ok, err := s.GetItem(ctx, "k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("GetItem() = %q, %v, %v", v, ok, err)
	}
}
