package hasher

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"testing"
)

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestDeflateReportsWriteErrors(t *testing.T) {
	payload := make([]byte, 1<<20)
	rand.New(rand.NewSource(1)).Read(payload)

	errDisk := errors.New("disk full")
	if err := deflate(failingWriter{err: errDisk}, payload); !errors.Is(err, errDisk) {
		t.Fatalf("deflate() error = %v, want %v", err, errDisk)
	}
	if err := deflate(failingWriter{err: errDisk}, []byte("{}")); !errors.Is(err, errDisk) {
		t.Fatalf("deflate() small payload error = %v, want %v", err, errDisk)
	}
}

func TestLocalDeterministic(t *testing.T) {
	ctx := context.Background()
	d := DescriptorFor([]string{"react@18.2.0", "react-dom@18.2.0/client"})

	first, err := LocalService{}.Hash(ctx, d)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		got, _ := LocalService{}.Hash(ctx, d)
		if got != first {
			t.Fatalf("Hash() not deterministic: %q vs %q", got, first)
		}
	}
}

func TestLocalOrderSensitive(t *testing.T) {
	ctx := context.Background()
	ab, _ := LocalService{}.Hash(ctx, DescriptorFor([]string{"a", "b"}))
	ba, _ := LocalService{}.Hash(ctx, DescriptorFor([]string{"b", "a"}))
	if ab == ba {
		t.Error("hash ignores order")
	}
}

func TestLocalRoundTrip(t *testing.T) {
	deps := []string{"lodash@4.17.21", "lodash@4.17.21/fp"}
	hash, err := LocalService{}.Hash(context.Background(), DescriptorFor(deps))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	d, err := DecodeLocal(hash)
	if err != nil {
		t.Fatalf("DecodeLocal() error = %v", err)
	}
	if !slices.Equal(d.Deps(), deps) {
		t.Errorf("Deps() = %v, want %v", d.Deps(), deps)
	}
	if !d.Equal(DescriptorFor(deps)) {
		t.Error("Equal() = false for round-tripped descriptor")
	}
}

func TestLocalURLSafe(t *testing.T) {
	hash, _ := LocalService{}.Hash(context.Background(), DescriptorFor([]string{"@scope/pkg@1.0.0/sub?x"}))
	for _, c := range hash {
		if c == '+' || c == '/' || c == '=' {
			t.Fatalf("hash %q is not URL safe", hash)
		}
	}
}

func TestLocalCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (LocalService{}).Hash(ctx, DescriptorFor([]string{"a"})); err == nil {
		t.Error("Hash() succeeded on a cancelled context")
	}
}

func TestDecodeLocalRejectsGarbage(t *testing.T) {
	for _, in := range []string{"!!!", "aGVsbG8"} {
		if _, err := DecodeLocal(in); err == nil {
			t.Errorf("DecodeLocal(%q) succeeded", in)
		}
	}
}
