package hasher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPServiceJSON(t *testing.T) {
	var got Descriptor
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hash":"abc123"}`))
	}))
	defer srv.Close()

	svc := NewHTTPService(srv.URL)
	hash, err := svc.Hash(context.Background(), DescriptorFor([]string{"a", "b"}))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash != "abc123" {
		t.Errorf("Hash() = %q", hash)
	}
	if deps := got.Deps(); len(deps) != 2 || deps[0] != "a" || deps[1] != "b" {
		t.Errorf("server received %v", deps)
	}
}

func TestHTTPServicePlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("  plainhash\n"))
	}))
	defer srv.Close()

	hash, err := NewHTTPService(srv.URL).Hash(context.Background(), DescriptorFor([]string{"a"}))
	if err != nil || hash != "plainhash" {
		t.Errorf("Hash() = %q, %v", hash, err)
	}
}

func TestHTTPServiceRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	svc := NewHTTPService(srv.URL, WithMaxRetries(3), WithBaseDelay(time.Millisecond))
	hash, err := svc.Hash(context.Background(), DescriptorFor([]string{"a"}))
	if err != nil || hash != "ok" {
		t.Fatalf("Hash() = %q, %v", hash, err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestHTTPServiceZeroRetriesSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	svc := NewHTTPService(srv.URL, WithMaxRetries(0), WithBaseDelay(time.Millisecond))
	start := time.Now()
	if _, err := svc.Hash(ctx, DescriptorFor([]string{"a"})); err == nil {
		t.Fatal("Hash() error = nil, want failure")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Hash() took %v", elapsed)
	}
}

func TestHTTPServiceClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad descriptor", http.StatusBadRequest)
	}))
	defer srv.Close()

	svc := NewHTTPService(srv.URL, WithMaxRetries(3), WithBaseDelay(time.Millisecond))
	_, err := svc.Hash(context.Background(), DescriptorFor([]string{"a"}))

	var hse *HashServiceError
	if !errors.As(err, &hse) {
		t.Fatalf("error = %T %v, want *HashServiceError", err, err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestHTTPServiceBreakerTrips(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewHTTPService(srv.URL, WithMaxRetries(0), WithTripThreshold(2))
	ctx := context.Background()
	d := DescriptorFor([]string{"a"})

	svc.Hash(ctx, d)
	svc.Hash(ctx, d)
	if !svc.Tripped() {
		t.Fatal("breaker not tripped after threshold failures")
	}

	before := calls.Load()
	_, err := svc.Hash(ctx, d)
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("error = %v, want ErrServiceUnavailable", err)
	}
	if calls.Load() != before {
		t.Error("request sent while breaker open")
	}
}

func TestHTTPServiceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	svc := NewHTTPService(url, WithMaxRetries(1), WithBaseDelay(time.Millisecond))
	_, err := svc.Hash(context.Background(), DescriptorFor([]string{"a"}))
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("error = %v, want ErrServiceUnavailable", err)
	}
}
