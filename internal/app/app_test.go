package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jspm/jspm-packages/internal/config"
	apperrors "github.com/jspm/jspm-packages/internal/errors"
	"github.com/jspm/jspm-packages/pkg/hasher"
	"github.com/jspm/jspm-packages/pkg/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeNPM serves one packument and an empty search.
func fakeNPM(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/-/v1/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"objects": []any{}, "total": 0})
	})
	mux.HandleFunc("/lit", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"name":      "lit",
			"dist-tags": map[string]string{"latest": "3.1.0"},
			"versions": map[string]any{
				"3.1.0": map[string]any{"name": "lit", "version": "3.1.0", "exports": map[string]string{".": "./index.js"}},
			},
		})
	})
	mux.HandleFunc("/", http.NotFound)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	npm := fakeNPM(t)
	cfg := config.New()
	cfg.Server.Featured = []string{"lit"}
	cfg.Registry.URL = npm.URL
	cfg.Registry.SearchURL = npm.URL + "/-/v1/search"
	cfg.Registry.MaxRetries = 0
	return cfg
}

func TestNewServesSite(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lit")

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/package/lit", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "3.1.0")

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
	assert.Contains(t, rec.Body.String(), "jspm_http_requests_total")
}

func TestNewWithoutMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.Metrics = false

	a, err := New(context.Background(), cfg, WithLogger(quietLogger()), WithBackend(storage.NewMemory()))
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.New()
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.DSN = ""

	_, err := New(context.Background(), cfg, WithLogger(quietLogger()))
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "J501", appErr.Code)
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		b, err := OpenBackend(ctx, config.StorageConfig{Driver: "memory"}, quietLogger())
		require.NoError(t, err)
		assert.IsType(t, &storage.Memory{}, b)
	})

	t.Run("sqlite", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "sessions.db")
		b, err := OpenBackend(ctx, config.StorageConfig{Driver: "sqlite", DSN: dsn, Table: "sessions"}, quietLogger())
		require.NoError(t, err)
		defer b.Close()

		require.NoError(t, b.Put(ctx, "session:a", "k", []byte("v")))
		got, err := b.Get(ctx, "session:a", "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)
	})

	t.Run("s3", func(t *testing.T) {
		b, err := OpenBackend(ctx, config.StorageConfig{
			Driver: "s3",
			S3:     config.S3Config{Bucket: "b", Region: "us-east-1", Endpoint: "http://127.0.0.1:1", UsePathStyle: true},
		}, quietLogger())
		require.NoError(t, err)
		assert.IsType(t, &storage.S3{}, b)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := OpenBackend(ctx, config.StorageConfig{Driver: "postgres"}, quietLogger())
		require.Error(t, err)
		assert.Equal(t, "J501", err.(*apperrors.AppError).Code)
	})
}

func TestHashService(t *testing.T) {
	assert.IsType(t, hasher.LocalService{}, HashService(config.GeneratorConfig{}))
	assert.IsType(t, &hasher.HTTPService{}, HashService(config.GeneratorConfig{HashEndpoint: "http://127.0.0.1:1/hash"}))
}

func TestServeListenerShutsDown(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer a.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.ServeListener(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
