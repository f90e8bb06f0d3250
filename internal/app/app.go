// Package app assembles the site from configuration and runs its HTTP
// server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jspm/jspm-packages/internal/config"
	apperrors "github.com/jspm/jspm-packages/internal/errors"
	"github.com/jspm/jspm-packages/internal/markdown"
	"github.com/jspm/jspm-packages/internal/npm"
	"github.com/jspm/jspm-packages/internal/pages"
	"github.com/jspm/jspm-packages/internal/web"
	"github.com/jspm/jspm-packages/pkg/hasher"
	"github.com/jspm/jspm-packages/pkg/islands"
	"github.com/jspm/jspm-packages/pkg/middleware"
	"github.com/jspm/jspm-packages/pkg/storage"
)

// App is the assembled site.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	backend  storage.Backend
	registry *npm.Client
	server   *web.Server
}

// Option configures New.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	backend  storage.Backend
	registry prometheus.Registerer
	gatherer prometheus.Gatherer
}

// WithLogger sets the logger. Default: built from the log config.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBackend uses b instead of opening the configured storage.
func WithBackend(b storage.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithPrometheus registers metrics on reg and serves them from gatherer.
// Default: a fresh registry with the Go and process collectors.
func WithPrometheus(reg prometheus.Registerer, gatherer prometheus.Gatherer) Option {
	return func(o *options) {
		o.registry = reg
		o.gatherer = gatherer
	}
}

// New builds the site from cfg.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = cfg.Log.NewLogger()
	}
	logger := o.logger

	backend := o.backend
	if backend == nil {
		var err error
		backend, err = OpenBackend(ctx, cfg.Storage, logger)
		if err != nil {
			return nil, err
		}
	}

	var metrics *middleware.Metrics
	if cfg.Telemetry.Metrics {
		if o.registry == nil {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			o.registry, o.gatherer = reg, reg
		}
		metrics = middleware.NewMetrics(middleware.WithRegistry(o.registry))
	}

	if cfg.Telemetry.Tracing {
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	registry := NewRegistryClient(cfg.Registry, logger)
	catalog := islands.NewCatalog(islands.Config{GeneratorURL: cfg.Generator.URL})
	site := pages.New(registry, catalog, markdown.New(), pages.Config{
		Featured: cfg.Server.Featured,
	}, pages.WithLogger(logger))

	roots := web.NewRoots(web.RootsConfig{
		Backend:     backend,
		Service:     HashService(cfg.Generator),
		IdleTTL:     cfg.Session.IdleTTL,
		MaxRoots:    cfg.Session.MaxRoots,
		HashTimeout: cfg.Generator.HashTimeout,
		Metrics:     metrics,
		Logger:      logger,
	})

	metricsPath := ""
	if metrics != nil {
		metricsPath = cfg.Telemetry.MetricsPath
	}
	server := web.New(web.Options{
		Pages: site,
		Roots: roots,
		Session: web.SessionConfig{
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.CookieTTL,
			Secure:     cfg.Session.Secure,
		},
		Metrics:     metrics,
		Gatherer:    o.gatherer,
		MetricsPath: metricsPath,
		Tracing:     cfg.Telemetry.Tracing,
		Dev:         cfg.Server.Dev,
		Logger:      logger,
	})

	return &App{
		cfg:      cfg,
		logger:   logger,
		backend:  backend,
		registry: registry,
		server:   server,
	}, nil
}

// Handler returns the site's HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server
}

// Close releases the session roots, the registry client and storage.
func (a *App) Close() error {
	a.server.Close()
	a.registry.Close()
	return a.backend.Close()
}

// Serve listens on the configured address until ctx is canceled, then
// shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return apperrors.New("J601").Wrap(err).WithDetail(a.cfg.Server.Addr)
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is canceled.
func (a *App) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		// Live connections outlive any write timeout; they manage their
		// own deadlines.
		WriteTimeout: 0,
		IdleTimeout:  2 * time.Minute,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", "timeout", a.cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// OpenBackend opens the storage backend selected by cfg.Driver.
func OpenBackend(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.Driver {
	case "", "memory":
		return storage.NewMemory(), nil
	case "s3":
		client := storage.NewS3Client(storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		return storage.NewS3(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	}

	dialect, err := storage.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, apperrors.New("J501").Wrap(err).WithDetail("storage.driver: " + cfg.Driver)
	}
	opts := []storage.SQLOption{storage.WithSQLLogger(logger)}
	if cfg.Table != "" {
		opts = append(opts, storage.WithSQLTableName(cfg.Table))
	}
	if cfg.Retention > 0 {
		opts = append(opts, storage.WithSQLRetention(cfg.Retention))
	}
	backend, err := storage.OpenSQL(ctx, dialect, cfg.DSN, opts...)
	if err != nil {
		return nil, apperrors.New("J001").Wrap(err).WithDetail(err.Error())
	}
	return backend, nil
}

// HashService returns the generator hash service: the remote endpoint when
// configured, otherwise the local encoder.
func HashService(cfg config.GeneratorConfig) hasher.Service {
	if cfg.HashEndpoint == "" {
		return hasher.LocalService{}
	}
	return hasher.NewHTTPService(cfg.HashEndpoint, hasher.WithUserAgent("jspm-packages"))
}

// NewRegistryClient builds the npm client from cfg.
func NewRegistryClient(cfg config.RegistryConfig, logger *slog.Logger) *npm.Client {
	return npm.NewClient(
		npm.WithBaseURL(cfg.URL),
		npm.WithSearchURL(cfg.SearchURL),
		npm.WithTimeout(cfg.Timeout),
		npm.WithUserAgent(cfg.UserAgent),
		npm.WithMaxRetries(cfg.MaxRetries),
		npm.WithCache(cfg.CacheSize, cfg.CacheTTL),
		npm.WithLogger(logger),
	)
}
