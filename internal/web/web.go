// Package web serves the site: server-rendered pages bound to a session
// store, the live channel that hydrates islands, and the form fallback
// for clients without script.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	clientdist "github.com/jspm/jspm-packages/client/dist"
	apperrors "github.com/jspm/jspm-packages/internal/errors"
	"github.com/jspm/jspm-packages/internal/pages"
	"github.com/jspm/jspm-packages/pkg/assets"
	"github.com/jspm/jspm-packages/pkg/middleware"
	"github.com/jspm/jspm-packages/pkg/render"
	"github.com/jspm/jspm-packages/pkg/routepath"
	"github.com/jspm/jspm-packages/pkg/store"
)

// Paths served by the site.
const (
	LivePath   = "/live"
	AssetPath  = "/_jspm/"
	ScriptPath = AssetPath + "islands.js"
	HealthPath = "/healthz"
)

// maxFormSize caps action fallback bodies.
const maxFormSize = 64 << 10

// Options configures a Server.
type Options struct {
	Pages *pages.Pages
	Roots *Roots

	// Assets holds the embedded static files. Default: the island runtime.
	Assets *assets.Manifest

	// Renderer renders pages and island fragments. Default: a renderer
	// linking the fingerprinted island runtime, pretty-printed in Dev.
	Renderer *render.Renderer

	Session SessionConfig

	// Metrics instruments requests and islands. Nil disables metrics.
	Metrics *middleware.Metrics

	// Gatherer is exposed at MetricsPath when both are set.
	Gatherer    prometheus.Gatherer
	MetricsPath string

	// Tracing wraps requests in server spans.
	Tracing bool

	// Dev accepts live connections from any origin and with the session
	// in the "session" query parameter, links assets by source name and
	// pretty-prints HTML.
	Dev bool

	// CheckOrigin overrides the live channel origin check.
	// Default: same origin unless Dev.
	CheckOrigin func(r *http.Request) bool

	Logger *slog.Logger
}

// Server is the site's HTTP handler.
type Server struct {
	pages    *pages.Pages
	roots    *Roots
	renderer *render.Renderer
	session  SessionConfig
	metrics  *middleware.Metrics
	logger   *slog.Logger
	dev      bool
	upgrader websocket.Upgrader
	router   chi.Router
}

// New creates the server and its routes.
func New(opts Options) *Server {
	if opts.Assets == nil {
		opts.Assets = DefaultAssets()
	}
	if opts.Renderer == nil {
		resolver := assets.NewResolver(opts.Assets, AssetPath)
		if opts.Dev {
			resolver = assets.NewPassthroughResolver(AssetPath)
		}
		opts.Renderer = render.NewRenderer(render.RendererConfig{
			Pretty:       opts.Dev,
			IslandScript: resolver.Asset("islands.js"),
			LivePath:     LivePath,
		})
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Roots == nil {
		opts.Roots = NewRoots(RootsConfig{Metrics: opts.Metrics, Logger: opts.Logger})
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = SameOriginCheck
		if opts.Dev {
			checkOrigin = func(*http.Request) bool { return true }
		}
	}

	s := &Server{
		pages:    opts.Pages,
		roots:    opts.Roots,
		renderer: opts.Renderer,
		session:  opts.Session.withDefaults(),
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		dev:      opts.Dev,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
	s.router = s.routes(opts)
	return s
}

func (s *Server) routes(opts Options) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(s.logger, HealthPath, opts.MetricsPath))
	r.Use(chimw.Recoverer)
	r.Use(routepath.Redirect)
	if opts.Tracing {
		r.Use(middleware.Tracing(middleware.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != HealthPath && r.URL.Path != opts.MetricsPath
		})))
	}
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.Get("/", s.handleHome)
	r.Get("/search", s.handleSearch)
	r.Get("/package/*", s.handlePackage)
	r.Post("/actions/{island}/{action}", s.handleAction)

	r.Get(LivePath, s.handleLive)
	r.Handle(AssetPath+"*", opts.Assets.Handler(AssetPath))
	r.Get(HealthPath, s.handleHealth)
	if opts.Gatherer != nil && opts.MetricsPath != "" {
		r.Handle(opts.MetricsPath, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(s.handleNotFound)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases every session root.
func (s *Server) Close() {
	s.roots.Close()
}

// SameOriginCheck accepts requests without an Origin header and requests
// whose Origin host matches the Host header.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && u.Host == r.Host
}

// pageFunc builds a page for the session state s.
type pageFunc func(ctx context.Context, s store.State) (render.PageData, error)

// servePage binds the request to its session root, builds the page and
// writes it with the island runtime attached.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request, build pageFunc) {
	ctx := r.Context()
	id := s.session.ensureSession(w, r)
	root, release := s.roots.Acquire(ctx, id)
	defer release()

	st := root.Store.GetState()
	status := http.StatusOK
	data, err := build(ctx, st)
	if err != nil {
		data, status = s.pages.Error(st, err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("page failed", "path", r.URL.Path, "error", err)
		} else {
			s.logger.Debug("page failed", "path", r.URL.Path, "status", status, "error", err)
		}
	}
	s.writePage(w, st, data, status)
}

func (s *Server) writePage(w http.ResponseWriter, st store.State, data render.PageData, status int) {
	data.Live = true
	data.Boot = map[string]any{"revision": st.Revision}

	var buf bytes.Buffer
	if err := s.renderer.RenderPage(&buf, data); err != nil {
		s.logger.Error("render page", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	// Pages carry session state.
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, s.pages.Home)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageNum, err := strconv.Atoi(q.Get("page"))
	if err != nil || pageNum < 1 {
		pageNum = 1
	}
	query := q.Get("q")
	s.servePage(w, r, func(ctx context.Context, st store.State) (render.PageData, error) {
		return s.pages.Search(ctx, query, pageNum, st)
	})
}

func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	spec := chi.URLParam(r, "*")
	if spec == "" {
		s.handleNotFound(w, r)
		return
	}
	s.servePage(w, r, func(ctx context.Context, st store.State) (render.PageData, error) {
		return s.pages.Package(ctx, spec, st)
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	id := s.session.ensureSession(w, r)
	root, release := s.roots.Acquire(r.Context(), id)
	defer release()
	st := root.Store.GetState()
	s.writePage(w, st, s.pages.NotFound(st, r.URL.Path), http.StatusNotFound)
}

// DefaultAssets returns a manifest holding the island runtime.
func DefaultAssets() *assets.Manifest {
	m := assets.NewManifest()
	m.Add("islands.js", "application/javascript; charset=utf-8", clientdist.IslandsJS)
	return m
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"roots":  s.roots.Len(),
	})
}

// writeError writes err as a plain response with its status.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.FromError(err, "J401")
	status := appErr.Status()
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	message := appErr.Message
	if appErr.Detail != "" {
		message += ": " + appErr.Detail
	}
	http.Error(w, message, status)
}

func (s *Server) recordLiveError(err error) {
	if s.metrics != nil {
		s.metrics.RecordLiveError(err)
	}
}
