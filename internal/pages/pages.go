// Package pages builds the server-rendered pages of the site. Each page
// returns render.PageData; the web layer adds the session binding and
// writes the document.
package pages

import (
	"context"
	"errors"
	"log/slog"

	apperrors "github.com/jspm/jspm-packages/internal/errors"
	"github.com/jspm/jspm-packages/internal/markdown"
	"github.com/jspm/jspm-packages/internal/npm"
	"github.com/jspm/jspm-packages/pkg/islands"
	"github.com/jspm/jspm-packages/pkg/render"
	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

// SiteName is used in titles and the header.
const SiteName = "JSPM Packages"

// Registry is the subset of the npm client the pages read from.
type Registry interface {
	Packument(ctx context.Context, name string) (*npm.Packument, error)
	Search(ctx context.Context, query string, from, size int) (*npm.SearchResult, error)
}

// Config configures page content.
type Config struct {
	// Featured lists the packages shown on the home page.
	Featured []string

	// PageSize is the number of search results per page.
	PageSize int

	// MaxVersions caps the versions listed by the version selector.
	MaxVersions int

	// Parallelism caps concurrent registry requests for one page.
	Parallelism int
}

// Pages renders the site pages.
type Pages struct {
	registry Registry
	catalog  *islands.Catalog
	markdown *markdown.Renderer
	cfg      Config
	logger   *slog.Logger
}

// Option configures Pages.
type Option func(*Pages)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pages) {
		p.logger = l
	}
}

// New creates the page builder.
func New(reg Registry, catalog *islands.Catalog, md *markdown.Renderer, cfg Config, opts ...Option) *Pages {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.MaxVersions <= 0 {
		cfg.MaxVersions = 100
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	if md == nil {
		md = markdown.New()
	}
	p := &Pages{
		registry: reg,
		catalog:  catalog,
		markdown: md,
		cfg:      cfg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Catalog returns the island catalog pages render anchors from.
func (p *Pages) Catalog() *islands.Catalog {
	return p.catalog
}

// anchor renders the server-side anchor for tag.
func (p *Pages) anchor(tag string, props any, s store.State) any {
	island, ok := p.catalog.New(tag)
	if !ok {
		return nil
	}
	return islands.Static(island, props, s)
}

func page(title string, body *vdom.VNode) render.PageData {
	if title == "" {
		title = SiteName
	} else {
		title = title + " - " + SiteName
	}
	return render.PageData{
		Title:  title,
		Body:   body,
		Styles: []string{styles},
		Meta: []render.MetaTag{
			{Name: "description", Content: "Browse NPM packages and build import maps with JSPM."},
		},
		Links: []render.LinkTag{
			{Rel: "preconnect", Href: "https://ga.jspm.io"},
		},
	}
}

// RegistryError converts an npm client error into a coded application
// error carrying the HTTP status for the error page.
func RegistryError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, npm.ErrNotFound):
		return apperrors.New("J301").Wrap(err)
	case errors.Is(err, npm.ErrInvalidName):
		return apperrors.New("J303").Wrap(err)
	case errors.Is(err, npm.ErrUpstreamDown), errors.Is(err, npm.ErrRateLimited):
		return apperrors.New("J302").Wrap(err)
	}
	var httpErr *npm.HTTPError
	if errors.As(err, &httpErr) {
		return apperrors.New("J302").Wrap(err)
	}
	return apperrors.FromError(err, "J401")
}
