package pages

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jspm/jspm-packages/internal/npm"
	"github.com/jspm/jspm-packages/pkg/islands"
	"github.com/jspm/jspm-packages/pkg/render"
	"github.com/jspm/jspm-packages/pkg/store"
)

type fakeRegistry struct {
	mu        sync.Mutex
	packages  map[string]*npm.Packument
	search    *npm.SearchResult
	searchErr error
	lastFrom  int
	lastSize  int
	delay     time.Duration
	inflight  atomic.Int32
	peak      atomic.Int32
}

func (f *fakeRegistry) Packument(ctx context.Context, name string) (*npm.Packument, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.packages[name]
	if !ok {
		return nil, &npm.NotFoundError{Name: name}
	}
	return p, nil
}

func (f *fakeRegistry) Search(ctx context.Context, query string, from, size int) (*npm.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFrom, f.lastSize = from, size
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.search, nil
}

func packument(name, version, description string) *npm.Packument {
	return &npm.Packument{
		Name:        name,
		Description: description,
		DistTags:    map[string]string{"latest": version},
		Versions: map[string]npm.Manifest{
			version: {Name: name, Version: version, Main: "index.js", License: "MIT"},
			"0.1.0": {Name: name, Version: "0.1.0"},
		},
		Time: map[string]string{version: "2024-03-01T10:00:00.000Z"},
	}
}

func newTestPages(reg *fakeRegistry, featured ...string) *Pages {
	return New(reg, islands.NewCatalog(islands.Config{}), nil, Config{Featured: featured, PageSize: 10})
}

func html(t *testing.T, data render.PageData) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, render.NewRenderer(render.RendererConfig{}).RenderPage(&b, data))
	return b.String()
}

func TestHomeFeaturedKeepsOrder(t *testing.T) {
	reg := &fakeRegistry{
		delay: 10 * time.Millisecond,
		packages: map[string]*npm.Packument{
			"react": packument("react", "18.2.0", "UI library"),
			"lit":   packument("lit", "3.1.0", "Web components"),
			"vue":   packument("vue", "3.4.0", "Progressive framework"),
		},
	}
	p := newTestPages(reg, "vue", "missing", "react", "lit")

	featured, err := p.Featured(context.Background())
	require.NoError(t, err)
	require.Len(t, featured, 3)
	assert.Equal(t, "vue", featured[0].Name)
	assert.Equal(t, "react", featured[1].Name)
	assert.Equal(t, "lit", featured[2].Name)
	assert.Greater(t, reg.peak.Load(), int32(1), "featured packages load concurrently")

	data, err := p.Home(context.Background(), store.Default())
	require.NoError(t, err)
	out := html(t, data)
	assert.Contains(t, out, `href="/package/react@18.2.0"`)
	assert.Contains(t, out, "Progressive framework")
	assert.Contains(t, out, `data-island="importmap-toggle"`)
	assert.Contains(t, out, `data-island="importmap-dialog"`)
}

func TestHomeCanceled(t *testing.T) {
	reg := &fakeRegistry{packages: map[string]*npm.Packument{}}
	p := newTestPages(reg, "react")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Home(ctx, store.Default())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchPaging(t *testing.T) {
	reg := &fakeRegistry{search: &npm.SearchResult{
		Total: 35,
		Objects: []npm.SearchObject{
			{Package: npm.SearchPackage{Name: "react-dom", Version: "18.2.0", Description: "DOM renderer"}},
		},
	}}
	p := newTestPages(reg)

	data, err := p.Search(context.Background(), " react ", 2, store.Default())
	require.NoError(t, err)
	assert.Equal(t, 10, reg.lastFrom)
	assert.Equal(t, 10, reg.lastSize)

	out := html(t, data)
	assert.Contains(t, out, "35 packages found")
	assert.Contains(t, out, "Page 2 of 4")
	assert.Contains(t, out, `href="/search?q=react"`)
	assert.Contains(t, out, `href="/search?page=3&amp;q=react"`)
	assert.Contains(t, out, `value="react"`)
}

func TestSearchEmptyQuery(t *testing.T) {
	reg := &fakeRegistry{searchErr: errors.New("must not be called")}
	data, err := newTestPages(reg).Search(context.Background(), "  ", 1, store.Default())
	require.NoError(t, err)
	assert.Contains(t, html(t, data), "Enter a package name")
}

func TestPackagePage(t *testing.T) {
	pkg := packument("lit", "3.1.0", "Web components")
	m := pkg.Versions["3.1.0"]
	m.Exports = []byte(`{".": "./index.js", "./decorators.js": "./decorators.js"}`)
	m.Readme = "# Lit\n\n<script>alert(1)</script>"
	pkg.Versions["3.1.0"] = m

	reg := &fakeRegistry{packages: map[string]*npm.Packument{"lit": pkg}}
	p := newTestPages(reg)

	s := store.ToggleExport(store.Default(), "lit@3.1.0/decorators.js")
	data, err := p.Package(context.Background(), "lit@3.1.0", s)
	require.NoError(t, err)
	assert.Equal(t, "lit@3.1.0 - JSPM Packages", data.Title)

	out := html(t, data)
	assert.Contains(t, out, "<h1>lit</h1>")
	assert.Contains(t, out, "pkg:npm/lit@3.1.0")
	assert.Contains(t, out, `data-island="package-exports"`)
	assert.Contains(t, out, `data-island="version-selector"`)
	assert.Contains(t, out, `data-island="generator-link"`)
	assert.Contains(t, out, `data-island="sandbox-link"`)
	assert.Contains(t, out, `data-name="lit"`)
	assert.Contains(t, out, "2024-03-01")
	assert.Contains(t, out, `<h1 id="lit">Lit</h1>`)
	assert.NotContains(t, out, "alert(1)")
}

func TestPackageDefaultsToLatest(t *testing.T) {
	reg := &fakeRegistry{packages: map[string]*npm.Packument{"react": packument("react", "18.2.0", "")}}
	view, err := newTestPages(reg).LoadPackage(context.Background(), "react")
	require.NoError(t, err)
	assert.Equal(t, "18.2.0", view.Version)
	assert.Equal(t, []string{"18.2.0", "0.1.0"}, view.Versions)
	assert.Equal(t, []string{"."}, view.Exports)
}

func TestPackageErrors(t *testing.T) {
	reg := &fakeRegistry{packages: map[string]*npm.Packument{"react": packument("react", "18.2.0", "")}}
	p := newTestPages(reg)

	tests := []struct {
		spec   string
		status int
	}{
		{"nope", http.StatusNotFound},
		{"react@99", http.StatusNotFound},
		{"../x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		_, err := p.Package(context.Background(), tt.spec, store.Default())
		require.Error(t, err, tt.spec)

		data, status := p.Error(store.Default(), err)
		assert.Equal(t, tt.status, status, tt.spec)
		assert.NotEmpty(t, data.Title)
	}
}

func TestErrorPageStatuses(t *testing.T) {
	p := newTestPages(&fakeRegistry{})

	_, status := p.Error(store.Default(), fmt.Errorf("fetch: %w", npm.ErrUpstreamDown))
	assert.Equal(t, http.StatusBadGateway, status)

	data, status := p.Error(store.Default(), errors.New("kaboom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, html(t, data), "kaboom")
}

func TestNotFoundPage(t *testing.T) {
	out := html(t, newTestPages(&fakeRegistry{}).NotFound(store.Default(), "/nowhere"))
	assert.Contains(t, out, "Page not found")
	assert.Contains(t, out, "<code>/nowhere</code>")
}
