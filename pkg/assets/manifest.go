// Package assets serves the site's embedded static files under
// content-fingerprinted names.
//
// A Manifest maps source names to fingerprinted names:
//
//	m := assets.NewManifest()
//	m.Add("islands.js", "application/javascript; charset=utf-8", clientdist.IslandsJS)
//	m.Resolve("islands.js") // "islands.3f2a9c1b.js"
//
// Pages link the fingerprinted name, which is cached forever; the source
// name stays reachable and revalidates.
package assets

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"
)

// fingerprintLen is the number of hex digits of the content hash kept in
// a fingerprinted name.
const fingerprintLen = 8

// Asset is one embedded file.
type Asset struct {
	Source      string
	Name        string
	ContentType string
	ETag        string
	Data        []byte
}

// Manifest holds the embedded assets by source and fingerprinted name.
// It is safe for concurrent use.
type Manifest struct {
	mu      sync.RWMutex
	sources map[string]*Asset
	names   map[string]*Asset
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		sources: make(map[string]*Asset),
		names:   make(map[string]*Asset),
	}
}

// Fingerprint returns name with a content hash inserted before its
// extension: "islands.js" becomes "islands.3f2a9c1b.js".
func Fingerprint(name string, data []byte) string {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])[:fingerprintLen]
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "." + digest + ext
}

// Add registers data under source and returns its fingerprinted name.
// Adding a source again replaces the previous content.
func (m *Manifest) Add(source, contentType string, data []byte) string {
	name := Fingerprint(source, data)
	sum := sha256.Sum256(data)
	a := &Asset{
		Source:      source,
		Name:        name,
		ContentType: contentType,
		ETag:        `"` + hex.EncodeToString(sum[:16]) + `"`,
		Data:        data,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sources[source]; ok {
		delete(m.names, old.Name)
	}
	m.sources[source] = a
	m.names[name] = a
	return name
}

// Resolve returns the fingerprinted name for source, or source unchanged
// when it is not registered.
func (m *Manifest) Resolve(source string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if a, ok := m.sources[source]; ok {
		return a.Name
	}
	return source
}

// Has reports whether source is registered.
func (m *Manifest) Has(source string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.sources[source]
	return ok
}

// Len returns the number of registered assets.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sources)
}

// All returns a copy of the source to fingerprinted name mapping.
func (m *Manifest) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string, len(m.sources))
	for k, a := range m.sources {
		result[k] = a.Name
	}
	return result
}

// Lookup finds an asset by fingerprinted name, then by source name. The
// second result reports whether the fingerprinted name matched.
func (m *Manifest) Lookup(name string) (a *Asset, fingerprinted bool, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if a, ok := m.names[name]; ok {
		return a, true, true
	}
	if a, ok := m.sources[name]; ok {
		return a, false, true
	}
	return nil, false, false
}

// Handler serves the assets under prefix. Fingerprinted names are cached
// as immutable; source names must revalidate against the ETag.
func (m *Manifest) Handler(prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, prefix)
		a, fingerprinted, ok := m.Lookup(name)
		if !ok {
			http.NotFound(w, r)
			return
		}

		h := w.Header()
		h.Set("Content-Type", a.ContentType)
		h.Set("ETag", a.ETag)
		if fingerprinted {
			h.Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			h.Set("Cache-Control", "no-cache")
		}
		http.ServeContent(w, r, a.Name, time.Time{}, bytes.NewReader(a.Data))
	})
}
