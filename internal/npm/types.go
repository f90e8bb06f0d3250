package npm

import (
	"encoding/json"
	"strings"
	"time"
)

// Packument is the full registry document for a package.
type Packument struct {
	ID          string              `json:"_id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	DistTags    map[string]string   `json:"dist-tags"`
	Versions    map[string]Manifest `json:"versions"`
	Time        map[string]string   `json:"time"`
	Readme      string              `json:"readme"`
	Homepage    any                 `json:"homepage"`
	Repository  any                 `json:"repository"`
	License     any                 `json:"license"`
	Keywords    any                 `json:"keywords"`
	Maintainers []Person            `json:"maintainers"`
}

// Manifest is the document for one published version.
type Manifest struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"description"`
	Main         string            `json:"main"`
	Module       string            `json:"module"`
	Browser      any               `json:"browser"`
	Exports      json.RawMessage   `json:"exports"`
	License      any               `json:"license"`
	Homepage     any               `json:"homepage"`
	Repository   any               `json:"repository"`
	Keywords     any               `json:"keywords"`
	Dependencies map[string]string `json:"dependencies"`
	Deprecated   string            `json:"deprecated"`
	Readme       string            `json:"readme"`
	Dist         Dist              `json:"dist"`
}

// Dist describes the published tarball.
type Dist struct {
	Shasum       string `json:"shasum"`
	Tarball      string `json:"tarball"`
	Integrity    string `json:"integrity"`
	UnpackedSize int64  `json:"unpackedSize"`
}

// Person is a maintainer or author.
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Latest returns the version tagged latest, or "".
func (p *Packument) Latest() string {
	return p.DistTags["latest"]
}

// PublishedAt returns the publish time of version, or the zero time.
func (p *Packument) PublishedAt(version string) time.Time {
	t, _ := time.Parse(time.RFC3339, p.Time[version])
	return t
}

// LicenseName returns the license as a display string.
func (m *Manifest) LicenseName() string {
	return extractLicense(m.License)
}

// HomepageURL returns the homepage, if any.
func (m *Manifest) HomepageURL() string {
	return extractString(m.Homepage)
}

// RepositoryURL returns a browsable repository URL, if any.
func (m *Manifest) RepositoryURL() string {
	return extractRepoURL(m.Repository)
}

// KeywordList returns the manifest keywords.
func (m *Manifest) KeywordList() []string {
	return extractKeywords(m.Keywords)
}

func extractString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if arr, ok := v.([]any); ok && len(arr) > 0 {
		if s, ok := arr[0].(string); ok {
			return s
		}
	}
	return ""
}

func extractRepoURL(repo any) string {
	switch r := repo.(type) {
	case string:
		return normalizeGitURL(r)
	case map[string]any:
		if u, ok := r["url"].(string); ok {
			return normalizeGitURL(u)
		}
	}
	return ""
}

func normalizeGitURL(u string) string {
	u = strings.TrimPrefix(u, "git+")
	u = strings.TrimPrefix(u, "git://")
	u = strings.TrimSuffix(u, ".git")
	if strings.HasPrefix(u, "ssh://git@") {
		u = "https://" + strings.TrimPrefix(u, "ssh://git@")
	}
	if strings.HasPrefix(u, "github.com/") || strings.HasPrefix(u, "github:") {
		u = "https://github.com/" + strings.TrimPrefix(strings.TrimPrefix(u, "github.com/"), "github:")
	}
	return u
}

func extractLicense(v any) string {
	switch l := v.(type) {
	case string:
		return l
	case map[string]any:
		if t, ok := l["type"].(string); ok {
			return t
		}
	case []any:
		var licenses []string
		for _, item := range l {
			switch li := item.(type) {
			case string:
				licenses = append(licenses, li)
			case map[string]any:
				if t, ok := li["type"].(string); ok {
					licenses = append(licenses, t)
				}
			}
		}
		return strings.Join(licenses, " OR ")
	}
	return ""
}

func extractKeywords(v any) []string {
	switch k := v.(type) {
	case []any:
		out := make([]string, 0, len(k))
		for _, item := range k {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, f := range strings.FieldsFunc(k, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, f)
		}
		return out
	}
	return nil
}
