package npm

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

func canonical(v string) string {
	return "v" + strings.TrimPrefix(v, "v")
}

// CompareVersions orders two registry versions by semver precedence.
// Invalid versions sort below valid ones.
func CompareVersions(a, b string) int {
	ca, cb := canonical(a), canonical(b)
	va, vb := semver.IsValid(ca), semver.IsValid(cb)
	switch {
	case va && vb:
		if c := semver.Compare(ca, cb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case va:
		return 1
	case vb:
		return -1
	}
	return strings.Compare(a, b)
}

// SortedVersions returns the published versions, newest first.
func (p *Packument) SortedVersions() []string {
	out := make([]string, 0, len(p.Versions))
	for v := range p.Versions {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return CompareVersions(out[i], out[j]) > 0
	})
	return out
}

// StableVersions returns SortedVersions without prereleases.
func (p *Packument) StableVersions() []string {
	all := p.SortedVersions()
	out := all[:0]
	for _, v := range all {
		if semver.Prerelease(canonical(v)) == "" {
			out = append(out, v)
		}
	}
	return out
}

// ResolveVersion maps a version, dist-tag or partial version ("18",
// "18.2") to a published version. An empty request resolves to latest.
func (p *Packument) ResolveVersion(request string) (string, error) {
	if request == "" {
		request = "latest"
	}
	if v, ok := p.DistTags[request]; ok {
		if _, ok := p.Versions[v]; ok {
			return v, nil
		}
	}
	if _, ok := p.Versions[request]; ok {
		return request, nil
	}

	prefix := strings.TrimPrefix(request, "v") + "."
	for _, v := range p.StableVersions() {
		if strings.HasPrefix(v, prefix) {
			return v, nil
		}
	}

	if request == "latest" {
		if sorted := p.SortedVersions(); len(sorted) > 0 {
			return sorted[0], nil
		}
	}
	return "", &NotFoundError{Name: p.Name, Version: request}
}

// Manifest returns the manifest for a resolved version request.
func (p *Packument) Manifest(request string) (*Manifest, error) {
	v, err := p.ResolveVersion(request)
	if err != nil {
		return nil, err
	}
	m := p.Versions[v]
	if m.Name == "" {
		m.Name = p.Name
	}
	if m.Version == "" {
		m.Version = v
	}
	if m.Readme == "" && v == p.Latest() {
		m.Readme = p.Readme
	}
	return &m, nil
}
