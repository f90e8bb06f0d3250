package npm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	valid := []string{"react", "lodash.merge", "@babel/core", "@types/node", "JSONStream", "left-pad"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), name)
	}

	invalid := []string{"", " react", ".hidden", "_private", "@scope", "@/name", "@scope/", "a/b", "no spaces", "../x"}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateName(name), ErrInvalidName, name)
	}
}

func TestSplitSpec(t *testing.T) {
	tests := []struct {
		spec, name, version string
	}{
		{"react", "react", ""},
		{"react@18.2.0", "react", "18.2.0"},
		{"@babel/core", "@babel/core", ""},
		{"@babel/core@7.0.0", "@babel/core", "7.0.0"},
		{"/lit@next/", "lit", "next"},
	}
	for _, tt := range tests {
		name, version := SplitSpec(tt.spec)
		assert.Equal(t, tt.name, name, tt.spec)
		assert.Equal(t, tt.version, version, tt.spec)
	}
}

func TestSortedVersions(t *testing.T) {
	p := &Packument{Versions: map[string]Manifest{
		"1.0.0": {}, "1.10.0": {}, "1.2.0": {}, "2.0.0-beta.1": {}, "2.0.0": {}, "garbage": {},
	}}
	assert.Equal(t, []string{"2.0.0", "2.0.0-beta.1", "1.10.0", "1.2.0", "1.0.0", "garbage"}, p.SortedVersions())
	assert.Equal(t, []string{"2.0.0", "1.10.0", "1.2.0", "1.0.0", "garbage"}, p.StableVersions())
}

func TestResolveVersion(t *testing.T) {
	p := &Packument{
		Name:     "pkg",
		DistTags: map[string]string{"latest": "1.10.0", "beta": "2.0.0-beta.1"},
		Versions: map[string]Manifest{
			"1.0.0": {}, "1.10.0": {}, "1.2.0": {}, "2.0.0-beta.1": {}, "0.9.1": {},
		},
	}
	tests := []struct {
		request, want string
	}{
		{"", "1.10.0"},
		{"latest", "1.10.0"},
		{"beta", "2.0.0-beta.1"},
		{"1.2.0", "1.2.0"},
		{"1", "1.10.0"},
		{"0.9", "0.9.1"},
		{"v1.2", "1.2.0"},
	}
	for _, tt := range tests {
		got, err := p.ResolveVersion(tt.request)
		require.NoError(t, err, tt.request)
		assert.Equal(t, tt.want, got, tt.request)
	}

	_, err := p.ResolveVersion("3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveLatestWithoutTag(t *testing.T) {
	p := &Packument{Versions: map[string]Manifest{"0.1.0": {}, "0.2.0": {}}}
	v, err := p.ResolveVersion("")
	require.NoError(t, err)
	assert.Equal(t, "0.2.0", v)
}

func TestExports(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		want     []string
	}{
		{"none", Manifest{}, nil},
		{"main only", Manifest{Main: "index.js"}, []string{"."}},
		{"module only", Manifest{Module: "index.mjs"}, []string{"."}},
		{"string", Manifest{Exports: json.RawMessage(`"./index.js"`)}, []string{"."}},
		{"array", Manifest{Exports: json.RawMessage(`["./a.js", "./b.js"]`)}, []string{"."}},
		{"conditions", Manifest{Exports: json.RawMessage(`{"import": "./a.mjs", "require": "./a.cjs"}`)}, []string{"."}},
		{"subpaths", Manifest{Exports: json.RawMessage(`{
			"./utils": "./utils.js",
			".": {"browser": {"import": "./b.mjs"}, "default": "./i.js"},
			"./internal/*": null,
			"./features/*": "./src/features/*.js",
			"./empty": {"node": null}
		}`)}, []string{".", "./features/*", "./utils"}},
		{"null exports with main", Manifest{Main: "x.js", Exports: json.RawMessage(`null`)}, []string{"."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Exports(&tt.manifest))
		})
	}
}

func TestManifestHelpers(t *testing.T) {
	m := Manifest{
		License:    []any{"MIT", map[string]any{"type": "Apache-2.0"}},
		Homepage:   "https://lit.dev",
		Repository: "github:lit/lit",
		Keywords:   []any{"web-components", "", "lit"},
	}
	assert.Equal(t, "MIT OR Apache-2.0", m.LicenseName())
	assert.Equal(t, "https://lit.dev", m.HomepageURL())
	assert.Equal(t, "https://github.com/lit/lit", m.RepositoryURL())
	assert.Equal(t, []string{"web-components", "lit"}, m.KeywordList())

	assert.Equal(t, "ISC", (&Manifest{License: map[string]any{"type": "ISC"}}).LicenseName())
	assert.Equal(t, []string{"a", "b"}, (&Manifest{Keywords: "a, b"}).KeywordList())
}

func TestPURL(t *testing.T) {
	assert.Equal(t, "pkg:npm/react@18.2.0", PURL("react", "18.2.0"))
	assert.Equal(t, "pkg:npm/lodash", PURL("lodash", ""))

	scoped := PURL("@babel/core", "7.0.0")
	name, version, err := ParsePURL(scoped)
	require.NoError(t, err)
	assert.Equal(t, "@babel/core", name)
	assert.Equal(t, "7.0.0", version)

	_, _, err = ParsePURL("pkg:cargo/serde@1.0.0")
	assert.ErrorIs(t, err, ErrInvalidName)
}
