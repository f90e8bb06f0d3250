package pages

import (
	"context"
	"strings"

	"github.com/jspm/jspm-packages/internal/npm"
	"github.com/jspm/jspm-packages/pkg/islands"
	"github.com/jspm/jspm-packages/pkg/render"
	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

// PackageView is the data shown on a package page.
type PackageView struct {
	Name        string
	Version     string
	Latest      string
	Description string
	License     string
	PURL        string
	Published   string
	Homepage    string
	Repository  string
	Keywords    []string
	Exports     []string
	Versions    []string
	ReadmeHTML  string
}

// LoadPackage fetches and resolves spec ("name" or "name@version").
func (p *Pages) LoadPackage(ctx context.Context, spec string) (*PackageView, error) {
	name, version := npm.SplitSpec(spec)
	if err := npm.ValidateName(name); err != nil {
		return nil, err
	}

	pkg, err := p.registry.Packument(ctx, name)
	if err != nil {
		return nil, err
	}
	m, err := pkg.Manifest(version)
	if err != nil {
		return nil, err
	}

	readme, err := p.markdown.Render([]byte(m.Readme))
	if err != nil {
		p.logger.Warn("readme render failed", "package", name, "version", m.Version, "error", err)
	}

	versions := pkg.SortedVersions()
	if len(versions) > p.cfg.MaxVersions {
		versions = versions[:p.cfg.MaxVersions]
	}

	view := &PackageView{
		Name:        pkg.Name,
		Version:     m.Version,
		Latest:      pkg.Latest(),
		Description: firstNonEmpty(m.Description, pkg.Description),
		License:     m.LicenseName(),
		PURL:        npm.PURL(pkg.Name, m.Version),
		Homepage:    m.HomepageURL(),
		Repository:  m.RepositoryURL(),
		Keywords:    m.KeywordList(),
		Exports:     npm.Exports(m),
		Versions:    versions,
		ReadmeHTML:  readme,
	}
	if t := pkg.PublishedAt(m.Version); !t.IsZero() {
		view.Published = t.UTC().Format("2006-01-02")
	}
	return view, nil
}

// Package renders the page for spec ("name" or "name@version").
func (p *Pages) Package(ctx context.Context, spec string, s store.State) (render.PageData, error) {
	view, err := p.LoadPackage(ctx, spec)
	if err != nil {
		return render.PageData{}, err
	}
	return p.PackagePage(view, s), nil
}

// PackagePage renders a loaded package view.
func (p *Pages) PackagePage(v *PackageView, s store.State) render.PageData {
	var sandbox any
	if len(v.Exports) > 0 {
		sandbox = p.anchor(islands.TagSandboxLink, islands.SandboxProps{
			V:    islands.PropsVersion,
			ID:   v.Name + "@" + v.Version,
			Deps: []string{islands.DependencyKey(v.Name, v.Version, v.Exports[0])},
		}, s)
	}

	body := p.layout(s, "",
		vdom.Article(vdom.Class("package"),
			vdom.Header(vdom.Class("package-header"),
				vdom.H1(v.Name),
				p.anchor(islands.TagVersionSelector, islands.VersionsProps{
					V:        islands.PropsVersion,
					Name:     v.Name,
					Version:  v.Version,
					Versions: v.Versions,
				}, s),
				vdom.If(v.Latest != "" && v.Latest != v.Version,
					vdom.A(vdom.Class("latest"), vdom.Href(islands.PackagePath(v.Name, v.Latest)), "latest: "+v.Latest)),
				vdom.If(v.Description != "", vdom.P(vdom.Class("description"), v.Description)),
			),
			metadata(v),
			vdom.Section(vdom.Class("exports"),
				vdom.H2("Exports"),
				vdom.If(len(v.Exports) == 0, vdom.P(vdom.Class("empty"), "This package declares no exports.")),
				vdom.If(len(v.Exports) > 0, toNode(p.anchor(islands.TagPackageExports, islands.ExportsProps{
					V:       islands.PropsVersion,
					Name:    v.Name,
					Version: v.Version,
					Exports: v.Exports,
				}, s))),
				vdom.Div(vdom.Class("links"),
					p.anchor(islands.TagGeneratorLink, nil, s),
					sandbox,
				),
			),
			vdom.If(v.ReadmeHTML != "", vdom.Section(vdom.Class("readme"), vdom.Raw(v.ReadmeHTML))),
		),
	)

	data := page(v.Name+"@"+v.Version, body)
	if v.Description != "" {
		data.Meta = append(data.Meta,
			render.MetaTag{Property: "og:title", Content: v.Name},
			render.MetaTag{Property: "og:description", Content: v.Description},
		)
	}
	return data
}

func metadata(v *PackageView) *vdom.VNode {
	row := func(label string, value any) *vdom.VNode {
		return vdom.Fragment(vdom.Dt(label), vdom.Dd(value))
	}
	link := func(href string) *vdom.VNode {
		return vdom.A(vdom.Href(href), vdom.Rel("noopener"), strings.TrimPrefix(strings.TrimPrefix(href, "https://"), "http://"))
	}

	return vdom.Dl(vdom.Class("metadata"),
		vdom.If(v.License != "", row("License", v.License)),
		vdom.If(v.Published != "", row("Published", vdom.Time_(vdom.Datetime(v.Published), v.Published))),
		row("Package URL", vdom.Code(v.PURL)),
		vdom.If(v.Homepage != "", row("Homepage", link(v.Homepage))),
		vdom.If(v.Repository != "" && strings.HasPrefix(v.Repository, "http"), row("Repository", link(v.Repository))),
		vdom.If(len(v.Keywords) > 0, row("Keywords", keywordList(v.Keywords))),
	)
}

func toNode(v any) *vdom.VNode {
	n, _ := v.(*vdom.VNode)
	return n
}
