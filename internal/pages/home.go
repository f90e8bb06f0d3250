package pages

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jspm/jspm-packages/internal/npm"
	"github.com/jspm/jspm-packages/pkg/islands"
	"github.com/jspm/jspm-packages/pkg/render"
	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

// Summary is the card data for a package in a list.
type Summary struct {
	Name        string
	Version     string
	Description string
	Keywords    []string
}

// Featured fetches the featured packages concurrently. Packages that fail
// to load are logged and left out; the order of the configuration is kept.
func (p *Pages) Featured(ctx context.Context) ([]Summary, error) {
	results := make([]*Summary, len(p.cfg.Featured))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Parallelism)
	for i, name := range p.cfg.Featured {
		g.Go(func() error {
			pkg, err := p.registry.Packument(gctx, name)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.logger.Warn("featured package unavailable", "package", name, "error", err)
				return nil
			}
			m, err := pkg.Manifest("")
			if err != nil {
				p.logger.Warn("featured package has no latest version", "package", name, "error", err)
				return nil
			}
			results[i] = &Summary{
				Name:        pkg.Name,
				Version:     m.Version,
				Description: firstNonEmpty(m.Description, pkg.Description),
				Keywords:    m.KeywordList(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// Home renders the landing page with the featured packages.
func (p *Pages) Home(ctx context.Context, s store.State) (render.PageData, error) {
	featured, err := p.Featured(ctx)
	if err != nil {
		return render.PageData{}, err
	}

	body := p.layout(s, "",
		vdom.Section(vdom.Class("hero"),
			vdom.H1("Import maps for every NPM package"),
			vdom.P("Search the registry, pick the exports you need and open the import map in the JSPM Generator."),
		),
		vdom.Section(vdom.Class("featured"),
			vdom.H2("Featured packages"),
			vdom.If(len(featured) == 0, vdom.P(vdom.Class("empty"), "Featured packages are unavailable right now.")),
			packageList(featured),
		),
	)
	return page("", body), nil
}

func packageList(items []Summary) *vdom.VNode {
	if len(items) == 0 {
		return nil
	}
	return vdom.Ul(vdom.Class("package-list"),
		vdom.Range(items, func(item Summary, _ int) *vdom.VNode {
			return vdom.Li(vdom.Key(item.Name),
				vdom.A(vdom.Href(islands.PackagePath(item.Name, item.Version)), vdom.Strong(item.Name)),
				vdom.If(item.Version != "", vdom.Small(vdom.Class("version"), " "+item.Version)),
				vdom.If(item.Description != "", vdom.P(item.Description)),
				vdom.If(len(item.Keywords) > 0, keywordList(item.Keywords)),
			)
		}),
	)
}

func keywordList(keywords []string) *vdom.VNode {
	if len(keywords) > 8 {
		keywords = keywords[:8]
	}
	return vdom.Ul(vdom.Class("keywords"),
		vdom.Range(keywords, func(k string, _ int) *vdom.VNode {
			return vdom.Li(vdom.A(vdom.Href(searchPath("keywords:"+k, 1)), k))
		}),
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// summaryFrom converts a search hit.
func summaryFrom(o npm.SearchObject) Summary {
	return Summary{
		Name:        o.Package.Name,
		Version:     o.Package.Version,
		Description: o.Package.Description,
		Keywords:    o.Package.Keywords,
	}
}
