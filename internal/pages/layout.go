package pages

import (
	"github.com/jspm/jspm-packages/pkg/islands"
	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

// layout wraps content with the site header, the import map dialog and
// the footer.
func (p *Pages) layout(s store.State, query string, content ...any) *vdom.VNode {
	return vdom.Fragment(
		vdom.Header(vdom.Class("site-header"),
			vdom.A(vdom.Class("logo"), vdom.Href("/"), SiteName),
			searchForm(query),
			vdom.Nav(p.anchor(islands.TagImportmapToggle, nil, s)),
		),
		vdom.Main(vdom.ID("main"), vdom.Fragment(content...)),
		p.anchor(islands.TagImportmapDialog, nil, s),
		vdom.Footer(vdom.Class("site-footer"),
			vdom.P(
				"Packages from the ",
				vdom.A(vdom.Href("https://www.npmjs.com"), "NPM registry"),
				", served by ",
				vdom.A(vdom.Href("https://jspm.org"), "JSPM"),
				".",
			),
		),
	)
}

func searchForm(query string) *vdom.VNode {
	return vdom.Form(
		vdom.Class("search"),
		vdom.Method("get"),
		vdom.Action("/search"),
		vdom.Role("search"),
		vdom.Input(
			vdom.Type("search"),
			vdom.Name("q"),
			vdom.Value(query),
			vdom.Placeholder("Search packages"),
			vdom.AriaLabel("Search packages"),
		),
		vdom.Button(vdom.Type("submit"), "Search"),
	)
}

const styles = `
:root{font-family:system-ui,sans-serif;color:#222}
body{margin:0}
.site-header{display:flex;gap:1rem;align-items:center;padding:.75rem 1.5rem;border-bottom:1px solid #ddd}
.site-header .logo{font-weight:700;text-decoration:none;color:inherit}
.site-header .search{flex:1;display:flex;gap:.5rem}
.site-header .search input{flex:1;padding:.4rem}
main{max-width:64rem;margin:0 auto;padding:1.5rem}
.island-action{display:inline}
.package-list{list-style:none;padding:0}
.package-list li{padding:.75rem 0;border-bottom:1px solid #eee}
.exports li{display:flex;gap:.5rem;align-items:center}
.importmap-dialog[open]{position:fixed;top:4rem;right:1.5rem;min-width:24rem}
.generator-link.pending{opacity:.6}
.readme{margin-top:2rem;border-top:1px solid #eee}
.site-footer{padding:1.5rem;color:#666;text-align:center}
`
