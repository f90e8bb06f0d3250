package islands

import (
	"strings"

	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

// TagGeneratorLink marks the link to the import map generator.
const TagGeneratorLink = "generator-link"

// DefaultGeneratorURL is the public import map generator.
const DefaultGeneratorURL = "https://generator.jspm.io"

// GeneratorURL returns the generator link for hash.
func GeneratorURL(base, hash string) string {
	return strings.TrimRight(base, "/") + "/#" + hash
}

// generatorLink renders the link for s, or a placeholder while the hash is
// being computed.
func generatorLink(base string, s store.State) *vdom.VNode {
	switch {
	case len(s.SelectedDeps) == 0:
		return vdom.Span(vdom.Class("generator-link", "disabled"), "Select exports to build an import map")
	case s.GeneratorHash == "":
		return vdom.Span(vdom.Class("generator-link", "pending"), vdom.AriaLive("polite"), "computing…")
	default:
		return vdom.A(
			vdom.Class("generator-link"),
			vdom.Href(GeneratorURL(base, s.GeneratorHash)),
			vdom.Target("_blank"),
			vdom.Rel("noopener"),
			"Open in Generator",
		)
	}
}

// GeneratorLink links the current selection to the generator.
type GeneratorLink struct {
	Base string
}

func (*GeneratorLink) Tag() string { return TagGeneratorLink }

func (*GeneratorLink) Init(Props) error { return nil }

func (g *GeneratorLink) Render(s store.State) *vdom.VNode {
	return generatorLink(g.Base, s)
}

func (*GeneratorLink) Changed(prev, next store.State) bool {
	return prev.GeneratorHash != next.GeneratorHash ||
		(len(prev.SelectedDeps) == 0) != (len(next.SelectedDeps) == 0)
}

func (*GeneratorLink) Handle(a Action, s store.State) (store.State, bool) {
	return s, false
}
