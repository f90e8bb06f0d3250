package islands

import (
	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

// TagImportmapToggle marks the header button that opens the import map dialog.
const TagImportmapToggle = "importmap-toggle"

// ImportmapToggle shows how many exports are selected and opens the dialog.
type ImportmapToggle struct{}

func (*ImportmapToggle) Tag() string { return TagImportmapToggle }

func (*ImportmapToggle) Init(Props) error { return nil }

func (*ImportmapToggle) Render(s store.State) *vdom.VNode {
	n := len(s.SelectedDeps)
	return actionForm(TagImportmapToggle, "", "toggle", "",
		vdom.Class("importmap-toggle"),
		vdom.AttrIf(n == 0, vdom.Class("empty")),
		vdom.AriaExpanded(s.OpenImportmapDialog),
		vdom.AriaLabel("Toggle import map"),
		vdom.Text("Import map "),
		vdom.Span(vdom.Class("count"), vdom.Textf("%d", n)),
	)
}

func (*ImportmapToggle) Changed(prev, next store.State) bool {
	return len(prev.SelectedDeps) != len(next.SelectedDeps) ||
		prev.OpenImportmapDialog != next.OpenImportmapDialog
}

func (*ImportmapToggle) Handle(a Action, s store.State) (store.State, bool) {
	switch a.Name {
	case "toggle":
		return store.SetDialogOpen(s, !s.OpenImportmapDialog), true
	case "open":
		return store.SetDialogOpen(s, true), true
	}
	return s, false
}
