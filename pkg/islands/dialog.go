package islands

import (
	"slices"

	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

// TagImportmapDialog marks the import map dialog.
const TagImportmapDialog = "importmap-dialog"

// ImportmapDialog lists the selected exports with remove buttons and the
// generator link. It renders nothing visible while closed.
type ImportmapDialog struct {
	GeneratorBase string
}

func (*ImportmapDialog) Tag() string { return TagImportmapDialog }

func (*ImportmapDialog) Init(Props) error { return nil }

func (d *ImportmapDialog) Render(s store.State) *vdom.VNode {
	if !s.OpenImportmapDialog {
		return vdom.Dialog(vdom.Class("importmap-dialog"))
	}

	var list *vdom.VNode
	if len(s.SelectedDeps) == 0 {
		list = vdom.P(vdom.Class("empty"), "No exports selected yet.")
	} else {
		list = vdom.Ul(vdom.Class("selected-deps"),
			vdom.Range(s.SelectedDeps, func(dep string, _ int) *vdom.VNode {
				return vdom.Li(vdom.Key(dep),
					vdom.Code(dep),
					actionForm(TagImportmapDialog, "", "remove", dep,
						vdom.Class("remove"), vdom.AriaLabel("Remove "+dep), "×"),
				)
			}),
		)
	}

	return vdom.Dialog(
		vdom.Class("importmap-dialog"),
		vdom.Open(),
		vdom.AriaModal(true),
		vdom.AriaLabel("Import map"),
		vdom.Header(
			vdom.H2("Import map"),
			actionForm(TagImportmapDialog, "", "close", "", vdom.Class("close"), vdom.AriaLabel("Close"), "×"),
		),
		list,
		vdom.Footer(generatorLink(d.GeneratorBase, s)),
	)
}

func (*ImportmapDialog) Changed(prev, next store.State) bool {
	if prev.OpenImportmapDialog != next.OpenImportmapDialog {
		return true
	}
	if !next.OpenImportmapDialog {
		return false
	}
	return prev.GeneratorHash != next.GeneratorHash || !slices.Equal(prev.SelectedDeps, next.SelectedDeps)
}

func (*ImportmapDialog) Handle(a Action, s store.State) (store.State, bool) {
	switch a.Name {
	case "close":
		return store.SetDialogOpen(s, false), true
	case "open":
		return store.SetDialogOpen(s, true), true
	case "remove":
		if a.Value == "" {
			return s, false
		}
		return store.RemoveExport(s, a.Value), true
	}
	return s, false
}
