package islands

import (
	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

// ActionPath is the form action prefix for the no-script fallback.
const ActionPath = "/actions/"

// legacyAttrs is implemented by islands that also emit the plain data
// attributes older clients read.
type legacyAttrs interface {
	LegacyAttrs() []vdom.Attr
}

// Static renders an island's anchor for the server-rendered page: the
// custom element with data-island, the versioned data-props payload and
// the island's content for s. props is the island's props DTO, or nil.
func Static(island Island, props any, s store.State) *vdom.VNode {
	encoded := ""
	if props != nil {
		encoded = encodeProps(props)
	}

	var content *vdom.VNode
	if err := island.Init(Props{"props": encoded}); err == nil {
		content = island.Render(s)
	}

	args := []any{vdom.Data("island", island.Tag())}
	if encoded != "" {
		args = append(args, vdom.Data("props", encoded))
	}
	if la, ok := island.(legacyAttrs); ok {
		args = append(args, la.LegacyAttrs())
	}
	args = append(args, content)
	return vdom.CustomElement(island.Tag(), args...)
}

// actionForm renders a control that posts action name to the island. The
// island runtime intercepts the submit and sends it over the live channel.
func actionForm(tag, props, name, value string, button ...any) *vdom.VNode {
	btn := append([]any{
		vdom.Type("submit"),
		vdom.Data("action", name),
		vdom.AttrIf(value != "", vdom.Data("value", value)),
	}, button...)

	return vdom.Form(
		vdom.Method("post"),
		vdom.Action(ActionPath+tag+"/"+name),
		vdom.Class("island-action"),
		vdom.If(value != "", vdom.Input(vdom.Type("hidden"), vdom.Name("value"), vdom.Value(value))),
		vdom.If(props != "", vdom.Input(vdom.Type("hidden"), vdom.Name("props"), vdom.Value(props))),
		vdom.Button(btn...),
	)
}
