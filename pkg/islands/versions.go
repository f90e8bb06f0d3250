package islands

import (
	"errors"
	"net/url"

	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

// TagVersionSelector marks the version picker on a package page.
const TagVersionSelector = "version-selector"

// VersionSelector shows the current version and, when open, links to the
// other published versions.
type VersionSelector struct {
	props VersionsProps
}

func (*VersionSelector) Tag() string { return TagVersionSelector }

func (v *VersionSelector) Init(props Props) error {
	var dto VersionsProps
	if !decodeProps(props, &dto) {
		versions, err := decodeList(props, "versions")
		if err != nil {
			return err
		}
		dto = VersionsProps{V: PropsVersion, Name: props["name"], Version: props["version"], Versions: versions}
	}
	if dto.Name == "" {
		return errors.New("version-selector: missing name")
	}
	v.props = dto
	return nil
}

// PackagePath returns the page path for name@version.
func PackagePath(name, version string) string {
	p := "/package/" + (&url.URL{Path: name}).EscapedPath()
	if version != "" {
		p += "@" + url.PathEscape(version)
	}
	return p
}

func (v *VersionSelector) Render(s store.State) *vdom.VNode {
	current := v.props.Version
	toggle := actionForm(TagVersionSelector, "", "toggle", "",
		vdom.Class("version-current"),
		vdom.AriaExpanded(s.OpenVersionSelector),
		vdom.Textf("v%s", current),
	)
	if !s.OpenVersionSelector {
		return vdom.Div(vdom.Class("version-selector"), toggle)
	}

	return vdom.Div(vdom.Class("version-selector", "open"),
		toggle,
		vdom.Ul(vdom.Class("versions"), vdom.Role("listbox"),
			vdom.Range(v.props.Versions, func(ver string, _ int) *vdom.VNode {
				return vdom.Li(vdom.Key(ver), vdom.AttrIf(ver == current, vdom.Class("current")),
					vdom.A(vdom.Href(PackagePath(v.props.Name, ver)), ver),
				)
			}),
		),
	)
}

func (*VersionSelector) Changed(prev, next store.State) bool {
	return prev.OpenVersionSelector != next.OpenVersionSelector
}

func (*VersionSelector) Handle(a Action, s store.State) (store.State, bool) {
	switch a.Name {
	case "toggle":
		return store.SetVersionSelectorOpen(s, !s.OpenVersionSelector), true
	case "close":
		return store.SetVersionSelectorOpen(s, false), true
	}
	return s, false
}
