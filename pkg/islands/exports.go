package islands

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

// TagPackageExports marks the export list on a package page.
const TagPackageExports = "package-exports"

// DependencyKey joins a package, version and export subpath into the
// dependency string stored in the selection: "." maps to name@version and
// "./sub" to name@version/sub.
func DependencyKey(name, version, subpath string) string {
	return name + "@" + version + strings.TrimPrefix(subpath, ".")
}

// PackageExports renders one toggle per export subpath of a package.
type PackageExports struct {
	props ExportsProps
	raw   string
}

func (*PackageExports) Tag() string { return TagPackageExports }

// Init reads data-props, falling back to data-name, data-version and
// data-exports.
func (p *PackageExports) Init(props Props) error {
	var dto ExportsProps
	if decodeProps(props, &dto) {
		p.raw = props["props"]
	} else {
		exports, err := decodeList(props, "exports")
		if err != nil {
			return err
		}
		dto = ExportsProps{V: PropsVersion, Name: props["name"], Version: props["version"], Exports: exports}
		p.raw = encodeProps(dto)
	}
	if dto.Name == "" || dto.Version == "" {
		return errors.New("package-exports: missing name or version")
	}
	p.props = dto
	return nil
}

// LegacyAttrs returns the plain data attributes.
func (p *PackageExports) LegacyAttrs() []vdom.Attr {
	exports, _ := json.Marshal(p.props.Exports)
	return []vdom.Attr{
		vdom.Data("name", p.props.Name),
		vdom.Data("version", p.props.Version),
		vdom.Data("exports", string(exports)),
	}
}

func (p *PackageExports) dep(subpath string) string {
	return DependencyKey(p.props.Name, p.props.Version, subpath)
}

func (p *PackageExports) Render(s store.State) *vdom.VNode {
	if len(p.props.Exports) == 0 {
		return vdom.P(vdom.Class("exports", "empty"), "This package declares no exports.")
	}
	return vdom.Ul(vdom.Class("exports"),
		vdom.Range(p.props.Exports, func(subpath string, _ int) *vdom.VNode {
			selected := s.Selected(p.dep(subpath))
			return vdom.Li(vdom.Key(subpath), vdom.AttrIf(selected, vdom.Class("selected")),
				actionForm(TagPackageExports, p.raw, "toggle", subpath,
					vdom.Class("export-toggle"),
					vdom.AriaPressed(selected),
					vdom.Code(subpath),
				),
			)
		}),
	)
}

func (p *PackageExports) Changed(prev, next store.State) bool {
	for _, subpath := range p.props.Exports {
		dep := p.dep(subpath)
		if prev.Selected(dep) != next.Selected(dep) {
			return true
		}
	}
	return false
}

func (p *PackageExports) Handle(a Action, s store.State) (store.State, bool) {
	if a.Name != "toggle" || !slices.Contains(p.props.Exports, a.Value) {
		return s, false
	}
	return store.ToggleExport(s, p.dep(a.Value)), true
}
