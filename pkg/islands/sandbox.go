package islands

import (
	"errors"

	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

// TagSandboxLink marks a link that opens a package in the online sandbox.
const TagSandboxLink = "sandbox-link"

// SandboxLink links a fixed dependency list to the generator sandbox. Its
// hash is computed when the island mounts and cached in SandboxHashes.
type SandboxLink struct {
	GeneratorBase string
	props         SandboxProps
}

func (*SandboxLink) Tag() string { return TagSandboxLink }

func (l *SandboxLink) Init(props Props) error {
	var dto SandboxProps
	if !decodeProps(props, &dto) {
		deps, err := decodeList(props, "deps")
		if err != nil {
			return err
		}
		dto = SandboxProps{V: PropsVersion, ID: props["id"], Deps: deps}
	}
	if dto.ID == "" {
		return errors.New("sandbox-link: missing id")
	}
	l.props = dto
	return nil
}

// Start schedules the sandbox hash computation.
func (l *SandboxLink) Start(s store.State, h Hasher) {
	if len(l.props.Deps) == 0 {
		return
	}
	h.TriggerSandbox(l.props.ID, l.props.Deps)
}

func (l *SandboxLink) Render(s store.State) *vdom.VNode {
	hash := s.SandboxHashes[l.props.ID]
	if hash == "" {
		return vdom.Span(vdom.Class("sandbox-link", "pending"), "Preparing sandbox…")
	}
	return vdom.A(
		vdom.Class("sandbox-link"),
		vdom.Href(GeneratorURL(l.GeneratorBase, hash)),
		vdom.Target("_blank"),
		vdom.Rel("noopener"),
		"Try in sandbox",
	)
}

func (l *SandboxLink) Changed(prev, next store.State) bool {
	return prev.SandboxHashes[l.props.ID] != next.SandboxHashes[l.props.ID]
}

func (*SandboxLink) Handle(a Action, s store.State) (store.State, bool) {
	return s, false
}
