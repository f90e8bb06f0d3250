package store

import "slices"

// Export is one entry of the export selection.
type Export struct {
	Dep      string
	Selected bool
}

// Exports maps dependency → selected, preserving insertion order.
// Order matters: SelectedDeps and therefore the generator hash follow it.
type Exports []Export

// Get reports the flag for dep and whether dep is present.
func (e Exports) Get(dep string) (selected, ok bool) {
	for _, x := range e {
		if x.Dep == dep {
			return x.Selected, true
		}
	}
	return false, false
}

// With returns a copy with dep set to selected. New deps are appended.
func (e Exports) With(dep string, selected bool) Exports {
	out := slices.Clone(e)
	for i := range out {
		if out[i].Dep == dep {
			out[i].Selected = selected
			return out
		}
	}
	return append(out, Export{Dep: dep, Selected: selected})
}

// Selected returns the deps whose flag is true, in map order.
func (e Exports) Selected() []string {
	deps := make([]string, 0, len(e))
	for _, x := range e {
		if x.Selected {
			deps = append(deps, x.Dep)
		}
	}
	return deps
}

// State is the whole store state.
type State struct {
	// SelectedExports tracks which export subpaths the user chose.
	SelectedExports Exports
	// SelectedDeps is derived from SelectedExports; never set it directly.
	SelectedDeps []string
	// GeneratorHash caches the hash of SelectedDeps. "" means not computed.
	// It may be stale between a selection change and the next successful
	// computation.
	GeneratorHash string

	OpenImportmapDialog bool
	OpenVersionSelector bool

	// SandboxHashes caches sandbox hashes by sandbox id.
	SandboxHashes map[string]string

	// Revision increases by one on every SetState.
	Revision uint64
}

// Default returns the initial state: nothing selected, dialogs closed.
func Default() State {
	return State{
		SelectedExports: Exports{},
		SelectedDeps:    []string{},
		SandboxHashes:   map[string]string{},
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	c.SelectedExports = slices.Clone(s.SelectedExports)
	if c.SelectedExports == nil {
		c.SelectedExports = Exports{}
	}
	c.SelectedDeps = slices.Clone(s.SelectedDeps)
	if c.SelectedDeps == nil {
		c.SelectedDeps = []string{}
	}
	c.SandboxHashes = make(map[string]string, len(s.SandboxHashes))
	for k, v := range s.SandboxHashes {
		c.SandboxHashes[k] = v
	}
	return c
}

// Selected reports whether dep is currently selected.
func (s State) Selected(dep string) bool {
	v, _ := s.SelectedExports.Get(dep)
	return v
}

// ToggleExport flips dep (absent counts as unselected) and re-derives
// SelectedDeps. It is the only mutation path for the selection.
func ToggleExport(s State, dep string) State {
	next := s.Clone()
	cur, _ := next.SelectedExports.Get(dep)
	next.SelectedExports = next.SelectedExports.With(dep, !cur)
	next.SelectedDeps = next.SelectedExports.Selected()
	return next
}

// RemoveExport unselects dep. It is a no-op copy when dep is not selected.
func RemoveExport(s State, dep string) State {
	if !s.Selected(dep) {
		return s.Clone()
	}
	return ToggleExport(s, dep)
}

// SetDialogOpen opens or closes the import map dialog.
func SetDialogOpen(s State, open bool) State {
	next := s.Clone()
	next.OpenImportmapDialog = open
	return next
}

// SetVersionSelectorOpen opens or closes the version selector.
func SetVersionSelectorOpen(s State, open bool) State {
	next := s.Clone()
	next.OpenVersionSelector = open
	return next
}

// SetSandboxHash records the hash computed for a sandbox.
func SetSandboxHash(s State, id, hash string) State {
	next := s.Clone()
	next.SandboxHashes[id] = hash
	return next
}
