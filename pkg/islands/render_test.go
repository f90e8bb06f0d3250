package islands

import (
	"strings"
	"testing"

	"github.com/jspm/jspm-packages/pkg/render"
	"github.com/jspm/jspm-packages/pkg/store"
	"github.com/jspm/jspm-packages/pkg/vdom"
)

func renderHTML(t *testing.T, n *vdom.VNode) string {
	t.Helper()
	html, err := render.NewRenderer(render.RendererConfig{}).RenderToString(n)
	if err != nil {
		t.Fatalf("RenderToString() error = %v", err)
	}
	return html
}

func TestGeneratorLinkStates(t *testing.T) {
	g := &GeneratorLink{Base: "https://generator.jspm.io/"}

	tests := []struct {
		name  string
		state store.State
		want  string
	}{
		{"empty", store.Default(), "Select exports"},
		{"computing", store.ToggleExport(store.Default(), "a"), "computing…"},
		{"ready", func() store.State {
			s := store.ToggleExport(store.Default(), "a")
			s.GeneratorHash = "abc"
			return s
		}(), `href="https://generator.jspm.io/#abc"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if html := renderHTML(t, g.Render(tt.state)); !strings.Contains(html, tt.want) {
				t.Errorf("Render() = %s, want %q", html, tt.want)
			}
		})
	}
}

func TestGeneratorLinkChanged(t *testing.T) {
	g := &GeneratorLink{}
	a := store.ToggleExport(store.Default(), "a")
	b := store.ToggleExport(a, "b")
	if g.Changed(a, b) {
		t.Error("changed on selection growth without hash change")
	}
	c := b.Clone()
	c.GeneratorHash = "h"
	if !g.Changed(b, c) {
		t.Error("not changed on hash update")
	}
	if !g.Changed(store.Default(), a) {
		t.Error("not changed when selection becomes non-empty")
	}
}

func TestDialogRender(t *testing.T) {
	d := &ImportmapDialog{GeneratorBase: DefaultGeneratorURL}

	closed := renderHTML(t, d.Render(store.Default()))
	if strings.Contains(closed, " open") {
		t.Errorf("closed dialog rendered open: %s", closed)
	}

	s := store.SetDialogOpen(store.ToggleExport(store.Default(), "react@18.2.0"), true)
	open := renderHTML(t, d.Render(s))
	for _, want := range []string{"<dialog", " open", "<code>react@18.2.0</code>", `action="/actions/importmap-dialog/remove"`, `value="react@18.2.0"`} {
		if !strings.Contains(open, want) {
			t.Errorf("open dialog missing %q\n%s", want, open)
		}
	}
}

func TestDialogChangedWhileClosed(t *testing.T) {
	d := &ImportmapDialog{}
	prev := store.Default()
	next := store.ToggleExport(prev, "a")
	if d.Changed(prev, next) {
		t.Error("closed dialog re-renders on selection change")
	}
	if !d.Changed(next, store.SetDialogOpen(next, true)) {
		t.Error("dialog ignores open")
	}
}

func TestDialogRemove(t *testing.T) {
	d := &ImportmapDialog{}
	s := store.ToggleExport(store.Default(), "a")
	next, ok := d.Handle(Action{Name: "remove", Value: "a"}, s)
	if !ok || len(next.SelectedDeps) != 0 {
		t.Errorf("Handle(remove) = %+v, %v", next, ok)
	}
	if _, ok := d.Handle(Action{Name: "remove"}, s); ok {
		t.Error("remove without value accepted")
	}
}

func TestToggleHandle(t *testing.T) {
	tg := &ImportmapToggle{}
	s, ok := tg.Handle(Action{Name: "toggle"}, store.Default())
	if !ok || !s.OpenImportmapDialog {
		t.Fatal("toggle did not open the dialog")
	}
	s, _ = tg.Handle(Action{Name: "toggle"}, s)
	if s.OpenImportmapDialog {
		t.Error("toggle did not close the dialog")
	}
	if _, ok := tg.Handle(Action{Name: "explode"}, s); ok {
		t.Error("unknown action accepted")
	}
}

func TestVersionSelectorRender(t *testing.T) {
	v := &VersionSelector{}
	if err := v.Init(Props{"props": encodeProps(VersionsProps{V: PropsVersion, Name: "@scope/pkg", Version: "2.0.0", Versions: []string{"2.0.0", "1.0.0"}})}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	html := renderHTML(t, v.Render(store.SetVersionSelectorOpen(store.Default(), true)))
	if !strings.Contains(html, `href="/package/@scope/pkg@1.0.0"`) {
		t.Errorf("Render() = %s", html)
	}
	if !strings.Contains(html, `<li class="current">`) {
		t.Errorf("current version not marked: %s", html)
	}
}

func TestSandboxRender(t *testing.T) {
	l := &SandboxLink{GeneratorBase: DefaultGeneratorURL}
	l.Init(Props{"id": "main", "deps": `["a"]`})

	if html := renderHTML(t, l.Render(store.Default())); !strings.Contains(html, "Preparing sandbox") {
		t.Errorf("pending Render() = %s", html)
	}
	s := store.SetSandboxHash(store.Default(), "main", "xyz")
	if html := renderHTML(t, l.Render(s)); !strings.Contains(html, "#xyz") {
		t.Errorf("ready Render() = %s", html)
	}
	if !l.Changed(store.Default(), s) {
		t.Error("Changed() = false for its own sandbox hash")
	}
	if l.Changed(store.Default(), store.SetSandboxHash(store.Default(), "other", "1")) {
		t.Error("Changed() = true for another sandbox")
	}
}

func TestCatalog(t *testing.T) {
	c := NewCatalog(Config{})
	if c.Config().GeneratorURL != DefaultGeneratorURL {
		t.Errorf("GeneratorURL = %q", c.Config().GeneratorURL)
	}
	for _, tag := range c.Tags() {
		island, ok := c.New(tag)
		if !ok || island.Tag() != tag {
			t.Errorf("New(%q) = %v, %v", tag, island, ok)
		}
	}
	if _, ok := c.New("unknown"); ok {
		t.Error("New(unknown) succeeded")
	}
	a, _ := c.New(TagPackageExports)
	b, _ := c.New(TagPackageExports)
	if a == b {
		t.Error("catalog reuses island instances")
	}
}
