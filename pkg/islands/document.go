package islands

import (
	"strings"

	"github.com/jspm/jspm-packages/pkg/vdom"
)

// Anchor is a located island marker.
type Anchor struct {
	Tag   string `json:"tag"`
	Props Props  `json:"props"`
}

// Document locates anchors by tag.
type Document interface {
	Find(tag string) (Anchor, bool)
}

// AnchorList is a Document built from the anchors a browser reported.
type AnchorList []Anchor

// Find returns the first anchor with tag.
func (l AnchorList) Find(tag string) (Anchor, bool) {
	for _, a := range l {
		if strings.EqualFold(a.Tag, tag) {
			return a, true
		}
	}
	return Anchor{}, false
}

// Tree is a Document over a server-rendered vdom tree.
type Tree struct {
	Root *vdom.VNode
}

// Find returns the first element with tag.
func (t Tree) Find(tag string) (Anchor, bool) {
	node, ok := vdom.FindByTag(t.Root, tag)
	if !ok {
		return Anchor{}, false
	}
	return Anchor{Tag: node.Tag, Props: Props(vdom.DataAttrs(node))}, true
}

// Anchors lists every island anchor in a tree, in document order.
func (t Tree) Anchors() AnchorList {
	var out AnchorList
	var visit func(n *vdom.VNode)
	visit = func(n *vdom.VNode) {
		if n == nil {
			return
		}
		if n.Kind == vdom.KindElement && n.StringProp("data-island") != "" {
			out = append(out, Anchor{Tag: n.Tag, Props: Props(vdom.DataAttrs(n))})
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(t.Root)
	return out
}
