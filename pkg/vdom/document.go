package vdom

import "strings"

// Walk visits node and its descendants depth-first, in document order.
// Returning false from fn stops the walk.
func Walk(node *VNode, fn func(*VNode) bool) bool {
	if node == nil {
		return true
	}
	if !fn(node) {
		return false
	}
	for _, child := range node.Children {
		if !Walk(child, fn) {
			return false
		}
	}
	return true
}

// FindByTag returns the first element with the given tag name.
// Tag comparison is case-insensitive, as in HTML.
func FindByTag(root *VNode, tag string) (*VNode, bool) {
	var found *VNode
	Walk(root, func(n *VNode) bool {
		if n.Kind == KindElement && strings.EqualFold(n.Tag, tag) {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// CountByTag returns how many elements carry the given tag name.
func CountByTag(root *VNode, tag string) int {
	count := 0
	Walk(root, func(n *VNode) bool {
		if n.Kind == KindElement && strings.EqualFold(n.Tag, tag) {
			count++
		}
		return true
	})
	return count
}

// DataAttrs returns the data-* attributes of an element keyed without the
// "data-" prefix. Non-string values are skipped.
func DataAttrs(node *VNode) map[string]string {
	out := make(map[string]string)
	if node == nil {
		return out
	}
	for k, v := range node.Props {
		if !strings.HasPrefix(k, "data-") {
			continue
		}
		if s, ok := v.(string); ok {
			out[strings.TrimPrefix(k, "data-")] = s
		}
	}
	return out
}
