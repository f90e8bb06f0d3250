// Package render provides server-side rendering (SSR) of vdom trees.
//
// The render package converts VNode trees into HTML, handling:
//
//   - HTML5 element rendering with void and boolean attributes
//   - Text and attribute escaping (XSS prevention)
//   - Deterministic attribute order, so island fragments diff cleanly
//   - Full page rendering with DOCTYPE, head, body and the island runtime
//
// # Basic Usage
//
//	renderer := render.NewRenderer(render.RendererConfig{})
//	html, err := renderer.RenderToString(node)
//
// # Full Page Rendering
//
//	page := render.PageData{
//	    Body:  bodyNode,
//	    Title: "react@18.2.0 - JSPM",
//	    Live:  true,
//	}
//	err := renderer.RenderPage(w, page)
//
// # Security
//
// All text content is escaped by default. Raw HTML can be inserted using
// KindRaw nodes, which is reserved for sanitized README output and inline
// icons.
package render
