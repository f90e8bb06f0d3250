// Package vdom provides the in-memory node tree used to build pages and
// island fragments on the server.
//
// # Core Types
//
// VNode represents elements, text, fragments and raw HTML. Props holds the
// element attributes; Attr values are used to build Props.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1(Text("Title")),
//	    P(Text("Content")),
//	)
//
// # Anchors
//
// Islands are mounted against custom elements (for example
// <importmap-dialog>) found in a rendered tree. FindByTag and TreeDocument
// locate those anchors and expose their data-* attributes.
package vdom
