package clientdist

import _ "embed"

// IslandsJS is the island runtime.
//
// It is served at "/_jspm/islands.js". The runtime reads the boot block,
// opens the live channel, reports the anchors on the page and swaps in
// the fragments the server pushes. Without it the island forms post to
// the action fallback.
//
//go:embed islands.js
var IslandsJS []byte
