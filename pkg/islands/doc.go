// Package islands implements independently hydrated page fragments that
// share one session store.
//
// Every island is marked on the server-rendered page by a custom element
// (its Tag) carrying a versioned data-props payload. At hydration time the
// browser reports the anchors it found; Mount locates the island's anchor
// in that Document, parses the props exactly once, subscribes to the store
// borrowed from the context registry, and pushes a freshly rendered
// Fragment to the Sink whenever the fields the island watches change.
//
// A page may omit any island. Mount returns (nil, nil) for an absent anchor
// and registers nothing.
//
// User actions flow through Dispatch, which computes the new state from a
// snapshot, writes it with a single store update and then asks the Hasher
// to recompute asynchronously.
package islands
