// Package store implements the persisted reactive store shared by the
// islands of one browser session.
//
// A Store holds a single State. All mutation goes through SetState (or
// Update, which funnels into SetState): the whole state is replaced, the
// revision counter advances, the durable fields are written to storage,
// and every subscriber is called synchronously with (next, prev) before
// SetState returns.
//
// Selection changes are computed with the pure helpers in this package
// (ToggleExport, RemoveExport) so that SelectedDeps is always the
// filter-then-map derivation of SelectedExports.
//
// Stores are owned by an application root and borrowed by islands through
// the context registry (WithStore, FromContext).
package store
