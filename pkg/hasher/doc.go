// Package hasher computes the generator hash for a dependency selection.
//
// A Service maps an ordered Descriptor to an opaque string. LocalService
// derives it in-process (canonical JSON, raw DEFLATE, base64url), the form
// the import map generator accepts in its URL fragment. HTTPService asks a
// remote endpoint and guards it with retries and a circuit breaker.
//
// Recomputer runs hash computations off the caller's goroutine. Each
// Trigger supersedes the previous one: the older computation's context is
// cancelled and its result, should it still arrive, is discarded. Only the
// most recently issued computation can write the store. A failed
// computation leaves the cached hash untouched.
package hasher
