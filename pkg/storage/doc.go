// Package storage provides durable key-value backends for per-session state.
//
// A Backend stores opaque values under (namespace, key) pairs. Scope binds a
// Backend to one namespace, yielding the Storage interface that the store
// package persists through, the server-side counterpart of browser
// localStorage.
//
// Backends:
//
//   - Memory: in-process map, the default for single-server deployments
//   - SQL: database/sql with the sqlite3 or libsql driver
//   - S3: one object per item in an S3-compatible bucket
//
// Every backend is safe for concurrent use. Get returns (nil, nil) for a
// missing item; errors are reserved for backend failures.
package storage
