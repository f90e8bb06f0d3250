// Package errors provides structured, coded application errors.
//
// Every error carries a code (e.g. "J201") that maps to a registered
// template with a category, a short message, an explanation and an HTTP
// status. The same value feeds three outputs:
//
//   - terminal formatting for the CLI (Format)
//   - a single log line (FormatCompact)
//   - the error page and JSON responses of the web server (Status, FormatJSON)
//
// # Error Categories
//
//   - storage: the durable key-value backend failed or returned bad data
//   - hash: the generator hash service failed
//   - mount: an island could not be mounted or dispatched to
//   - registry: the NPM registry failed or the package does not exist
//   - render: a page could not be rendered
//   - config: configuration is invalid
//   - cli: command line usage errors
//
// # Usage
//
//	err := errors.New("J301").Wrap(npmErr).WithDetail(name)
//	fmt.Fprint(os.Stderr, err.Format())
//	http.Error(w, err.Message, err.Status())
package errors
