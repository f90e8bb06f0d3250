// Package routepath canonicalizes request paths so every page has exactly
// one URL, and validates local redirect targets.
package routepath

import (
	"errors"
	"net/http"
	"strings"
)

// Path errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Canonicalize normalizes an escaped URL path: it collapses repeated
// slashes, drops "." segments, resolves ".." and removes the trailing
// slash except on "/". It reports whether the path changed.
//
// Paths with a backslash, a NUL byte, a malformed percent escape, or a
// ".." above the root are rejected.
func Canonicalize(p string) (string, bool, error) {
	if p == "" {
		return "/", true, nil
	}
	if strings.Contains(p, `\`) {
		return "", false, ErrBackslashInPath
	}
	if strings.Contains(p, "\x00") || strings.Contains(strings.ToUpper(p), "%00") {
		return "", false, ErrNullByteInPath
	}
	if err := validEscapes(p); err != nil {
		return "", false, err
	}

	segments := make([]string, 0, strings.Count(p, "/")+1)
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) == 0 {
				return "", false, ErrPathEscapesRoot
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}

	out := "/" + strings.Join(segments, "/")
	return out, out != p, nil
}

// validEscapes checks that every "%" starts a two hex digit escape.
func validEscapes(p string) error {
	for i := 0; i < len(p); i++ {
		if p[i] != '%' {
			continue
		}
		if i+2 >= len(p) || !isHex(p[i+1]) || !isHex(p[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// LocalTarget validates a same-site redirect target: it must be a rooted
// path, never a scheme or protocol-relative URL. It returns the
// canonical path with its query.
func LocalTarget(target string) (string, error) {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "", ErrInvalidPath
	}
	p, query, hasQuery := strings.Cut(target, "?")
	canonical, _, err := Canonicalize(p)
	if err != nil {
		return "", err
	}
	if hasQuery && query != "" {
		return canonical + "?" + query, nil
	}
	return canonical, nil
}

// Redirect sends GET and HEAD requests for non-canonical paths to the
// canonical one with 301 and rejects invalid paths with 400. Other
// methods pass through unchanged.
func Redirect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		canonical, changed, err := Canonicalize(r.URL.EscapedPath())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !changed {
			next.ServeHTTP(w, r)
			return
		}

		target := canonical
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
}
