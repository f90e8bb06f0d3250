package npm

import (
	"fmt"
	"net/url"
	"strings"
)

const maxNameLength = 214

// ValidateName checks name against the registry naming rules. Scoped names
// have the form @scope/name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidName, maxNameLength)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q has surrounding spaces", ErrInvalidName, name)
	}

	local := name
	if strings.HasPrefix(name, "@") {
		scope, rest, ok := strings.Cut(name[1:], "/")
		if !ok || scope == "" || rest == "" {
			return fmt.Errorf("%w: %q is not @scope/name", ErrInvalidName, name)
		}
		if !validPart(scope) {
			return fmt.Errorf("%w: bad scope in %q", ErrInvalidName, name)
		}
		local = rest
	}
	if strings.HasPrefix(local, ".") || strings.HasPrefix(local, "_") {
		return fmt.Errorf("%w: %q starts with . or _", ErrInvalidName, name)
	}
	if !validPart(local) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidName, name)
	}
	return nil
}

func validPart(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '-', r == '.', r == '_', r == '~':
		case r >= 'A' && r <= 'Z':
			// Legacy packages have upper case names.
		default:
			return false
		}
	}
	return s != ""
}

// escapeName escapes name for a registry path. The scope separator is
// encoded so a scoped name stays a single path segment.
func escapeName(name string) string {
	return url.PathEscape(name)
}

// SplitSpec splits "name@version" into its parts. The leading @ of a
// scoped name is not treated as a separator.
func SplitSpec(spec string) (name, version string) {
	spec = strings.Trim(spec, "/")
	at := strings.LastIndex(spec, "@")
	if at <= 0 {
		return spec, ""
	}
	return spec[:at], spec[at+1:]
}
