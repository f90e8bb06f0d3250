package npm

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Exports lists the public export subpaths of m, sorted with "." first.
//
// The exports field may be a string, an array of fallbacks, a conditions
// object or a subpath object; subpaths mapped to null are private and
// skipped. Without an exports field "." is exported when main or module
// is set.
func Exports(m *Manifest) []string {
	raw := bytes.TrimSpace(m.Exports)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		if m.Main != "" || m.Module != "" {
			return []string{"."}
		}
		return nil
	}

	switch raw[0] {
	case '"', '[':
		return []string{"."}
	case '{':
	default:
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	if !isSubpathObject(obj) {
		// Conditions object for the root export.
		if len(obj) == 0 {
			return nil
		}
		return []string{"."}
	}

	out := make([]string, 0, len(obj))
	for key, target := range obj {
		if !strings.HasPrefix(key, ".") || !exported(target) {
			continue
		}
		out = append(out, key)
	}
	sortExports(out)
	return out
}

func isSubpathObject(obj map[string]json.RawMessage) bool {
	for key := range obj {
		if strings.HasPrefix(key, ".") {
			return true
		}
	}
	return false
}

// exported reports whether a target resolves to something, following
// nested conditions.
func exported(target json.RawMessage) bool {
	target = bytes.TrimSpace(target)
	if len(target) == 0 || bytes.Equal(target, []byte("null")) {
		return false
	}
	switch target[0] {
	case '"':
		return true
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(target, &list); err != nil {
			return false
		}
		for _, t := range list {
			if exported(t) {
				return true
			}
		}
		return false
	case '{':
		var conds map[string]json.RawMessage
		if err := json.Unmarshal(target, &conds); err != nil {
			return false
		}
		for _, t := range conds {
			if exported(t) {
				return true
			}
		}
	}
	return false
}

func sortExports(list []string) {
	sort.Slice(list, func(i, j int) bool {
		if list[i] == "." || list[j] == "." {
			return list[i] == "."
		}
		return list[i] < list[j]
	})
}
