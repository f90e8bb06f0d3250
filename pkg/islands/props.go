package islands

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PropsVersion is the current data-props schema version.
const PropsVersion = 1

// ExportsProps are the props of the package-exports island.
type ExportsProps struct {
	V       int      `json:"v"`
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Exports []string `json:"exports"`
}

// VersionsProps are the props of the version-selector island.
type VersionsProps struct {
	V        int      `json:"v"`
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Versions []string `json:"versions"`
}

// SandboxProps are the props of the sandbox-link island.
type SandboxProps struct {
	V    int      `json:"v"`
	ID   string   `json:"id"`
	Deps []string `json:"deps"`
}

// decodeProps parses the versioned data-props payload into dst.
// It reports false when the payload is absent, malformed, carries unknown
// fields or has a different version; callers then fall back to legacy
// attributes or defaults.
func decodeProps(props Props, dst any) bool {
	raw, ok := props["props"]
	if !ok || raw == "" {
		return false
	}

	var envelope struct {
		V int `json:"v"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil || envelope.V != PropsVersion {
		return false
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	return dec.Decode(dst) == nil
}

// decodeList parses a legacy JSON array attribute such as data-exports.
func decodeList(props Props, key string) ([]string, error) {
	raw, ok := props[key]
	if !ok || raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("data-%s: %w", key, err)
	}
	return out, nil
}

// encodeProps serializes a props DTO for data-props.
func encodeProps(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
