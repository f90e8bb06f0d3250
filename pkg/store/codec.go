package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
)

// Storage keys.
const (
	// BlobKey holds the canonical versioned blob.
	BlobKey = "jspm:store"

	// Legacy split keys, read once when BlobKey is absent.
	LegacyExportsKey = "selectedExports"
	LegacyDepsKey    = "selectedDeps"
	LegacyHashKey    = "generatorHash"
)

// SchemaVersion is the current persisted blob version.
const SchemaVersion = 1

// ErrSchema is returned when a persisted blob fails validation.
var ErrSchema = errors.New("store: persisted state does not match schema")

// Persisted is the durable subset of State.
type Persisted struct {
	Version         int            `json:"version"`
	SelectedExports []exportRecord `json:"selectedExports"`
	SelectedDeps    []string       `json:"selectedDeps"`
	GeneratorHash   string         `json:"generatorHash"`
}

// exportRecord is encoded as a ["dep", true] pair to keep map order.
type exportRecord Export

func (r exportRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{r.Dep, r.Selected})
}

func (r *exportRecord) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("export entry has %d elements, want 2", len(pair))
	}
	if err := json.Unmarshal(pair[0], &r.Dep); err != nil {
		return fmt.Errorf("export dep: %w", err)
	}
	if err := json.Unmarshal(pair[1], &r.Selected); err != nil {
		return fmt.Errorf("export flag: %w", err)
	}
	return nil
}

// Encode serializes the durable fields of s.
func Encode(s State) ([]byte, error) {
	p := Persisted{
		Version:         SchemaVersion,
		SelectedExports: make([]exportRecord, len(s.SelectedExports)),
		SelectedDeps:    s.SelectedDeps,
		GeneratorHash:   s.GeneratorHash,
	}
	for i, e := range s.SelectedExports {
		p.SelectedExports[i] = exportRecord(e)
	}
	if p.SelectedDeps == nil {
		p.SelectedDeps = []string{}
	}
	return json.Marshal(p)
}

// Decode parses and validates a persisted blob. A blob whose version is
// unknown, whose exports repeat a dep, or whose SelectedDeps disagree with
// SelectedExports is rejected with ErrSchema.
func Decode(data []byte) (Persisted, error) {
	var p Persisted
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Persisted{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Persisted{}, fmt.Errorf("%w: trailing data after blob", ErrSchema)
	}
	if p.Version != SchemaVersion {
		return Persisted{}, fmt.Errorf("%w: version %d", ErrSchema, p.Version)
	}

	exports := p.Exports()
	seen := make(map[string]bool, len(exports))
	for _, e := range exports {
		if seen[e.Dep] {
			return Persisted{}, fmt.Errorf("%w: duplicate dep %q", ErrSchema, e.Dep)
		}
		seen[e.Dep] = true
	}
	if p.SelectedDeps == nil {
		p.SelectedDeps = []string{}
	}
	if !slices.Equal(exports.Selected(), p.SelectedDeps) {
		return Persisted{}, fmt.Errorf("%w: selectedDeps does not match selectedExports", ErrSchema)
	}
	return p, nil
}

// Exports returns the export selection in stored order.
func (p Persisted) Exports() Exports {
	out := make(Exports, len(p.SelectedExports))
	for i, r := range p.SelectedExports {
		out[i] = Export(r)
	}
	return out
}

// Apply overlays the durable fields onto s.
func (p Persisted) Apply(s State) State {
	next := s.Clone()
	next.SelectedExports = p.Exports()
	next.SelectedDeps = slices.Clone(p.SelectedDeps)
	next.GeneratorHash = p.GeneratorHash
	return next
}

// decodeLegacyExports parses a JSON object of dep → bool, keeping key order.
func decodeLegacyExports(data []byte) (Exports, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: legacy exports is not an object", ErrSchema)
	}

	var out Exports
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		dep, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: legacy exports key", ErrSchema)
		}
		var selected bool
		if err := dec.Decode(&selected); err != nil {
			return nil, fmt.Errorf("%w: legacy exports value for %q: %v", ErrSchema, dep, err)
		}
		// A repeated key overwrites in place, matching object semantics.
		out = out.With(dep, selected)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}
