// Package jsonpatch builds and validates RFC 6902 JSON Patch documents
// for Jama Connect item updates.
//
// Jama's PATCH /items/{id} endpoint accepts a list of patch operations.
// Field updates use "add" rather than "replace" because Jama treats
// "add" on an existing field as a set, which makes the same operation
// work for both new and existing fields.
package jsonpatch

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Op is a single RFC 6902 patch operation. Value is kept as raw JSON so
// an explicit null survives marshaling; remove operations carry no value.
type Op struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// validOps is the set of operations RFC 6902 defines.
var validOps = map[string]bool{
	"add":     true,
	"copy":    true,
	"move":    true,
	"remove":  true,
	"replace": true,
	"test":    true,
}

// validOpNames lists the allowed operations for error messages.
const validOpNames = "add, copy, move, remove, replace, test"

// FromFields converts a flat field map into patch operations targeting
// /fields/<name>. Output is sorted by field name so repeated calls over
// the same map produce the same document.
func FromFields(fields map[string]any) ([]Op, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("at least one field must be provided for update")
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	ops := make([]Op, 0, len(names))
	for _, name := range names {
		value, err := json.Marshal(fields[name])
		if err != nil {
			return nil, fmt.Errorf("encoding field %q: %w", name, err)
		}
		ops = append(ops, Op{
			Op:    "add",
			Path:  "/fields/" + escapePointer(name),
			Value: value,
		})
	}
	return ops, nil
}

// Validate checks a patch document before it is sent to Jama. It returns
// an error describing the first offending operation, or nil.
func Validate(ops []Op) error {
	if len(ops) == 0 {
		return fmt.Errorf("patch list cannot be empty")
	}
	for i, op := range ops {
		if op.Op == "" {
			return fmt.Errorf("patch at index %d missing required 'op' field", i)
		}
		if !validOps[op.Op] {
			return fmt.Errorf("patch at index %d has invalid op %q (valid ops: %s)", i, op.Op, validOpNames)
		}
		if op.Path == "" {
			return fmt.Errorf("patch at index %d missing required 'path' field", i)
		}
		if !strings.HasPrefix(op.Path, "/") {
			return fmt.Errorf("patch at index %d: path must start with '/'", i)
		}
		if op.Op != "remove" && len(op.Value) == 0 {
			return fmt.Errorf("patch at index %d missing required 'value' field", i)
		}
	}
	return nil
}

// escapePointer applies RFC 6901 escaping to a single path segment.
func escapePointer(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	s = strings.ReplaceAll(s, "/", "~1")
	return s
}
