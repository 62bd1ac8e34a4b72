// Package mapper applies declarative field mappings to raw provider payloads.
// A mapping is data, not code: each destination field is produced by a
// keypath lookup, a literal, or a transform function, so per-provider
// mapping tables stay swappable while the application logic lives here.
package mapper

import (
	"fmt"
	"strings"
)

type fieldKind int

const (
	kindKeyPath fieldKind = iota
	kindLiteral
	kindFunc
)

// Field is one mapping rule. Construct with KeyPath, Literal or Func.
type Field struct {
	kind    fieldKind
	path    string
	literal any
	fn      func(raw map[string]any) (any, error)
}

// KeyPath resolves a dot-separated path against the raw record.
func KeyPath(path string) Field {
	return Field{kind: kindKeyPath, path: path}
}

// Literal always yields the given value.
func Literal(v any) Field {
	return Field{kind: kindLiteral, literal: v}
}

// Func computes the destination value from the whole raw record. Transforms
// own all type coercion; the engine never converts values implicitly.
func Func(fn func(raw map[string]any) (any, error)) Field {
	return Field{kind: kindFunc, fn: fn}
}

// Error indicates a mapping/schema mismatch. It fails the record batch it
// occurred in; it is not a recoverable per-record condition.
type Error struct {
	Field  string
	Path   string
	Reason string
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("mapping failed for %q at keypath %q: %s", e.Field, e.Path, e.Reason)
	}
	return fmt.Sprintf("mapping failed for %q: %s", e.Field, e.Reason)
}

// Mapping maps destination field names to rules.
type Mapping map[string]Field

// Apply produces the mapped payload for one raw record. It is pure and safe
// for concurrent use.
func (m Mapping) Apply(raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for name, field := range m {
		switch field.kind {
		case kindLiteral:
			out[name] = field.literal
		case kindFunc:
			v, err := field.fn(raw)
			if err != nil {
				return nil, &Error{Field: name, Reason: err.Error()}
			}
			out[name] = v
		case kindKeyPath:
			v, err := valueAtKeyPath(raw, field.path)
			if err != nil {
				return nil, &Error{Field: name, Path: field.path, Reason: err.Error()}
			}
			out[name] = v
		}
	}
	return out, nil
}

// valueAtKeyPath walks dot-separated segments. A nil anywhere along the path
// short-circuits to nil; a non-traversable non-object mid-path is an error.
func valueAtKeyPath(obj any, path string) (any, error) {
	cur := obj
	for _, key := range strings.Split(path, ".") {
		if cur == nil {
			return nil, nil
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot traverse %T at segment %q", cur, key)
		}
		cur = m[key]
	}
	return cur, nil
}
