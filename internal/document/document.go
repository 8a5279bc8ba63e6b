// Package document implements the MCP configuration document model:
// parsing, structural validation, and serialization of the JSON shape
// consumed by MCP clients — a top-level object whose "mcpServers" field
// maps server names to invocation specs.
package document

import (
	"encoding/json"
	"fmt"
)

// serversField is the required top-level key of a configuration document.
const serversField = "mcpServers"

// ServerSpec describes how to launch one MCP server.
type ServerSpec struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

// Document is a parsed configuration.
//
// Normalized is true when the source text was valid JSON but the
// mcpServers field was absent or not an object; Parse substitutes an
// empty map in that case rather than failing, and callers decide
// whether that is notable.
type Document struct {
	Servers    map[string]ServerSpec
	Normalized bool
}

// ParseError reports text that could not be parsed as a configuration
// document.
type ParseError struct {
	Reason string
	Err    error // underlying JSON error, may be nil
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing configuration: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parsing configuration: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// New returns an empty Document.
func New() *Document {
	return &Document{Servers: map[string]ServerSpec{}}
}

// Parse parses raw text into a Document.
//
// It fails with *ParseError if the text is not valid JSON, if the
// top-level value is not an object, or if the mcpServers field is an
// object whose entries do not have the server shape. A missing or
// non-object mcpServers field does not fail: the result gets an empty
// server map and Normalized = true.
func Parse(text string) (*Document, error) {
	var probe any
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return nil, &ParseError{Reason: "not valid JSON", Err: err}
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, &ParseError{Reason: "top-level value is not an object"}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &top); err != nil {
		return nil, &ParseError{Reason: "not valid JSON", Err: err}
	}

	raw, ok := top[serversField]
	if !ok {
		return &Document{Servers: map[string]ServerSpec{}, Normalized: true}, nil
	}

	// A non-object mcpServers value normalizes to empty, same as absent.
	var shape any
	if err := json.Unmarshal(raw, &shape); err == nil {
		if _, isObject := shape.(map[string]any); !isObject {
			return &Document{Servers: map[string]ServerSpec{}, Normalized: true}, nil
		}
	}

	// Unknown fields inside a server entry are dropped, not rejected;
	// only the recognized shape is validated.
	servers := map[string]ServerSpec{}
	if err := json.Unmarshal(raw, &servers); err != nil {
		return nil, &ParseError{Reason: "server entry has invalid shape", Err: err}
	}
	if servers == nil {
		servers = map[string]ServerSpec{}
	}

	return &Document{Servers: servers}, nil
}

// Serialize renders the Document as pretty-printed JSON with the
// mcpServers field always present. Map keys marshal in sorted order,
// so output is deterministic and Parse(Serialize(d)) round-trips.
//
// Unrecognized top-level fields from the source text are not carried
// through; the document model round-trips only the recognized shape.
func Serialize(d *Document) string {
	servers := d.Servers
	if servers == nil {
		servers = map[string]ServerSpec{}
	}
	out, err := json.MarshalIndent(map[string]map[string]ServerSpec{
		serversField: servers,
	}, "", "  ")
	if err != nil {
		// Only reachable with unmarshalable values, which the typed
		// shape cannot hold.
		panic(fmt.Sprintf("serializing configuration document: %v", err))
	}
	return string(out) + "\n"
}

// IsEffectivelyEmpty reports whether the document has no servers.
func (d *Document) IsEffectivelyEmpty() bool {
	return len(d.Servers) == 0
}

// Equal reports whether two documents have the same server map.
// Normalized is a parse artifact and is not compared.
func (d *Document) Equal(other *Document) bool {
	if len(d.Servers) != len(other.Servers) {
		return false
	}
	for name, spec := range d.Servers {
		o, ok := other.Servers[name]
		if !ok || !specEqual(spec, o) {
			return false
		}
	}
	return true
}

func specEqual(a, b ServerSpec) bool {
	if a.Command != b.Command || len(a.Args) != len(b.Args) || len(a.Env) != len(b.Env) {
		return false
	}
	for i := range a.Args {
		if a.Args[i] != b.Args[i] {
			return false
		}
	}
	for k, v := range a.Env {
		if b.Env[k] != v {
			return false
		}
	}
	return true
}
