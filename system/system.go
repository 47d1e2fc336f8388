// Package system defines the canonical, format-independent system document
// that every parser produces. The document is the single exchange artifact
// between format plugins and downstream consumers; ownership transfers to
// the caller on a successful parse.
package system

import (
	"encoding/json"

	"github.com/voltmesh/gridx/errors"
)

// Status values for a parsed system document.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
)

// System is the canonical representation of a parsed power-system dataset.
// Format plugins populate it from their own on-disk layout; nothing in it
// is format-specific beyond the source format identifier.
type System struct {
	// Format identifies the source dataset format (e.g. "reeds", "sienna")
	Format string `json:"system"`

	// Status reports parse completeness ("ok" or "partial")
	Status string `json:"status"`

	// SchemaVersion is the dataset schema version the parser consumed,
	// after any upgrades
	SchemaVersion string `json:"schema_version,omitempty"`

	// Components are the parsed system entities (generators, buses, lines).
	// The set is open-ended; parsers include what their format carries.
	Components []Component `json:"components,omitempty"`

	// Metadata carries format-specific annotations that survive conversion
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Component is one entity in the canonical system (a generator, a region,
// a transmission line). Kind is the canonical category name; Attrs hold
// the flattened fields the source format provided.
type Component struct {
	Kind  string            `json:"kind"`
	Name  string            `json:"name"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// New returns a document for the given format with status "ok".
func New(format string) *System {
	return &System{
		Format: format,
		Status: StatusOK,
	}
}

// AddComponent appends a component to the document.
func (s *System) AddComponent(kind, name string, attrs map[string]string) {
	s.Components = append(s.Components, Component{Kind: kind, Name: name, Attrs: attrs})
}

// SetMetadata records a format-specific annotation.
func (s *System) SetMetadata(key, value string) {
	if s.Metadata == nil {
		s.Metadata = make(map[string]string)
	}
	s.Metadata[key] = value
}

// Render serializes the document to its canonical JSON form.
func (s *System) Render() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", errors.Wrap(err, "render system document")
	}
	return string(raw), nil
}

// Parse decodes a serialized canonical document.
func Parse(raw string) (*System, error) {
	var s System
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, errors.Wrap(err, "parse system document")
	}
	return &s, nil
}
