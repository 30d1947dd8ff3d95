// Package topic implements the three-segment org/namespace/name path used
// both as pub/sub routing subject and as an authenticated identity
// (spec.md §3, "Topic / identity").
package topic

import (
	"fmt"
	"strings"
)

// ID is a three-segment org/namespace/name path.
type ID struct {
	Org       string
	Namespace string
	Name      string
}

// Parse splits a "org/namespace/name" string into an ID. All three segments
// must be non-empty.
func Parse(s string) (ID, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 {
		return ID{}, fmt.Errorf("topic: %q is not in org/namespace/name form", s)
	}
	id := ID{Org: parts[0], Namespace: parts[1], Name: parts[2]}
	if err := id.Validate(); err != nil {
		return ID{}, err
	}
	return id, nil
}

// Validate reports whether every segment is non-empty.
func (id ID) Validate() error {
	if id.Org == "" || id.Namespace == "" || id.Name == "" {
		return fmt.Errorf("topic: segments must be non-empty, got %q", id.String())
	}
	return nil
}

// String renders the canonical "org/namespace/name" form.
func (id ID) String() string {
	return id.Org + "/" + id.Namespace + "/" + id.Name
}

// Mangle builds a Name segment from a free-form display name by replacing
// spaces with underscores, per spec.md §3.
func Mangle(displayName string) string {
	return strings.ReplaceAll(strings.TrimSpace(displayName), " ", "_")
}

// FromDisplayName builds an ID from an org, namespace, and a display name
// that gets mangled into the Name segment.
func FromDisplayName(org, namespace, displayName string) ID {
	return ID{Org: org, Namespace: namespace, Name: Mangle(displayName)}
}

// DistinctFrom reports whether two identities differ, a precondition for
// identity-based access control (spec.md §3: "sender and receiver identities
// must be distinct").
func (id ID) DistinctFrom(other ID) bool {
	return id != other
}
