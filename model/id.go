// Package model implements the reflective object store: dynamic typed
// instances with insertion-ordered feature storage, resources that own
// object graphs under a URI, proxies for unresolved cross-resource
// references, and the resource set coordinating loads across resources.
package model

import "github.com/google/uuid"

// ID is an opaque object identifier, globally unique and stable for the
// object's lifetime. Objects never hold native pointers to each other;
// references are IDs resolved through the owning resource.
type ID string

// NewID returns a fresh identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool { return id == "" }

func (id ID) String() string { return string(id) }
