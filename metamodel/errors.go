package metamodel

import (
	"errors"
	"fmt"
)

// DescriptorNotFoundError reports a lookup of an undefined class, feature,
// enum, or package. Lookups never return a partial or default descriptor.
type DescriptorNotFoundError struct {
	Kind string // "class", "feature", "enum", "package"
	Name string
}

func (e *DescriptorNotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// DuplicateDescriptorError reports an attempt to define a descriptor under
// a name that is already taken.
type DuplicateDescriptorError struct {
	Kind string
	Name string
}

func (e *DuplicateDescriptorError) Error() string {
	return fmt.Sprintf("%s already defined: %s", e.Kind, e.Name)
}

// InvalidDescriptorError reports a structurally invalid definition, such as
// a feature without a name or an attribute without a type.
type InvalidDescriptorError struct {
	Kind   string
	Name   string
	Reason string
}

func (e *InvalidDescriptorError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Name, e.Reason)
}

// IsNotFound reports whether err is a DescriptorNotFoundError.
func IsNotFound(err error) bool {
	var nf *DescriptorNotFoundError
	return errors.As(err, &nf)
}
