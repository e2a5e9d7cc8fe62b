package model

import "fmt"

// UnknownObjectError reports an operation on an identifier the resource
// does not own.
type UnknownObjectError struct {
	URI string
	ID  ID
}

func (e *UnknownObjectError) Error() string {
	return fmt.Sprintf("%s: unknown object %s", e.URI, e.ID)
}

// DuplicateObjectError reports adding an identifier twice to a resource.
type DuplicateObjectError struct {
	URI string
	ID  ID
}

func (e *DuplicateObjectError) Error() string {
	return fmt.Sprintf("%s: object %s already registered", e.URI, e.ID)
}

// CycleDetectedError reports a containment set that would make an object
// its own ancestor. The mutation is rejected, nothing is applied.
type CycleDetectedError struct {
	URI       string
	Container ID
	Child     ID
	Feature   string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("%s: setting %s.%s to %s would create a containment cycle",
		e.URI, e.Container, e.Feature, e.Child)
}

// InvalidValueError reports a value inconsistent with the feature's
// declared kind or multiplicity.
type InvalidValueError struct {
	Class   string
	Feature string
	Reason  string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for %s.%s: %s", e.Class, e.Feature, e.Reason)
}

// ResourceNotFoundError reports a URI that could not be located or read.
type ResourceNotFoundError struct {
	URI string
	Err error
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s: %v", e.URI, e.Err)
}

func (e *ResourceNotFoundError) Unwrap() error { return e.Err }

// DuplicateResourceError reports registering a URI twice in a resource set.
type DuplicateResourceError struct {
	URI string
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("resource already registered: %s", e.URI)
}
