package metamodel

import (
	"fmt"
	"sync"
)

// Registry holds the metamodel descriptors for a set of packages.
// Descriptors are immutable once defined: Define* calls copy their input in,
// lookups copy their result out, so callers can never mutate registered
// state. All lookups are safe for concurrent use with further definitions.
type Registry struct {
	mu sync.RWMutex

	packages      map[string]*Package
	packagesByURI map[string]*Package
	packageOrder  []string

	classes    map[string]*Class
	classOrder []string

	enums     map[string]*Enum
	enumOrder []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		packages:      make(map[string]*Package),
		packagesByURI: make(map[string]*Package),
		classes:       make(map[string]*Class),
		enums:         make(map[string]*Enum),
	}
}

// DefinePackage registers a package descriptor.
func (r *Registry) DefinePackage(p Package) error {
	if p.Name == "" {
		return &InvalidDescriptorError{Kind: "package", Name: p.Name, Reason: "name is required"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.packages[p.Name]; ok {
		return &DuplicateDescriptorError{Kind: "package", Name: p.Name}
	}
	cp := p
	r.packages[p.Name] = &cp
	r.packageOrder = append(r.packageOrder, p.Name)
	if p.URI != "" {
		r.packagesByURI[p.URI] = &cp
	}
	return nil
}

// DefineClass registers a class descriptor. The features slice, if any, is
// copied; multiplicities are normalized so a zero upper bound means one.
func (r *Registry) DefineClass(c Class) error {
	if c.Name == "" {
		return &InvalidDescriptorError{Kind: "class", Name: c.Name, Reason: "name is required"}
	}
	for _, f := range c.Features {
		if err := checkFeature(c.Name, f); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classes[c.Name]; ok {
		return &DuplicateDescriptorError{Kind: "class", Name: c.Name}
	}
	cp := c
	cp.SuperTypes = append([]string(nil), c.SuperTypes...)
	cp.Features = make([]Feature, len(c.Features))
	for i, f := range c.Features {
		f.Multiplicity = f.Multiplicity.normalized()
		cp.Features[i] = f
	}
	r.classes[c.Name] = &cp
	r.classOrder = append(r.classOrder, c.Name)
	return nil
}

// DefineAttribute appends an attribute feature to an already-defined class.
func (r *Registry) DefineAttribute(class string, a Attribute) error {
	return r.appendFeature(class, a.feature())
}

// DefineReference appends a reference feature to an already-defined class.
func (r *Registry) DefineReference(class string, ref Reference) error {
	return r.appendFeature(class, ref.feature())
}

func (r *Registry) appendFeature(class string, f Feature) error {
	if err := checkFeature(class, f); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[class]
	if !ok {
		return &DescriptorNotFoundError{Kind: "class", Name: class}
	}
	if _, dup := c.Feature(f.Name); dup {
		return &DuplicateDescriptorError{Kind: "feature", Name: class + "." + f.Name}
	}
	c.Features = append(c.Features, f)
	return nil
}

func checkFeature(class string, f Feature) error {
	qual := class + "." + f.Name
	if f.Name == "" {
		return &InvalidDescriptorError{Kind: "feature", Name: qual, Reason: "name is required"}
	}
	switch f.Kind {
	case KindAttribute:
		if f.Type == "" {
			return &InvalidDescriptorError{Kind: "feature", Name: qual, Reason: "attribute requires a type"}
		}
	case KindReference:
		if f.Target == "" {
			return &InvalidDescriptorError{Kind: "feature", Name: qual, Reason: "reference requires a target class"}
		}
	default:
		return &InvalidDescriptorError{Kind: "feature", Name: qual, Reason: fmt.Sprintf("unknown kind %q", f.Kind)}
	}
	m := f.Multiplicity
	if m.Upper != Unbounded && m.Upper != 0 && m.Lower > m.Upper {
		return &InvalidDescriptorError{Kind: "feature", Name: qual, Reason: "lower bound exceeds upper bound"}
	}
	return nil
}

// DefineEnum registers an enumeration descriptor.
func (r *Registry) DefineEnum(e Enum) error {
	if e.Name == "" {
		return &InvalidDescriptorError{Kind: "enum", Name: e.Name, Reason: "name is required"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.enums[e.Name]; ok {
		return &DuplicateDescriptorError{Kind: "enum", Name: e.Name}
	}
	cp := e
	cp.Literals = append([]EnumLiteral(nil), e.Literals...)
	r.enums[e.Name] = &cp
	r.enumOrder = append(r.enumOrder, e.Name)
	return nil
}

// Class returns a copy of the named class descriptor.
func (r *Registry) Class(name string) (Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[name]
	if !ok {
		return Class{}, &DescriptorNotFoundError{Kind: "class", Name: name}
	}
	return copyClass(c), nil
}

// Classes returns copies of all class descriptors in definition order.
func (r *Registry) Classes() []Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Class, 0, len(r.classOrder))
	for _, name := range r.classOrder {
		out = append(out, copyClass(r.classes[name]))
	}
	return out
}

// Enum returns a copy of the named enumeration descriptor.
func (r *Registry) Enum(name string) (Enum, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.enums[name]
	if !ok {
		return Enum{}, &DescriptorNotFoundError{Kind: "enum", Name: name}
	}
	cp := *e
	cp.Literals = append([]EnumLiteral(nil), e.Literals...)
	return cp, nil
}

// Enums returns copies of all enumeration descriptors in definition order.
func (r *Registry) Enums() []Enum {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Enum, 0, len(r.enumOrder))
	for _, name := range r.enumOrder {
		e := r.enums[name]
		cp := *e
		cp.Literals = append([]EnumLiteral(nil), e.Literals...)
		out = append(out, cp)
	}
	return out
}

// Package returns the named package descriptor.
func (r *Registry) Package(name string) (Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.packages[name]
	if !ok {
		return Package{}, &DescriptorNotFoundError{Kind: "package", Name: name}
	}
	return *p, nil
}

// PackageByURI returns the package registered under the given namespace URI.
func (r *Registry) PackageByURI(uri string) (Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.packagesByURI[uri]
	if !ok {
		return Package{}, &DescriptorNotFoundError{Kind: "package", Name: uri}
	}
	return *p, nil
}

// Packages returns all package descriptors in definition order.
func (r *Registry) Packages() []Package {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Package, 0, len(r.packageOrder))
	for _, name := range r.packageOrder {
		out = append(out, *r.packages[name])
	}
	return out
}

// AllFeatures returns the class's own features in declaration order followed
// by each supertype's features in its declaration order, recursively,
// skipping features whose name was already seen.
func (r *Registry) AllFeatures(class string) ([]Feature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	var out []Feature
	if err := r.collectFeatures(class, seen, visited, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Registry) collectFeatures(class string, seen, visited map[string]bool, out *[]Feature) error {
	if visited[class] {
		return nil
	}
	visited[class] = true
	c, ok := r.classes[class]
	if !ok {
		return &DescriptorNotFoundError{Kind: "class", Name: class}
	}
	for _, f := range c.Features {
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		*out = append(*out, f)
	}
	for _, super := range c.SuperTypes {
		if err := r.collectFeatures(super, seen, visited, out); err != nil {
			return err
		}
	}
	return nil
}

// Feature resolves a feature by name on a class, searching inherited
// features in the same order as AllFeatures.
func (r *Registry) Feature(class, name string) (Feature, error) {
	feats, err := r.AllFeatures(class)
	if err != nil {
		return Feature{}, err
	}
	for _, f := range feats {
		if f.Name == name {
			return f, nil
		}
	}
	return Feature{}, &DescriptorNotFoundError{Kind: "feature", Name: class + "." + name}
}

func copyClass(c *Class) Class {
	cp := *c
	cp.SuperTypes = append([]string(nil), c.SuperTypes...)
	cp.Features = append([]Feature(nil), c.Features...)
	return cp
}
