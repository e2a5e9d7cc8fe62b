// Package metamodel provides immutable class, attribute, reference, and
// enumeration descriptors, plus the registry used to look them up by name.
// Descriptors are plain data: the reflective object layer in package model
// interprets them, the registry itself has no behavior beyond lookup.
package metamodel

// Unbounded marks an upper bound with no limit.
const Unbounded = -1

// DataType identifies a primitive attribute type. An attribute whose type is
// not one of the primitive constants names an enumeration descriptor.
type DataType string

const (
	TypeString DataType = "string"
	TypeInt    DataType = "int"
	TypeFloat  DataType = "float"
	TypeBool   DataType = "bool"
)

// Primitive reports whether t is one of the built-in primitive types.
func (t DataType) Primitive() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool:
		return true
	}
	return false
}

// Multiplicity is a lower/upper bound pair. Upper may be Unbounded.
// The zero value normalizes to [0..1] when a feature is defined.
type Multiplicity struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
}

// Many reports whether the feature admits more than one value.
func (m Multiplicity) Many() bool {
	return m.Upper == Unbounded || m.Upper > 1
}

// Required reports whether at least one value must be present.
func (m Multiplicity) Required() bool {
	return m.Lower > 0
}

func (m Multiplicity) normalized() Multiplicity {
	if m.Upper == 0 {
		m.Upper = 1
	}
	return m
}

// FeatureKind discriminates attributes from references.
type FeatureKind string

const (
	KindAttribute FeatureKind = "attribute"
	KindReference FeatureKind = "reference"
)

// Feature describes a single structural feature of a class: either an
// attribute (primitive or enum typed) or a reference to another class.
type Feature struct {
	Name         string       `json:"name"`                  // Feature name, unique within the class
	Kind         FeatureKind  `json:"kind"`                  // "attribute" or "reference"
	Type         DataType     `json:"type,omitempty"`        // Attributes: primitive type or enum name
	Default      string       `json:"default,omitempty"`     // Attributes: default value literal
	Target       string       `json:"target,omitempty"`      // References: target class name
	Containment  bool         `json:"containment,omitempty"` // References: container owns the target's lifecycle
	Opposite     string       `json:"opposite,omitempty"`    // References: declared inverse feature name
	Multiplicity Multiplicity `json:"multiplicity"`
}

// IsReference reports whether the feature is a reference.
func (f Feature) IsReference() bool { return f.Kind == KindReference }

// IsAttribute reports whether the feature is an attribute.
func (f Feature) IsAttribute() bool { return f.Kind == KindAttribute }

// Attribute describes a primitive-typed feature used with DefineAttribute.
type Attribute struct {
	Name         string       `json:"name"`
	Type         DataType     `json:"type"`
	Default      string       `json:"default,omitempty"`
	Multiplicity Multiplicity `json:"multiplicity"`
}

func (a Attribute) feature() Feature {
	return Feature{
		Name:         a.Name,
		Kind:         KindAttribute,
		Type:         a.Type,
		Default:      a.Default,
		Multiplicity: a.Multiplicity.normalized(),
	}
}

// Reference describes a class-typed feature used with DefineReference.
type Reference struct {
	Name         string       `json:"name"`
	Target       string       `json:"target"`
	Containment  bool         `json:"containment,omitempty"`
	Opposite     string       `json:"opposite,omitempty"`
	Multiplicity Multiplicity `json:"multiplicity"`
}

func (r Reference) feature() Feature {
	return Feature{
		Name:         r.Name,
		Kind:         KindReference,
		Target:       r.Target,
		Containment:  r.Containment,
		Opposite:     r.Opposite,
		Multiplicity: r.Multiplicity.normalized(),
	}
}

// Class describes a model class: its features in declaration order and its
// supertypes. Feature lookup through the registry includes inherited
// features; the Features slice holds only the class's own declarations.
type Class struct {
	Name       string    `json:"name"`
	Package    string    `json:"package,omitempty"` // Owning package name, for namespace resolution
	Abstract   bool      `json:"abstract,omitempty"`
	SuperTypes []string  `json:"super_types,omitempty"`
	Features   []Feature `json:"features,omitempty"`
}

// Feature returns the class's own feature with the given name.
func (c Class) Feature(name string) (Feature, bool) {
	for _, f := range c.Features {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// EnumLiteral is a single (name, value) pair of an enumeration.
type EnumLiteral struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Enum describes an enumeration: an ordered list of named literals.
type Enum struct {
	Name     string        `json:"name"`
	Literals []EnumLiteral `json:"literals"`
}

// Literal returns the literal with the given name.
func (e Enum) Literal(name string) (EnumLiteral, bool) {
	for _, l := range e.Literals {
		if l.Name == name {
			return l, true
		}
	}
	return EnumLiteral{}, false
}

// Package associates a namespace URI and prefix with a set of classes.
// The exchange-format codec uses it to map qualified element names to
// class descriptors and back.
type Package struct {
	Name   string `json:"name"`
	URI    string `json:"uri"`
	Prefix string `json:"prefix,omitempty"`
}
