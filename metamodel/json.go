package metamodel

import (
	"encoding/json"
	"fmt"
	"os"
)

// Document is the on-disk JSON layout of a metamodel definition file.
type Document struct {
	Version  string    `json:"version,omitempty"`
	Packages []Package `json:"packages,omitempty"`
	Enums    []Enum    `json:"enums,omitempty"`
	Classes  []Class   `json:"classes"`
}

// LoadJSON builds a registry from a JSON metamodel document. Definitions are
// applied in document order, so class declaration order is preserved.
func LoadJSON(data []byte) (*Registry, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metamodel: %w", err)
	}
	r := NewRegistry()
	for _, p := range doc.Packages {
		if err := r.DefinePackage(p); err != nil {
			return nil, err
		}
	}
	for _, e := range doc.Enums {
		if err := r.DefineEnum(e); err != nil {
			return nil, err
		}
	}
	for _, c := range doc.Classes {
		if err := r.DefineClass(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadFile reads and parses a JSON metamodel file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metamodel file: %w", err)
	}
	reg, err := LoadJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Document captures the registry's current state as a serializable document.
func (r *Registry) Document() Document {
	return Document{
		Version:  "1",
		Packages: r.Packages(),
		Enums:    r.Enums(),
		Classes:  r.Classes(),
	}
}

// ToJSON renders the registry as a metamodel definition document. The output
// loads back through LoadJSON into an equivalent registry.
func (r *Registry) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r.Document(), "", "  ")
}
