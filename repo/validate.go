package repo

import (
	"fmt"

	"github.com/weft-lang/weft/model"
)

// Violation is one constraint failure found by Validate.
type Violation struct {
	Object  model.ID
	Class   string
	Feature string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s.%s: %s", v.Class, v.Feature, v.Message)
}

// Validate checks every object in the resource against the metamodel's
// multiplicity bounds. Upper bounds are enforced at mutation time already;
// this pass adds the lower-bound check, which can only be done on a
// finished model.
func (r *Repo) Validate(res *model.Resource) []Violation {
	var out []Violation
	for _, id := range res.AllObjects() {
		class, ok := res.ClassOf(id)
		if !ok {
			continue
		}
		feats, err := r.registry.AllFeatures(class)
		if err != nil {
			out = append(out, Violation{
				Object: id, Class: class,
				Message: fmt.Sprintf("unknown class: %v", err),
			})
			continue
		}
		for _, feat := range feats {
			lower := feat.Multiplicity.Lower
			if lower <= 0 {
				continue
			}
			n := valueArity(res.Get(id, feat.Name))
			if n < lower {
				out = append(out, Violation{
					Object: id, Class: class, Feature: feat.Name,
					Message: fmt.Sprintf("requires at least %d value(s), has %d", lower, n),
				})
			}
		}
	}
	return out
}

func valueArity(v model.Value) int {
	switch v.Kind() {
	case model.KindUnset:
		return 0
	case model.KindList:
		return v.Len()
	}
	return 1
}
