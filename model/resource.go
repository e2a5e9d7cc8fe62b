package model

import (
	"sync"

	"github.com/weft-lang/weft/metamodel"
)

// containerEdge records who contains an object and through which feature.
type containerEdge struct {
	parent  ID
	feature string
}

// Resource is the unit of model storage: an ordered collection of root and
// contained objects identified by a URI. It owns the id→object arena and the
// containment-parent index, and mediates every read and write so that
// insertion order and containment bookkeeping stay consistent.
//
// A resource is a single-writer, many-reader domain: reads may run
// concurrently with each other but mutations are serialized.
type Resource struct {
	mu       sync.RWMutex
	uri      string
	registry *metamodel.Registry
	roots    []ID
	order    []ID
	objects  map[ID]*Object
	parents  map[ID]containerEdge
}

// NewResource creates an empty resource for the given URI. The registry is
// consulted on Set for feature descriptors; a nil registry disables
// validation and containment bookkeeping.
func NewResource(uri string, reg *metamodel.Registry) *Resource {
	return &Resource{
		uri:      uri,
		registry: reg,
		objects:  make(map[ID]*Object),
		parents:  make(map[ID]containerEdge),
	}
}

// URI returns the resource's identifier.
func (r *Resource) URI() string { return r.uri }

// Registry returns the metamodel registry the resource validates against.
func (r *Resource) Registry() *metamodel.Registry { return r.registry }

// Add appends the object as a new root. Ownership transfers to the
// resource; callers must not mutate the object afterwards.
func (r *Resource) Add(o *Object) (ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.register(o); err != nil {
		return "", err
	}
	r.roots = append(r.roots, o.id)
	return o.id, nil
}

// Register adds the object to the arena without making it a root, for
// objects reached via containment rather than top-level add.
func (r *Resource) Register(o *Object) (ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.register(o); err != nil {
		return "", err
	}
	return o.id, nil
}

func (r *Resource) register(o *Object) error {
	if _, ok := r.objects[o.id]; ok {
		return &DuplicateObjectError{URI: r.uri, ID: o.id}
	}
	r.objects[o.id] = o
	r.order = append(r.order, o.id)
	return nil
}

// Resolve returns a read-only snapshot of the object, or false if the id is
// foreign to this resource. Mutations go through Set, never the snapshot.
func (r *Resource) Resolve(id ID) (*Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.objects[id]
	if !ok {
		return nil, false
	}
	return o.snapshot(), true
}

// Contains reports whether the resource owns the identifier.
func (r *Resource) Contains(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.objects[id]
	return ok
}

// ClassOf returns the class name of an owned object.
func (r *Resource) ClassOf(id ID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.objects[id]
	if !ok {
		return "", false
	}
	return o.class, true
}

// Get returns the feature value, or Unset when the id is foreign or the
// feature was never set. Absence is data here, not an error, so navigation
// treats "missing" uniformly with "never set".
func (r *Resource) Get(id ID, feature string) Value {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.objects[id]
	if !ok {
		return Unset
	}
	return o.Get(feature)
}

// FeatureOrder returns the object's currently-set feature names in
// first-set order.
func (r *Resource) FeatureOrder(id ID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.objects[id]
	if !ok {
		return nil
	}
	return o.FeatureOrder()
}

// Set stores a feature value. For containment references it keeps the
// parent index current: new children gain this object as container (being
// displaced from any previous container), children dropped from the value
// lose theirs, and a set that would make an object its own ancestor is
// rejected with CycleDetectedError before anything is applied.
func (r *Resource) Set(id ID, feature string, v Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.objects[id]
	if !ok {
		return &UnknownObjectError{URI: r.uri, ID: id}
	}

	var feat metamodel.Feature
	haveFeat := false
	if r.registry != nil {
		f, err := r.registry.Feature(o.class, feature)
		if err != nil {
			return err
		}
		feat = f
		haveFeat = true
		if err := checkValue(o.class, feat, v); err != nil {
			return err
		}
	}

	if haveFeat && feat.IsReference() && feat.Containment {
		if err := r.applyContainment(o, feature, v); err != nil {
			return err
		}
	}
	o.Set(feature, v)
	return nil
}

func (r *Resource) applyContainment(o *Object, feature string, v Value) error {
	children := v.Refs()
	for _, c := range children {
		if _, ok := r.objects[c]; !ok {
			return &UnknownObjectError{URI: r.uri, ID: c}
		}
		if c == o.id || r.isAncestor(c, o.id) {
			return &CycleDetectedError{URI: r.uri, Container: o.id, Child: c, Feature: feature}
		}
	}

	kept := make(map[ID]bool, len(children))
	for _, c := range children {
		kept[c] = true
	}
	for _, old := range o.Get(feature).Refs() {
		if !kept[old] {
			delete(r.parents, old)
		}
	}

	for _, c := range children {
		if edge, ok := r.parents[c]; ok && (edge.parent != o.id || edge.feature != feature) {
			r.detachFromContainer(edge, c)
		}
		r.parents[c] = containerEdge{parent: o.id, feature: feature}
	}
	return nil
}

// detachFromContainer removes the child from its previous container's
// feature value so that each object stays contained exactly once.
func (r *Resource) detachFromContainer(edge containerEdge, child ID) {
	p, ok := r.objects[edge.parent]
	if !ok {
		return
	}
	v := p.Get(edge.feature)
	if id, isRef := v.AsRef(); isRef && id == child {
		p.Unset(edge.feature)
		return
	}
	if elems, isList := v.AsList(); isList {
		out := elems[:0]
		for _, e := range elems {
			if id, isRef := e.AsRef(); isRef && id == child {
				continue
			}
			out = append(out, e)
		}
		p.Set(edge.feature, Value{kind: KindList, list: out})
	}
}

// isAncestor reports whether candidate is an ancestor of id in the
// containment tree. Caller holds the lock.
func (r *Resource) isAncestor(candidate, id ID) bool {
	cur := id
	for {
		edge, ok := r.parents[cur]
		if !ok {
			return false
		}
		if edge.parent == candidate {
			return true
		}
		cur = edge.parent
	}
}

// Unset removes the feature from the object's order entirely. Contained
// children of a containment feature lose their container edge.
func (r *Resource) Unset(id ID, feature string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.objects[id]
	if !ok {
		return &UnknownObjectError{URI: r.uri, ID: id}
	}
	for _, c := range o.Get(feature).Refs() {
		if edge, ok := r.parents[c]; ok && edge.parent == id && edge.feature == feature {
			delete(r.parents, c)
		}
	}
	o.Unset(feature)
	return nil
}

// Remove detaches the object and its entire containment subtree from the
// resource. References elsewhere that pointed into the subtree dangle and
// will read as Unset through Get.
func (r *Resource) Remove(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.objects[id]; !ok {
		return &UnknownObjectError{URI: r.uri, ID: id}
	}

	doomed := map[ID]bool{id: true}
	for {
		grew := false
		for child, edge := range r.parents {
			if doomed[edge.parent] && !doomed[child] {
				doomed[child] = true
				grew = true
			}
		}
		if !grew {
			break
		}
	}

	if edge, ok := r.parents[id]; ok {
		r.detachFromContainer(edge, id)
	}
	for victim := range doomed {
		delete(r.objects, victim)
		delete(r.parents, victim)
	}
	r.roots = filterIDs(r.roots, doomed)
	r.order = filterIDs(r.order, doomed)
	return nil
}

func filterIDs(ids []ID, drop map[ID]bool) []ID {
	out := ids[:0]
	for _, id := range ids {
		if !drop[id] {
			out = append(out, id)
		}
	}
	return out
}

// RootObjects returns the root identifiers in insertion order.
func (r *Resource) RootObjects() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ID(nil), r.roots...)
}

// AllObjects returns every owned identifier in insertion order.
func (r *Resource) AllObjects() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ID(nil), r.order...)
}

// Len returns the number of owned objects.
func (r *Resource) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

// ContainerOf answers "who contains this object and via which feature".
func (r *Resource) ContainerOf(id ID) (ID, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	edge, ok := r.parents[id]
	if !ok {
		return "", "", false
	}
	return edge.parent, edge.feature, true
}

// checkValue verifies the value against the feature's declared kind and
// multiplicity. Scalar typing beyond the variant tag is left to callers.
func checkValue(class string, feat metamodel.Feature, v Value) error {
	if v.IsUnset() {
		return nil
	}
	if feat.Multiplicity.Many() {
		if v.Kind() != KindList {
			return &InvalidValueError{Class: class, Feature: feat.Name,
				Reason: "many-valued feature requires a list value"}
		}
	} else {
		n := v.Len()
		if v.Kind() == KindList && n > 1 {
			return &InvalidValueError{Class: class, Feature: feat.Name,
				Reason: "single-valued feature given a multi-element list"}
		}
	}
	if feat.Multiplicity.Upper != metamodel.Unbounded && v.Len() > feat.Multiplicity.Upper {
		return &InvalidValueError{Class: class, Feature: feat.Name,
			Reason: "upper bound exceeded"}
	}
	if feat.IsReference() {
		return checkRefElems(class, feat, v)
	}
	return checkAttrElems(class, feat, v)
}

func checkRefElems(class string, feat metamodel.Feature, v Value) error {
	elems := []Value{v}
	if list, ok := v.AsList(); ok {
		elems = list
	}
	for _, e := range elems {
		switch e.Kind() {
		case KindRef:
		case KindProxy:
			if feat.Containment {
				return &InvalidValueError{Class: class, Feature: feat.Name,
					Reason: "containment reference cannot hold a proxy"}
			}
		default:
			return &InvalidValueError{Class: class, Feature: feat.Name,
				Reason: "reference feature requires ref or proxy values, got " + e.Kind().String()}
		}
	}
	return nil
}

// primitiveKinds maps each built-in data type to the value kind it stores.
var primitiveKinds = map[metamodel.DataType]Kind{
	metamodel.TypeString: KindString,
	metamodel.TypeInt:    KindInt,
	metamodel.TypeFloat:  KindFloat,
	metamodel.TypeBool:   KindBool,
}

func checkAttrElems(class string, feat metamodel.Feature, v Value) error {
	elems := []Value{v}
	if list, ok := v.AsList(); ok {
		elems = list
	}
	for _, e := range elems {
		switch e.Kind() {
		case KindUnset:
			continue
		case KindRef, KindProxy, KindList:
			return &InvalidValueError{Class: class, Feature: feat.Name,
				Reason: "attribute feature cannot hold " + e.Kind().String() + " values"}
		}
		if want, ok := primitiveKinds[feat.Type]; ok {
			if e.Kind() != want {
				return &InvalidValueError{Class: class, Feature: feat.Name,
					Reason: "attribute of type " + string(feat.Type) + " cannot hold " + e.Kind().String() + " values"}
			}
		} else if e.Kind() != KindEnum {
			return &InvalidValueError{Class: class, Feature: feat.Name,
				Reason: "enum attribute requires enum values, got " + e.Kind().String()}
		}
	}
	return nil
}
