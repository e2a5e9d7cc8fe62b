package model

// Object is a reflective instance of a metamodel class: an identifier plus
// an ordered mapping from feature name to value. The order reflects the
// sequence in which features were first set, not the class's declaration
// order, and updating an already-set feature keeps its position.
//
// Objects are created detached and handed to a Resource via Add or Register;
// from then on the resource's Get/Set surface is the sanctioned access path,
// since only it maintains containment bookkeeping.
type Object struct {
	id    ID
	class string
	order []string
	slots map[string]Value
}

// NewObject creates a detached object of the given class with a fresh id.
func NewObject(class string) *Object {
	return &Object{
		id:    NewID(),
		class: class,
		slots: make(map[string]Value),
	}
}

// ID returns the object's identifier.
func (o *Object) ID() ID { return o.id }

// Class returns the name of the object's class descriptor.
func (o *Object) Class() string { return o.class }

// Get returns the feature's value, or Unset if it was never set. An unset
// feature is distinct from one set to an empty or zero value.
func (o *Object) Get(feature string) Value {
	v, ok := o.slots[feature]
	if !ok {
		return Unset
	}
	return v
}

// IsSet reports whether the feature is present in the order.
func (o *Object) IsSet(feature string) bool {
	_, ok := o.slots[feature]
	return ok
}

// Set stores the feature value, appending the feature to the order if it is
// new and updating in place otherwise.
func (o *Object) Set(feature string, v Value) {
	if _, ok := o.slots[feature]; !ok {
		o.order = append(o.order, feature)
	}
	o.slots[feature] = v
}

// Unset removes the feature from both the value map and the order.
func (o *Object) Unset(feature string) {
	if _, ok := o.slots[feature]; !ok {
		return
	}
	delete(o.slots, feature)
	for i, name := range o.order {
		if name == feature {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

// FeatureOrder returns the currently-set feature names in first-set order.
func (o *Object) FeatureOrder() []string {
	return append([]string(nil), o.order...)
}

// snapshot returns a deep-enough copy for read-only use outside the
// resource lock. Values are immutable by construction, so sharing them
// is safe; only the order slice and slot map need copying.
func (o *Object) snapshot() *Object {
	cp := &Object{
		id:    o.id,
		class: o.class,
		order: append([]string(nil), o.order...),
		slots: make(map[string]Value, len(o.slots)),
	}
	for k, v := range o.slots {
		cp.slots[k] = v
	}
	return cp
}
