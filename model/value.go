package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the variants of a feature Value.
type Kind int

const (
	KindUnset Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindEnum
	KindRef
	KindProxy
	KindList
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUnset:
		return "unset"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	case KindRef:
		return "ref"
	case KindProxy:
		return "proxy"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is the tagged variant stored in an object's feature slot: a
// primitive scalar, an enum literal, an identifier reference, an unresolved
// proxy, or an ordered list of any of those. The zero Value is the unset
// sentinel, distinct from an empty string, zero number, or empty list.
type Value struct {
	kind  Kind
	str   string // KindString payload, or the enum literal name
	num   int64
	fl    float64
	b     bool
	id    ID
	proxy Proxy
	list  []Value
}

// Unset is the sentinel for a feature that was never set.
var Unset = Value{}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, num: i} }

// Float returns a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, fl: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// EnumValue returns an enum literal value identified by its literal name.
func EnumValue(literal string) Value { return Value{kind: KindEnum, str: literal} }

// Ref returns an identifier reference value.
func Ref(id ID) Value { return Value{kind: KindRef, id: id} }

// ProxyValue returns an unresolved cross-resource reference value.
func ProxyValue(p Proxy) Value { return Value{kind: KindProxy, proxy: p} }

// List returns an ordered multi-value. The elements are copied.
func List(elems ...Value) Value {
	return Value{kind: KindList, list: append([]Value(nil), elems...)}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsUnset reports whether the value is the unset sentinel.
func (v Value) IsUnset() bool { return v.kind == KindUnset }

// AsString returns the string payload.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.num, true
}

// AsFloat returns the floating-point payload.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.fl, true
}

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsEnum returns the enum literal name.
func (v Value) AsEnum() (string, bool) {
	if v.kind != KindEnum {
		return "", false
	}
	return v.str, true
}

// AsRef returns the referenced identifier.
func (v Value) AsRef() (ID, bool) {
	if v.kind != KindRef {
		return "", false
	}
	return v.id, true
}

// AsProxy returns the proxy payload.
func (v Value) AsProxy() (Proxy, bool) {
	if v.kind != KindProxy {
		return Proxy{}, false
	}
	return v.proxy, true
}

// AsList returns a copy of the list elements.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return append([]Value(nil), v.list...), true
}

// Len returns the element count for lists, 1 for set scalars, 0 for unset.
func (v Value) Len() int {
	switch v.kind {
	case KindUnset:
		return 0
	case KindList:
		return len(v.list)
	default:
		return 1
	}
}

// Appended returns a list value with elem appended. An unset receiver yields
// a single-element list; a scalar receiver is promoted to a two-element list.
func (v Value) Appended(elem Value) Value {
	switch v.kind {
	case KindUnset:
		return List(elem)
	case KindList:
		out := make([]Value, 0, len(v.list)+1)
		out = append(out, v.list...)
		out = append(out, elem)
		return Value{kind: KindList, list: out}
	default:
		return List(v, elem)
	}
}

// Refs returns the identifiers held by a ref scalar or a list of refs.
// Proxies and non-ref elements are skipped.
func (v Value) Refs() []ID {
	switch v.kind {
	case KindRef:
		return []ID{v.id}
	case KindList:
		var out []ID
		for _, e := range v.list {
			if id, ok := e.AsRef(); ok {
				out = append(out, id)
			}
		}
		return out
	default:
		return nil
	}
}

// Equal reports deep structural equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUnset:
		return true
	case KindString, KindEnum:
		return v.str == o.str
	case KindInt:
		return v.num == o.num
	case KindFloat:
		return v.fl == o.fl
	case KindBool:
		return v.b == o.b
	case KindRef:
		return v.id == o.id
	case KindProxy:
		return v.proxy == o.proxy
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindUnset:
		return "<unset>"
	case KindString:
		return strconv.Quote(v.str)
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.fl, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindEnum:
		return v.str
	case KindRef:
		return "ref(" + string(v.id) + ")"
	case KindProxy:
		return "proxy(" + v.proxy.String() + ")"
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("<kind %d>", int(v.kind))
	}
}
