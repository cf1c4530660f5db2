// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package value implements the typed property containers scene objects are
// built from: a closed tagged variant over scalars, fixed-size vectors,
// object references and nested containers, plus the static annotation
// metadata that drives range clamping, link eligibility and feature gating.
package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Value is one dynamic property payload. The kind tag decides which field
// is live; container kinds own an ordered list of child properties.
type Value struct {
	kind  Kind
	b     bool
	i     int64 // Int and Int64
	f     float64
	s     string
	vf    [4]float64 // float vectors
	vi    [4]int32   // int vectors
	ref   ulid.ULID  // zero id = empty reference
	elems []*Property
}

// NewBool builds a Bool value.
func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

// NewInt builds an Int value.
func NewInt(i int32) Value { return Value{kind: KindInt, i: int64(i)} }

// NewInt64 builds an Int64 value.
func NewInt64(i int64) Value { return Value{kind: KindInt64, i: i} }

// NewDouble builds a Double value.
func NewDouble(f float64) Value { return Value{kind: KindDouble, f: f} }

// NewString builds a String value.
func NewString(s string) Value { return Value{kind: KindString, s: s} }

// NewRef builds a reference value. The zero id is the empty reference.
func NewRef(id ulid.ULID) Value { return Value{kind: KindRef, ref: id} }

// NewVec2f builds a two-component float vector.
func NewVec2f(x, y float64) Value {
	return Value{kind: KindVec2f, vf: [4]float64{x, y}}
}

// NewVec3f builds a three-component float vector.
func NewVec3f(x, y, z float64) Value {
	return Value{kind: KindVec3f, vf: [4]float64{x, y, z}}
}

// NewVec4f builds a four-component float vector.
func NewVec4f(x, y, z, w float64) Value {
	return Value{kind: KindVec4f, vf: [4]float64{x, y, z, w}}
}

// NewVec2i builds a two-component int vector.
func NewVec2i(x, y int32) Value {
	return Value{kind: KindVec2i, vi: [4]int32{x, y}}
}

// NewVec3i builds a three-component int vector.
func NewVec3i(x, y, z int32) Value {
	return Value{kind: KindVec3i, vi: [4]int32{x, y, z}}
}

// NewVec4i builds a four-component int vector.
func NewVec4i(x, y, z, w int32) Value {
	return Value{kind: KindVec4i, vi: [4]int32{x, y, z, w}}
}

// NewFloatVec builds a float vector from a slice of length 2, 3 or 4.
func NewFloatVec(components []float64) (Value, bool) {
	var v Value
	switch len(components) {
	case 2:
		v.kind = KindVec2f
	case 3:
		v.kind = KindVec3f
	case 4:
		v.kind = KindVec4f
	default:
		return Value{}, false
	}
	copy(v.vf[:], components)
	return v, true
}

// NewIntVec builds an int vector from a slice of length 2, 3 or 4.
func NewIntVec(components []int32) (Value, bool) {
	var v Value
	switch len(components) {
	case 2:
		v.kind = KindVec2i
	case 3:
		v.kind = KindVec3i
	case 4:
		v.kind = KindVec4i
	default:
		return Value{}, false
	}
	copy(v.vi[:], components)
	return v, true
}

// Kind returns the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// AsBool returns the payload of a Bool value.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns the payload of an Int value.
func (v Value) AsInt() (int32, bool) {
	return int32(v.i), v.kind == KindInt
}

// AsInt64 returns the payload of an Int64 value.
func (v Value) AsInt64() (int64, bool) {
	return v.i, v.kind == KindInt64
}

// AsDouble returns the payload of a Double value.
func (v Value) AsDouble() (float64, bool) {
	return v.f, v.kind == KindDouble
}

// AsString returns the payload of a String value.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsRef returns the target id of a Ref value. The zero id means the
// reference is empty.
func (v Value) AsRef() (ulid.ULID, bool) {
	return v.ref, v.kind == KindRef
}

// FloatVec returns a copy of a float vector's components.
func (v Value) FloatVec() ([]float64, bool) {
	if v.kind.VectorElem() != KindDouble {
		return nil, false
	}
	n := v.kind.VectorLen()
	out := make([]float64, n)
	copy(out, v.vf[:n])
	return out, true
}

// IntVec returns a copy of an int vector's components.
func (v Value) IntVec() ([]int32, bool) {
	if v.kind.VectorElem() != KindInt {
		return nil, false
	}
	n := v.kind.VectorLen()
	out := make([]int32, n)
	copy(out, v.vi[:n])
	return out, true
}

// Children returns the child properties of a container value. The returned
// slice aliases the value's own storage.
func (v Value) Children() []*Property {
	return v.elems
}

// Clone returns a deep copy. Child properties are copied recursively;
// specs stay shared, they are immutable.
func (v Value) Clone() Value {
	out := v
	if len(v.elems) > 0 {
		out.elems = make([]*Property, len(v.elems))
		for i, child := range v.elems {
			out.elems[i] = child.Clone()
		}
	}
	return out
}

// Equal reports deep equality: identical kinds and identical payloads,
// recursing through container children by name, spec kind and value.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBool:
		return a.b == b.b
	case KindInt, KindInt64:
		return a.i == b.i
	case KindDouble:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindRef:
		return a.ref == b.ref
	case KindVec2f, KindVec3f, KindVec4f:
		n := a.kind.VectorLen()
		for i := 0; i < n; i++ {
			if a.vf[i] != b.vf[i] {
				return false
			}
		}
		return true
	case KindVec2i, KindVec3i, KindVec4i:
		n := a.kind.VectorLen()
		for i := 0; i < n; i++ {
			if a.vi[i] != b.vi[i] {
				return false
			}
		}
		return true
	case KindTable, KindStruct, KindArray:
		if len(a.elems) != len(b.elems) {
			return false
		}
		for i := range a.elems {
			ca, cb := a.elems[i], b.elems[i]
			if ca.name != cb.name || ca.spec.Kind != cb.spec.Kind {
				return false
			}
			if !Equal(ca.value, cb.value) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders a short debug form; rich formatting lives in pkg/forge.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("Bool(%t)", v.b)
	case KindInt:
		return fmt.Sprintf("Int(%d)", int32(v.i))
	case KindInt64:
		return fmt.Sprintf("Int64(%d)", v.i)
	case KindDouble:
		return fmt.Sprintf("Double(%s)", strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		return fmt.Sprintf("String(%q)", v.s)
	case KindRef:
		if v.ref == (ulid.ULID{}) {
			return "Ref(<empty>)"
		}
		return fmt.Sprintf("Ref(%s)", v.ref)
	case KindVec2f, KindVec3f, KindVec4f:
		parts := make([]string, v.kind.VectorLen())
		for i := range parts {
			parts[i] = strconv.FormatFloat(v.vf[i], 'g', -1, 64)
		}
		return fmt.Sprintf("%s(%s)", v.kind, strings.Join(parts, ", "))
	case KindVec2i, KindVec3i, KindVec4i:
		parts := make([]string, v.kind.VectorLen())
		for i := range parts {
			parts[i] = strconv.FormatInt(int64(v.vi[i]), 10)
		}
		return fmt.Sprintf("%s(%s)", v.kind, strings.Join(parts, ", "))
	case KindTable, KindStruct, KindArray:
		return fmt.Sprintf("%s{%d}", v.kind, len(v.elems))
	}
	return "Unknown"
}

// DefaultValue builds the zero value for a spec: false, 0, empty string,
// empty reference, zero vectors, structs with default fields, and empty
// tables and arrays.
func DefaultValue(s *Spec) Value {
	v := Value{kind: s.Kind}
	if s.Kind == KindStruct {
		v.elems = make([]*Property, 0, len(s.Fields))
		for _, f := range s.Fields {
			v.elems = append(v.elems, &Property{
				name:  f.Name,
				spec:  f.Spec,
				value: DefaultValue(f.Spec),
			})
		}
	}
	return v
}
