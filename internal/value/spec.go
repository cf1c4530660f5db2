// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package value

// FieldSpec names one fixed field of a struct spec.
type FieldSpec struct {
	Name string
	Spec *Spec
}

// Spec is the static type of a property: its kind, the shape of its
// children for containers, the object kinds a reference may point at, and
// the closed annotation set. Specs are built once by the object factory (or
// by engine sync for dynamic tables) and shared read-only afterwards.
type Spec struct {
	Kind        Kind
	ElemSpec    *Spec       // Array: spec of every element
	StructType  string      // Struct: stable name of the field layout
	Fields      []FieldSpec // Struct: fixed field list, in order
	RefKinds    []string    // Ref: allowed target object kinds, empty = any
	Annotations []Annotation
}

// ScalarSpec builds a spec for a scalar or vector kind with the given
// annotations.
func ScalarSpec(kind Kind, annotations ...Annotation) *Spec {
	return &Spec{Kind: kind, Annotations: annotations}
}

// RefSpec builds a reference spec restricted to the given object kinds.
func RefSpec(kinds []string, annotations ...Annotation) *Spec {
	return &Spec{Kind: KindRef, RefKinds: kinds, Annotations: annotations}
}

// TableSpec builds an empty dynamic table spec.
func TableSpec(annotations ...Annotation) *Spec {
	return &Spec{Kind: KindTable, Annotations: annotations}
}

// StructSpec builds a fixed-field struct spec.
func StructSpec(structType string, fields []FieldSpec, annotations ...Annotation) *Spec {
	return &Spec{Kind: KindStruct, StructType: structType, Fields: fields, Annotations: annotations}
}

// ArraySpec builds an array spec over one element spec.
func ArraySpec(elem *Spec, annotations ...Annotation) *Spec {
	return &Spec{Kind: KindArray, ElemSpec: elem, Annotations: annotations}
}

// IsLinkStart reports link-start eligibility.
func (s *Spec) IsLinkStart() bool { return HasAnnotation[LinkStart](s) }

// IsLinkEnd reports link-end eligibility.
func (s *Spec) IsLinkEnd() bool { return HasAnnotation[LinkEnd](s) }

// IsVolatile reports whether writes bypass undo, propagation and read-only
// checks.
func (s *Spec) IsVolatile() bool { return HasAnnotation[Volatile](s) }

// IsHidden reports whether the property is internal bookkeeping.
func (s *Spec) IsHidden() bool { return HasAnnotation[Hidden](s) }

// IsFixedSize reports whether an array refuses resizing.
func (s *Spec) IsFixedSize() bool { return HasAnnotation[FixedSize](s) }

// IsURI reports whether the property holds a document-relative file path.
func (s *Spec) IsURI() bool { return HasAnnotation[URI](s) }

// FeatureLevel returns the minimum project feature level for this property.
// Ungated properties report 1.
func (s *Spec) FeatureLevel() int {
	if gate, ok := FindAnnotation[FeatureGate](s); ok {
		return gate.Min
	}
	return 1
}

// Clamp applies range annotations to a candidate value, returning the
// clamped copy. Kinds without a matching range annotation pass through.
func (s *Spec) Clamp(v Value) Value {
	if r, ok := FindAnnotation[RangeDouble](s); ok {
		switch v.kind {
		case KindDouble:
			v.f = clampFloat(v.f, r.Min, r.Max)
		case KindVec2f, KindVec3f, KindVec4f:
			for i := 0; i < v.kind.VectorLen(); i++ {
				v.vf[i] = clampFloat(v.vf[i], r.Min, r.Max)
			}
		}
	}
	if r, ok := FindAnnotation[RangeInt](s); ok {
		switch v.kind {
		case KindInt:
			v.i = int64(clampInt(int32(v.i), r.Min, r.Max))
		case KindInt64:
			v.i = clampInt64(v.i, int64(r.Min), int64(r.Max))
		case KindVec2i, KindVec3i, KindVec4i:
			for i := 0; i < v.kind.VectorLen(); i++ {
				v.vi[i] = clampInt(v.vi[i], r.Min, r.Max)
			}
		}
	}
	return v
}

// CheckEnum verifies enumeration membership for Int writes. Non-enumerated
// specs accept everything.
func (s *Spec) CheckEnum(v Value) error {
	enum, ok := FindAnnotation[Enumeration](s)
	if !ok || v.kind != KindInt {
		return nil
	}
	values, ok := EnumValues(enum.ID)
	if !ok {
		return nil
	}
	if _, member := values[int32(v.i)]; !member {
		return ErrEnumViolation
	}
	return nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
