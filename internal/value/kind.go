// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package value

// Kind tags every value in a property tree. The set is closed: scene data
// never carries a value outside this enumeration, and every access checks
// the tag instead of relying on reflection.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBool
	KindInt
	KindInt64
	KindDouble
	KindString
	KindVec2f
	KindVec3f
	KindVec4f
	KindVec2i
	KindVec3i
	KindVec4i
	KindRef
	KindTable
	KindStruct
	KindArray
)

var kindNames = map[Kind]string{
	KindBool:   "Bool",
	KindInt:    "Int",
	KindInt64:  "Int64",
	KindDouble: "Double",
	KindString: "String",
	KindVec2f:  "Vec2f",
	KindVec3f:  "Vec3f",
	KindVec4f:  "Vec4f",
	KindVec2i:  "Vec2i",
	KindVec3i:  "Vec3i",
	KindVec4i:  "Vec4i",
	KindRef:    "Ref",
	KindTable:  "Table",
	KindStruct: "Struct",
	KindArray:  "Array",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// KindFromString maps a serialized type tag back to its Kind.
func KindFromString(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindUnknown, false
}

// IsScalar reports whether the kind is a single primitive slot.
func (k Kind) IsScalar() bool {
	switch k {
	case KindBool, KindInt, KindInt64, KindDouble, KindString, KindRef:
		return true
	}
	return false
}

// IsVector reports whether the kind is a fixed-size numeric vector.
func (k Kind) IsVector() bool {
	return k >= KindVec2f && k <= KindVec4i
}

// IsContainer reports whether the kind owns child properties.
func (k Kind) IsContainer() bool {
	return k == KindTable || k == KindStruct || k == KindArray
}

// VectorLen returns the component count of a vector kind, or 0.
func (k Kind) VectorLen() int {
	switch k {
	case KindVec2f, KindVec2i:
		return 2
	case KindVec3f, KindVec3i:
		return 3
	case KindVec4f, KindVec4i:
		return 4
	}
	return 0
}

// VectorElem returns KindDouble or KindInt for vector kinds, or KindUnknown.
func (k Kind) VectorElem() Kind {
	switch k {
	case KindVec2f, KindVec3f, KindVec4f:
		return KindDouble
	case KindVec2i, KindVec3i, KindVec4i:
		return KindInt
	}
	return KindUnknown
}
