// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package engine

import (
	"github.com/sceneforge/sceneforge/internal/value"
)

// Compatible reports whether a link from start to end would carry values
// without loss. Identical shapes always match; beyond that a closed
// coercion table applies: Int widens to Int64, and structs whose fields
// are all Double or all Int with a vector's arity convert to and from
// that vector. Field names never matter for the vector conversions, only
// the count. Arrays compare element shape and current length, so growing
// an array can break a link that was fine when it was made.
func Compatible(start, end *value.Property) bool {
	if sameShape(start, end) {
		return true
	}
	for _, rule := range coercions {
		if rule(start, end) {
			return true
		}
	}
	return false
}

// Compatible satisfies the oracle interface the query layer consumes.
func (e *Engine) Compatible(start, end *value.Property) bool {
	return Compatible(start, end)
}

type coercionRule func(start, end *value.Property) bool

var coercions = []coercionRule{
	intWidens,
	structToFloatVec,
	floatVecToStruct,
	structToIntVec,
	intVecToStruct,
}

func intWidens(start, end *value.Property) bool {
	return start.Kind() == value.KindInt && end.Kind() == value.KindInt64
}

func structToFloatVec(start, end *value.Property) bool {
	return end.Kind().IsVector() && end.Kind().VectorElem() == value.KindDouble &&
		structOf(start, value.KindDouble, end.Kind().VectorLen())
}

func floatVecToStruct(start, end *value.Property) bool {
	return start.Kind().IsVector() && start.Kind().VectorElem() == value.KindDouble &&
		structOf(end, value.KindDouble, start.Kind().VectorLen())
}

func structToIntVec(start, end *value.Property) bool {
	return end.Kind().IsVector() && end.Kind().VectorElem() == value.KindInt &&
		structOf(start, value.KindInt, end.Kind().VectorLen())
}

func intVecToStruct(start, end *value.Property) bool {
	return start.Kind().IsVector() && start.Kind().VectorElem() == value.KindInt &&
		structOf(end, value.KindInt, start.Kind().VectorLen())
}

// structOf reports whether p is a struct of exactly n fields all of the
// given scalar kind.
func structOf(p *value.Property, kind value.Kind, n int) bool {
	if p.Kind() != value.KindStruct || p.Len() != n {
		return false
	}
	for i := 0; i < n; i++ {
		child, ok := p.Child(i)
		if !ok || child.Kind() != kind {
			return false
		}
	}
	return true
}

// sameShape is the exact structural match: equal kinds, and for
// containers equal children pairwise. Struct fields must agree on name
// and shape in order. Tables and references never link as a whole.
func sameShape(a, b *value.Property) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case value.KindTable, value.KindRef, value.KindUnknown:
		return false
	case value.KindStruct:
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			ac, _ := a.Child(i)
			bc, _ := b.Child(i)
			if ac.Name() != bc.Name() || !sameShape(ac, bc) {
				return false
			}
		}
		return true
	case value.KindArray:
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			ac, _ := a.Child(i)
			bc, _ := b.Child(i)
			if !sameShape(ac, bc) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
