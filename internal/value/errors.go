// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package value

import (
	"errors"
	"fmt"
)

// ErrInvalidPropertyName indicates a property name outside the legal grammar.
var ErrInvalidPropertyName = errors.New("invalid property name")

// ErrDuplicateChild indicates a second child with the same name in one container.
var ErrDuplicateChild = errors.New("duplicate child property name")

// ErrNotAContainer indicates a child operation on a scalar or vector property.
var ErrNotAContainer = errors.New("property is not a container")

// ErrChildNotFound indicates no child matched a path segment.
var ErrChildNotFound = errors.New("child property not found")

// ErrIndexOutOfRange indicates an array index outside the current length.
var ErrIndexOutOfRange = errors.New("array index out of range")

// ErrEnumViolation indicates a write outside an enumeration's legal values.
var ErrEnumViolation = errors.New("value not a member of the enumeration")

// SpecMismatchError reports a value whose kind does not satisfy the
// property's static spec.
type SpecMismatchError struct {
	Want Kind
	Got  Kind
}

func (e *SpecMismatchError) Error() string {
	return fmt.Sprintf("value kind %s does not match property type %s", e.Got, e.Want)
}
