// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package scene

import (
	"errors"
	"fmt"
)

// ErrObjectNotFound indicates an id that resolves to no project instance.
var ErrObjectNotFound = errors.New("object not in project")

// ErrDuplicateObject indicates an arena insert with an id already present.
var ErrDuplicateObject = errors.New("object id already in project")

// ErrObjectAttached indicates an arena removal of a still-placed object.
var ErrObjectAttached = errors.New("object still attached to the scenegraph")

// ErrInvalidHandle indicates a property path that does not resolve.
var ErrInvalidHandle = errors.New("property handle does not resolve")

// ErrInvalidIndex indicates an insertion index outside the target's bounds.
var ErrInvalidIndex = errors.New("insertion index out of bounds")

// ErrLinkExists indicates an add of a link whose end is already occupied.
var ErrLinkExists = errors.New("end property already linked")

// ErrLinkNotFound indicates a lookup of a link that is not in the graph.
var ErrLinkNotFound = errors.New("link not in project")

// ErrReadOnly indicates a mutation of prefab-instance or external-reference
// content.
var ErrReadOnly = errors.New("target is read-only")

// ErrTargetLinked indicates a direct write to a property driven by a link.
var ErrTargetLinked = errors.New("property is driven by a link")

// ErrLinkNotAllowed indicates a link that fails the legality rules.
var ErrLinkNotAllowed = errors.New("link not allowed")

// ErrRefNotAllowed indicates a reference write whose target kind the slot
// does not accept.
var ErrRefNotAllowed = errors.New("reference target not allowed")

// ErrRefLoop indicates a template reference that would make a prefab
// contain itself through a chain of instances.
var ErrRefLoop = errors.New("reference would form a template loop")

// ErrNotDeletable indicates a delete of an object the deletability rules
// retain.
var ErrNotDeletable = errors.New("object not deletable")

// ErrNotMoveable indicates a scenegraph move the moveability rules refuse.
var ErrNotMoveable = errors.New("object not moveable")

// ErrFixedSizeArray indicates a resize of an array with fixed semantics.
var ErrFixedSizeArray = errors.New("array has a fixed size")

// ErrFeatureLevel indicates use of a kind or property gated above the
// project's feature level.
var ErrFeatureLevel = errors.New("blocked by project feature level")

// ExtrefError is the dedicated failure type for external-reference
// consistency problems: content divergence between copies of the same
// source object, or a reference cycle between documents. It is distinct
// from precondition errors because recovery may require restoring the undo
// stack, not just dropping one call.
type ExtrefError struct {
	SourceProjectID string
	Reason          string
}

func (e *ExtrefError) Error() string {
	if e.SourceProjectID == "" {
		return fmt.Sprintf("external reference error: %s", e.Reason)
	}
	return fmt.Sprintf("external reference error (source project %s): %s", e.SourceProjectID, e.Reason)
}
