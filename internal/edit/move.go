// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package edit

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/undo"
)

// MoveScenegraphChildren re-parents the moveable subset of the given
// objects, preserving their relative order. insertBeforeIndex counts
// against the target's current children (-1 appends); the zero parent id
// targets the top level. Returns the number of objects moved.
func (c *Context) MoveScenegraphChildren(ids []ulid.ULID, newParent ulid.ULID, insertBeforeIndex int) (int, error) {
	if !core.NilID(newParent) && !c.p.Contains(newParent) {
		return 0, oops.With("parent_id", newParent.String()).Wrap(scene.ErrObjectNotFound)
	}
	if insertBeforeIndex != -1 && (insertBeforeIndex < 0 || insertBeforeIndex > c.p.ChildCount(newParent)) {
		return 0, oops.
			With("index", insertBeforeIndex).
			With("children", c.p.ChildCount(newParent)).
			Wrap(scene.ErrInvalidIndex)
	}

	moveable := query.FilterForMoveableScenegraphChildren(c.p, ids, newParent)
	if len(moveable) == 0 {
		return 0, nil
	}

	target := insertBeforeIndex
	for _, id := range moveable {
		obj, ok := c.p.Object(id)
		if !ok {
			continue
		}
		fromParent := obj.Parent
		fromIndex := childIndex(c.p, obj)
		toIndex := target
		// Detaching from the same list shifts everything after the old
		// slot one to the left.
		if toIndex != -1 && fromParent == newParent && fromIndex < toIndex {
			toIndex--
		}
		op := &undo.MoveOp{
			Object:     id,
			FromParent: fromParent,
			FromIndex:  fromIndex,
			ToParent:   newParent,
			ToIndex:    toIndex,
		}
		if err := c.apply(op); err != nil {
			return 0, err
		}
		if target != -1 {
			target = toIndex + 1
		}
	}
	return len(moveable), nil
}
