// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package edit

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/undo"
)

// PlaceObject puts an object at a position in a parent's child list without
// moveability policy. Prefab propagation uses this to keep mirrored children
// in template order; index is the final position, -1 appends. Reports whether
// the object actually moved.
func (c *Context) PlaceObject(id, parent ulid.ULID, index int) (bool, error) {
	obj, ok := c.p.Object(id)
	if !ok {
		return false, oops.With("object_id", id.String()).Wrap(scene.ErrObjectNotFound)
	}
	if !core.NilID(parent) && !c.p.Contains(parent) {
		return false, oops.With("parent_id", parent.String()).Wrap(scene.ErrObjectNotFound)
	}
	// The object leaves its old slot before rejoining, so a same-parent
	// placement has one slot fewer to land in.
	limit := c.p.ChildCount(parent)
	if obj.Parent == parent {
		limit--
	}
	if index != -1 && (index < 0 || index > limit) {
		return false, oops.With("index", index).With("children", limit).Wrap(scene.ErrInvalidIndex)
	}
	fromIndex := childIndex(c.p, obj)
	if obj.Parent == parent && (index == fromIndex || (index == -1 && fromIndex == limit)) {
		return false, nil
	}
	op := &undo.MoveOp{
		Object:     id,
		FromParent: obj.Parent,
		FromIndex:  fromIndex,
		ToParent:   parent,
		ToIndex:    index,
	}
	if err := c.apply(op); err != nil {
		return false, err
	}
	return true, nil
}

// RenameObject writes an object's name without the read-only check. Prefab
// propagation and extref updates rename mirrored content the user could not.
// Reports whether the name changed.
func (c *Context) RenameObject(id ulid.ULID, name string) (bool, error) {
	obj, ok := c.p.Object(id)
	if !ok {
		return false, oops.With("object_id", id.String()).Wrap(scene.ErrObjectNotFound)
	}
	if obj.Name == name {
		return false, nil
	}
	if err := c.apply(&undo.NameOp{Object: id, Before: obj.Name, After: name}); err != nil {
		return false, err
	}
	return true, nil
}

// PutLink installs a link exactly as given, skipping the legality check and
// carrying the Weak and Valid flags of the caller. Mirroring writers install
// edges that already passed legality in their source document. An identical
// existing link is left alone; a different link on the same end is replaced.
func (c *Context) PutLink(link scene.Link) (bool, error) {
	if existing, ok := c.p.Links().ByEnd(link.End); ok {
		if existing.Start.Equal(link.Start) && existing.Weak == link.Weak && existing.Valid == link.Valid {
			return false, nil
		}
		if err := c.apply(&undo.LinkRemoveOp{Link: *existing}); err != nil {
			return false, err
		}
	}
	stored := scene.Link{
		Start: cloneRef(link.Start),
		End:   cloneRef(link.End),
		Weak:  link.Weak,
		Valid: link.Valid,
	}
	if err := c.apply(&undo.LinkAddOp{Link: stored}); err != nil {
		return false, err
	}
	return true, nil
}

// SetExternalProject records or rewrites one row of the external-project
// table. Reports whether the row changed.
func (c *Context) SetExternalProject(sourceID string, entry scene.ExternalProject) (bool, error) {
	op := &undo.ExternalProjectOp{SourceID: sourceID, After: &entry}
	if current, ok := c.p.ExternalProject(sourceID); ok {
		if current == entry {
			return false, nil
		}
		before := current
		op.Before = &before
	}
	if err := c.apply(op); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveExternalProject drops a row of the external-project table. Removing
// an absent row is a no-op.
func (c *Context) RemoveExternalProject(sourceID string) (bool, error) {
	current, ok := c.p.ExternalProject(sourceID)
	if !ok {
		return false, nil
	}
	before := current
	if err := c.apply(&undo.ExternalProjectOp{SourceID: sourceID, Before: &before}); err != nil {
		return false, err
	}
	return true, nil
}

// PutDiagnostic records a leveled item on an object or property slot,
// replacing any previous item there. Reports whether the stored content
// changed.
func (c *Context) PutDiagnostic(item scene.Diagnostic) bool {
	op := &undo.DiagnosticOp{Object: item.Object, Path: item.Path, After: &item}
	if current, ok := c.p.Diagnostics().Get(item.Object, item.Path); ok {
		if current.Level == item.Level && current.Category == item.Category && current.Message == item.Message {
			return false
		}
		before := current
		op.Before = &before
	}
	// Diagnostics ops cannot fail.
	_ = c.apply(op)
	return true
}

// ClearDiagnosticCategory removes every item of one category attached to an
// object or its properties, reporting how many were removed.
func (c *Context) ClearDiagnosticCategory(object ulid.ULID, category scene.DiagCategory) int {
	n := 0
	for _, item := range c.p.Diagnostics().ForObject(object) {
		if item.Category != category {
			continue
		}
		before := item
		_ = c.apply(&undo.DiagnosticOp{Object: item.Object, Path: item.Path, Before: &before})
		n++
	}
	return n
}
