// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package edit

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/undo"
	"github.com/sceneforge/sceneforge/internal/value"
)

// DeleteObjects removes the deletable subset of the given objects with
// their subtrees. Links touching removed objects are dropped, surviving
// ref-properties pointing at removed objects are cleared, and diagnostics
// on removed objects disappear. Returns the number of objects removed.
func (c *Context) DeleteObjects(ids ...ulid.ULID) (int, error) {
	deletable := query.FilterForDeleteableObjects(c.p, ids)
	if len(deletable) == 0 {
		return 0, nil
	}
	return c.deleteSubtrees(deletable)
}

// RemoveSubtree removes one object and its descendants without
// deletability policy. Prefab propagation and extref updates remove
// content the user could not. Returns the number of objects removed.
func (c *Context) RemoveSubtree(root ulid.ULID) (int, error) {
	if !c.p.Contains(root) {
		return 0, oops.With("object_id", root.String()).Wrap(scene.ErrObjectNotFound)
	}
	return c.deleteSubtrees([]ulid.ULID{root})
}

func (c *Context) deleteSubtrees(roots []ulid.ULID) (int, error) {
	removal := make(map[ulid.ULID]struct{})
	var removalIDs []ulid.ULID
	for _, root := range roots {
		for _, member := range c.p.SubtreeIDs(root) {
			if _, dup := removal[member]; dup {
				continue
			}
			removal[member] = struct{}{}
			removalIDs = append(removalIDs, member)
		}
	}

	// Diagnostics first, then links, then ref scrubbing, then the objects
	// bottom-up. Reverting runs the other way around, so objects exist
	// again before links and diagnostics come back.
	for _, id := range removalIDs {
		for _, item := range c.p.Diagnostics().ForObject(id) {
			before := item
			if err := c.apply(&undo.DiagnosticOp{Object: item.Object, Path: item.Path, Before: &before, After: nil}); err != nil {
				return 0, err
			}
		}
	}

	touched := c.survivingNeighbors(removalIDs, removal)
	for _, l := range query.LinksConnectedTo(c.p, removalIDs, true, true) {
		if err := c.apply(&undo.LinkRemoveOp{Link: *l}); err != nil {
			return 0, err
		}
	}

	if err := c.scrubDanglingRefs(removal, removalIDs); err != nil {
		return 0, err
	}

	removed := make(map[ulid.ULID]struct{}, len(removal))
	for _, root := range roots {
		if _, done := removed[root]; done {
			continue
		}
		subtree := c.p.SubtreeIDs(root)
		for i := len(subtree) - 1; i >= 0; i-- {
			id := subtree[i]
			if _, done := removed[id]; done {
				continue
			}
			obj, ok := c.p.Object(id)
			if !ok {
				continue
			}
			op := &undo.DeleteOp{
				Snapshot: obj.Clone(),
				Parent:   obj.Parent,
				Index:    childIndex(c.p, obj),
			}
			if err := c.apply(op); err != nil {
				return 0, err
			}
			removed[id] = struct{}{}
		}
	}

	c.refreshLinkDiagnostics(touched)
	return len(removed), nil
}

// scrubDanglingRefs clears every surviving ref-property that points into
// the removal set.
func (c *Context) scrubDanglingRefs(removal map[ulid.ULID]struct{}, removalIDs []ulid.ULID) error {
	for _, ref := range query.FindAllReferencesTo(c.p, removalIDs) {
		if _, gone := removal[ref.From.Object]; gone {
			continue
		}
		if _, err := c.WriteProperty(ref.From, value.NewRef(ulid.ULID{})); err != nil {
			return err
		}
	}
	return nil
}

// survivingNeighbors collects the link partners of removed objects that
// stay alive; their broken-link diagnostics need a refresh afterwards.
func (c *Context) survivingNeighbors(removalIDs []ulid.ULID, removal map[ulid.ULID]struct{}) []ulid.ULID {
	seen := make(map[ulid.ULID]struct{})
	var out []ulid.ULID
	for _, l := range query.LinksConnectedTo(c.p, removalIDs, true, true) {
		for _, id := range []ulid.ULID{l.Start.Object, l.End.Object} {
			if _, gone := removal[id]; gone {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
