// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package edit

import (
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/serialization"
	"github.com/sceneforge/sceneforge/internal/undo"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
)

// CopyObjects serializes the given objects with their subtrees into a
// clipboard blob. A deep copy additionally pulls in every transitively
// referenced object. The settings singleton never copies.
func (c *Context) CopyObjects(ids []ulid.ULID, deep bool) ([]byte, error) {
	closure := c.copyClosure(ids, deep)
	if len(closure) == 0 {
		return nil, oops.With("requested", len(ids)).Wrap(scene.ErrObjectNotFound)
	}
	fragment, err := serialization.EncodeClipboard(c.p, closure)
	if err != nil {
		return nil, err
	}
	return fragment.Marshal()
}

// CutObjects copies the given objects, then deletes their deletable
// subset. Returns the blob and the number of objects removed.
func (c *Context) CutObjects(ids []ulid.ULID, deep bool) ([]byte, int, error) {
	blob, err := c.CopyObjects(ids, deep)
	if err != nil {
		return nil, 0, err
	}
	removed, err := c.DeleteObjects(ids...)
	if err != nil {
		return nil, 0, err
	}
	return blob, removed, nil
}

// PasteObjects materializes a clipboard blob as fresh objects. Every
// pasted object gets a new id; refs and links between pasted objects are
// remapped consistently, refs to objects alive in this project are kept,
// and everything else is cleared. Roots attach under target when it
// accepts children, else at the top level, with name collisions among the
// new siblings resolved by a numeric suffix. Returns the new root ids.
func (c *Context) PasteObjects(blob []byte, target ulid.ULID) ([]ulid.ULID, error) {
	fragment, err := serialization.DecodeClipboard(blob)
	if err != nil {
		return nil, err
	}
	sources, err := fragment.Instantiate()
	if err != nil {
		return nil, err
	}
	links, err := fragment.DecodedLinks()
	if err != nil {
		return nil, err
	}

	parent := ulid.ULID{}
	if !core.NilID(target) && query.CanPasteIntoObject(c.p, target) {
		parent = target
	}

	mapping := make(map[ulid.ULID]ulid.ULID, len(sources))
	parentOf := make(map[string]string)
	for i := range fragment.Objects {
		wire := &fragment.Objects[i]
		if sources[wire.ID].Kind == usertypes.KindProjectSettings {
			continue // the singleton never pastes
		}
		mapping[sources[wire.ID].ID] = core.NewObjectID()
		for _, child := range wire.Children {
			parentOf[child] = wire.ID
		}
	}

	roots := make(map[string]struct{}, len(fragment.Roots))
	for _, root := range fragment.Roots {
		roots[root] = struct{}{}
	}

	var newIDs []ulid.ULID
	for i := range fragment.Objects {
		wire := &fragment.Objects[i]
		src := sources[wire.ID]
		newID, pastes := mapping[src.ID]
		if !pastes {
			continue
		}
		obj := src.Clone()
		obj.ID = newID
		obj.Extref = nil // a plain paste owns its copy
		c.RemapRefs(obj, mapping)

		var attachTo ulid.ULID
		if _, isRoot := roots[wire.ID]; isRoot {
			// Roots the target kind refuses (resources, logic objects under
			// a plain node) land at the top level instead.
			if !core.NilID(parent) && query.CanTakeChildKind(parentKind(c.p, parent), obj.Kind) {
				attachTo = parent
			}
			obj.Name = uniqueChildName(c.p, attachTo, obj.Name)
		} else {
			parentWire, ok := parentOf[wire.ID]
			if !ok {
				return nil, oops.With("object_id", wire.ID).Wrap(serialization.ErrBadWireData)
			}
			attachTo = mapping[sources[parentWire].ID]
		}
		if err := c.InsertObject(obj, attachTo, -1); err != nil {
			return nil, err
		}
		newIDs = append(newIDs, obj.ID)
	}

	for _, l := range links {
		start, okStart := mapping[l.Start.Object]
		end, okEnd := mapping[l.End.Object]
		if !okStart || !okEnd {
			continue
		}
		remapped := scene.Link{
			Start: scene.PropertyRef{Object: start, Path: append([]string(nil), l.Start.Path...)},
			End:   scene.PropertyRef{Object: end, Path: append([]string(nil), l.End.Path...)},
			Weak:  l.Weak,
			Valid: l.Valid,
		}
		if err := c.apply(&undo.LinkAddOp{Link: remapped}); err != nil {
			return nil, err
		}
	}
	c.RevalidateLinks(newIDs...)

	out := make([]ulid.ULID, 0, len(fragment.Roots))
	for _, root := range fragment.Roots {
		if id, ok := mapping[sources[root].ID]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// DuplicateObjects clones each selected subtree next to its original.
// Selections containing both an object and one of its descendants
// duplicate the ancestor once.
func (c *Context) DuplicateObjects(ids []ulid.ULID) ([]ulid.ULID, error) {
	selected := make(map[ulid.ULID]struct{}, len(ids))
	for _, id := range ids {
		if c.p.Contains(id) {
			selected[id] = struct{}{}
		}
	}
	var out []ulid.ULID
	done := make(map[ulid.ULID]struct{}, len(ids))
	for _, id := range ids {
		obj, ok := c.p.Object(id)
		if !ok || hasSelectedAncestor(c.p, obj, selected) {
			continue
		}
		if _, dup := done[id]; dup {
			continue
		}
		done[id] = struct{}{}
		blob, err := c.CopyObjects([]ulid.ULID{id}, false)
		if err != nil {
			return nil, err
		}
		pasted, err := c.PasteObjects(blob, obj.Parent)
		if err != nil {
			return nil, err
		}
		out = append(out, pasted...)
	}
	if len(out) == 0 {
		return nil, oops.With("requested", len(ids)).Wrap(scene.ErrObjectNotFound)
	}
	return out, nil
}

// copyClosure expands the requested ids to their subtrees, optionally
// chasing referenced objects to a fixed point for deep copies.
func (c *Context) copyClosure(ids []ulid.ULID, deep bool) []ulid.ULID {
	seen := make(map[ulid.ULID]struct{})
	var closure []ulid.ULID
	addSubtree := func(root ulid.ULID) {
		for _, member := range c.p.SubtreeIDs(root) {
			obj, ok := c.p.Object(member)
			if !ok || obj.Kind == usertypes.KindProjectSettings {
				continue
			}
			if _, dup := seen[member]; dup {
				continue
			}
			seen[member] = struct{}{}
			closure = append(closure, member)
		}
	}
	for _, id := range ids {
		if c.p.Contains(id) {
			addSubtree(id)
		}
	}
	if !deep {
		return closure
	}
	for {
		before := len(closure)
		for _, ref := range query.FindAllReferencesFrom(c.p, closure) {
			if _, have := seen[ref.To]; have {
				continue
			}
			if c.p.Contains(ref.To) {
				addSubtree(ref.To)
			}
		}
		if len(closure) == before {
			return closure
		}
	}
}

// RemapRefs rewrites every ref-property of a detached object: targets in
// the mapping remap to their new ids, targets alive in this project stay,
// anything else clears. Paste and prefab propagation both rewrite cloned
// subtrees through it.
func (c *Context) RemapRefs(obj *scene.EditorObject, mapping map[ulid.ULID]ulid.ULID) {
	obj.WalkProperties(func(path []string, prop *value.Property) bool {
		if prop.Kind() != value.KindRef {
			return true
		}
		target, ok := prop.AsRef()
		if !ok || core.NilID(target) {
			return true
		}
		if mapped, inSet := mapping[target]; inSet {
			// The slot already holds a ref, so the write cannot fail.
			_ = prop.SetValue(value.NewRef(mapped))
			return true
		}
		if !c.p.Contains(target) {
			_ = prop.SetValue(value.NewRef(ulid.ULID{}))
		}
		return true
	})
}

// uniqueChildName suffixes a name until it is free among the children of
// parent (the top level for the zero id).
func uniqueChildName(p *scene.Project, parent ulid.ULID, base string) string {
	taken := make(map[string]struct{})
	siblings := p.TopLevel()
	if !core.NilID(parent) {
		if obj, ok := p.Object(parent); ok {
			siblings = obj.Children
		}
	}
	for _, id := range siblings {
		if obj, ok := p.Object(id); ok {
			taken[obj.Name] = struct{}{}
		}
	}
	if _, clash := taken[base]; !clash {
		return base
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		if _, clash := taken[candidate]; !clash {
			return candidate
		}
	}
}

func parentKind(p *scene.Project, id ulid.ULID) string {
	obj, ok := p.Object(id)
	if !ok {
		return ""
	}
	return obj.Kind
}

func hasSelectedAncestor(p *scene.Project, obj *scene.EditorObject, selected map[ulid.ULID]struct{}) bool {
	for cur := obj.Parent; !core.NilID(cur); {
		if _, ok := selected[cur]; ok {
			return true
		}
		parent, found := p.Object(cur)
		if !found {
			return false
		}
		cur = parent.Parent
	}
	return false
}
