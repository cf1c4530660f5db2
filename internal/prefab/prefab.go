// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package prefab keeps PrefabInstance subtrees synchronized with their
// template Prefabs. After every mutating command a propagation pass
// rebuilds each instance's children as an id-derived mirror of the
// template's current children, carrying names, values and links along
// while leaving the instance-owned interface inputs alone.
package prefab

import (
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/edit"
	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
)

// ErrDiverged indicates propagation did not reach a fixed point within the
// pass budget. Template loops are refused when the reference is bound, so
// hitting this means a propagation bug rather than a legal document.
var ErrDiverged = errors.New("prefab propagation did not reach a fixed point")

// maxPasses bounds the fixed-point loop. Each pass materializes one more
// nesting level, so the budget doubles as the instance nesting limit.
const maxPasses = 64

// Propagate resynchronizes every PrefabInstance subtree against its current
// template and repeats until a full pass changes nothing. Synchronizing one
// instance can materialize nested instances whose own subtrees are built on
// the next pass. On an already synchronized project the pass records no
// changes, so commands that touch no template are free to call it anyway.
func Propagate(c *edit.Context) error {
	for pass := 0; pass < maxPasses; pass++ {
		changed, err := syncAll(c)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
	}
	return oops.With("passes", maxPasses).Wrap(ErrDiverged)
}

func syncAll(c *edit.Context) (bool, error) {
	p := c.Project()
	changed := false
	for _, id := range p.InstanceIDs() {
		obj, ok := p.Object(id)
		if !ok || obj.Kind != usertypes.KindPrefabInstance {
			continue
		}
		wrote, err := syncInstance(c, id)
		if err != nil {
			return false, err
		}
		changed = changed || wrote
	}
	return changed, nil
}

// syncInstance mirrors one instance's subtree from its template: structure
// first, then sibling order, then pruning, then links. Mirror ids derive
// from the template child id and the instance id, so repeated passes and
// re-created instances land on the same ids.
func syncInstance(c *edit.Context, instID ulid.ULID) (bool, error) {
	p := c.Project()
	inst, ok := p.Object(instID)
	if !ok {
		return false, nil
	}
	tmpl := liveTemplate(p, inst)
	if tmpl == nil {
		return clearDerived(c, inst)
	}
	if query.TemplateHasLoop(p, tmpl.ID) {
		return false, oops.
			With("instance_id", instID.String()).
			With("template_id", tmpl.ID.String()).
			Wrap(scene.ErrRefLoop)
	}

	members := p.SubtreeIDs(tmpl.ID)[1:]
	mapping := make(map[ulid.ULID]ulid.ULID, len(members))
	derived := make(map[ulid.ULID]struct{}, len(members))
	for _, tid := range members {
		did := core.DeriveChildID(tid, instID)
		mapping[tid] = did
		derived[did] = struct{}{}
	}

	changed := false

	// Materialize or refresh a mirror per template descendant, in preorder
	// so a mirror's parent exists before the mirror arrives.
	for _, tid := range members {
		src, ok := p.Object(tid)
		if !ok {
			continue
		}
		wrote, err := ensureMirror(c, src, instID, tmpl.ID, mapping)
		if err != nil {
			return false, err
		}
		changed = changed || wrote
	}

	wrote, err := placeMirrors(c, tmpl, instID, members, mapping)
	if err != nil {
		return false, err
	}
	changed = changed || wrote

	wrote, err = pruneMirrors(c, instID, derived)
	if err != nil {
		return false, err
	}
	changed = changed || wrote

	wrote, err = syncLinks(c, instID, mapping, derived)
	if err != nil {
		return false, err
	}
	changed = changed || wrote

	return changed, nil
}

// liveTemplate resolves the instance's template slot to a Prefab currently
// in the project. Empty, dangling and wrong-kind references all mean the
// instance has nothing to mirror.
func liveTemplate(p *scene.Project, inst *scene.EditorObject) *scene.EditorObject {
	tmplID := query.TemplateOf(inst)
	if core.NilID(tmplID) {
		return nil
	}
	tmpl, ok := p.Object(tmplID)
	if !ok || tmpl.Kind != usertypes.KindPrefab {
		return nil
	}
	return tmpl
}

// clearDerived removes every child of an instance whose template is gone.
// Users cannot attach children to instances, so the whole subtree is
// derived content.
func clearDerived(c *edit.Context, inst *scene.EditorObject) (bool, error) {
	if len(inst.Children) == 0 {
		return false, nil
	}
	children := append([]ulid.ULID(nil), inst.Children...)
	for _, cid := range children {
		if _, err := c.RemoveSubtree(cid); err != nil {
			return false, err
		}
	}
	return true, nil
}

// ensureMirror creates the derived counterpart of one template descendant,
// or refreshes its name and values when it already exists. A mirror whose
// kind no longer matches the template child is torn down and rebuilt.
func ensureMirror(c *edit.Context, src *scene.EditorObject, instID, tmplID ulid.ULID, mapping map[ulid.ULID]ulid.ULID) (bool, error) {
	p := c.Project()
	mirrorID := mapping[src.ID]
	parentID := instID
	if src.Parent != tmplID {
		parentID = mapping[src.Parent]
	}

	changed := false
	cur, exists := p.Object(mirrorID)
	if exists && cur.Kind != src.Kind {
		if _, err := c.RemoveSubtree(mirrorID); err != nil {
			return false, err
		}
		exists = false
		changed = true
	}
	if !exists {
		mirror := src.Clone()
		mirror.ID = mirrorID
		mirror.Extref = nil
		c.RemapRefs(mirror, mapping)
		usertypes.ResetVolatile(mirror)
		if err := c.InsertObject(mirror, parentID, -1); err != nil {
			return false, err
		}
		return true, nil
	}

	if cur.Name != src.Name {
		renamed, err := c.RenameObject(mirrorID, src.Name)
		if err != nil {
			return false, err
		}
		changed = changed || renamed
	}
	wrote, err := refreshValues(c, src, cur, mapping)
	if err != nil {
		return false, err
	}
	return changed || wrote, nil
}

// placeMirrors restores template sibling order and reparents mirrors whose
// template counterpart moved. Stale extras drift to the tail of each child
// list and are pruned right after, so placing every mirror at its template
// index reproduces the template order.
func placeMirrors(c *edit.Context, tmpl *scene.EditorObject, instID ulid.ULID, members []ulid.ULID, mapping map[ulid.ULID]ulid.ULID) (bool, error) {
	p := c.Project()
	changed := false
	order := append([]ulid.ULID{tmpl.ID}, members...)
	for _, pid := range order {
		srcParent, ok := p.Object(pid)
		if !ok || len(srcParent.Children) == 0 {
			continue
		}
		dst := instID
		if pid != tmpl.ID {
			dst = mapping[pid]
		}
		for i, childID := range srcParent.Children {
			moved, err := c.PlaceObject(mapping[childID], dst, i)
			if err != nil {
				return false, err
			}
			changed = changed || moved
		}
	}
	return changed, nil
}

// pruneMirrors removes instance descendants no template child derives to
// anymore. Runs after placement, so every surviving mirror already hangs
// under a surviving parent and removals never take live mirrors with them.
func pruneMirrors(c *edit.Context, instID ulid.ULID, derived map[ulid.ULID]struct{}) (bool, error) {
	p := c.Project()
	changed := false
	for _, cid := range p.SubtreeIDs(instID)[1:] {
		if _, ok := derived[cid]; ok {
			continue
		}
		if !p.Contains(cid) {
			continue
		}
		if _, err := c.RemoveSubtree(cid); err != nil {
			return false, err
		}
		changed = true
	}
	return changed, nil
}

// syncLinks mirrors template-internal links onto the derived subtree and
// drops propagation-owned links whose template counterpart is gone. A link
// wired in from outside the subtree is the local override for its end slot:
// the template edge yields to it and pruning never touches it.
func syncLinks(c *edit.Context, instID ulid.ULID, mapping map[ulid.ULID]ulid.ULID, derived map[ulid.ULID]struct{}) (bool, error) {
	p := c.Project()
	changed := false
	wantEnds := make(map[string]struct{})
	for _, l := range p.Links().All() {
		startID, inStart := mapping[l.Start.Object]
		endID, inEnd := mapping[l.End.Object]
		if !inStart || !inEnd {
			continue
		}
		mirrored := scene.Link{
			Start: scene.NewPropertyRef(startID, l.Start.Path...),
			End:   scene.NewPropertyRef(endID, l.End.Path...),
			Weak:  l.Weak,
			Valid: l.Valid,
		}
		wantEnds[mirrored.End.Key()] = struct{}{}
		if existing, ok := p.Links().ByEnd(mirrored.End); ok {
			if _, owned := derived[existing.Start.Object]; !owned {
				continue
			}
		}
		put, err := c.PutLink(mirrored)
		if err != nil {
			return false, err
		}
		changed = changed || put
	}

	for _, did := range p.SubtreeIDs(instID)[1:] {
		for _, l := range p.Links().ToObject(did) {
			if _, ok := wantEnds[l.End.Key()]; ok {
				continue
			}
			if _, owned := derived[l.Start.Object]; !owned {
				continue
			}
			if err := c.RemoveLink(l.End); err != nil {
				return false, err
			}
			changed = true
		}
	}
	return changed, nil
}

// refreshValues rewrites the mirror's slots from the template child,
// remapping in-template references to their derived ids. Volatile slots
// keep the mirror's live values, and the inputs of an interface object
// keep the instance's own values wherever name and kind still line up.
func refreshValues(c *edit.Context, src, mirror *scene.EditorObject, mapping map[ulid.ULID]ulid.ULID) (bool, error) {
	want := src.Clone()
	c.RemapRefs(want, mapping)
	iface := query.IsInstanceInterfaceObject(c.Project(), mirror.ID)
	changed := false
	for _, slot := range want.Properties {
		cur, ok := mirror.Property(slot.Name())
		if !ok {
			continue
		}
		if iface && slot.Name() == "inputs" {
			usertypes.PreserveValues(cur, slot)
		} else {
			usertypes.KeepVolatile(cur, slot)
		}
		if value.Equal(cur.Value(), slot.Value()) {
			continue
		}
		wrote, err := c.WriteProperty(scene.NewPropertyRef(mirror.ID, slot.Name()), slot.Value())
		if err != nil {
			return false, err
		}
		changed = changed || wrote
	}
	return changed, nil
}
