// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package query

import (
	"sort"

	"github.com/oklog/ulid/v2"

	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
)

// Reference is one ref-property occurrence pointing at a target object.
type Reference struct {
	From scene.PropertyRef
	To   ulid.ULID
}

// FindAllReferencesTo returns every ref-property occurrence across the
// project whose target is one of the given ids, sorted by source slot.
func FindAllReferencesTo(p *scene.Project, ids []ulid.ULID) []Reference {
	targets := idSet(ids)
	var out []Reference
	for _, obj := range p.Instances() {
		for _, ref := range objectReferences(obj) {
			if _, ok := targets[ref.To]; ok {
				out = append(out, ref)
			}
		}
	}
	sortReferences(out)
	return out
}

// FindAllReferencesFrom returns every ref-property occurrence originating
// on one of the given ids, sorted by source slot.
func FindAllReferencesFrom(p *scene.Project, ids []ulid.ULID) []Reference {
	var out []Reference
	for _, id := range ids {
		obj, ok := p.Object(id)
		if !ok {
			continue
		}
		out = append(out, objectReferences(obj)...)
	}
	sortReferences(out)
	return out
}

// FilterForDeleteableObjects returns the subset of the candidates that a
// delete batch may actually remove, in input order.
//
// The whole candidate set is considered removed at once, so an object
// referenced only from inside the set stays deletable. Read-only content
// (extref subtrees, prefab-instance subtrees) is deletable only when its
// owning root is going too; external-reference roots and reference-counted
// resources additionally need every surviving referencer gone. The
// settings singleton never deletes.
func FilterForDeleteableObjects(p *scene.Project, candidates []ulid.ULID) []ulid.ULID {
	kept := dedupExisting(p, candidates)

	// Shrink to a fixed point: dropping a candidate revives its subtree,
	// which can pin further resources in the next round.
	for {
		removal := make(map[ulid.ULID]struct{})
		for _, id := range kept {
			for _, member := range p.SubtreeIDs(id) {
				removal[member] = struct{}{}
			}
		}
		next := kept[:0:0]
		for _, id := range kept {
			if deletableWithin(p, id, removal) {
				next = append(next, id)
			}
		}
		if len(next) == len(kept) {
			return next
		}
		kept = next
	}
}

// FindAllUnreferencedObjects returns ids of objects matching the predicate
// with zero incoming ref-properties from other objects and zero links
// connecting them to other objects, sorted by id.
func FindAllUnreferencedObjects(p *scene.Project, predicate func(*scene.EditorObject) bool) []ulid.ULID {
	inbound := make(map[ulid.ULID]int)
	for _, obj := range p.Instances() {
		for _, ref := range objectReferences(obj) {
			if ref.To != obj.ID {
				inbound[ref.To]++
			}
		}
	}

	var out []ulid.ULID
	for _, obj := range p.Instances() {
		if predicate != nil && !predicate(obj) {
			continue
		}
		if inbound[obj.ID] > 0 {
			continue
		}
		if linkedToOthers(p, obj.ID) {
			continue
		}
		out = append(out, obj.ID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

func deletableWithin(p *scene.Project, id ulid.ULID, removal map[ulid.ULID]struct{}) bool {
	obj, ok := p.Object(id)
	if !ok {
		return false
	}
	if obj.Kind == usertypes.KindProjectSettings {
		return false
	}
	if readOnlyOutsideRemoval(p, obj, removal) {
		return false
	}
	if obj.IsExternalReference() || referenceCounted(obj.Kind) {
		if referencedOutside(p, id, removal) {
			return false
		}
	}
	return true
}

// readOnlyOutsideRemoval reports read-only content whose owning root is
// not itself being deleted.
func readOnlyOutsideRemoval(p *scene.Project, obj *scene.EditorObject, removal map[ulid.ULID]struct{}) bool {
	for cur := obj.Parent; cur != (ulid.ULID{}); {
		parent, found := p.Object(cur)
		if !found {
			return false
		}
		if parent.Kind == usertypes.KindPrefabInstance || parent.IsExternalReference() {
			_, covered := removal[cur]
			return !covered
		}
		cur = parent.Parent
	}
	return false
}

// referenceCounted lists the kinds whose deletion is blocked by surviving
// referencers: shared assets plus scripts and interfaces.
func referenceCounted(kind string) bool {
	return usertypes.IsResource(kind) ||
		kind == usertypes.KindLuaScript ||
		kind == usertypes.KindLuaInterface
}

func referencedOutside(p *scene.Project, id ulid.ULID, removal map[ulid.ULID]struct{}) bool {
	for _, obj := range p.Instances() {
		if _, gone := removal[obj.ID]; gone {
			continue
		}
		for _, ref := range objectReferences(obj) {
			if ref.To == id {
				return true
			}
		}
	}
	return false
}

func linkedToOthers(p *scene.Project, id ulid.ULID) bool {
	for _, l := range p.Links().FromObject(id) {
		if l.End.Object != id {
			return true
		}
	}
	for _, l := range p.Links().ToObject(id) {
		if l.Start.Object != id {
			return true
		}
	}
	return false
}

func objectReferences(obj *scene.EditorObject) []Reference {
	var out []Reference
	obj.WalkProperties(func(path []string, prop *value.Property) bool {
		if prop.Kind() != value.KindRef {
			return true
		}
		if target, ok := prop.AsRef(); ok && target != (ulid.ULID{}) {
			out = append(out, Reference{
				From: scene.PropertyRef{Object: obj.ID, Path: append([]string(nil), path...)},
				To:   target,
			})
		}
		return true
	})
	return out
}

func idSet(ids []ulid.ULID) map[ulid.ULID]struct{} {
	set := make(map[ulid.ULID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func dedupExisting(p *scene.Project, ids []ulid.ULID) []ulid.ULID {
	seen := make(map[ulid.ULID]struct{}, len(ids))
	out := make([]ulid.ULID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

func sortReferences(refs []Reference) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].From.Key() < refs[j].From.Key() })
}
