// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package query

import (
	"sort"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
)

// CheckRefTarget explains why binding target into the given ref slot would
// be refused, or returns nil when it is legal. The zero id (clearing the
// reference) is always legal. Template slots additionally refuse targets
// that would make a prefab contain itself through a chain of instances.
func CheckRefTarget(p *scene.Project, ref scene.PropertyRef, target ulid.ULID) error {
	prop, err := p.ResolveProperty(ref)
	if err != nil {
		return err
	}
	if prop.Kind() != value.KindRef {
		return oops.With("property", ref.Key()).Wrap(scene.ErrInvalidHandle)
	}
	if core.NilID(target) {
		return nil
	}
	obj, ok := p.Object(target)
	if !ok {
		return oops.With("target_id", target.String()).Wrap(scene.ErrObjectNotFound)
	}
	if kinds := prop.Spec().RefKinds; len(kinds) > 0 {
		allowed := false
		for _, kind := range kinds {
			if kind == obj.Kind {
				allowed = true
				break
			}
		}
		if !allowed {
			return oops.
				With("property", ref.Key()).
				With("target_kind", obj.Kind).
				Wrap(scene.ErrRefNotAllowed)
		}
	}
	if obj.Kind == usertypes.KindPrefab && isTemplateSlot(p, ref) {
		if TemplateLoopWouldForm(p, ref.Object, target) {
			return oops.
				With("instance_id", ref.Object.String()).
				With("template_id", target.String()).
				Wrap(scene.ErrRefLoop)
		}
	}
	return nil
}

// ValidReferenceTargets returns every object the given ref slot may legally
// point at, sorted by id. UI pickers populate from this.
func ValidReferenceTargets(p *scene.Project, ref scene.PropertyRef) []ulid.ULID {
	var out []ulid.ULID
	for _, obj := range p.Instances() {
		if obj.ID == ref.Object {
			continue
		}
		if CheckRefTarget(p, ref, obj.ID) == nil {
			out = append(out, obj.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// TemplateLoopWouldForm reports whether binding template as the given
// instance's template would let some prefab reach itself through instance
// subtrees. That happens when the template already sits on a dependency
// cycle, or when it can reach the prefab enclosing the instance.
func TemplateLoopWouldForm(p *scene.Project, instance, template ulid.ULID) bool {
	if TemplateHasLoop(p, template) {
		return true
	}
	enclosing := enclosingPrefab(p, instance)
	if core.NilID(enclosing) {
		return false
	}
	if template == enclosing {
		return true
	}
	return prefabReaches(p, template, enclosing)
}

// TemplateHasLoop reports whether the dependency graph reachable from the
// given prefab contains a cycle. Propagating any instance of such a prefab
// would grow forever.
func TemplateHasLoop(p *scene.Project, prefab ulid.ULID) bool {
	const unvisited, active, done = 0, 1, 2
	state := make(map[ulid.ULID]int)
	var visit func(id ulid.ULID) bool
	visit = func(id ulid.ULID) bool {
		switch state[id] {
		case active:
			return true
		case done:
			return false
		}
		state[id] = active
		for _, dep := range templateDependencies(p, id) {
			if visit(dep) {
				return true
			}
		}
		state[id] = done
		return false
	}
	return visit(prefab)
}

// templateDependencies lists the prefabs instantiated anywhere inside the
// given prefab's subtree, deduplicated, in subtree order.
func templateDependencies(p *scene.Project, prefab ulid.ULID) []ulid.ULID {
	var out []ulid.ULID
	seen := make(map[ulid.ULID]struct{})
	for _, member := range p.SubtreeIDs(prefab) {
		obj, ok := p.Object(member)
		if !ok || obj.Kind != usertypes.KindPrefabInstance {
			continue
		}
		target := TemplateOf(obj)
		if core.NilID(target) {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// TemplateOf reads an instance's template reference, zero when unset or when
// the object has no template slot.
func TemplateOf(obj *scene.EditorObject) ulid.ULID {
	slot, ok := obj.Property("template")
	if !ok {
		return ulid.ULID{}
	}
	target, _ := slot.Value().AsRef()
	return target
}

func prefabReaches(p *scene.Project, from, to ulid.ULID) bool {
	visited := map[ulid.ULID]struct{}{from: {}}
	queue := []ulid.ULID{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range templateDependencies(p, cur) {
			if dep == to {
				return true
			}
			if _, ok := visited[dep]; ok {
				continue
			}
			visited[dep] = struct{}{}
			queue = append(queue, dep)
		}
	}
	return false
}

func enclosingPrefab(p *scene.Project, id ulid.ULID) ulid.ULID {
	obj, ok := p.Object(id)
	if !ok {
		return ulid.ULID{}
	}
	for cur := obj.Parent; !core.NilID(cur); {
		parent, found := p.Object(cur)
		if !found {
			return ulid.ULID{}
		}
		if parent.Kind == usertypes.KindPrefab {
			return parent.ID
		}
		cur = parent.Parent
	}
	return ulid.ULID{}
}

func isTemplateSlot(p *scene.Project, ref scene.PropertyRef) bool {
	if len(ref.Path) != 1 || ref.Path[0] != "template" {
		return false
	}
	obj, ok := p.Object(ref.Object)
	return ok && obj.Kind == usertypes.KindPrefabInstance
}
