// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package query answers "may I do this" over a project snapshot: read-only
// propagation, link state and legality, deletability, moveability and
// reference lookups. Nothing in here mutates; the mutation context and the
// command layer consult these functions before touching the graph.
package query

import (
	"github.com/oklog/ulid/v2"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
)

// TypeOracle decides whether a link between two properties would carry
// values. The engine package implements it.
type TypeOracle interface {
	Compatible(start, end *value.Property) bool
}

// LinkState classifies a property slot's relation to the link graph.
type LinkState uint8

const (
	NotLinked LinkState = iota
	Linked
	ParentLinked
	Broken
)

var linkStateNames = map[LinkState]string{
	NotLinked:    "NOT_LINKED",
	Linked:       "LINKED",
	ParentLinked: "PARENT_LINKED",
	Broken:       "BROKEN",
}

func (s LinkState) String() string {
	if name, ok := linkStateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsReadOnly reports whether an object's content is owned elsewhere:
// external-reference objects and their subtrees, and everything strictly
// below a prefab instance. The instance object itself stays writable.
func IsReadOnly(p *scene.Project, id ulid.ULID) bool {
	obj, ok := p.Object(id)
	if !ok {
		return false
	}
	if obj.IsExternalReference() {
		return true
	}
	for cur := obj.Parent; !core.NilID(cur); {
		parent, found := p.Object(cur)
		if !found {
			return false
		}
		if parent.Kind == usertypes.KindPrefabInstance || parent.IsExternalReference() {
			return true
		}
		cur = parent.Parent
	}
	return false
}

// IsInstanceInterfaceObject reports whether an object is the
// parameterization surface of a prefab instance: an interface script sitting
// directly under an instance that is itself writable. On projects where
// LuaInterface is feature-gated away, plain scripts take that role.
func IsInstanceInterfaceObject(p *scene.Project, id ulid.ULID) bool {
	obj, ok := p.Object(id)
	if !ok || core.NilID(obj.Parent) {
		return false
	}
	parent, ok := p.Object(obj.Parent)
	if !ok || parent.Kind != usertypes.KindPrefabInstance {
		return false
	}
	if IsReadOnly(p, parent.ID) {
		return false
	}
	switch obj.Kind {
	case usertypes.KindLuaInterface:
		return true
	case usertypes.KindLuaScript:
		gate, _ := usertypes.Lookup(usertypes.KindLuaInterface)
		return p.FeatureLevel() < gate.MinFeatureLevel
	}
	return false
}

// IsInstanceInterfaceInput reports whether the slot is an input of an
// instance's interface object. These are the only slots inside an instance
// subtree a user may set or link to; everything else mirrors the template.
func IsInstanceInterfaceInput(p *scene.Project, ref scene.PropertyRef) bool {
	if len(ref.Path) == 0 || ref.Path[0] != "inputs" {
		return false
	}
	return IsInstanceInterfaceObject(p, ref.Object)
}

// IsReadOnlyProperty reports whether a specific slot refuses direct sets:
// read-only object content, or an active incoming strong link driving the
// slot or one of its ancestors. Volatile properties and instance interface
// inputs are exempt from the object-level lockdown.
func IsReadOnlyProperty(p *scene.Project, ref scene.PropertyRef) bool {
	prop, err := p.ResolveProperty(ref)
	if err != nil {
		return false
	}
	if prop.Spec().IsVolatile() {
		return false
	}
	if IsReadOnly(p, ref.Object) && !IsInstanceInterfaceInput(p, ref) {
		return true
	}
	if l, ok := p.Links().EndingOnOrAbove(ref); ok && !l.Weak && l.Valid {
		return true
	}
	return false
}

// CurrentLinkState classifies the slot: a link ending exactly here is
// LINKED, or BROKEN when flagged invalid; a valid strong link on a strict
// ancestor drives the whole subtree and reports PARENT_LINKED.
func CurrentLinkState(p *scene.Project, ref scene.PropertyRef) LinkState {
	links := p.Links()
	if l, ok := links.ByEnd(ref); ok {
		if !l.Valid {
			return Broken
		}
		return Linked
	}
	if len(ref.Path) > 1 {
		parent := scene.PropertyRef{Object: ref.Object, Path: ref.Path[:len(ref.Path)-1]}
		if l, ok := links.EndingOnOrAbove(parent); ok && !l.Weak && l.Valid {
			return ParentLinked
		}
	}
	return NotLinked
}

// CanTakeChildKind reports whether a user move or paste may place a child
// kind directly under a parent kind.
func CanTakeChildKind(parentKind, childKind string) bool {
	return usertypes.CanParent(parentKind, childKind)
}

// CanPasteIntoObject reports whether paste may attach new objects under
// the target: it must exist, accept children and not be read-only content.
func CanPasteIntoObject(p *scene.Project, target ulid.ULID) bool {
	obj, ok := p.Object(target)
	if !ok {
		return false
	}
	if IsReadOnly(p, target) {
		return false
	}
	return usertypes.AcceptsChildren(obj.Kind)
}
