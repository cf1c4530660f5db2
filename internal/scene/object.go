// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package scene holds the document model: editor objects in an id-keyed
// arena, the scenegraph relation, the data-flow link graph, property
// handles and the per-document diagnostics store. The model is plain data;
// every invariant spanning more than one slot is maintained by the
// mutation context.
package scene

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/value"
)

// ExternalReference marks an object mirrored read-only from another
// document.
type ExternalReference struct {
	SourceProjectID string
}

// EditorObject is one node of the object graph. The id is stable and
// immutable after creation; the kind tag decides which properties exist and
// is fixed at construction by the factory. Parent and children are id
// references into the project arena, never owning pointers.
type EditorObject struct {
	ID         ulid.ULID
	Kind       string
	Name       string
	Parent     ulid.ULID // zero = top-level
	Children   []ulid.ULID
	Properties []*value.Property
	Extref     *ExternalReference // nil unless imported from another document
}

// Property returns the named top-level property slot.
func (o *EditorObject) Property(name string) (*value.Property, bool) {
	for _, p := range o.Properties {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// ResolvePath resolves a property path rooted at this object. The first
// segment names a top-level slot, the rest descend through containers.
func (o *EditorObject) ResolvePath(path []string) (*value.Property, error) {
	if len(path) == 0 {
		return nil, oops.With("object_id", o.ID.String()).Wrap(ErrInvalidHandle)
	}
	slot, ok := o.Property(path[0])
	if !ok {
		return nil, oops.
			With("object_id", o.ID.String()).
			With("property", path[0]).
			Wrap(ErrInvalidHandle)
	}
	p, err := slot.Descend(path[1:])
	if err != nil {
		return nil, oops.
			With("object_id", o.ID.String()).
			With("path", value.JoinPath(path)).
			Wrap(ErrInvalidHandle)
	}
	return p, nil
}

// WalkProperties visits every property of the object in preorder, passing
// its full path. Returning false skips that property's subtree.
func (o *EditorObject) WalkProperties(fn func(path []string, p *value.Property) bool) {
	for _, slot := range o.Properties {
		path := []string{slot.Name()}
		if !fn(path, slot) {
			continue
		}
		slot.Walk(func(sub []string, child *value.Property) bool {
			full := append(append([]string(nil), path...), sub...)
			return fn(full, child)
		})
	}
}

// Clone returns a deep copy of the object: property subtrees copied,
// id lists copied, the extref marker copied. Ids are preserved.
func (o *EditorObject) Clone() *EditorObject {
	clone := &EditorObject{
		ID:     o.ID,
		Kind:   o.Kind,
		Name:   o.Name,
		Parent: o.Parent,
	}
	if len(o.Children) > 0 {
		clone.Children = append([]ulid.ULID(nil), o.Children...)
	}
	clone.Properties = make([]*value.Property, len(o.Properties))
	for i, p := range o.Properties {
		clone.Properties[i] = p.Clone()
	}
	if o.Extref != nil {
		ext := *o.Extref
		clone.Extref = &ext
	}
	return clone
}

// IsExternalReference reports whether the object itself carries the
// external-reference marker. Subtree membership is a query-layer concern.
func (o *EditorObject) IsExternalReference() bool {
	return o.Extref != nil
}
