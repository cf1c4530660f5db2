// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package scene

import (
	"sort"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/value"
)

// ExternalProject names one source document external references were
// imported from. Path is stored relative to the importing document.
type ExternalProject struct {
	Name string
	Path string
}

// Project is the root container: the object arena, the ordered top-level
// list, the link graph, the external-project table, the diagnostics store
// and document identity. Every structural edit that must keep two sides
// consistent (parent pointer and child list) goes through Attach/Detach.
type Project struct {
	ID   string
	Name string
	Path string // absolute document path, empty while unsaved

	SettingsID ulid.ULID // the singleton ProjectSettings object

	instances map[ulid.ULID]*EditorObject
	topLevel  []ulid.ULID
	links     *LinkGraph
	external  map[string]ExternalProject
	diags     *Diagnostics
}

// NewProject creates an empty project.
func NewProject(id, name string) *Project {
	return &Project{
		ID:        id,
		Name:      name,
		instances: make(map[ulid.ULID]*EditorObject),
		links:     NewLinkGraph(),
		external:  make(map[string]ExternalProject),
		diags:     NewDiagnostics(),
	}
}

// Links returns the project's link graph.
func (p *Project) Links() *LinkGraph { return p.links }

// Diagnostics returns the project's diagnostics store.
func (p *Project) Diagnostics() *Diagnostics { return p.diags }

// Object returns the instance with the given id.
func (p *Project) Object(id ulid.ULID) (*EditorObject, bool) {
	obj, ok := p.instances[id]
	return obj, ok
}

// Contains reports whether an id resolves to a live instance.
func (p *Project) Contains(id ulid.ULID) bool {
	_, ok := p.instances[id]
	return ok
}

// InstanceCount returns the number of live objects.
func (p *Project) InstanceCount() int { return len(p.instances) }

// InstanceIDs returns every live id sorted, for deterministic iteration.
func (p *Project) InstanceIDs() []ulid.ULID {
	ids := make([]ulid.ULID, 0, len(p.instances))
	for id := range p.instances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
	return ids
}

// Instances returns every live object sorted by id.
func (p *Project) Instances() []*EditorObject {
	ids := p.InstanceIDs()
	out := make([]*EditorObject, len(ids))
	for i, id := range ids {
		out[i] = p.instances[id]
	}
	return out
}

// TopLevel returns a copy of the ordered top-level id list.
func (p *Project) TopLevel() []ulid.ULID {
	return append([]ulid.ULID(nil), p.topLevel...)
}

// Add inserts an object into the arena without placing it. The caller
// attaches it afterwards; an unplaced object is not a legal end state.
func (p *Project) Add(obj *EditorObject) error {
	if _, dup := p.instances[obj.ID]; dup {
		return oops.With("object_id", obj.ID.String()).Wrap(ErrDuplicateObject)
	}
	p.instances[obj.ID] = obj
	return nil
}

// Remove deletes a detached object from the arena.
func (p *Project) Remove(id ulid.ULID) error {
	obj, ok := p.instances[id]
	if !ok {
		return oops.With("object_id", id.String()).Wrap(ErrObjectNotFound)
	}
	if !core.NilID(obj.Parent) || p.topLevelIndex(id) >= 0 {
		return oops.With("object_id", id.String()).Wrap(ErrObjectAttached)
	}
	delete(p.instances, id)
	return nil
}

// Attach places an object under a parent (zero id = top level) at the
// given index; -1 appends. The object must be detached.
func (p *Project) Attach(child, parent ulid.ULID, index int) error {
	obj, ok := p.instances[child]
	if !ok {
		return oops.With("object_id", child.String()).Wrap(ErrObjectNotFound)
	}
	if !core.NilID(obj.Parent) || p.topLevelIndex(child) >= 0 {
		return oops.With("object_id", child.String()).Wrap(ErrObjectAttached)
	}
	if core.NilID(parent) {
		p.topLevel, ok = insertID(p.topLevel, child, index)
		if !ok {
			return oops.With("index", index).With("len", len(p.topLevel)).Wrap(ErrInvalidIndex)
		}
		return nil
	}
	parentObj, ok := p.instances[parent]
	if !ok {
		return oops.With("parent_id", parent.String()).Wrap(ErrObjectNotFound)
	}
	children, ok := insertID(parentObj.Children, child, index)
	if !ok {
		return oops.With("index", index).With("len", len(parentObj.Children)).Wrap(ErrInvalidIndex)
	}
	parentObj.Children = children
	obj.Parent = parent
	return nil
}

// Detach removes an object from its parent's child list (or the top-level
// list) and reports where it was.
func (p *Project) Detach(child ulid.ULID) (parent ulid.ULID, index int, err error) {
	obj, ok := p.instances[child]
	if !ok {
		return ulid.ULID{}, 0, oops.With("object_id", child.String()).Wrap(ErrObjectNotFound)
	}
	if core.NilID(obj.Parent) {
		i := p.topLevelIndex(child)
		if i < 0 {
			return ulid.ULID{}, 0, oops.With("object_id", child.String()).Wrap(ErrObjectNotFound)
		}
		p.topLevel = append(p.topLevel[:i], p.topLevel[i+1:]...)
		return ulid.ULID{}, i, nil
	}
	parentObj, ok := p.instances[obj.Parent]
	if !ok {
		return ulid.ULID{}, 0, oops.With("parent_id", obj.Parent.String()).Wrap(ErrObjectNotFound)
	}
	for i, id := range parentObj.Children {
		if id == child {
			parentObj.Children = append(parentObj.Children[:i], parentObj.Children[i+1:]...)
			result := obj.Parent
			obj.Parent = ulid.ULID{}
			return result, i, nil
		}
	}
	return ulid.ULID{}, 0, oops.With("object_id", child.String()).Wrap(ErrObjectNotFound)
}

// ChildCount returns the child count of a parent, or the top-level count
// for the zero id.
func (p *Project) ChildCount(parent ulid.ULID) int {
	if core.NilID(parent) {
		return len(p.topLevel)
	}
	if obj, ok := p.instances[parent]; ok {
		return len(obj.Children)
	}
	return 0
}

// ResolveProperty resolves a property ref against the current graph.
func (p *Project) ResolveProperty(ref PropertyRef) (*value.Property, error) {
	obj, ok := p.instances[ref.Object]
	if !ok {
		return nil, oops.With("object_id", ref.Object.String()).Wrap(ErrObjectNotFound)
	}
	return obj.ResolvePath(ref.Path)
}

// IsAncestor reports whether ancestor is on the parent chain of id.
func (p *Project) IsAncestor(ancestor, id ulid.ULID) bool {
	current, ok := p.instances[id]
	for ok {
		if core.NilID(current.Parent) {
			return false
		}
		if current.Parent == ancestor {
			return true
		}
		current, ok = p.instances[current.Parent]
	}
	return false
}

// SubtreeIDs returns the ids of an object and all its descendants.
func (p *Project) SubtreeIDs(root ulid.ULID) []ulid.ULID {
	var out []ulid.ULID
	var walk func(id ulid.ULID)
	walk = func(id ulid.ULID) {
		obj, ok := p.instances[id]
		if !ok {
			return
		}
		out = append(out, id)
		for _, child := range obj.Children {
			walk(child)
		}
	}
	walk(root)
	return out
}

// Settings returns the ProjectSettings object, if present.
func (p *Project) Settings() (*EditorObject, bool) {
	if core.NilID(p.SettingsID) {
		return nil, false
	}
	return p.Object(p.SettingsID)
}

// FeatureLevel returns the document feature level from the settings
// object, defaulting to 1.
func (p *Project) FeatureLevel() int {
	settings, ok := p.Settings()
	if !ok {
		return 1
	}
	prop, ok := settings.Property("featureLevel")
	if !ok {
		return 1
	}
	level, ok := prop.AsInt()
	if !ok || level < 1 {
		return 1
	}
	return int(level)
}

// SetExternalProject records or updates a source document entry.
func (p *Project) SetExternalProject(sourceID string, entry ExternalProject) {
	p.external[sourceID] = entry
}

// RemoveExternalProject drops a source document entry.
func (p *Project) RemoveExternalProject(sourceID string) {
	delete(p.external, sourceID)
}

// ExternalProject returns the entry for a source document id.
func (p *Project) ExternalProject(sourceID string) (ExternalProject, bool) {
	entry, ok := p.external[sourceID]
	return entry, ok
}

// ExternalProjectIDs returns the known source document ids, sorted.
func (p *Project) ExternalProjectIDs() []string {
	ids := make([]string, 0, len(p.external))
	for id := range p.external {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p *Project) topLevelIndex(id ulid.ULID) int {
	for i, t := range p.topLevel {
		if t == id {
			return i
		}
	}
	return -1
}

func insertID(list []ulid.ULID, id ulid.ULID, index int) ([]ulid.ULID, bool) {
	if index == -1 {
		index = len(list)
	}
	if index < 0 || index > len(list) {
		return list, false
	}
	list = append(list, ulid.ULID{})
	copy(list[index+1:], list[index:])
	list[index] = id
	return list, true
}
