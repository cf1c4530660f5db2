// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package edit

import (
	"sort"
	"strconv"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/serialization"
	"github.com/sceneforge/sceneforge/internal/undo"
	"github.com/sceneforge/sceneforge/internal/value"
)

// Set writes a property through user policy: read-only content and slots
// driven by an active strong link are refused (volatile slots are exempt),
// URI strings are sanitized, numeric values clamp to their declared range
// and enum membership is enforced. Writing the value already present is a
// complete no-op.
func (c *Context) Set(ref scene.PropertyRef, v value.Value) error {
	prop, err := c.p.ResolveProperty(ref)
	if err != nil {
		return err
	}
	if err := c.checkWritable(ref, prop); err != nil {
		return err
	}
	if prop.Spec().IsURI() {
		if s, ok := v.AsString(); ok {
			v = value.NewString(serialization.SanitizeURI(s))
		}
	}
	if prop.Kind() == value.KindRef {
		if target, ok := v.AsRef(); ok {
			if err := query.CheckRefTarget(c.p, ref, target); err != nil {
				return err
			}
		}
	}
	v = prop.Spec().Clamp(v)
	if prop.Spec().IsVolatile() {
		return c.writeVolatile(ref, prop, v)
	}
	_, err = c.WriteProperty(ref, v)
	return err
}

// writeVolatile writes an engine-driven slot in place. Volatile values are
// live state, not document state: observers still see the change, but no
// undo entry is recorded and undoing the surrounding command leaves the
// slot alone.
func (c *Context) writeVolatile(ref scene.PropertyRef, prop *value.Property, v value.Value) error {
	if value.Equal(prop.Value(), v) {
		return nil
	}
	if err := prop.SetValue(v); err != nil {
		return err
	}
	if c.rec != nil {
		c.rec.Record(core.Change{Kind: core.ChangeValue, Object: ref.Object, Path: value.JoinPath(ref.Path)})
	}
	return nil
}

// WriteProperty is the raw slot write: no policy, no clamping, just the
// type check inside the value layer. Prefab propagation and extref merging
// write read-only content through this. Reports whether anything changed.
func (c *Context) WriteProperty(ref scene.PropertyRef, v value.Value) (bool, error) {
	prop, err := c.p.ResolveProperty(ref)
	if err != nil {
		return false, err
	}
	if value.Equal(prop.Value(), v) {
		return false, nil
	}
	op := &undo.ValueOp{Ref: cloneRef(ref), Before: prop.CloneValue(), After: v.Clone()}
	if err := c.apply(op); err != nil {
		return false, err
	}
	c.RevalidateLinks(ref.Object)
	return true, nil
}

// SetName renames an object. Read-only content keeps its name.
func (c *Context) SetName(id ulid.ULID, name string) error {
	obj, ok := c.p.Object(id)
	if !ok {
		return oops.With("object_id", id.String()).Wrap(scene.ErrObjectNotFound)
	}
	if query.IsReadOnly(c.p, id) {
		return oops.With("object_id", id.String()).Wrap(scene.ErrReadOnly)
	}
	if obj.Name == name {
		return nil
	}
	return c.apply(&undo.NameOp{Object: id, Before: obj.Name, After: name})
}

// SetTags replaces an object's tag set. The object must carry a
// tag-container property.
func (c *Context) SetTags(id ulid.ULID, tags []string) error {
	ref := scene.NewPropertyRef(id, "tags")
	prop, err := c.p.ResolveProperty(ref)
	if err != nil {
		return err
	}
	if !value.HasAnnotation[value.TagContainer](prop.Spec()) {
		return oops.With("object_id", id.String()).Wrap(scene.ErrInvalidHandle)
	}
	if err := c.checkWritable(ref, prop); err != nil {
		return err
	}
	scratch := value.MustNewProperty("tags", prop.Spec())
	for _, tag := range tags {
		elem, err := scratch.AppendElement()
		if err != nil {
			return err
		}
		if err := elem.SetValue(value.NewString(tag)); err != nil {
			return err
		}
	}
	_, err = c.WriteProperty(ref, scratch.Value())
	return err
}

// SetRenderableTags replaces a render layer's tag -> order-index table.
// Tag names must be legal property names; entries are stored sorted.
func (c *Context) SetRenderableTags(id ulid.ULID, tags map[string]int32) error {
	ref := scene.NewPropertyRef(id, "renderableTags")
	prop, err := c.p.ResolveProperty(ref)
	if err != nil {
		return err
	}
	if !value.HasAnnotation[value.RenderableTags](prop.Spec()) {
		return oops.With("object_id", id.String()).Wrap(scene.ErrInvalidHandle)
	}
	if err := c.checkWritable(ref, prop); err != nil {
		return err
	}
	names := make([]string, 0, len(tags))
	for tag := range tags {
		names = append(names, tag)
	}
	sort.Strings(names)

	scratch := value.MustNewProperty("renderableTags", prop.Spec())
	for _, tag := range names {
		entry, err := value.NewProperty(tag, value.ScalarSpec(value.KindInt))
		if err != nil {
			return oops.With("tag", tag).Wrap(err)
		}
		if err := entry.SetValue(value.NewInt(tags[tag])); err != nil {
			return err
		}
		if err := scratch.AddChild(entry); err != nil {
			return err
		}
	}
	_, err = c.WriteProperty(ref, scratch.Value())
	return err
}

// ResizeArray grows or shrinks a resizable array. Growing appends
// default-valued elements; shrinking drops the links and diagnostics
// rooted on the discarded tail.
func (c *Context) ResizeArray(ref scene.PropertyRef, size int) error {
	prop, err := c.p.ResolveProperty(ref)
	if err != nil {
		return err
	}
	if prop.Kind() != value.KindArray {
		return oops.With("property", ref.Key()).Wrap(value.ErrNotAContainer)
	}
	if prop.Spec().IsFixedSize() {
		return oops.With("property", ref.Key()).Wrap(scene.ErrFixedSizeArray)
	}
	if size < 0 {
		return oops.With("size", size).Wrap(scene.ErrInvalidIndex)
	}
	if err := c.checkWritable(ref, prop); err != nil {
		return err
	}
	if size == prop.Len() {
		return nil
	}

	if size < prop.Len() {
		if err := c.dropTailLinks(ref, size); err != nil {
			return err
		}
		c.dropTailDiagnostics(ref, size)
	}

	scratch := value.MustNewProperty(prop.Name(), prop.Spec())
	if err := scratch.SetValue(prop.Value()); err != nil {
		return err
	}
	if size < scratch.Len() {
		if err := scratch.Truncate(size); err != nil {
			return err
		}
	}
	for scratch.Len() < size {
		if _, err := scratch.AppendElement(); err != nil {
			return err
		}
	}
	_, err = c.WriteProperty(ref, scratch.Value())
	return err
}

// checkWritable enforces the shared write policy for one slot.
func (c *Context) checkWritable(ref scene.PropertyRef, prop *value.Property) error {
	if prop.Spec().IsVolatile() {
		return nil
	}
	if query.IsReadOnly(c.p, ref.Object) && !query.IsInstanceInterfaceInput(c.p, ref) {
		return oops.With("property", ref.Key()).Wrap(scene.ErrReadOnly)
	}
	if l, ok := c.p.Links().EndingOnOrAbove(ref); ok && !l.Weak && l.Valid {
		return oops.With("property", ref.Key()).With("start", l.Start.Key()).Wrap(scene.ErrTargetLinked)
	}
	return nil
}

// dropTailLinks removes links whose endpoint sits on an element at or past
// the new size.
func (c *Context) dropTailLinks(ref scene.PropertyRef, size int) error {
	seen := make(map[string]struct{})
	links := append(c.p.Links().FromObject(ref.Object), c.p.Links().ToObject(ref.Object)...)
	for _, l := range links {
		if _, dup := seen[l.End.Key()]; dup {
			continue
		}
		if !onDiscardedTail(ref, l.Start, size) && !onDiscardedTail(ref, l.End, size) {
			continue
		}
		seen[l.End.Key()] = struct{}{}
		if err := c.apply(&undo.LinkRemoveOp{Link: *l}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) dropTailDiagnostics(ref scene.PropertyRef, size int) {
	for _, item := range c.p.Diagnostics().ForObject(ref.Object) {
		slot := scene.PropertyRef{Object: item.Object, Path: item.Path}
		if !onDiscardedTail(ref, slot, size) {
			continue
		}
		before := item
		// Diagnostics ops cannot fail.
		_ = c.apply(&undo.DiagnosticOp{Object: item.Object, Path: item.Path, Before: &before, After: nil})
	}
}

// onDiscardedTail reports whether slot addresses an element of the array
// at ref with index >= size, or anything below one.
func onDiscardedTail(ref, slot scene.PropertyRef, size int) bool {
	if slot.Object != ref.Object || len(slot.Path) <= len(ref.Path) {
		return false
	}
	for i := range ref.Path {
		if slot.Path[i] != ref.Path[i] {
			return false
		}
	}
	index, err := strconv.Atoi(slot.Path[len(ref.Path)])
	if err != nil {
		return false
	}
	return index >= size
}
