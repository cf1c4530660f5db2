// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package command

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/pkg/forge"
)

// CreateObject creates a top-level object of a user-creatable kind and
// returns its id.
func (i *Interface) CreateObject(ctx context.Context, kind, name string) (ulid.ULID, error) {
	var id ulid.ULID
	err := i.execute(ctx, "object.create", "", func(context.Context) (string, error) {
		var err error
		id, err = i.ctx.CreateObject(kind, name)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Create %s '%s'", kind, name), nil
	})
	if err != nil {
		return ulid.ULID{}, err
	}
	return id, nil
}

// DeleteObjects deletes the deletable subset of the given objects together
// with their subtrees, dropping links and clearing references that pointed
// into the removed set. Returns the number of objects removed.
func (i *Interface) DeleteObjects(ctx context.Context, ids ...ulid.ULID) (int, error) {
	var n int
	err := i.execute(ctx, "object.delete", "", func(context.Context) (string, error) {
		var err error
		n, err = i.ctx.DeleteObjects(ids...)
		if err != nil {
			return "", err
		}
		return "Delete " + forge.Plural(n, "object"), nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// MoveScenegraphChildren reparents the moveable subset of the given
// objects, inserting before the given child index of the new parent. A
// zero parent id moves to the top level; index -1 appends. Returns the
// number of objects moved.
func (i *Interface) MoveScenegraphChildren(ctx context.Context, ids []ulid.ULID, newParent ulid.ULID, insertBeforeIndex int) (int, error) {
	var n int
	err := i.execute(ctx, "object.move", "", func(context.Context) (string, error) {
		var err error
		n, err = i.ctx.MoveScenegraphChildren(ids, newParent, insertBeforeIndex)
		if err != nil {
			return "", err
		}
		target := "the top level"
		if !core.NilID(newParent) {
			if parent, ok := i.p.Object(newParent); ok {
				target = "'" + parent.Name + "'"
			}
		}
		return fmt.Sprintf("Move %s to %s", forge.Plural(n, "object"), target), nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// SetName renames an object.
func (i *Interface) SetName(ctx context.Context, id ulid.ULID, name string) error {
	return i.execute(ctx, "object.rename", "", func(context.Context) (string, error) {
		before := ""
		if obj, ok := i.p.Object(id); ok {
			before = obj.Name
		}
		if err := i.ctx.SetName(id, name); err != nil {
			return "", err
		}
		return fmt.Sprintf("Rename '%s' to '%s'", before, name), nil
	})
}

// SetTags replaces an object's tag set.
func (i *Interface) SetTags(ctx context.Context, id ulid.ULID, tags []string) error {
	return i.execute(ctx, "object.set_tags", "", func(context.Context) (string, error) {
		if err := i.ctx.SetTags(id, tags); err != nil {
			return "", err
		}
		return fmt.Sprintf("Set %s on '%s'", forge.Plural(len(tags), "tag"), i.objectName(id)), nil
	})
}

// SetRenderableTags replaces the tag-to-order table of a render layer.
func (i *Interface) SetRenderableTags(ctx context.Context, id ulid.ULID, tags map[string]int32) error {
	return i.execute(ctx, "object.set_renderable_tags", "", func(context.Context) (string, error) {
		if err := i.ctx.SetRenderableTags(id, tags); err != nil {
			return "", err
		}
		return fmt.Sprintf("Set %s on '%s'", forge.Plural(len(tags), "renderable tag"), i.objectName(id)), nil
	})
}

// ResizeArray grows or shrinks a resizable array property. Shrinking
// drops links and diagnostics on the removed tail elements.
func (i *Interface) ResizeArray(ctx context.Context, ref scene.PropertyRef, size int) error {
	return i.execute(ctx, "array.resize", "", func(context.Context) (string, error) {
		if err := i.ctx.ResizeArray(ref, size); err != nil {
			return "", err
		}
		return fmt.Sprintf("Resize array '%s' to %s", query.FormatRef(i.p, ref), forge.Plural(size, "element")), nil
	})
}

// DeleteUnreferencedResources deletes every resource object nothing
// references, repeating until no deletion frees another resource. Imported
// resources stay; their life belongs to the source document.
func (i *Interface) DeleteUnreferencedResources(ctx context.Context) (int, error) {
	var n int
	err := i.execute(ctx, "resources.cleanup", "", func(context.Context) (string, error) {
		for {
			orphaned := query.FindAllUnreferencedObjects(i.p, func(o *scene.EditorObject) bool {
				return usertypes.IsResource(o.Kind)
			})
			if len(orphaned) == 0 {
				break
			}
			d, err := i.ctx.DeleteObjects(orphaned...)
			if err != nil {
				return "", err
			}
			if d == 0 {
				break
			}
			n += d
		}
		return "Delete " + forge.Plural(n, "unused resource"), nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// SyncScript reparses a script or interface source and rebuilds the
// object's declared property tables, keeping values whose name and type
// survived. A parse failure lands as a diagnostic on the object, not as a
// command error.
func (i *Interface) SyncScript(ctx context.Context, id ulid.ULID, source string) error {
	return i.execute(ctx, "script.sync", "", func(ctx context.Context) (string, error) {
		if _, err := i.ctx.SyncScript(ctx, id, source); err != nil {
			return "", err
		}
		return fmt.Sprintf("Sync script '%s'", i.objectName(id)), nil
	})
}

// objectName resolves a display name, falling back to the id for objects
// that vanished mid-command.
func (i *Interface) objectName(id ulid.ULID) string {
	if obj, ok := i.p.Object(id); ok {
		return obj.Name
	}
	return id.String()
}
