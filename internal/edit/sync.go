// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package edit

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/engine"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/undo"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
)

// SyncScript re-extracts the dynamic property tables of a script or
// interface object from source code. A parse failure does not fail the
// call: it records a parsing diagnostic on the object and reports no
// change, so a source edit with a syntax error never rolls back the
// surrounding command. Values of declarations whose name and shape
// survived the change are preserved, and links on the object are
// revalidated against the new tables.
func (c *Context) SyncScript(ctx context.Context, id ulid.ULID, source string) (bool, error) {
	obj, err := c.syncTarget(id)
	if err != nil {
		return false, err
	}

	var slots []string
	switch obj.Kind {
	case usertypes.KindLuaScript:
		slots = []string{"inputs", "outputs", "luaModules"}
	case usertypes.KindLuaInterface:
		slots = []string{"inputs"}
	default:
		return false, oops.With("kind", obj.Kind).Wrap(usertypes.ErrNotSyncable)
	}

	var iface *engine.ScriptInterface
	if obj.Kind == usertypes.KindLuaScript {
		iface, err = c.oracle.ParseScript(ctx, source)
	} else {
		iface, err = c.oracle.ParseInterface(ctx, source)
	}
	if err != nil {
		c.setParseDiagnostic(id, err.Error())
		return false, nil
	}
	c.clearParseDiagnostic(id)

	return c.rebuildSlots(obj, slots, func() (bool, error) {
		return usertypes.ApplyScriptInterface(obj, iface)
	})
}

// SyncMaterialUniforms rebuilds a material's uniforms table from its
// shader sources. Declarations sharing a name across stages keep the
// first occurrence.
func (c *Context) SyncMaterialUniforms(id ulid.ULID, vertexSrc, fragmentSrc string) (bool, error) {
	obj, err := c.syncTarget(id)
	if err != nil {
		return false, err
	}
	if obj.Kind != usertypes.KindMaterial {
		return false, oops.With("kind", obj.Kind).Wrap(usertypes.ErrNotSyncable)
	}

	var decls []engine.UniformDecl
	seen := make(map[string]struct{})
	for _, d := range append(engine.ScanUniforms(vertexSrc), engine.ScanUniforms(fragmentSrc)...) {
		if _, dup := seen[d.Name]; dup {
			continue
		}
		seen[d.Name] = struct{}{}
		decls = append(decls, d)
	}

	return c.rebuildSlots(obj, []string{"uniforms"}, func() (bool, error) {
		return usertypes.ApplyUniforms(obj, decls)
	})
}

// SyncAnimationOutputs rebuilds an animation's outputs table from its
// referenced channels.
func (c *Context) SyncAnimationOutputs(id ulid.ULID, outputs []usertypes.ChannelOutput) (bool, error) {
	obj, err := c.syncTarget(id)
	if err != nil {
		return false, err
	}
	if obj.Kind != usertypes.KindAnimation {
		return false, oops.With("kind", obj.Kind).Wrap(usertypes.ErrNotSyncable)
	}
	return c.rebuildSlots(obj, []string{"outputs"}, func() (bool, error) {
		return usertypes.ApplyAnimationOutputs(obj, outputs)
	})
}

func (c *Context) syncTarget(id ulid.ULID) (*scene.EditorObject, error) {
	obj, ok := c.p.Object(id)
	if !ok {
		return nil, oops.With("object_id", id.String()).Wrap(scene.ErrObjectNotFound)
	}
	if obj.Extref != nil {
		return nil, oops.With("object_id", id.String()).Wrap(scene.ErrReadOnly)
	}
	return obj, nil
}

// rebuildSlots snapshots the named tables, runs an in-place rebuild, and
// records the changed tables as reversible writes. A rebuild error
// restores the snapshots so the object never keeps a half-applied
// interface.
func (c *Context) rebuildSlots(obj *scene.EditorObject, slots []string, rebuild func() (bool, error)) (bool, error) {
	before := make(map[string]value.Value, len(slots))
	for _, slot := range slots {
		prop, ok := obj.Property(slot)
		if !ok {
			return false, oops.With("property", slot).Wrap(value.ErrChildNotFound)
		}
		before[slot] = prop.CloneValue()
	}

	changed, err := rebuild()
	if err != nil {
		for _, slot := range slots {
			if prop, ok := obj.Property(slot); ok {
				_ = prop.SetValue(before[slot])
			}
		}
		return false, err
	}
	if !changed {
		return false, nil
	}

	for _, slot := range slots {
		prop, ok := obj.Property(slot)
		if !ok {
			continue
		}
		after := prop.CloneValue()
		if value.Equal(before[slot], after) {
			continue
		}
		ref := scene.PropertyRef{Object: obj.ID, Path: []string{slot}}
		c.recordApplied(
			&undo.ValueOp{Ref: ref, Before: before[slot], After: after},
			core.Change{Kind: core.ChangeValue, Object: obj.ID, Path: slot},
		)
	}
	c.RevalidateLinks(obj.ID)
	return true, nil
}

func (c *Context) setParseDiagnostic(id ulid.ULID, msg string) {
	next := scene.Diagnostic{
		Level:    scene.LevelError,
		Category: scene.CategoryParsing,
		Object:   id,
		Message:  msg,
	}
	op := &undo.DiagnosticOp{Object: id, After: &next}
	if current, ok := c.p.Diagnostics().Get(id, nil); ok {
		if current.Level == next.Level && current.Category == next.Category && current.Message == next.Message {
			return
		}
		op.Before = &current
	}
	// Diagnostics ops cannot fail.
	_ = c.apply(op)
}

func (c *Context) clearParseDiagnostic(id ulid.ULID) {
	current, ok := c.p.Diagnostics().Get(id, nil)
	if !ok || current.Category != scene.CategoryParsing {
		return
	}
	_ = c.apply(&undo.DiagnosticOp{Object: id, Before: &current})
}
