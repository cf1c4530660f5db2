// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package usertypes

import (
	"bytes"
	"errors"

	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/engine"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/value"
)

// ErrNotSyncable indicates a kind without file-driven dynamic properties.
var ErrNotSyncable = errors.New("kind has no file-backed interface")

// ErrBadResourceData indicates file content that fails the magic-byte
// check for its resource kind.
var ErrBadResourceData = errors.New("unrecognized resource data")

// ApplyScriptInterface rebuilds the dynamic tables of a script or
// interface object from an extracted interface. Values of declarations
// whose name and shape survived the change are preserved. Reports whether
// anything actually changed.
func ApplyScriptInterface(obj *scene.EditorObject, iface *engine.ScriptInterface) (bool, error) {
	switch obj.Kind {
	case KindLuaScript:
		inChanged, err := rebuildDeclTable(obj, "inputs", iface.Inputs, value.LinkEnd{})
		if err != nil {
			return false, err
		}
		outChanged, err := rebuildDeclTable(obj, "outputs", iface.Outputs, value.LinkStart{})
		if err != nil {
			return false, err
		}
		modChanged, err := rebuildModuleRefs(obj, iface.Modules)
		if err != nil {
			return false, err
		}
		return inChanged || outChanged || modChanged, nil
	case KindLuaInterface:
		// Interface properties both receive and forward values.
		return rebuildDeclTable(obj, "inputs", iface.Inputs, value.LinkStart{}, value.LinkEnd{})
	default:
		return false, oops.With("kind", obj.Kind).Wrap(ErrNotSyncable)
	}
}

// ApplyUniforms rebuilds a material's uniforms table from a shader scan.
// Sampler uniforms become texture references, everything else a linkable
// leaf of the scanned kind.
func ApplyUniforms(obj *scene.EditorObject, decls []engine.UniformDecl) (bool, error) {
	if obj.Kind != KindMaterial {
		return false, oops.With("kind", obj.Kind).Wrap(ErrNotSyncable)
	}
	slot, ok := obj.Property("uniforms")
	if !ok {
		return false, oops.With("property", "uniforms").Wrap(value.ErrChildNotFound)
	}
	fresh := make([]*value.Property, 0, len(decls))
	for _, d := range decls {
		var spec *value.Spec
		if d.Sampler {
			spec = value.RefSpec([]string{KindTexture})
		} else {
			spec = value.ScalarSpec(d.Kind, value.LinkEnd{})
		}
		np, err := value.NewProperty(d.Name, spec)
		if err != nil {
			return false, err
		}
		if op, found := slot.ChildByName(d.Name); found {
			PreserveValues(op, np)
		}
		fresh = append(fresh, np)
	}
	return replaceChildren(slot, fresh)
}

// ChannelOutput describes one animation output leaf derived from a
// referenced channel.
type ChannelOutput struct {
	Name string
	Kind value.Kind
}

// ApplyAnimationOutputs rebuilds an animation's outputs table, one
// link-start leaf per referenced channel.
func ApplyAnimationOutputs(obj *scene.EditorObject, outputs []ChannelOutput) (bool, error) {
	if obj.Kind != KindAnimation {
		return false, oops.With("kind", obj.Kind).Wrap(ErrNotSyncable)
	}
	slot, ok := obj.Property("outputs")
	if !ok {
		return false, oops.With("property", "outputs").Wrap(value.ErrChildNotFound)
	}
	fresh := make([]*value.Property, 0, len(outputs))
	for _, out := range outputs {
		np, err := value.NewProperty(out.Name, value.ScalarSpec(out.Kind, value.LinkStart{}))
		if err != nil {
			return false, err
		}
		if op, found := slot.ChildByName(out.Name); found {
			PreserveValues(op, np)
		}
		fresh = append(fresh, np)
	}
	return replaceChildren(slot, fresh)
}

func rebuildDeclTable(obj *scene.EditorObject, slotName string, decls []engine.PropDecl, annotations ...value.Annotation) (bool, error) {
	slot, ok := obj.Property(slotName)
	if !ok {
		return false, oops.With("property", slotName).Wrap(value.ErrChildNotFound)
	}
	fresh := make([]*value.Property, 0, len(decls))
	for _, d := range decls {
		np, err := d.NewProperty(annotations...)
		if err != nil {
			return false, err
		}
		if op, found := slot.ChildByName(d.Name); found {
			PreserveValues(op, np)
		}
		fresh = append(fresh, np)
	}
	return replaceChildren(slot, fresh)
}

func rebuildModuleRefs(obj *scene.EditorObject, modules []string) (bool, error) {
	slot, ok := obj.Property("luaModules")
	if !ok {
		return false, oops.With("property", "luaModules").Wrap(value.ErrChildNotFound)
	}
	fresh := make([]*value.Property, 0, len(modules))
	for _, name := range modules {
		np, err := value.NewProperty(name, value.RefSpec([]string{KindLuaScriptModule}))
		if err != nil {
			return false, err
		}
		if op, found := slot.ChildByName(name); found {
			PreserveValues(op, np)
		}
		fresh = append(fresh, np)
	}
	return replaceChildren(slot, fresh)
}

// PreserveValues copies values from one property tree into another wherever
// name and kind still line up. Interface rebuilds and prefab propagation use
// it to carry user-set values across structural changes.
func PreserveValues(from, to *value.Property) {
	if from.Kind() != to.Kind() {
		return
	}
	switch to.Kind() {
	case value.KindStruct, value.KindTable:
		for i := 0; i < to.Len(); i++ {
			tc, _ := to.Child(i)
			if fc, ok := from.ChildByName(tc.Name()); ok {
				PreserveValues(fc, tc)
			}
		}
	case value.KindArray:
		n := min(from.Len(), to.Len())
		for i := 0; i < n; i++ {
			fc, _ := from.Child(i)
			tc, _ := to.Child(i)
			PreserveValues(fc, tc)
		}
	default:
		// Kinds match, so only enum membership could refuse; a value that
		// was legal before stays legal under the same enumeration.
		_ = to.SetValue(from.Value())
	}
}

// KeepVolatile copies live values from a current property tree into a
// desired one wherever a slot is volatile, so mirror rewrites never
// overwrite engine-driven state.
func KeepVolatile(cur, want *value.Property) {
	if cur.Kind() != want.Kind() {
		return
	}
	if want.Spec().IsVolatile() {
		_ = want.SetValue(cur.Value())
		return
	}
	switch want.Kind() {
	case value.KindStruct, value.KindTable:
		for i := 0; i < want.Len(); i++ {
			w, _ := want.Child(i)
			if c, ok := cur.ChildByName(w.Name()); ok {
				KeepVolatile(c, w)
			}
		}
	case value.KindArray:
		n := min(cur.Len(), want.Len())
		for i := 0; i < n; i++ {
			w, _ := want.Child(i)
			c, _ := cur.Child(i)
			KeepVolatile(c, w)
		}
	}
}

// ResetVolatile returns every volatile slot of a detached object to its
// default. Live engine values never copy across objects or documents.
func ResetVolatile(obj *scene.EditorObject) {
	obj.WalkProperties(func(path []string, prop *value.Property) bool {
		if prop.Spec().IsVolatile() {
			_ = prop.SetValue(value.DefaultValue(prop.Spec()))
			return false
		}
		return true
	})
}

func replaceChildren(slot *value.Property, fresh []*value.Property) (bool, error) {
	if childrenEqual(slot, fresh) {
		return false, nil
	}
	slot.ClearChildren()
	for _, child := range fresh {
		if err := slot.AddChild(child); err != nil {
			return false, err
		}
	}
	return true, nil
}

func childrenEqual(slot *value.Property, fresh []*value.Property) bool {
	if slot.Len() != len(fresh) {
		return false
	}
	for i, nc := range fresh {
		oc, _ := slot.Child(i)
		if oc.Name() != nc.Name() || !value.Equal(oc.Value(), nc.Value()) {
			return false
		}
	}
	return true
}

var (
	glbMagic  = []byte("glTF")
	pngMagic  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

// ValidateMeshBytes checks that data looks like glTF, either binary or
// embedded JSON.
func ValidateMeshBytes(data []byte) error {
	if bytes.HasPrefix(data, glbMagic) {
		return nil
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return nil
	}
	return oops.With("kind", KindMesh).Wrap(ErrBadResourceData)
}

// ValidateTextureBytes checks for a PNG or JPEG header.
func ValidateTextureBytes(data []byte) error {
	if bytes.HasPrefix(data, pngMagic) || bytes.HasPrefix(data, jpegMagic) {
		return nil
	}
	return oops.With("kind", KindTexture).Wrap(ErrBadResourceData)
}
