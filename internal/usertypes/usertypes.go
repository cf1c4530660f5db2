// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package usertypes is the closed catalog of object kinds a document can
// hold: their display names, creation rules, feature gates, scenegraph
// nesting rules and property layouts. Everything else in the editor asks
// this catalog instead of switching on kind strings.
package usertypes

import (
	"errors"
	"sort"

	"github.com/sceneforge/sceneforge/internal/value"
)

// Object kind names. The set is closed; serialization rejects anything
// else.
const (
	KindNode             = "Node"
	KindMeshNode         = "MeshNode"
	KindMesh             = "Mesh"
	KindMaterial         = "Material"
	KindTexture          = "Texture"
	KindRenderLayer      = "RenderLayer"
	KindLuaScript        = "LuaScript"
	KindLuaInterface     = "LuaInterface"
	KindLuaScriptModule  = "LuaScriptModule"
	KindPrefab           = "Prefab"
	KindPrefabInstance   = "PrefabInstance"
	KindAnimation        = "Animation"
	KindAnimationChannel = "AnimationChannel"
	KindTimer            = "Timer"
	KindProjectSettings  = "ProjectSettings"
)

// ErrUnknownKind indicates a kind name outside the catalog.
var ErrUnknownKind = errors.New("unknown object kind")

// ErrNotUserCreatable indicates a kind only the system may instantiate.
var ErrNotUserCreatable = errors.New("kind is not user-creatable")

// Descriptor is the catalog entry for one object kind.
type Descriptor struct {
	Kind            string
	DisplayName     string
	Resource        bool // lives outside the scenegraph, referenced by id
	UserCreatable   bool
	MinFeatureLevel int
	NewProperties   func() []*value.Property
}

var catalog = map[string]Descriptor{
	KindNode: {
		Kind: KindNode, DisplayName: "Node",
		UserCreatable: true, MinFeatureLevel: 1,
		NewProperties: sceneGraphProperties,
	},
	KindMeshNode: {
		Kind: KindMeshNode, DisplayName: "MeshNode",
		UserCreatable: true, MinFeatureLevel: 1,
		NewProperties: meshNodeProperties,
	},
	KindMesh: {
		Kind: KindMesh, DisplayName: "Mesh",
		Resource: true, UserCreatable: true, MinFeatureLevel: 1,
		NewProperties: meshProperties,
	},
	KindMaterial: {
		Kind: KindMaterial, DisplayName: "Material",
		Resource: true, UserCreatable: true, MinFeatureLevel: 1,
		NewProperties: materialProperties,
	},
	KindTexture: {
		Kind: KindTexture, DisplayName: "Texture",
		Resource: true, UserCreatable: true, MinFeatureLevel: 1,
		NewProperties: textureProperties,
	},
	KindRenderLayer: {
		Kind: KindRenderLayer, DisplayName: "Render Layer",
		Resource: true, UserCreatable: true, MinFeatureLevel: 1,
		NewProperties: renderLayerProperties,
	},
	KindLuaScript: {
		Kind: KindLuaScript, DisplayName: "Lua Script",
		UserCreatable: true, MinFeatureLevel: 1,
		NewProperties: luaScriptProperties,
	},
	KindLuaInterface: {
		Kind: KindLuaInterface, DisplayName: "Lua Interface",
		UserCreatable: true, MinFeatureLevel: 3,
		NewProperties: luaInterfaceProperties,
	},
	KindLuaScriptModule: {
		Kind: KindLuaScriptModule, DisplayName: "Lua Script Module",
		Resource: true, UserCreatable: true, MinFeatureLevel: 1,
		NewProperties: luaScriptModuleProperties,
	},
	KindPrefab: {
		Kind: KindPrefab, DisplayName: "Prefab",
		UserCreatable: true, MinFeatureLevel: 1,
		NewProperties: func() []*value.Property { return nil },
	},
	KindPrefabInstance: {
		Kind: KindPrefabInstance, DisplayName: "Prefab Instance",
		UserCreatable: true, MinFeatureLevel: 1,
		NewProperties: prefabInstanceProperties,
	},
	KindAnimation: {
		Kind: KindAnimation, DisplayName: "Animation",
		UserCreatable: true, MinFeatureLevel: 1,
		NewProperties: animationProperties,
	},
	KindAnimationChannel: {
		Kind: KindAnimationChannel, DisplayName: "Animation Channel",
		Resource: true, UserCreatable: true, MinFeatureLevel: 1,
		NewProperties: animationChannelProperties,
	},
	KindTimer: {
		Kind: KindTimer, DisplayName: "Timer",
		UserCreatable: true, MinFeatureLevel: 2,
		NewProperties: timerProperties,
	},
	KindProjectSettings: {
		Kind: KindProjectSettings, DisplayName: "Project Settings",
		UserCreatable: false, MinFeatureLevel: 1,
		NewProperties: projectSettingsProperties,
	},
}

// childKinds lists which kinds a parent kind accepts as direct scenegraph
// children through user operations. Prefab contents may also hold logic
// objects; prefab instances only ever receive system-generated children.
var childKinds = map[string]map[string]struct{}{
	KindNode:     sceneGraphChildSet(),
	KindMeshNode: sceneGraphChildSet(),
	KindPrefab: {
		KindNode: {}, KindMeshNode: {}, KindPrefabInstance: {},
		KindLuaScript: {}, KindLuaInterface: {}, KindAnimation: {}, KindTimer: {},
	},
}

func sceneGraphChildSet() map[string]struct{} {
	return map[string]struct{}{
		KindNode: {}, KindMeshNode: {}, KindPrefabInstance: {},
	}
}

// Lookup returns the descriptor for a kind name.
func Lookup(kind string) (Descriptor, bool) {
	d, ok := catalog[kind]
	return d, ok
}

// Known reports whether the kind name is in the catalog.
func Known(kind string) bool {
	_, ok := catalog[kind]
	return ok
}

// Kinds returns all catalog kind names, sorted.
func Kinds() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsResource reports whether objects of the kind live outside the
// scenegraph.
func IsResource(kind string) bool {
	d, ok := catalog[kind]
	return ok && d.Resource
}

// AcceptsChildren reports whether the kind can take user-placed scenegraph
// children at all.
func AcceptsChildren(kind string) bool {
	_, ok := childKinds[kind]
	return ok
}

// CanParent reports whether a user operation may place a child of the
// given kind directly under a parent of the given kind.
func CanParent(parentKind, childKind string) bool {
	allowed, ok := childKinds[parentKind]
	if !ok {
		return false
	}
	_, ok = allowed[childKind]
	return ok
}

// Attachable reports whether the kind may sit below a scenegraph parent
// at all.
func Attachable(kind string) bool {
	for _, allowed := range childKinds {
		if _, ok := allowed[kind]; ok {
			return true
		}
	}
	return false
}
