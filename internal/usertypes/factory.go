// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package usertypes

import (
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/scene"
)

// Factory instantiates catalog kinds. Construction goes through an
// explicit factory value rather than package state so tests can hold
// their own.
type Factory struct{}

// NewFactory creates an object factory.
func NewFactory() *Factory {
	return &Factory{}
}

// New creates a detached object of the given kind with a fresh id and the
// kind's default property tree. The project feature level gates kinds
// introduced at higher levels.
func (f *Factory) New(kind, name string, featureLevel int) (*scene.EditorObject, error) {
	desc, ok := Lookup(kind)
	if !ok {
		return nil, oops.With("kind", kind).Wrap(ErrUnknownKind)
	}
	if !desc.UserCreatable {
		return nil, oops.With("kind", kind).Wrap(ErrNotUserCreatable)
	}
	if desc.MinFeatureLevel > featureLevel {
		return nil, oops.
			With("kind", kind).
			With("required", desc.MinFeatureLevel).
			With("project", featureLevel).
			Wrap(scene.ErrFeatureLevel)
	}
	return &scene.EditorObject{
		ID:         core.NewObjectID(),
		Kind:       kind,
		Name:       name,
		Properties: desc.NewProperties(),
	}, nil
}

// NewSettings creates the per-project settings singleton. It bypasses the
// user-creatable check; only project bootstrap calls it.
func (f *Factory) NewSettings() *scene.EditorObject {
	desc := catalog[KindProjectSettings]
	return &scene.EditorObject{
		ID:         core.NewObjectID(),
		Kind:       KindProjectSettings,
		Name:       "ProjectSettings",
		Properties: desc.NewProperties(),
	}
}
