// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package command

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/value"
	"github.com/sceneforge/sceneforge/pkg/forge"
)

// Typed setters cover every scalar, vector, and reference property kind.
// Each one funnels through set, which merges consecutive writes to the
// same property into a single undo entry so a slider drag undoes in one
// step.

// SetBool writes a bool property.
func (i *Interface) SetBool(ctx context.Context, ref scene.PropertyRef, v bool) error {
	return i.set(ctx, ref, value.NewBool(v))
}

// SetInt writes an int property.
func (i *Interface) SetInt(ctx context.Context, ref scene.PropertyRef, v int32) error {
	return i.set(ctx, ref, value.NewInt(v))
}

// SetInt64 writes an int64 property.
func (i *Interface) SetInt64(ctx context.Context, ref scene.PropertyRef, v int64) error {
	return i.set(ctx, ref, value.NewInt64(v))
}

// SetDouble writes a double property.
func (i *Interface) SetDouble(ctx context.Context, ref scene.PropertyRef, v float64) error {
	return i.set(ctx, ref, value.NewDouble(v))
}

// SetString writes a string property.
func (i *Interface) SetString(ctx context.Context, ref scene.PropertyRef, v string) error {
	return i.set(ctx, ref, value.NewString(v))
}

// SetRef writes a reference property. The zero id clears the reference.
func (i *Interface) SetRef(ctx context.Context, ref scene.PropertyRef, target ulid.ULID) error {
	return i.set(ctx, ref, value.NewRef(target))
}

// SetVec2f writes a two-component float vector property.
func (i *Interface) SetVec2f(ctx context.Context, ref scene.PropertyRef, x, y float64) error {
	return i.set(ctx, ref, value.NewVec2f(x, y))
}

// SetVec3f writes a three-component float vector property.
func (i *Interface) SetVec3f(ctx context.Context, ref scene.PropertyRef, x, y, z float64) error {
	return i.set(ctx, ref, value.NewVec3f(x, y, z))
}

// SetVec4f writes a four-component float vector property.
func (i *Interface) SetVec4f(ctx context.Context, ref scene.PropertyRef, x, y, z, w float64) error {
	return i.set(ctx, ref, value.NewVec4f(x, y, z, w))
}

// SetVec2i writes a two-component int vector property.
func (i *Interface) SetVec2i(ctx context.Context, ref scene.PropertyRef, x, y int32) error {
	return i.set(ctx, ref, value.NewVec2i(x, y))
}

// SetVec3i writes a three-component int vector property.
func (i *Interface) SetVec3i(ctx context.Context, ref scene.PropertyRef, x, y, z int32) error {
	return i.set(ctx, ref, value.NewVec3i(x, y, z))
}

// SetVec4i writes a four-component int vector property.
func (i *Interface) SetVec4i(ctx context.Context, ref scene.PropertyRef, x, y, z, w int32) error {
	return i.set(ctx, ref, value.NewVec4i(x, y, z, w))
}

// SetValue writes an already-constructed value. Frontends that parse
// values from text use this instead of the typed setters; the kind check
// against the property spec happens underneath either way.
func (i *Interface) SetValue(ctx context.Context, ref scene.PropertyRef, v value.Value) error {
	return i.set(ctx, ref, v)
}

func (i *Interface) set(ctx context.Context, ref scene.PropertyRef, v value.Value) error {
	return i.execute(ctx, "property.set", "set:"+ref.Key(), func(context.Context) (string, error) {
		if err := i.ctx.Set(ref, v); err != nil {
			return "", err
		}
		return fmt.Sprintf("Set '%s' to %s", query.FormatRef(i.p, ref), forge.FormatValue(v)), nil
	})
}
