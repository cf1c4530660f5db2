// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sceneforge/sceneforge/internal/engine"
	"github.com/sceneforge/sceneforge/internal/value"
)

func TestEngine_ParseScript(t *testing.T) {
	eng := engine.NewEngine()

	t.Run("extracts sorted declarations", func(t *testing.T) {
		iface, err := eng.ParseScript(context.Background(), `
			function interface(IN, OUT)
				IN.speed = Type:Float()
				IN.enabled = Type:Bool()
				OUT.translation = Type:Vec3f()
			end
			function run(IN, OUT)
			end
		`)
		require.NoError(t, err)

		require.Len(t, iface.Inputs, 2)
		assert.Equal(t, "enabled", iface.Inputs[0].Name)
		assert.Equal(t, value.KindBool, iface.Inputs[0].Kind)
		assert.Equal(t, "speed", iface.Inputs[1].Name)
		assert.Equal(t, value.KindDouble, iface.Inputs[1].Kind)

		require.Len(t, iface.Outputs, 1)
		assert.Equal(t, "translation", iface.Outputs[0].Name)
		assert.Equal(t, value.KindVec3f, iface.Outputs[0].Kind)
	})

	t.Run("nested struct declaration", func(t *testing.T) {
		iface, err := eng.ParseScript(context.Background(), `
			function interface(IN, OUT)
				IN.light = Type:Struct({
					color = Type:Vec3f(),
					intensity = Type:Float(),
				})
			end
			function run(IN, OUT)
			end
		`)
		require.NoError(t, err)

		require.Len(t, iface.Inputs, 1)
		light := iface.Inputs[0]
		assert.Equal(t, value.KindStruct, light.Kind)
		require.Len(t, light.Fields, 2)
		assert.Equal(t, "color", light.Fields[0].Name)
		assert.Equal(t, value.KindVec3f, light.Fields[0].Kind)
		assert.Equal(t, "intensity", light.Fields[1].Name)
		assert.Equal(t, value.KindDouble, light.Fields[1].Kind)
	})

	t.Run("array declaration", func(t *testing.T) {
		iface, err := eng.ParseScript(context.Background(), `
			function interface(IN, OUT)
				OUT.points = Type:Array(3, Type:Vec3f())
			end
			function run(IN, OUT)
			end
		`)
		require.NoError(t, err)

		require.Len(t, iface.Outputs, 1)
		points := iface.Outputs[0]
		assert.Equal(t, value.KindArray, points.Kind)
		assert.Equal(t, 3, points.Size)
		require.NotNil(t, points.Elem)
		assert.Equal(t, value.KindVec3f, points.Elem.Kind)
	})

	t.Run("captures module declarations", func(t *testing.T) {
		iface, err := eng.ParseScript(context.Background(), `
			modules("easing", "quaternions")
			function interface(IN, OUT)
				IN.t = Type:Float()
			end
			function run(IN, OUT)
			end
		`)
		require.NoError(t, err)
		assert.Equal(t, []string{"easing", "quaternions"}, iface.Modules)
	})

	tests := []struct {
		name    string
		source  string
		wantErr error
	}{
		{
			name:    "syntax error",
			source:  `function interface(IN, OUT`,
			wantErr: engine.ErrScriptParse,
		},
		{
			name: "missing interface",
			source: `
				function run(IN, OUT)
				end
			`,
			wantErr: engine.ErrMissingFunction,
		},
		{
			name: "missing run",
			source: `
				function interface(IN, OUT)
				end
			`,
			wantErr: engine.ErrMissingFunction,
		},
		{
			name: "declaration is not a descriptor",
			source: `
				function interface(IN, OUT)
					IN.x = 5
				end
				function run(IN, OUT)
				end
			`,
			wantErr: engine.ErrBadDeclaration,
		},
		{
			name: "invalid property name",
			source: `
				function interface(IN, OUT)
					IN["2fast"] = Type:Float()
				end
				function run(IN, OUT)
				end
			`,
			wantErr: engine.ErrBadDeclaration,
		},
		{
			name: "interface raises",
			source: `
				function interface(IN, OUT)
					error("boom")
				end
				function run(IN, OUT)
				end
			`,
			wantErr: engine.ErrScriptParse,
		},
		{
			name: "array size below one",
			source: `
				function interface(IN, OUT)
					IN.xs = Type:Array(0, Type:Float())
				end
				function run(IN, OUT)
				end
			`,
			wantErr: engine.ErrBadDeclaration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.ParseScript(context.Background(), tt.source)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEngine_ParseInterface(t *testing.T) {
	eng := engine.NewEngine()

	t.Run("single table and no run required", func(t *testing.T) {
		iface, err := eng.ParseInterface(context.Background(), `
			function interface(INOUT)
				INOUT.brightness = Type:Float()
				INOUT.mode = Type:Int32()
			end
		`)
		require.NoError(t, err)

		require.Len(t, iface.Inputs, 2)
		assert.Equal(t, "brightness", iface.Inputs[0].Name)
		assert.Equal(t, "mode", iface.Inputs[1].Name)
		assert.Empty(t, iface.Outputs)
	})

	t.Run("missing interface", func(t *testing.T) {
		_, err := eng.ParseInterface(context.Background(), `x = 1`)
		require.Error(t, err)
		assert.ErrorIs(t, err, engine.ErrMissingFunction)
	})
}

func TestEngine_ParseModule(t *testing.T) {
	eng := engine.NewEngine()

	tests := []struct {
		name    string
		source  string
		wantErr error
	}{
		{
			name: "returns a table",
			source: `
				local m = {}
				function m.double(x) return x * 2 end
				return m
			`,
		},
		{
			name:    "returns a number",
			source:  `return 42`,
			wantErr: engine.ErrNotAModule,
		},
		{
			name:    "returns nothing",
			source:  `local x = 1`,
			wantErr: engine.ErrNotAModule,
		},
		{
			name:    "syntax error",
			source:  `return {`,
			wantErr: engine.ErrScriptParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eng.ParseModule(context.Background(), tt.source)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPropDecl_Spec(t *testing.T) {
	decl := engine.PropDecl{
		Name: "light",
		Kind: value.KindStruct,
		Fields: []engine.PropDecl{
			{Name: "color", Kind: value.KindVec3f},
			{Name: "samples", Kind: value.KindArray, Size: 2, Elem: &engine.PropDecl{Kind: value.KindDouble}},
		},
	}

	spec := decl.Spec(value.LinkEnd{})
	require.Equal(t, value.KindStruct, spec.Kind)
	require.Len(t, spec.Fields, 2)
	assert.True(t, spec.IsLinkEnd())

	colorSpec := spec.Fields[0].Spec
	assert.Equal(t, value.KindVec3f, colorSpec.Kind)
	assert.True(t, colorSpec.IsLinkEnd())

	arraySpec := spec.Fields[1].Spec
	require.Equal(t, value.KindArray, arraySpec.Kind)
	assert.True(t, arraySpec.IsFixedSize())
	assert.Equal(t, value.KindDouble, arraySpec.ElemSpec.Kind)
}
