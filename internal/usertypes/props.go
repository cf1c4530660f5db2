// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package usertypes

import (
	"github.com/sceneforge/sceneforge/internal/engine"
	"github.com/sceneforge/sceneforge/internal/value"
)

// Property layouts per kind. Builders return fresh trees; specs inside
// them are shared static data.

func prop(name string, spec *value.Spec) *value.Property {
	return value.MustNewProperty(name, spec)
}

func propWith(name string, spec *value.Spec, v value.Value) *value.Property {
	p := value.MustNewProperty(name, spec)
	if err := p.SetValue(v); err != nil {
		panic(err)
	}
	return p
}

func tagsProperty() *value.Property {
	return prop("tags", value.ArraySpec(value.ScalarSpec(value.KindString), value.TagContainer{}))
}

func sceneGraphProperties() []*value.Property {
	return []*value.Property{
		propWith("visibility", value.ScalarSpec(value.KindBool, value.LinkEnd{}), value.NewBool(true)),
		propWith("enabled", value.ScalarSpec(value.KindBool, value.LinkEnd{}, value.FeatureGate{Min: 2}), value.NewBool(true)),
		prop("translation", value.ScalarSpec(value.KindVec3f, value.LinkEnd{})),
		prop("rotation", value.ScalarSpec(value.KindVec3f, value.LinkEnd{}, value.RangeDouble{Min: -360, Max: 360})),
		propWith("scaling", value.ScalarSpec(value.KindVec3f, value.LinkEnd{}), value.NewVec3f(1, 1, 1)),
		tagsProperty(),
	}
}

func meshNodeProperties() []*value.Property {
	return append(sceneGraphProperties(),
		prop("mesh", value.RefSpec([]string{KindMesh})),
		prop("materials", value.ArraySpec(materialSlotSpec())),
	)
}

func materialSlotSpec() *value.Spec {
	return value.StructSpec("MaterialSlot", []value.FieldSpec{
		{Name: "material", Spec: value.RefSpec([]string{KindMaterial})},
		{Name: "blendMode", Spec: value.ScalarSpec(value.KindInt, value.Enumeration{ID: value.EnumBlendMode})},
		{Name: "cullMode", Spec: value.ScalarSpec(value.KindInt, value.Enumeration{ID: value.EnumCullMode})},
		{Name: "depthWrite", Spec: value.ScalarSpec(value.KindBool)},
	})
}

func meshProperties() []*value.Property {
	return []*value.Property{
		prop("uri", value.ScalarSpec(value.KindString, value.URI{Filter: value.URIMesh})),
	}
}

func materialProperties() []*value.Property {
	return []*value.Property{
		prop("uriVertex", value.ScalarSpec(value.KindString, value.URI{Filter: value.URIShader})),
		prop("uriFragment", value.ScalarSpec(value.KindString, value.URI{Filter: value.URIShader})),
		prop("uniforms", value.TableSpec()),
		tagsProperty(),
	}
}

func textureProperties() []*value.Property {
	return []*value.Property{
		prop("uri", value.ScalarSpec(value.KindString, value.URI{Filter: value.URIImage})),
		propWith("filter", value.ScalarSpec(value.KindInt, value.Enumeration{ID: value.EnumTextureFilter}), value.NewInt(1)),
		prop("flipVertically", value.ScalarSpec(value.KindBool)),
	}
}

func renderLayerProperties() []*value.Property {
	return []*value.Property{
		prop("renderableTags", value.TableSpec(value.RenderableTags{})),
		prop("sortOrder", value.ScalarSpec(value.KindInt, value.Enumeration{ID: value.EnumRenderLayerOrder})),
	}
}

func luaScriptProperties() []*value.Property {
	return []*value.Property{
		prop("uri", value.ScalarSpec(value.KindString, value.URI{Filter: value.URIScript})),
		prop("luaModules", value.TableSpec()),
		prop("inputs", value.TableSpec()),
		prop("outputs", value.TableSpec()),
	}
}

func luaInterfaceProperties() []*value.Property {
	return []*value.Property{
		prop("uri", value.ScalarSpec(value.KindString, value.URI{Filter: value.URIInterface})),
		prop("inputs", value.TableSpec()),
	}
}

func luaScriptModuleProperties() []*value.Property {
	return []*value.Property{
		prop("uri", value.ScalarSpec(value.KindString, value.URI{Filter: value.URIModule})),
	}
}

func prefabInstanceProperties() []*value.Property {
	return append(sceneGraphProperties(),
		prop("template", value.RefSpec([]string{KindPrefab})),
	)
}

func animationProperties() []*value.Property {
	return []*value.Property{
		prop("progress", value.ScalarSpec(value.KindDouble, value.LinkEnd{}, value.RangeDouble{Min: 0, Max: 1})),
		prop("channels", value.ArraySpec(value.RefSpec([]string{KindAnimationChannel}))),
		prop("outputs", value.TableSpec()),
	}
}

func animationChannelProperties() []*value.Property {
	return []*value.Property{
		prop("uri", value.ScalarSpec(value.KindString, value.URI{Filter: value.URIMesh})),
		prop("animationIndex", value.ScalarSpec(value.KindInt, value.RangeInt{Min: 0, Max: 255})),
		prop("samplerIndex", value.ScalarSpec(value.KindInt, value.RangeInt{Min: 0, Max: 255})),
		prop("interpolationType", value.ScalarSpec(value.KindInt, value.Enumeration{ID: value.EnumInterpolation})),
	}
}

func timerProperties() []*value.Property {
	return []*value.Property{
		prop("inputs", value.StructSpec("TimerInput", []value.FieldSpec{
			{Name: "ticker_us", Spec: value.ScalarSpec(value.KindInt64, value.LinkEnd{})},
		})),
		prop("outputs", value.StructSpec("TimerOutput", []value.FieldSpec{
			{Name: "ticker_us", Spec: value.ScalarSpec(value.KindInt64, value.LinkStart{}, value.Volatile{})},
		})),
	}
}

func projectSettingsProperties() []*value.Property {
	return []*value.Property{
		propWith("sceneId", value.ScalarSpec(value.KindInt, value.RangeInt{Min: 1, Max: 1024}), value.NewInt(123)),
		propWith("featureLevel", value.ScalarSpec(value.KindInt, value.RangeInt{Min: 1, Max: engine.MaxFeatureLevel}), value.NewInt(1)),
		propWith("viewport", value.ScalarSpec(value.KindVec2i, value.RangeInt{Min: 0, Max: 8192}), value.NewVec2i(1440, 720)),
		propWith("backgroundColor", value.ScalarSpec(value.KindVec4f, value.RangeDouble{Min: 0, Max: 1}), value.NewVec4f(0, 0, 0, 1)),
	}
}
