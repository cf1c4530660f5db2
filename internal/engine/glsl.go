// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package engine

import (
	"regexp"
	"strings"

	"github.com/sceneforge/sceneforge/internal/value"
)

// UniformDecl is one uniform pulled out of shader source. Sampler
// uniforms surface as texture references rather than values.
type UniformDecl struct {
	Name    string
	Kind    value.Kind
	Sampler bool
}

// uniformTypes maps GLSL type names to value kinds. Unlisted types
// (matrices, array forms, later-standard samplers) are skipped rather
// than guessed at.
var uniformTypes = map[string]value.Kind{
	"bool":  value.KindBool,
	"int":   value.KindInt,
	"float": value.KindDouble,
	"vec2":  value.KindVec2f,
	"vec3":  value.KindVec3f,
	"vec4":  value.KindVec4f,
	"ivec2": value.KindVec2i,
	"ivec3": value.KindVec3i,
	"ivec4": value.KindVec4i,
}

var samplerTypes = map[string]struct{}{
	"sampler2D":   {},
	"samplerCube": {},
}

var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe  = regexp.MustCompile(`//[^\n]*`)
	precisionWords = map[string]struct{}{"lowp": {}, "mediump": {}, "highp": {}}
)

// ScanUniforms extracts the scalar, vector and sampler uniforms a shader
// declares, in source order. The scan is lexical; it does not evaluate
// preprocessor conditionals, so uniforms inside #if blocks are reported
// unconditionally.
func ScanUniforms(source string) []UniformDecl {
	src := blockCommentRe.ReplaceAllString(source, " ")
	src = lineCommentRe.ReplaceAllString(src, " ")

	var decls []UniformDecl
	for _, stmt := range strings.Split(src, ";") {
		fields := strings.Fields(stmt)
		for i, word := range fields {
			if word != "uniform" {
				continue
			}
			rest := fields[i+1:]
			// Skip precision qualifiers between keyword and type.
			for len(rest) > 0 {
				if _, ok := precisionWords[rest[0]]; !ok {
					break
				}
				rest = rest[1:]
			}
			if len(rest) < 2 {
				break
			}
			typeName, name := rest[0], rest[1]
			// Array uniforms and anonymous declarations stay out of the
			// material property set.
			if strings.ContainsAny(name, "[]") {
				break
			}
			if _, ok := samplerTypes[typeName]; ok {
				decls = append(decls, UniformDecl{Name: name, Kind: value.KindRef, Sampler: true})
				break
			}
			if kind, ok := uniformTypes[typeName]; ok {
				decls = append(decls, UniformDecl{Name: name, Kind: kind})
			}
			break
		}
	}
	return decls
}
