// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/usertypes"
)

// moduleParser is the optional oracle capability for checking script
// module sources. The sweep skips module validation when the oracle
// cannot parse modules.
type moduleParser interface {
	ParseModule(ctx context.Context, source string) error
}

// SyncExternalFiles re-reads every file-backed object's sources from disk
// and re-synchronizes the document: script and interface property tables,
// material uniforms, and mesh and texture format checks. File problems
// land as diagnostics on the owning URI slot instead of failing the
// command; an unreadable source keeps the object's current tables.
// Imported objects are skipped, their content belongs to the source
// document. Returns the number of objects whose content changed.
func (i *Interface) SyncExternalFiles(ctx context.Context) (int, error) {
	var n int
	err := i.execute(ctx, "files.sync", "", func(ctx context.Context) (string, error) {
		var baseDir string
		if i.p.Path != "" {
			baseDir = filepath.Dir(i.p.Path)
		}
		for _, obj := range i.p.Instances() {
			if obj.IsExternalReference() {
				continue
			}
			changed, err := i.syncObjectFiles(ctx, baseDir, obj)
			if err != nil {
				return "", err
			}
			if changed {
				n++
			}
		}
		return "Sync external files", nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (i *Interface) syncObjectFiles(ctx context.Context, baseDir string, obj *scene.EditorObject) (bool, error) {
	switch obj.Kind {
	case usertypes.KindLuaScript, usertypes.KindLuaInterface:
		i.ctx.ClearDiagnosticCategory(obj.ID, scene.CategoryFilesystem)
		source, ok := i.readURIFile(baseDir, obj, "uri")
		if !ok {
			return false, nil
		}
		return i.ctx.SyncScript(ctx, obj.ID, source)

	case usertypes.KindLuaScriptModule:
		return false, i.syncModuleFile(ctx, baseDir, obj)

	case usertypes.KindMaterial:
		return i.syncMaterialFiles(baseDir, obj)

	case usertypes.KindMesh, usertypes.KindAnimationChannel:
		i.checkResourceFile(baseDir, obj, usertypes.ValidateMeshBytes)
		return false, nil

	case usertypes.KindTexture:
		i.checkResourceFile(baseDir, obj, usertypes.ValidateTextureBytes)
		return false, nil
	}
	return false, nil
}

// syncModuleFile checks a script module source parses. Modules declare no
// properties, so a content change never touches the object itself; the
// scripts importing it resync on their own source change.
func (i *Interface) syncModuleFile(ctx context.Context, baseDir string, obj *scene.EditorObject) error {
	parser, ok := i.oracle.(moduleParser)
	if !ok {
		return nil
	}
	i.ctx.ClearDiagnosticCategory(obj.ID, scene.CategoryFilesystem)
	source, ok := i.readURIFile(baseDir, obj, "uri")
	if !ok {
		return nil
	}
	i.ctx.ClearDiagnosticCategory(obj.ID, scene.CategoryParsing)
	if err := parser.ParseModule(ctx, source); err != nil {
		i.ctx.PutDiagnostic(scene.Diagnostic{
			Level:    scene.LevelError,
			Category: scene.CategoryParsing,
			Object:   obj.ID,
			Message:  err.Error(),
		})
	}
	return nil
}

// syncMaterialFiles rebuilds the uniforms table from both shader stages.
// A stage whose file cannot be read aborts the rebuild so the current
// uniform values survive until the file is back; a stage with no URI
// contributes an empty source, that is an authoring state, not an error.
func (i *Interface) syncMaterialFiles(baseDir string, obj *scene.EditorObject) (bool, error) {
	i.ctx.ClearDiagnosticCategory(obj.ID, scene.CategoryFilesystem)
	vertex, vok := i.readURIFile(baseDir, obj, "uriVertex")
	fragment, fok := i.readURIFile(baseDir, obj, "uriFragment")
	if (!vok && uriValue(obj, "uriVertex") != "") || (!fok && uriValue(obj, "uriFragment") != "") {
		return false, nil
	}
	return i.ctx.SyncMaterialUniforms(obj.ID, vertex, fragment)
}

// checkResourceFile validates a resource file's format without loading
// its content into the document.
func (i *Interface) checkResourceFile(baseDir string, obj *scene.EditorObject, check func([]byte) error) {
	i.ctx.ClearDiagnosticCategory(obj.ID, scene.CategoryFilesystem)
	i.ctx.ClearDiagnosticCategory(obj.ID, scene.CategoryParsing)
	data, ok := i.readURIFile(baseDir, obj, "uri")
	if !ok {
		return
	}
	if err := check([]byte(data)); err != nil {
		i.ctx.PutDiagnostic(scene.Diagnostic{
			Level:    scene.LevelError,
			Category: scene.CategoryParsing,
			Object:   obj.ID,
			Message:  err.Error(),
		})
	}
}

// readURIFile resolves a URI slot against the document directory and
// reads the file. An empty URI records a warning, a failed read records
// an error; both report no content.
func (i *Interface) readURIFile(baseDir string, obj *scene.EditorObject, slot string) (string, bool) {
	uri := uriValue(obj, slot)
	if uri == "" {
		i.ctx.PutDiagnostic(scene.Diagnostic{
			Level:    scene.LevelWarning,
			Category: scene.CategoryFilesystem,
			Object:   obj.ID,
			Path:     []string{slot},
			Message:  "empty URI",
		})
		return "", false
	}
	path := uri
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		i.ctx.PutDiagnostic(scene.Diagnostic{
			Level:    scene.LevelError,
			Category: scene.CategoryFilesystem,
			Object:   obj.ID,
			Path:     []string{slot},
			Message:  fmt.Sprintf("cannot read '%s': %v", uri, err),
		})
		return "", false
	}
	return string(data), true
}

func uriValue(obj *scene.EditorObject, slot string) string {
	prop, ok := obj.Property(slot)
	if !ok {
		return ""
	}
	s, _ := prop.AsString()
	return s
}
