// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package command_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/usertypes"
)

// syncFixture points the document at a real directory so relative URIs
// resolve during the file sweep.
func syncFixture(t *testing.T) (*fixture, string) {
	t.Helper()
	fx := newFixture(t, "P1")
	dir := t.TempDir()
	fx.p.Path = filepath.Join(dir, "main.sfp")
	return fx, dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestSyncExternalFilesScript(t *testing.T) {
	fx, dir := syncFixture(t)
	ctx := context.Background()
	writeFile(t, dir, "rotator.lua", testScript)

	id := fx.create(t, usertypes.KindLuaScript, "rotator")
	require.NoError(t, fx.itf.SetString(ctx, ref(id, "uri"), "rotator.lua"))

	n, err := fx.itf.SyncExternalFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	inputs, ok := fx.obj(t, id).Property("inputs")
	require.True(t, ok)
	assert.Equal(t, 2, inputs.Len())
	outputs, ok := fx.obj(t, id).Property("outputs")
	require.True(t, ok)
	assert.Equal(t, 2, outputs.Len())
	assert.Equal(t, 0, fx.p.Diagnostics().Count())
	assert.Equal(t, "Sync external files", fx.itf.UndoDescription(fx.itf.UndoSize()-1))

	// Unchanged files on a second sweep leave the document alone.
	size := fx.itf.UndoSize()
	n, err = fx.itf.SyncExternalFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, size, fx.itf.UndoSize())
}

func TestSyncExternalFilesMissingFile(t *testing.T) {
	fx, dir := syncFixture(t)
	ctx := context.Background()

	id := fx.create(t, usertypes.KindLuaScript, "rotator")
	require.NoError(t, fx.itf.SetString(ctx, ref(id, "uri"), "rotator.lua"))

	n, err := fx.itf.SyncExternalFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	diag, ok := fx.p.Diagnostics().Get(id, []string{"uri"})
	require.True(t, ok)
	assert.Equal(t, scene.LevelError, diag.Level)
	assert.Equal(t, scene.CategoryFilesystem, diag.Category)
	assert.Contains(t, diag.Message, "rotator.lua")

	// The file appearing clears the diagnostic and builds the tables.
	writeFile(t, dir, "rotator.lua", testScript)
	n, err = fx.itf.SyncExternalFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok = fx.p.Diagnostics().Get(id, []string{"uri"})
	assert.False(t, ok)
}

func TestSyncExternalFilesEmptyURI(t *testing.T) {
	fx, _ := syncFixture(t)
	ctx := context.Background()

	id := fx.create(t, usertypes.KindLuaScript, "rotator")

	_, err := fx.itf.SyncExternalFiles(ctx)
	require.NoError(t, err)

	diag, ok := fx.p.Diagnostics().Get(id, []string{"uri"})
	require.True(t, ok)
	assert.Equal(t, scene.LevelWarning, diag.Level)
	assert.Equal(t, "empty URI", diag.Message)
}

func TestSyncExternalFilesBadMesh(t *testing.T) {
	fx, dir := syncFixture(t)
	ctx := context.Background()
	writeFile(t, dir, "cube.gltf", "not a mesh")

	id := fx.create(t, usertypes.KindMesh, "cube")
	require.NoError(t, fx.itf.SetString(ctx, ref(id, "uri"), "cube.gltf"))

	_, err := fx.itf.SyncExternalFiles(ctx)
	require.NoError(t, err)

	diag, ok := fx.p.Diagnostics().Get(id, nil)
	require.True(t, ok)
	assert.Equal(t, scene.LevelError, diag.Level)
	assert.Equal(t, scene.CategoryParsing, diag.Category)

	// A valid glTF document passes the format check.
	writeFile(t, dir, "cube.gltf", `{"asset":{"version":"2.0"}}`)
	_, err = fx.itf.SyncExternalFiles(ctx)
	require.NoError(t, err)
	_, ok = fx.p.Diagnostics().Get(id, nil)
	assert.False(t, ok)
}

func TestSyncExternalFilesTexture(t *testing.T) {
	fx, dir := syncFixture(t)
	ctx := context.Background()
	png := string([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}) + "data"
	writeFile(t, dir, "good.png", png)
	writeFile(t, dir, "bad.png", "not an image")

	good := fx.create(t, usertypes.KindTexture, "good")
	require.NoError(t, fx.itf.SetString(ctx, ref(good, "uri"), "good.png"))
	bad := fx.create(t, usertypes.KindTexture, "bad")
	require.NoError(t, fx.itf.SetString(ctx, ref(bad, "uri"), "bad.png"))

	_, err := fx.itf.SyncExternalFiles(ctx)
	require.NoError(t, err)

	assert.Empty(t, fx.p.Diagnostics().ForObject(good))
	diag, ok := fx.p.Diagnostics().Get(bad, nil)
	require.True(t, ok)
	assert.Equal(t, scene.CategoryParsing, diag.Category)
}

func TestSyncExternalFilesMaterial(t *testing.T) {
	fx, dir := syncFixture(t)
	ctx := context.Background()
	writeFile(t, dir, "shader.vert", "uniform float u_alpha;\nvoid main() {}\n")
	writeFile(t, dir, "shader.frag", "uniform vec3 u_color;\nvoid main() {}\n")

	id := fx.create(t, usertypes.KindMaterial, "phong")
	require.NoError(t, fx.itf.SetString(ctx, ref(id, "uriVertex"), "shader.vert"))
	require.NoError(t, fx.itf.SetString(ctx, ref(id, "uriFragment"), "shader.frag"))

	n, err := fx.itf.SyncExternalFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	uniforms, ok := fx.obj(t, id).Property("uniforms")
	require.True(t, ok)
	assert.Equal(t, 2, uniforms.Len())
	_, ok = uniforms.ChildByName("u_alpha")
	assert.True(t, ok)
	_, ok = uniforms.ChildByName("u_color")
	assert.True(t, ok)

	// Deleting a shader file keeps the current uniforms; the sweep only
	// records the filesystem problem.
	require.NoError(t, os.Remove(filepath.Join(dir, "shader.frag")))
	n, err = fx.itf.SyncExternalFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 2, uniforms.Len())
	diag, ok := fx.p.Diagnostics().Get(id, []string{"uriFragment"})
	require.True(t, ok)
	assert.Equal(t, scene.CategoryFilesystem, diag.Category)
}

func TestSyncExternalFilesModule(t *testing.T) {
	fx, dir := syncFixture(t)
	ctx := context.Background()
	writeFile(t, dir, "mathutils.lua", "local m = {}\nfunction m.double(x) return x * 2 end\nreturn m\n")

	id := fx.create(t, usertypes.KindLuaScriptModule, "mathutils")
	require.NoError(t, fx.itf.SetString(ctx, ref(id, "uri"), "mathutils.lua"))

	_, err := fx.itf.SyncExternalFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, fx.p.Diagnostics().ForObject(id))

	// A chunk that does not return a table is not a module.
	writeFile(t, dir, "mathutils.lua", "return 42\n")
	_, err = fx.itf.SyncExternalFiles(ctx)
	require.NoError(t, err)
	diag, ok := fx.p.Diagnostics().Get(id, nil)
	require.True(t, ok)
	assert.Equal(t, scene.CategoryParsing, diag.Category)
}

func TestSyncExternalFilesSkipsImported(t *testing.T) {
	src := newFixture(t, "LIB")
	ctx := context.Background()
	scriptID := src.create(t, usertypes.KindLuaScript, "shared")
	require.NoError(t, src.itf.SetString(ctx, ref(scriptID, "uri"), "gone.lua"))
	blob, err := src.itf.CopyObjects(ctx, []ulid.ULID{scriptID}, false)
	require.NoError(t, err)

	fx := newFixtureWithLoader(t, "APP", stubLoader{docs: map[string]*scene.Project{src.p.Path: src.p}})
	fx.p.Path = filepath.Join(t.TempDir(), "main.sfp")
	imported, err := fx.itf.PasteAsExternalReference(ctx, blob)
	require.NoError(t, err)
	require.Len(t, imported, 1)

	// The imported script's file is missing, but its content belongs to
	// the source document: no diagnostic, no sync attempt.
	n, err := fx.itf.SyncExternalFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, fx.p.Diagnostics().ForObject(imported[0]))
}

func TestSyncExternalFilesUndo(t *testing.T) {
	fx, _ := syncFixture(t)
	ctx := context.Background()

	id := fx.create(t, usertypes.KindLuaScript, "rotator")
	require.NoError(t, fx.itf.SetString(ctx, ref(id, "uri"), "rotator.lua"))

	_, err := fx.itf.SyncExternalFiles(ctx)
	require.NoError(t, err)
	_, ok := fx.p.Diagnostics().Get(id, []string{"uri"})
	require.True(t, ok)

	require.NoError(t, fx.itf.Undo(ctx))
	_, ok = fx.p.Diagnostics().Get(id, []string{"uri"})
	assert.False(t, ok)
}
