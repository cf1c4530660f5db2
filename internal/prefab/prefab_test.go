// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package prefab_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/edit"
	"github.com/sceneforge/sceneforge/internal/engine"
	"github.com/sceneforge/sceneforge/internal/prefab"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
)

type fixture struct {
	p   *scene.Project
	f   *usertypes.Factory
	eng *engine.Engine
	rec *core.Recorder
	ctx *edit.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p := scene.NewProject("P1", "test")
	f := usertypes.NewFactory()
	settings := f.NewSettings()
	require.NoError(t, p.Add(settings))
	require.NoError(t, p.Attach(settings.ID, ulid.ULID{}, -1))
	p.SettingsID = settings.ID
	eng := engine.NewEngine()
	rec := core.NewRecorder()
	ctx := edit.NewContext(edit.Config{Project: p, Oracle: eng, Factory: f, Recorder: rec})
	return &fixture{p: p, f: f, eng: eng, rec: rec, ctx: ctx}
}

func (fx *fixture) add(t *testing.T, kind, name string, parent ulid.ULID) *scene.EditorObject {
	t.Helper()
	obj, err := fx.f.New(kind, name, engine.MaxFeatureLevel)
	require.NoError(t, err)
	require.NoError(t, fx.p.Add(obj))
	require.NoError(t, fx.p.Attach(obj.ID, parent, -1))
	return obj
}

const testScript = `
	function interface(IN, OUT)
		IN.speed = Type:Float()
		IN.target = Type:Vec3f()
		OUT.rotation = Type:Vec3f()
		OUT.flag = Type:Bool()
	end
	function run(IN, OUT)
	end
`

func (fx *fixture) addScript(t *testing.T, name string, parent ulid.ULID) *scene.EditorObject {
	t.Helper()
	obj := fx.add(t, usertypes.KindLuaScript, name, parent)
	iface, err := fx.eng.ParseScript(context.Background(), testScript)
	require.NoError(t, err)
	_, err = usertypes.ApplyScriptInterface(obj, iface)
	require.NoError(t, err)
	return obj
}

func ref(obj *scene.EditorObject, path ...string) scene.PropertyRef {
	return scene.NewPropertyRef(obj.ID, path...)
}

func (fx *fixture) setTemplate(t *testing.T, inst *scene.EditorObject, tmpl ulid.ULID) {
	t.Helper()
	require.NoError(t, fx.ctx.Set(ref(inst, "template"), value.NewRef(tmpl)))
}

func (fx *fixture) propagate(t *testing.T) {
	t.Helper()
	require.NoError(t, prefab.Propagate(fx.ctx))
}

func (fx *fixture) obj(t *testing.T, id ulid.ULID) *scene.EditorObject {
	t.Helper()
	obj, ok := fx.p.Object(id)
	require.True(t, ok, "object %s not in project", id)
	return obj
}

func (fx *fixture) val(t *testing.T, r scene.PropertyRef) value.Value {
	t.Helper()
	prop, err := fx.p.ResolveProperty(r)
	require.NoError(t, err)
	return prop.Value()
}

func TestPropagate_MirrorsTemplateChild(t *testing.T) {
	fx := newFixture(t)
	tmpl := fx.add(t, usertypes.KindPrefab, "P", ulid.ULID{})
	child := fx.add(t, usertypes.KindNode, "C", tmpl.ID)
	inst := fx.add(t, usertypes.KindPrefabInstance, "I", ulid.ULID{})
	fx.setTemplate(t, inst, tmpl.ID)

	fx.propagate(t)

	mirrorID := core.DeriveChildID(child.ID, inst.ID)
	require.Equal(t, []ulid.ULID{mirrorID}, inst.Children)
	mirror := fx.obj(t, mirrorID)
	assert.Equal(t, usertypes.KindNode, mirror.Kind)
	assert.Equal(t, "C", mirror.Name)
	assert.Equal(t, inst.ID, mirror.Parent)

	n, err := fx.ctx.DeleteObjects(child.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	fx.propagate(t)

	assert.False(t, fx.p.Contains(mirrorID))
	assert.Empty(t, inst.Children)
}

func TestPropagate_Idempotent(t *testing.T) {
	fx := newFixture(t)
	tmpl := fx.add(t, usertypes.KindPrefab, "P", ulid.ULID{})
	group := fx.add(t, usertypes.KindNode, "group", tmpl.ID)
	fx.add(t, usertypes.KindNode, "leaf", group.ID)
	fx.addScript(t, "logic", tmpl.ID)
	inst := fx.add(t, usertypes.KindPrefabInstance, "I", ulid.ULID{})
	fx.setTemplate(t, inst, tmpl.ID)
	fx.propagate(t)
	fx.ctx.Take()
	fx.rec.Take("sync")

	fx.propagate(t)

	assert.True(t, fx.ctx.Take().Empty())
	assert.True(t, fx.rec.Empty())
}

func TestPropagate_ValuesAndNamesFollowTemplate(t *testing.T) {
	fx := newFixture(t)
	tmpl := fx.add(t, usertypes.KindPrefab, "P", ulid.ULID{})
	child := fx.add(t, usertypes.KindNode, "C", tmpl.ID)
	require.NoError(t, fx.ctx.Set(ref(child, "translation"), value.NewVec3f(1, 2, 3)))
	inst := fx.add(t, usertypes.KindPrefabInstance, "I", ulid.ULID{})
	fx.setTemplate(t, inst, tmpl.ID)

	fx.propagate(t)

	mirror := fx.obj(t, core.DeriveChildID(child.ID, inst.ID))
	assert.True(t, value.Equal(fx.val(t, ref(mirror, "translation")), value.NewVec3f(1, 2, 3)))

	require.NoError(t, fx.ctx.Set(ref(child, "translation"), value.NewVec3f(4, 5, 6)))
	require.NoError(t, fx.ctx.SetName(child.ID, "C2"))
	fx.propagate(t)

	assert.True(t, value.Equal(fx.val(t, ref(mirror, "translation")), value.NewVec3f(4, 5, 6)))
	assert.Equal(t, "C2", mirror.Name)
}

func TestPropagate_SharedResourceRefStays(t *testing.T) {
	fx := newFixture(t)
	mesh := fx.add(t, usertypes.KindMesh, "shared", ulid.ULID{})
	tmpl := fx.add(t, usertypes.KindPrefab, "P", ulid.ULID{})
	meshNode := fx.add(t, usertypes.KindMeshNode, "mn", tmpl.ID)
	require.NoError(t, fx.ctx.Set(ref(meshNode, "mesh"), value.NewRef(mesh.ID)))
	inst := fx.add(t, usertypes.KindPrefabInstance, "I", ulid.ULID{})
	fx.setTemplate(t, inst, tmpl.ID)

	fx.propagate(t)

	mirror := fx.obj(t, core.DeriveChildID(meshNode.ID, inst.ID))
	target, ok := fx.val(t, ref(mirror, "mesh")).AsRef()
	require.True(t, ok)
	assert.Equal(t, mesh.ID, target)
}

func TestPropagate_InterfaceInputsStayLocal(t *testing.T) {
	fx := newFixture(t)
	tmpl := fx.add(t, usertypes.KindPrefab, "P", ulid.ULID{})
	script := fx.addScript(t, "S", tmpl.ID)
	require.NoError(t, fx.ctx.Set(ref(script, "inputs", "speed"), value.NewDouble(2.5)))
	inst := fx.add(t, usertypes.KindPrefabInstance, "I", ulid.ULID{})
	fx.setTemplate(t, inst, tmpl.ID)
	fx.propagate(t)

	// Fresh mirrors start from the template's values.
	mirror := fx.obj(t, core.DeriveChildID(script.ID, inst.ID))
	speed, _ := fx.val(t, ref(mirror, "inputs", "speed")).AsDouble()
	assert.Equal(t, 2.5, speed)

	// The interface inputs are the one writable surface inside the subtree,
	// and once the mirror exists the instance owns them.
	require.NoError(t, fx.ctx.Set(ref(mirror, "inputs", "speed"), value.NewDouble(7)))
	require.NoError(t, fx.ctx.Set(ref(script, "inputs", "speed"), value.NewDouble(3)))
	require.NoError(t, fx.ctx.Set(ref(script, "inputs", "target"), value.NewVec3f(1, 1, 1)))
	require.NoError(t, fx.ctx.Set(ref(script, "uri"), value.NewString("scripts/s.lua")))
	fx.propagate(t)

	speed, _ = fx.val(t, ref(mirror, "inputs", "speed")).AsDouble()
	assert.Equal(t, float64(7), speed)
	assert.True(t, value.Equal(fx.val(t, ref(mirror, "inputs", "target")), value.NewVec3f(0, 0, 0)))

	// Slots outside the interface surface keep following the template.
	uri, _ := fx.val(t, ref(mirror, "uri")).AsString()
	assert.Equal(t, "scripts/s.lua", uri)
}

func TestPropagate_MirrorsTemplateLinks(t *testing.T) {
	fx := newFixture(t)
	tmpl := fx.add(t, usertypes.KindPrefab, "P", ulid.ULID{})
	src := fx.addScript(t, "src", tmpl.ID)
	dst := fx.addScript(t, "dst", tmpl.ID)
	require.NoError(t, fx.ctx.AddLink(ref(src, "outputs", "rotation"), ref(dst, "inputs", "target"), false))
	inst := fx.add(t, usertypes.KindPrefabInstance, "I", ulid.ULID{})
	fx.setTemplate(t, inst, tmpl.ID)

	fx.propagate(t)

	end := scene.NewPropertyRef(core.DeriveChildID(dst.ID, inst.ID), "inputs", "target")
	l, ok := fx.p.Links().ByEnd(end)
	require.True(t, ok)
	assert.Equal(t, core.DeriveChildID(src.ID, inst.ID), l.Start.Object)
	assert.False(t, l.Weak)
	assert.True(t, l.Valid)

	require.NoError(t, fx.ctx.RemoveLink(ref(dst, "inputs", "target")))
	fx.propagate(t)

	_, ok = fx.p.Links().ByEnd(end)
	assert.False(t, ok)
}

func TestPropagate_UserLinkKeepsItsEnd(t *testing.T) {
	fx := newFixture(t)
	tmpl := fx.add(t, usertypes.KindPrefab, "P", ulid.ULID{})
	src := fx.addScript(t, "src", tmpl.ID)
	dst := fx.addScript(t, "dst", tmpl.ID)
	require.NoError(t, fx.ctx.AddLink(ref(src, "outputs", "rotation"), ref(dst, "inputs", "target"), false))
	inst := fx.add(t, usertypes.KindPrefabInstance, "I", ulid.ULID{})
	fx.setTemplate(t, inst, tmpl.ID)
	fx.propagate(t)

	end := scene.NewPropertyRef(core.DeriveChildID(dst.ID, inst.ID), "inputs", "target")
	user := fx.addScript(t, "user", ulid.ULID{})
	require.NoError(t, fx.ctx.RemoveLink(end))
	require.NoError(t, fx.ctx.AddLink(ref(user, "outputs", "rotation"), end, false))

	fx.propagate(t)
	fx.propagate(t)

	l, ok := fx.p.Links().ByEnd(end)
	require.True(t, ok)
	assert.Equal(t, user.ID, l.Start.Object)
}

func TestPropagate_TemplateClearedRemovesDerived(t *testing.T) {
	fx := newFixture(t)
	tmpl := fx.add(t, usertypes.KindPrefab, "P", ulid.ULID{})
	child := fx.add(t, usertypes.KindNode, "C", tmpl.ID)
	inst := fx.add(t, usertypes.KindPrefabInstance, "I", ulid.ULID{})
	fx.setTemplate(t, inst, tmpl.ID)
	fx.propagate(t)
	require.Len(t, inst.Children, 1)

	require.NoError(t, fx.ctx.Set(ref(inst, "template"), value.NewRef(ulid.ULID{})))
	fx.propagate(t)

	assert.Empty(t, inst.Children)
	assert.False(t, fx.p.Contains(core.DeriveChildID(child.ID, inst.ID)))
}

func TestPropagate_NestedInstances(t *testing.T) {
	fx := newFixture(t)
	inner := fx.add(t, usertypes.KindPrefab, "P1", ulid.ULID{})
	leaf := fx.add(t, usertypes.KindNode, "C", inner.ID)
	outer := fx.add(t, usertypes.KindPrefab, "P2", ulid.ULID{})
	nested := fx.add(t, usertypes.KindPrefabInstance, "i12", outer.ID)
	fx.setTemplate(t, nested, inner.ID)
	inst := fx.add(t, usertypes.KindPrefabInstance, "I", ulid.ULID{})
	fx.setTemplate(t, inst, outer.ID)

	fx.propagate(t)

	// The nested instance inside the outer template grew its own mirror.
	leafInTemplate := core.DeriveChildID(leaf.ID, nested.ID)
	assert.True(t, fx.p.Contains(leafInTemplate))

	// The instance mirrors the outer template, nested instance included,
	// and the nested mirror resolves to the same inner template.
	nestedMirror := fx.obj(t, core.DeriveChildID(nested.ID, inst.ID))
	assert.Equal(t, usertypes.KindPrefabInstance, nestedMirror.Kind)
	tmplRef, ok := fx.val(t, ref(nestedMirror, "template")).AsRef()
	require.True(t, ok)
	assert.Equal(t, inner.ID, tmplRef)

	deepMirror := fx.obj(t, core.DeriveChildID(leafInTemplate, inst.ID))
	assert.Equal(t, usertypes.KindNode, deepMirror.Kind)
	assert.Equal(t, nestedMirror.ID, deepMirror.Parent)

	fx.ctx.Take()
	fx.rec.Take("sync")
	fx.propagate(t)
	assert.True(t, fx.ctx.Take().Empty())
	assert.True(t, fx.rec.Empty())
}

func TestPropagate_TemplateLoopFails(t *testing.T) {
	fx := newFixture(t)
	p1 := fx.add(t, usertypes.KindPrefab, "P1", ulid.ULID{})
	p2 := fx.add(t, usertypes.KindPrefab, "P2", ulid.ULID{})
	i12 := fx.add(t, usertypes.KindPrefabInstance, "i12", p1.ID)
	i21 := fx.add(t, usertypes.KindPrefabInstance, "i21", p2.ID)

	// Wire the cycle behind the policy layer's back; binding either slot
	// through Set would be refused.
	for _, bind := range []struct {
		inst *scene.EditorObject
		tmpl ulid.ULID
	}{{i12, p2.ID}, {i21, p1.ID}} {
		prop, err := fx.p.ResolveProperty(ref(bind.inst, "template"))
		require.NoError(t, err)
		require.NoError(t, prop.SetValue(value.NewRef(bind.tmpl)))
	}

	require.ErrorIs(t, prefab.Propagate(fx.ctx), scene.ErrRefLoop)
}

func TestPropagate_SiblingOrderFollowsTemplate(t *testing.T) {
	fx := newFixture(t)
	tmpl := fx.add(t, usertypes.KindPrefab, "P", ulid.ULID{})
	a := fx.add(t, usertypes.KindNode, "a", tmpl.ID)
	b := fx.add(t, usertypes.KindNode, "b", tmpl.ID)
	c := fx.add(t, usertypes.KindNode, "c", tmpl.ID)
	inst := fx.add(t, usertypes.KindPrefabInstance, "I", ulid.ULID{})
	fx.setTemplate(t, inst, tmpl.ID)
	fx.propagate(t)

	derive := func(id ulid.ULID) ulid.ULID { return core.DeriveChildID(id, inst.ID) }
	require.Equal(t, []ulid.ULID{derive(a.ID), derive(b.ID), derive(c.ID)}, inst.Children)

	n, err := fx.ctx.MoveScenegraphChildren([]ulid.ULID{c.ID}, tmpl.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	fx.propagate(t)

	assert.Equal(t, []ulid.ULID{derive(c.ID), derive(a.ID), derive(b.ID)}, inst.Children)
}

func TestPropagate_VolatileStaysLive(t *testing.T) {
	fx := newFixture(t)
	tmpl := fx.add(t, usertypes.KindPrefab, "P", ulid.ULID{})
	timer := fx.add(t, usertypes.KindTimer, "tick", tmpl.ID)
	require.NoError(t, fx.ctx.Set(ref(timer, "outputs", "ticker_us"), value.NewInt64(10)))
	inst := fx.add(t, usertypes.KindPrefabInstance, "I", ulid.ULID{})
	fx.setTemplate(t, inst, tmpl.ID)

	fx.propagate(t)

	// Live values never copy into fresh mirrors.
	mirror := fx.obj(t, core.DeriveChildID(timer.ID, inst.ID))
	tick, _ := fx.val(t, ref(mirror, "outputs", "ticker_us")).AsInt64()
	assert.Zero(t, tick)

	require.NoError(t, fx.ctx.Set(ref(mirror, "outputs", "ticker_us"), value.NewInt64(42)))
	require.NoError(t, fx.ctx.Set(ref(timer, "outputs", "ticker_us"), value.NewInt64(11)))
	fx.propagate(t)

	tick, _ = fx.val(t, ref(mirror, "outputs", "ticker_us")).AsInt64()
	assert.Equal(t, int64(42), tick)
}
