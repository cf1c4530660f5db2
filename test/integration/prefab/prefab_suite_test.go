// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

//go:build integration

// Package prefab_test exercises prefab propagation through the full
// command stack.
package prefab_test

import (
	"testing"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/sceneforge/sceneforge/internal/command"
	"github.com/sceneforge/sceneforge/internal/engine"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/usertypes"
)

func TestPrefab(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Prefab Integration Suite")
}

// document bundles one open project with its command interface.
type document struct {
	p   *scene.Project
	itf *command.Interface
}

func openDocument(id, name string) *document {
	p := scene.NewProject(id, name)
	f := usertypes.NewFactory()
	settings := f.NewSettings()
	Expect(p.Add(settings)).To(Succeed())
	Expect(p.Attach(settings.ID, ulid.ULID{}, -1)).To(Succeed())
	p.SettingsID = settings.ID

	itf, err := command.New(command.Config{
		Project: p,
		Oracle:  engine.NewEngine(),
		Factory: f,
	})
	Expect(err).NotTo(HaveOccurred())
	return &document{p: p, itf: itf}
}

func ref(object ulid.ULID, path ...string) scene.PropertyRef {
	return scene.NewPropertyRef(object, path...)
}

// childNamed finds a direct child of parent by name.
func childNamed(p *scene.Project, parent ulid.ULID, name string) (ulid.ULID, bool) {
	obj, ok := p.Object(parent)
	if !ok {
		return ulid.ULID{}, false
	}
	for _, child := range obj.Children {
		c, ok := p.Object(child)
		if ok && c.Name == name {
			return child, true
		}
	}
	return ulid.ULID{}, false
}

// floatVec reads a vector property, failing the spec when it does not
// resolve.
func floatVec(p *scene.Project, r scene.PropertyRef) []float64 {
	prop, err := p.ResolveProperty(r)
	Expect(err).NotTo(HaveOccurred())
	fs, ok := prop.FloatVec()
	Expect(ok).To(BeTrue())
	return fs
}

const rotatorScript = `
	function interface(IN, OUT)
		IN.speed = Type:Float()
		OUT.rotation = Type:Vec3f()
	end
	function run(IN, OUT)
	end
`
