// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

//go:build integration

// Package integration provides end-to-end integration tests for SceneForge.
package integration

import (
	"context"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/sceneforge/sceneforge/internal/command"
	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/engine"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/serialization"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
)

// document bundles one open project with its command interface and a
// subscribed observer channel.
type document struct {
	p   *scene.Project
	itf *command.Interface
	bus *core.Broadcaster
	sub chan core.ChangeSet
}

// openDocument creates a fresh in-memory document with its settings object
// and an observing subscription.
func openDocument(id, name string) *document {
	p := scene.NewProject(id, name)
	f := usertypes.NewFactory()
	settings := f.NewSettings()
	Expect(p.Add(settings)).To(Succeed())
	Expect(p.Attach(settings.ID, ulid.ULID{}, -1)).To(Succeed())
	p.SettingsID = settings.ID

	bus := core.NewBroadcaster()
	itf, err := command.New(command.Config{
		Project: p,
		Oracle:  engine.NewEngine(),
		Factory: f,
		Bus:     bus,
	})
	Expect(err).NotTo(HaveOccurred())
	return &document{p: p, itf: itf, bus: bus, sub: bus.Subscribe()}
}

func (d *document) close() {
	d.bus.Unsubscribe(d.sub)
}

func ref(object ulid.ULID, path ...string) scene.PropertyRef {
	return scene.NewPropertyRef(object, path...)
}

const controllerScript = `
	function interface(IN, OUT)
		IN.speed = Type:Float()
		OUT.rotation = Type:Vec3f()
	end
	function run(IN, OUT)
	end
`

var _ = Describe("Authoring Session", func() {
	var (
		ctx context.Context
		dir string
		doc *document
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		dir, err = os.MkdirTemp("", "sceneforge-test-*")
		Expect(err).NotTo(HaveOccurred())

		doc = openDocument("P-MAIN", "robot scene")
		doc.p.Path = filepath.Join(dir, "main.sfp")
	})

	AfterEach(func() {
		doc.close()
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	Describe("End-to-End Workflow", func() {
		It("completes a full authoring session", func() {
			By("Step 1: Build the scenegraph")
			robot, err := doc.itf.CreateObject(ctx, usertypes.KindNode, "robot")
			Expect(err).NotTo(HaveOccurred())
			arm, err := doc.itf.CreateObject(ctx, usertypes.KindMeshNode, "arm")
			Expect(err).NotTo(HaveOccurred())
			moved, err := doc.itf.MoveScenegraphChildren(ctx, []ulid.ULID{arm}, robot, -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(moved).To(Equal(1))

			By("Step 2: Attach a mesh resource")
			mesh, err := doc.itf.CreateObject(ctx, usertypes.KindMesh, "arm_mesh")
			Expect(err).NotTo(HaveOccurred())
			meshPath := filepath.Join(dir, "arm.gltf")
			Expect(os.WriteFile(meshPath, []byte(`{"asset":{"version":"2.0"}}`), 0o600)).To(Succeed())
			Expect(doc.itf.SetString(ctx, ref(mesh, "uri"), "arm.gltf")).To(Succeed())
			Expect(doc.itf.SetRef(ctx, ref(arm, "mesh"), mesh)).To(Succeed())

			By("Step 3: Author a script from a source file on disk")
			script, err := doc.itf.CreateObject(ctx, usertypes.KindLuaScript, "controller")
			Expect(err).NotTo(HaveOccurred())
			scriptPath := filepath.Join(dir, "controller.lua")
			Expect(os.WriteFile(scriptPath, []byte(controllerScript), 0o600)).To(Succeed())
			Expect(doc.itf.SetString(ctx, ref(script, "uri"), "controller.lua")).To(Succeed())

			synced, err := doc.itf.SyncExternalFiles(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(synced).To(Equal(1), "only the script carries content to sync")
			Expect(doc.p.Diagnostics().Count()).To(BeZero())

			By("Step 4: Link the script output to the arm rotation")
			Expect(doc.itf.AddLink(ctx, ref(script, "outputs", "rotation"), ref(arm, "rotation"), false)).To(Succeed())
			Expect(doc.p.Links().Count()).To(Equal(1))
			Expect(doc.p.Links().All()[0].Valid).To(BeTrue())

			By("Step 5: Save the document")
			Expect(serialization.WriteProjectFile(doc.p.Path, doc.p)).To(Succeed())

			By("Step 6: Reload and verify the document")
			loaded, err := serialization.ReadProjectFile(doc.p.Path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ID).To(Equal("P-MAIN"))
			Expect(loaded.InstanceCount()).To(Equal(5))

			reArm, ok := loaded.Object(arm)
			Expect(ok).To(BeTrue())
			Expect(reArm.Name).To(Equal("arm"))
			Expect(reArm.Parent).To(Equal(robot))

			meshProp, err := loaded.ResolveProperty(ref(arm, "mesh"))
			Expect(err).NotTo(HaveOccurred())
			target, ok := meshProp.AsRef()
			Expect(ok).To(BeTrue())
			Expect(target).To(Equal(mesh))

			outProp, err := loaded.ResolveProperty(ref(script, "outputs", "rotation"))
			Expect(err).NotTo(HaveOccurred())
			Expect(outProp.Kind()).To(Equal(value.KindVec3f))

			Expect(loaded.Links().Count()).To(Equal(1))
			Expect(loaded.Links().All()[0].Valid).To(BeTrue())

			By("Step 7: Travel the undo history")
			top := doc.itf.UndoIndex()
			Expect(top).To(BeNumerically(">", 0))
			Expect(doc.itf.SetUndoIndex(ctx, 0)).To(Succeed())
			Expect(doc.p.InstanceCount()).To(Equal(1), "only the settings object predates the session")
			Expect(doc.itf.CanUndo()).To(BeFalse())
			Expect(doc.itf.CanRedo()).To(BeTrue())

			Expect(doc.itf.SetUndoIndex(ctx, top)).To(Succeed())
			Expect(doc.p.InstanceCount()).To(Equal(5))
			Expect(doc.p.Links().Count()).To(Equal(1))
			replayed, err := doc.p.ResolveProperty(ref(script, "outputs", "rotation"))
			Expect(err).NotTo(HaveOccurred())
			Expect(replayed.Kind()).To(Equal(value.KindVec3f))
		})
	})

	Describe("Clipboard", func() {
		It("round-trips a subtree with its internal links", func() {
			wing, err := doc.itf.CreateObject(ctx, usertypes.KindNode, "wing")
			Expect(err).NotTo(HaveOccurred())
			fin, err := doc.itf.CreateObject(ctx, usertypes.KindMeshNode, "fin")
			Expect(err).NotTo(HaveOccurred())
			_, err = doc.itf.MoveScenegraphChildren(ctx, []ulid.ULID{fin}, wing, -1)
			Expect(err).NotTo(HaveOccurred())

			script, err := doc.itf.CreateObject(ctx, usertypes.KindLuaScript, "flap")
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.itf.SyncScript(ctx, script, controllerScript)).To(Succeed())
			Expect(doc.itf.AddLink(ctx, ref(script, "outputs", "rotation"), ref(fin, "rotation"), false)).To(Succeed())

			blob, err := doc.itf.CopyObjects(ctx, []ulid.ULID{wing, script}, true)
			Expect(err).NotTo(HaveOccurred())

			pasted, err := doc.itf.PasteObjects(ctx, blob, ulid.ULID{})
			Expect(err).NotTo(HaveOccurred())
			Expect(pasted).To(HaveLen(2))

			var newWing, newScript ulid.ULID
			for _, id := range pasted {
				obj, ok := doc.p.Object(id)
				Expect(ok).To(BeTrue())
				Expect(id).NotTo(Equal(wing))
				Expect(id).NotTo(Equal(script))
				switch obj.Kind {
				case usertypes.KindNode:
					newWing = id
				case usertypes.KindLuaScript:
					newScript = id
				}
			}
			Expect(newWing).NotTo(Equal(ulid.ULID{}))
			Expect(newScript).NotTo(Equal(ulid.ULID{}))

			wingObj, _ := doc.p.Object(newWing)
			Expect(wingObj.Children).To(HaveLen(1))
			newFin := wingObj.Children[0]

			// The pasted link connects the pasted members, not the originals.
			Expect(doc.p.Links().Count()).To(Equal(2))
			incoming := doc.p.Links().ToObject(newFin)
			Expect(incoming).To(HaveLen(1))
			Expect(incoming[0].Start.Object).To(Equal(newScript))
			Expect(incoming[0].Valid).To(BeTrue())
		})
	})

	Describe("Resource Cleanup", func() {
		It("deletes resources orphaned by scenegraph deletions", func() {
			arm, err := doc.itf.CreateObject(ctx, usertypes.KindMeshNode, "arm")
			Expect(err).NotTo(HaveOccurred())
			mesh, err := doc.itf.CreateObject(ctx, usertypes.KindMesh, "arm_mesh")
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.itf.SetRef(ctx, ref(arm, "mesh"), mesh)).To(Succeed())

			// Referenced resources survive a cleanup pass.
			removed, err := doc.itf.DeleteUnreferencedResources(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeZero())

			deleted, err := doc.itf.DeleteObjects(ctx, arm)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(1))

			removed, err = doc.itf.DeleteUnreferencedResources(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(1))
			Expect(doc.p.Contains(mesh)).To(BeFalse())

			// The cleanup is one history entry; undo restores the mesh.
			Expect(doc.itf.Undo(ctx)).To(Succeed())
			Expect(doc.p.Contains(mesh)).To(BeTrue())
		})
	})
})
