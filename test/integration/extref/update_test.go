// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

//go:build integration

package extref_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/usertypes"
)

var _ = Describe("External References", func() {
	var (
		ctx context.Context
		dir string
		lib *document
		app *document

		group ulid.ULID // the library's exported assembly root
		leaf  ulid.ULID // mesh node inside the assembly
		mesh  ulid.ULID // resource the assembly references
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		dir, err = os.MkdirTemp("", "sceneforge-extref-*")
		Expect(err).NotTo(HaveOccurred())

		lib = openDocument("P-LIB", "parts library", filepath.Join(dir, "lib", "parts.sfp"))
		group, err = lib.itf.CreateObject(ctx, usertypes.KindNode, "assembly")
		Expect(err).NotTo(HaveOccurred())
		leaf, err = lib.itf.CreateObject(ctx, usertypes.KindMeshNode, "bracket")
		Expect(err).NotTo(HaveOccurred())
		_, err = lib.itf.MoveScenegraphChildren(ctx, []ulid.ULID{leaf}, group, -1)
		Expect(err).NotTo(HaveOccurred())
		mesh, err = lib.itf.CreateObject(ctx, usertypes.KindMesh, "bracket_mesh")
		Expect(err).NotTo(HaveOccurred())
		Expect(lib.itf.SetRef(ctx, ref(leaf, "mesh"), mesh)).To(Succeed())
		lib.save()

		app = openDocument("P-APP", "consumer", filepath.Join(dir, "app", "main.sfp"))
		blob, err := lib.itf.CopyObjects(ctx, []ulid.ULID{group}, true)
		Expect(err).NotTo(HaveOccurred())
		roots, err := app.itf.PasteAsExternalReference(ctx, blob)
		Expect(err).NotTo(HaveOccurred())
		Expect(roots).To(ConsistOf(group, mesh), "the deep copy promotes the referenced mesh to a root")
		app.save()
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	Describe("Importing", func() {
		It("embeds fragments as attributed read-only mirrors", func() {
			root, ok := app.p.Object(group)
			Expect(ok).To(BeTrue())
			Expect(root.IsExternalReference()).To(BeTrue())
			Expect(root.Extref.SourceProjectID).To(Equal("P-LIB"))

			By("keeping the source ids so later merges line up")
			Expect(app.p.Contains(leaf)).To(BeTrue())
			Expect(refTarget(app.p, ref(leaf, "mesh"))).To(Equal(mesh))

			By("refusing edits anywhere inside the import")
			Expect(query.IsReadOnly(app.p, leaf)).To(BeTrue())
			Expect(app.itf.SetName(ctx, group, "renamed")).NotTo(Succeed())

			By("recording where the content came from")
			entry, ok := app.p.ExternalProject("P-LIB")
			Expect(ok).To(BeTrue())
			Expect(entry.Path).To(Equal(lib.p.Path))
		})

		It("merges a repeated paste instead of duplicating", func() {
			blob, err := lib.itf.CopyObjects(ctx, []ulid.ULID{group}, true)
			Expect(err).NotTo(HaveOccurred())

			before := app.p.InstanceCount()
			roots, err := app.itf.PasteAsExternalReference(ctx, blob)
			Expect(err).NotTo(HaveOccurred())
			Expect(roots).To(ConsistOf(group, mesh))
			Expect(app.p.InstanceCount()).To(Equal(before))
		})

		It("refuses a fragment cut from this document", func() {
			part, err := app.itf.CreateObject(ctx, usertypes.KindNode, "local_part")
			Expect(err).NotTo(HaveOccurred())
			blob, err := app.itf.CopyObjects(ctx, []ulid.ULID{part}, false)
			Expect(err).NotTo(HaveOccurred())

			_, err = app.itf.PasteAsExternalReference(ctx, blob)
			var xerr *scene.ExtrefError
			Expect(errors.As(err, &xerr)).To(BeTrue())
			Expect(xerr.Reason).To(ContainSubstring("comes from this document"))
		})
	})

	Describe("Updating", func() {
		It("follows source edits as one undoable step", func() {
			Expect(lib.itf.SetName(ctx, leaf, "bracket_v2")).To(Succeed())
			Expect(lib.itf.SetVec3f(ctx, ref(leaf, "translation"), 0, 1, 0)).To(Succeed())
			lib.save()

			before := app.itf.UndoSize()
			Expect(app.itf.UpdateExternalReferences(ctx)).To(Succeed())
			Expect(app.itf.UndoSize()).To(Equal(before + 1))

			mirror, ok := app.p.Object(leaf)
			Expect(ok).To(BeTrue())
			Expect(mirror.Name).To(Equal("bracket_v2"))
			Expect(floatVec(app.p, ref(leaf, "translation"))).To(Equal([]float64{0, 1, 0}))

			By("travelling the whole merge as one unit")
			Expect(app.itf.Undo(ctx)).To(Succeed())
			mirror, ok = app.p.Object(leaf)
			Expect(ok).To(BeTrue())
			Expect(mirror.Name).To(Equal("bracket"))
			Expect(floatVec(app.p, ref(leaf, "translation"))).To(Equal([]float64{0, 0, 0}))

			Expect(app.itf.Redo(ctx)).To(Succeed())
			mirror, ok = app.p.Object(leaf)
			Expect(ok).To(BeTrue())
			Expect(mirror.Name).To(Equal("bracket_v2"))
		})

		It("prunes imports whose source objects are gone", func() {
			removed, err := lib.itf.DeleteObjects(ctx, leaf)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(1))
			lib.save()

			Expect(app.itf.UpdateExternalReferences(ctx)).To(Succeed())

			Expect(app.p.Contains(leaf)).To(BeFalse())
			Expect(app.p.Contains(group)).To(BeTrue())
			root, ok := app.p.Object(group)
			Expect(ok).To(BeTrue())
			Expect(root.Children).To(BeEmpty())
			Expect(app.p.Contains(mesh)).To(BeTrue(), "the mesh still lives in the source")
		})

		It("pulls new dependencies and drops stale ones", func() {
			meshHD, err := lib.itf.CreateObject(ctx, usertypes.KindMesh, "bracket_mesh_hd")
			Expect(err).NotTo(HaveOccurred())
			Expect(lib.itf.SetRef(ctx, ref(leaf, "mesh"), meshHD)).To(Succeed())
			removed, err := lib.itf.DeleteObjects(ctx, mesh)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(1))
			lib.save()

			Expect(app.itf.UpdateExternalReferences(ctx)).To(Succeed())

			Expect(app.p.Contains(meshHD)).To(BeTrue(), "the new dependency travels with the update")
			Expect(app.p.Contains(mesh)).To(BeFalse(), "the dropped dependency goes")
			Expect(refTarget(app.p, ref(leaf, "mesh"))).To(Equal(meshHD))
			imported, ok := app.p.Object(meshHD)
			Expect(ok).To(BeTrue())
			Expect(imported.IsExternalReference()).To(BeTrue())
		})

		It("flags unreadable sources and keeps their content", func() {
			Expect(os.Remove(lib.p.Path)).To(Succeed())

			Expect(app.itf.UpdateExternalReferences(ctx)).To(Succeed())

			diags := app.p.Diagnostics().ForObject(group)
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Level).To(Equal(scene.LevelError))
			Expect(diags[0].Category).To(Equal(scene.CategoryExternalReference))
			Expect(diags[0].Message).To(ContainSubstring("unreadable"))
			Expect(app.p.Contains(leaf)).To(BeTrue(), "content is kept while the source is away")

			By("clearing the flag once the source is readable again")
			lib.save()
			Expect(app.itf.UpdateExternalReferences(ctx)).To(Succeed())
			Expect(app.p.Diagnostics().ForObject(group)).To(BeEmpty())
		})

		It("refuses an update that would close a document cycle", func() {
			part, err := app.itf.CreateObject(ctx, usertypes.KindNode, "consumer_part")
			Expect(err).NotTo(HaveOccurred())
			blob, err := app.itf.CopyObjects(ctx, []ulid.ULID{part}, false)
			Expect(err).NotTo(HaveOccurred())
			_, err = lib.itf.PasteAsExternalReference(ctx, blob)
			Expect(err).NotTo(HaveOccurred())
			lib.save()

			err = app.itf.UpdateExternalReferences(ctx)
			var xerr *scene.ExtrefError
			Expect(errors.As(err, &xerr)).To(BeTrue())
			Expect(xerr.Reason).To(ContainSubstring("cycle"))
			Expect(app.p.Contains(leaf)).To(BeTrue(), "the refused update leaves the import alone")
		})

		It("keeps local links from imported outputs across updates", func() {
			driver, err := lib.itf.CreateObject(ctx, usertypes.KindLuaScript, "driver")
			Expect(err).NotTo(HaveOccurred())
			Expect(lib.itf.SyncScript(ctx, driver, driverScript)).To(Succeed())
			blob, err := lib.itf.CopyObjects(ctx, []ulid.ULID{driver}, true)
			Expect(err).NotTo(HaveOccurred())
			roots, err := app.itf.PasteAsExternalReference(ctx, blob)
			Expect(err).NotTo(HaveOccurred())
			Expect(roots).To(ConsistOf(driver))

			spinner, err := app.itf.CreateObject(ctx, usertypes.KindNode, "spinner")
			Expect(err).NotTo(HaveOccurred())
			Expect(app.itf.AddLink(ctx, ref(driver, "outputs", "rotation"), ref(spinner, "rotation"), false)).To(Succeed())

			Expect(lib.itf.SetDouble(ctx, ref(driver, "inputs", "speed"), 2.5)).To(Succeed())
			lib.save()
			Expect(app.itf.UpdateExternalReferences(ctx)).To(Succeed())

			links := app.p.Links().ToObject(spinner)
			Expect(links).To(HaveLen(1))
			Expect(links[0].Start.Object).To(Equal(driver))
			Expect(links[0].Valid).To(BeTrue())

			prop, err := app.p.ResolveProperty(ref(driver, "inputs", "speed"))
			Expect(err).NotTo(HaveOccurred())
			speed, ok := prop.AsDouble()
			Expect(ok).To(BeTrue())
			Expect(speed).To(Equal(2.5))
		})

		It("drops the source row once the last import is deleted", func() {
			removed, err := app.itf.DeleteObjects(ctx, group, mesh)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(3))

			Expect(app.itf.UpdateExternalReferences(ctx)).To(Succeed())
			_, ok := app.p.ExternalProject("P-LIB")
			Expect(ok).To(BeFalse())
		})
	})
})
