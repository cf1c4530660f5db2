// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

//go:build integration

package prefab_test

import (
	"context"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
)

var _ = Describe("Prefab Propagation", func() {
	var (
		ctx  context.Context
		doc  *document
		tmpl ulid.ULID
		body ulid.ULID
		inst ulid.ULID
	)

	BeforeEach(func() {
		ctx = context.Background()
		doc = openDocument("P-PREFAB", "prefab scene")

		var err error
		tmpl, err = doc.itf.CreateObject(ctx, usertypes.KindPrefab, "gadget")
		Expect(err).NotTo(HaveOccurred())
		body, err = doc.itf.CreateObject(ctx, usertypes.KindNode, "body")
		Expect(err).NotTo(HaveOccurred())
		_, err = doc.itf.MoveScenegraphChildren(ctx, []ulid.ULID{body}, tmpl, -1)
		Expect(err).NotTo(HaveOccurred())

		inst, err = doc.itf.CreateObject(ctx, usertypes.KindPrefabInstance, "gadget_1")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.itf.SetRef(ctx, ref(inst, "template"), tmpl)).To(Succeed())
	})

	Describe("Mirroring", func() {
		It("mirrors template content into the instance", func() {
			instObj, ok := doc.p.Object(inst)
			Expect(ok).To(BeTrue())
			Expect(instObj.Children).To(HaveLen(1))

			mirror := instObj.Children[0]
			Expect(mirror).NotTo(Equal(body), "mirrors carry their own ids")

			mObj, ok := doc.p.Object(mirror)
			Expect(ok).To(BeTrue())
			Expect(mObj.Kind).To(Equal(usertypes.KindNode))
			Expect(mObj.Name).To(Equal("body"))
			Expect(query.IsReadOnly(doc.p, mirror)).To(BeTrue())
		})

		It("carries template edits into mirrors within the same command", func() {
			mirror, ok := childNamed(doc.p, inst, "body")
			Expect(ok).To(BeTrue())

			before := doc.itf.UndoSize()
			Expect(doc.itf.SetVec3f(ctx, ref(body, "translation"), 1, 2, 3)).To(Succeed())
			Expect(doc.itf.UndoSize()).To(Equal(before+1), "the edit and its propagation share one entry")
			Expect(floatVec(doc.p, ref(mirror, "translation"))).To(Equal([]float64{1, 2, 3}))

			Expect(doc.itf.Undo(ctx)).To(Succeed())
			Expect(floatVec(doc.p, ref(body, "translation"))).To(Equal([]float64{0, 0, 0}))
			Expect(floatVec(doc.p, ref(mirror, "translation"))).To(Equal([]float64{0, 0, 0}))
		})

		It("mirrors links between template members", func() {
			ctl, err := doc.itf.CreateObject(ctx, usertypes.KindLuaScript, "ctl")
			Expect(err).NotTo(HaveOccurred())
			_, err = doc.itf.MoveScenegraphChildren(ctx, []ulid.ULID{ctl}, tmpl, -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.itf.SyncScript(ctx, ctl, rotatorScript)).To(Succeed())
			Expect(doc.itf.AddLink(ctx, ref(ctl, "outputs", "rotation"), ref(body, "rotation"), false)).To(Succeed())

			instObj, _ := doc.p.Object(inst)
			Expect(instObj.Children).To(HaveLen(2))
			mirrorBody, ok := childNamed(doc.p, inst, "body")
			Expect(ok).To(BeTrue())
			mirrorCtl, ok := childNamed(doc.p, inst, "ctl")
			Expect(ok).To(BeTrue())

			Expect(doc.p.Links().Count()).To(Equal(2))
			incoming := doc.p.Links().ToObject(mirrorBody)
			Expect(incoming).To(HaveLen(1))
			Expect(incoming[0].Start.Object).To(Equal(mirrorCtl))
			Expect(incoming[0].Valid).To(BeTrue())
		})
	})

	Describe("Mirror protection", func() {
		It("refuses edits on mirrored content", func() {
			mirror, ok := childNamed(doc.p, inst, "body")
			Expect(ok).To(BeTrue())

			before := doc.itf.UndoSize()
			err := doc.itf.SetVec3f(ctx, ref(mirror, "translation"), 9, 9, 9)
			Expect(err).To(HaveOccurred())
			Expect(doc.itf.UndoSize()).To(Equal(before))
			Expect(floatVec(doc.p, ref(mirror, "translation"))).To(Equal([]float64{0, 0, 0}))
		})

		It("skips mirrors in delete requests", func() {
			mirror, ok := childNamed(doc.p, inst, "body")
			Expect(ok).To(BeTrue())

			n, err := doc.itf.DeleteObjects(ctx, mirror)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
			Expect(doc.p.Contains(mirror)).To(BeTrue())
		})
	})

	Describe("Teardown", func() {
		It("prunes mirrors when template children are deleted", func() {
			n, err := doc.itf.DeleteObjects(ctx, body)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))

			instObj, _ := doc.p.Object(inst)
			Expect(instObj.Children).To(BeEmpty())
		})

		It("clears mirrors when the template reference resets", func() {
			Expect(doc.itf.SetRef(ctx, ref(inst, "template"), ulid.ULID{})).To(Succeed())

			instObj, _ := doc.p.Object(inst)
			Expect(instObj.Children).To(BeEmpty())
		})

		It("detaches instances when their template is deleted", func() {
			_, err := doc.itf.DeleteObjects(ctx, tmpl)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.p.Contains(tmpl)).To(BeFalse())
			Expect(doc.p.Contains(body)).To(BeFalse())

			instObj, ok := doc.p.Object(inst)
			Expect(ok).To(BeTrue(), "the instance itself survives")
			Expect(instObj.Children).To(BeEmpty())

			tref, err := doc.p.ResolveProperty(ref(inst, "template"))
			Expect(err).NotTo(HaveOccurred())
			target, ok := tref.AsRef()
			Expect(ok).To(BeTrue())
			Expect(target).To(Equal(ulid.ULID{}))
		})
	})
})

var _ = Describe("Nested Prefabs", func() {
	var (
		ctx context.Context
		doc *document
	)

	BeforeEach(func() {
		ctx = context.Background()
		doc = openDocument("P-NESTED", "nested prefab scene")
	})

	It("rebuilds nested instances through every layer", func() {
		inner, err := doc.itf.CreateObject(ctx, usertypes.KindPrefab, "inner")
		Expect(err).NotTo(HaveOccurred())
		part, err := doc.itf.CreateObject(ctx, usertypes.KindNode, "part")
		Expect(err).NotTo(HaveOccurred())
		_, err = doc.itf.MoveScenegraphChildren(ctx, []ulid.ULID{part}, inner, -1)
		Expect(err).NotTo(HaveOccurred())

		outer, err := doc.itf.CreateObject(ctx, usertypes.KindPrefab, "outer")
		Expect(err).NotTo(HaveOccurred())
		innerInst, err := doc.itf.CreateObject(ctx, usertypes.KindPrefabInstance, "inner_1")
		Expect(err).NotTo(HaveOccurred())
		_, err = doc.itf.MoveScenegraphChildren(ctx, []ulid.ULID{innerInst}, outer, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.itf.SetRef(ctx, ref(innerInst, "template"), inner)).To(Succeed())

		topInst, err := doc.itf.CreateObject(ctx, usertypes.KindPrefabInstance, "outer_1")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.itf.SetRef(ctx, ref(topInst, "template"), outer)).To(Succeed())

		// The top instance mirrors the outer template: one nested instance
		// whose template resolves to the same inner prefab.
		nested, ok := childNamed(doc.p, topInst, "inner_1")
		Expect(ok).To(BeTrue())
		nestedObj, _ := doc.p.Object(nested)
		Expect(nestedObj.Kind).To(Equal(usertypes.KindPrefabInstance))

		tref, err := doc.p.ResolveProperty(ref(nested, "template"))
		Expect(err).NotTo(HaveOccurred())
		target, ok := tref.AsRef()
		Expect(ok).To(BeTrue())
		Expect(target).To(Equal(inner))

		nestedPart, ok := childNamed(doc.p, nested, "part")
		Expect(ok).To(BeTrue())

		// An edit deep in the inner template reaches the outermost mirror
		// in the same command.
		Expect(doc.itf.SetVec3f(ctx, ref(part, "translation"), 5, 0, 0)).To(Succeed())
		Expect(floatVec(doc.p, ref(nestedPart, "translation"))).To(Equal([]float64{5, 0, 0}))
	})

	It("propagates interface defaults without overwriting instance overrides", func() {
		settings, ok := doc.p.Settings()
		Expect(ok).To(BeTrue())
		Expect(doc.itf.SetInt(ctx, ref(settings.ID, "featureLevel"), 3)).To(Succeed())

		tmpl, err := doc.itf.CreateObject(ctx, usertypes.KindPrefab, "widget")
		Expect(err).NotTo(HaveOccurred())
		iface, err := doc.itf.CreateObject(ctx, usertypes.KindLuaInterface, "knobs")
		Expect(err).NotTo(HaveOccurred())
		_, err = doc.itf.MoveScenegraphChildren(ctx, []ulid.ULID{iface}, tmpl, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.itf.SyncScript(ctx, iface, `
			function interface(INOUT)
				INOUT.gain = Type:Float()
			end
		`)).To(Succeed())

		inst, err := doc.itf.CreateObject(ctx, usertypes.KindPrefabInstance, "widget_1")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.itf.SetRef(ctx, ref(inst, "template"), tmpl)).To(Succeed())

		mirror, found := childNamed(doc.p, inst, "knobs")
		Expect(found).To(BeTrue())

		// Interface inputs on the instance side stay writable: they are the
		// instance's parameters.
		Expect(doc.itf.SetDouble(ctx, ref(mirror, "inputs", "gain"), 0.5)).To(Succeed())

		prop, err := doc.p.ResolveProperty(ref(mirror, "inputs", "gain"))
		Expect(err).NotTo(HaveOccurred())
		got, ok := prop.AsDouble()
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(0.5))

		// A template-side default change keeps the override in place.
		Expect(doc.itf.SetDouble(ctx, ref(iface, "inputs", "gain"), 0.25)).To(Succeed())
		prop, err = doc.p.ResolveProperty(ref(mirror, "inputs", "gain"))
		Expect(err).NotTo(HaveOccurred())
		got, ok = prop.AsDouble()
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(0.5))

		// Slots outside the interface surface keep following the template.
		uriProp, err := doc.p.ResolveProperty(ref(mirror, "uri"))
		Expect(err).NotTo(HaveOccurred())
		Expect(uriProp.Kind()).To(Equal(value.KindString))
	})
})
