// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

//go:build integration

package observer_test

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/usertypes"
)

var _ = Describe("Change Notification", func() {
	var (
		ctx  context.Context
		doc  *document
		node ulid.ULID
	)

	BeforeEach(func() {
		ctx = context.Background()
		doc = openDocument("P-OBS", "observed")
		var err error
		node, err = doc.itf.CreateObject(ctx, usertypes.KindNode, "tracked")
		Expect(err).NotTo(HaveOccurred())
	})

	It("fans every change set out to every subscriber", func() {
		const observers = 4
		const edits = 25

		subs := make([]chan core.ChangeSet, observers)
		for i := range subs {
			subs[i] = doc.bus.Subscribe()
		}
		results := make([][]core.ChangeSet, observers)
		var wg sync.WaitGroup
		for i, sub := range subs {
			i, sub := i, sub
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for set := range sub {
					results[i] = append(results[i], set)
				}
			}()
		}

		for e := range edits {
			Expect(doc.itf.SetVec3f(ctx, ref(node, "translation"), float64(e+1), 0, 0)).To(Succeed())
		}
		for _, sub := range subs {
			doc.bus.Unsubscribe(sub)
		}
		wg.Wait()

		for _, got := range results {
			Expect(got).To(HaveLen(edits))
			Expect(got[0].Command).To(Equal("property.set"))
			for j := 1; j < len(got); j++ {
				Expect(got[j].Seq).To(BeNumerically(">", got[j-1].Seq))
			}
		}
	})

	It("never blocks the editor on a stalled observer", func() {
		stalled := doc.bus.Subscribe()
		defer doc.bus.Unsubscribe(stalled)

		const edits = 150
		for e := range edits {
			Expect(doc.itf.SetVec3f(ctx, ref(node, "translation"), float64(e+1), 0, 0)).To(Succeed())
		}

		Expect(stalled).To(HaveLen(100), "a full buffer drops sets instead of blocking the editor")
	})

	It("publishes whole commands, not individual edits", func() {
		other, err := doc.itf.CreateObject(ctx, usertypes.KindNode, "sibling")
		Expect(err).NotTo(HaveOccurred())

		sub := doc.bus.Subscribe()
		defer doc.bus.Unsubscribe(sub)

		Expect(doc.itf.ExecuteComposite(ctx, "Align nodes", func() error {
			if err := doc.itf.SetVec3f(ctx, ref(node, "translation"), 1, 0, 0); err != nil {
				return err
			}
			return doc.itf.SetVec3f(ctx, ref(other, "translation"), 1, 0, 0)
		})).To(Succeed())

		Expect(sub).To(HaveLen(1))
		set := <-sub
		Expect(set.Command).To(Equal("composite"))
		touched := make(map[ulid.ULID]struct{})
		for _, change := range set.Changes {
			touched[change.Object] = struct{}{}
		}
		Expect(touched).To(HaveKey(node))
		Expect(touched).To(HaveKey(other))
	})

	It("keeps sequence numbers rising across history travel", func() {
		sub := doc.bus.Subscribe()
		defer doc.bus.Unsubscribe(sub)

		Expect(doc.itf.SetVec3f(ctx, ref(node, "translation"), 4, 0, 0)).To(Succeed())
		Expect(doc.itf.Undo(ctx)).To(Succeed())
		Expect(doc.itf.Redo(ctx)).To(Succeed())

		Expect(sub).To(HaveLen(3))
		edit := <-sub
		undone := <-sub
		redone := <-sub
		Expect(edit.Command).To(Equal("property.set"))
		Expect(undone.Command).To(Equal("undo"))
		Expect(redone.Command).To(Equal("redo"))
		Expect(undone.Seq).To(Equal(edit.Seq + 1))
		Expect(redone.Seq).To(Equal(undone.Seq + 1))
	})

	It("stops delivery after unsubscribe", func() {
		sub := doc.bus.Subscribe()
		Expect(doc.itf.SetVec3f(ctx, ref(node, "translation"), 1, 0, 0)).To(Succeed())
		doc.bus.Unsubscribe(sub)
		Expect(doc.itf.SetVec3f(ctx, ref(node, "translation"), 2, 0, 0)).To(Succeed())

		drained := 0
		for range sub {
			drained++
		}
		Expect(drained).To(Equal(1), "sets already buffered still drain after the close")
	})
})
