// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package edit

import (
	"github.com/oklog/ulid/v2"

	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/undo"
)

// AddLink connects two properties after a full legality check. An existing
// link on the end slot is replaced when the check allows the new edge.
func (c *Context) AddLink(start, end scene.PropertyRef, weak bool) error {
	if err := query.CheckLink(c.p, c.oracle, start, end, weak); err != nil {
		return err
	}
	touched := []ulid.ULID{start.Object, end.Object}
	if existing, ok := c.p.Links().ByEnd(end); ok {
		touched = append(touched, existing.Start.Object)
		if err := c.apply(&undo.LinkRemoveOp{Link: *existing}); err != nil {
			return err
		}
	}
	link := scene.Link{Start: cloneRef(start), End: cloneRef(end), Weak: weak, Valid: true}
	if err := c.apply(&undo.LinkAddOp{Link: link}); err != nil {
		return err
	}
	c.refreshLinkDiagnostics(touched)
	return nil
}

// RemoveLink disconnects the link ending on the given slot. Removing from
// an unlinked slot is a no-op.
func (c *Context) RemoveLink(end scene.PropertyRef) error {
	existing, ok := c.p.Links().ByEnd(end)
	if !ok {
		return nil
	}
	touched := []ulid.ULID{existing.Start.Object, existing.End.Object}
	if err := c.apply(&undo.LinkRemoveOp{Link: *existing}); err != nil {
		return err
	}
	c.refreshLinkDiagnostics(touched)
	return nil
}

// RevalidateLinks recomputes validity for every link touching the given
// objects. Links stay in the graph when they break; validity flips are
// recorded and the broken-link diagnostics of the affected objects are
// refreshed. Interface syncs, pastes and external-reference updates run
// this over whatever they rewrote. Feature levels are checked at link
// creation only, so a later settings change never invalidates existing
// links.
func (c *Context) RevalidateLinks(ids ...ulid.ULID) {
	links := query.LinksConnectedTo(c.p, ids, true, true)
	if len(links) == 0 {
		return
	}
	seen := make(map[ulid.ULID]struct{})
	var touched []ulid.ULID
	note := func(id ulid.ULID) {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			touched = append(touched, id)
		}
	}
	for _, l := range links {
		valid := c.linkNowValid(l)
		if valid != l.Valid {
			// The graph holds the link, so the flip cannot fail.
			_ = c.apply(&undo.LinkValidityOp{End: cloneRef(l.End), Before: l.Valid, After: valid})
		}
		note(l.Start.Object)
		note(l.End.Object)
	}
	c.refreshLinkDiagnostics(touched)
}

// linkNowValid recomputes one link's validity: both endpoints must
// resolve, keep their link eligibility and still be type-compatible.
func (c *Context) linkNowValid(l *scene.Link) bool {
	startProp, err := c.p.ResolveProperty(l.Start)
	if err != nil {
		return false
	}
	endProp, err := c.p.ResolveProperty(l.End)
	if err != nil {
		return false
	}
	if !startProp.Spec().IsLinkStart() || !endProp.Spec().IsLinkEnd() {
		return false
	}
	return c.oracle.Compatible(startProp, endProp)
}

// refreshLinkDiagnostics rewrites the object-level broken-links item for
// each given object: an ERROR naming the invalid edges, or nothing when
// all links are healthy.
func (c *Context) refreshLinkDiagnostics(ids []ulid.ULID) {
	sortIDs(ids)
	done := make(map[ulid.ULID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := done[id]; dup {
			continue
		}
		done[id] = struct{}{}
		if !c.p.Contains(id) {
			continue
		}
		current, has := c.p.Diagnostics().Get(id, nil)
		msg := query.BrokenLinksMessage(c.p, id)
		if msg == "" {
			if has && current.Category == scene.CategoryLinks {
				before := current
				_ = c.apply(&undo.DiagnosticOp{Object: id, Before: &before, After: nil})
			}
			continue
		}
		next := scene.Diagnostic{
			Level:    scene.LevelError,
			Category: scene.CategoryLinks,
			Object:   id,
			Message:  msg,
		}
		if has && current.Level == next.Level && current.Category == next.Category && current.Message == next.Message {
			continue
		}
		op := &undo.DiagnosticOp{Object: id, After: &next}
		if has {
			before := current
			op.Before = &before
		}
		_ = c.apply(op)
	}
}
