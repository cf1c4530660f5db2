// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package undo holds the document history: property-level deltas recorded
// by the mutation context and the stack replaying them. An op both performs
// and reverses one mutation, so normal execution, redo and undo all run
// through the same code path.
package undo

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/value"
)

// Op is one reversible mutation. Apply performs it forward, Revert undoes
// it; both record the change events observers see. Ops store snapshots, not
// live graph state, so a delta replays correctly any number of times.
type Op interface {
	Apply(p *scene.Project, rec *core.Recorder) error
	Revert(p *scene.Project, rec *core.Recorder) error
}

// Delta is the ordered op list one top-level command produced.
type Delta struct {
	ops []Op
}

// Record appends an op to the delta.
func (d *Delta) Record(op Op) {
	d.ops = append(d.ops, op)
}

// Len returns the number of recorded ops.
func (d *Delta) Len() int { return len(d.ops) }

// Empty reports whether nothing was recorded.
func (d *Delta) Empty() bool { return len(d.ops) == 0 }

// Apply replays the delta forward, in recording order.
func (d *Delta) Apply(p *scene.Project, rec *core.Recorder) error {
	for _, op := range d.ops {
		if err := op.Apply(p, rec); err != nil {
			return err
		}
	}
	return nil
}

// Revert replays the delta backward, newest op first.
func (d *Delta) Revert(p *scene.Project, rec *core.Recorder) error {
	for i := len(d.ops) - 1; i >= 0; i-- {
		if err := d.ops[i].Revert(p, rec); err != nil {
			return err
		}
	}
	return nil
}

// ValueOp rewrites one property slot. Before and After are deep copies;
// array resizes and table rebuilds record the whole container state.
type ValueOp struct {
	Ref    scene.PropertyRef
	Before value.Value
	After  value.Value
}

func (op *ValueOp) Apply(p *scene.Project, rec *core.Recorder) error {
	return op.write(p, rec, op.After)
}

func (op *ValueOp) Revert(p *scene.Project, rec *core.Recorder) error {
	return op.write(p, rec, op.Before)
}

func (op *ValueOp) write(p *scene.Project, rec *core.Recorder, v value.Value) error {
	prop, err := p.ResolveProperty(op.Ref)
	if err != nil {
		return err
	}
	if err := prop.SetValue(v); err != nil {
		return oops.With("property", op.Ref.Key()).Wrap(err)
	}
	record(rec, core.Change{Kind: core.ChangeValue, Object: op.Ref.Object, Path: joinPath(op.Ref.Path)})
	return nil
}

// NameOp renames an object.
type NameOp struct {
	Object ulid.ULID
	Before string
	After  string
}

func (op *NameOp) Apply(p *scene.Project, rec *core.Recorder) error {
	return op.write(p, rec, op.After)
}

func (op *NameOp) Revert(p *scene.Project, rec *core.Recorder) error {
	return op.write(p, rec, op.Before)
}

func (op *NameOp) write(p *scene.Project, rec *core.Recorder, name string) error {
	obj, ok := p.Object(op.Object)
	if !ok {
		return oops.With("object_id", op.Object.String()).Wrap(scene.ErrObjectNotFound)
	}
	obj.Name = name
	record(rec, core.Change{Kind: core.ChangeValue, Object: op.Object})
	return nil
}

// CreateOp inserts an object into the graph at a recorded placement. The
// snapshot is stored detached (no parent, no children); a subtree is a run
// of CreateOps in top-down order.
type CreateOp struct {
	Snapshot *scene.EditorObject
	Parent   ulid.ULID
	Index    int
}

func (op *CreateOp) Apply(p *scene.Project, rec *core.Recorder) error {
	return insertSnapshot(p, rec, op.Snapshot, op.Parent, op.Index)
}

func (op *CreateOp) Revert(p *scene.Project, rec *core.Recorder) error {
	return removeObject(p, rec, op.Snapshot.ID)
}

// DeleteOp removes an object, remembering enough to bring it back: the
// detached snapshot and its placement. A subtree is a run of DeleteOps in
// bottom-up order, so reverting recreates parents first.
type DeleteOp struct {
	Snapshot *scene.EditorObject
	Parent   ulid.ULID
	Index    int
}

func (op *DeleteOp) Apply(p *scene.Project, rec *core.Recorder) error {
	return removeObject(p, rec, op.Snapshot.ID)
}

func (op *DeleteOp) Revert(p *scene.Project, rec *core.Recorder) error {
	return insertSnapshot(p, rec, op.Snapshot, op.Parent, op.Index)
}

func insertSnapshot(p *scene.Project, rec *core.Recorder, snapshot *scene.EditorObject, parent ulid.ULID, index int) error {
	clone := snapshot.Clone()
	clone.Parent = ulid.ULID{}
	clone.Children = nil
	if err := p.Add(clone); err != nil {
		return err
	}
	if err := p.Attach(clone.ID, parent, index); err != nil {
		return err
	}
	record(rec, core.Change{Kind: core.ChangeCreated, Object: clone.ID})
	return nil
}

func removeObject(p *scene.Project, rec *core.Recorder, id ulid.ULID) error {
	if _, _, err := p.Detach(id); err != nil {
		return err
	}
	if err := p.Remove(id); err != nil {
		return err
	}
	record(rec, core.Change{Kind: core.ChangeDeleted, Object: id})
	return nil
}

// MoveOp relocates an object between scenegraph placements.
type MoveOp struct {
	Object     ulid.ULID
	FromParent ulid.ULID
	FromIndex  int
	ToParent   ulid.ULID
	ToIndex    int
}

func (op *MoveOp) Apply(p *scene.Project, rec *core.Recorder) error {
	return op.place(p, rec, op.ToParent, op.ToIndex)
}

func (op *MoveOp) Revert(p *scene.Project, rec *core.Recorder) error {
	return op.place(p, rec, op.FromParent, op.FromIndex)
}

func (op *MoveOp) place(p *scene.Project, rec *core.Recorder, parent ulid.ULID, index int) error {
	if _, _, err := p.Detach(op.Object); err != nil {
		return err
	}
	if err := p.Attach(op.Object, parent, index); err != nil {
		return err
	}
	record(rec, core.Change{Kind: core.ChangeMoved, Object: op.Object, Other: parent})
	return nil
}

// LinkAddOp inserts a link; the stored state is a value copy.
type LinkAddOp struct {
	Link scene.Link
}

func (op *LinkAddOp) Apply(p *scene.Project, rec *core.Recorder) error {
	return addLink(p, rec, op.Link)
}

func (op *LinkAddOp) Revert(p *scene.Project, rec *core.Recorder) error {
	return dropLink(p, rec, op.Link.End)
}

// LinkRemoveOp removes a link, remembering it for revert.
type LinkRemoveOp struct {
	Link scene.Link
}

func (op *LinkRemoveOp) Apply(p *scene.Project, rec *core.Recorder) error {
	return dropLink(p, rec, op.Link.End)
}

func (op *LinkRemoveOp) Revert(p *scene.Project, rec *core.Recorder) error {
	return addLink(p, rec, op.Link)
}

func addLink(p *scene.Project, rec *core.Recorder, l scene.Link) error {
	stored := cloneLink(l)
	if err := p.Links().Add(&stored); err != nil {
		return err
	}
	record(rec, core.Change{
		Kind:      core.ChangeLinkAdded,
		Object:    stored.End.Object,
		Path:      joinPath(stored.End.Path),
		Other:     stored.Start.Object,
		OtherPath: joinPath(stored.Start.Path),
	})
	return nil
}

func dropLink(p *scene.Project, rec *core.Recorder, end scene.PropertyRef) error {
	removed := p.Links().Remove(end)
	if removed == nil {
		return oops.With("end", end.Key()).Wrap(scene.ErrLinkNotFound)
	}
	record(rec, core.Change{
		Kind:      core.ChangeLinkRemoved,
		Object:    removed.End.Object,
		Path:      joinPath(removed.End.Path),
		Other:     removed.Start.Object,
		OtherPath: joinPath(removed.Start.Path),
	})
	return nil
}

// LinkValidityOp flips the kept-but-flagged state of the link ending on a
// slot.
type LinkValidityOp struct {
	End    scene.PropertyRef
	Before bool
	After  bool
}

func (op *LinkValidityOp) Apply(p *scene.Project, rec *core.Recorder) error {
	return op.write(p, rec, op.After)
}

func (op *LinkValidityOp) Revert(p *scene.Project, rec *core.Recorder) error {
	return op.write(p, rec, op.Before)
}

func (op *LinkValidityOp) write(p *scene.Project, rec *core.Recorder, valid bool) error {
	l, ok := p.Links().ByEnd(op.End)
	if !ok {
		return oops.With("end", op.End.Key()).Wrap(scene.ErrLinkNotFound)
	}
	l.Valid = valid
	record(rec, core.Change{
		Kind:      core.ChangeLinkValidity,
		Object:    l.End.Object,
		Path:      joinPath(l.End.Path),
		Other:     l.Start.Object,
		OtherPath: joinPath(l.Start.Path),
	})
	return nil
}

// ExternalProjectOp edits one row of the external-project table. A nil
// side means the row is absent on that side.
type ExternalProjectOp struct {
	SourceID string
	Before   *scene.ExternalProject
	After    *scene.ExternalProject
}

func (op *ExternalProjectOp) Apply(p *scene.Project, rec *core.Recorder) error {
	op.write(p, op.After)
	return nil
}

func (op *ExternalProjectOp) Revert(p *scene.Project, rec *core.Recorder) error {
	op.write(p, op.Before)
	return nil
}

func (op *ExternalProjectOp) write(p *scene.Project, entry *scene.ExternalProject) {
	if entry == nil {
		p.RemoveExternalProject(op.SourceID)
		return
	}
	p.SetExternalProject(op.SourceID, *entry)
}

// DiagnosticOp sets or clears one diagnostics slot. A nil side means the
// slot is empty on that side.
type DiagnosticOp struct {
	Object ulid.ULID
	Path   []string
	Before *scene.Diagnostic
	After  *scene.Diagnostic
}

func (op *DiagnosticOp) Apply(p *scene.Project, rec *core.Recorder) error {
	op.write(p, rec, op.After)
	return nil
}

func (op *DiagnosticOp) Revert(p *scene.Project, rec *core.Recorder) error {
	op.write(p, rec, op.Before)
	return nil
}

func (op *DiagnosticOp) write(p *scene.Project, rec *core.Recorder, item *scene.Diagnostic) {
	changed := false
	if item == nil {
		changed = p.Diagnostics().Clear(op.Object, op.Path)
	} else {
		changed = p.Diagnostics().Set(*item)
	}
	if changed {
		record(rec, core.Change{Kind: core.ChangeDiagnostics, Object: op.Object, Path: joinPath(op.Path)})
	}
}

func cloneLink(l scene.Link) scene.Link {
	l.Start.Path = append([]string(nil), l.Start.Path...)
	l.End.Path = append([]string(nil), l.End.Path...)
	return l
}

func record(rec *core.Recorder, c core.Change) {
	if rec != nil {
		rec.Record(c)
	}
}

func joinPath(path []string) string {
	return value.JoinPath(path)
}
