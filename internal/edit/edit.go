// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package edit is the mutation context: the transactional primitives every
// graph change funnels through. Each primitive validates against the query
// layer, then applies reversible ops that accumulate into one undo delta
// and record the change events observers see. Policy (read-only refusal,
// clamping, link legality) lives here; the raw counterparts used by prefab
// propagation and external-reference merging skip policy because those
// writers own content that is read-only for the user.
package edit

import (
	"context"
	"sort"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/engine"
	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/undo"
	"github.com/sceneforge/sceneforge/internal/usertypes"
)

// Oracle is what the context needs from the script engine: link type
// compatibility plus interface extraction for script syncing.
type Oracle interface {
	query.TypeOracle
	ParseScript(ctx context.Context, source string) (*engine.ScriptInterface, error)
	ParseInterface(ctx context.Context, source string) (*engine.ScriptInterface, error)
}

// Config wires a mutation context.
type Config struct {
	Project  *scene.Project
	Oracle   Oracle
	Factory  *usertypes.Factory // nil uses a default factory
	Recorder *core.Recorder     // nil drops change events
}

// Context applies mutations to one project. It is single-threaded; the
// command layer serializes access.
type Context struct {
	p       *scene.Project
	oracle  Oracle
	factory *usertypes.Factory
	rec     *core.Recorder
	delta   *undo.Delta
}

// NewContext creates a mutation context for a project.
func NewContext(cfg Config) *Context {
	factory := cfg.Factory
	if factory == nil {
		factory = usertypes.NewFactory()
	}
	return &Context{
		p:       cfg.Project,
		oracle:  cfg.Oracle,
		factory: factory,
		rec:     cfg.Recorder,
		delta:   &undo.Delta{},
	}
}

// Project returns the project this context mutates.
func (c *Context) Project() *scene.Project { return c.p }

// Take drains the accumulated delta, leaving the context empty for the
// next command.
func (c *Context) Take() *undo.Delta {
	d := c.delta
	c.delta = &undo.Delta{}
	return d
}

// Rollback reverts everything recorded since the last Take and discards
// it. The command layer calls this when a composite fails mid-way.
func (c *Context) Rollback() error {
	d := c.delta
	c.delta = &undo.Delta{}
	return d.Revert(c.p, c.rec)
}

// apply performs an op and records it for undo. Ops join the delta only
// after they succeeded, so a refused primitive leaves no trace.
func (c *Context) apply(op undo.Op) error {
	if err := op.Apply(c.p, c.rec); err != nil {
		return err
	}
	c.delta.Record(op)
	return nil
}

// recordApplied registers an op whose effect is already present in the
// graph: the op joins the delta for replay and its events are emitted, but
// Apply is not called again. Interface syncing uses this after mutating
// property tables in place.
func (c *Context) recordApplied(op undo.Op, changes ...core.Change) {
	c.delta.Record(op)
	if c.rec == nil {
		return
	}
	for _, ch := range changes {
		c.rec.Record(ch)
	}
}

// CreateObject creates a top-level object of a user-creatable kind. Kinds
// gated above the project feature level are refused.
func (c *Context) CreateObject(kind, name string) (ulid.ULID, error) {
	obj, err := c.factory.New(kind, name, c.p.FeatureLevel())
	if err != nil {
		return ulid.ULID{}, err
	}
	if err := c.apply(&undo.CreateOp{Snapshot: obj, Parent: ulid.ULID{}, Index: -1}); err != nil {
		return ulid.ULID{}, err
	}
	return obj.ID, nil
}

// CreateObjectWithID is CreateObject with a caller-chosen id. A duplicate
// id is refused.
func (c *Context) CreateObjectWithID(kind, name string, id ulid.ULID) (ulid.ULID, error) {
	if c.p.Contains(id) {
		return ulid.ULID{}, oops.With("object_id", id.String()).Wrap(scene.ErrDuplicateObject)
	}
	obj, err := c.factory.New(kind, name, c.p.FeatureLevel())
	if err != nil {
		return ulid.ULID{}, err
	}
	obj.ID = id
	if err := c.apply(&undo.CreateOp{Snapshot: obj, Parent: ulid.ULID{}, Index: -1}); err != nil {
		return ulid.ULID{}, err
	}
	return obj.ID, nil
}

// InsertObject places a prepared object into the graph without creation
// policy. Paste, prefab propagation and extref merging insert objects that
// were never user-created; everything they insert is still undoable.
func (c *Context) InsertObject(obj *scene.EditorObject, parent ulid.ULID, index int) error {
	if c.p.Contains(obj.ID) {
		return oops.With("object_id", obj.ID.String()).Wrap(scene.ErrDuplicateObject)
	}
	if !core.NilID(parent) && !c.p.Contains(parent) {
		return oops.With("parent_id", parent.String()).Wrap(scene.ErrObjectNotFound)
	}
	if index != -1 && (index < 0 || index > c.p.ChildCount(parent)) {
		return oops.With("index", index).Wrap(scene.ErrInvalidIndex)
	}
	return c.apply(&undo.CreateOp{Snapshot: obj, Parent: parent, Index: index})
}

// childIndex returns an object's position under its current parent (or in
// the top-level list).
func childIndex(p *scene.Project, obj *scene.EditorObject) int {
	siblings := p.TopLevel()
	if !core.NilID(obj.Parent) {
		parent, ok := p.Object(obj.Parent)
		if !ok {
			return -1
		}
		siblings = parent.Children
	}
	for i, id := range siblings {
		if id == obj.ID {
			return i
		}
	}
	return -1
}

func cloneRef(ref scene.PropertyRef) scene.PropertyRef {
	ref.Path = append([]string(nil), ref.Path...)
	return ref
}

func sortIDs(ids []ulid.ULID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
}
