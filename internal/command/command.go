// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package command is the mutation boundary of an open document: every
// user-visible operation funnels through one execute path that applies the
// edit primitives, runs prefab propagation, pushes exactly one undo entry,
// publishes the batched change notification, and records metrics. A failed
// command rolls its partial delta back before returning, so observers only
// ever see the document between commands. Frontends call this package
// only; the edit context underneath stays private.
package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/edit"
	"github.com/sceneforge/sceneforge/internal/extref"
	"github.com/sceneforge/sceneforge/internal/prefab"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/undo"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/pkg/forge"
)

var tracer = otel.Tracer("sceneforge/command")

// Config wires a command interface. Project and Oracle are required.
type Config struct {
	Project *scene.Project
	Oracle  edit.Oracle
	Factory *usertypes.Factory // nil uses a default factory
	Loader  extref.Loader      // nil uses a FileLoader with default retries
	Bus     *core.Broadcaster  // nil drops change notifications
}

// Interface executes document commands against one open project. It owns
// the mutation context, the undo stack, and the change recorder; the three
// stay consistent because every mutation passes through execute. One
// goroutine edits a document: the interface is not safe for concurrent
// use.
type Interface struct {
	p      *scene.Project
	ctx    *edit.Context
	oracle edit.Oracle
	stack  *undo.Stack
	rec    *core.Recorder
	bus    *core.Broadcaster
	loader extref.Loader

	composite int // nesting depth of ExecuteComposite bodies
}

// New creates a command interface over an open project. Returns an error
// if the project or oracle is nil.
func New(cfg Config) (*Interface, error) {
	if cfg.Project == nil {
		return nil, oops.Errorf("command interface requires a project")
	}
	if cfg.Oracle == nil {
		return nil, oops.Errorf("command interface requires a script oracle")
	}
	loader := cfg.Loader
	if loader == nil {
		loader = extref.FileLoader{}
	}
	rec := core.NewRecorder()
	return &Interface{
		p: cfg.Project,
		ctx: edit.NewContext(edit.Config{
			Project:  cfg.Project,
			Oracle:   cfg.Oracle,
			Factory:  cfg.Factory,
			Recorder: rec,
		}),
		oracle: cfg.Oracle,
		stack:  undo.NewStack(cfg.Project),
		rec:    rec,
		bus:    cfg.Bus,
		loader: loader,
	}, nil
}

// Project returns the project this interface edits. Callers may read it
// between commands; all writes go through the interface.
func (i *Interface) Project() *scene.Project { return i.p }

// CanUndo reports whether an older document state exists.
func (i *Interface) CanUndo() bool { return i.stack.CanUndo() }

// CanRedo reports whether a newer document state exists.
func (i *Interface) CanRedo() bool { return i.stack.CanRedo() }

// UndoIndex returns the current undo stack position.
func (i *Interface) UndoIndex() int { return i.stack.Index() }

// UndoSize returns the number of history entries.
func (i *Interface) UndoSize() int { return i.stack.Size() }

// UndoDescription returns the description of history entry index.
func (i *Interface) UndoDescription(index int) string {
	return i.stack.Description(index)
}

// execute is the gate every mutating command passes through. The body runs
// against the edit context and returns the history description; execute
// then propagates prefab instances, drains the delta into one undo entry,
// and publishes the recorded changes as a single set. A body inside a
// running composite skips all of that: the outer execute owns the entry,
// the notification, and the rollback.
func (i *Interface) execute(ctx context.Context, name, mergeID string, body func(ctx context.Context) (string, error)) (err error) {
	if i.composite > 0 {
		_, err = body(ctx)
		return err
	}

	ctx, span := tracer.Start(ctx, "command.execute",
		trace.WithAttributes(
			attribute.String("command.name", name),
			attribute.String("project.id", i.p.ID),
		),
	)
	start := time.Now()
	status := StatusSuccess
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		RecordCommandExecution(name, status)
		RecordCommandDuration(name, time.Since(start))
	}()

	desc, err := body(ctx)
	if err == nil {
		err = prefab.Propagate(i.ctx)
	}
	if err != nil {
		status = StatusError
		if rbErr := i.ctx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "command rollback failed",
				"command", name,
				"error", rbErr,
			)
		}
		i.rec.Take(name) // rollback events cancel out; drop the batch
		slog.WarnContext(ctx, "command execution failed",
			"command", name,
			"error", err,
		)
		err = forge.Coded(err)
		return err
	}

	delta := i.ctx.Take()
	set := i.rec.Take(name)
	if !delta.Empty() {
		i.stack.Push(undo.Entry{Description: desc, MergeID: mergeID, Delta: delta})
		UndoDepth.Set(float64(i.stack.Index()))
	}
	if len(set.Changes) == 0 {
		status = StatusNoop
		return nil
	}
	if i.bus != nil {
		i.bus.Publish(set)
	}
	return nil
}

// Undo steps one history entry back.
func (i *Interface) Undo(ctx context.Context) error {
	return i.travel(ctx, "undo", func() error {
		return i.stack.Undo(i.rec)
	})
}

// Redo steps one history entry forward.
func (i *Interface) Redo(ctx context.Context) error {
	return i.travel(ctx, "redo", func() error {
		return i.stack.Redo(i.rec)
	})
}

// SetUndoIndex jumps the history to an arbitrary position, replaying every
// entry in between.
func (i *Interface) SetUndoIndex(ctx context.Context, index int) error {
	return i.travel(ctx, "undo.set_index", func() error {
		return i.stack.SetIndex(index, i.rec)
	})
}

// travel replays history. It bypasses execute: replaying pushes nothing,
// and prefab propagation is already baked into the recorded deltas.
func (i *Interface) travel(ctx context.Context, name string, fn func() error) (err error) {
	if i.composite > 0 {
		return forge.Coded(oops.Errorf("history travel inside a composite command"))
	}

	ctx, span := tracer.Start(ctx, "command.execute",
		trace.WithAttributes(
			attribute.String("command.name", name),
			attribute.String("project.id", i.p.ID),
		),
	)
	start := time.Now()
	status := StatusSuccess
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		RecordCommandExecution(name, status)
		RecordCommandDuration(name, time.Since(start))
	}()

	if err = fn(); err != nil {
		// A replay that fails midway stays where it stopped, so whatever
		// was recorded must still reach observers.
		status = StatusError
		UndoDepth.Set(float64(i.stack.Index()))
		if set := i.rec.Take(name); len(set.Changes) > 0 && i.bus != nil {
			i.bus.Publish(set)
		}
		slog.WarnContext(ctx, "history travel failed",
			"command", name,
			"error", err,
		)
		err = forge.Coded(err)
		return err
	}

	UndoDepth.Set(float64(i.stack.Index()))
	set := i.rec.Take(name)
	if len(set.Changes) == 0 {
		status = StatusNoop
		return nil
	}
	if i.bus != nil {
		i.bus.Publish(set)
	}
	return nil
}

// ExecuteComposite groups every command issued by fn into one undo entry
// with the given description. Composites nest; only the outermost one
// pushes. A failed body rolls the whole group back.
func (i *Interface) ExecuteComposite(ctx context.Context, description string, fn func() error) error {
	return i.execute(ctx, "composite", "", func(context.Context) (string, error) {
		i.composite++
		defer func() { i.composite-- }()
		if err := fn(); err != nil {
			return "", err
		}
		return description, nil
	})
}
