// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package undo

import (
	"errors"

	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/scene"
)

// ErrIndexOutOfRange indicates a stack position outside 0..Size().
var ErrIndexOutOfRange = errors.New("undo index out of range")

// Entry is one undo step: a description for history display, an optional
// merge id, and the delta to replay.
type Entry struct {
	Description string
	MergeID     string
	Delta       *Delta
}

// Stack replays recorded deltas against one project. Index counts the
// applied entries: 0 is the initial document state, Size() the newest.
type Stack struct {
	p       *scene.Project
	entries []Entry
	index   int
}

// NewStack creates an empty history bound to the project it replays on.
func NewStack(p *scene.Project) *Stack {
	return &Stack{p: p}
}

// Push records an already-applied entry as the newest history step,
// truncating any redoable future. Consecutive entries with the same
// non-empty merge id collapse into one: the first entry's before-state and
// the last entry's after-state survive.
func (s *Stack) Push(e Entry) {
	s.entries = s.entries[:s.index]
	if e.MergeID != "" && s.index > 0 && s.entries[s.index-1].MergeID == e.MergeID {
		prev := &s.entries[s.index-1]
		prev.Delta = mergeDeltas(prev.Delta, e.Delta)
		prev.Description = e.Description
		return
	}
	s.entries = append(s.entries, e)
	s.index = len(s.entries)
}

// CanUndo reports whether an older state exists.
func (s *Stack) CanUndo() bool { return s.index > 0 }

// CanRedo reports whether a newer state exists.
func (s *Stack) CanRedo() bool { return s.index < len(s.entries) }

// Index returns the current stack position.
func (s *Stack) Index() int { return s.index }

// Size returns the number of history entries.
func (s *Stack) Size() int { return len(s.entries) }

// Description returns the description of entry i.
func (s *Stack) Description(i int) string {
	if i < 0 || i >= len(s.entries) {
		return ""
	}
	return s.entries[i].Description
}

// Undo steps one entry back.
func (s *Stack) Undo(rec *core.Recorder) error {
	return s.SetIndex(s.index-1, rec)
}

// Redo steps one entry forward.
func (s *Stack) Redo(rec *core.Recorder) error {
	return s.SetIndex(s.index+1, rec)
}

// SetIndex replays deltas backward or forward until the stack sits at the
// given position. Change events land in the recorder when one is given.
func (s *Stack) SetIndex(target int, rec *core.Recorder) error {
	if target < 0 || target > len(s.entries) {
		return oops.
			With("target", target).
			With("size", len(s.entries)).
			Wrap(ErrIndexOutOfRange)
	}
	for s.index > target {
		if err := s.entries[s.index-1].Delta.Revert(s.p, rec); err != nil {
			return oops.With("entry", s.entries[s.index-1].Description).Wrap(err)
		}
		s.index--
	}
	for s.index < target {
		if err := s.entries[s.index].Delta.Apply(s.p, rec); err != nil {
			return oops.With("entry", s.entries[s.index].Description).Wrap(err)
		}
		s.index++
	}
	return nil
}

// mergeDeltas concatenates two deltas and folds repeated writes to the
// same property slot into one op keeping the oldest before-state and the
// newest after-state.
func mergeDeltas(first, second *Delta) *Delta {
	merged := &Delta{}
	byRef := make(map[string]*ValueOp)
	for _, op := range append(append([]Op(nil), first.ops...), second.ops...) {
		vop, isValue := op.(*ValueOp)
		if !isValue {
			merged.Record(op)
			continue
		}
		key := vop.Ref.Key()
		if prev, seen := byRef[key]; seen {
			prev.After = vop.After
			continue
		}
		kept := &ValueOp{Ref: vop.Ref, Before: vop.Before, After: vop.After}
		byRef[key] = kept
		merged.Record(kept)
	}
	return merged
}
