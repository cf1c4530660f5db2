// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package core carries the small shared primitives of the document model:
// object id generation, change records and the batched change broadcaster
// observers subscribe to.
package core

import (
	"github.com/oklog/ulid/v2"
)

// ChangeKind identifies what a change record describes.
type ChangeKind uint8

const (
	ChangeCreated ChangeKind = iota + 1
	ChangeDeleted
	ChangeValue
	ChangeMoved
	ChangeLinkAdded
	ChangeLinkRemoved
	ChangeLinkValidity
	ChangeDiagnostics
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeDeleted:
		return "deleted"
	case ChangeValue:
		return "value"
	case ChangeMoved:
		return "moved"
	case ChangeLinkAdded:
		return "link_added"
	case ChangeLinkRemoved:
		return "link_removed"
	case ChangeLinkValidity:
		return "link_validity"
	case ChangeDiagnostics:
		return "diagnostics"
	default:
		return "unknown"
	}
}

// Change is one graph change seen by observers. Object/Path name the
// affected slot (the link end for link changes); Other/OtherPath carry the
// link start when the change concerns a link.
type Change struct {
	Kind      ChangeKind
	Object    ulid.ULID
	Path      string
	Other     ulid.ULID
	OtherPath string
}

// ChangeSet is the batch of changes one top-level command produced.
// Observers receive whole sets only, never a partially-applied command.
type ChangeSet struct {
	Seq     uint64
	Command string
	Changes []Change
}

// Recorder accumulates deduplicated change records during one command.
// It is not safe for concurrent use; the mutation context is single-threaded.
type Recorder struct {
	changes []Change
	seen    map[Change]struct{}
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{seen: make(map[Change]struct{})}
}

// Record appends a change unless an identical record is already present.
func (r *Recorder) Record(c Change) {
	if _, dup := r.seen[c]; dup {
		return
	}
	r.seen[c] = struct{}{}
	r.changes = append(r.changes, c)
}

// Empty reports whether nothing was recorded since the last Take.
func (r *Recorder) Empty() bool {
	return len(r.changes) == 0
}

// Changes returns the accumulated records without draining them.
func (r *Recorder) Changes() []Change {
	return r.changes
}

// Take drains the recorder into a ChangeSet for the given command.
func (r *Recorder) Take(command string) ChangeSet {
	set := ChangeSet{Command: command, Changes: r.changes}
	r.changes = nil
	r.seen = make(map[Change]struct{})
	return set
}
