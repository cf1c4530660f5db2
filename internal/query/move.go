// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package query

import (
	"github.com/oklog/ulid/v2"

	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/usertypes"
)

// FilterForMoveableScenegraphChildren returns the subset of the candidates
// that may move under newParent (zero = top level), in input order.
//
// Dropped: read-only content, the settings singleton, moves that would
// nest an object under its own subtree, kinds the target refuses, and
// targets that are themselves read-only content. A zero parent is a
// top-level move and accepts any object the user owns.
func FilterForMoveableScenegraphChildren(p *scene.Project, candidates []ulid.ULID, newParent ulid.ULID) []ulid.ULID {
	toTopLevel := newParent == (ulid.ULID{})

	var parentObj *scene.EditorObject
	if !toTopLevel {
		obj, ok := p.Object(newParent)
		if !ok || IsReadOnly(p, newParent) {
			return nil
		}
		parentObj = obj
	}

	ordered := dedupExisting(p, candidates)
	out := make([]ulid.ULID, 0, len(ordered))
	for _, id := range ordered {
		obj, _ := p.Object(id)
		if obj.Kind == usertypes.KindProjectSettings {
			continue
		}
		if IsReadOnly(p, id) {
			continue
		}
		if !toTopLevel {
			if id == newParent || p.IsAncestor(id, newParent) {
				continue
			}
			if !usertypes.CanParent(parentObj.Kind, obj.Kind) {
				continue
			}
		}
		out = append(out, id)
	}
	return out
}
