// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package command

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/pkg/forge"
)

// CopyObjects serializes the given objects and their internal links into a
// clipboard blob. Deep copies close over whole subtrees and referenced
// resources. The document is not touched; the command exists in history
// telemetry only.
func (i *Interface) CopyObjects(ctx context.Context, ids []ulid.ULID, deep bool) ([]byte, error) {
	var blob []byte
	err := i.execute(ctx, "clipboard.copy", "", func(context.Context) (string, error) {
		var err error
		blob, err = i.ctx.CopyObjects(ids, deep)
		if err != nil {
			return "", err
		}
		return "Copy " + forge.Plural(len(ids), "object"), nil
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// CutObjects copies the given objects, then deletes the deletable subset.
// Returns the clipboard blob and the number of objects deleted.
func (i *Interface) CutObjects(ctx context.Context, ids []ulid.ULID, deep bool) ([]byte, int, error) {
	var (
		blob []byte
		n    int
	)
	err := i.execute(ctx, "clipboard.cut", "", func(context.Context) (string, error) {
		var err error
		blob, n, err = i.ctx.CutObjects(ids, deep)
		if err != nil {
			return "", err
		}
		return "Cut " + forge.Plural(n, "object"), nil
	})
	if err != nil {
		return nil, 0, err
	}
	return blob, n, nil
}

// PasteObjects instantiates a clipboard blob under the target object, or
// at the top level for a zero target. Pasted objects get fresh ids;
// references and links between pasted members are remapped, and names
// colliding with existing siblings stay as they are. Returns the ids of
// the pasted roots.
func (i *Interface) PasteObjects(ctx context.Context, blob []byte, target ulid.ULID) ([]ulid.ULID, error) {
	var roots []ulid.ULID
	err := i.execute(ctx, "clipboard.paste", "", func(context.Context) (string, error) {
		var err error
		roots, err = i.ctx.PasteObjects(blob, target)
		if err != nil {
			return "", err
		}
		into := "the top level"
		if !core.NilID(target) {
			into = "'" + i.objectName(target) + "'"
		}
		return fmt.Sprintf("Paste %s into %s", forge.Plural(len(roots), "object"), into), nil
	})
	if err != nil {
		return nil, err
	}
	return roots, nil
}

// DuplicateObjects clones the given objects next to their originals,
// copying subtrees and remapping internal references. Returns the ids of
// the duplicated roots.
func (i *Interface) DuplicateObjects(ctx context.Context, ids []ulid.ULID) ([]ulid.ULID, error) {
	var dupes []ulid.ULID
	err := i.execute(ctx, "object.duplicate", "", func(context.Context) (string, error) {
		var err error
		dupes, err = i.ctx.DuplicateObjects(ids)
		if err != nil {
			return "", err
		}
		return "Duplicate " + forge.Plural(len(dupes), "object"), nil
	})
	if err != nil {
		return nil, err
	}
	return dupes, nil
}
