// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package command

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/sceneforge/sceneforge/internal/extref"
	"github.com/sceneforge/sceneforge/pkg/forge"
)

// PasteAsExternalReference merges a clipboard blob as read-only content
// that keeps its source ids and tracks the source document. A refused
// paste leaves the document untouched. Returns the ids of the imported
// roots.
func (i *Interface) PasteAsExternalReference(ctx context.Context, blob []byte) ([]ulid.ULID, error) {
	var roots []ulid.ULID
	err := i.execute(ctx, "extref.paste", "", func(context.Context) (string, error) {
		var err error
		roots, err = extref.Paste(i.ctx, blob)
		if err != nil {
			return "", err
		}
		return "Paste " + forge.Plural(len(roots), "object") + " as external reference", nil
	})
	if err != nil {
		return nil, err
	}
	return roots, nil
}

// UpdateExternalReferences reloads every source document and rewrites the
// imported content to match it. Unreadable sources keep their content and
// get an error diagnostic; a source that now references this document
// back refuses the whole update.
func (i *Interface) UpdateExternalReferences(ctx context.Context) error {
	return i.execute(ctx, "extref.update", "", func(ctx context.Context) (string, error) {
		if err := extref.Update(ctx, i.ctx, i.loader); err != nil {
			return "", err
		}
		return "Update external references", nil
	})
}
