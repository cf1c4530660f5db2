// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package command

import (
	"context"
	"fmt"

	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/scene"
)

// AddLink creates a data-flow link between two properties, replacing any
// link that already ends on the end property. Weak links skip the cycle
// check and carry no creation-order guarantee.
func (i *Interface) AddLink(ctx context.Context, start, end scene.PropertyRef, weak bool) error {
	return i.execute(ctx, "link.add", "", func(context.Context) (string, error) {
		if err := i.ctx.AddLink(start, end, weak); err != nil {
			return "", err
		}
		return fmt.Sprintf("Link '%s' to '%s'",
			query.FormatRef(i.p, start), query.FormatRef(i.p, end)), nil
	})
}

// RemoveLink removes the link ending on the given property.
func (i *Interface) RemoveLink(ctx context.Context, end scene.PropertyRef) error {
	return i.execute(ctx, "link.remove", "", func(context.Context) (string, error) {
		if err := i.ctx.RemoveLink(end); err != nil {
			return "", err
		}
		return fmt.Sprintf("Remove link ending on '%s'", query.FormatRef(i.p, end)), nil
	})
}
