// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package main

import (
	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/serialization"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/pkg/forge"
)

// NewUnusedCmd creates the unused subcommand.
func NewUnusedCmd() *cobra.Command {
	var (
		del    bool
		filter string
	)
	cmd := &cobra.Command{
		Use:   "unused <project.sfp>",
		Short: "List or delete unreferenced resources",
		Long: `Unused lists resource objects (meshes, materials, textures, scripts)
nothing in the document references. With --delete the resources are
removed, repeating until no removal frees another one, and the
document is written back in place. A --filter restricts the sweep to
matching names and turns off the repeat, so filtered deletes stay
predictable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnused(cmd, args[0], del, filter)
		},
	}
	cmd.Flags().BoolVar(&del, "delete", false, "delete the unreferenced resources and save the document")
	cmd.Flags().StringVar(&filter, "filter", "", "only consider resources whose name matches this glob")
	return cmd
}

func runUnused(cmd *cobra.Command, path string, del bool, filter string) error {
	itf, err := openDocument(path)
	if err != nil {
		return err
	}
	p := itf.Project()

	var match glob.Glob
	if filter != "" {
		match, err = glob.Compile(filter)
		if err != nil {
			return oops.Wrapf(err, "bad filter %q", filter)
		}
	}
	pred := func(o *scene.EditorObject) bool {
		if !usertypes.IsResource(o.Kind) {
			return false
		}
		return match == nil || match.Match(o.Name)
	}

	if !del {
		orphaned := query.FindAllUnreferencedObjects(p, pred)
		if len(orphaned) == 0 {
			cmd.Println("No unused resources.")
			return nil
		}
		rows := make([][]string, 0, len(orphaned))
		for _, id := range orphaned {
			obj, ok := p.Object(id)
			if !ok {
				continue
			}
			rows = append(rows, []string{obj.Name, obj.Kind, primaryURI(obj)})
		}
		cmd.Println(forge.Table([]string{"NAME", "KIND", "URI"}, rows))
		return nil
	}

	var n int
	if match == nil {
		n, err = itf.DeleteUnreferencedResources(cmd.Context())
	} else {
		var ids []ulid.ULID
		if ids = query.FindAllUnreferencedObjects(p, pred); len(ids) > 0 {
			n, err = itf.DeleteObjects(cmd.Context(), ids...)
		}
	}
	if err != nil {
		return err
	}
	if n == 0 {
		cmd.Println("No unused resources.")
		return nil
	}
	if err := serialization.WriteProjectFile(path, p); err != nil {
		return err
	}
	cmd.Printf("Deleted %s; saved %s\n", forge.Plural(n, "resource"), path)
	return nil
}

// primaryURI returns the object's uri slot value, or the vertex shader
// for materials, which carry two.
func primaryURI(obj *scene.EditorObject) string {
	for _, slot := range []string{"uri", "uriVertex"} {
		if prop, ok := obj.Property(slot); ok {
			if s, ok := prop.AsString(); ok {
				return s
			}
		}
	}
	return ""
}
