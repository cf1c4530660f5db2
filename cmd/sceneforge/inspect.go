// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package main

import (
	"strconv"
	"strings"

	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/internal/proppath"
	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/pkg/forge"
)

// NewInspectCmd creates the inspect subcommand.
func NewInspectCmd() *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "inspect <project.sfp> [property-path...]",
		Short: "Show a document's objects, links, and properties",
		Long: `Inspect prints the object tree of a document, its links, and a
diagnostics summary. With property-path arguments it prints those
property subtrees instead, for example:

  sceneforge inspect scene.sfp duck.translation
  sceneforge inspect scene.sfp "gallery.materials[2]"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], args[1:], filter)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "only list objects whose name matches this glob")
	return cmd
}

func runInspect(cmd *cobra.Command, path string, exprs []string, filter string) error {
	itf, err := openDocument(path)
	if err != nil {
		return err
	}
	p := itf.Project()

	if len(exprs) > 0 {
		return printProperties(cmd, p, exprs)
	}

	var match glob.Glob
	if filter != "" {
		match, err = glob.Compile(filter)
		if err != nil {
			return oops.Wrapf(err, "bad filter %q", filter)
		}
	}

	cmd.Println(forge.Pairs([][2]string{
		{"Project", p.Name},
		{"Id", p.ID},
		{"Feature level", strconv.Itoa(p.FeatureLevel())},
		{"Objects", strconv.Itoa(p.InstanceCount())},
		{"Links", strconv.Itoa(p.Links().Count())},
		{"External projects", strconv.Itoa(len(p.ExternalProjectIDs()))},
	}))

	cmd.Println("")
	for _, id := range p.TopLevel() {
		printObjectTree(cmd, p, id, 0, match)
	}

	if links := p.Links().All(); len(links) > 0 {
		cmd.Println("")
		rows := make([][]string, 0, len(links))
		for _, l := range links {
			state := "LINKED"
			if !l.Valid {
				state = "BROKEN"
			}
			weak := ""
			if l.Weak {
				weak = "weak"
			}
			rows = append(rows, []string{
				query.FormatRef(p, l.Start),
				query.FormatRef(p, l.End),
				state,
				weak,
			})
		}
		cmd.Println(forge.Table([]string{"START", "END", "STATE", ""}, rows))
	}

	if n := p.Diagnostics().Count(); n > 0 {
		cmd.Println("")
		cmd.Printf("%s; run validate for details\n", forge.Plural(n, "diagnostic"))
	}
	return nil
}

func printProperties(cmd *cobra.Command, p *scene.Project, exprs []string) error {
	for _, expr := range exprs {
		ref, err := proppath.Resolve(p, expr)
		if err != nil {
			return err
		}
		prop, err := p.ResolveProperty(ref)
		if err != nil {
			return err
		}
		for _, line := range forge.FormatProperty(prop) {
			cmd.Println(line)
		}
	}
	return nil
}

// printObjectTree prints one object line and recurses into its children.
// A filter hides non-matching objects but never their matching
// descendants.
func printObjectTree(cmd *cobra.Command, p *scene.Project, id ulid.ULID, depth int, match glob.Glob) {
	obj, ok := p.Object(id)
	if !ok {
		return
	}
	if match == nil || match.Match(obj.Name) {
		line := strings.Repeat("  ", depth) + obj.Name + " (" + obj.Kind + ")"
		if obj.Extref != nil {
			line += " [from " + obj.Extref.SourceProjectID + "]"
		}
		cmd.Println(line)
	}
	for _, child := range obj.Children {
		printObjectTree(cmd, p, child, depth+1, match)
	}
}
