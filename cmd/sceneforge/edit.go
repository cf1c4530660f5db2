// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package main

import (
	"path/filepath"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/internal/command"
	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/proppath"
	"github.com/sceneforge/sceneforge/internal/serialization"
	"github.com/sceneforge/sceneforge/pkg/forge"
)

// editFlags collects the batch operations of one edit invocation.
type editFlags struct {
	sets        []string
	names       []string
	addLinks    []string
	removeLinks []string
	weak        bool
	save        bool
	saveAs      string
	newID       bool
}

func (f editFlags) operations() int {
	return len(f.sets) + len(f.names) + len(f.addLinks) + len(f.removeLinks)
}

// NewEditCmd creates the edit subcommand.
func NewEditCmd() *cobra.Command {
	var flags editFlags
	cmd := &cobra.Command{
		Use:   "edit <project.sfp>",
		Short: "Apply batch edits to a document",
		Long: `Edit applies property writes, renames, and link changes to a document
as one command, then optionally writes the result back:

  sceneforge edit scene.sfp --set duck.visibility=false \
      --set "duck.translation=[0, 1, 0]" --save
  sceneforge edit scene.sfp --add-link ctrl.outputs.pos=duck.translation \
      --save-as out/scene.sfp

Property values parse by the property's kind; vectors take comma
separated components, references an object id or "none". Without
--save or --save-as the edits run against the loaded document and are
discarded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], flags)
		},
	}
	cmd.Flags().StringArrayVar(&flags.sets, "set", nil, "write a property: object.path=value")
	cmd.Flags().StringArrayVar(&flags.names, "name", nil, "rename an object: object=new-name")
	cmd.Flags().StringArrayVar(&flags.addLinks, "add-link", nil, "link two properties: start=end")
	cmd.Flags().StringArrayVar(&flags.removeLinks, "remove-link", nil, "remove the link ending on a property")
	cmd.Flags().BoolVar(&flags.weak, "weak", false, "added links are weak (allowed to close cycles)")
	cmd.Flags().BoolVar(&flags.save, "save", false, "write the document back in place")
	cmd.Flags().StringVar(&flags.saveAs, "save-as", "", "write the document to a new path, rerooting relative URIs")
	cmd.Flags().BoolVar(&flags.newID, "new-id", false, "with --save-as: give the copy a fresh project id")
	return cmd
}

func runEdit(cmd *cobra.Command, path string, flags editFlags) error {
	if flags.newID && flags.saveAs == "" {
		return oops.Errorf("--new-id needs --save-as")
	}
	if flags.operations() == 0 && flags.saveAs == "" {
		return oops.Errorf("nothing to do: pass --set, --name, --add-link, --remove-link or --save-as")
	}

	itf, err := openDocument(path)
	if err != nil {
		return err
	}

	if flags.operations() > 0 {
		err := itf.ExecuteComposite(cmd.Context(), "Batch edit", func() error {
			return applyEdits(cmd, itf, flags)
		})
		if err != nil {
			return err
		}
	}

	return saveEdited(cmd, itf, path, flags)
}

func applyEdits(cmd *cobra.Command, itf *command.Interface, flags editFlags) error {
	ctx := cmd.Context()
	p := itf.Project()

	for _, spec := range flags.sets {
		expr, raw, err := splitSpec(spec)
		if err != nil {
			return err
		}
		ref, err := proppath.Resolve(p, expr)
		if err != nil {
			return err
		}
		prop, err := p.ResolveProperty(ref)
		if err != nil {
			return err
		}
		v, err := forge.ParseValue(prop.Kind(), raw)
		if err != nil {
			return oops.Wrapf(err, "parsing value for %q", expr)
		}
		if err := itf.SetValue(ctx, ref, v); err != nil {
			return err
		}
	}

	for _, spec := range flags.names {
		expr, name, err := splitSpec(spec)
		if err != nil {
			return err
		}
		ref, err := proppath.Resolve(p, expr)
		if err != nil {
			return err
		}
		if len(ref.Path) > 0 {
			return oops.Errorf("--name takes an object, not a property path: %q", expr)
		}
		if err := itf.SetName(ctx, ref.Object, name); err != nil {
			return err
		}
	}

	for _, spec := range flags.addLinks {
		startExpr, endExpr, err := splitSpec(spec)
		if err != nil {
			return err
		}
		start, err := proppath.Resolve(p, startExpr)
		if err != nil {
			return err
		}
		end, err := proppath.Resolve(p, endExpr)
		if err != nil {
			return err
		}
		if err := itf.AddLink(ctx, start, end, flags.weak); err != nil {
			return err
		}
	}

	for _, expr := range flags.removeLinks {
		end, err := proppath.Resolve(p, expr)
		if err != nil {
			return err
		}
		if err := itf.RemoveLink(ctx, end); err != nil {
			return err
		}
	}
	return nil
}

func saveEdited(cmd *cobra.Command, itf *command.Interface, path string, flags editFlags) error {
	p := itf.Project()
	switch {
	case flags.saveAs != "":
		target, err := filepath.Abs(flags.saveAs)
		if err != nil {
			return oops.Wrapf(err, "resolving %q", flags.saveAs)
		}
		if p.Path != "" {
			source, err := filepath.Abs(p.Path)
			if err != nil {
				return oops.Wrapf(err, "resolving %q", p.Path)
			}
			if n := serialization.RerootURIs(p, filepath.Dir(source), filepath.Dir(target)); n > 0 {
				cmd.Printf("Rerooted %s\n", forge.Plural(n, "relative URI"))
			}
		}
		if flags.newID {
			p.ID = core.NewObjectID().String()
		}
		p.Path = target
		if err := serialization.WriteProjectFile(target, p); err != nil {
			return err
		}
		cmd.Printf("Saved %s\n", target)
	case flags.save:
		if err := serialization.WriteProjectFile(path, p); err != nil {
			return err
		}
		cmd.Printf("Saved %s\n", path)
	default:
		cmd.Printf("Dry run: %s applied; pass --save or --save-as to write\n",
			forge.Plural(flags.operations(), "operation"))
	}
	return nil
}

// splitSpec splits "key=value" on the first equals sign.
func splitSpec(spec string) (string, string, error) {
	idx := strings.Index(spec, "=")
	if idx <= 0 {
		return "", "", oops.Errorf("expected key=value, got %q", spec)
	}
	return spec[:idx], spec[idx+1:], nil
}
