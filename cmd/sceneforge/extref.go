// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/internal/serialization"
	"github.com/sceneforge/sceneforge/pkg/forge"
)

// NewExtrefCmd creates the extref command group.
func NewExtrefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extref",
		Short: "Work with external references",
	}
	cmd.AddCommand(NewExtrefUpdateCmd())
	return cmd
}

// NewExtrefUpdateCmd creates the extref update subcommand.
func NewExtrefUpdateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "update <project.sfp>",
		Short: "Re-resolve external references against their source documents",
		Long: `Update reloads every document this one imports from and mirrors
changed content onto the imported objects. A source that cannot serve
(missing file, changed project id, reference cycle) marks its imports
with error diagnostics; the rest still update. The document is written
back unless --dry-run is set, and the exit status is non-zero when
error diagnostics remain.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtrefUpdate(cmd, args[0], dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing the document")
	return cmd
}

func runExtrefUpdate(cmd *cobra.Command, path string, dryRun bool) error {
	itf, err := openDocument(path)
	if err != nil {
		return err
	}
	p := itf.Project()

	if err := itf.UpdateExternalReferences(cmd.Context()); err != nil {
		return err
	}

	// The update pushes a history entry only when something changed.
	if itf.UndoSize() > 0 {
		cmd.Println("External references updated.")
	} else {
		cmd.Println("Already up to date.")
	}
	errs := printDiagnostics(cmd, p)

	switch {
	case dryRun:
		cmd.Println("Dry run; document not written.")
	case itf.UndoSize() > 0:
		if err := serialization.WriteProjectFile(path, p); err != nil {
			return err
		}
		cmd.Printf("Saved %s\n", path)
	}

	if errs > 0 {
		return oops.Errorf("update left %s", forge.Plural(errs, "error diagnostic"))
	}
	return nil
}
