// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/internal/engine"
	"github.com/sceneforge/sceneforge/pkg/forge"
)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <project.sfp>",
		Short: "Validate a scene document and its external files",
		Long: `Validate loads a document, checks it against the project schema,
re-reads every referenced external file, and reports the resulting
diagnostics. The exit status is non-zero when error-level diagnostics
remain or when the document needs a higher feature level than the
configured engine version supports.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
}

func runValidate(cmd *cobra.Command, path string) error {
	itf, err := openDocument(path)
	if err != nil {
		return err
	}
	p := itf.Project()

	if cfg != nil && cfg.EngineVersion != "" {
		ceiling, err := engine.FeatureLevelCeiling(cfg.EngineVersion)
		if err != nil {
			return err
		}
		if fl := p.FeatureLevel(); fl > ceiling {
			return oops.
				With("feature_level", fl).
				With("engine_version", cfg.EngineVersion).
				Errorf("document needs feature level %d, engine %s supports up to %d",
					fl, cfg.EngineVersion, ceiling)
		}
	}

	if _, err := itf.SyncExternalFiles(cmd.Context()); err != nil {
		return err
	}

	if errs := printDiagnostics(cmd, p); errs > 0 {
		return oops.Errorf("validation failed: %s", forge.Plural(errs, "error diagnostic"))
	}
	cmd.Printf("%s: document is valid\n", path)
	return nil
}
