// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package main

import (
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/internal/command"
	"github.com/sceneforge/sceneforge/internal/engine"
	"github.com/sceneforge/sceneforge/internal/extref"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/serialization"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
	"github.com/sceneforge/sceneforge/pkg/forge"
)

// openDocument reads a project file and wires the command interface the
// subcommands work through.
func openDocument(path string) (*command.Interface, error) {
	p, err := serialization.ReadProjectFile(path)
	if err != nil {
		return nil, err
	}
	loader := extref.FileLoader{}
	if cfg != nil {
		loader.MaxRetries = cfg.ExtrefRetries
	}
	return command.New(command.Config{
		Project: p,
		Oracle:  engine.NewEngine(),
		Factory: usertypes.NewFactory(),
		Loader:  loader,
	})
}

// printDiagnostics renders the document's diagnostics and returns the
// number of error-level items.
func printDiagnostics(cmd *cobra.Command, p *scene.Project) int {
	items := p.Diagnostics().All()
	if len(items) == 0 {
		return 0
	}

	errs := 0
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		if item.Level == scene.LevelError {
			errs++
		}
		rows = append(rows, []string{
			item.Level.String(),
			item.Category.String(),
			objectLabel(p, item.Object),
			value.JoinPath(item.Path),
			item.Message,
		})
	}
	cmd.Println(forge.Table([]string{"LEVEL", "CATEGORY", "OBJECT", "PROPERTY", "MESSAGE"}, rows))
	return errs
}

// objectLabel resolves a display name, falling back to the id for items
// whose object is gone.
func objectLabel(p *scene.Project, id ulid.ULID) string {
	if obj, ok := p.Object(id); ok {
		return obj.Name
	}
	return id.String()
}
