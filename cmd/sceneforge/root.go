package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/internal/config"
	"github.com/sceneforge/sceneforge/internal/logging"
	"github.com/sceneforge/sceneforge/internal/xdg"
)

// Global flags available to all subcommands.
var (
	configFile string
	cfg        *config.Config
)

// NewRootCmd creates the root command for the SceneForge CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sceneforge",
		Short: "SceneForge - scene document tooling",
		Long: `SceneForge works on scene documents (.sfp) without the editor:
validation against the project schema and the files on disk, property
inspection, batch edits, cleanup of unused resources, and external
reference updates.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd)
		},
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	// Add subcommands
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewInspectCmd())
	cmd.AddCommand(NewEditCmd())
	cmd.AddCommand(NewUnusedCmd())
	cmd.AddCommand(NewExtrefCmd())

	return cmd
}

// initConfig loads the layered configuration and installs the process
// logger. An explicit --config path must exist; the XDG candidate is
// picked up only when present.
func initConfig(cmd *cobra.Command) error {
	path := configFile
	if path == "" {
		candidate := filepath.Join(xdg.ConfigDir(), "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	loaded, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	cfg = loaded

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logging.SetDefault("sceneforge", version, cfg.LogFormat, level)
	return nil
}
