package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/trackhook/internal/config"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// logger writes diagnostics to stderr. Stdout belongs to command output.
var logger = slog.New(slog.DiscardHandler)

// projectDir is the resolved working directory every command operates on.
var projectDir string

var (
	dirFlag   string
	debugFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "trackhook",
	Short: "Record coding-assistant tool activity and keep a live progress document",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		projectDir = dirFlag
		if projectDir != "" {
			// Snapshot paths are made relative to this, so it must be absolute.
			if abs, err := filepath.Abs(projectDir); err == nil {
				projectDir = abs
			}
		} else {
			wd, err := os.Getwd()
			if err != nil && cmd.Name() != hookCmd.Name() {
				return fmt.Errorf("resolving working directory: %w", err)
			}
			projectDir = wd
			if projectDir == "" {
				projectDir = "."
			}
		}

		loaded, loadErr := config.Load(projectDir)
		if loadErr != nil {
			// The hook must never fail the host, so it runs on defaults instead.
			if cmd.Name() != hookCmd.Name() {
				return fmt.Errorf("loading config: %w", loadErr)
			}
			loaded = config.Defaults()
		}
		cfg = loaded

		level := slog.LevelWarn
		if cfg.Debug || debugFlag {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		if loadErr != nil {
			logger.Warn("config ignored", "err", loadErr)
		}
		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "C", "", "project directory (defaults to the current directory)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log debug diagnostics to stderr")
}
