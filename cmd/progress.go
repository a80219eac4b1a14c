package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/trackhook/internal/activity"
	"github.com/fakeyudi/trackhook/internal/session"
	"github.com/fakeyudi/trackhook/internal/snapshot"
	"github.com/fakeyudi/trackhook/internal/tracker"
)

var (
	progressFormat string
	progressStdout bool
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Materialize the progress snapshot now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := rendererFor(progressFormat)
		if err != nil {
			return err
		}

		now := time.Now()
		stateDir := cfg.StatePath(projectDir)
		opts := tracker.New(projectDir, cfg, "", logger).SnapshotOptions(now)
		store := session.NewStore(stateDir)
		log := activity.NewLog(stateDir)

		if progressStdout {
			snap := snapshot.Build(log.Scan(activity.Today(now)), store.Load(), opts)
			data, err := renderer.Render(snap)
			if err != nil {
				return fmt.Errorf("render snapshot: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		unlock, err := store.Lock()
		if err != nil {
			logger.Warn("materializing without state lock", "err", err)
		}
		defer unlock()

		path := progressPath(progressFormat)
		snap, err := snapshot.Materialize(log, store.Load(), opts, renderer, path)
		if err != nil {
			return err
		}
		cmd.Printf("Progress written: %s (%d actions, %d records today)\n", path, snap.ActionCount, snap.Counts.Total())
		return nil
	},
}

func rendererFor(format string) (snapshot.Renderer, error) {
	switch strings.ToLower(format) {
	case "", "markdown", "md":
		return &snapshot.MarkdownRenderer{}, nil
	case "json":
		return &snapshot.JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q: want markdown or json", format)
	}
}

// progressPath is the configured document, with a .json extension for JSON.
func progressPath(format string) string {
	path := cfg.ProgressPath(projectDir)
	if strings.EqualFold(format, "json") {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
	}
	return path
}

func init() {
	progressCmd.Flags().StringVar(&progressFormat, "format", "markdown", "output format: markdown or json")
	progressCmd.Flags().BoolVar(&progressStdout, "stdout", false, "print the snapshot instead of writing the file")
	rootCmd.AddCommand(progressCmd)
}
