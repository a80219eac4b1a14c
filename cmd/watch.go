package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/trackhook/internal/activity"
	"github.com/fakeyudi/trackhook/internal/session"
	"github.com/fakeyudi/trackhook/internal/snapshot"
	"github.com/fakeyudi/trackhook/internal/tracker"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-materialize the progress document whenever the activity log grows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, cmd)
	},
}

func runWatch(ctx context.Context, cmd *cobra.Command) error {
	stateDir := cfg.StatePath(projectDir)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(stateDir); err != nil {
		return fmt.Errorf("watching %s: %w", stateDir, err)
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", filepath.Join(stateDir, activity.FileName))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != activity.FileName || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			snap, err := refreshProgress(time.Now())
			if err != nil {
				logger.Warn("refresh failed", "err", err)
				continue
			}
			cmd.Printf("[%s] %d actions, %d records today\n",
				snap.UpdatedAt.Format(activity.TimeOfDay), snap.ActionCount, snap.Counts.Total())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "err", err)
		}
	}
}

// refreshProgress rewrites the progress document under the state lock.
func refreshProgress(now time.Time) (*snapshot.Snapshot, error) {
	stateDir := cfg.StatePath(projectDir)
	store := session.NewStore(stateDir)
	unlock, err := store.Lock()
	if err != nil {
		logger.Debug("refreshing without state lock", "err", err)
	}
	defer unlock()

	opts := tracker.New(projectDir, cfg, "", logger).SnapshotOptions(now)
	return snapshot.Materialize(activity.NewLog(stateDir), store.Load(), opts, nil, cfg.ProgressPath(projectDir))
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
