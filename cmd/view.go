package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/trackhook/internal/activity"
	"github.com/fakeyudi/trackhook/internal/snapshot"
	"github.com/fakeyudi/trackhook/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view [file]",
	Short: "View a progress snapshot (defaults to the live progress document)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.ProgressPath(projectDir)
		if len(args) == 1 {
			path = args[0]
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		var parser snapshot.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			parser = &snapshot.JSONParser{}
		default:
			parser = &snapshot.MarkdownParser{}
		}

		snap, err := parser.Parse(data)
		if err != nil {
			return err
		}

		if plainOutput || !term.IsTerminal(os.Stdout.Fd()) {
			printSnapshot(cmd.OutOrStdout(), snap)
			return nil
		}
		return tui.Run(snap, path)
	},
}

// printSnapshot writes a plain-text rendition of snap to w.
func printSnapshot(w io.Writer, snap *snapshot.Snapshot) {
	fmt.Fprintln(w, "## Summary")
	fmt.Fprintf(w, "  Since:     %s\n", snap.SessionStart)
	fmt.Fprintf(w, "  Updated:   %s\n", snap.UpdatedAt.Format(activity.TimeOfDay))
	fmt.Fprintf(w, "  Actions:   %d\n", snap.ActionCount)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Activity")
	c := snap.Counts
	fmt.Fprintf(w, "  Edits: %d  Writes: %d  Commands: %d  Tasks: %d  Reads: %d  Other: %d\n",
		c.Edits, c.Writes, c.Commands, c.Tasks, c.Reads, c.Other)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Completed Tasks")
	if len(snap.Tasks) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, t := range snap.Tasks {
		fmt.Fprintf(w, "  %s\n", snapshot.TaskLine(t))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Milestones")
	if len(snap.Milestones) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, m := range snap.Milestones {
		fmt.Fprintf(w, "  [%s] %s\n", m.Time, m.Description)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Files Touched")
	fmt.Fprintln(w, indent(snapshot.FileList(snap.Files, snap.MaxFiles), "  "))
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
