package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/trackhook/internal/activity"
	"github.com/fakeyudi/trackhook/internal/session"
)

var labelStyle = lipgloss.NewStyle().Bold(true)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the tracked session state",
	RunE: func(cmd *cobra.Command, args []string) error {
		stateDir := cfg.StatePath(projectDir)
		st, err := session.NewStore(stateDir).Read()
		if err != nil {
			if errors.Is(err, session.ErrNoState) {
				fmt.Fprintln(cmd.OutOrStdout(), "no session state")
				return nil
			}
			return err
		}

		today := 0
		for range activity.NewLog(stateDir).Scan(activity.Today(time.Now())) {
			today++
		}

		row := func(label string, value any) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n", labelStyle.Render(fmt.Sprintf("%-16s", label)), value)
		}
		row("Session start:", st.SessionStart)
		row("Actions:", st.ActionCount)
		row("Records today:", today)
		row("Completed tasks:", len(st.CompletedTasks))
		row("Milestones:", len(st.Milestones))
		if interval := cfg.UpdateInterval; interval > 0 {
			row("Next snapshot:", fmt.Sprintf("in %d actions", interval-st.ActionCount%interval))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
