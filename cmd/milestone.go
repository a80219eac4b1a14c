package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/trackhook/internal/session"
)

var milestoneCmd = &cobra.Command{
	Use:   "milestone <description>",
	Short: "Record a milestone in the session state",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description := strings.TrimSpace(strings.Join(args, " "))
		if description == "" {
			return fmt.Errorf("milestone description is empty")
		}

		store := session.NewStore(cfg.StatePath(projectDir))
		unlock, err := store.Lock()
		if err != nil {
			return err
		}
		defer unlock()

		st := store.Load()
		st.AddMilestone(description, time.Now())
		if err := store.Save(st); err != nil {
			return err
		}

		cmd.Println("Milestone added.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(milestoneCmd)
}
