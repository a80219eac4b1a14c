package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/trackhook/internal/session"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start a new session: clear counters, tasks and milestones (the activity log is kept)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := session.NewStore(cfg.StatePath(projectDir))
		unlock, err := store.Lock()
		if err != nil {
			return err
		}
		defer unlock()

		if err := store.Delete(); err != nil {
			return err
		}
		cmd.Println("Session state cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
