package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/trackhook/internal/install"
)

var setupCommand string

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Register the hook in the project's .claude/settings.json (safe to re-run)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := install.SettingsPath(projectDir)
		changed, err := install.Install(path, setupCommand)
		if err != nil {
			return fmt.Errorf("setup failed: %w", err)
		}
		if !changed {
			cmd.Printf("  ✓ Hook already registered in %s\n", path)
			return nil
		}
		cmd.Printf("  ✓ Hook registered in %s\n", path)
		cmd.Println("  Tool activity will be logged from the next session on.")
		return nil
	},
}

func init() {
	setupCmd.Flags().StringVar(&setupCommand, "command", install.DefaultCommand, "hook command to register")
	rootCmd.AddCommand(setupCmd)
}
