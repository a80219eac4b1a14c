package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/trackhook/internal/tracker"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Handle one PostToolUse event from stdin and print the acknowledgement",
	Long: `Reads a single tool event as JSON on stdin, records it, and writes exactly
one JSON object to stdout. The command always exits 0.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			logger.Warn("reading hook input", "err", err)
		}

		tr := tracker.New(projectDir, GetConfig(), os.Getenv(tracker.SessionEnv), logger)
		ack := tr.Handle(input)

		out := cmd.OutOrStdout()
		if _, err := out.Write(append(ack.JSON(), '\n')); err != nil {
			logger.Error("writing ack", "err", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hookCmd)
}
