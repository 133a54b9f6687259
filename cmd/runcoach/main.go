package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runcoach",
		Short: "RunCoach — AI running coach in your terminal",
		Long:  "RunCoach chats with an AI running coach, tracks your training plan, and delivers workout reminders.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newProfileCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newWorkoutsCmd())
	cmd.AddCommand(newPlanCmd())
	cmd.AddCommand(newPushCmd())
	cmd.AddCommand(newRemindCmd())
	cmd.AddCommand(newDevCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "runcoach %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
