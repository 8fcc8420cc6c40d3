package cli

import (
	"github.com/spf13/cobra"

	"event-tracker/internal/service"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	// Reset replaces a malformed event store with an empty one.
	Reset      bool

	// Clock overrides the session time source (for testing).
	Clock service.Clock
}

// NewRootCommand creates the root command. Without a subcommand it starts
// the interactive session.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eventtracker",
		Short: "Track recurring events",
		Long: `Track recurring personal events: chores, habits, birthdays.

Events trigger when they are due and stay in the list until completed.
Every input line is one command; "u" undoes the last one.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (default: user config dir)")
	cmd.PersistentFlags().BoolVar(&opts.Reset, "reset", false, "replace an unreadable event store with an empty one")

	cmd.AddCommand(NewReplCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDoCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewBotCommand(opts))

	return cmd
}
