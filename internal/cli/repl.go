package cli

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"event-tracker/internal/log"
)

// NewReplCommand creates the interactive session command.
func NewReplCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session (default)",
		Long: `Start an interactive session.

Each line you enter is one cycle: all events are updated, the line is
applied and the store is saved. An empty line refreshes the list, "q"
ends the session.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd, opts)
		},
	}
}

func runRepl(cmd *cobra.Command, opts *RootOptions) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, opts, false)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	fmt.Fprint(out, s.tracker.Render())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		outcome, err := s.tracker.Step(ctx, scanner.Text())
		if err != nil {
			// The failed command was reverted; the session goes on.
			log.Error("cycle failed", err)
			fmt.Fprintf(out, "error: %v\n\n", err)
		}
		if outcome.Exit {
			return nil
		}
		writeOutcome(out, s.tracker, outcome)
	}
}
