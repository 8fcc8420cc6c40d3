package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewDoCommand creates the single-cycle command.
func NewDoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "do <line>",
		Short: "Run one input line and print the result",
		Long: `Run one interaction cycle with the given line, as if it was typed in
the interactive session. Display ids refer to the full listing.

Example:
  eventtracker do c weekly mon 07:00 -- take out the bins
  eventtracker do 0 2`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, opts, false)
			if err != nil {
				return err
			}
			defer s.Close()

			out, err := s.tracker.Step(ctx, joinLine(args, cmd.ArgsLenAtDash()))
			if err != nil {
				return err
			}
			writeOutcome(cmd.OutOrStdout(), s.tracker, out)
			return nil
		},
	}
}

// joinLine rebuilds the input line. The flag parser swallows the "--" that
// separates an interval from the event text, dash is where it stood.
func joinLine(args []string, dash int) string {
	if dash < 0 || dash > len(args) {
		return strings.Join(args, " ")
	}
	return strings.Join(args[:dash], " ") + " -- " + strings.Join(args[dash:], " ")
}
