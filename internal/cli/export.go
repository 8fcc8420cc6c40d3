package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"event-tracker/internal/calendar"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export upcoming due times as iCalendar",
		Long: `Write the next due time of every scheduled event as an .ics calendar.
Calendar-pinned events repeat with an RRULE.

Example:
  eventtracker export -o ~/events.ics`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, opts.RootOptions, false)
			if err != nil {
				return err
			}
			defer s.Close()

			if _, err := s.tracker.Tick(ctx); err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			toFile := opts.Output != "" && opts.Output != "-"
			if toFile {
				f, err := os.Create(opts.Output)
				if err != nil {
					return fmt.Errorf("create %s: %w", opts.Output, err)
				}
				defer f.Close()
				w = f
			}

			n, err := calendar.Export(w, s.tracker.Events(), s.cal, s.tracker.Now())
			if err != nil {
				return err
			}
			if toFile {
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d events to %s\n", n, opts.Output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")

	return cmd
}
