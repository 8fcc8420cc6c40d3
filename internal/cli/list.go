package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"event-tracker/internal/command"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	All bool
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the events that need attention",
		Long: `Update all events, save the store and print the events that are
triggered or due soon. With --all every event is listed.`,
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

			if !opts.All {
				s.tracker.View().SetMode(command.Standard)
			}
			if _, err := s.tracker.Tick(ctx); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), s.tracker.Render())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "list every event")

	return cmd
}
