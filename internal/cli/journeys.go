package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewJourneysCommand creates the journeys command.
func NewJourneysCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "journeys",
		Short:         "List registered journeys",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newOutput(rootOpts, cmd)
			reg, err := rootOpts.registry()
			if err != nil {
				return out.report(commandError(ErrCodeUnknownJourney, "failed to build journey registry", err))
			}
			names := reg.Names()
			return out.result(map[string]any{"journeys": names}, func(w io.Writer) {
				if len(names) == 0 {
					fmt.Fprintln(w, "No journeys registered.")
				}
				for _, name := range names {
					fmt.Fprintln(w, name)
				}
			})
		},
	}
}
