package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/longevity/internal/journey"
	"github.com/roach88/longevity/internal/report"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Registry resolves journey names. If nil, the sample journeys are used.
	Registry *journey.Registry

	// IDGenerator allows overriding journal run IDs (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator report.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the longevity CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "longevity",
		Short: "Run scheduled longevity scenarios",
		Long: `Run one journey inside a fixed wall-clock window.

The journey gets the window minus a teardown leeway, teardown gets the leeway,
and whatever is left is spent idling so the next scenario starts on time.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewJourneysCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// registry returns the configured registry, building the sample one on first use.
func (o *RootOptions) registry() (*journey.Registry, error) {
	if o.Registry != nil {
		return o.Registry, nil
	}
	reg := journey.NewRegistry()
	if err := journey.RegisterSamples(reg); err != nil {
		return nil, err
	}
	o.Registry = reg
	return reg, nil
}

// newLogger returns a text logger on w, at debug level when verbose.
func (o *RootOptions) newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
