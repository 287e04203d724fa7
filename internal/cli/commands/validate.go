package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a schedcompare configuration file without extracting metrics.

Checks:
  - YAML syntax
  - Exactly two schedulers with unique names and trace paths
  - Non-negative observation window
  - Non-empty, distinct markers
  - Webhook URLs and triggers
  - Trace file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := loadConfig(commandContext(cmd), configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Total execution time: %d\n", cfg.TotalExecutionTime)
	fmt.Fprintf(out, "  Webhooks:             %d\n", len(cfg.Webhooks))

	fmt.Fprintf(out, "\nSchedulers:\n")
	for i, s := range cfg.Schedulers {
		fmt.Fprintf(out, "  %d. %s\n", i+1, s.Name)
		fmt.Fprintf(out, "     %s\n", s.Trace)
	}

	fmt.Fprintf(out, "\nMarkers:\n")
	fmt.Fprintf(out, "  idle:       %q\n", cfg.Markers.Idle)
	fmt.Fprintf(out, "  idle_start: %q\n", cfg.Markers.IdleStart)
	fmt.Fprintf(out, "  finish:     %q\n", cfg.Markers.Finish)
	fmt.Fprintf(out, "  running:    %q\n", cfg.Markers.Running)

	// Missing traces are only warnings; they may be produced later.
	for _, s := range cfg.Schedulers {
		if _, err := os.Stat(s.Trace); err != nil {
			fmt.Fprintf(out, "\nWarning: trace for %s not readable: %v\n", s.Name, err)
		}
	}

	return nil
}
