package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/schedcompare/pkg/logutil"
	"github.com/ccollicutt/schedcompare/pkg/metrics"
	"github.com/ccollicutt/schedcompare/pkg/output"
	"github.com/ccollicutt/schedcompare/pkg/parser"
)

// ExtractOptions holds command-line options for the extract command.
type ExtractOptions struct {
	ConfigFile string
	Output     string
	Name       string
	TotalTime  int
	Verbose    bool
	Quiet      bool
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <trace-file|pattern>...",
		Short: "Extract metrics from traces without comparing",
		Long: `Extract scheduler metrics from one or more traces without comparing.

Each trace is reported on its own; glob patterns are expanded.
Markers and the observation window come from --config when given.

Example:
  schedcompare extract outputs/output_RM.txt
  schedcompare extract -o json --total-time 60 outputs/output_freertos.txt
  schedcompare extract -q 'runs/*.txt'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file for markers and window")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json|prometheus)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Scheduler label for a single trace (default: trace file name)")
	cmd.Flags().IntVar(&opts.TotalTime, "total-time", metrics.DefaultTotalExecutionTime, "Observation window for idle percentage")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show finish timeline and scan statistics")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "One summary line")

	return cmd
}

func runExtract(cmd *cobra.Command, patterns []string, opts *ExtractOptions) error {
	ctx := commandContext(cmd)

	switch opts.Output {
	case "text", "json", "prometheus":
	default:
		return fmt.Errorf("unknown output format %q (use text, json or prometheus)", opts.Output)
	}

	traces, err := parser.ExpandPatterns(patterns)
	if err != nil {
		return err
	}
	if opts.Name != "" && len(traces) > 1 {
		return fmt.Errorf("--name needs a single trace, got %d", len(traces))
	}

	cfg, err := loadConfig(ctx, opts.ConfigFile)
	if err != nil {
		return err
	}

	total := cfg.TotalExecutionTime
	if cmd.Flags().Changed("total-time") {
		total = opts.TotalTime
	}
	if total < 0 {
		return fmt.Errorf("total-time must be >= 0, got %d", total)
	}

	extractor := metrics.NewExtractor(
		metrics.WithTotalExecutionTime(total),
		metrics.WithMarkers(cfg.Markers),
		metrics.WithLogger(logutil.GetLogger()),
	)

	results := make([]output.SchedulerResult, 0, len(traces))
	for _, trace := range traces {
		m, err := extractor.ExtractFile(ctx, trace)
		if err != nil {
			return err
		}

		name := opts.Name
		if name == "" {
			name = filepath.Base(trace)
		}
		results = append(results, output.SchedulerResult{Name: name, Trace: trace, Metrics: m})
	}

	return writeResults(cmd.OutOrStdout(), results, opts)
}

// writeResults prints independent per-trace results. JSON is a single
// object for one trace and an array otherwise.
func writeResults(w io.Writer, results []output.SchedulerResult, opts *ExtractOptions) error {
	formatOpts := output.FormatOptions{Verbose: opts.Verbose, Quiet: opts.Quiet}

	switch opts.Output {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if len(results) == 1 {
			return encoder.Encode(results[0])
		}
		return encoder.Encode(results)
	case "prometheus":
		return output.NewPrometheusFormatter(formatOpts).FormatResults(results, w)
	default:
		text := output.NewTextFormatter(formatOpts)
		for i, r := range results {
			if i > 0 && !opts.Quiet {
				fmt.Fprintln(w)
			}
			if err := text.FormatResult(r, w); err != nil {
				return err
			}
		}
		return nil
	}
}
