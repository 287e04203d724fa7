package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/schedcompare/pkg/config"
	"github.com/ccollicutt/schedcompare/pkg/logutil"
	"github.com/ccollicutt/schedcompare/pkg/metrics"
	"github.com/ccollicutt/schedcompare/pkg/output"
	"github.com/ccollicutt/schedcompare/pkg/parser"
	"github.com/ccollicutt/schedcompare/pkg/webhook"
)

// Exit codes returned by the CLI.
const (
	ExitOK              = 0
	ExitExtractionError = 1
	ExitUsageError      = 2
)

// ExitCodeFor maps a command error to the process exit code.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, parser.ErrSourceUnavailable), errors.Is(err, parser.ErrParse):
		return ExitExtractionError
	default:
		return ExitUsageError
	}
}

// CompareOptions holds command-line options for the compare command.
type CompareOptions struct {
	ConfigFile string
	Output     string
	RMName     string
	StdName    string
	TotalTime  int
	NoChart    bool
	NoColor    bool
	ChartWidth int
	Verbose    bool
	Quiet      bool

	// Webhook options
	WebhookURL   string
	WebhookToken string
}

// NewCompareCommand creates the compare command.
func NewCompareCommand() *cobra.Command {
	opts := &CompareOptions{}

	cmd := &cobra.Command{
		Use:   "compare [rm-trace std-trace]",
		Short: "Compare a rate-monotonic trace against a standard scheduler trace",
		Long: `Extract metrics from two scheduler traces and compare them.

For each trace the command reports:
  - Total execution time (the observation window)
  - Idle time percentage
  - Context switches

Traces come from the positional arguments, the configuration file, or the
defaults outputs/output_RM.txt and outputs/output_freertos.txt.

Exit codes:
  0 - Comparison completed
  1 - A trace could not be read or parsed
  2 - Configuration or usage error`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != config.RequiredSchedulers {
				return fmt.Errorf("expected 0 or %d trace arguments, got %d", config.RequiredSchedulers, len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json|chart|prometheus)")
	cmd.Flags().StringVar(&opts.RMName, "rm-name", config.DefaultRateMonotonicName, "Label for the rate-monotonic trace")
	cmd.Flags().StringVar(&opts.StdName, "std-name", config.DefaultStandardName, "Label for the standard scheduler trace")
	cmd.Flags().IntVar(&opts.TotalTime, "total-time", metrics.DefaultTotalExecutionTime, "Observation window for idle percentage")
	cmd.Flags().BoolVar(&opts.NoChart, "no-chart", false, "Do not render the chart after text output")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "Disable colors in the chart")
	cmd.Flags().IntVar(&opts.ChartWidth, "chart-width", output.DefaultChartWidth, "Longest bar length in cells")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show finish timelines and scan statistics")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "One summary line per scheduler")

	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string, opts *CompareOptions) error {
	ctx := commandContext(cmd)
	log := logutil.GetLogger()

	cfg, err := compareConfig(cmd, args, opts)
	if err != nil {
		return err
	}

	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	extractor := metrics.NewExtractor(
		metrics.WithTotalExecutionTime(cfg.TotalExecutionTime),
		metrics.WithMarkers(cfg.Markers),
		metrics.WithLogger(log),
	)

	start := time.Now()
	results := make([]output.SchedulerResult, 0, len(cfg.Schedulers))
	for _, s := range cfg.Schedulers {
		m, err := extractor.ExtractFile(ctx, s.Trace)
		if err != nil {
			return fmt.Errorf("scheduler %q: %w", s.Name, err)
		}
		log.Info("extracted scheduler metrics",
			zap.String("scheduler", s.Name),
			zap.String("trace", s.Trace),
			zap.Float64("idle_percentage", m.IdlePercentage),
			zap.Int("context_switches", m.ContextSwitchCount))
		results = append(results, output.SchedulerResult{Name: s.Name, Trace: s.Trace, Metrics: m})
	}

	report, err := output.NewReport(results, output.Metadata{
		ConfigFile:         opts.ConfigFile,
		TotalExecutionTime: cfg.TotalExecutionTime,
		AnalyzedAt:         time.Now(),
		Duration:           time.Since(start),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := formatter.Format(ctx, report, out); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if opts.Output == "text" && !opts.NoChart && !opts.Quiet {
		fmt.Fprintln(out)
		chart := output.NewChartFormatter(formatOptions(opts))
		if err := chart.Format(ctx, report, out); err != nil {
			return fmt.Errorf("rendering chart: %w", err)
		}
	}

	// Webhook failures are logged but never fail the comparison.
	sendWebhooks(ctx, cfg, opts, report)

	return nil
}

// compareConfig builds the effective configuration: file or defaults,
// then positional traces, then flags.
func compareConfig(cmd *cobra.Command, args []string, opts *CompareOptions) (*config.Config, error) {
	cfg, err := loadConfig(commandContext(cmd), opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	if len(args) == config.RequiredSchedulers {
		cfg.Schedulers[0].Trace = args[0]
		cfg.Schedulers[1].Trace = args[1]
	}

	flags := cmd.Flags()
	if flags.Changed("rm-name") {
		cfg.Schedulers[0].Name = opts.RMName
	}
	if flags.Changed("std-name") {
		cfg.Schedulers[1].Name = opts.StdName
	}
	if flags.Changed("total-time") {
		cfg.TotalExecutionTime = opts.TotalTime
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

// loadConfig loads path, or the defaults with environment overrides when
// path is empty. Relative trace paths in a file resolve against its directory.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		cfg, err := config.Parse(nil)
		if err != nil {
			return nil, fmt.Errorf("loading defaults: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.ResolveTraces(filepath.Dir(path))
	return cfg, nil
}

func formatOptions(opts *CompareOptions) output.FormatOptions {
	return output.FormatOptions{
		Verbose:    opts.Verbose,
		Quiet:      opts.Quiet,
		NoColor:    opts.NoColor,
		ChartWidth: opts.ChartWidth,
	}
}

func createFormatter(opts *CompareOptions) (output.Formatter, error) {
	formatOpts := formatOptions(opts)

	switch opts.Output {
	case "text":
		return output.NewTextFormatter(formatOpts), nil
	case "json":
		return output.NewJSONFormatter(formatOpts), nil
	case "chart":
		return output.NewChartFormatter(formatOpts), nil
	case "prometheus":
		return output.NewPrometheusFormatter(formatOpts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text, json, chart or prometheus)", opts.Output)
	}
}

// sendWebhooks posts the report to every webhook whose trigger fires.
func sendWebhooks(ctx context.Context, cfg *config.Config, opts *CompareOptions, report *output.Report) {
	webhooks := collectWebhooks(cfg, opts)
	if len(webhooks) == 0 {
		return
	}

	log := logutil.GetLogger()
	client := webhook.NewClient(
		webhook.WithUserAgent("schedcompare/"+Version),
		webhook.WithLogger(log),
	)

	for _, wh := range webhooks {
		if !shouldFireWebhook(wh.Trigger) {
			continue
		}

		resp := client.Send(ctx, report, webhook.SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		if resp.Success() {
			log.Info("webhook sent",
				zap.String("webhook", wh.DisplayName()),
				zap.Int("status", resp.StatusCode),
				zap.Duration("duration", resp.Duration))
		} else {
			log.Warn("webhook failed",
				zap.String("webhook", wh.DisplayName()),
				zap.Error(resp.Error))
		}
	}
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *CompareOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: config.WebhookTriggerAlways,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}

func shouldFireWebhook(trigger config.WebhookTrigger) bool {
	return trigger != config.WebhookTriggerNever
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
