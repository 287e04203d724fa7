package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/schedcompare/pkg/config"
	"github.com/ccollicutt/schedcompare/pkg/detector"
	"github.com/ccollicutt/schedcompare/pkg/parser"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose    bool
	SampleSize int
}

type checkStatus string

const (
	statusOK   checkStatus = "ok"
	statusWarn checkStatus = "warning"
	statusFail checkStatus = "error"
)

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   checkStatus
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <config-file | trace-file...>",
		Short: "Diagnose configuration and trace problems",
		Long: `Diagnose common configuration and trace problems.

Given a configuration file (.yaml or .yml) this command checks:
- Config file syntax and structure
- Trace file existence and accessibility
- How sampled trace lines classify against the markers
- Webhook configuration

Given one or more trace files it samples them with the default markers.

Example:
  schedcompare diagnose compare.yaml
  schedcompare diagnose -v compare.yaml  # verbose output
  schedcompare diagnose outputs/output_RM.txt outputs/output_freertos.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(commandContext(cmd), cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")
	cmd.Flags().IntVar(&opts.SampleSize, "sample-size", detector.DefaultSampleSize, "Trace lines to sample per file")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, args []string, opts *DiagnoseOptions) error {
	if !isConfigPath(args[0]) {
		traces, err := parser.ExpandPatterns(args)
		if err != nil {
			return err
		}
		schedulers := make([]config.SchedulerConfig, len(traces))
		for i, p := range traces {
			schedulers[i] = config.SchedulerConfig{Name: filepath.Base(p), Trace: p}
		}
		results := checkTraceFiles(schedulers)
		results = append(results, checkMarkers(ctx, schedulers, parser.DefaultMarkers(), opts)...)
		printDiagnostics(w, results, opts)
		return nil
	}
	if len(args) > 1 {
		return fmt.Errorf("diagnose takes one config file, got %d arguments", len(args))
	}
	configPath := args[0]

	results := []DiagnosticResult{}

	// 1. Check config file existence
	result := checkConfigExists(configPath)
	results = append(results, result)
	if result.Status == statusFail {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 2. Parse config file
	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == statusFail {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 3. Observation window
	results = append(results, checkWindow(cfg))

	// 4. Trace files
	results = append(results, checkTraceFiles(cfg.Schedulers)...)

	// 5. Markers against sampled trace lines
	results = append(results, checkMarkers(ctx, cfg.Schedulers, cfg.Markers, opts)...)

	// 6. Webhooks
	results = append(results, checkWebhooks(cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func isConfigPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = statusFail
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Run 'schedcompare compare <rm-trace> <std-trace>' to compare without a config",
		}
		return result
	}
	if err != nil {
		result.Status = statusFail
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = statusFail
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = statusFail
		result.Message = "Config file is empty"
		result.Suggests = []string{
			"Add a schedulers section with two name/trace entries",
		}
		return result
	}

	result.Status = statusOK
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := loadConfig(ctx, path)
	if err != nil {
		result.Status = statusFail
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		if strings.Contains(err.Error(), "schedulers") {
			result.Suggests = append(result.Suggests,
				fmt.Sprintf("List exactly %d schedulers, rate-monotonic first", config.RequiredSchedulers))
		}
		return nil, result
	}

	result.Status = statusOK
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Schedulers: %d", len(cfg.Schedulers)),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

func checkWindow(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Observation Window",
	}

	if cfg.TotalExecutionTime == 0 {
		result.Status = statusWarn
		result.Message = "total_execution_time is 0; idle percentage will always be 0"
		result.Suggests = []string{"Set total_execution_time to the traced run length"}
		return result
	}

	result.Status = statusOK
	result.Message = fmt.Sprintf("total_execution_time: %d", cfg.TotalExecutionTime)
	return result
}

func checkTraceFiles(schedulers []config.SchedulerConfig) []DiagnosticResult {
	results := []DiagnosticResult{}

	for _, s := range schedulers {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Trace: %s", s.Name),
		}

		info, err := os.Stat(s.Trace)
		switch {
		case os.IsNotExist(err):
			result.Status = statusFail
			result.Message = fmt.Sprintf("File does not exist: %s", s.Trace)
			result.Suggests = []string{
				"Check if the trace path is correct",
				"Relative paths in a config file resolve against the config's directory",
			}
		case err != nil:
			result.Status = statusFail
			result.Message = fmt.Sprintf("Cannot access file: %v", err)
			result.Suggests = []string{"Check file permissions"}
		case info.IsDir():
			result.Status = statusFail
			result.Message = "Path is a directory, not a file"
		case info.Size() == 0:
			result.Status = statusWarn
			result.Message = "File is empty (0 bytes); all metrics will be 0"
		default:
			result.Status = statusOK
			result.Message = fmt.Sprintf("File exists (%d bytes)", info.Size())
		}
		results = append(results, result)
	}

	return results
}

func checkMarkers(ctx context.Context, schedulers []config.SchedulerConfig, markers parser.Markers, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}
	d := detector.New(detector.WithMarkers(markers), detector.WithSampleSize(opts.SampleSize))

	for _, s := range schedulers {
		if info, err := os.Stat(s.Trace); err != nil || info.IsDir() || info.Size() == 0 {
			continue
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Markers: %s", s.Name),
		}

		det, err := d.DetectFromFile(ctx, s.Trace)
		if err != nil {
			result.Status = statusFail
			result.Message = fmt.Sprintf("Cannot read trace: %v", err)
			results = append(results, result)
			continue
		}

		switch {
		case len(det.Malformed) > 0:
			result.Status = statusFail
			result.Message = fmt.Sprintf("%d sampled line(s) would abort extraction", len(det.Malformed))
			for _, m := range det.Malformed {
				result.Details = append(result.Details,
					fmt.Sprintf("line %d: %s: %s", m.Line, m.Reason, truncate(m.Content, 60)))
			}
			result.Suggests = []string{"Timestamps must be base-10 integers once '.' is removed"}
		case !det.HasMatch():
			result.Status = statusWarn
			result.Message = fmt.Sprintf("No marker matched in %d sampled lines", det.SampledLines)
			result.Suggests = append(result.Suggests, det.Hints...)
			result.Suggests = append(result.Suggests, "Override the markers section to match this trace")
		case len(det.Hints) > 0:
			result.Status = statusWarn
			result.Message = fmt.Sprintf("%d/%d sampled lines matched markers", det.MatchedLines, det.SampledLines)
			result.Suggests = det.Hints
		default:
			result.Status = statusOK
			result.Message = fmt.Sprintf("%d/%d sampled lines matched markers", det.MatchedLines, det.SampledLines)
		}

		if opts.Verbose {
			for _, m := range det.Matches {
				result.Details = append(result.Details,
					fmt.Sprintf("%s %q: %d line(s), e.g. %s", m.Kind, m.Marker, m.Count, truncate(m.SampleLine, 60)))
			}
			if det.FirstIdle != nil {
				result.Details = append(result.Details, fmt.Sprintf("first idle start: %d", *det.FirstIdle))
			}
		}

		results = append(results, result)
	}

	return results
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== schedcompare Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case statusOK:
			icon = "PASS"
			okCount++
		case statusWarn:
			icon = "WARN"
			warnCount++
		case statusFail:
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != statusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before comparing.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nTraces are usable but have warnings.")
	} else {
		fmt.Fprintln(w, "\nEverything looks good!")
	}
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  statusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", wh.DisplayName()),
		}

		issues := []string{}
		warnings := []string{}

		if wh.URL == "" {
			issues = append(issues, "Missing url")
		} else {
			u, err := url.Parse(wh.URL)
			if err != nil {
				issues = append(issues, fmt.Sprintf("Invalid URL: %v", err))
			} else if u.Scheme != "http" && u.Scheme != "https" {
				issues = append(issues, fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme))
			} else if u.Host == "" {
				issues = append(issues, "URL must have a host")
			}
		}

		switch wh.Trigger {
		case "", config.WebhookTriggerAlways:
		case config.WebhookTriggerNever:
			warnings = append(warnings, "Trigger is never; this webhook is disabled")
		default:
			issues = append(issues, fmt.Sprintf("Invalid trigger %q (use always or never)", wh.Trigger))
		}

		if strings.HasPrefix(wh.Token, "$") {
			warnings = append(warnings, fmt.Sprintf("Token appears to be an unresolved env var: %s", wh.Token))
		}

		if len(issues) > 0 {
			result.Status = statusFail
			result.Message = fmt.Sprintf("%d configuration issue(s)", len(issues))
			result.Details = issues
		} else if len(warnings) > 0 {
			result.Status = statusWarn
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		} else {
			result.Status = statusOK
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout),
				}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}

		results = append(results, result)
	}

	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			if wh.URL == "" || wh.Trigger == config.WebhookTriggerNever {
				continue
			}
			result := checkWebhookConnectivity(wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", wh.DisplayName())
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = statusWarn
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = statusWarn
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	// Any response means the server is reachable
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = statusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = statusWarn
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may only accept POST (the real delivery may still work)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
