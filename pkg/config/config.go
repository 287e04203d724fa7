package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/schedcompare/pkg/parser"
)

// RequiredSchedulers is the number of traces a comparison needs.
const RequiredSchedulers = 2

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveTraces makes relative trace paths relative to baseDir, normally
// the directory holding the configuration file.
func (c *Config) ResolveTraces(baseDir string) {
	for i, s := range c.Schedulers {
		if s.Trace != "" && !filepath.IsAbs(s.Trace) {
			c.Schedulers[i].Trace = filepath.Join(baseDir, s.Trace)
		}
	}
}

// Parse decodes YAML configuration over the defaults, applies environment
// overrides and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	// yaml.v3 replaces slices and merges structs, so a partial markers
	// block keeps the remaining defaults.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvTotalExecutionTime, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and fills in webhook defaults.
func Validate(cfg *Config) error {
	if cfg.TotalExecutionTime < 0 {
		return fmt.Errorf("total_execution_time: must be >= 0, got %d", cfg.TotalExecutionTime)
	}

	if len(cfg.Schedulers) != RequiredSchedulers {
		return fmt.Errorf("schedulers: exactly %d schedulers are required, got %d",
			RequiredSchedulers, len(cfg.Schedulers))
	}

	seen := make(map[string]bool)
	for i, s := range cfg.Schedulers {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("schedulers[%d]: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("schedulers[%d] (%s): duplicate name", i, s.Name)
		}
		seen[s.Name] = true

		if s.Trace == "" {
			return fmt.Errorf("schedulers[%d] (%s): trace is required", i, s.Name)
		}
	}

	if err := validateMarkers(cfg.Markers); err != nil {
		return fmt.Errorf("markers: %w", err)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			return fmt.Errorf("webhooks[%d] (%s): %w", i, cfg.Webhooks[i].DisplayName(), err)
		}
	}

	return nil
}

func validateMarkers(m parser.Markers) error {
	required := []struct {
		field, value string
	}{
		{"idle", m.Idle},
		{"finish", m.Finish},
		{"running", m.Running},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s marker must not be empty", r.field)
		}
	}

	if m.Idle == m.Finish || m.Idle == m.Running || m.Finish == m.Running {
		return errors.New("idle, finish and running markers must differ")
	}

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	// Validate URL format
	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerAlways
	case WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be always or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	// Handle ${VAR} format
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}

	// Handle $VAR format (no braces)
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		varName := s[1:]
		return os.Getenv(varName)
	}

	return s
}
