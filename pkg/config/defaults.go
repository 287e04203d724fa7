package config

import (
	"os"
	"strconv"
	"time"

	"github.com/ccollicutt/schedcompare/pkg/metrics"
	"github.com/ccollicutt/schedcompare/pkg/parser"
)

// Default values for configuration.
const (
	DefaultRateMonotonicName = "Rate Monotonic Scheduling"
	DefaultStandardName      = "Standard Scheduling"
	DefaultRateMonotonicPath = "outputs/output_RM.txt"
	DefaultStandardPath      = "outputs/output_freertos.txt"
	DefaultWebhookTimeout    = 10 * time.Second
)

// Environment variable names.
const (
	EnvTotalExecutionTime = "SCHEDCOMPARE_TOTAL_EXECUTION_TIME"
	EnvLogLevel           = "SCHEDCOMPARE_LOG_LEVEL"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TotalExecutionTime: metrics.DefaultTotalExecutionTime,
		Schedulers: []SchedulerConfig{
			{Name: DefaultRateMonotonicName, Trace: DefaultRateMonotonicPath},
			{Name: DefaultStandardName, Trace: DefaultStandardPath},
		},
		Markers: parser.DefaultMarkers(),
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() error {
	if v := os.Getenv(EnvTotalExecutionTime); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.TotalExecutionTime = n
	}
	return nil
}
