// Package config provides configuration loading and validation for schedcompare.
package config

import (
	"time"

	"github.com/ccollicutt/schedcompare/pkg/parser"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// TotalExecutionTime is the observation window shared by both traces.
	TotalExecutionTime int `yaml:"total_execution_time"`

	// Schedulers lists the two traces to compare, rate-monotonic first.
	Schedulers []SchedulerConfig `yaml:"schedulers"`

	// Markers overrides the substrings that classify trace lines.
	Markers parser.Markers `yaml:"markers"`

	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// SchedulerConfig names one comparison arm and its trace file.
type SchedulerConfig struct {
	Name  string `yaml:"name"`
	Trace string `yaml:"trace"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerAlways fires after every successful comparison (default).
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending comparison reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "always" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// DisplayName returns the webhook name, falling back to its URL.
func (w WebhookConfig) DisplayName() string {
	if w.Name != "" {
		return w.Name
	}
	return w.URL
}
