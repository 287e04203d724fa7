package output

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const promNamespace = "schedcompare"

// PrometheusFormatter renders the report in the Prometheus text exposition
// format, one gauge family per metric labelled by scheduler. The output can
// be dropped into a node_exporter textfile directory.
type PrometheusFormatter struct {
	opts FormatOptions
}

// NewPrometheusFormatter creates a new Prometheus formatter.
func NewPrometheusFormatter(opts FormatOptions) *PrometheusFormatter {
	return &PrometheusFormatter{opts: opts}
}

// Name returns the format name.
func (f *PrometheusFormatter) Name() string {
	return "prometheus"
}

// Format writes every scheduler's metrics as gauges.
func (f *PrometheusFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	return f.FormatResults(report.Schedulers, w)
}

// FormatResults writes gauges for any number of scheduler results.
func (f *PrometheusFormatter) FormatResults(results []SchedulerResult, w io.Writer) error {
	reg, err := f.registry(results)
	if err != nil {
		return err
	}

	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func (f *PrometheusFormatter) registry(results []SchedulerResult) (*prometheus.Registry, error) {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: promNamespace,
			Name:      name,
			Help:      help,
		}, []string{"scheduler"})
	}

	total := gauge("total_execution_time", "Observation window used to normalise idle time.")
	idlePct := gauge("idle_percentage", "Idle events as a percentage of the observation window.")
	idleEvents := gauge("idle_events", "Idle events after collapsing adjacent repeats.")
	switches := gauge("context_switches", "Task-running lines seen in the trace.")
	lastFinish := gauge("last_finish_time", "Largest task finish timestamp in the trace.")
	finishes := gauge("task_finishes", "Task finish lines seen in the trace.")

	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{total, idlePct, idleEvents, switches, lastFinish, finishes} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	for _, s := range results {
		m := s.Metrics
		total.WithLabelValues(s.Name).Set(float64(m.TotalExecutionTime))
		idlePct.WithLabelValues(s.Name).Set(m.IdlePercentage)
		idleEvents.WithLabelValues(s.Name).Set(float64(m.IdleCount))
		switches.WithLabelValues(s.Name).Set(float64(m.ContextSwitchCount))
		lastFinish.WithLabelValues(s.Name).Set(float64(m.LastFinishTime))
		finishes.WithLabelValues(s.Name).Set(float64(len(m.TaskFinishTimestamps)))
	}

	return reg, nil
}
