// Package metrics holds the Prometheus collectors recorded by hostkit.
//
// Collectors live on a private Registry rather than the global default so a
// one-shot CLI run can dump exactly what it did with WriteTextfile, in the
// format the node-exporter textfile collector expects.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result labels shared by the collectors below.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
	ResultDryRun  = "dry_run"
	ResultTimeout = "timeout"
)

// Registry is the registry every hostkit collector is registered with.
var Registry = prometheus.NewRegistry()

var (
	// Executor metrics
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostkit",
			Subsystem: "executor",
			Name:      "commands_total",
			Help:      "Total number of executed commands by program and result",
		},
		[]string{"program", "result"},
	)

	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hostkit",
			Subsystem: "executor",
			Name:      "command_duration_seconds",
			Help:      "Wall-clock duration of executed commands in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		},
		[]string{"program"},
	)

	// Lifecycle metrics
	waitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostkit",
			Subsystem: "lifecycle",
			Name:      "waits_total",
			Help:      "Total number of lifecycle waits by target state and result",
		},
		[]string{"target", "result"},
	)

	cleanupFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hostkit",
			Subsystem: "lifecycle",
			Name:      "cleanup_failures_total",
			Help:      "Total number of swallowed failures during best-effort cleanup",
		},
	)

	// Allocator metrics
	portSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostkit",
			Subsystem: "allocator",
			Name:      "port_searches_total",
			Help:      "Total number of port searches by result",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		commandsTotal,
		commandDuration,
		waitsTotal,
		cleanupFailuresTotal,
		portSearchesTotal,
	)
}

// RecordCommand records one command execution.
// Dry runs are counted but contribute no duration sample.
func RecordCommand(program, result string, seconds float64) {
	commandsTotal.WithLabelValues(program, result).Inc()
	if result != ResultDryRun {
		commandDuration.WithLabelValues(program).Observe(seconds)
	}
}

// RecordWait records the outcome of a lifecycle wait.
func RecordWait(target, result string) {
	waitsTotal.WithLabelValues(target, result).Inc()
}

// RecordCleanupFailures adds n swallowed cleanup failures.
func RecordCleanupFailures(n int) {
	if n > 0 {
		cleanupFailuresTotal.Add(float64(n))
	}
}

// RecordPortSearch records the outcome of a port search.
func RecordPortSearch(result string) {
	portSearchesTotal.WithLabelValues(result).Inc()
}

// WriteTextfile writes every collected metric to path in the Prometheus text
// exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
