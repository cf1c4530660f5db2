// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for command execution metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusNoop    = "noop"
)

// CommandExecutions is the counter for executed document commands.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandExecutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sceneforge_commands_total",
		Help: "Total number of executed document commands",
	},
	[]string{"command", "status"},
)

// CommandDuration is the histogram for command execution duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "sceneforge_command_duration_seconds",
		Help:    "Document command execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command"},
)

// UndoDepth is the gauge tracking the current undo stack position.
// Use RegisterMetrics to register this with a Prometheus registry.
var UndoDepth = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "sceneforge_undo_depth",
		Help: "Current position in the undo stack",
	},
)

// RegisterMetrics registers command package metrics with the given
// Prometheus registry. Panics if registration fails (following prometheus
// convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CommandExecutions)
	reg.MustRegister(CommandDuration)
	reg.MustRegister(UndoDepth)
}

// RecordCommandExecution increments the command counter.
// Parameters:
//   - command: the command name that was executed
//   - status: execution result (use Status* constants)
func RecordCommandExecution(command, status string) {
	CommandExecutions.WithLabelValues(command, status).Inc()
}

// RecordCommandDuration records how long a command took to execute.
func RecordCommandDuration(command string, duration time.Duration) {
	CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}
