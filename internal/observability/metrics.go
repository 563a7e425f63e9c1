// Package observability holds the domain metrics and the tracer setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PromptsServed counts prompts handed out by the provider, by source.
	PromptsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dailybright_prompts_served_total",
		Help: "Prompts returned by the prompt provider, by source",
	}, []string{"source"})

	// PromptGenerationFailures counts generator calls that fell back to the catalog.
	PromptGenerationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dailybright_prompt_generation_failures_total",
		Help: "Text generation attempts that fell back to the catalog, by reason",
	}, []string{"reason"})

	// DailyStatesCreated counts newly assigned (user, date) states.
	DailyStatesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dailybright_daily_states_created_total",
		Help: "Daily states created for users",
	})

	// DailyStatesDegraded counts in-memory stand-ins returned after a store failure.
	DailyStatesDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dailybright_daily_states_degraded_total",
		Help: "Daily state resolutions that fell back to the degraded stand-in",
	})

	// EntriesRecorded counts entry submissions by outcome (created, updated).
	EntriesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dailybright_entries_recorded_total",
		Help: "Entry submissions by outcome",
	}, []string{"outcome"})

	// RemindersSent counts reminder events published by the scheduler.
	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dailybright_reminders_sent_total",
		Help: "Daily prompt reminders published",
	})

	// SchedulerJobRuns counts cron job executions by job and result.
	SchedulerJobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dailybright_scheduler_job_runs_total",
		Help: "Scheduled job executions by job and result",
	}, []string{"job", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dailybright_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
