// Package metrics records statement timings and table row counts.
//
// The Prometheus recorder keeps its own registry and, since the CLI is a
// short-lived batch process, pushes it to a Pushgateway at the end of a
// run instead of exposing a scrape endpoint.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// PrometheusRecorder implements dwh.MetricsRecorder with client_golang.
type PrometheusRecorder struct {
	registry   *prometheus.Registry
	job        string
	gatewayURL string
	runID      string

	statementDuration *prometheus.HistogramVec
	statementsTotal   *prometheus.CounterVec
	tableRows         *prometheus.GaugeVec
}

// NewPrometheusRecorder creates a recorder. Flush pushes to gatewayURL
// under job, grouped by runID; with an empty gatewayURL Flush is a no-op.
func NewPrometheusRecorder(job, gatewayURL, runID string) *PrometheusRecorder {
	if job == "" {
		job = dwh.DefaultMetricsJob
	}

	r := &PrometheusRecorder{
		registry:   prometheus.NewRegistry(),
		job:        job,
		gatewayURL: gatewayURL,
		runID:      runID,
		statementDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "sparkify_statement_duration_seconds",
			Help: "Duration of warehouse statements.",
			// COPY and INSERT on a cluster run for minutes.
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"sequence", "kind", "statement", "status"}),
		statementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkify_statements_total",
			Help: "Total warehouse statements executed by sequence, kind and status.",
		}, []string{"sequence", "kind", "status"}),
		tableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sparkify_table_rows",
			Help: "Row count per table from the last analyze run.",
		}, []string{"table"}),
	}

	r.registry.MustRegister(r.statementDuration, r.statementsTotal, r.tableRows)
	return r
}

// ObserveStatement records one executed statement.
func (r *PrometheusRecorder) ObserveStatement(sequence string, stmt dwh.Statement, elapsed time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	kind := stmt.Kind.String()
	r.statementDuration.WithLabelValues(sequence, kind, stmt.Name, status).Observe(elapsed.Seconds())
	r.statementsTotal.WithLabelValues(sequence, kind, status).Inc()
}

// SetTableRows records the row count of table.
func (r *PrometheusRecorder) SetTableRows(table string, rows int64) {
	r.tableRows.WithLabelValues(table).Set(float64(rows))
}

// Flush pushes the registry to the Pushgateway, replacing the metrics of
// the previous push for the same job and run.
func (r *PrometheusRecorder) Flush(ctx context.Context) error {
	if r.gatewayURL == "" {
		return nil
	}

	pusher := push.New(r.gatewayURL, r.job).Gatherer(r.registry)
	if r.runID != "" {
		pusher = pusher.Grouping("run_id", r.runID)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", r.gatewayURL, err)
	}
	return nil
}

var _ dwh.MetricsRecorder = (*PrometheusRecorder)(nil)

// NullRecorder discards all metrics.
type NullRecorder struct{}

// NewNullRecorder creates a NullRecorder.
func NewNullRecorder() *NullRecorder {
	return &NullRecorder{}
}

func (NullRecorder) ObserveStatement(string, dwh.Statement, time.Duration, error) {}
func (NullRecorder) SetTableRows(string, int64)                                   {}
func (NullRecorder) Flush(context.Context) error                                  { return nil }

var _ dwh.MetricsRecorder = (*NullRecorder)(nil)
