package kizu

import (
	"time"

	"github.com/ethereum-optimism/infra/kizu/metrics"
	"github.com/ethereum-optimism/infra/kizu/reporting"
	"github.com/ethereum-optimism/infra/kizu/types"
)

// MetricsReporter is responsible for reporting metrics from a finished run.
type MetricsReporter interface {
	ReportResults(runID string, final types.FinalResults, duration time.Duration)
}

// DefaultMetricsReporter implements the MetricsReporter interface.
type DefaultMetricsReporter struct{}

// NewDefaultMetricsReporter creates a new DefaultMetricsReporter.
func NewDefaultMetricsReporter() *DefaultMetricsReporter {
	return &DefaultMetricsReporter{}
}

// ReportResults records the outcome and duration of the run.
func (r *DefaultMetricsReporter) ReportResults(runID string, final types.FinalResults, duration time.Duration) {
	metrics.RecordRun(runID, !reporting.ShouldExitWithError(final), duration)
}
