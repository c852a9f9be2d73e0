package metrics

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "kizu"
)

const (
	ResultPass = "pass"
	ResultFail = "fail"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	workersLive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "workers_live",
		Help:      "Number of worker processes currently running",
	})

	workersStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "workers_started_total",
		Help:      "Count of worker processes started",
	})

	emptyFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "empty_files_total",
		Help:      "Count of spec files whose worker closed without reporting a test",
	})

	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "tests_total",
		Help:      "Count of completed tests",
	}, []string{
		"result",
	})

	assertionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "assertions_total",
		Help:      "Count of recorded assertions",
	}, []string{
		"result",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of a run",
	}, []string{
		"run_id",
		"result",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of a run",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordWorkerStarted(live int) {
	workersStartedTotal.Inc()
	workersLive.Set(float64(live))
}

func RecordWorkerClosed(live int, reportedTests int) {
	workersLive.Set(float64(live))
	if reportedTests == 0 {
		emptyFilesTotal.Inc()
	}
}

// RecordTest counts a completed test and its assertions.
func RecordTest(passed bool, assertions int, passedAssertions int) {
	testsTotal.WithLabelValues(resultLabel(passed)).Inc()
	assertionsTotal.WithLabelValues(ResultPass).Add(float64(passedAssertions))
	assertionsTotal.WithLabelValues(ResultFail).Add(float64(assertions - passedAssertions))
}

func RecordRun(runID string, passed bool, duration time.Duration) {
	if Debug {
		log.Debug("metric set",
			"m", "run_results",
			"run_id", runID,
			"result", resultLabel(passed),
		)
	}
	runResults.WithLabelValues(runID, resultLabel(passed)).Set(1)
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func resultLabel(passed bool) string {
	if passed {
		return ResultPass
	}
	return ResultFail
}
