package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
		},
		{
			name: "error with special chars",
			err:  errors.New("test@error#123"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("test   error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			validLabelRegex := regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
			assert.Regexp(t, validLabelRegex, result)
		})
	}
}

func TestRecordErrorDetails(t *testing.T) {
	before := testutil.ToFloat64(errorsTotal.WithLabelValues("spawn.no_such_file"))
	RecordErrorDetails("spawn", nil)
	RecordErrorDetails("spawn", errors.New("no such file"))
	assert.Equal(t, before+1, testutil.ToFloat64(errorsTotal.WithLabelValues("spawn.no_such_file")))
}

func TestRecordWorkers(t *testing.T) {
	startedBefore := testutil.ToFloat64(workersStartedTotal)
	emptyBefore := testutil.ToFloat64(emptyFilesTotal)

	RecordWorkerStarted(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(workersLive))
	assert.Equal(t, startedBefore+1, testutil.ToFloat64(workersStartedTotal))

	RecordWorkerClosed(1, 3)
	RecordWorkerClosed(0, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(workersLive))
	assert.Equal(t, emptyBefore+1, testutil.ToFloat64(emptyFilesTotal))
}

func TestRecordTest(t *testing.T) {
	passBefore := testutil.ToFloat64(assertionsTotal.WithLabelValues(ResultPass))
	failBefore := testutil.ToFloat64(assertionsTotal.WithLabelValues(ResultFail))

	RecordTest(false, 3, 2)
	assert.Equal(t, passBefore+2, testutil.ToFloat64(assertionsTotal.WithLabelValues(ResultPass)))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(assertionsTotal.WithLabelValues(ResultFail)))
}

func TestRecordRun(t *testing.T) {
	RecordRun("run1", true, time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(runResults.WithLabelValues("run1", ResultPass)))
	assert.Equal(t, 1.0, testutil.ToFloat64(runDuration.WithLabelValues("run1")))
}
