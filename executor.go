package kizu

import (
	"context"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/kizu/runner"
	"github.com/ethereum-optimism/infra/kizu/types"
)

// TestExecutor runs spec files and collects what their workers report.
type TestExecutor interface {
	RunFiles(ctx context.Context, files []string) (types.TestResultsByFile, error)
}

// RecordSink receives every record as the pool delivers it.
type RecordSink interface {
	LogTestResult(file string, results types.TestResults) error
}

// DefaultTestExecutor implements the TestExecutor interface on top of a
// worker pool.
type DefaultTestExecutor struct {
	pool   *runner.Pool
	sink   RecordSink
	logger log.Logger
}

// NewDefaultTestExecutor creates a new DefaultTestExecutor. sink may be nil.
func NewDefaultTestExecutor(pool *runner.Pool, sink RecordSink, logger log.Logger) *DefaultTestExecutor {
	return &DefaultTestExecutor{
		pool:   pool,
		sink:   sink,
		logger: logger,
	}
}

// RunFiles schedules every file and returns the results keyed by file. On
// error the results received so far are returned alongside it.
func (e *DefaultTestExecutor) RunFiles(ctx context.Context, files []string) (types.TestResultsByFile, error) {
	e.logger.Info("Running spec files...", "files", len(files), "concurrency", e.pool.Concurrency())
	byFile := make(types.TestResultsByFile)
	err := e.pool.Schedule(ctx, files, func(file string, results types.TestResults) {
		byFile.Add(file, results)
		if e.sink == nil {
			return
		}
		if err := e.sink.LogTestResult(file, results); err != nil {
			e.logger.Warn("Failed to log test result", "file", file, "test", results.Description, "err", err)
		}
	})
	if err != nil {
		e.logger.Error("Error running spec files", "err", err)
		return byFile, err
	}
	e.logger.Info("Spec files completed", "files", len(byFile))
	return byFile, nil
}
