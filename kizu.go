package kizu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/ethereum-optimism/infra/kizu/launch"
	"github.com/ethereum-optimism/infra/kizu/logging"
	"github.com/ethereum-optimism/infra/kizu/reporting"
	"github.com/ethereum-optimism/infra/kizu/runner"
	"github.com/ethereum-optimism/infra/kizu/service"
	"github.com/ethereum-optimism/infra/kizu/types"
)

// kizu implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &kizu{}

// kizu runs every discovered spec file once, prints the results and decides
// the exit code.
type kizu struct {
	config  *Config
	version string

	launcher *launch.Selector
	reporter MetricsReporter
	service  *service.Service

	runID  string
	files  []string
	byFile types.TestResultsByFile
	final  types.FinalResults

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New validates the configuration and prepares a run. Spec files are
// discovered when the run starts.
func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*kizu, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if err := config.Check(); err != nil {
		return nil, err
	}
	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}

	config.Log.Debug("Creating kizu with config",
		"globs", config.Globs,
		"concurrency", config.Concurrency,
		"goBinary", config.GoBinary,
		"launchConfig", config.LaunchConfig,
		"logDir", config.LogDir,
		"failOnly", config.FailOnly)

	selector, err := launch.NewSelector(launch.Config{
		Log:        config.Log,
		GoBinary:   config.GoBinary,
		ConfigFile: config.LaunchConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create launcher: %w", err)
	}

	k := &kizu{
		config:           config,
		version:          version,
		launcher:         selector,
		reporter:         NewDefaultMetricsReporter(),
		shutdownCallback: shutdownCallback,
	}
	if config.MetricsConfig.Enabled {
		k.service = service.New(service.DefaultConfig(config.Log,
			config.MetricsConfig.ListenAddr, config.MetricsConfig.ListenPort))
	}
	return k, nil
}

// Start performs the run and returns once every worker has closed.
// Start implements the cliapp.Lifecycle interface.
func (k *kizu) Start(ctx context.Context) (err error) {
	k.running.Store(true)
	k.config.Log.Info("Starting kizu", "version", k.version)
	// Stop is not called when Start fails.
	defer func() {
		if err != nil {
			_ = k.Stop(ctx)
		}
	}()

	if k.service != nil {
		if err := k.service.Start(ctx); err != nil {
			return NewRuntimeError(err)
		}
	}

	if err := k.run(ctx); err != nil {
		return err
	}

	if reporting.ShouldExitWithError(k.final) {
		k.config.Log.Warn("Run completed with failures, returning exit code 1")
		return NewTestFailureError(fmt.Sprintf("%d/%d tests passed, %d file(s) without tests",
			k.final.NumSuccessfulTests, k.final.NumTests, len(k.final.FilesWithNoTests)))
	}

	k.config.Log.Info("Run completed, exiting")
	go func() {
		k.shutdownCallback(nil)
	}()
	return nil
}

func (k *kizu) run(ctx context.Context) (err error) {
	start := time.Now()
	k.runID = uuid.New().String()

	ctx, span := otel.Tracer("kizu").Start(ctx, "run")
	span.SetAttributes(attribute.String("run_id", k.runID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	files, err := DiscoverSpecFiles(k.config.Globs)
	if err != nil {
		return NewRuntimeError(err)
	}
	k.files = files
	k.config.Log.Info(fmt.Sprintf("Found %d spec files.", len(files)), "run_id", k.runID)

	var fileLogger *logging.FileLogger
	var output runner.OutputSink
	if k.config.LogDir != "" {
		fileLogger, err = logging.NewFileLogger(k.config.LogDir, k.runID)
		if err != nil {
			return NewRuntimeError(fmt.Errorf("failed to create file logger: %w", err))
		}
		output = fileLogger.WorkerOutput
		htmlSink, err := reporting.NewHTMLSink(fileLogger.GetDirectory(), k.runID)
		if err != nil {
			return NewRuntimeError(err)
		}
		fileLogger.AddSink(htmlSink)
		k.config.Log.Info("Writing run logs", "dir", fileLogger.GetDirectory())
	}

	progress := runner.NewNoOpProgressIndicator()
	if k.config.ShowProgress {
		progress = runner.NewConsoleProgressIndicator(k.config.Log, k.config.ProgressInterval)
	}

	pool, err := runner.NewPool(runner.PoolConfig{
		Log:         k.config.Log,
		Spawner:     runner.NewProcessSpawner(k.config.Log, nil, output),
		Launcher:    k.launcher,
		Concurrency: k.config.Concurrency,
		Progress:    progress,
	})
	if err != nil {
		return NewRuntimeError(err)
	}

	// A nil *FileLogger must not end up inside the interface.
	var sink RecordSink
	var summarySink SummarySink
	if fileLogger != nil {
		sink = fileLogger
		summarySink = fileLogger
	}

	byFile, err := NewDefaultTestExecutor(pool, sink, k.config.Log).RunFiles(ctx, files)
	if err != nil {
		if fileLogger != nil {
			_ = fileLogger.Complete(reporting.Aggregate(files, byFile), byFile)
		}
		return NewRuntimeError(err)
	}
	k.byFile = byFile
	k.final = reporting.Aggregate(files, byFile)

	formatter := NewConsoleResultFormatter(k.config.Log, k.out(), k.config, summarySink)
	if err := formatter.FormatResults(byFile, k.final); err != nil {
		k.config.Log.Warn("Failed to write summary log", "err", err)
	}
	if fileLogger != nil {
		if err := fileLogger.Complete(k.final, byFile); err != nil {
			k.config.Log.Warn("Failed to complete run logs", "err", err)
		}
	}

	duration := time.Since(start)
	k.reporter.ReportResults(k.runID, k.final, duration)
	span.SetAttributes(
		attribute.Int("files", len(files)),
		attribute.Int("tests", k.final.NumTests),
		attribute.Int("passed", k.final.NumSuccessfulTests),
	)
	k.config.Log.Info("Run finished", "run_id", k.runID, "duration", duration,
		"tests", k.final.NumTests, "passed", k.final.NumSuccessfulTests)
	return nil
}

func (k *kizu) out() io.Writer {
	if k.config.Out != nil {
		return k.config.Out
	}
	return os.Stdout
}

// Stop stops the metrics service, if any.
// Stop implements the cliapp.Lifecycle interface.
func (k *kizu) Stop(ctx context.Context) error {
	if !k.running.Load() {
		k.config.Log.Debug("Already stopped, nothing to do")
		return nil
	}
	k.running.Store(false)
	if k.service != nil {
		k.service.Shutdown()
	}
	k.config.Log.Debug("kizu stopped")
	return nil
}

// Stopped implements the cliapp.Lifecycle interface.
func (k *kizu) Stopped() bool {
	return !k.running.Load()
}

// Results returns the summary of the last run.
func (k *kizu) Results() types.FinalResults {
	return k.final
}

// ResultsByFile returns the records of the last run keyed by file.
func (k *kizu) ResultsByFile() types.TestResultsByFile {
	return k.byFile
}
