package runner

import (
	"context"
	"fmt"
	"runtime"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/kizu/launch"
	"github.com/ethereum-optimism/infra/kizu/metrics"
	"github.com/ethereum-optimism/infra/kizu/types"
)

// Spawner starts the worker for a spec file. Spawn must not block until
// the worker exits: it reports the worker's messages, runtime errors and
// final close through emit, from any goroutine. Close must be the last
// event emitted for a spawned worker. An error return means no worker was
// started and no events will follow.
type Spawner interface {
	Spawn(ctx context.Context, file string, spec launch.Spec, emit func(Event)) error
}

// Launcher decides how a spec file is launched.
type Launcher interface {
	Select(file string) (launch.Spec, error)
}

// ResultHandler receives every record in arrival order.
type ResultHandler func(file string, results types.TestResults)

// PoolConfig holds the collaborators of a Pool.
type PoolConfig struct {
	Log      log.Logger
	Spawner  Spawner
	Launcher Launcher
	// Concurrency caps live workers. Zero means one per CPU.
	Concurrency int
	Progress    ProgressIndicator
}

// Pool runs spec files in worker processes, at most Concurrency at a time.
type Pool struct {
	log         log.Logger
	spawner     Spawner
	launcher    Launcher
	concurrency int
	progress    ProgressIndicator
	tracer      trace.Tracer
}

// NewPool creates a pool. The concurrency cap is fixed here.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.Spawner == nil {
		return nil, fmt.Errorf("spawner cannot be nil")
	}
	if cfg.Launcher == nil {
		return nil, fmt.Errorf("launcher cannot be nil")
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency cannot be negative")
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.Root()
	}
	concurrency := cfg.Concurrency
	if concurrency == 0 {
		concurrency = runtime.NumCPU()
	}
	if concurrency > MaxReasonableConcurrency {
		logger.Warn("Very high concurrency requested", "concurrency", concurrency,
			"recommendation", "Consider using lower values to avoid resource exhaustion")
	}
	progress := cfg.Progress
	if progress == nil {
		progress = NewNoOpProgressIndicator()
	}
	return &Pool{
		log:         logger.New("component", "pool"),
		spawner:     cfg.Spawner,
		launcher:    cfg.Launcher,
		concurrency: concurrency,
		progress:    progress,
		tracer:      otel.Tracer("kizu pool"),
	}, nil
}

// Concurrency returns the cap on live workers.
func (p *Pool) Concurrency() int {
	return p.concurrency
}

// Schedule runs every file and blocks until all workers have closed. Files
// are started in order; each closing worker frees a slot for the next one.
// Records are passed to onResult as they arrive.
//
// A SpawnError or WorkerError aborts the run: the remaining live workers
// are stopped through their context and the error is returned. Cancelling
// ctx aborts the run the same way.
func (p *Pool) Schedule(ctx context.Context, files []string, onResult ResultHandler) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	files = uniqueFiles(files)
	ctx, span := p.tracer.Start(ctx, "schedule", trace.WithAttributes(
		attribute.Int("files", len(files)),
		attribute.Int("concurrency", p.concurrency),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	p.progress.StartRun(len(files), p.concurrency)
	defer p.progress.CompleteRun()

	r := &poolRun{
		pool:     p,
		ctx:      ctx,
		sched:    newScheduler(files, p.concurrency),
		mailbox:  newMailbox(),
		onResult: onResult,
		reported: make(map[string]int),
		spans:    make(map[string]trace.Span),
	}
	defer r.endSpans()

	if err := r.fill(); err != nil {
		return err
	}
	for !r.sched.done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.mailbox.notify:
		}
		for _, ev := range r.mailbox.drain() {
			if err := r.handle(ev); err != nil {
				return err
			}
		}
	}
	p.log.Debug("All workers closed", "files", len(files))
	return nil
}

// poolRun is the state of one Schedule call. It is only touched from the
// goroutine running Schedule.
type poolRun struct {
	pool     *Pool
	ctx      context.Context
	sched    *scheduler
	mailbox  *mailbox
	onResult ResultHandler
	reported map[string]int
	spans    map[string]trace.Span
}

// fill starts workers until the cap is reached or the queue is empty.
func (r *poolRun) fill() error {
	for {
		file, ok := r.sched.next()
		if !ok {
			return nil
		}
		if err := r.start(file); err != nil {
			r.pool.log.Error("Failed to create worker", "file", file, "err", err)
			metrics.RecordErrorDetails("spawn", err)
			return &SpawnError{File: file, Err: err}
		}
	}
}

func (r *poolRun) start(file string) error {
	spec, err := r.pool.launcher.Select(file)
	if err != nil {
		return err
	}

	ctx, span := r.pool.tracer.Start(r.ctx, fmt.Sprintf("worker %s", file))
	r.spans[file] = span

	live := r.sched.live()
	r.pool.log.Debug("Starting worker", "file", file, "command", spec.Command, "args", spec.Args, "live", live)
	emit := func(ev Event) {
		ev.File = file
		r.mailbox.put(ev)
	}
	if err := r.pool.spawner.Spawn(ctx, file, spec, emit); err != nil {
		return err
	}
	r.pool.progress.WorkerStarted(file, live)
	metrics.RecordWorkerStarted(live)
	return nil
}

func (r *poolRun) handle(ev Event) error {
	switch ev.Kind {
	case EventMessage:
		if !r.sched.isActive(ev.File) {
			r.pool.log.Warn("Dropping message from closed worker", "file", ev.File)
			return nil
		}
		r.reported[ev.File]++
		if r.onResult != nil {
			r.onResult(ev.File, ev.Results)
		}
		r.pool.progress.ResultReceived(ev.File, ev.Results)
		metrics.RecordTest(ev.Results.IsPassing(), len(ev.Results.Assertions), ev.Results.NumPassedAssertions())
		return nil

	case EventError:
		r.pool.log.Error("Worker failed", "file", ev.File, "err", ev.Err)
		metrics.RecordErrorDetails("worker", ev.Err)
		if span, ok := r.spans[ev.File]; ok {
			span.RecordError(ev.Err)
			span.SetStatus(codes.Error, ev.Err.Error())
		}
		return &WorkerError{File: ev.File, Err: ev.Err}

	case EventClose:
		if !r.sched.release(ev.File) {
			return nil
		}
		live := r.sched.live()
		reported := r.reported[ev.File]
		if reported == 0 {
			r.pool.log.Warn("Worker closed without reporting any tests", "file", ev.File)
		}
		if span, ok := r.spans[ev.File]; ok {
			span.SetAttributes(attribute.Int("tests", reported))
			span.End()
			delete(r.spans, ev.File)
		}
		r.pool.progress.WorkerClosed(ev.File, live)
		metrics.RecordWorkerClosed(live, reported)
		return r.fill()
	}
	return nil
}

func (r *poolRun) endSpans() {
	for file, span := range r.spans {
		span.End()
		delete(r.spans, file)
	}
}

// uniqueFiles drops repeated paths, keeping the first occurrence.
func uniqueFiles(files []string) []string {
	seen := mapset.NewThreadUnsafeSetWithSize[string](len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if seen.Add(f) {
			out = append(out, f)
		}
	}
	return out
}
