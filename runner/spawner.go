package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/kizu/launch"
	"github.com/ethereum-optimism/infra/kizu/types"
	"github.com/ethereum-optimism/infra/kizu/worker"
)

var _ Spawner = (*ProcessSpawner)(nil)

// OutputSink receives a copy of everything a worker writes to stdout and
// stderr. The returned writer is closed when the worker exits.
type OutputSink func(file string) (io.WriteCloser, error)

// ProcessSpawner starts every worker as a child process. The worker writes
// its records as JSON lines to a pipe it inherits as file descriptor 3.
type ProcessSpawner struct {
	log       log.Logger
	env       []string
	tailBytes int
	output    OutputSink
}

// NewProcessSpawner creates a spawner. Workers inherit the current
// environment plus env.
func NewProcessSpawner(logger log.Logger, env []string, output OutputSink) *ProcessSpawner {
	return &ProcessSpawner{
		log:       logger.New("component", "spawner"),
		env:       env,
		tailBytes: defaultOutputTailBytes,
		output:    output,
	}
}

// Spawn starts the worker and returns once it is running.
func (s *ProcessSpawner) Spawn(ctx context.Context, file string, spec launch.Spec, emit func(Event)) error {
	if spec.Command == "" {
		return fmt.Errorf("no command to launch %s", file)
	}

	r, w, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create result pipe: %w", err)
	}

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), s.env...)
	cmd.Env = append(cmd.Env, spec.Env...)
	cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%d", worker.IPCEnvVar, ipcChildFD))
	cmd.ExtraFiles = []*os.File{w}
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	tail := newTailBuffer(s.tailBytes)
	var out io.Writer = tail
	var sink io.WriteCloser
	if s.output != nil {
		sink, err = s.output(file)
		if err != nil {
			s.log.Warn("Failed to open worker output log", "file", file, "err", err)
		} else {
			out = io.MultiWriter(tail, sink)
		}
	}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		closeSink(sink)
		return err
	}
	// The child holds its own copy of the write end; ours must be closed so
	// that the reader sees EOF when the child exits.
	_ = w.Close()

	go s.watch(ctx, file, cmd, r, tail, sink, emit)
	return nil
}

// watch turns the worker's pipe into events and emits Close after the
// process has exited.
func (s *ProcessSpawner) watch(ctx context.Context, file string, cmd *exec.Cmd, r io.ReadCloser,
	tail *tailBuffer, sink io.WriteCloser, emit func(Event)) {

	readErr := readRecords(r, emit)
	_ = r.Close()
	if readErr != nil && ctx.Err() == nil {
		emit(ErrorEvent(fmt.Errorf("failed to read results: %w", readErr)))
	}

	waitErr := cmd.Wait()
	closeSink(sink)

	switch {
	case ctx.Err() != nil, readErr != nil:
		// Stopped by the pool, or already reported.
	case waitErr != nil:
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			emit(ErrorEvent(waitErr))
			break
		}
		// A non-zero exit is only a symptom: the file's tests are judged
		// by the records it sent.
		s.log.Warn("Worker exited with an error", "file", file, "code", exitErr.ExitCode(),
			"outputBytes", tail.TotalBytes(), "truncated", tail.Truncated(),
			"output", lastLines(stripansi.Strip(string(tail.Bytes())), 20))
	}
	emit(CloseEvent())
}

// readRecords emits one message event per JSON line until EOF.
func readRecords(r io.Reader, emit func(Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var results types.TestResults
		if err := json.Unmarshal(line, &results); err != nil {
			return fmt.Errorf("malformed result record: %w", err)
		}
		emit(MessageEvent(results))
	}
	return scanner.Err()
}

func closeSink(sink io.WriteCloser) {
	if sink != nil {
		_ = sink.Close()
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
