package runner

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/kizu/types"
)

// EventKind identifies what happened to a worker.
type EventKind int

const (
	// EventMessage carries one TestResults record.
	EventMessage EventKind = iota
	// EventClose is the last event of every worker.
	EventClose
	// EventError reports a worker-level runtime failure.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventClose:
		return "close"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is something a worker reported. File is filled in by the pool.
type Event struct {
	File    string
	Kind    EventKind
	Results types.TestResults
	Err     error
}

func MessageEvent(results types.TestResults) Event {
	return Event{Kind: EventMessage, Results: results}
}

func CloseEvent() Event {
	return Event{Kind: EventClose}
}

func ErrorEvent(err error) Event {
	return Event{Kind: EventError, Err: err}
}

// SpawnError is returned when a worker process could not be started. It
// aborts the run.
type SpawnError struct {
	File string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to create worker for %s: %v", e.File, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *SpawnError) Unwrap() error {
	return e.Err
}

// WorkerError is returned when a running worker reported a runtime error.
// It aborts the run and stops every other live worker.
type WorkerError struct {
	File string
	Err  error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker for %s failed: %v", e.File, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *WorkerError) Unwrap() error {
	return e.Err
}

// IsSpawnError checks if the error is or wraps a SpawnError
func IsSpawnError(err error) bool {
	var spawnErr *SpawnError
	return err != nil && errors.As(err, &spawnErr)
}

// IsWorkerError checks if the error is or wraps a WorkerError
func IsWorkerError(err error) bool {
	var workerErr *WorkerError
	return err != nil && errors.As(err, &workerErr)
}
