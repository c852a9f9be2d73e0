// Package runner runs spec files in parallel, one OS process per file.
//
// The main components are:
//   - Pool: schedules files onto at most Concurrency live workers and streams
//     their results to a callback
//   - scheduler: the queue, active set and cap the pool fills slots from
//   - Spawner: the capability that starts a worker and reports its events;
//     ProcessSpawner is the os/exec implementation
//   - ProgressIndicator: observes workers starting, reporting and closing
//
// Scheduling runs on a single goroutine driven by worker events, so the
// result store and the live-worker count are never mutated concurrently.
package runner
