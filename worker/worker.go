// Package worker runs inside each spec-file process. A spec file is a Go
// program whose main function declares its tests:
//
//	func main() {
//		worker.Test("greets by name", func(a *assertions.Assert) {
//			a.Equal(greet("Bob"), map[string]string{"greet": "hello", "noun": "Bob"})
//		})
//	}
//
// Each test body runs immediately. When it returns, exactly one
// types.TestResults record is sent to the control process.
package worker

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/kizu/assertions"
	"github.com/ethereum-optimism/infra/kizu/types"
)

// Runner executes test bodies and reports their results.
type Runner struct {
	ch  *Channel
	log log.Logger
}

// NewRunner creates a Runner that reports over ch.
func NewRunner(ch *Channel, logger log.Logger) *Runner {
	return &Runner{
		ch:  ch,
		log: logger,
	}
}

// Test runs body and sends its results. A panic escaping body is recorded
// as the test's error; it neither stops the process nor affects the other
// tests of the file.
func (r *Runner) Test(description string, body func(a *assertions.Assert)) types.TestResults {
	a := assertions.New()
	err := run(body, a)

	results := types.TestResults{
		Description: description,
		Assertions:  a.Assertions(),
		Error:       err,
	}
	if results.Assertions == nil {
		results.Assertions = []types.Assertion{}
	}

	if sendErr := r.ch.Send(results); sendErr != nil {
		r.log.Error("Failed to report test results", "test", description, "err", sendErr)
	}
	return results
}

func run(body func(a *assertions.Assert), a *assertions.Assert) (serialized *types.SerializedError) {
	defer func() {
		if rec := recover(); rec != nil {
			serialized = types.FromPanic(rec, debug.Stack())
		}
	}()
	if body == nil {
		panic(&assertions.PreconditionError{Op: "Test", Err: fmt.Errorf("test body must not be nil")})
	}
	body(a)
	return nil
}

var defaultRunner = sync.OnceValue(func() *Runner {
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, log.LevelWarn, false))
	ch, err := OpenChannel()
	if err != nil {
		logger.Crit("Failed to open result channel", "err", err)
	}
	return NewRunner(ch, logger)
})

// Test runs a test in the current spec-file process and reports it to the
// control process.
func Test(description string, body func(a *assertions.Assert)) {
	defaultRunner().Test(description, body)
}
