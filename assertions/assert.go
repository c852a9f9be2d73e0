// Package assertions records the outcome of every check a test body makes.
//
// An Assert is handed to each test body. Every method appends exactly one
// types.Assertion, in call order, and never stops the test: a failing check
// is recorded and execution continues. Misuse of the API (for example
// passing a non-error to IsError) panics with a *PreconditionError instead
// of being recorded.
package assertions

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/ethereum-optimism/infra/kizu/expect"
	"github.com/ethereum-optimism/infra/kizu/types"
)

// Default descriptions used when a check is given none.
const (
	PassDescription             = "pass()"
	FailDescription             = "fail()"
	IsTrueDescription           = "isTrue()"
	IsFalseDescription          = "isFalse()"
	EqualDescription            = "equal()"
	ErrorsEquivalentDescription = "errorsEquivalent()"
	ThrowsDescription           = "throws()"
)

// Assert accumulates the assertions of a single test.
type Assert struct {
	mu         sync.Mutex
	assertions []types.Assertion
}

// New creates an empty Assert.
func New() *Assert {
	return &Assert{}
}

// Assertions returns a copy of everything recorded so far.
func (a *Assert) Assertions() []types.Assertion {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.Assertion, len(a.assertions))
	copy(out, a.assertions)
	return out
}

// Pass records a passing assertion.
func (a *Assert) Pass(description ...string) {
	a.record(types.Assertion{Pass: true, Description: describe(PassDescription, description)})
}

// Fail records a failing assertion.
func (a *Assert) Fail(description ...string) {
	a.record(types.Assertion{Pass: false, Description: describe(FailDescription, description)})
}

// IsTrue records whether condition holds.
func (a *Assert) IsTrue(condition bool, description ...string) {
	a.record(types.Assertion{Pass: condition, Description: describe(IsTrueDescription, description)})
}

// IsFalse records whether condition does not hold.
func (a *Assert) IsFalse(condition bool, description ...string) {
	a.record(types.Assertion{Pass: !condition, Description: describe(IsFalseDescription, description)})
}

// Equal records whether actual deeply matches expected. Expected may be a
// plain Go value or an expect.Expected; regular expressions inside it
// match strings.
func (a *Assert) Equal(actual, expected any, description ...string) {
	a.outcome(expect.Equal(actual, expected), describe(EqualDescription, description),
		"not deeply and strictly equivalent")
}

// IsError records whether actual, which must be a non-nil error, matches
// expected: a regular expression tested against the message, or an error
// compared by name, message and fields.
func (a *Assert) IsError(actual, expected any, description ...string) {
	a.isError("IsError", actual, expected, describe(ErrorsEquivalentDescription, description))
}

// ErrorsEquivalent is IsError under its former name.
//
// Deprecated: use IsError.
func (a *Assert) ErrorsEquivalent(actual, expected any, description ...string) {
	a.isError("ErrorsEquivalent", actual, expected, describe(ErrorsEquivalentDescription, description))
}

func (a *Assert) isError(op string, actual, expected any, description string) {
	out, err := expect.ErrorMatches(actual, expected)
	if err != nil {
		precondition(op, err)
	}
	a.outcome(out, description, "expected error does not match")
}

func (a *Assert) outcome(out expect.Outcome, description, reason string) {
	if out.Pass {
		a.record(types.Assertion{Pass: true, Description: description})
		return
	}
	a.record(types.Assertion{
		Pass:        false,
		Description: description,
		Diagnostic:  out.Diagnostic,
		Stack:       captureStack(reason),
	})
}

func (a *Assert) record(assertion types.Assertion) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.assertions = append(a.assertions, assertion)
}

func describe(def string, description []string) string {
	for _, d := range description {
		if d != "" {
			return d
		}
	}
	return def
}

// captureStack returns the message followed by the call stack of the
// failing check.
func captureStack(reason string) string {
	return fmt.Sprintf("%+v", errors.New(reason))
}
