package expect

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ethereum-optimism/infra/kizu/types"
)

var (
	// ErrNotAnError is returned when an error comparison is given an actual
	// value that is not a non-nil error.
	ErrNotAnError = errors.New("actual value is not an error")
	// ErrInvalidErrorExpectation is returned when an error comparison is
	// given something other than a pattern or an error description.
	ErrInvalidErrorExpectation = errors.New("expected value must be a pattern or an error description")
)

// Outcome is the result of a single check: a pass, or a failure carrying a
// diagnostic.
type Outcome struct {
	Pass       bool
	Diagnostic string
}

func Passed() Outcome {
	return Outcome{Pass: true}
}

func Failed(diagnostic string) Outcome {
	return Outcome{Diagnostic: diagnostic}
}

// Equal checks actual against expected, converting expected with Of.
func Equal(actual, expected any) Outcome {
	if sameReference(reflect.ValueOf(actual), reflect.ValueOf(expected)) {
		return Passed()
	}
	e := Of(expected)
	if Matches(actual, e) {
		return Passed()
	}
	return Failed(Diagnose(actual, e))
}

// ErrorMatches compares an error with a pattern, tested against the error
// message, or with an error description. Stacks never take part in the
// comparison. A non-nil error return is a usage error, not a failed check.
func ErrorMatches(actual, expected any) (Outcome, error) {
	err, ok := actual.(error)
	if !ok || isNilValue(reflect.ValueOf(actual)) {
		return Outcome{}, fmt.Errorf("%w: got %T", ErrNotAnError, actual)
	}

	switch e := Of(expected).(type) {
	case Pattern:
		if e.Re == nil {
			return Outcome{}, ErrInvalidErrorExpectation
		}
		msg := err.Error()
		if e.Re.MatchString(msg) {
			return Passed(), nil
		}
		return Failed(DiagnosePattern(msg, e)), nil
	case ErrorDescriptor:
		return compareErrorForm(err, e.form()), nil
	case Struct:
		return compareErrorForm(err, e), nil
	default:
		return Outcome{}, fmt.Errorf("%w: got %T", ErrInvalidErrorExpectation, expected)
	}
}

func compareErrorForm(err error, expected Struct) Outcome {
	form := errorForm(types.SerializeError(err))
	if Matches(form, expected) {
		return Passed()
	}
	return Failed(Diagnose(form, expected))
}
