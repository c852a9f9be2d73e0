package assertions

import (
	"fmt"
	"reflect"

	"github.com/ethereum-optimism/infra/kizu/expect"
	"github.com/ethereum-optimism/infra/kizu/types"
)

// NoThrowDescription is recorded when a Throws experiment completes without
// an error.
const NoThrowDescription = "experiment did not throw an error"

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Throws runs experiment and records whether the error it produces matches
// expected, with the same rules as IsError.
//
// Experiment must be a function without parameters. It throws when it
// panics, when its last result is a non-nil error, or when its last result
// is a channel of errors that delivers a non-nil error. Such a channel is
// awaited, so asynchronous work can be asserted on.
func (a *Assert) Throws(experiment, expected any, description ...string) {
	fv := reflect.ValueOf(experiment)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		precondition("Throws", fmt.Errorf("experiment must be a function, got %T", experiment))
	}
	if fv.Type().NumIn() != 0 {
		precondition("Throws", fmt.Errorf("experiment must take no arguments, got %s", fv.Type()))
	}
	if !isErrorExpectation(expected) {
		precondition("Throws", fmt.Errorf("%w: got %T", expect.ErrInvalidErrorExpectation, expected))
	}

	desc := describe(ThrowsDescription, description)
	thrown := invoke(fv)
	if thrown == nil {
		if desc == ThrowsDescription {
			desc = NoThrowDescription
		}
		a.record(types.Assertion{
			Pass:        false,
			Description: desc,
			Diagnostic:  NoThrowDescription,
			Stack:       captureStack(NoThrowDescription),
		})
		return
	}
	a.isError("Throws", thrown, expected, desc)
}

func isErrorExpectation(expected any) bool {
	switch expect.Of(expected).(type) {
	case expect.Pattern, expect.ErrorDescriptor, expect.Struct:
		return true
	}
	return false
}

// invoke calls fn and returns what it threw, or nil.
func invoke(fn reflect.Value) (thrown error) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				thrown = err
				return
			}
			thrown = types.FromPanic(r, nil)
		}
	}()

	outs := fn.Call(nil)
	if len(outs) == 0 {
		return nil
	}
	last := outs[len(outs)-1]
	switch {
	case last.Type().Implements(errorType):
		return asError(last)
	case last.Kind() == reflect.Chan && last.Type().ChanDir()&reflect.RecvDir != 0 &&
		last.Type().Elem().Implements(errorType):
		if last.IsNil() {
			return nil
		}
		v, ok := last.Recv()
		if !ok {
			return nil
		}
		return asError(v)
	}
	return nil
}

func asError(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	err, _ := v.Interface().(error)
	return err
}
