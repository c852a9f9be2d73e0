package kizu

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/kizu/exitcodes"
)

func TestTypedErrors(t *testing.T) {
	runtimeErr := NewRuntimeError(errors.New("spawn failed"))
	assert.Equal(t, "runtime error: spawn failed", runtimeErr.Error())
	assert.True(t, IsRuntimeError(runtimeErr))
	assert.True(t, IsRuntimeError(fmt.Errorf("wrapped: %w", runtimeErr)))
	assert.False(t, IsTestFailureError(runtimeErr))
	assert.EqualError(t, errors.Unwrap(runtimeErr), "spawn failed")

	failure := NewTestFailureError("1/2 tests passed")
	assert.Equal(t, "test failure: 1/2 tests passed", failure.Error())
	assert.True(t, IsTestFailureError(errors.Join(errors.New("failed to start"), failure)))
	assert.False(t, IsRuntimeError(failure))

	assert.False(t, IsRuntimeError(nil))
	assert.False(t, IsTestFailureError(nil))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitcodes.Success},
		{"runtime", NewRuntimeError(errors.New("x")), exitcodes.RuntimeErr},
		{"wrapped runtime", fmt.Errorf("start: %w", NewRuntimeError(errors.New("x"))), exitcodes.RuntimeErr},
		{"test failure", NewTestFailureError("x"), exitcodes.TestFailure},
		{"other", errors.New("x"), exitcodes.TestFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
