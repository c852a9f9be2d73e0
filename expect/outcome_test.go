package expect

import (
	"errors"
	"regexp"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	t.Run("pass carries no diagnostic", func(t *testing.T) {
		out := Equal(map[string]string{"email": "a@b.com"}, Obj(map[string]any{"email": Re(`@b\.com$`)}))
		assert.True(t, out.Pass)
		assert.Empty(t, out.Diagnostic)
	})

	t.Run("structure mismatch renders both sides and a diff", func(t *testing.T) {
		out := Equal(map[string]string{"email": "a@c.com"}, Obj(map[string]any{"email": Re(`@b\.com$`)}))
		require.False(t, out.Pass)
		assert.Contains(t, out.Diagnostic, "Actual:")
		assert.Contains(t, out.Diagnostic, "a@c.com")
		assert.Contains(t, out.Diagnostic, "Expected:")
		assert.Contains(t, out.Diagnostic, "com$/")
		assert.Contains(t, out.Diagnostic, "Diff:")
	})

	t.Run("string mismatch diffs by line", func(t *testing.T) {
		out := Equal("hello\nworld", "hello\nthere")
		require.False(t, out.Pass)
		assert.Contains(t, out.Diagnostic, "Diff:")
		assert.Contains(t, out.Diagnostic, "-there")
		assert.Contains(t, out.Diagnostic, "+world")
	})

	t.Run("different kinds get no diff", func(t *testing.T) {
		out := Equal(1, "1")
		require.False(t, out.Pass)
		assert.Contains(t, out.Diagnostic, "Actual:")
		assert.NotContains(t, out.Diagnostic, "Diff:")
	})

	t.Run("cyclic values still render", func(t *testing.T) {
		type node struct {
			Next *node
		}
		n := &node{}
		n.Next = n
		out := Equal(n, 1)
		assert.False(t, out.Pass)
		assert.Contains(t, out.Diagnostic, "Actual:")
	})

	t.Run("cyclic value equals itself", func(t *testing.T) {
		assert.True(t, Equal(newRing(1), newRing(1)).Pass)
		r := newRing(1)
		assert.True(t, Equal(r, r).Pass)
	})

	t.Run("cyclic values that differ render a diagnostic", func(t *testing.T) {
		out := Equal(newRing(1), newRing(2))
		require.False(t, out.Pass)
		assert.Contains(t, out.Diagnostic, "Expected:")
	})
}

type namedError struct{}

func (namedError) Error() string     { return "named" }
func (namedError) ErrorName() string { return "TypeError" }

func TestErrorMatches(t *testing.T) {
	tests := []struct {
		name     string
		actual   error
		expected any
		pass     bool
	}{
		{"pattern matches message", errors.New("kaboom boom!"), regexp.MustCompile("boom"), true},
		{"pattern misses message", errors.New("nope"), Re("boom"), false},
		{"descriptor ignores stacks", pkgerrors.New("boom"), errors.New("boom"), true},
		{"descriptor message differs", errors.New("boom"), Error("bang"), false},
		{"named error", namedError{}, NamedError("TypeError", "named"), true},
		{"named error against generic", namedError{}, Error("named"), false},
		{"fields compared", &codedError{Code: 7}, &codedError{Code: 8}, false},
		{"struct form", errors.New("x"), Obj(map[string]any{"name": "Error", "message": Re("^x$")}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ErrorMatches(tt.actual, tt.expected)
			require.NoError(t, err)
			assert.Equal(t, tt.pass, out.Pass)
			if !tt.pass {
				assert.NotEmpty(t, out.Diagnostic)
			}
		})
	}

	t.Run("pattern diagnostic names message and pattern", func(t *testing.T) {
		out, err := ErrorMatches(errors.New("nope"), Re("boom"))
		require.NoError(t, err)
		assert.Equal(t, "Actual Error Message:\n\nnope\n\nExpected RegEx:\n\n/boom/", out.Diagnostic)
	})

	t.Run("actual must be an error", func(t *testing.T) {
		_, err := ErrorMatches("boom", Re("boom"))
		assert.ErrorIs(t, err, ErrNotAnError)

		_, err = ErrorMatches((*codedError)(nil), Re("boom"))
		assert.ErrorIs(t, err, ErrNotAnError)

		_, err = ErrorMatches(nil, Re("boom"))
		assert.ErrorIs(t, err, ErrNotAnError)
	})

	t.Run("expectation must describe an error", func(t *testing.T) {
		_, err := ErrorMatches(errors.New("boom"), "boom")
		assert.ErrorIs(t, err, ErrInvalidErrorExpectation)

		_, err = ErrorMatches(errors.New("boom"), 5)
		assert.ErrorIs(t, err, ErrInvalidErrorExpectation)
	})
}
