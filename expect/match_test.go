package expect

import (
	"errors"
	"regexp"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
)

type address struct {
	City string
	Zip  int
}

type user struct {
	Email   string
	Age     int
	Tags    []string
	Address *address
	private string
}

func TestMatches_Reflexive(t *testing.T) {
	values := []struct {
		name  string
		value any
	}{
		{"nil", nil},
		{"int", 42},
		{"float", 3.5},
		{"string", "hello"},
		{"bool", true},
		{"empty slice", []int{}},
		{"nil slice", []string(nil)},
		{"slice", []int{1, 2, 3}},
		{"array", [2]string{"a", "b"}},
		{"map", map[string][]int{"a": {1}, "b": {2, 3}}},
		{"int keyed map", map[int]string{1: "one", 2: "two"}},
		{"struct", user{Email: "a@b.com", Age: 30, Tags: []string{"x"}, Address: &address{City: "Oslo", Zip: 150}}},
		{"nested", map[string]any{"list": []any{1, "two", map[string]any{"three": 3.0}}}},
		{"error", errors.New("boom")},
	}

	for _, tt := range values {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Matches(tt.value, Of(tt.value)))
		})
	}
}

func TestMatches_PatternAsymmetry(t *testing.T) {
	re := regexp.MustCompile("b")

	assert.True(t, Matches("abc", Pattern{Re: re}))
	assert.False(t, Matches(re, Of("abc")))
	assert.False(t, Matches(Pattern{Re: re}, Of("abc")))
	assert.False(t, Matches(5, Re("5")))
	assert.False(t, Matches(nil, Re(".*")))
	assert.False(t, Matches("xyz", Pattern{Re: re}))

	// A pattern only ever equals itself.
	assert.True(t, Matches(re, Pattern{Re: re}))
	assert.False(t, Matches(regexp.MustCompile("b"), Pattern{Re: re}))
}

func TestMatches_Maps(t *testing.T) {
	assert.True(t, Matches(map[string]int{"a": 1, "b": 2}, Of(map[string]int{"b": 2, "a": 1})))
	assert.False(t, Matches(map[string]int{"a": 1, "b": 2}, Of(map[string]int{"a": 1})))
	assert.False(t, Matches(map[string]int{"a": 1}, Of(map[string]int{"a": 1, "b": 2})))
	assert.False(t, Matches(map[string]int{"a": 1, "c": 2}, Of(map[string]int{"a": 1, "b": 2})))
	assert.False(t, Matches(map[string]int{"a": 2}, Of(map[string]int{"a": 1})))
	assert.True(t, Matches(map[int]string{1: "x"}, MapMatch{1: Re("^x$")}))
	assert.False(t, Matches([]int{1}, Of(map[int]int{0: 1})))
}

func TestMatches_Sets(t *testing.T) {
	assert.True(t, Matches(mapset.NewSet(1, 2), Set(2, 1)))
	assert.True(t, Matches(mapset.NewThreadUnsafeSet("a", "b"), Of(mapset.NewSet("b", "a"))))
	assert.True(t, Matches(map[string]struct{}{"x": {}, "y": {}}, Set("y", "x")))
	assert.False(t, Matches(mapset.NewSet(1, 2), Set(1, 2, 3)))
	assert.False(t, Matches(mapset.NewSet(1, 2), Set(1, 3)))
	assert.False(t, Matches([]int{1, 2}, Set(1, 2)))
	assert.False(t, Matches(mapset.NewSet(1, 2), Seq(1, 2)))

	// Elements are matched existentially, not paired one to one.
	assert.True(t, Matches(mapset.NewSet("ab", "ac"), SetMatch{Re("^a"), Of("zz")}))
}

func TestMatches_Structs(t *testing.T) {
	u := user{Email: "a@b.com", Age: 30, private: "ignored"}

	assert.True(t, Matches(u, Obj(map[string]any{
		"Email":   Re(`@b\.com$`),
		"Age":     30,
		"Tags":    []string(nil),
		"Address": nil,
	})))
	assert.True(t, Matches(&u, Of(u)))

	t.Run("key sets must be identical", func(t *testing.T) {
		assert.False(t, Matches(u, Obj(map[string]any{"Email": "a@b.com"})))
		assert.False(t, Matches(map[string]any{"a": 1, "b": 2}, Obj(map[string]any{"a": 1})))
		assert.False(t, Matches(map[string]any{"a": 1}, Obj(map[string]any{"a": 1, "b": 2})))
	})

	t.Run("string keyed maps", func(t *testing.T) {
		assert.True(t, Matches(map[string]string{"email": "a@b.com"}, Obj(map[string]any{"email": Re(`@b\.com$`)})))
		assert.False(t, Matches(map[string]string{"email": "a@c.com"}, Obj(map[string]any{"email": Re(`@b\.com$`)})))
		assert.False(t, Matches(map[int]string{1: "a"}, Obj(map[string]any{"1": "a"})))
	})

	t.Run("nested pointers", func(t *testing.T) {
		withAddr := user{Address: &address{City: "Oslo", Zip: 150}}
		exp := Of(withAddr).(Struct)
		exp["Address"] = Obj(map[string]any{"City": Re("^O"), "Zip": 150})
		assert.True(t, Matches(withAddr, exp))
	})
}

func TestMatches_Sequences(t *testing.T) {
	assert.True(t, Matches([]any{1, "a", true}, Seq(1, "a", true)))
	assert.True(t, Matches([3]int{1, 2, 3}, Seq(1, 2, 3)))
	assert.False(t, Matches([]int{1, 2}, Seq(2, 1)))
	assert.False(t, Matches([]int{1, 2}, Seq(1, 2, 3)))
	assert.False(t, Matches("ab", Seq("a", "b")))
	assert.True(t, Matches([]string{"a1", "b2"}, Sequence{Re(`^a\d$`), Re(`^b\d$`)}))
}

func TestMatches_Literals(t *testing.T) {
	tests := []struct {
		name     string
		actual   any
		expected any
		want     bool
	}{
		{"ints of different width", int64(3), 3, true},
		{"int and float", 3, 3.0, true},
		{"uint and int", uint8(3), 3, true},
		{"negative int and uint", -1, uint64(1), false},
		{"fractional float", 3.5, 3, false},
		{"number and string", 1, "1", false},
		{"bool and number", true, 1, false},
		{"nil and zero", nil, 0, false},
		{"zero and nil", 0, nil, false},
		{"nil pointer and nil", (*int)(nil), nil, true},
		{"nil and empty string", nil, "", false},
		{"named string type", namedString("x"), "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.actual, Of(tt.expected)))
		})
	}
}

type namedString string

type codedError struct {
	Code int
}

func (e *codedError) Error() string { return "coded" }

func TestMatches_Errors(t *testing.T) {
	assert.True(t, Matches(errors.New("boom"), Error("boom")))
	assert.False(t, Matches(errors.New("boom"), Error("bang")))
	assert.False(t, Matches("boom", Error("boom")))
	assert.True(t, Matches(&codedError{Code: 7}, Of(&codedError{Code: 7})))
	assert.False(t, Matches(&codedError{Code: 7}, Of(&codedError{Code: 8})))
	assert.False(t, Matches(&codedError{Code: 7}, Error("coded")))
	assert.True(t, Matches(&codedError{Code: 7}, ErrorDescriptor{
		Name:    "codedError",
		Message: "coded",
		Fields:  map[string]Expected{"Code": Of(7)},
	}))
	assert.True(t, Matches([]error{errors.New("a")}, Seq(errors.New("a"))))
}

func TestOf(t *testing.T) {
	re := regexp.MustCompile("x")

	assert.Equal(t, Literal{}, Of(nil))
	assert.Equal(t, Pattern{Re: re}, Of(re))
	assert.Equal(t, Literal{Value: 1}, Of(1))
	assert.Equal(t, Sequence{Literal{Value: 1}}, Of([]int{1}))
	assert.Equal(t, MapMatch{"a": Literal{Value: 1}}, Of(map[string]int{"a": 1}))
	assert.Equal(t, Struct{"City": Literal{Value: "Oslo"}, "Zip": Literal{Value: 0}}, Of(address{City: "Oslo"}))
	assert.Equal(t, Error("boom"), Of(errors.New("boom")))
	assert.Equal(t, Literal{}, Of((*codedError)(nil)))
	assert.IsType(t, SetMatch{}, Of(mapset.NewSet(1)))

	already := Obj(map[string]any{"a": 1})
	assert.Equal(t, already, Of(already))
}

type ring struct {
	Val  int
	Next *ring
}

func newRing(val int) *ring {
	r := &ring{Val: val}
	r.Next = r
	return r
}

func TestMatches_Cycles(t *testing.T) {
	t.Run("pointer cycle matches itself", func(t *testing.T) {
		r := newRing(1)
		assert.True(t, Matches(r, Of(r)))
	})

	t.Run("same shaped cycles match", func(t *testing.T) {
		assert.True(t, Matches(newRing(1), Of(newRing(1))))
	})

	t.Run("cycles with different values differ", func(t *testing.T) {
		assert.False(t, Matches(newRing(1), Of(newRing(2))))
	})

	t.Run("slice holding itself", func(t *testing.T) {
		s := []any{1, nil}
		s[1] = s
		assert.True(t, Matches(s, Of(s)))
	})

	t.Run("map holding itself", func(t *testing.T) {
		m := map[string]any{"n": 1}
		m["self"] = m
		assert.True(t, Matches(m, Of(m)))
	})

	t.Run("cycle is kept as a literal reference", func(t *testing.T) {
		r := newRing(1)
		assert.Equal(t, Struct{"Val": Literal{Value: 1}, "Next": Literal{Value: r}}, Of(r))
	})

	t.Run("shared pointers are not cycles", func(t *testing.T) {
		a := &address{City: "Oslo", Zip: 150}
		assert.Equal(t, Sequence{Of(*a), Of(*a)}, Of([]*address{a, a}))
	})
}

// opaque has no exported fields, so Of keeps it as a Literal.
type opaque struct {
	v any
}

func TestMatches_OpaqueValues(t *testing.T) {
	tests := []struct {
		name     string
		actual   any
		expected any
		pass     bool
	}{
		{"comparable contents", opaque{v: 1}, opaque{v: 1}, true},
		{"comparable contents differ", opaque{v: 1}, opaque{v: 2}, false},
		{"uncomparable contents", opaque{v: []int{1}}, opaque{v: []int{1}}, true},
		{"uncomparable contents differ", opaque{v: []int{1}}, opaque{v: []int{2}}, false},
		{"mixed contents", opaque{v: []int{1}}, opaque{v: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, tt.pass, Matches(tt.actual, Of(tt.expected)))
			})
		})
	}
}
