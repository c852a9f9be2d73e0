package expect

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/ethereum-optimism/infra/kizu/types"
)

// maxRenderDepth bounds how far plain renders descend, so cyclic values
// still produce a diagnostic.
const maxRenderDepth = 32

var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
	DisableMethods:          true,
	MaxDepth:                maxRenderDepth,
}

// Diagnose renders a failed comparison: the actual value, the expected
// value and, when both sides are strings or both are structures, a diff.
func Diagnose(actual any, expected Expected) string {
	pa := plainValue(reflect.ValueOf(actual), 0)
	pe := plainExpected(expected, 0)

	var b strings.Builder
	b.WriteString("Actual:\n\n")
	b.WriteString(render(pa))
	b.WriteString("\n\nExpected:\n\n")
	b.WriteString(render(pe))

	if diff := diffPlain(pa, pe); diff != "" {
		b.WriteString("\n\nDiff:\n\n")
		b.WriteString(diff)
	}
	return b.String()
}

// DiagnosePattern renders a message that did not match a pattern.
func DiagnosePattern(message string, p Pattern) string {
	return fmt.Sprintf("Actual Error Message:\n\n%s\n\nExpected RegEx:\n\n%s", message, p)
}

func render(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return strings.TrimRight(spewConfig.Sdump(v), "\n")
}

func diffPlain(actual, expected any) string {
	as, aok := actual.(string)
	es, eok := expected.(string)
	if aok && eok {
		return diffStrings(as, es)
	}
	if isStructure(actual) && isStructure(expected) {
		return diffStructures(actual, expected)
	}
	return ""
}

func isStructure(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func diffStrings(actual, expected string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
	if err != nil {
		return ""
	}
	return strings.TrimRight(diff, "\n")
}

// diffStructures never fails the caller: the diff is advisory.
func diffStructures(actual, expected any) (diff string) {
	defer func() {
		if r := recover(); r != nil {
			diff = ""
		}
	}()
	return strings.TrimRight(cmp.Diff(expected, actual), "\n")
}

// plainValue converts an actual value into a tree of maps, slices and
// primitives that renders and diffs cleanly.
func plainValue(v reflect.Value, depth int) any {
	if depth > maxRenderDepth {
		return "..."
	}
	v, k := classify(v)
	switch k {
	case kindNil:
		return nil
	case kindBool:
		return v.Bool()
	case kindString:
		return v.String()
	case kindNumber:
		switch {
		case isFloat(v):
			return v.Float()
		case isInt(v):
			return v.Int()
		default:
			return v.Uint()
		}
	case kindPattern:
		return Pattern{Re: regexpOf(v)}.String()
	case kindError:
		if err, ok := v.Interface().(error); ok {
			form := errorForm(types.SerializeError(err))
			out := make(map[string]any, len(form))
			for key, fv := range form {
				out[key] = plainValue(reflect.ValueOf(fv), depth+1)
			}
			return out
		}
	case kindSequence:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = plainValue(v.Index(i), depth+1)
		}
		return out
	case kindStruct:
		out := make(map[string]any)
		for _, name := range exportedFields(v.Type()) {
			out[name] = plainValue(v.FieldByName(name), depth+1)
		}
		return out
	case kindMap:
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[keyString(plainValue(iter.Key(), depth+1))] = plainValue(iter.Value(), depth+1)
		}
		return out
	case kindSet:
		elems, _ := setElements(v)
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = plainValue(e, depth+1)
		}
		sortPlain(out)
		return out
	}
	if v.CanInterface() {
		return fmt.Sprintf("%v", v.Interface())
	}
	return v.Type().String()
}

// plainExpected is plainValue for the expectation side.
func plainExpected(e Expected, depth int) any {
	if depth > maxRenderDepth {
		return "..."
	}
	switch x := e.(type) {
	case nil:
		return nil
	case Literal:
		return plainValue(reflect.ValueOf(x.Value), depth)
	case Pattern:
		return x.String()
	case ErrorDescriptor:
		return plainExpected(x.form(), depth)
	case Sequence:
		out := make([]any, len(x))
		for i, ev := range x {
			out[i] = plainExpected(ev, depth+1)
		}
		return out
	case Struct:
		out := make(map[string]any, len(x))
		for k, ev := range x {
			out[k] = plainExpected(ev, depth+1)
		}
		return out
	case MapMatch:
		out := make(map[string]any, len(x))
		for k, ev := range x {
			out[keyString(plainValue(reflect.ValueOf(k), depth+1))] = plainExpected(ev, depth+1)
		}
		return out
	case SetMatch:
		out := make([]any, len(x))
		for i, ev := range x {
			out[i] = plainExpected(ev, depth+1)
		}
		sortPlain(out)
		return out
	}
	return fmt.Sprintf("%v", e)
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

// sortPlain orders set members so that two renders of the same set agree.
func sortPlain(elems []any) {
	sort.SliceStable(elems, func(i, j int) bool {
		return fmt.Sprint(elems[i]) < fmt.Sprint(elems[j])
	})
}

func regexpOf(v reflect.Value) *regexp.Regexp {
	if !v.IsValid() || v.IsNil() || !v.CanInterface() {
		return nil
	}
	re, _ := v.Interface().(*regexp.Regexp)
	return re
}
