// Package expect implements the structural matcher that decides whether an
// actual runtime value satisfies an expected value.
//
// Expected values form a closed set: Literal, Pattern, ErrorDescriptor,
// Sequence, Struct, MapMatch and SetMatch, nested arbitrarily deep. Plain Go
// values are converted into that set with Of, so most callers never build the
// variants by hand:
//
//	expect.Matches(user, expect.Obj(map[string]any{
//		"Email": regexp.MustCompile(`@example\.com$`),
//		"Age":   30,
//	}))
package expect

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/ethereum-optimism/infra/kizu/types"
)

// Expected is implemented only by the variants declared in this package.
type Expected interface {
	isExpected()
}

// Literal matches primitives (bools, numbers, strings and nil) by value.
// Numbers of different Go kinds are equal when they hold the same value.
type Literal struct {
	Value any
}

// Pattern matches string actuals the regular expression accepts.
type Pattern struct {
	Re *regexp.Regexp
}

// ErrorDescriptor matches errors whose serialized form has exactly this
// name, message and set of fields.
type ErrorDescriptor struct {
	Name    string
	Message string
	Fields  map[string]Expected
}

// Sequence matches slices and arrays of the same length, position by
// position.
type Sequence []Expected

// Struct matches structs (by exported field name) and string-keyed maps.
// The key sets must be identical.
type Struct map[string]Expected

// MapMatch matches maps of the same size holding every expected key with a
// matching value.
type MapMatch map[any]Expected

// SetMatch matches sets of the same size whose every element matches some
// element of the expectation.
type SetMatch []Expected

func (Literal) isExpected()         {}
func (Pattern) isExpected()         {}
func (ErrorDescriptor) isExpected() {}
func (Sequence) isExpected()        {}
func (Struct) isExpected()          {}
func (MapMatch) isExpected()        {}
func (SetMatch) isExpected()        {}

func (p Pattern) String() string {
	if p.Re == nil {
		return "/(?:)/"
	}
	return fmt.Sprintf("/%s/", p.Re.String())
}

// Re compiles expr into a Pattern. It panics if expr is not a valid
// regular expression.
func Re(expr string) Pattern {
	return Pattern{Re: regexp.MustCompile(expr)}
}

// Error describes an error built with errors.New or fmt.Errorf.
func Error(message string) ErrorDescriptor {
	return ErrorDescriptor{Name: types.GenericErrorName, Message: message}
}

// NamedError describes an error of a named type.
func NamedError(name, message string) ErrorDescriptor {
	return ErrorDescriptor{Name: name, Message: message}
}

// ErrorOf describes err as it would serialize, stack excluded.
func ErrorOf(err error) ErrorDescriptor {
	se := types.SerializeError(err)
	d := ErrorDescriptor{Name: se.Name, Message: se.Message}
	if len(se.Fields) > 0 {
		d.Fields = make(map[string]Expected, len(se.Fields))
		for k, v := range se.Fields {
			d.Fields[k] = Of(v)
		}
	}
	return d
}

// Seq converts each value with Of.
func Seq(values ...any) Sequence {
	out := make(Sequence, len(values))
	for i, v := range values {
		out[i] = Of(v)
	}
	return out
}

// Set converts each value with Of.
func Set(values ...any) SetMatch {
	out := make(SetMatch, len(values))
	for i, v := range values {
		out[i] = Of(v)
	}
	return out
}

// Obj builds a Struct expectation, converting each field value with Of.
func Obj(fields map[string]any) Struct {
	out := make(Struct, len(fields))
	for k, v := range fields {
		out[k] = Of(v)
	}
	return out
}

// Of converts a plain Go value into an Expected. Values that already are an
// Expected are returned unchanged. A reference met again below itself is
// kept as a Literal holding that reference, so cyclic values convert to a
// finite expectation.
func Of(v any) Expected {
	return ofValue(v, make(map[reference]struct{}))
}

// reference identifies a pointer, map or slice on the current conversion
// path.
type reference struct {
	typ reflect.Type
	ptr uintptr
	len int
}

func referenceOf(rv reflect.Value) (reference, bool) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		if rv.IsNil() {
			return reference{}, false
		}
		return reference{typ: rv.Type(), ptr: rv.Pointer()}, true
	case reflect.Slice:
		if rv.IsNil() || rv.Len() == 0 {
			return reference{}, false
		}
		return reference{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}, true
	}
	return reference{}, false
}

func ofValue(v any, path map[reference]struct{}) Expected {
	switch x := v.(type) {
	case nil:
		return Literal{}
	case Expected:
		return x
	case *regexp.Regexp:
		if x == nil {
			return Literal{}
		}
		return Pattern{Re: x}
	case error:
		if isNilValue(reflect.ValueOf(x)) {
			return Literal{}
		}
		return ErrorOf(x)
	}

	rv := reflect.ValueOf(v)
	if ref, ok := referenceOf(rv); ok {
		if _, seen := path[ref]; seen {
			return Literal{Value: v}
		}
		path[ref] = struct{}{}
		defer delete(path, ref)
	}

	if elems, ok := setElements(rv); ok {
		out := make(SetMatch, len(elems))
		for i, e := range elems {
			out[i] = ofValue(e.Interface(), path)
		}
		return out
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Literal{}
		}
		return ofValue(rv.Elem().Interface(), path)
	case reflect.Slice, reflect.Array:
		out := make(Sequence, rv.Len())
		for i := range out {
			out[i] = ofValue(rv.Index(i).Interface(), path)
		}
		return out
	case reflect.Map:
		out := make(MapMatch, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().Interface()] = ofValue(iter.Value().Interface(), path)
		}
		return out
	case reflect.Struct:
		names := exportedFields(rv.Type())
		if len(names) == 0 {
			return Literal{Value: v}
		}
		out := make(Struct, len(names))
		for _, name := range names {
			out[name] = ofValue(rv.FieldByName(name).Interface(), path)
		}
		return out
	default:
		return Literal{Value: v}
	}
}

// sameReference reports whether a and b are the same pointer, map, slice or
// channel. Interfaces are unwrapped first.
func sameReference(a, b reflect.Value) bool {
	for a.IsValid() && a.Kind() == reflect.Interface && !a.IsNil() {
		a = a.Elem()
	}
	for b.IsValid() && b.Kind() == reflect.Interface && !b.IsNil() {
		b = b.Elem()
	}
	if !a.IsValid() || !b.IsValid() || a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return !a.IsNil() && a.Pointer() == b.Pointer()
	case reflect.Slice:
		return !a.IsNil() && a.Len() == b.Len() && a.Pointer() == b.Pointer()
	}
	return false
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func exportedFields(t reflect.Type) []string {
	var names []string
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.IsExported() {
			names = append(names, f.Name)
		}
	}
	return names
}
