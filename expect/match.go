package expect

import (
	"reflect"
	"regexp"

	"github.com/ethereum-optimism/infra/kizu/types"
)

// kind is the broad type tag two values must share before their contents
// are compared.
type kind int

const (
	kindNil kind = iota
	kindBool
	kindNumber
	kindString
	kindPattern
	kindError
	kindSequence
	kindStruct
	kindMap
	kindSet
	kindOther
)

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	regexpType  = reflect.TypeOf((*regexp.Regexp)(nil))
	patternType = reflect.TypeOf(Pattern{})
)

// Matches reports whether actual satisfies expected. It is total: every
// pairing of actual value and expectation yields an answer.
func Matches(actual any, expected Expected) bool {
	return match(reflect.ValueOf(actual), expected)
}

func match(raw reflect.Value, expected Expected) bool {
	av, ak := classify(raw)

	switch e := expected.(type) {
	case Pattern:
		if ak == kindPattern {
			return av.Pointer() == reflect.ValueOf(e.Re).Pointer()
		}
		if ak != kindString || e.Re == nil {
			return false
		}
		return e.Re.MatchString(av.String())
	case nil:
		return ak == kindNil
	}

	// Patterns are only ever meaningful on the expected side.
	if ak == kindPattern {
		return false
	}

	switch e := expected.(type) {
	case Literal:
		if sameReference(raw, reflect.ValueOf(e.Value)) {
			return true
		}
		return matchLiteral(av, ak, e)
	case ErrorDescriptor:
		if ak != kindError {
			return false
		}
		err, ok := av.Interface().(error)
		return ok && matchError(err, e)
	case MapMatch:
		if ak != kindMap {
			return false
		}
		return matchMap(av, e)
	case SetMatch:
		if ak != kindSet {
			return false
		}
		elems, _ := setElements(av)
		return matchSet(elems, e)
	case Struct:
		switch ak {
		case kindStruct:
			return matchStructFields(av, e)
		case kindMap:
			if av.Type().Key().Kind() != reflect.String {
				return false
			}
			return matchStructMap(av, e)
		}
		return false
	case Sequence:
		if ak != kindSequence || av.Len() != len(e) {
			return false
		}
		for i, ev := range e {
			if !match(av.Index(i), ev) {
				return false
			}
		}
		return true
	}
	return false
}

// classify unwraps interfaces and pointers down to the value that is
// compared and returns its type tag. Errors, regular expressions and sets
// are recognized before pointers are followed.
func classify(v reflect.Value) (reflect.Value, kind) {
	for {
		if !v.IsValid() {
			return v, kindNil
		}
		switch v.Type() {
		case regexpType:
			if v.IsNil() {
				return v, kindNil
			}
			return v, kindPattern
		case patternType:
			return v.Field(0), kindPattern
		}
		switch v.Kind() {
		case reflect.Interface:
			if v.IsNil() {
				return v, kindNil
			}
			v = v.Elem()
			continue
		case reflect.Pointer:
			if v.IsNil() {
				return v, kindNil
			}
		}
		if v.Type().Implements(errorType) {
			return v, kindError
		}
		if _, ok := setElements(v); ok {
			return v, kindSet
		}
		if v.Kind() == reflect.Pointer {
			v = v.Elem()
			continue
		}
		return v, kindOfValue(v)
	}
}

func kindOfValue(v reflect.Value) kind {
	switch v.Kind() {
	case reflect.Bool:
		return kindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return kindNumber
	case reflect.String:
		return kindString
	case reflect.Slice, reflect.Array:
		return kindSequence
	case reflect.Map:
		return kindMap
	case reflect.Struct:
		return kindStruct
	default:
		return kindOther
	}
}

func matchLiteral(av reflect.Value, ak kind, lit Literal) bool {
	lv, lk := classify(reflect.ValueOf(lit.Value))
	if ak != lk {
		return false
	}
	switch ak {
	case kindNil:
		return true
	case kindBool:
		return av.Bool() == lv.Bool()
	case kindString:
		return av.String() == lv.String()
	case kindNumber:
		return numbersEqual(av, lv)
	}
	if av.Type() != lv.Type() {
		return false
	}
	// Comparable is checked on the values: a comparable struct type can
	// still hold an uncomparable value in an interface field.
	if av.Comparable() && lv.Comparable() && av.Equal(lv) {
		return true
	}
	return reflect.DeepEqual(av.Interface(), lv.Interface())
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isFloat(v reflect.Value) bool {
	return v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isFloat(v):
		return v.Float()
	case isInt(v):
		return float64(v.Int())
	default:
		return float64(v.Uint())
	}
}

// numbersEqual compares two numeric values of any Go kind by value.
func numbersEqual(a, b reflect.Value) bool {
	switch {
	case isFloat(a) || isFloat(b):
		return toFloat(a) == toFloat(b)
	case isInt(a) && isInt(b):
		return a.Int() == b.Int()
	case isInt(a):
		return a.Int() >= 0 && uint64(a.Int()) == b.Uint()
	case isInt(b):
		return b.Int() >= 0 && uint64(b.Int()) == a.Uint()
	default:
		return a.Uint() == b.Uint()
	}
}

func matchError(err error, d ErrorDescriptor) bool {
	return Matches(errorForm(types.SerializeError(err)), d.form())
}

// errorForm is the comparable structure of a serialized error: its name,
// message and fields, without the stack.
func errorForm(se *types.SerializedError) map[string]any {
	form := map[string]any{
		"name":    se.Name,
		"message": se.Message,
	}
	for k, v := range se.Fields {
		form[k] = v
	}
	return form
}

func (d ErrorDescriptor) form() Struct {
	s := Struct{
		"name":    Literal{Value: d.Name},
		"message": Literal{Value: d.Message},
	}
	for k, v := range d.Fields {
		s[k] = v
	}
	return s
}

func matchMap(av reflect.Value, e MapMatch) bool {
	if av.Len() != len(e) {
		return false
	}
	for ek, ev := range e {
		found := false
		iter := av.MapRange()
		for iter.Next() {
			if !match(iter.Key(), Literal{Value: ek}) {
				continue
			}
			if !match(iter.Value(), ev) {
				return false
			}
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}

// matchSet requires every actual element to match at least one expected
// element. The scan is existential: it does not pair elements one to one.
func matchSet(actual []reflect.Value, e SetMatch) bool {
	if len(actual) != len(e) {
		return false
	}
	for _, a := range actual {
		found := false
		for _, ev := range e {
			if match(a, ev) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchStructFields(av reflect.Value, e Struct) bool {
	names := exportedFields(av.Type())
	if len(names) != len(e) {
		return false
	}
	for _, name := range names {
		ev, ok := e[name]
		if !ok {
			return false
		}
		if !match(av.FieldByName(name), ev) {
			return false
		}
	}
	return true
}

func matchStructMap(av reflect.Value, e Struct) bool {
	if av.Len() != len(e) {
		return false
	}
	for name, ev := range e {
		v := av.MapIndex(reflect.ValueOf(name).Convert(av.Type().Key()))
		if !v.IsValid() {
			return false
		}
		if !match(v, ev) {
			return false
		}
	}
	return true
}

// setElements returns the members of v when v is a set: a golang-set
// mapset.Set or a map whose element type is the empty struct.
func setElements(v reflect.Value) ([]reflect.Value, bool) {
	if !v.IsValid() {
		return nil, false
	}
	if v.Kind() == reflect.Map && v.Type().Elem().Kind() == reflect.Struct && v.Type().Elem().NumField() == 0 {
		return v.MapKeys(), true
	}
	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		return nil, false
	}
	card := v.MethodByName("Cardinality")
	toSlice := v.MethodByName("ToSlice")
	if !card.IsValid() || !toSlice.IsValid() ||
		card.Type().NumIn() != 0 || toSlice.Type().NumIn() != 0 ||
		toSlice.Type().NumOut() != 1 || toSlice.Type().Out(0).Kind() != reflect.Slice {
		return nil, false
	}
	slice := toSlice.Call(nil)[0]
	elems := make([]reflect.Value, slice.Len())
	for i := range elems {
		elems[i] = slice.Index(i)
	}
	return elems, true
}
