package types

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// GenericErrorName is the name given to errors that carry no type of their
// own, such as those built with errors.New or fmt.Errorf.
const GenericErrorName = "Error"

// PanicErrorName names a recovered panic whose value was not an error.
const PanicErrorName = "panic"

// anonymousErrorTypes are standard library error types whose Go type name
// is an implementation detail rather than a meaningful error name.
var anonymousErrorTypes = map[string]bool{
	"":            true,
	"errorString": true,
	"wrapError":   true,
	"wrapErrors":  true,
	"joinError":   true,
	"fundamental": true,
	"withStack":   true,
	"withMessage": true,
}

// SerializedError is the transportable, structural form of an error. It is
// what crosses the worker process boundary and what error expectations are
// compared against.
type SerializedError struct {
	Name    string         `json:"name"`
	Message string         `json:"message"`
	Stack   string         `json:"stack,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func (e *SerializedError) Error() string {
	if e.Name == "" || e.Name == GenericErrorName {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Named errors control the name they serialize with.
type Named interface {
	ErrorName() string
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// SerializeError converts err into its structural form. Exported fields of
// a struct error type are carried along, except nested errors and values
// that cannot be transported.
func SerializeError(err error) *SerializedError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*SerializedError); ok {
		cp := *se
		return &cp
	}
	out := &SerializedError{
		Name:    ErrorName(err),
		Message: err.Error(),
		Fields:  errorFields(err),
	}
	if st, ok := err.(stackTracer); ok {
		out.Stack = fmt.Sprintf("%+v", st.StackTrace())
	}
	return out
}

// FromPanic serializes a value recovered from a panic, attaching the stack
// captured at the point of recovery.
func FromPanic(recovered any, stack []byte) *SerializedError {
	var out *SerializedError
	if err, ok := recovered.(error); ok {
		out = SerializeError(err)
	} else {
		out = &SerializedError{
			Name:    PanicErrorName,
			Message: fmt.Sprint(recovered),
		}
	}
	if len(stack) > 0 {
		out.Stack = string(stack)
	}
	return out
}

// ErrorName returns the name err serializes with.
func ErrorName(err error) string {
	if n, ok := err.(Named); ok {
		return n.ErrorName()
	}
	if se, ok := err.(*SerializedError); ok {
		return se.Name
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if anonymousErrorTypes[t.Name()] {
		return GenericErrorName
	}
	return t.Name()
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func errorFields(err error) map[string]any {
	v := reflect.ValueOf(err)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct || anonymousErrorTypes[v.Type().Name()] {
		return nil
	}
	var fields map[string]any
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Type.Implements(errorType) {
			continue
		}
		switch f.Type.Kind() {
		case reflect.Func, reflect.Chan, reflect.UnsafePointer:
			continue
		}
		if fields == nil {
			fields = make(map[string]any)
		}
		fields[f.Name] = v.Field(i).Interface()
	}
	return fields
}
