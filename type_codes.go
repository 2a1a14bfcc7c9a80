package extract

import (
	"reflect"
	"strings"
)

// typeOf returns the reflect.Type for T, including interface types
// which reflect.TypeOf on a zero value cannot report.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Schema is the list of output types of a chain, one per position,
// in construction order.
type Schema []reflect.Type

func (s Schema) String() string {
	names := make([]string, len(s))
	for i, t := range s {
		names[i] = t.String()
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// Matches reports whether values has one element per position and
// each element can be assigned to the type of its position.
func (s Schema) Matches(values []any) bool {
	if len(values) != len(s) {
		return false
	}
	for i, v := range values {
		if v == nil {
			switch s[i].Kind() {
			case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
				continue
			}
			return false
		}
		if !reflect.TypeOf(v).AssignableTo(s[i]) {
			return false
		}
	}
	return true
}
