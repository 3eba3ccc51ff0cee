package orgsim

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"golang.org/x/text/cases"
)

// primitive reduces a stored or condition value to a primitive:
// float64, string, bool, time.Time or uuid.UUID
func primitive(v interface{}) interface{} {
	switch value := unalias(v).(type) {
	case EntityReference:
		return value.ID
	case *Entity:
		if value == nil {
			return nil
		}
		return value.ID
	case OptionSetValue:
		return float64(value.Value)
	case Money:
		return value.Value
	case int:
		return float64(value)
	case int8:
		return float64(value)
	case int16:
		return float64(value)
	case int32:
		return float64(value)
	case int64:
		return float64(value)
	case uint:
		return float64(value)
	case uint8:
		return float64(value)
	case uint16:
		return float64(value)
	case uint32:
		return float64(value)
	case uint64:
		return float64(value)
	case float32:
		return float64(value)
	case time.Time:
		return value.UTC().Truncate(time.Second)
	case float64, string, bool, uuid.UUID, nil:
		return value
	default:
		// named integer enums and named strings of record structs
		rv := reflect.ValueOf(value)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return float64(rv.Uint())
		case reflect.String:
			return rv.String()
		}
		return value
	}
}

// coerce converts a string condition value to the kind of the stored value
func coerce(stored, value interface{}) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}
	switch ref := stored.(type) {
	case uuid.UUID:
		if id, err := uuid.Parse(s); err == nil {
			return id
		}
	case float64:
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	case bool:
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b
		}
	case time.Time:
		if t, err := now.With(ref).Parse(s); err == nil {
			return t.UTC().Truncate(time.Second)
		}
	}
	return value
}

// compareValues orders two values, ok is false when they cannot be compared.
// Strings compare case-insensitively and dates to the second.
func compareValues(a, b interface{}) (int, bool) {
	av, bv := primitive(a), primitive(b)
	bv = primitive(coerce(av, bv))
	av = primitive(coerce(bv, av))

	switch x := av.(type) {
	case float64:
		y, ok := bv.(float64)
		if !ok {
			return 0, false
		}
		return compareOrdered(x, y), true
	case string:
		y, ok := bv.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(fold(x), fold(y)), true
	case bool:
		y, ok := bv.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	case time.Time:
		y, ok := bv.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case uuid.UUID:
		y, ok := bv.(uuid.UUID)
		if !ok {
			return 0, false
		}
		return strings.Compare(x.String(), y.String()), true
	}
	return 0, false
}

func compareOrdered(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// equalValues reports whether two values are equal under compareValues
func equalValues(a, b interface{}) bool {
	c, ok := compareValues(a, b)
	return ok && c == 0
}

// compareNullable orders absent values before present ones, then by value,
// falling back to the type name for values of different kinds
func compareNullable(a interface{}, aok bool, b interface{}, bok bool) int {
	aok, bok = aok && a != nil, bok && b != nil
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	if c, ok := compareValues(a, b); ok {
		return c
	}
	return strings.Compare(reflect.TypeOf(primitive(a)).String(), reflect.TypeOf(primitive(b)).String())
}

// fold case folds a string, casers are not safe for concurrent use
func fold(s string) string {
	return cases.Fold().String(s)
}
