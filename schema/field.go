package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim/utils"
)

// DataType attribute data type
type DataType string

const (
	String           DataType = "string"
	Integer          DataType = "integer"
	BigInt           DataType = "bigint"
	Decimal          DataType = "decimal"
	Boolean          DataType = "boolean"
	DateTime         DataType = "datetime"
	UniqueIdentifier DataType = "uniqueidentifier"
	OptionSet        DataType = "picklist"
	Money            DataType = "money"
	Lookup           DataType = "lookup"
	PartyList        DataType = "partylist"
)

var (
	TimeReflectType = reflect.TypeOf(time.Time{})
	UUIDReflectType = reflect.TypeOf(uuid.UUID{})

	stringerType   = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	labelerType    = reflect.TypeOf((*Labeler)(nil)).Elem()
	dataTypeIfType = reflect.TypeOf((*DataTypeInterface)(nil)).Elem()
)

// Field a struct field mapped to an attribute
type Field struct {
	Name              string
	LogicalName       string
	DataType          DataType
	PrimaryKey        bool
	PrimaryName       bool
	ReadOnly          bool
	FieldType         reflect.Type
	IndirectFieldType reflect.Type
	StructField       reflect.StructField
	Tag               reflect.StructTag
	TagSettings       map[string]string
	Schema            *Schema

	// ValueOf returns the field's value and whether it is zero
	ValueOf func(reflect.Value) (value interface{}, zero bool)
	// Set assigns value to the field, converting between compatible kinds
	Set func(reflect.Value, interface{}) error
}

func (schema *Schema) parseField(fieldStruct reflect.StructField) *Field {
	name, settings := ParseTagSetting(fieldStruct.Tag.Get("orgsim"))
	if name == "-" {
		return nil
	}

	field := &Field{
		Name:              fieldStruct.Name,
		LogicalName:       name,
		FieldType:         fieldStruct.Type,
		IndirectFieldType: indirectType(fieldStruct.Type),
		StructField:       fieldStruct,
		Tag:               fieldStruct.Tag,
		TagSettings:       settings,
		Schema:            schema,
	}

	if field.LogicalName == "" {
		field.LogicalName = schema.namer.LogicalName(field.Name)
	}

	if val, ok := settings["PRIMARYKEY"]; ok && utils.CheckTruth(val) {
		field.PrimaryKey = true
	}
	if val, ok := settings["READONLY"]; ok && utils.CheckTruth(val) {
		field.ReadOnly = true
	}
	if val, ok := settings["PRIMARYNAME"]; ok && utils.CheckTruth(val) {
		field.PrimaryName = true
	}

	field.DataType = dataTypeOf(field.IndirectFieldType)
	if dt, ok := settings["TYPE"]; ok {
		field.DataType = DataType(dt)
	}

	field.setupValuerAndSetter()
	return field
}

func dataTypeOf(t reflect.Type) DataType {
	if implements(t, dataTypeIfType) {
		return reflect.New(t).Interface().(DataTypeInterface).OrgsimDataType()
	}

	switch t {
	case TimeReflectType:
		return DateTime
	case UUIDReflectType:
		return UniqueIdentifier
	}

	switch t.Kind() {
	case reflect.Bool:
		return Boolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		if t.PkgPath() != "" && implements(t, stringerType) {
			return OptionSet
		}
		return Integer
	case reflect.Int64, reflect.Uint, reflect.Uint64:
		if t.PkgPath() != "" && implements(t, stringerType) {
			return OptionSet
		}
		return BigInt
	case reflect.Float32, reflect.Float64:
		return Decimal
	case reflect.String:
		return String
	}
	return ""
}

func (field *Field) setupValuerAndSetter() {
	index := field.StructField.Index

	field.ValueOf = func(v reflect.Value) (interface{}, bool) {
		fieldValue := reflect.Indirect(v).FieldByIndex(index)
		if fieldValue.IsZero() {
			return fieldValue.Interface(), true
		}
		for fieldValue.Kind() == reflect.Ptr {
			fieldValue = fieldValue.Elem()
		}
		return fieldValue.Interface(), false
	}

	field.Set = func(v reflect.Value, value interface{}) error {
		fieldValue := reflect.Indirect(v).FieldByIndex(index)
		if value == nil {
			fieldValue.Set(reflect.Zero(field.FieldType))
			return nil
		}

		rv := reflect.ValueOf(value)
		for rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				fieldValue.Set(reflect.Zero(field.FieldType))
				return nil
			}
			if rv.Type().AssignableTo(field.FieldType) {
				fieldValue.Set(rv)
				return nil
			}
			rv = rv.Elem()
		}

		converted, err := convertTo(rv, field.IndirectFieldType)
		if err != nil {
			return fmt.Errorf("failed to set value %#v to field %s.%s: %w", value, field.Schema.Name, field.Name, err)
		}

		if field.FieldType.Kind() == reflect.Ptr {
			ptr := reflect.New(field.IndirectFieldType)
			ptr.Elem().Set(converted)
			fieldValue.Set(ptr)
		} else {
			fieldValue.Set(converted)
		}
		return nil
	}
}

func convertTo(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	switch {
	case rv.Type().AssignableTo(t):
		return rv, nil
	case rv.Kind() == reflect.String && t.Kind() != reflect.String:
		return parseString(rv.String(), t)
	case rv.Type().ConvertibleTo(t) && rv.Kind() != reflect.String:
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("incompatible type %s", rv.Type())
}

func parseString(s string, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	switch {
	case t == UUIDReflectType:
		id, err := uuid.Parse(s)
		if err != nil {
			return out, err
		}
		out.Set(reflect.ValueOf(id))
	case t == TimeReflectType:
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return out, err
		}
		out.Set(reflect.ValueOf(ts))
	case t.Kind() == reflect.Bool:
		out.SetBool(utils.CheckTruth(s))
	case t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return out, err
		}
		out.SetInt(n)
	case t.Kind() >= reflect.Uint && t.Kind() <= reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return out, err
		}
		out.SetUint(n)
	case t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return out, err
		}
		out.SetFloat(f)
	default:
		return out, fmt.Errorf("cannot parse %q into %s", s, t)
	}
	return out, nil
}

// OptionLabel resolves the label of an option set value through the field's
// enum companion, ok is false when the field has no companion
func (field *Field) OptionLabel(value int, languageCode int) (label string, ok bool) {
	if field.DataType != OptionSet || field.IndirectFieldType.Kind() > reflect.Uint64 {
		return "", false
	}

	ev := reflect.New(field.IndirectFieldType)
	switch kind := field.IndirectFieldType.Kind(); {
	case kind >= reflect.Int && kind <= reflect.Int64:
		ev.Elem().SetInt(int64(value))
	case kind >= reflect.Uint && kind <= reflect.Uint64:
		ev.Elem().SetUint(uint64(value))
	default:
		return "", false
	}

	if implements(field.IndirectFieldType, labelerType) {
		if l, ok := ev.Interface().(Labeler); ok {
			return l.Label(languageCode), true
		}
	}
	if s, ok := ev.Interface().(fmt.Stringer); ok {
		return s.String(), true
	}
	return "", false
}
