package orgsim

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim/schema"
)

// ToEntity converts a record struct into an entity, zero and read only fields are skipped
func (db *DB) ToEntity(model interface{}) (*Entity, error) {
	s, err := db.registry.Parse(model)
	if err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(model)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, fmt.Errorf("%w: nil %s", ErrInvalidArgument, s.Name)
	}

	e := NewEntity(s.LogicalName)
	for _, field := range s.Fields {
		value, zero := field.ValueOf(rv)
		if zero || field.ReadOnly {
			continue
		}
		if field.PrimaryKey {
			if id, ok := value.(uuid.UUID); ok {
				e.ID = id
			}
		}
		e.Set(field.LogicalName, attributeValue(field, value))
	}
	return e, nil
}

// attributeValue wraps struct field values into attribute value types
func attributeValue(field *schema.Field, value interface{}) interface{} {
	rv := reflect.ValueOf(value)
	switch field.DataType {
	case schema.OptionSet:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return OptionSetValue{Value: int(rv.Int())}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return OptionSetValue{Value: int(rv.Uint())}
		}
	case schema.Money:
		if rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64 {
			return Money{Value: rv.Float()}
		}
	}
	return value
}

// FromEntity copies the attributes of an entity into a record struct
func (db *DB) FromEntity(e *Entity, dest interface{}) error {
	s, err := db.registry.Parse(dest)
	if err != nil {
		return err
	}

	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("%w: FromEntity needs a non nil pointer, got %T", ErrInvalidArgument, dest)
	}

	for key, value := range e.Attributes {
		field := s.LookUpField(key)
		if field == nil {
			continue
		}
		if err := field.Set(rv, fieldValue(field, unalias(value))); err != nil {
			return err
		}
	}
	if s.PrimaryField != nil && e.ID != uuid.Nil {
		if _, zero := s.PrimaryField.ValueOf(rv); zero {
			return s.PrimaryField.Set(rv, e.ID)
		}
	}
	return nil
}

// fieldValue unwraps attribute value types the field cannot hold
func fieldValue(field *schema.Field, value interface{}) interface{} {
	if value != nil && reflect.TypeOf(value).AssignableTo(field.IndirectFieldType) {
		return value
	}
	switch v := value.(type) {
	case OptionSetValue:
		return v.Value
	case Money:
		return v.Value
	case EntityReference:
		return v.ID
	}
	return value
}
