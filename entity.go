package orgsim

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim/schema"
)

// OptionSetValue option set attribute value
type OptionSetValue struct {
	Value int
}

func (OptionSetValue) OrgsimDataType() schema.DataType { return schema.OptionSet }

// Money currency attribute value
type Money struct {
	Value float64
}

func (Money) OrgsimDataType() schema.DataType { return schema.Money }

// EntityReference points at another record
type EntityReference struct {
	LogicalName string
	ID          uuid.UUID
	Name        string
}

func (EntityReference) OrgsimDataType() schema.DataType { return schema.Lookup }

// NewReference creates a reference to a record
func NewReference(logicalName string, id uuid.UUID) EntityReference {
	return EntityReference{LogicalName: strings.ToLower(logicalName), ID: id}
}

func (r EntityReference) String() string {
	return fmt.Sprintf("%s(%s)", r.LogicalName, r.ID)
}

// AliasedValue an attribute read through a link or an aggregate
type AliasedValue struct {
	EntityLogicalName    string
	AttributeLogicalName string
	Value                interface{}
}

// EntityCollection a set of records
type EntityCollection struct {
	EntityName       string
	Entities         []*Entity
	MoreRecords      bool
	TotalRecordCount int
}

func (*EntityCollection) OrgsimDataType() schema.DataType { return schema.PartyList }

// Clone deep copies the collection
func (c *EntityCollection) Clone() *EntityCollection {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Entities = make([]*Entity, len(c.Entities))
	for idx, e := range c.Entities {
		clone.Entities[idx] = e.Clone()
	}
	return &clone
}

// Entity a dynamically typed record
type Entity struct {
	LogicalName     string
	ID              uuid.UUID
	Attributes      map[string]interface{}
	FormattedValues map[string]string
	RelatedEntities map[string]*EntityCollection
	KeyAttributes   map[string]interface{}
}

// NewEntity creates an empty record of a type
func NewEntity(logicalName string) *Entity {
	return &Entity{
		LogicalName:     strings.ToLower(logicalName),
		Attributes:      map[string]interface{}{},
		FormattedValues: map[string]string{},
	}
}

// Set assigns an attribute, keys are case-insensitive
func (e *Entity) Set(name string, value interface{}) *Entity {
	if e.Attributes == nil {
		e.Attributes = map[string]interface{}{}
	}
	e.Attributes[strings.ToLower(name)] = normalizeValue(value)
	return e
}

// Get returns an attribute value
func (e *Entity) Get(name string) (interface{}, bool) {
	v, ok := e.Attributes[strings.ToLower(name)]
	if !ok {
		for k, value := range e.Attributes {
			if strings.EqualFold(k, name) {
				return value, true
			}
		}
	}
	return v, ok
}

// Contains reports whether the attribute is present with a non nil value
func (e *Entity) Contains(name string) bool {
	v, ok := e.Get(name)
	return ok && v != nil
}

// GetString returns a string attribute, empty when absent
func (e *Entity) GetString(name string) string {
	v, _ := e.Get(name)
	if s, ok := unalias(v).(string); ok {
		return s
	}
	return ""
}

// GetReference returns a lookup attribute
func (e *Entity) GetReference(name string) (EntityReference, bool) {
	v, _ := e.Get(name)
	ref, ok := unalias(v).(EntityReference)
	return ref, ok
}

// GetOptionSetValue returns an option set attribute
func (e *Entity) GetOptionSetValue(name string) (OptionSetValue, bool) {
	v, _ := e.Get(name)
	o, ok := unalias(v).(OptionSetValue)
	return o, ok
}

// GetMoney returns a money attribute
func (e *Entity) GetMoney(name string) (Money, bool) {
	v, _ := e.Get(name)
	m, ok := unalias(v).(Money)
	return m, ok
}

// GetTime returns a date attribute
func (e *Entity) GetTime(name string) (time.Time, bool) {
	v, _ := e.Get(name)
	t, ok := unalias(v).(time.Time)
	return t, ok
}

// ToReference returns a reference to the record
func (e *Entity) ToReference() EntityReference {
	return EntityReference{LogicalName: e.LogicalName, ID: e.ID}
}

// Clone deep copies the record
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}

	clone := &Entity{
		LogicalName:     e.LogicalName,
		ID:              e.ID,
		Attributes:      make(map[string]interface{}, len(e.Attributes)),
		FormattedValues: make(map[string]string, len(e.FormattedValues)),
	}
	for k, v := range e.Attributes {
		clone.Attributes[k] = cloneValue(v)
	}
	for k, v := range e.FormattedValues {
		clone.FormattedValues[k] = v
	}
	if e.RelatedEntities != nil {
		clone.RelatedEntities = make(map[string]*EntityCollection, len(e.RelatedEntities))
		for k, v := range e.RelatedEntities {
			clone.RelatedEntities[k] = v.Clone()
		}
	}
	if e.KeyAttributes != nil {
		clone.KeyAttributes = make(map[string]interface{}, len(e.KeyAttributes))
		for k, v := range e.KeyAttributes {
			clone.KeyAttributes[k] = cloneValue(v)
		}
	}
	return clone
}

func cloneValue(v interface{}) interface{} {
	switch value := v.(type) {
	case *Entity:
		return value.Clone()
	case *EntityCollection:
		return value.Clone()
	case AliasedValue:
		value.Value = cloneValue(value.Value)
		return value
	case []byte:
		return append([]byte(nil), value...)
	case []interface{}:
		values := make([]interface{}, len(value))
		for idx, item := range value {
			values[idx] = cloneValue(item)
		}
		return values
	case []EntityReference:
		return append([]EntityReference(nil), value...)
	}
	return v
}

// normalizeValue stores pointer value types by value and nil pointers as nil
func normalizeValue(v interface{}) interface{} {
	switch value := v.(type) {
	case *OptionSetValue:
		if value == nil {
			return nil
		}
		return *value
	case *Money:
		if value == nil {
			return nil
		}
		return *value
	case *EntityReference:
		if value == nil {
			return nil
		}
		return *value
	case *time.Time:
		if value == nil {
			return nil
		}
		return *value
	case *uuid.UUID:
		if value == nil {
			return nil
		}
		return *value
	case *string:
		if value == nil {
			return nil
		}
		return *value
	case *int:
		if value == nil {
			return nil
		}
		return *value
	case *float64:
		if value == nil {
			return nil
		}
		return *value
	case *bool:
		if value == nil {
			return nil
		}
		return *value
	case *EntityCollection:
		if value == nil {
			return nil
		}
	}
	return v
}

func unalias(v interface{}) interface{} {
	if a, ok := v.(AliasedValue); ok {
		return a.Value
	}
	return v
}

// normalizeAttributes lower cases attribute keys, rejecting keys that only differ by case
func normalizeAttributes(e *Entity) error {
	normalized := make(map[string]interface{}, len(e.Attributes))
	for k, v := range e.Attributes {
		key := strings.ToLower(k)
		if _, ok := normalized[key]; ok {
			return newFault(ErrInvalidArgument, CodeInvalidArgument, "attribute '%s' is specified more than once on '%s'", key, e.LogicalName)
		}
		normalized[key] = normalizeValue(v)
	}
	e.Attributes = normalized
	e.LogicalName = strings.ToLower(e.LogicalName)
	return nil
}

// idOf extracts a record id from ids, references and id strings
func idOf(v interface{}) (uuid.UUID, bool) {
	switch value := unalias(v).(type) {
	case uuid.UUID:
		return value, value != uuid.Nil
	case EntityReference:
		return value.ID, value.ID != uuid.Nil
	case *Entity:
		return value.ID, value != nil && value.ID != uuid.Nil
	case string:
		id, err := uuid.Parse(value)
		return id, err == nil && id != uuid.Nil
	}
	return uuid.Nil, false
}
