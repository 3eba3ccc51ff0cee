package schema

import (
	"errors"
	"fmt"
	"go/ast"
	"reflect"
	"strings"
	"sync"
)

// ErrSchema record type cannot be mapped to a schema
var ErrSchema = errors.New("unsupported record schema")

// ErrFieldNotFound no field matches the requested name
var ErrFieldNotFound = errors.New("field not found")

// ActivityIDAttribute primary id attribute shared by every activity type
const ActivityIDAttribute = "activityid"

// Schema the attribute layout of one record type
type Schema struct {
	Name                 string
	LogicalName          string
	EntitySetName        string
	ModelType            reflect.Type
	PrimaryIDAttribute   string
	PrimaryNameAttribute string
	PrimaryField         *Field
	IsActivity           bool
	Fields               []*Field
	FieldsByName         map[string]*Field
	FieldsByLogicalName  map[string]*Field
	FieldsByLowerName    map[string]*Field
	namer                Namer
}

func (schema Schema) String() string {
	return fmt.Sprintf("%v.%v", schema.ModelType.PkgPath(), schema.ModelType.Name())
}

// LookUpField looks a field up by exact field name, then by logical name, then case-insensitively
func (schema Schema) LookUpField(name string) *Field {
	if field, ok := schema.FieldsByName[name]; ok {
		return field
	}
	if field, ok := schema.FieldsByLogicalName[name]; ok {
		return field
	}
	if field, ok := schema.FieldsByLowerName[strings.ToLower(name)]; ok {
		return field
	}
	return nil
}

// FieldFor is LookUpField returning ErrFieldNotFound naming the record type
func (schema Schema) FieldFor(name string) (*Field, error) {
	if field := schema.LookUpField(name); field != nil {
		return field, nil
	}
	return nil, fmt.Errorf("%w: %q on record type %s (%s)", ErrFieldNotFound, name, schema.Name, schema.LogicalName)
}

// LogicalNameOf returns the logical name of a field or logical name, ok is false when unknown
func (schema Schema) LogicalNameOf(name string) (string, bool) {
	if field := schema.LookUpField(name); field != nil {
		return field.LogicalName, true
	}
	return "", false
}

// HasAttribute reports whether the schema declares the logical name
func (schema Schema) HasAttribute(logicalName string) bool {
	_, ok := schema.FieldsByLogicalName[strings.ToLower(logicalName)]
	return ok
}

// Parse get the schema of a record type, computing it on first use
func Parse(dest interface{}, cacheStore *sync.Map, namer Namer) (*Schema, error) {
	if dest == nil {
		return nil, fmt.Errorf("%w: got nil", ErrSchema)
	}

	modelType := reflect.ValueOf(dest).Type()
	if t, ok := dest.(reflect.Type); ok {
		modelType = t
	}
	for modelType.Kind() == reflect.Slice || modelType.Kind() == reflect.Array || modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
	}

	if modelType.Kind() != reflect.Struct {
		if modelType.PkgPath() == "" {
			return nil, fmt.Errorf("%w: %+v", ErrSchema, dest)
		}
		return nil, fmt.Errorf("%w: %s.%s", ErrSchema, modelType.PkgPath(), modelType.Name())
	}

	if v, ok := cacheStore.Load(modelType); ok {
		return v.(*Schema), nil
	}

	if namer == nil {
		namer = NamingStrategy{}
	}

	tabler, ok := reflect.New(modelType).Interface().(Tabler)
	if !ok || tabler.EntityLogicalName() == "" {
		return nil, fmt.Errorf("%w: %s.%s has no EntityLogicalName", ErrSchema, modelType.PkgPath(), modelType.Name())
	}

	logicalName := strings.ToLower(tabler.EntityLogicalName())
	schema := &Schema{
		Name:                modelType.Name(),
		LogicalName:         logicalName,
		EntitySetName:       namer.EntitySetName(logicalName),
		ModelType:           modelType,
		FieldsByName:        map[string]*Field{},
		FieldsByLogicalName: map[string]*Field{},
		FieldsByLowerName:   map[string]*Field{},
		namer:               namer,
	}

	schema.parseFields(modelType, nil)

	for _, field := range schema.Fields {
		if v, ok := schema.FieldsByLogicalName[field.LogicalName]; ok {
			return nil, fmt.Errorf("%w: %s declares logical name %q on both %s and %s", ErrSchema, schema.Name, field.LogicalName, v.Name, field.Name)
		}
		schema.FieldsByName[field.Name] = field
		schema.FieldsByLogicalName[field.LogicalName] = field
		schema.FieldsByLowerName[field.LogicalName] = field
		if _, ok := schema.FieldsByLowerName[strings.ToLower(field.Name)]; !ok {
			schema.FieldsByLowerName[strings.ToLower(field.Name)] = field
		}

		if field.PrimaryKey && schema.PrimaryField == nil {
			schema.PrimaryField = field
		}
		if field.PrimaryName && schema.PrimaryNameAttribute == "" {
			schema.PrimaryNameAttribute = field.LogicalName
		}
	}

	_, schema.IsActivity = schema.FieldsByLogicalName[ActivityIDAttribute]
	schema.PrimaryIDAttribute = namer.PrimaryIDAttribute(logicalName, schema.IsActivity)
	if schema.PrimaryField == nil {
		schema.PrimaryField = schema.FieldsByLogicalName[schema.PrimaryIDAttribute]
	}
	if schema.PrimaryField != nil {
		schema.PrimaryField.PrimaryKey = true
	}

	// concurrent builds of the same type converge on the first stored schema
	if v, loaded := cacheStore.LoadOrStore(modelType, schema); loaded {
		return v.(*Schema), nil
	}

	return schema, nil
}

// parseFields appends the fields of t, embedded structs are flattened into
// their parent the way their fields are promoted
func (schema *Schema) parseFields(t reflect.Type, index []int) {
	for i := 0; i < t.NumField(); i++ {
		fieldStruct := t.Field(i)
		fieldStruct.Index = append(append([]int(nil), index...), fieldStruct.Index...)
		if fieldStruct.Anonymous {
			if fieldStruct.Type.Kind() == reflect.Struct && fieldStruct.Tag.Get("orgsim") != "-" {
				schema.parseFields(fieldStruct.Type, fieldStruct.Index)
			}
			continue
		}
		if !ast.IsExported(fieldStruct.Name) {
			continue
		}
		if field := schema.parseField(fieldStruct); field != nil {
			schema.Fields = append(schema.Fields, field)
		}
	}
}
