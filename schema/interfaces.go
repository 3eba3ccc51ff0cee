package schema

// Tabler is the identity token of a record type, returning its logical name
type Tabler interface {
	EntityLogicalName() string
}

// DataTypeInterface value types declare the attribute data type they carry
type DataTypeInterface interface {
	OrgsimDataType() DataType
}

// Labeler option set companions can render a label for a language code
type Labeler interface {
	Label(languageCode int) string
}

// Namer namer interface
type Namer interface {
	LogicalName(fieldName string) string
	EntitySetName(logicalName string) string
	PrimaryIDAttribute(logicalName string, isActivity bool) string
}
