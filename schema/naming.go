package schema

import (
	"strings"

	"github.com/jinzhu/inflection"
)

// NamingStrategy logical names, entity set names naming strategy
type NamingStrategy struct {
	// SingularEntitySets keeps entity set names equal to the logical name
	SingularEntitySets bool
}

// LogicalName convert a struct field name into an attribute logical name
func (ns NamingStrategy) LogicalName(fieldName string) string {
	return strings.ToLower(fieldName)
}

// EntitySetName convert a logical name into its collection name
func (ns NamingStrategy) EntitySetName(logicalName string) string {
	if ns.SingularEntitySets {
		return logicalName
	}
	return inflection.Plural(logicalName)
}

// PrimaryIDAttribute name of the attribute holding the record id
func (ns NamingStrategy) PrimaryIDAttribute(logicalName string, isActivity bool) string {
	if isActivity {
		return ActivityIDAttribute
	}
	return logicalName + "id"
}
