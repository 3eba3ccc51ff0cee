package orgsim

import "strings"

// PrimaryNameProvider resolves the display name attribute of a record type
type PrimaryNameProvider interface {
	PrimaryNameAttribute(logicalName string) string
}

// DefaultPrimaryNameProvider the naming conventions of the standard record types
type DefaultPrimaryNameProvider struct{}

// PrimaryNameAttribute fullname for people, title for cases, subject for activities, else name
func (DefaultPrimaryNameProvider) PrimaryNameAttribute(logicalName string) string {
	switch logicalName = strings.ToLower(logicalName); {
	case logicalName == "contact" || logicalName == "lead" || logicalName == "systemuser":
		return "fullname"
	case logicalName == "incident":
		return "title"
	case isActivityType(logicalName):
		return "subject"
	}
	return "name"
}

// PrimaryNameProviderFunc adapts a function to PrimaryNameProvider
type PrimaryNameProviderFunc func(logicalName string) string

func (fn PrimaryNameProviderFunc) PrimaryNameAttribute(logicalName string) string {
	return fn(logicalName)
}

// ManyToManyAssociationProvider resolves relationships that were never registered
type ManyToManyAssociationProvider interface {
	AssociationFor(relationshipName string) (AssociationInfo, bool)
}

// ManyToManyAssociationProviderFunc adapts a function to ManyToManyAssociationProvider
type ManyToManyAssociationProviderFunc func(relationshipName string) (AssociationInfo, bool)

func (fn ManyToManyAssociationProviderFunc) AssociationFor(relationshipName string) (AssociationInfo, bool) {
	return fn(relationshipName)
}

var activityTypes = map[string]bool{
	"activitypointer":            true,
	"appointment":                true,
	"email":                      true,
	"fax":                        true,
	"letter":                     true,
	"phonecall":                  true,
	"task":                       true,
	"recurringappointmentmaster": true,
	"socialactivity":             true,
	"campaignactivity":           true,
	"campaignresponse":           true,
	"serviceappointment":         true,
	"incidentresolution":         true,
	"opportunityclose":           true,
	"orderclose":                 true,
	"quoteclose":                 true,
}

func isActivityType(logicalName string) bool {
	return activityTypes[strings.ToLower(logicalName)]
}
