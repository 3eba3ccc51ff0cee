package tests

import (
	"time"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim"
)

// Contact is a person (primary name fullname), owned by a user and optionally
// parented by an Account. Its option sets carry labels through ContactMethod
// and StateCode
type Contact struct {
	ContactID                  uuid.UUID               `orgsim:"contactid,primarykey"`
	FirstName                  string                  `orgsim:"firstname"`
	MiddleName                 string                  `orgsim:"middlename"`
	LastName                   string                  `orgsim:"lastname"`
	FullName                   string                  `orgsim:"fullname,primaryname"`
	EmailAddress1              string                  `orgsim:"emailaddress1"`
	BirthDate                  *time.Time              `orgsim:"birthdate"`
	NumberOfChildren           *int                    `orgsim:"numberofchildren"`
	DoNotEmail                 *bool                   `orgsim:"donotemail"`
	CreditLimit                *orgsim.Money           `orgsim:"creditlimit"`
	PreferredContactMethodCode *ContactMethod          `orgsim:"preferredcontactmethodcode"`
	ParentCustomerID           *orgsim.EntityReference `orgsim:"parentcustomerid"`
	SystemFields
}

func (Contact) EntityLogicalName() string { return "contact" }

// Account is an organization, it references its primary Contact
type Account struct {
	AccountID        uuid.UUID               `orgsim:"accountid,primarykey"`
	Name             string                  `orgsim:"name,primaryname"`
	Revenue          *orgsim.Money           `orgsim:"revenue"`
	PrimaryContactID *orgsim.EntityReference `orgsim:"primarycontactid"`
	SystemFields
}

func (Account) EntityLogicalName() string { return "account" }

// Incident is a case raised by a customer
type Incident struct {
	IncidentID uuid.UUID               `orgsim:"incidentid,primarykey"`
	Title      string                  `orgsim:"title,primaryname"`
	CustomerID *orgsim.EntityReference `orgsim:"customerid"`
	SystemFields
}

func (Incident) EntityLogicalName() string { return "incident" }

// Connection links two records, each side carrying a connection role
type Connection struct {
	ConnectionID  uuid.UUID               `orgsim:"connectionid,primarykey"`
	Name          string                  `orgsim:"name,primaryname"`
	Record1ID     *orgsim.EntityReference `orgsim:"record1id"`
	Record2ID     *orgsim.EntityReference `orgsim:"record2id"`
	Record1RoleID *orgsim.EntityReference `orgsim:"record1roleid"`
	Record2RoleID *orgsim.EntityReference `orgsim:"record2roleid"`
	SystemFields
}

func (Connection) EntityLogicalName() string { return "connection" }

// PhoneCall is an activity, its primary id attribute is activityid
type PhoneCall struct {
	ActivityID        uuid.UUID               `orgsim:"activityid"`
	Subject           string                  `orgsim:"subject,primaryname"`
	RegardingObjectID *orgsim.EntityReference `orgsim:"regardingobjectid"`
	ScheduledEnd      *time.Time              `orgsim:"scheduledend"`
	SystemFields
}

func (PhoneCall) EntityLogicalName() string { return "phonecall" }

// SystemFields the attributes stamped by the create and update pipeline,
// embedded in each record type
type SystemFields struct {
	CreatedOn           *time.Time              `orgsim:"createdon,readonly"`
	ModifiedOn          *time.Time              `orgsim:"modifiedon,readonly"`
	OverriddenCreatedOn *time.Time              `orgsim:"overriddencreatedon"`
	CreatedBy           *orgsim.EntityReference `orgsim:"createdby,readonly"`
	ModifiedBy          *orgsim.EntityReference `orgsim:"modifiedby,readonly"`
	CreatedOnBehalfBy   *orgsim.EntityReference `orgsim:"createdonbehalfby,readonly"`
	ModifiedOnBehalfBy  *orgsim.EntityReference `orgsim:"modifiedonbehalfby,readonly"`
	OwnerID             *orgsim.EntityReference `orgsim:"ownerid"`
	OwningBusinessUnit  *orgsim.EntityReference `orgsim:"owningbusinessunit,readonly"`
	StateCode           *StateCode              `orgsim:"statecode"`
	StatusCode          *StatusCode             `orgsim:"statuscode"`
}

// ContactMethod preferredcontactmethodcode option set
type ContactMethod int

const (
	ContactMethodAny ContactMethod = iota + 1
	ContactMethodEmail
	ContactMethodPhone
)

func (c ContactMethod) String() string {
	switch c {
	case ContactMethodAny:
		return "Any"
	case ContactMethodEmail:
		return "Email"
	case ContactMethodPhone:
		return "Phone"
	}
	return ""
}

func (c ContactMethod) Label(languageCode int) string {
	if languageCode == 1031 {
		switch c {
		case ContactMethodAny:
			return "Beliebig"
		case ContactMethodEmail:
			return "E-Mail"
		case ContactMethodPhone:
			return "Telefon"
		}
	}
	return c.String()
}

// StateCode statecode option set
type StateCode int

const (
	StateActive StateCode = iota
	StateInactive
)

func (s StateCode) String() string {
	if s == StateInactive {
		return "Inactive"
	}
	return "Active"
}

// StatusCode statuscode option set
type StatusCode int

func (s StatusCode) String() string {
	switch s {
	case 1:
		return "Active"
	case 2:
		return "Inactive"
	case 5:
		return "Problem Solved"
	}
	return ""
}
