package orgsim

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

var fullNameParts = []string{"firstname", "middlename", "lastname"}

// PopulateCreate stamps the system fields of a new record
func PopulateCreate(stmt *Statement) {
	if stmt.Fault != nil {
		return
	}
	stmt.Phase = PhasePopulating
	if stmt.SkipPopulate {
		return
	}

	var (
		db     = stmt.DB
		e      = stmt.Entity
		now    = db.now()
		caller = db.CallerReference()
	)

	if !e.Contains("fullname") && stmt.HasAttribute("fullname") && containsAny(e, fullNameParts) {
		e.Set("fullname", db.fullName(e))
	}

	createdOn := now
	if t, ok := e.GetTime("overriddencreatedon"); ok {
		createdOn = t.UTC().Truncate(time.Second)
	}
	setSystemField(stmt, "createdon", createdOn)
	setSystemField(stmt, "modifiedon", now)
	setSystemField(stmt, "createdby", caller)
	setSystemField(stmt, "modifiedby", caller)
	if delegate, ok := db.delegateReference(); ok {
		setSystemField(stmt, "createdonbehalfby", delegate)
		setSystemField(stmt, "modifiedonbehalfby", delegate)
	}

	if stmt.HasAttribute("ownerid") && !e.Contains("ownerid") {
		e.Set("ownerid", caller)
	}
	if stmt.HasAttribute("owningbusinessunit") && !e.Contains("owningbusinessunit") {
		if owner, ok := e.GetReference("ownerid"); ok {
			e.Set("owningbusinessunit", db.owningBusinessUnitOf(owner))
		}
	}

	if stmt.HasAttribute("statecode") && !e.Contains("statecode") {
		e.Set("statecode", OptionSetValue{Value: 0})
	}
	if stmt.HasAttribute("statuscode") && !e.Contains("statuscode") {
		e.Set("statuscode", OptionSetValue{Value: 1})
	}
}

// CommitCreate assigns the id and inserts the record
func CommitCreate(stmt *Statement) {
	if stmt.Fault != nil {
		return
	}
	stmt.Phase = PhaseCommitting

	e := stmt.Entity
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	stmt.ID = e.ID
	if pidAttr := stmt.DB.primaryIDAttribute(stmt.LogicalName); stmt.HasAttribute(pidAttr) {
		e.Attributes[pidAttr] = e.ID
	}

	if err := stmt.Table.Insert(prepareForCommit(e)); err != nil {
		stmt.AddFault(err)
		return
	}
	stmt.RowsAffected = 1
}

func setSystemField(stmt *Statement, name string, value interface{}) {
	if stmt.HasAttribute(name) {
		stmt.Entity.Set(name, value)
	}
}

// prepareForCommit strips what is not an attribute and truncates dates to the second
func prepareForCommit(e *Entity) *Entity {
	e.FormattedValues = map[string]string{}
	e.KeyAttributes = nil
	e.RelatedEntities = nil
	for k, v := range e.Attributes {
		switch value := v.(type) {
		case nil:
			delete(e.Attributes, k)
		case time.Time:
			e.Attributes[k] = value.UTC().Truncate(time.Second)
		case EntityReference:
			value.Name = ""
			e.Attributes[k] = value
		}
	}
	return e
}

func containsAny(e *Entity, names []string) bool {
	for _, name := range names {
		if e.Contains(name) {
			return true
		}
	}
	return false
}

// fullName renders the full name template, F first name, M middle name, L last name
func (db *DB) fullName(e *Entity) string {
	var sb strings.Builder
	for _, r := range db.FullNameFormat {
		switch r {
		case 'F':
			sb.WriteString(e.GetString("firstname"))
		case 'M':
			sb.WriteString(e.GetString("middlename"))
		case 'L':
			sb.WriteString(e.GetString("lastname"))
		default:
			sb.WriteRune(r)
		}
	}
	return strings.Trim(strings.Join(strings.Fields(sb.String()), " "), " ,")
}

func (db *DB) delegateReference() (EntityReference, bool) {
	if db.CallerOnBehalfOfID == uuid.Nil {
		return EntityReference{}, false
	}
	return NewReference("systemuser", db.CallerOnBehalfOfID), true
}

// owningBusinessUnitOf the business unit of the owning user or team
func (db *DB) owningBusinessUnitOf(owner EntityReference) EntityReference {
	if t, ok := db.lookupTable(owner.LogicalName); ok {
		if record, ok := t.Get(owner.ID); ok {
			if bu, ok := record.GetReference("businessunitid"); ok {
				return NewReference("businessunit", bu.ID)
			}
		}
	}
	return NewReference("businessunit", db.BusinessUnitID)
}
