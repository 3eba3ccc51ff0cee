package orgsim

import (
	"github.com/google/uuid"
	"github.com/orgsim/orgsim/schema"
)

func registerDefaultCallbacks(cs *callbacks) {
	createCallback := cs.Create()
	createCallback.Register("orgsim:validate_attributes", ValidateAttributes)
	createCallback.Register("orgsim:validate_references", ValidateReferences)
	createCallback.Register("orgsim:simulate_rules", SimulateRules)
	createCallback.Register("orgsim:populate_system_fields", PopulateCreate)
	createCallback.Register("orgsim:commit", CommitCreate)

	updateCallback := cs.Update()
	updateCallback.Register("orgsim:load_existing", LoadExisting)
	updateCallback.Register("orgsim:validate_attributes", ValidateAttributes)
	updateCallback.Register("orgsim:validate_references", ValidateReferences)
	updateCallback.Register("orgsim:merge", MergeUpdate)
	updateCallback.Register("orgsim:simulate_rules", SimulateRules)
	updateCallback.Register("orgsim:populate_system_fields", PopulateUpdate)
	updateCallback.Register("orgsim:commit", CommitUpdate)

	deleteCallback := cs.Delete()
	deleteCallback.Register("orgsim:load_existing", LoadExisting)
	deleteCallback.Register("orgsim:simulate_rules", SimulateRules)
	deleteCallback.Register("orgsim:commit", CommitDelete)
	deleteCallback.Register("orgsim:delete_associations", DeleteAssociations)

	cs.Associate().Register("orgsim:associate", Associate)
	cs.Disassociate().Register("orgsim:disassociate", Disassociate)

	retrieveCallback := cs.Retrieve()
	retrieveCallback.Register("orgsim:query", Query)
	retrieveCallback.Register("orgsim:reference_names", ReferenceNames)
	retrieveCallback.Register("orgsim:formatted_values", FormattedValues)
}

// ValidateAttributes every attribute must be declared by the record's schema
// and hold a value of the declared kind
func ValidateAttributes(stmt *Statement) {
	if stmt.Fault != nil || stmt.SkipValidation || stmt.Schema == nil || stmt.Entity == nil {
		return
	}

	for key, value := range stmt.Entity.Attributes {
		field := stmt.Schema.FieldsByLogicalName[key]
		if field == nil {
			stmt.AddFault(errUnknownAttribute(stmt.LogicalName, key))
			return
		}
		if value != nil && !valueFits(field.DataType, value) {
			stmt.AddFault(newFault(ErrInvalidArgument, CodeInvalidArgument, "Incorrect type of attribute value %T for attribute '%s' of type %s", value, key, field.DataType))
			return
		}
	}
}

func valueFits(dataType schema.DataType, value interface{}) bool {
	switch dataType {
	case schema.Lookup:
		_, ok := value.(EntityReference)
		return ok
	case schema.OptionSet:
		_, ok := value.(OptionSetValue)
		return ok
	case schema.Money:
		_, ok := value.(Money)
		return ok
	case schema.PartyList:
		_, ok := value.(*EntityCollection)
		return ok
	case schema.UniqueIdentifier:
		_, ok := value.(uuid.UUID)
		return ok
	}
	return true
}

// ValidateReferences every reference must point at an existing record
func ValidateReferences(stmt *Statement) {
	if stmt.Fault != nil || stmt.SkipValidation || stmt.Entity == nil {
		return
	}

	for _, value := range stmt.Entity.Attributes {
		if fault := stmt.DB.checkReferenceValue(value); fault != nil {
			stmt.AddFault(fault)
			return
		}
	}
}

func (db *DB) checkReferenceValue(value interface{}) *Fault {
	switch v := value.(type) {
	case EntityReference:
		if v.LogicalName == "" || v.ID == uuid.Nil {
			return nil
		}
		if t, ok := db.lookupTable(v.LogicalName); !ok || !t.Contains(v.ID) {
			return newFault(ErrReferencedRecordMissing, CodeObjectDoesNotExist, "%s With Id = %s Does Not Exist", v.LogicalName, v.ID)
		}
	case *EntityCollection:
		if v == nil {
			return nil
		}
		for _, party := range v.Entities {
			for _, pv := range party.Attributes {
				if fault := db.checkReferenceValue(pv); fault != nil {
					return fault
				}
			}
		}
	}
	return nil
}

// SimulateRules evaluates the business rules against the change
func SimulateRules(stmt *Statement) {
	if stmt.Fault != nil || stmt.SkipValidation {
		return
	}

	change := Change{Operation: stmt.Operation, Before: stmt.Existing, Incoming: stmt.Entity}
	switch stmt.Operation {
	case OperationCreate:
		change.After = stmt.Entity
	case OperationUpdate:
		change.After = stmt.Target
	}

	result, err := stmt.DB.evaluateRules(stmt.Context, change)
	if err != nil {
		stmt.AddFault(wrapFault(ErrRuleViolation, CodeUnexpected, err))
		return
	}

	for _, v := range result.Violations {
		if v.Severity == SeverityWarn {
			stmt.DB.Logger.Warn(stmt.Context, "rule %s on %s: %s", v.Rule, change.LogicalName(), v.Message)
		}
	}
	if v, ok := result.Blocking(); ok {
		stmt.AddFault(newFault(ErrRuleViolation, v.Code, "%s", v.Message))
	}
}

// LoadExisting loads the stored record an update or delete applies to
func LoadExisting(stmt *Statement) {
	if stmt.Fault != nil {
		return
	}

	if stmt.ID == uuid.Nil && stmt.Entity != nil {
		id, err := stmt.DB.resolveID(stmt.Entity)
		if err != nil {
			stmt.AddFault(err)
			return
		}
		stmt.ID = id
	}

	existing, ok := stmt.Table.Get(stmt.ID)
	if !ok {
		stmt.AddFault(errRecordNotFound(stmt.LogicalName, stmt.ID))
		return
	}
	stmt.Existing = existing
	if stmt.Entity != nil {
		stmt.Entity.ID = stmt.ID
	}
}

// resolveID finds the id of the record an incoming entity addresses, through
// its id, its primary id attribute or its alternate key attributes
func (db *DB) resolveID(e *Entity) (uuid.UUID, error) {
	pidAttr := db.primaryIDAttribute(e.LogicalName)
	pid, hasPid := idOf(e.Attributes[pidAttr])

	switch {
	case e.ID != uuid.Nil && hasPid && pid != e.ID:
		return uuid.Nil, newFault(ErrInvalidArgument, CodeInvalidArgument, "Entity Id %s must be the same as the value set in the %s attribute %s", e.ID, pidAttr, pid)
	case e.ID != uuid.Nil:
		return e.ID, nil
	case hasPid:
		return pid, nil
	case len(e.KeyAttributes) > 0:
		if id, ok := db.findByKey(e.LogicalName, e.KeyAttributes); ok {
			return id, nil
		}
		return uuid.Nil, newFault(ErrRecordNotFound, CodeObjectDoesNotExist, "A record with the specified key values does not exist in %s entity", e.LogicalName)
	}
	return uuid.Nil, newFault(ErrInvalidArgument, CodeInvalidArgument, "Entity Id must be specified for Operation on %s", e.LogicalName)
}

// findByKey locates a record by alternate key values
func (db *DB) findByKey(logicalName string, keys map[string]interface{}) (uuid.UUID, bool) {
	t, ok := db.lookupTable(logicalName)
	if !ok {
		return uuid.Nil, false
	}
	e, ok := t.find(func(e *Entity) bool {
		for k, v := range keys {
			stored, ok := e.Get(k)
			if !ok {
				return false
			}
			if c, ok := compareValues(stored, v); !ok || c != 0 {
				return false
			}
		}
		return true
	})
	if !ok {
		return uuid.Nil, false
	}
	return e.ID, true
}
