package orgsim

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim/clause"
	"github.com/orgsim/orgsim/schema"
)

// Operation name of a statement's operation
type Operation string

const (
	OperationCreate           Operation = "Create"
	OperationRetrieve         Operation = "Retrieve"
	OperationRetrieveMultiple Operation = "RetrieveMultiple"
	OperationUpdate           Operation = "Update"
	OperationDelete           Operation = "Delete"
	OperationAssociate        Operation = "Associate"
	OperationDisassociate     Operation = "Disassociate"
)

// Phase position of a statement in the mutation pipeline
type Phase int

const (
	PhaseValidating Phase = iota
	PhasePopulating
	PhaseCommitting
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "Validating"
	case PhasePopulating:
		return "Populating"
	case PhaseCommitting:
		return "Committing"
	case PhaseDone:
		return "Done"
	}
	return "Failed"
}

// Statement state of one operation flowing through the callbacks
type Statement struct {
	DB        *DB
	Context   context.Context
	Operation Operation
	Phase     Phase

	// Entity incoming record for create and update, a working copy
	Entity *Entity
	// Target merged record an update will store
	Target *Entity
	// Existing stored record before update or delete
	Existing *Entity
	// LogicalName and ID identify the record for delete and retrieve
	LogicalName string
	ID          uuid.UUID

	Schema *schema.Schema
	Table  *Table

	// Relationship and Related of associate and disassociate statements
	Relationship string
	Related      []EntityReference

	// Query and Results of retrieve statements
	Query            *clause.Query
	Results          []*Entity
	MoreRecords      bool
	TotalRecordCount int

	// Fault the delayed fault of the statement, once set later callbacks skip
	Fault        error
	RowsAffected int64

	// SkipPopulate stores the record without system fields, used by join records
	SkipPopulate bool
	// SkipValidation skips attribute and reference checks, used by join records
	SkipValidation bool

	nested bool
}

func (db *DB) newStatement(ctx context.Context, op Operation, logicalName string) *Statement {
	if ctx == nil {
		ctx = context.Background()
	}
	logicalName = strings.ToLower(logicalName)
	stmt := &Statement{
		DB:          db,
		Context:     ctx,
		Operation:   op,
		Phase:       PhaseValidating,
		LogicalName: logicalName,
	}
	if logicalName != "" {
		stmt.Table = db.Table(logicalName)
		stmt.Schema, _ = db.Schema(logicalName)
	}
	return stmt
}

// AddFault sets the delayed fault, keeping the first one
func (stmt *Statement) AddFault(err error) {
	if err == nil {
		return
	}
	if stmt.Fault == nil {
		stmt.Fault = err
	}
	stmt.Phase = PhaseFailed
}

// HasAttribute reports whether the statement's record type declares the
// attribute, always true for record types without a registered schema
func (stmt *Statement) HasAttribute(name string) bool {
	return stmt.Schema == nil || stmt.Schema.HasAttribute(name)
}

func (stmt *Statement) describe() string {
	switch {
	case stmt.Query != nil:
		return string(stmt.Operation) + " " + clause.String(*stmt.Query)
	case stmt.ID != uuid.Nil:
		return string(stmt.Operation) + " " + stmt.LogicalName + " " + stmt.ID.String()
	}
	return string(stmt.Operation) + " " + stmt.LogicalName
}
