package orgsim

import (
	"context"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim/clause"
)

// Create inserts a record and returns its id
func (db *DB) Create(ctx context.Context, e *Entity) (uuid.UUID, error) {
	stmt := db.create(ctx, e)
	if stmt.Fault != nil {
		return uuid.Nil, stmt.Fault
	}
	return stmt.ID, nil
}

// Retrieve returns a copy of a record with the requested columns
func (db *DB) Retrieve(ctx context.Context, logicalName string, id uuid.UUID, columns clause.ColumnSet) (*Entity, error) {
	stmt := db.retrieve(ctx, logicalName, id, columns)
	if stmt.Fault != nil {
		return nil, stmt.Fault
	}
	return stmt.Results[0], nil
}

// RetrieveMultiple runs a query, by attribute query or fetch expression
func (db *DB) RetrieveMultiple(ctx context.Context, query clause.QueryBase) (*EntityCollection, error) {
	stmt := db.retrieveMultiple(ctx, query)
	if stmt.Fault != nil {
		return nil, stmt.Fault
	}
	return stmt.collection(), nil
}

// Update merges the attributes of e into the stored record
func (db *DB) Update(ctx context.Context, e *Entity) error {
	return db.update(ctx, e).Fault
}

// Delete removes a record and the join records referencing it
func (db *DB) Delete(ctx context.Context, logicalName string, id uuid.UUID) error {
	return db.delete(ctx, logicalName, id).Fault
}

// Associate links a record to related records through a relationship
func (db *DB) Associate(ctx context.Context, logicalName string, id uuid.UUID, relationship string, related []EntityReference) error {
	return db.associate(ctx, OperationAssociate, logicalName, id, relationship, related).Fault
}

// Disassociate removes the links created by Associate
func (db *DB) Disassociate(ctx context.Context, logicalName string, id uuid.UUID, relationship string, related []EntityReference) error {
	return db.associate(ctx, OperationDisassociate, logicalName, id, relationship, related).Fault
}

func (db *DB) create(ctx context.Context, e *Entity) *Statement {
	if e == nil {
		stmt := db.newStatement(ctx, OperationCreate, "")
		stmt.AddFault(newFault(ErrInvalidArgument, CodeInvalidArgument, "Required field 'Target' is missing"))
		db.callbacks.Create().Execute(stmt)
		return stmt
	}

	stmt := db.newStatement(ctx, OperationCreate, e.LogicalName)
	stmt.Entity = e.Clone()
	switch {
	case stmt.LogicalName == "":
		stmt.AddFault(newFault(ErrInvalidArgument, CodeInvalidArgument, "The entity logical name is required"))
	default:
		if err := normalizeAttributes(stmt.Entity); err != nil {
			stmt.AddFault(err)
			break
		}
		pidAttr := db.primaryIDAttribute(stmt.LogicalName)
		if pid, ok := idOf(stmt.Entity.Attributes[pidAttr]); ok {
			if stmt.Entity.ID != uuid.Nil && stmt.Entity.ID != pid {
				stmt.AddFault(newFault(ErrInvalidArgument, CodeInvalidArgument, "Entity Id %s must be the same as the value set in the %s attribute %s", stmt.Entity.ID, pidAttr, pid))
				break
			}
			stmt.Entity.ID = pid
			stmt.Entity.Attributes[pidAttr] = pid
		}
	}

	db.callbacks.Create().Execute(stmt)
	return stmt
}

func (db *DB) retrieve(ctx context.Context, logicalName string, id uuid.UUID, columns clause.ColumnSet) *Statement {
	stmt := db.newStatement(ctx, OperationRetrieve, logicalName)
	stmt.ID = id
	stmt.Query = &clause.Query{EntityName: stmt.LogicalName, ColumnSet: columns}
	if id == uuid.Nil {
		stmt.AddFault(newFault(ErrInvalidArgument, CodeInvalidArgument, "Expected non-empty Guid."))
	}

	db.callbacks.Retrieve().Execute(stmt)
	return stmt
}

func (db *DB) retrieveMultiple(ctx context.Context, query clause.QueryBase) *Statement {
	q, err := db.reduceQuery(query)
	if err != nil {
		stmt := db.newStatement(ctx, OperationRetrieveMultiple, "")
		stmt.AddFault(err)
		db.callbacks.Retrieve().Execute(stmt)
		return stmt
	}

	stmt := db.newStatement(ctx, OperationRetrieveMultiple, q.EntityName)
	stmt.Query = &q
	db.callbacks.Retrieve().Execute(stmt)
	return stmt
}

func (db *DB) update(ctx context.Context, e *Entity) *Statement {
	if e == nil {
		stmt := db.newStatement(ctx, OperationUpdate, "")
		stmt.AddFault(newFault(ErrInvalidArgument, CodeInvalidArgument, "Required field 'Target' is missing"))
		db.callbacks.Update().Execute(stmt)
		return stmt
	}

	stmt := db.newStatement(ctx, OperationUpdate, e.LogicalName)
	stmt.Entity = e.Clone()
	if stmt.LogicalName == "" {
		stmt.AddFault(newFault(ErrInvalidArgument, CodeInvalidArgument, "The entity logical name is required"))
	} else if err := normalizeAttributes(stmt.Entity); err != nil {
		stmt.AddFault(err)
	}

	db.callbacks.Update().Execute(stmt)
	return stmt
}

func (db *DB) delete(ctx context.Context, logicalName string, id uuid.UUID) *Statement {
	stmt := db.newStatement(ctx, OperationDelete, logicalName)
	stmt.ID = id
	if id == uuid.Nil {
		stmt.AddFault(newFault(ErrInvalidArgument, CodeInvalidArgument, "Expected non-empty Guid."))
	}

	db.callbacks.Delete().Execute(stmt)
	return stmt
}

func (db *DB) associate(ctx context.Context, op Operation, logicalName string, id uuid.UUID, relationship string, related []EntityReference) *Statement {
	stmt := db.newStatement(ctx, op, logicalName)
	stmt.ID = id
	stmt.Relationship = relationship
	stmt.Related = related
	if id == uuid.Nil {
		stmt.AddFault(newFault(ErrInvalidArgument, CodeInvalidArgument, "Expected non-empty Guid."))
	}

	if op == OperationDisassociate {
		db.callbacks.Disassociate().Execute(stmt)
	} else {
		db.callbacks.Associate().Execute(stmt)
	}
	return stmt
}

func (stmt *Statement) collection() *EntityCollection {
	return &EntityCollection{
		EntityName:       stmt.LogicalName,
		Entities:         stmt.Results,
		MoreRecords:      stmt.MoreRecords,
		TotalRecordCount: stmt.TotalRecordCount,
	}
}
