package orgsim

import (
	"context"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim/clause"
)

// RequestKind names an operation of the execute catalog
type RequestKind string

const (
	RequestCreate           RequestKind = "Create"
	RequestRetrieve         RequestKind = "Retrieve"
	RequestRetrieveMultiple RequestKind = "RetrieveMultiple"
	RequestUpdate           RequestKind = "Update"
	RequestDelete           RequestKind = "Delete"
	RequestUpsert           RequestKind = "Upsert"
	RequestAssociate        RequestKind = "Associate"
	RequestDisassociate     RequestKind = "Disassociate"
	RequestAssign           RequestKind = "Assign"
	RequestSetState         RequestKind = "SetState"
	RequestCloseIncident    RequestKind = "CloseIncident"
	RequestWhoAmI           RequestKind = "WhoAmI"
	RequestExecuteMultiple  RequestKind = "ExecuteMultiple"
)

// IncidentResolvedState statecode of a resolved incident
const IncidentResolvedState = 1

// IncidentProblemSolvedStatus default statuscode of a resolved incident
const IncidentProblemSolvedStatus = 5

// Request one entry of the execute catalog, Kind selects the fields read
type Request struct {
	Kind RequestKind

	// Target record of Create, Update and Upsert
	Target *Entity
	// Reference record of Retrieve, Delete, Associate, Disassociate, Assign and SetState
	Reference EntityReference
	ColumnSet clause.ColumnSet
	Query     clause.QueryBase

	Relationship    string
	RelatedEntities []EntityReference

	// Assignee new owner of Assign
	Assignee EntityReference
	// State and Status of SetState, Status of CloseIncident
	State  OptionSetValue
	Status OptionSetValue

	// IncidentResolution activity created by CloseIncident, its incidentid names the incident
	IncidentResolution *Entity

	Requests []Request
	Settings ExecuteMultipleSettings
}

// ExecuteMultipleSettings batch behavior of ExecuteMultiple
type ExecuteMultipleSettings struct {
	ContinueOnError bool
	ReturnResponses bool
}

// Response result of Execute, Kind matches the request
type Response struct {
	Kind RequestKind

	ID               uuid.UUID
	Entity           *Entity
	EntityCollection *EntityCollection
	// RecordCreated reports whether Upsert created the record
	RecordCreated bool

	UserID         uuid.UUID
	BusinessUnitID uuid.UUID
	OrganizationID uuid.UUID

	Responses []ExecuteMultipleResponseItem
	IsFaulted bool
}

// ExecuteMultipleResponseItem outcome of one request of a batch
type ExecuteMultipleResponseItem struct {
	RequestIndex int
	Response     *Response
	Fault        *Fault
}

type requestHandler func(db *DB, ctx context.Context, req Request) (*Response, error)

var requestHandlers map[RequestKind]requestHandler

func init() {
	requestHandlers = map[RequestKind]requestHandler{
		RequestCreate:           executeCreate,
		RequestRetrieve:         executeRetrieve,
		RequestRetrieveMultiple: executeRetrieveMultiple,
		RequestUpdate:           executeUpdate,
		RequestDelete:           executeDelete,
		RequestUpsert:           executeUpsert,
		RequestAssociate:        executeAssociate,
		RequestDisassociate:     executeDisassociate,
		RequestAssign:           executeAssign,
		RequestSetState:         executeSetState,
		RequestCloseIncident:    executeCloseIncident,
		RequestWhoAmI:           executeWhoAmI,
		RequestExecuteMultiple:  executeMultiple,
	}
}

// Execute dispatches a request of the execute catalog
func (db *DB) Execute(ctx context.Context, req Request) (*Response, error) {
	handler, ok := requestHandlers[req.Kind]
	if !ok {
		return nil, newFault(ErrUnsupportedRequest, CodeNotSupported, "The request %s is not supported", req.Kind)
	}
	resp, err := handler(db, ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Kind = req.Kind
	return resp, nil
}

func executeCreate(db *DB, ctx context.Context, req Request) (*Response, error) {
	id, err := db.Create(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	return &Response{ID: id}, nil
}

func executeRetrieve(db *DB, ctx context.Context, req Request) (*Response, error) {
	e, err := db.Retrieve(ctx, req.Reference.LogicalName, req.Reference.ID, req.ColumnSet)
	if err != nil {
		return nil, err
	}
	return &Response{Entity: e, ID: e.ID}, nil
}

func executeRetrieveMultiple(db *DB, ctx context.Context, req Request) (*Response, error) {
	collection, err := db.RetrieveMultiple(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	return &Response{EntityCollection: collection}, nil
}

func executeUpdate(db *DB, ctx context.Context, req Request) (*Response, error) {
	if err := db.Update(ctx, req.Target); err != nil {
		return nil, err
	}
	return &Response{ID: req.Target.ID}, nil
}

func executeDelete(db *DB, ctx context.Context, req Request) (*Response, error) {
	if err := db.Delete(ctx, req.Reference.LogicalName, req.Reference.ID); err != nil {
		return nil, err
	}
	return &Response{ID: req.Reference.ID}, nil
}

// executeUpsert updates the record the target addresses by id or alternate
// key, or creates it with its key values when none exists
func executeUpsert(db *DB, ctx context.Context, req Request) (*Response, error) {
	if req.Target == nil {
		return nil, newFault(ErrInvalidArgument, CodeInvalidArgument, "Required field 'Target' is missing")
	}

	target := req.Target.Clone()
	if err := normalizeAttributes(target); err != nil {
		return nil, err
	}
	if id, err := db.resolveID(target); err == nil {
		if t, ok := db.lookupTable(target.LogicalName); ok && t.Contains(id) {
			target.ID = id
			if err := db.Update(ctx, target); err != nil {
				return nil, err
			}
			return &Response{ID: id}, nil
		}
		target.ID = id
	}

	for k, v := range target.KeyAttributes {
		if !target.Contains(k) {
			target.Set(k, v)
		}
	}
	id, err := db.Create(ctx, target)
	if err != nil {
		return nil, err
	}
	return &Response{ID: id, RecordCreated: true}, nil
}

func executeAssociate(db *DB, ctx context.Context, req Request) (*Response, error) {
	if err := db.Associate(ctx, req.Reference.LogicalName, req.Reference.ID, req.Relationship, req.RelatedEntities); err != nil {
		return nil, err
	}
	return &Response{ID: req.Reference.ID}, nil
}

func executeDisassociate(db *DB, ctx context.Context, req Request) (*Response, error) {
	if err := db.Disassociate(ctx, req.Reference.LogicalName, req.Reference.ID, req.Relationship, req.RelatedEntities); err != nil {
		return nil, err
	}
	return &Response{ID: req.Reference.ID}, nil
}

// executeAssign sets the owner, the update derives the owning business unit
func executeAssign(db *DB, ctx context.Context, req Request) (*Response, error) {
	if req.Assignee.ID == uuid.Nil || req.Assignee.LogicalName == "" {
		return nil, newFault(ErrInvalidArgument, CodeInvalidArgument, "Required field 'Assignee' is missing")
	}
	e := NewEntity(req.Reference.LogicalName)
	e.ID = req.Reference.ID
	e.Set("ownerid", NewReference(req.Assignee.LogicalName, req.Assignee.ID))
	if err := db.Update(ctx, e); err != nil {
		return nil, err
	}
	return &Response{ID: e.ID}, nil
}

func executeSetState(db *DB, ctx context.Context, req Request) (*Response, error) {
	e := NewEntity(req.Reference.LogicalName)
	e.ID = req.Reference.ID
	e.Set("statecode", req.State).Set("statuscode", req.Status)
	if err := db.Update(ctx, e); err != nil {
		return nil, err
	}
	return &Response{ID: e.ID}, nil
}

// executeCloseIncident creates the resolution activity and resolves the incident
func executeCloseIncident(db *DB, ctx context.Context, req Request) (*Response, error) {
	if req.IncidentResolution == nil {
		return nil, newFault(ErrInvalidArgument, CodeInvalidArgument, "Required field 'IncidentResolution' is missing")
	}
	incidentRef, ok := req.IncidentResolution.GetReference("incidentid")
	if !ok || incidentRef.ID == uuid.Nil {
		return nil, newFault(ErrInvalidArgument, CodeInvalidArgument, "The incident resolution must reference an incident through incidentid")
	}

	incident, err := db.Retrieve(ctx, "incident", incidentRef.ID, clause.Columns("statecode"))
	if err != nil {
		return nil, err
	}
	if state, ok := incident.GetOptionSetValue("statecode"); ok && state.Value == IncidentResolvedState {
		return nil, newFault(ErrRuleViolation, CodeBusinessRule, "This case has already been resolved. Close and reopen the case record to see the updates.")
	}

	resolution := req.IncidentResolution.Clone()
	resolution.LogicalName = "incidentresolution"
	id, err := db.Create(ctx, resolution)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status.Value == 0 {
		status.Value = IncidentProblemSolvedStatus
	}
	update := NewEntity("incident")
	update.ID = incidentRef.ID
	update.Set("statecode", OptionSetValue{Value: IncidentResolvedState}).Set("statuscode", status)
	if err := db.Update(ctx, update); err != nil {
		return nil, err
	}
	return &Response{ID: id}, nil
}

func executeWhoAmI(db *DB, _ context.Context, _ Request) (*Response, error) {
	return &Response{
		UserID:         db.CallerID,
		BusinessUnitID: db.BusinessUnitID,
		OrganizationID: db.OrganizationID,
	}, nil
}

// executeMultiple runs a batch, capturing the fault of each request
func executeMultiple(db *DB, ctx context.Context, req Request) (*Response, error) {
	resp := &Response{}
	for idx, item := range req.Requests {
		if item.Kind == RequestExecuteMultiple {
			return nil, newFault(ErrInvalidArgument, CodeInvalidArgument, "ExecuteMultiple cannot contain an ExecuteMultiple request")
		}

		itemResp, err := db.Execute(ctx, item)
		if err != nil {
			fault, ok := AsFault(err)
			if !ok {
				fault = wrapFault(err, CodeUnexpected, err)
			}
			resp.IsFaulted = true
			resp.Responses = append(resp.Responses, ExecuteMultipleResponseItem{RequestIndex: idx, Fault: fault})
			if !req.Settings.ContinueOnError {
				break
			}
			continue
		}
		if req.Settings.ReturnResponses {
			resp.Responses = append(resp.Responses, ExecuteMultipleResponseItem{RequestIndex: idx, Response: itemResp})
		}
	}
	return resp, nil
}
