package orgsim_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim"
	"github.com/orgsim/orgsim/clause"
	. "github.com/orgsim/orgsim/utils/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteWhoAmI(t *testing.T) {
	db := OpenDB(t, nil)

	resp, err := db.Execute(context.Background(), orgsim.Request{Kind: orgsim.RequestWhoAmI})
	require.NoError(t, err)
	assert.Equal(t, orgsim.RequestWhoAmI, resp.Kind)
	assert.Equal(t, db.CallerID, resp.UserID)
	assert.Equal(t, db.BusinessUnitID, resp.BusinessUnitID)
	assert.Equal(t, db.OrganizationID, resp.OrganizationID)
}

func TestExecuteCrud(t *testing.T) {
	db := OpenDB(t, nil)
	ctx := context.Background()

	created, err := db.Execute(ctx, orgsim.Request{Kind: orgsim.RequestCreate, Target: orgsim.NewEntity("account").Set("name", "Contoso")})
	require.NoError(t, err)
	ref := orgsim.NewReference("account", created.ID)

	retrieved, err := db.Execute(ctx, orgsim.Request{Kind: orgsim.RequestRetrieve, Reference: ref, ColumnSet: clause.Columns("name")})
	require.NoError(t, err)
	assert.Equal(t, "Contoso", retrieved.Entity.GetString("name"))

	update := orgsim.NewEntity("account").Set("name", "Fabrikam")
	update.ID = created.ID
	_, err = db.Execute(ctx, orgsim.Request{Kind: orgsim.RequestUpdate, Target: update})
	require.NoError(t, err)

	query := clause.NewQuery("account")
	query.ColumnSet = clause.Columns("name")
	multiple, err := db.Execute(ctx, orgsim.Request{Kind: orgsim.RequestRetrieveMultiple, Query: query})
	require.NoError(t, err)
	require.Len(t, multiple.EntityCollection.Entities, 1)
	assert.Equal(t, "Fabrikam", multiple.EntityCollection.Entities[0].GetString("name"))

	_, err = db.Execute(ctx, orgsim.Request{Kind: orgsim.RequestDelete, Reference: ref})
	require.NoError(t, err)
	assert.Equal(t, 0, db.Table("account").Len())
}

func TestExecuteUnsupported(t *testing.T) {
	db := OpenDB(t, nil)

	_, err := db.Execute(context.Background(), orgsim.Request{Kind: "PublishAllXml"})
	fault := AssertFault(t, err, orgsim.ErrUnsupportedRequest, orgsim.CodeNotSupported)
	assert.Contains(t, fault.Message, "PublishAllXml")
}

func TestExecuteAssign(t *testing.T) {
	db := OpenDB(t, nil)
	ctx := context.Background()

	division := MustCreate(t, db, orgsim.NewEntity("businessunit").Set("name", "Division"))
	user := MustCreate(t, db, orgsim.NewEntity("systemuser").Set("fullname", "Assignee").Set("businessunitid", orgsim.NewReference("businessunit", division)))
	account := MustCreate(t, db, orgsim.NewEntity("account").Set("name", "Contoso"))

	_, err := db.Execute(ctx, orgsim.Request{
		Kind:      orgsim.RequestAssign,
		Reference: orgsim.NewReference("account", account),
		Assignee:  orgsim.NewReference("systemuser", user),
	})
	require.NoError(t, err)

	stored := MustRetrieve(t, db, "account", account)
	owner, _ := stored.GetReference("ownerid")
	bu, _ := stored.GetReference("owningbusinessunit")
	assert.Equal(t, user, owner.ID)
	assert.Equal(t, division, bu.ID)

	_, err = db.Execute(ctx, orgsim.Request{Kind: orgsim.RequestAssign, Reference: orgsim.NewReference("account", account)})
	AssertFault(t, err, orgsim.ErrInvalidArgument, orgsim.CodeInvalidArgument)
}

func TestExecuteSetState(t *testing.T) {
	db := OpenDB(t, nil)
	account := MustCreate(t, db, orgsim.NewEntity("account").Set("name", "Contoso"))

	_, err := db.Execute(context.Background(), orgsim.Request{
		Kind:      orgsim.RequestSetState,
		Reference: orgsim.NewReference("account", account),
		State:     orgsim.OptionSetValue{Value: 1},
		Status:    orgsim.OptionSetValue{Value: 2},
	})
	require.NoError(t, err)

	stored := MustRetrieve(t, db, "account", account)
	state, _ := stored.GetOptionSetValue("statecode")
	status, _ := stored.GetOptionSetValue("statuscode")
	assert.Equal(t, 1, state.Value)
	assert.Equal(t, 2, status.Value)
}

func TestExecuteCloseIncident(t *testing.T) {
	db := OpenDB(t, nil)
	ctx := context.Background()

	account := MustCreate(t, db, orgsim.NewEntity("account").Set("name", "Contoso"))
	incident := MustCreate(t, db, orgsim.NewEntity("incident").Set("title", "Broken").Set("customerid", orgsim.NewReference("account", account)))
	closeCase := orgsim.Request{
		Kind: orgsim.RequestCloseIncident,
		IncidentResolution: orgsim.NewEntity("incidentresolution").
			Set("subject", "Fixed").
			Set("incidentid", orgsim.NewReference("incident", incident)),
	}

	resp, err := db.Execute(ctx, closeCase)
	require.NoError(t, err)
	assert.True(t, db.Table("incidentresolution").Contains(resp.ID))

	stored := MustRetrieve(t, db, "incident", incident)
	state, _ := stored.GetOptionSetValue("statecode")
	status, _ := stored.GetOptionSetValue("statuscode")
	assert.Equal(t, orgsim.IncidentResolvedState, state.Value)
	assert.Equal(t, orgsim.IncidentProblemSolvedStatus, status.Value)

	_, err = db.Execute(ctx, closeCase)
	fault := AssertFault(t, err, orgsim.ErrRuleViolation, orgsim.CodeBusinessRule)
	assert.Contains(t, fault.Message, "already been resolved")
	assert.Equal(t, 1, db.Table("incidentresolution").Len())

	_, err = db.Execute(ctx, orgsim.Request{Kind: orgsim.RequestCloseIncident, IncidentResolution: orgsim.NewEntity("incidentresolution")})
	AssertFault(t, err, orgsim.ErrInvalidArgument, orgsim.CodeInvalidArgument)
}

func TestExecuteUpsert(t *testing.T) {
	db := OpenDB(t, nil)
	ctx := context.Background()

	target := orgsim.NewEntity("account").Set("name", "Contoso")
	target.KeyAttributes = map[string]interface{}{"accountnumber": "A-1"}

	created, err := db.Execute(ctx, orgsim.Request{Kind: orgsim.RequestUpsert, Target: target})
	require.NoError(t, err)
	assert.True(t, created.RecordCreated)
	assert.Equal(t, "A-1", MustRetrieve(t, db, "account", created.ID).GetString("accountnumber"))

	target.Set("name", "Fabrikam")
	updated, err := db.Execute(ctx, orgsim.Request{Kind: orgsim.RequestUpsert, Target: target})
	require.NoError(t, err)
	assert.False(t, updated.RecordCreated)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Fabrikam", MustRetrieve(t, db, "account", created.ID).GetString("name"))
	assert.Equal(t, 1, db.Table("account").Len())

	byID := orgsim.NewEntity("account").Set("name", "Northwind")
	byID.ID = uuid.New()
	resp, err := db.Execute(ctx, orgsim.Request{Kind: orgsim.RequestUpsert, Target: byID})
	require.NoError(t, err)
	assert.True(t, resp.RecordCreated)
	assert.Equal(t, byID.ID, resp.ID)
}

func TestExecuteMultiple(t *testing.T) {
	batch := []orgsim.Request{
		{Kind: orgsim.RequestCreate, Target: orgsim.NewEntity("account").Set("name", "Contoso")},
		{Kind: orgsim.RequestCreate, Target: orgsim.NewEntity("incident").Set("title", "No customer")},
		{Kind: orgsim.RequestCreate, Target: orgsim.NewEntity("account").Set("name", "Fabrikam")},
	}

	t.Run("StopOnError", func(t *testing.T) {
		db := OpenDB(t, nil)
		resp, err := db.Execute(context.Background(), orgsim.Request{
			Kind:     orgsim.RequestExecuteMultiple,
			Requests: batch,
			Settings: orgsim.ExecuteMultipleSettings{ReturnResponses: true},
		})
		require.NoError(t, err)
		assert.True(t, resp.IsFaulted)
		require.Len(t, resp.Responses, 2)
		assert.Equal(t, 0, resp.Responses[0].RequestIndex)
		assert.NotNil(t, resp.Responses[0].Response)
		assert.Equal(t, 1, resp.Responses[1].RequestIndex)
		require.NotNil(t, resp.Responses[1].Fault)
		assert.ErrorIs(t, resp.Responses[1].Fault, orgsim.ErrRuleViolation)
		assert.Equal(t, 1, db.Table("account").Len())
	})

	t.Run("ContinueOnError", func(t *testing.T) {
		db := OpenDB(t, nil)
		resp, err := db.Execute(context.Background(), orgsim.Request{
			Kind:     orgsim.RequestExecuteMultiple,
			Requests: batch,
			Settings: orgsim.ExecuteMultipleSettings{ContinueOnError: true},
		})
		require.NoError(t, err)
		assert.True(t, resp.IsFaulted)
		require.Len(t, resp.Responses, 1, "only faults are returned without ReturnResponses")
		assert.Equal(t, 1, resp.Responses[0].RequestIndex)
		assert.Equal(t, 2, db.Table("account").Len())
	})

	t.Run("Nested", func(t *testing.T) {
		db := OpenDB(t, nil)
		_, err := db.Execute(context.Background(), orgsim.Request{
			Kind:     orgsim.RequestExecuteMultiple,
			Requests: []orgsim.Request{{Kind: orgsim.RequestExecuteMultiple}},
		})
		AssertFault(t, err, orgsim.ErrInvalidArgument, orgsim.CodeInvalidArgument)
	})
}
