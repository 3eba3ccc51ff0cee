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

type accountFixture struct {
	db        *orgsim.DB
	contoso   uuid.UUID
	fabrikam  uuid.UUID
	adventure uuid.UUID
	northwind uuid.UUID
}

func seedAccounts(t *testing.T, config *orgsim.Config) accountFixture {
	db := OpenDB(t, config)
	return accountFixture{
		db: db,
		contoso: MustCreate(t, db, orgsim.NewEntity("account").Set("name", "Contoso").Set("address1_city", "Seattle").
			Set("revenue", orgsim.Money{Value: 5000}).Set("numberofemployees", 50).Set("lastonholdtime", Now)),
		fabrikam: MustCreate(t, db, orgsim.NewEntity("account").Set("name", "Fabrikam").Set("address1_city", "Redmond").
			Set("revenue", orgsim.Money{Value: 1500}).Set("numberofemployees", 10).Set("lastonholdtime", Now.AddDate(0, 0, -1))),
		adventure: MustCreate(t, db, orgsim.NewEntity("account").Set("name", "Adventure Works").Set("address1_city", "Seattle").
			Set("revenue", orgsim.Money{Value: 800}).Set("numberofemployees", 120)),
		northwind: MustCreate(t, db, orgsim.NewEntity("account").Set("name", "northwind").Set("address1_city", "Portland").
			Set("numberofemployees", 10)),
	}
}

func (f accountFixture) query(t *testing.T, q clause.QueryBase) *orgsim.EntityCollection {
	t.Helper()
	result, err := f.db.RetrieveMultiple(context.Background(), q)
	require.NoError(t, err, clause.String(q))
	return result
}

func names(collection *orgsim.EntityCollection) []string {
	var result []string
	for _, e := range collection.Entities {
		result = append(result, e.GetString("name"))
	}
	return result
}

func TestQueryByAttributeEmptyList(t *testing.T) {
	db := OpenDB(t, nil)

	_, err := db.RetrieveMultiple(context.Background(), clause.ByAttribute{EntityName: "contact"})
	require.ErrorIs(t, err, orgsim.ErrEmptyAttributeList)
	fault, ok := orgsim.AsFault(err)
	require.True(t, ok)
	assert.Equal(t, orgsim.CodeInvalidArgument, fault.Code)
	assert.NotContains(t, db.TableNames(), "contact", "the table must not be touched")

	_, err = db.RetrieveMultiple(context.Background(), clause.ByAttribute{
		EntityName: "contact",
		Attributes: []string{"firstname", "lastname"},
		Values:     []interface{}{"Jane"},
	})
	require.ErrorIs(t, err, orgsim.ErrAttributeValueCountMismatch)
}

func TestQueryByAttribute(t *testing.T) {
	f := seedAccounts(t, nil)

	result := f.query(t, clause.ByAttribute{
		EntityName: "account",
		Attributes: []string{"address1_city", "numberofemployees"},
		Values:     []interface{}{"seattle", 120},
		ColumnSet:  clause.Columns("name"),
	})
	assert.Equal(t, []string{"Adventure Works"}, names(result))
	assert.Equal(t, f.adventure, result.Entities[0].ID)
}

func TestQueryConditions(t *testing.T) {
	f := seedAccounts(t, nil)

	datas := []struct {
		name     string
		filter   clause.Filter
		expected []string
	}{
		{"equal folds case", filterOf(clause.NewCondition("name", clause.Equal, "CONTOSO")), []string{"Contoso"}},
		{"not equal", filterOf(clause.NewCondition("address1_city", clause.NotEqual, "Seattle")), []string{"Fabrikam", "northwind"}},
		{"money greater than number", filterOf(clause.NewCondition("revenue", clause.GreaterThan, 1000)), []string{"Contoso", "Fabrikam"}},
		{"less equal", filterOf(clause.NewCondition("numberofemployees", clause.LessEqual, 10)), []string{"Fabrikam", "northwind"}},
		{"in", filterOf(clause.NewCondition("address1_city", clause.In, "Portland", "redmond")), []string{"Fabrikam", "northwind"}},
		{"not in", filterOf(clause.NewCondition("address1_city", clause.NotIn, "Portland", "redmond")), []string{"Adventure Works", "Contoso"}},
		{"like", filterOf(clause.NewCondition("name", clause.Like, "%WORKS")), []string{"Adventure Works"}},
		{"like single character", filterOf(clause.NewCondition("name", clause.Like, "_ontoso")), []string{"Contoso"}},
		{"begins with", filterOf(clause.NewCondition("name", clause.BeginsWith, "con")), []string{"Contoso"}},
		{"ends with", filterOf(clause.NewCondition("name", clause.EndsWith, "WIND")), []string{"northwind"}},
		{"null", filterOf(clause.NewCondition("revenue", clause.Null)), []string{"northwind"}},
		{"not null", filterOf(clause.NewCondition("lastonholdtime", clause.NotNull)), []string{"Contoso", "Fabrikam"}},
		{"between", filterOf(clause.NewCondition("numberofemployees", clause.Between, 10, 50)), []string{"Contoso", "Fabrikam", "northwind"}},
		{"today", filterOf(clause.NewCondition("lastonholdtime", clause.Today)), []string{"Contoso"}},
		{"yesterday", filterOf(clause.NewCondition("lastonholdtime", clause.Yesterday)), []string{"Fabrikam"}},
		{"on", filterOf(clause.NewCondition("lastonholdtime", clause.On, Now.AddDate(0, 0, -1))), []string{"Fabrikam"}},
		{"on or after", filterOf(clause.NewCondition("lastonholdtime", clause.OnOrAfter, "2024-03-13")), []string{"Contoso", "Fabrikam"}},
		{"this year", filterOf(clause.NewCondition("lastonholdtime", clause.ThisYear)), []string{"Contoso", "Fabrikam"}},
		{"or", clause.Filter{
			FilterOperator: clause.Or,
			Conditions: []clause.Condition{
				clause.NewCondition("address1_city", clause.Equal, "Redmond"),
				clause.NewCondition("numberofemployees", clause.GreaterEqual, 100),
			},
		}, []string{"Adventure Works", "Fabrikam"}},
		{"nested", clause.Filter{
			Conditions: []clause.Condition{clause.NewCondition("address1_city", clause.Equal, "Seattle")},
			Filters: []clause.Filter{{
				FilterOperator: clause.Or,
				Conditions: []clause.Condition{
					clause.NewCondition("revenue", clause.LessThan, 1000),
					clause.NewCondition("name", clause.Equal, "Nobody"),
				},
			}},
		}, []string{"Adventure Works"}},
	}

	for _, data := range datas {
		t.Run(data.name, func(t *testing.T) {
			q := clause.NewQuery("account")
			q.Criteria = data.filter
			q.AddOrder("name", false)
			assert.Equal(t, data.expected, names(f.query(t, q)))
		})
	}
}

func filterOf(conditions ...clause.Condition) clause.Filter {
	return clause.Filter{Conditions: conditions}
}

func TestQueryOrdering(t *testing.T) {
	f := seedAccounts(t, nil)

	q := clause.NewQuery("account")
	q.AddOrder("name", false)
	assert.Equal(t, []string{"Adventure Works", "Contoso", "Fabrikam", "northwind"}, names(f.query(t, q)))

	q = clause.NewQuery("account")
	q.AddOrder("address1_city", false).AddOrder("revenue", true)
	assert.Equal(t, []string{"northwind", "Fabrikam", "Contoso", "Adventure Works"}, names(f.query(t, q)))

	q = clause.NewQuery("account")
	q.AddOrder("numberofemployees", false)
	assert.Equal(t, []string{"Fabrikam", "northwind", "Contoso", "Adventure Works"}, names(f.query(t, q)), "ties keep insertion order")
}

func TestQueryPaging(t *testing.T) {
	f := seedAccounts(t, nil)

	q := clause.NewQuery("account")
	q.AddOrder("name", false)
	q.PageInfo = &clause.PageInfo{Count: 3, PageNumber: 1, ReturnTotalRecordCount: true}
	first := f.query(t, q)
	assert.Equal(t, []string{"Adventure Works", "Contoso", "Fabrikam"}, names(first))
	assert.True(t, first.MoreRecords)
	assert.Equal(t, 4, first.TotalRecordCount)

	q.PageInfo = &clause.PageInfo{Count: 3, PageNumber: 2}
	second := f.query(t, q)
	assert.Equal(t, []string{"northwind"}, names(second))
	assert.False(t, second.MoreRecords)

	q.PageInfo = nil
	q.TopCount = 2
	assert.Equal(t, []string{"Adventure Works", "Contoso"}, names(f.query(t, q)))
}

func TestQueryProjection(t *testing.T) {
	f := seedAccounts(t, nil)

	q := clause.NewQuery("account")
	q.ColumnSet = clause.Columns("name", "revenue")
	q.Criteria.AddCondition("name", clause.Equal, "Contoso")
	result := f.query(t, q)

	require.Len(t, result.Entities, 1)
	contoso := result.Entities[0]
	assert.Equal(t, f.contoso, contoso.ID)
	assert.Len(t, contoso.Attributes, 2)
	assert.Equal(t, orgsim.Money{Value: 5000}, contoso.Attributes["revenue"])

	q = clause.NewQuery("account")
	q.ColumnSet = clause.Columns("address1_city")
	q.Distinct = true
	q.AddOrder("address1_city", false)
	assert.Len(t, f.query(t, q).Entities, 3)
}

func TestQueryLinkedColumnsSurviveProjection(t *testing.T) {
	f := seedAccounts(t, nil)
	jane := MustCreate(t, f.db, NewContact("Jane", "Doe").Set("parentcustomerid", orgsim.NewReference("account", f.contoso)))
	MustCreate(t, f.db, NewContact("John", "Roe").Set("parentcustomerid", orgsim.NewReference("account", f.fabrikam)))
	MustCreate(t, f.db, NewContact("Orphan", "Contact"))

	q := clause.NewQuery("contact")
	q.ColumnSet = clause.Columns("fullname")
	link := clause.NewLink("contact", "account", "parentcustomerid", "accountid", clause.Inner)
	link.EntityAlias = "acct"
	link.Columns = clause.Columns("name", "address1_city")
	q.AddLink(link)
	q.Criteria.Conditions = append(q.Criteria.Conditions, clause.Condition{EntityName: "acct", AttributeName: "address1_city", Operator: clause.Equal, Values: []interface{}{"seattle"}})

	result := f.query(t, q)
	require.Len(t, result.Entities, 1)
	contact := result.Entities[0]
	assert.Equal(t, jane, contact.ID)
	assert.Equal(t, "Jane Doe", contact.GetString("fullname"))

	aliased, ok := contact.Attributes["acct.name"].(orgsim.AliasedValue)
	require.True(t, ok)
	assert.Equal(t, "account", aliased.EntityLogicalName)
	assert.Equal(t, "name", aliased.AttributeLogicalName)
	assert.Equal(t, "Contoso", aliased.Value)
	assert.Equal(t, "Contoso", contact.GetString("acct.name"))
	assert.NotContains(t, contact.Attributes, "parentcustomerid")

	inner := clause.NewQuery("contact")
	inner.AddLink(clause.NewLink("contact", "account", "parentcustomerid", "accountid", clause.Inner))
	assert.Len(t, f.query(t, inner).Entities, 2, "inner joins drop unmatched rows")

	outer := clause.NewQuery("contact")
	outer.AddLink(clause.NewLink("contact", "account", "parentcustomerid", "accountid", clause.LeftOuter))
	assert.Len(t, f.query(t, outer).Entities, 3)
}

func TestQueryFetchExpression(t *testing.T) {
	f := seedAccounts(t, nil)

	result := f.query(t, clause.FetchExpression{Query: `
		<fetch>
		  <entity name="account">
		    <attribute name="name" />
		    <filter>
		      <condition attribute="revenue" operator="gt" value="1000" />
		    </filter>
		    <order attribute="name" descending="true" />
		  </entity>
		</fetch>`})
	assert.Equal(t, []string{"Fabrikam", "Contoso"}, names(result))

	_, err := f.db.RetrieveMultiple(context.Background(), clause.FetchExpression{Query: `<fetch><entity/></fetch>`})
	AssertFault(t, err, orgsim.ErrUnsupportedQueryShape, orgsim.CodeQueryBuilderInvalidQuery)
}

func TestQueryFetchLinkAliases(t *testing.T) {
	f := seedAccounts(t, nil)
	MustCreate(t, f.db, NewContact("Jane", "Doe").Set("parentcustomerid", orgsim.NewReference("account", f.contoso)))

	result := f.query(t, clause.FetchExpression{Query: `
		<fetch>
		  <entity name="contact">
		    <attribute name="fullname" />
		    <link-entity name="account" from="accountid" to="parentcustomerid">
		      <attribute name="name" />
		    </link-entity>
		  </entity>
		</fetch>`})
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "Contoso", result.Entities[0].GetString("account1.name"))
}

func TestQueryAggregate(t *testing.T) {
	f := seedAccounts(t, nil)

	result := f.query(t, clause.FetchExpression{Query: `
		<fetch aggregate="true">
		  <entity name="account">
		    <attribute name="address1_city" alias="city" groupby="true" />
		    <attribute name="accountid" alias="total" aggregate="count" />
		    <attribute name="numberofemployees" alias="staff" aggregate="sum" />
		    <attribute name="revenue" alias="top_revenue" aggregate="max" />
		    <order alias="city" />
		  </entity>
		</fetch>`})

	require.Len(t, result.Entities, 3)
	value := func(e *orgsim.Entity, alias string) interface{} {
		aliased, ok := e.Attributes[alias].(orgsim.AliasedValue)
		require.True(t, ok, alias)
		return aliased.Value
	}

	seattle := result.Entities[2]
	assert.Equal(t, "Seattle", value(seattle, "city"))
	assert.Equal(t, 2, value(seattle, "total"))
	assert.Equal(t, 170, value(seattle, "staff"))
	assert.Equal(t, orgsim.Money{Value: 5000}, value(seattle, "top_revenue"))
	assert.Equal(t, "Portland", value(result.Entities[0], "city"))
	assert.Nil(t, value(result.Entities[0], "top_revenue"))
}

func TestQueryValidatesAttributes(t *testing.T) {
	db := OpenDB(t, &orgsim.Config{Models: Models()})

	q := clause.NewQuery("contact")
	q.Criteria.AddCondition("nickname", clause.Equal, "JD")
	_, err := db.RetrieveMultiple(context.Background(), q)
	fault := AssertFault(t, err, orgsim.ErrUnknownField, orgsim.CodeQueryBuilderNoAttribute)
	assert.Equal(t, "'contact' entity doesn't contain attribute with Name = 'nickname'.", fault.Message)

	q = clause.NewQuery("contact")
	q.Criteria.Conditions = append(q.Criteria.Conditions, clause.Condition{EntityName: "missing", AttributeName: "name", Operator: clause.NotNull})
	_, err = db.RetrieveMultiple(context.Background(), q)
	AssertFault(t, err, orgsim.ErrUnsupportedQueryShape, orgsim.CodeQueryBuilderInvalidQuery)
}

func TestRetrieveIsIdempotentAndIndependent(t *testing.T) {
	f := seedAccounts(t, nil)
	ctx := context.Background()

	first, err := f.db.Retrieve(ctx, "account", f.contoso, clause.AllColumns())
	require.NoError(t, err)
	second, err := f.db.Retrieve(ctx, "account", f.contoso, clause.AllColumns())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	first.Set("name", "Mutated")
	first.FormattedValues["revenue"] = "mutated"
	assert.Equal(t, "Contoso", second.GetString("name"))
	assert.NotEqual(t, "mutated", second.FormattedValues["revenue"])

	third, err := f.db.Retrieve(ctx, "account", f.contoso, clause.AllColumns())
	require.NoError(t, err)
	assert.Equal(t, second, third)
}

func TestRetrieveErrors(t *testing.T) {
	db := OpenDB(t, nil)
	ctx := context.Background()

	_, err := db.Retrieve(ctx, "account", uuid.Nil, clause.AllColumns())
	AssertFault(t, err, orgsim.ErrInvalidArgument, orgsim.CodeInvalidArgument)

	id := uuid.New()
	_, err = db.Retrieve(ctx, "account", id, clause.AllColumns())
	fault := AssertFault(t, err, orgsim.ErrRecordNotFound, orgsim.CodeObjectDoesNotExist)
	assert.Equal(t, "account With Id = "+id.String()+" Does Not Exist", fault.Message)
}
