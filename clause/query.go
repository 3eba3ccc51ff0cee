package clause

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrEmptyAttributeList by attribute query without attributes
	ErrEmptyAttributeList = errors.New("attribute list is empty")
	// ErrAttributeValueCountMismatch by attribute query with different attribute and value counts
	ErrAttributeValueCountMismatch = errors.New("attribute and value counts differ")
)

// Order sorts the result, Alias targets an aggregate alias and EntityName a linked alias
type Order struct {
	AttributeName string
	Alias         string
	EntityName    string
	Descending    bool
}

// Key the attribute key an order reads
func (o Order) Key() string {
	switch {
	case o.Alias != "":
		return strings.ToLower(o.Alias)
	case o.EntityName != "":
		return strings.ToLower(o.EntityName) + "." + strings.ToLower(o.AttributeName)
	}
	return strings.ToLower(o.AttributeName)
}

func (o Order) Build(builder Builder) {
	builder.WriteString(o.Key())
	if o.Descending {
		builder.WriteString(" DESC")
	}
}

// PageInfo paging of a query, PageNumber starts at 1
type PageInfo struct {
	Count                  int
	PageNumber             int
	ReturnTotalRecordCount bool
}

// Query the canonical query every query shape reduces to
type Query struct {
	EntityName   string
	ColumnSet    ColumnSet
	Criteria     Filter
	LinkEntities []Link
	Orders       []Order
	PageInfo     *PageInfo
	TopCount     int
	Distinct     bool
	Aggregate    bool
	Aggregates   []AggregateColumn
}

// NewQuery creates a query over every column of an entity
func NewQuery(entityName string) Query {
	return Query{EntityName: strings.ToLower(entityName), ColumnSet: AllColumns()}
}

func (q Query) TargetEntity() string { return q.EntityName }

func (Query) isQueryBase() {}

// AddLink append a link, LinkFromEntityName defaults to the queried entity
func (q *Query) AddLink(link Link) *Query {
	if link.LinkFromEntityName == "" {
		link.LinkFromEntityName = q.EntityName
	}
	q.LinkEntities = append(q.LinkEntities, link)
	return q
}

// AddOrder append an order
func (q *Query) AddOrder(attribute string, descending bool) *Query {
	q.Orders = append(q.Orders, Order{AttributeName: strings.ToLower(attribute), Descending: descending})
	return q
}

func (q Query) Build(builder Builder) {
	builder.WriteString("SELECT ")
	if q.Distinct {
		builder.WriteString("DISTINCT ")
	}
	if q.TopCount > 0 {
		builder.WriteString("TOP ")
		builder.WriteString(strconv.Itoa(q.TopCount))
		builder.WriteByte(' ')
	}
	if q.Aggregate {
		for idx, a := range q.Aggregates {
			if idx > 0 {
				builder.WriteString(", ")
			}
			a.Build(builder)
		}
	} else {
		q.ColumnSet.Build(builder)
	}
	builder.WriteString(" FROM ")
	builder.WriteString(q.EntityName)
	for _, link := range q.LinkEntities {
		builder.WriteByte(' ')
		link.Build(builder)
	}
	if !q.Criteria.Empty() {
		builder.WriteString(" WHERE ")
		q.Criteria.Build(builder)
	}
	if len(q.Orders) > 0 {
		builder.WriteString(" ORDER BY ")
		for idx, o := range q.Orders {
			if idx > 0 {
				builder.WriteByte(',')
			}
			o.Build(builder)
		}
	}
	if q.PageInfo != nil && q.PageInfo.Count > 0 {
		builder.WriteString(" PAGE ")
		builder.WriteString(strconv.Itoa(q.PageInfo.PageNumber))
		builder.WriteString(" SIZE ")
		builder.WriteString(strconv.Itoa(q.PageInfo.Count))
	}
}

// ByAttribute equality shorthand, Attributes[i] must equal Values[i]
type ByAttribute struct {
	EntityName string
	Attributes []string
	Values     []interface{}
	ColumnSet  ColumnSet
	Orders     []Order
	TopCount   int
}

func (q ByAttribute) TargetEntity() string { return strings.ToLower(q.EntityName) }

func (ByAttribute) isQueryBase() {}

// ToQuery rewrites the shorthand into an all AND query
func (q ByAttribute) ToQuery() (Query, error) {
	if len(q.Attributes) == 0 {
		return Query{}, ErrEmptyAttributeList
	}
	if len(q.Attributes) != len(q.Values) {
		return Query{}, ErrAttributeValueCountMismatch
	}

	query := Query{
		EntityName: strings.ToLower(q.EntityName),
		ColumnSet:  q.ColumnSet,
		Orders:     q.Orders,
		TopCount:   q.TopCount,
	}
	for idx, attribute := range q.Attributes {
		query.Criteria.AddCondition(attribute, Equal, q.Values[idx])
	}
	return query, nil
}

func (q ByAttribute) Build(builder Builder) {
	if query, err := q.ToQuery(); err == nil {
		query.Build(builder)
		return
	}
	builder.WriteString("BY ATTRIBUTE ")
	builder.WriteString(q.EntityName)
}

// FetchExpression a hierarchical fetch document
type FetchExpression struct {
	Query string
}

func (FetchExpression) TargetEntity() string { return "" }

func (FetchExpression) isQueryBase() {}

func (q FetchExpression) Build(builder Builder) {
	builder.WriteString("FETCH ")
	builder.WriteString(strings.Join(strings.Fields(q.Query), " "))
}
