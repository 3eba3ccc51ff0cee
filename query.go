package orgsim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim/clause"
	"github.com/orgsim/orgsim/fetch"
)

// reduceQuery translates every accepted query shape into a canonical query
func (db *DB) reduceQuery(base clause.QueryBase) (clause.Query, error) {
	switch q := base.(type) {
	case clause.Query:
		return q, nil
	case *clause.Query:
		if q != nil {
			return *q, nil
		}
	case clause.ByAttribute:
		query, err := q.ToQuery()
		if err != nil {
			return query, &Fault{Kind: err, Code: CodeInvalidArgument, Message: fmt.Sprintf("query by attribute on %s: %v", q.EntityName, err)}
		}
		return query, nil
	case *clause.ByAttribute:
		if q != nil {
			return db.reduceQuery(*q)
		}
	case clause.FetchExpression:
		query, err := db.registry.queries.Load(q.Query, fetch.Parse)
		if err != nil {
			return query, &Fault{Kind: ErrUnsupportedQueryShape, Code: CodeQueryBuilderInvalidQuery, Message: err.Error(), Err: err}
		}
		return query, nil
	case *clause.FetchExpression:
		if q != nil {
			return db.reduceQuery(*q)
		}
	}
	return clause.Query{}, newFault(ErrUnsupportedQueryShape, CodeQueryBuilderInvalidQuery, "unsupported query type %T", base)
}

// Query runs the statement's canonical query into Results
func Query(stmt *Statement) {
	if stmt.Fault != nil || stmt.Query == nil {
		return
	}

	db := stmt.DB
	q := *stmt.Query
	q.LinkEntities = cloneLinks(q.LinkEntities)
	if err := db.rewriteLinks(q.EntityName, q.LinkEntities); err != nil {
		stmt.AddFault(err)
		return
	}

	aliasTypes := map[string]string{q.EntityName: q.EntityName}
	for _, link := range flattenLinks(q.LinkEntities) {
		aliasTypes[link.Alias()] = link.LinkToEntityName
	}
	if fault := db.validateQuery(q, aliasTypes); fault != nil {
		stmt.AddFault(fault)
		return
	}

	var source []*Entity
	if t, ok := db.lookupTable(q.EntityName); ok {
		if stmt.ID != uuid.Nil {
			if e, ok := t.find(func(e *Entity) bool { return e.ID == stmt.ID }); ok {
				source = []*Entity{e}
			}
		} else {
			source = t.snapshot()
		}
	}
	if stmt.ID != uuid.Nil && len(source) == 0 {
		stmt.AddFault(errRecordNotFound(q.EntityName, stmt.ID))
		return
	}

	ref := db.now()
	rows := make([]row, 0, len(source))
	for _, e := range source {
		rows = append(rows, row{base: e})
	}
	for _, link := range q.LinkEntities {
		rows = db.join(rows, link, "", ref)
	}

	filtered := rows[:0]
	for _, r := range rows {
		if matchFilter(r, q.Criteria, ref) {
			filtered = append(filtered, r)
		}
	}
	rows = filtered

	var results []*Entity
	if q.Aggregate {
		results = aggregate(q, rows, aliasTypes)
		sortRecords(results, q.Orders, func(e *Entity, key string) (interface{}, bool) {
			v, ok := e.Get(key)
			return unalias(v), ok
		})
	} else {
		sortRecords(rows, rowOrders(q), row.value)
		results = make([]*Entity, 0, len(rows))
		for _, r := range rows {
			results = append(results, project(q, r))
		}
		if q.Distinct {
			results = distinctRecords(results)
		}
	}

	stmt.TotalRecordCount = len(results)
	switch {
	case q.TopCount > 0:
		if len(results) > q.TopCount {
			results = results[:q.TopCount]
		}
	case q.PageInfo != nil && q.PageInfo.Count > 0:
		page := q.PageInfo.PageNumber
		if page < 1 {
			page = 1
		}
		start, end := (page-1)*q.PageInfo.Count, page*q.PageInfo.Count
		if start > len(results) {
			start = len(results)
		}
		if end > len(results) {
			end = len(results)
		} else if end < len(results) {
			stmt.MoreRecords = true
		}
		results = results[start:end]
	}

	stmt.Results = results
	stmt.RowsAffected = int64(len(results))
}

// rowOrders the root orders followed by the orders of each link
func rowOrders(q clause.Query) []clause.Order {
	orders := append([]clause.Order(nil), q.Orders...)
	for _, link := range flattenLinks(q.LinkEntities) {
		for _, o := range link.Orders {
			if o.EntityName == "" && o.Alias == "" {
				o.EntityName = link.Alias()
			}
			orders = append(orders, o)
		}
	}
	return orders
}

// sortRecords stable multi key sort, absent values first when ascending
func sortRecords[T any](items []T, orders []clause.Order, value func(T, string) (interface{}, bool)) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, o := range orders {
			key := o.Key()
			a, aok := value(items[i], key)
			b, bok := value(items[j], key)
			if c := compareNullable(unalias(a), aok, unalias(b), bok); c != 0 {
				if o.Descending {
					return c > 0
				}
				return c < 0
			}
		}
		return false
	})
}

// project copies the requested columns of a row into an independent record,
// joined columns are kept as aliased values whatever the root projection
func project(q clause.Query, r row) *Entity {
	base := r.base
	e := &Entity{
		LogicalName:     base.LogicalName,
		ID:              base.ID,
		Attributes:      map[string]interface{}{},
		FormattedValues: map[string]string{},
	}
	if q.ColumnSet.AllColumns {
		for k, v := range base.Attributes {
			e.Attributes[k] = cloneValue(v)
		}
	} else {
		for _, column := range q.ColumnSet.Columns {
			if v, ok := base.Get(column); ok {
				e.Attributes[strings.ToLower(column)] = cloneValue(v)
			}
		}
	}

	for _, link := range flattenLinks(q.LinkEntities) {
		alias := link.Alias()
		linked := r.linked[alias]
		if linked == nil {
			continue
		}
		add := func(attribute string, v interface{}) {
			e.Attributes[alias+"."+attribute] = AliasedValue{EntityLogicalName: link.LinkToEntityName, AttributeLogicalName: attribute, Value: cloneValue(v)}
		}
		if link.Columns.AllColumns {
			for k, v := range linked.Attributes {
				add(k, v)
			}
			continue
		}
		for _, column := range link.Columns.Columns {
			if v, ok := attributeOf(linked, strings.ToLower(column)); ok {
				add(strings.ToLower(column), v)
			}
		}
	}
	return e
}

func distinctRecords(records []*Entity) []*Entity {
	var (
		seen     = map[string]bool{}
		distinct = records[:0]
	)
	for _, e := range records {
		keys := make([]string, 0, len(e.Attributes))
		for k := range e.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sb strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&sb, "%s=%v;", k, primitive(e.Attributes[k]))
		}
		if key := sb.String(); !seen[key] {
			seen[key] = true
			distinct = append(distinct, e)
		}
	}
	return distinct
}

// validateQuery every attribute the query reads must be declared by the schema
// of its record type, record types without a schema accept any attribute
func (db *DB) validateQuery(q clause.Query, aliasTypes map[string]string) *Fault {
	check := func(entityName, attribute string) *Fault {
		if attribute == "" {
			return nil
		}
		s, ok := db.Schema(entityName)
		if !ok || s.HasAttribute(attribute) || attribute == s.PrimaryIDAttribute {
			return nil
		}
		return errUnknownAttribute(entityName, attribute)
	}

	var checkFilter func(entityName string, f clause.Filter) *Fault
	checkFilter = func(entityName string, f clause.Filter) *Fault {
		for _, c := range f.Conditions {
			target := entityName
			if c.EntityName != "" {
				t, ok := aliasTypes[strings.ToLower(c.EntityName)]
				if !ok {
					return newFault(ErrUnsupportedQueryShape, CodeQueryBuilderInvalidQuery, "condition addresses unknown link alias '%s'", c.EntityName)
				}
				target = t
			}
			if fault := check(target, c.AttributeName); fault != nil {
				return fault
			}
		}
		for _, child := range f.Filters {
			if fault := checkFilter(entityName, child); fault != nil {
				return fault
			}
		}
		return nil
	}

	if !q.Aggregate {
		for _, column := range q.ColumnSet.Columns {
			if fault := check(q.EntityName, column); fault != nil {
				return fault
			}
		}
		for _, o := range q.Orders {
			if o.Alias != "" {
				continue
			}
			target := q.EntityName
			if o.EntityName != "" {
				target = aliasTypes[strings.ToLower(o.EntityName)]
			}
			if fault := check(target, o.AttributeName); fault != nil {
				return fault
			}
		}
	}
	if fault := checkFilter(q.EntityName, q.Criteria); fault != nil {
		return fault
	}

	var checkLinks func(parentType string, links []clause.Link) *Fault
	checkLinks = func(parentType string, links []clause.Link) *Fault {
		for _, link := range links {
			if fault := check(parentType, link.LinkFromAttributeName); fault != nil {
				return fault
			}
			if fault := check(link.LinkToEntityName, link.LinkToAttributeName); fault != nil {
				return fault
			}
			for _, column := range link.Columns.Columns {
				if fault := check(link.LinkToEntityName, column); fault != nil {
					return fault
				}
			}
			if fault := checkFilter(link.LinkToEntityName, link.LinkCriteria); fault != nil {
				return fault
			}
			if fault := checkLinks(link.LinkToEntityName, link.LinkEntities); fault != nil {
				return fault
			}
		}
		return nil
	}
	return checkLinks(q.EntityName, q.LinkEntities)
}
