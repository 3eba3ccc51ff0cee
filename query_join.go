package orgsim

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim/clause"
)

// row a candidate result: the root record and the records joined to it by alias.
// A nil linked record is an unmatched outer join.
type row struct {
	base   *Entity
	linked map[string]*Entity
}

func (r row) with(alias string, e *Entity) row {
	linked := make(map[string]*Entity, len(r.linked)+1)
	for k, v := range r.linked {
		linked[k] = v
	}
	linked[alias] = e
	return row{base: r.base, linked: linked}
}

// value reads an attribute key, alias qualified keys read joined records
func (r row) value(key string) (interface{}, bool) {
	if idx := strings.IndexByte(key, '.'); idx >= 0 {
		alias, attribute := key[:idx], key[idx+1:]
		if e, ok := r.linked[alias]; ok {
			if e == nil {
				return nil, false
			}
			return attributeOf(e, attribute)
		}
		if alias == r.base.LogicalName {
			return attributeOf(r.base, attribute)
		}
		return nil, false
	}
	return attributeOf(r.base, key)
}

// attributeOf reads an attribute, the primary id attribute falls back to the record id
func attributeOf(e *Entity, attribute string) (interface{}, bool) {
	if v, ok := e.Get(attribute); ok {
		return v, true
	}
	if e.ID != uuid.Nil && (attribute == e.LogicalName+"id" || (attribute == "activityid" && isActivityType(e.LogicalName))) {
		return e.ID, true
	}
	return nil, false
}

// join correlates the records of a link with each row, parentAlias empty
// joins from the root record
func (db *DB) join(rows []row, link clause.Link, parentAlias string, ref time.Time) []row {
	var candidates []*Entity
	if t, ok := db.lookupTable(link.LinkToEntityName); ok {
		for _, e := range t.snapshot() {
			if matchFilter(row{base: e}, link.LinkCriteria, ref) {
				candidates = append(candidates, e)
			}
		}
	}

	alias := link.Alias()
	joined := make([]row, 0, len(rows))
	for _, r := range rows {
		from := r.base
		if parentAlias != "" {
			from = r.linked[parentAlias]
		}

		matched := false
		if from != nil {
			if fromValue, ok := attributeOf(from, link.LinkFromAttributeName); ok && fromValue != nil {
				for _, candidate := range candidates {
					toValue, ok := attributeOf(candidate, link.LinkToAttributeName)
					if ok && joinEqual(fromValue, toValue) {
						joined = append(joined, r.with(alias, candidate))
						matched = true
					}
				}
			}
		}
		if !matched && link.JoinOperator == clause.LeftOuter {
			joined = append(joined, r.with(alias, nil))
		}
	}

	for _, nested := range link.LinkEntities {
		joined = db.join(joined, nested, alias, ref)
	}
	return joined
}

func joinEqual(a, b interface{}) bool {
	if x, ok := idOf(a); ok {
		y, ok := idOf(b)
		return ok && x == y
	}
	return equalValues(a, b)
}

// cloneLinks deep copies links so rewriting never touches the caller's query
func cloneLinks(links []clause.Link) []clause.Link {
	if links == nil {
		return nil
	}
	cloned := make([]clause.Link, len(links))
	for idx, link := range links {
		link.LinkEntities = cloneLinks(link.LinkEntities)
		link.Columns.Columns = append([]string(nil), link.Columns.Columns...)
		link.Orders = append([]clause.Order(nil), link.Orders...)
		link.Aggregates = append([]clause.AggregateColumn(nil), link.Aggregates...)
		cloned[idx] = link
	}
	return cloned
}

// flattenLinks every link of the tree in depth first order
func flattenLinks(links []clause.Link) []clause.Link {
	var flat []clause.Link
	for _, link := range links {
		flat = append(flat, link)
		flat = append(flat, flattenLinks(link.LinkEntities)...)
	}
	return flat
}
