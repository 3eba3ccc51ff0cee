package orgsim

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/orgsim/orgsim/clause"
)

// aggregate groups the filtered rows and reduces each group to one record
// of aliased values
func aggregate(q clause.Query, rows []row, aliasTypes map[string]string) []*Entity {
	columns := append([]clause.AggregateColumn(nil), q.Aggregates...)
	for _, link := range flattenLinks(q.LinkEntities) {
		for _, column := range link.Aggregates {
			if !strings.Contains(column.Attribute, ".") {
				column.Attribute = link.Alias() + "." + column.Attribute
			}
			columns = append(columns, column)
		}
	}

	var (
		keys   []string
		groups = map[string][]row{}
	)
	for _, r := range rows {
		var sb strings.Builder
		for _, column := range columns {
			if column.GroupBy {
				v, _ := r.value(column.Attribute)
				fmt.Fprintf(&sb, "%v|", groupValue(v, column.DateGrouping))
			}
		}
		key := sb.String()
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], r)
	}
	if len(keys) == 0 && !hasGroupBy(columns) {
		keys = append(keys, "")
	}

	results := make([]*Entity, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		e := NewEntity(q.EntityName)
		for _, column := range columns {
			entityName, attribute := q.EntityName, column.Attribute
			if idx := strings.IndexByte(attribute, '.'); idx >= 0 {
				entityName, attribute = aliasTypes[attribute[:idx]], attribute[idx+1:]
			}

			var value interface{}
			if column.GroupBy {
				if len(group) > 0 {
					v, _ := group[0].value(column.Attribute)
					value = groupValue(v, column.DateGrouping)
				}
			} else {
				value = reduce(column, group)
			}
			e.Attributes[strings.ToLower(column.Alias)] = AliasedValue{EntityLogicalName: entityName, AttributeLogicalName: attribute, Value: value}
		}
		results = append(results, e)
	}
	return results
}

func hasGroupBy(columns []clause.AggregateColumn) bool {
	for _, column := range columns {
		if column.GroupBy {
			return true
		}
	}
	return false
}

// groupValue the group key of a value, dates are reduced to the grouping's
// calendar unit
func groupValue(v interface{}, grouping clause.DateGrouping) interface{} {
	v = unalias(v)
	t, ok := v.(time.Time)
	if !ok || grouping == clause.NoDateGrouping {
		return v
	}
	t = t.UTC()
	switch grouping {
	case clause.GroupByYear:
		return t.Year()
	case clause.GroupByQuarter:
		return int(now.With(t).Quarter())
	case clause.GroupByMonth:
		return int(t.Month())
	case clause.GroupByWeek:
		_, week := t.ISOWeek()
		return week
	}
	return t.Day()
}

// reduce applies an aggregate function to the rows of a group
func reduce(column clause.AggregateColumn, group []row) interface{} {
	if column.Function == clause.Count && !column.Distinct {
		return len(group)
	}

	var values []interface{}
	for _, r := range group {
		v, ok := r.value(column.Attribute)
		if v = unalias(v); ok && v != nil {
			values = append(values, v)
		}
	}
	if column.Distinct {
		values = distinctValues(values)
	}

	switch column.Function {
	case clause.Count, clause.CountColumn:
		return len(values)
	case clause.Sum, clause.Avg:
		var (
			sum     float64
			isMoney = len(values) > 0
			isInt   = len(values) > 0
		)
		for _, v := range values {
			f, ok := primitive(v).(float64)
			if !ok {
				continue
			}
			sum += f
			if _, ok := v.(Money); !ok {
				isMoney = false
			}
			switch v.(type) {
			case int, int32, int64:
			default:
				isInt = false
			}
		}
		if column.Function == clause.Avg {
			if len(values) == 0 {
				return nil
			}
			avg := sum / float64(len(values))
			if isMoney {
				return Money{Value: avg}
			}
			return avg
		}
		switch {
		case isMoney:
			return Money{Value: sum}
		case isInt:
			return int(sum)
		}
		return sum
	case clause.Min, clause.Max:
		var best interface{}
		for _, v := range values {
			if best == nil {
				best = v
				continue
			}
			c, ok := compareValues(v, best)
			if ok && ((column.Function == clause.Min && c < 0) || (column.Function == clause.Max && c > 0)) {
				best = v
			}
		}
		return best
	}
	return nil
}

func distinctValues(values []interface{}) []interface{} {
	var distinct []interface{}
	for _, v := range values {
		seen := false
		for _, d := range distinct {
			if equalValues(v, d) {
				seen = true
				break
			}
		}
		if !seen {
			distinct = append(distinct, v)
		}
	}
	return distinct
}
