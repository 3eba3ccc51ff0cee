package orgsim

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jinzhu/now"
	"github.com/orgsim/orgsim/clause"
)

// matchFilter evaluates a filter tree against a row
func matchFilter(r row, f clause.Filter, ref time.Time) bool {
	if f.FilterOperator == clause.Or {
		if len(f.Conditions) == 0 && len(f.Filters) == 0 {
			return true
		}
		for _, c := range f.Conditions {
			if matchCondition(r, c, ref) {
				return true
			}
		}
		for _, child := range f.Filters {
			if matchFilter(r, child, ref) {
				return true
			}
		}
		return false
	}

	for _, c := range f.Conditions {
		if !matchCondition(r, c, ref) {
			return false
		}
	}
	for _, child := range f.Filters {
		if !matchFilter(r, child, ref) {
			return false
		}
	}
	return true
}

// matchCondition evaluates one condition, absent values only match Null
func matchCondition(r row, c clause.Condition, ref time.Time) bool {
	value, ok := r.value(c.Key())
	value = unalias(value)
	present := ok && value != nil

	switch c.Operator {
	case clause.Null:
		return !present
	case clause.NotNull:
		return present
	}
	if !present {
		return false
	}

	values := conditionValues(c.Values)
	switch c.Operator {
	case clause.Equal:
		return len(values) > 0 && equalValues(value, values[0])
	case clause.NotEqual:
		return len(values) > 0 && !equalValues(value, values[0])
	case clause.GreaterThan, clause.GreaterEqual, clause.LessThan, clause.LessEqual:
		if len(values) == 0 {
			return false
		}
		cmp, ok := compareValues(value, values[0])
		if !ok {
			return false
		}
		switch c.Operator {
		case clause.GreaterThan:
			return cmp > 0
		case clause.GreaterEqual:
			return cmp >= 0
		case clause.LessThan:
			return cmp < 0
		}
		return cmp <= 0
	case clause.In, clause.NotIn:
		found := false
		for _, v := range values {
			if equalValues(value, v) {
				found = true
				break
			}
		}
		return found == (c.Operator == clause.In)
	case clause.Like, clause.NotLike:
		s, ok := value.(string)
		if !ok || len(values) == 0 {
			return false
		}
		pattern, _ := values[0].(string)
		return likeMatch(s, pattern) == (c.Operator == clause.Like)
	case clause.BeginsWith, clause.DoesNotBeginWith:
		s, prefix, ok := stringOperands(value, values)
		return ok && strings.HasPrefix(s, prefix) == (c.Operator == clause.BeginsWith)
	case clause.EndsWith, clause.DoesNotEndWith:
		s, suffix, ok := stringOperands(value, values)
		return ok && strings.HasSuffix(s, suffix) == (c.Operator == clause.EndsWith)
	case clause.Between, clause.NotBetween:
		if len(values) < 2 {
			return false
		}
		low, okLow := compareValues(value, values[0])
		high, okHigh := compareValues(value, values[1])
		if !okLow || !okHigh {
			return false
		}
		return (low >= 0 && high <= 0) == (c.Operator == clause.Between)
	case clause.On, clause.OnOrBefore, clause.OnOrAfter:
		t, ok := value.(time.Time)
		if !ok || len(values) == 0 {
			return false
		}
		day, ok := coerce(t, values[0]).(time.Time)
		if !ok {
			return false
		}
		begin, end := now.With(day.UTC()).BeginningOfDay(), now.With(day.UTC()).EndOfDay()
		t = t.UTC()
		switch c.Operator {
		case clause.On:
			return !t.Before(begin) && !t.After(end)
		case clause.OnOrBefore:
			return !t.After(end)
		}
		return !t.Before(begin)
	case clause.Today, clause.Yesterday, clause.Tomorrow, clause.ThisYear:
		t, ok := value.(time.Time)
		if !ok {
			return false
		}
		var begin, end time.Time
		switch c.Operator {
		case clause.Today:
			begin, end = now.With(ref).BeginningOfDay(), now.With(ref).EndOfDay()
		case clause.Yesterday:
			day := ref.AddDate(0, 0, -1)
			begin, end = now.With(day).BeginningOfDay(), now.With(day).EndOfDay()
		case clause.Tomorrow:
			day := ref.AddDate(0, 0, 1)
			begin, end = now.With(day).BeginningOfDay(), now.With(day).EndOfDay()
		default:
			begin, end = now.With(ref).BeginningOfYear(), now.With(ref).EndOfYear()
		}
		t = t.UTC()
		return !t.Before(begin) && !t.After(end)
	}
	return false
}

// conditionValues flattens a single slice value into the value list
func conditionValues(values []interface{}) []interface{} {
	if len(values) != 1 || values[0] == nil {
		return values
	}
	rv := reflect.ValueOf(values[0])
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return values
	}
	flattened := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		flattened[i] = rv.Index(i).Interface()
	}
	return flattened
}

func stringOperands(value interface{}, values []interface{}) (string, string, bool) {
	s, ok := value.(string)
	if !ok || len(values) == 0 {
		return "", "", false
	}
	operand, ok := values[0].(string)
	return fold(s), fold(operand), ok
}

// likePatterns compiled LIKE patterns by pattern text, a nil entry marks a
// pattern that does not compile
var likePatterns, _ = lru.New[string, *regexp.Regexp](512)

// likeMatch matches a LIKE pattern, % any run, _ one character, [..] a set
func likeMatch(s, pattern string) bool {
	re, ok := likePatterns.Get(pattern)
	if !ok {
		re = compileLike(pattern)
		likePatterns.Add(pattern, re)
	}
	return re != nil && re.MatchString(s)
}

func compileLike(pattern string) *regexp.Regexp {
	var (
		sb    strings.Builder
		runes = []rune(pattern)
	)
	sb.WriteString("(?is)^")
	for idx := 0; idx < len(runes); idx++ {
		switch ch := runes[idx]; ch {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteByte('.')
		case '[':
			end := idx + 1
			for end < len(runes) && runes[end] != ']' {
				end++
			}
			if end < len(runes) {
				sb.WriteString(string(runes[idx : end+1]))
				idx = end
				continue
			}
			sb.WriteString(regexp.QuoteMeta(string(ch)))
		default:
			sb.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	sb.WriteByte('$')

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil
	}
	return re
}
