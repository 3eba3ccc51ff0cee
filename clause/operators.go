package clause

import "strings"

// ConditionOperator comparison applied by a condition
type ConditionOperator int

const (
	Equal ConditionOperator = iota
	NotEqual
	GreaterThan
	GreaterEqual
	LessThan
	LessEqual
	Null
	NotNull
	In
	NotIn
	Like
	NotLike
	BeginsWith
	DoesNotBeginWith
	EndsWith
	DoesNotEndWith
	Between
	NotBetween
	On
	OnOrBefore
	OnOrAfter
	Today
	Yesterday
	Tomorrow
	ThisYear
)

var operatorNames = map[ConditionOperator]string{
	Equal:            "eq",
	NotEqual:         "ne",
	GreaterThan:      "gt",
	GreaterEqual:     "ge",
	LessThan:         "lt",
	LessEqual:        "le",
	Null:             "null",
	NotNull:          "not-null",
	In:               "in",
	NotIn:            "not-in",
	Like:             "like",
	NotLike:          "not-like",
	BeginsWith:       "begins-with",
	DoesNotBeginWith: "not-begin-with",
	EndsWith:         "ends-with",
	DoesNotEndWith:   "not-end-with",
	Between:          "between",
	NotBetween:       "not-between",
	On:               "on",
	OnOrBefore:       "on-or-before",
	OnOrAfter:        "on-or-after",
	Today:            "today",
	Yesterday:        "yesterday",
	Tomorrow:         "tomorrow",
	ThisYear:         "this-year",
}

var operatorsByName = func() map[string]ConditionOperator {
	m := make(map[string]ConditionOperator, len(operatorNames)+1)
	for op, name := range operatorNames {
		m[name] = op
	}
	m["neq"] = NotEqual
	return m
}()

func (op ConditionOperator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return "unknown"
}

// ParseOperator resolves a fetch operator name such as "eq" or "not-null"
func ParseOperator(name string) (ConditionOperator, bool) {
	op, ok := operatorsByName[strings.ToLower(strings.TrimSpace(name))]
	return op, ok
}

// ValueCount number of values the operator expects, -1 means one or more
func (op ConditionOperator) ValueCount() int {
	switch op {
	case Null, NotNull, Today, Yesterday, Tomorrow, ThisYear:
		return 0
	case In, NotIn:
		return -1
	case Between, NotBetween:
		return 2
	default:
		return 1
	}
}
