package clause

import "strings"

// LogicalOperator combines the members of a filter
type LogicalOperator int

const (
	And LogicalOperator = iota
	Or
)

func (op LogicalOperator) String() string {
	if op == Or {
		return "or"
	}
	return "and"
}

// Condition compares one attribute, EntityName addresses a linked alias
type Condition struct {
	EntityName    string
	AttributeName string
	Operator      ConditionOperator
	Values        []interface{}
}

// NewCondition creates a condition on an attribute of the queried entity
func NewCondition(attribute string, op ConditionOperator, values ...interface{}) Condition {
	return Condition{AttributeName: strings.ToLower(attribute), Operator: op, Values: values}
}

// Key the attribute key a condition reads, alias qualified for linked entities
func (c Condition) Key() string {
	if c.EntityName != "" {
		return strings.ToLower(c.EntityName) + "." + strings.ToLower(c.AttributeName)
	}
	return strings.ToLower(c.AttributeName)
}

func (c Condition) Build(builder Builder) {
	builder.WriteString(c.Key())
	builder.WriteByte(' ')
	builder.WriteString(c.Operator.String())
	for idx, value := range c.Values {
		if idx == 0 {
			builder.WriteByte(' ')
		} else {
			builder.WriteByte(',')
		}
		writeValue(builder, value)
	}
}

// Filter a tree of conditions
type Filter struct {
	FilterOperator LogicalOperator
	Conditions     []Condition
	Filters        []Filter
}

// Empty reports whether the filter has no members
func (f Filter) Empty() bool {
	return len(f.Conditions) == 0 && len(f.Filters) == 0
}

// AddCondition append a condition
func (f *Filter) AddCondition(attribute string, op ConditionOperator, values ...interface{}) *Filter {
	f.Conditions = append(f.Conditions, NewCondition(attribute, op, values...))
	return f
}

// AddFilter append a child filter
func (f *Filter) AddFilter(child Filter) *Filter {
	f.Filters = append(f.Filters, child)
	return f
}

func (f Filter) Build(builder Builder) {
	if f.Empty() {
		return
	}

	builder.WriteByte('(')
	idx := 0
	sep := " " + strings.ToUpper(f.FilterOperator.String()) + " "
	for _, c := range f.Conditions {
		if idx > 0 {
			builder.WriteString(sep)
		}
		c.Build(builder)
		idx++
	}
	for _, child := range f.Filters {
		if child.Empty() {
			continue
		}
		if idx > 0 {
			builder.WriteString(sep)
		}
		child.Build(builder)
		idx++
	}
	builder.WriteByte(')')
}
