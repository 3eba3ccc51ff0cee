package clause

import "strings"

// JoinOperator join type of a link
type JoinOperator int

const (
	Inner JoinOperator = iota
	LeftOuter
)

func (op JoinOperator) String() string {
	if op == LeftOuter {
		return "outer"
	}
	return "inner"
}

// Link joins a related record type into the result set
type Link struct {
	LinkFromEntityName    string
	LinkFromAttributeName string
	LinkToEntityName      string
	LinkToAttributeName   string
	JoinOperator          JoinOperator
	EntityAlias           string
	Columns               ColumnSet
	LinkCriteria          Filter
	LinkEntities          []Link
	Orders                []Order
	Aggregates            []AggregateColumn
}

// NewLink creates an inner link from an attribute of fromEntity to an attribute of toEntity
func NewLink(fromEntity, toEntity, fromAttribute, toAttribute string, op JoinOperator) Link {
	return Link{
		LinkFromEntityName:    strings.ToLower(fromEntity),
		LinkToEntityName:      strings.ToLower(toEntity),
		LinkFromAttributeName: strings.ToLower(fromAttribute),
		LinkToAttributeName:   strings.ToLower(toAttribute),
		JoinOperator:          op,
	}
}

// AddLink append a nested link, LinkFromEntityName defaults to this link's target
func (l *Link) AddLink(child Link) *Link {
	if child.LinkFromEntityName == "" {
		child.LinkFromEntityName = l.LinkToEntityName
	}
	l.LinkEntities = append(l.LinkEntities, child)
	return l
}

// Alias the name attributes of this link are qualified with
func (l Link) Alias() string {
	if l.EntityAlias != "" {
		return strings.ToLower(l.EntityAlias)
	}
	return l.LinkToEntityName
}

func (l Link) Build(builder Builder) {
	builder.WriteString(strings.ToUpper(l.JoinOperator.String()))
	builder.WriteString(" JOIN ")
	builder.WriteString(l.LinkToEntityName)
	if l.EntityAlias != "" {
		builder.WriteString(" AS ")
		builder.WriteString(l.EntityAlias)
	}
	builder.WriteString(" ON ")
	builder.WriteString(l.LinkFromEntityName)
	builder.WriteByte('.')
	builder.WriteString(l.LinkFromAttributeName)
	builder.WriteString(" = ")
	builder.WriteString(l.Alias())
	builder.WriteByte('.')
	builder.WriteString(l.LinkToAttributeName)
	if !l.LinkCriteria.Empty() {
		builder.WriteString(" AND ")
		l.LinkCriteria.Build(builder)
	}
	for _, child := range l.LinkEntities {
		builder.WriteByte(' ')
		child.Build(builder)
	}
}
