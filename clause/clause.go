package clause

import (
	"fmt"
	"strings"
)

// Builder receives the textual form of an expression, used for traces
type Builder interface {
	WriteByte(byte) error
	WriteString(string) (int, error)
}

// Expression expression interface
type Expression interface {
	Build(Builder)
}

// QueryBase the accepted query shapes: Query, ByAttribute and FetchExpression
type QueryBase interface {
	Expression
	// TargetEntity logical name of the queried record type, empty if unknown before translation
	TargetEntity() string
	isQueryBase()
}

// String renders an expression
func String(expr Expression) string {
	var sb strings.Builder
	expr.Build(&sb)
	return sb.String()
}

// ColumnSet columns returned by a query
type ColumnSet struct {
	AllColumns bool
	Columns    []string
}

// AllColumns column set returning every attribute
func AllColumns() ColumnSet {
	return ColumnSet{AllColumns: true}
}

// Columns column set returning the named attributes only
func Columns(names ...string) ColumnSet {
	columns := make([]string, 0, len(names))
	for _, name := range names {
		columns = append(columns, strings.ToLower(name))
	}
	return ColumnSet{Columns: columns}
}

// Contains reports whether the column set keeps the attribute
func (cs ColumnSet) Contains(name string) bool {
	if cs.AllColumns {
		return true
	}
	for _, column := range cs.Columns {
		if strings.EqualFold(column, name) {
			return true
		}
	}
	return false
}

// AddColumns add columns, ignored when returning all columns
func (cs *ColumnSet) AddColumns(names ...string) {
	if cs.AllColumns {
		return
	}
	for _, name := range names {
		if !cs.Contains(name) {
			cs.Columns = append(cs.Columns, strings.ToLower(name))
		}
	}
}

func (cs ColumnSet) Build(builder Builder) {
	if cs.AllColumns {
		builder.WriteByte('*')
		return
	}
	if len(cs.Columns) == 0 {
		builder.WriteString("<none>")
		return
	}
	builder.WriteString(strings.Join(cs.Columns, ","))
}

func writeValue(builder Builder, value interface{}) {
	switch v := value.(type) {
	case string:
		builder.WriteByte('\'')
		builder.WriteString(v)
		builder.WriteByte('\'')
	case fmt.Stringer:
		builder.WriteString(v.String())
	default:
		builder.WriteString(fmt.Sprint(v))
	}
}
