package clause

// AggregateFunction reduction applied to a grouped column
type AggregateFunction int

const (
	NoAggregate AggregateFunction = iota
	Count
	CountColumn
	Sum
	Avg
	Min
	Max
)

var aggregateNames = map[AggregateFunction]string{
	NoAggregate: "",
	Count:       "count",
	CountColumn: "countcolumn",
	Sum:         "sum",
	Avg:         "avg",
	Min:         "min",
	Max:         "max",
}

func (fn AggregateFunction) String() string {
	return aggregateNames[fn]
}

// ParseAggregate resolves an aggregate name such as "sum"
func ParseAggregate(name string) (AggregateFunction, bool) {
	for fn, n := range aggregateNames {
		if n == name && n != "" {
			return fn, true
		}
	}
	return NoAggregate, false
}

// DateGrouping granularity of a date group by
type DateGrouping int

const (
	NoDateGrouping DateGrouping = iota
	GroupByDay
	GroupByWeek
	GroupByMonth
	GroupByQuarter
	GroupByYear
)

var dateGroupingNames = map[DateGrouping]string{
	GroupByDay:     "day",
	GroupByWeek:    "week",
	GroupByMonth:   "month",
	GroupByQuarter: "quarter",
	GroupByYear:    "year",
}

func (g DateGrouping) String() string {
	return dateGroupingNames[g]
}

// ParseDateGrouping resolves a date grouping name such as "month"
func ParseDateGrouping(name string) (DateGrouping, bool) {
	for g, n := range dateGroupingNames {
		if n == name {
			return g, true
		}
	}
	return NoDateGrouping, false
}

// AggregateColumn an aggregate query output column, either a group key or a reduction
type AggregateColumn struct {
	Attribute    string
	Alias        string
	Function     AggregateFunction
	GroupBy      bool
	DateGrouping DateGrouping
	Distinct     bool
}

func (a AggregateColumn) Build(builder Builder) {
	switch {
	case a.GroupBy:
		builder.WriteString("GROUP BY ")
		builder.WriteString(a.Attribute)
		if a.DateGrouping != NoDateGrouping {
			builder.WriteByte('/')
			builder.WriteString(a.DateGrouping.String())
		}
	default:
		builder.WriteString(a.Function.String())
		builder.WriteByte('(')
		if a.Distinct {
			builder.WriteString("DISTINCT ")
		}
		builder.WriteString(a.Attribute)
		builder.WriteByte(')')
	}
	builder.WriteString(" AS ")
	builder.WriteString(a.Alias)
}
