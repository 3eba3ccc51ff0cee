package clause_test

import (
	"testing"

	"github.com/orgsim/orgsim/clause"
	"github.com/stretchr/testify/assert"
)

func TestParseOperator(t *testing.T) {
	tests := map[string]clause.ConditionOperator{
		"eq":             clause.Equal,
		"NE":             clause.NotEqual,
		"neq":            clause.NotEqual,
		"not-null":       clause.NotNull,
		"not-begin-with": clause.DoesNotBeginWith,
		"on-or-after":    clause.OnOrAfter,
		"this-year":      clause.ThisYear,
	}
	for name, want := range tests {
		op, ok := clause.ParseOperator(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, op, name)
	}

	_, ok := clause.ParseOperator("under")
	assert.False(t, ok)

	for op := clause.Equal; op <= clause.ThisYear; op++ {
		parsed, ok := clause.ParseOperator(op.String())
		assert.True(t, ok, op.String())
		assert.Equal(t, op, parsed)
	}
}

func TestOperatorValueCount(t *testing.T) {
	assert.Equal(t, 0, clause.Null.ValueCount())
	assert.Equal(t, 0, clause.Today.ValueCount())
	assert.Equal(t, -1, clause.In.ValueCount())
	assert.Equal(t, 2, clause.Between.ValueCount())
	assert.Equal(t, 1, clause.Like.ValueCount())
}

func TestParseAggregate(t *testing.T) {
	fn, ok := clause.ParseAggregate("countcolumn")
	assert.True(t, ok)
	assert.Equal(t, clause.CountColumn, fn)

	_, ok = clause.ParseAggregate("")
	assert.False(t, ok)

	g, ok := clause.ParseDateGrouping("quarter")
	assert.True(t, ok)
	assert.Equal(t, clause.GroupByQuarter, g)
}
