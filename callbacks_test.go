package orgsim

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/orgsim/orgsim/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCallbacks(funcs []func(*Statement), fnames []string) (result bool, msg string) {
	var got []string

	for _, f := range funcs {
		got = append(got, getFuncName(f))
	}

	return fmt.Sprint(got) == fmt.Sprint(fnames), fmt.Sprintf("expects %v, got %v", fnames, got)
}

func getFuncName(fc func(*Statement)) string {
	fnames := strings.Split(runtime.FuncForPC(reflect.ValueOf(fc).Pointer()).Name(), ".")
	return fnames[len(fnames)-1]
}

func c1(*Statement) {}
func c2(*Statement) {}
func c3(*Statement) {}
func c4(*Statement) {}
func c5(*Statement) {}

func newTestProcessor() *processor {
	return &processor{db: &DB{Config: &Config{Logger: logger.Discard}}, operation: OperationCreate}
}

func TestCallbacks(t *testing.T) {
	type callbackCase struct {
		name    string
		before  string
		after   string
		remove  bool
		replace bool
		h       func(*Statement)
	}

	datas := []struct {
		callbacks []callbackCase
		results   []string
	}{
		{
			callbacks: []callbackCase{{h: c1}, {h: c2}, {h: c3}, {h: c4}, {h: c5}},
			results:   []string{"c1", "c2", "c3", "c4", "c5"},
		},
		{
			callbacks: []callbackCase{{h: c1}, {h: c2}, {h: c3}, {h: c4}, {h: c5, before: "c4"}},
			results:   []string{"c1", "c2", "c3", "c5", "c4"},
		},
		{
			callbacks: []callbackCase{{h: c1}, {h: c2}, {h: c3}, {h: c4, after: "c5"}, {h: c5}},
			results:   []string{"c1", "c2", "c3", "c5", "c4"},
		},
		{
			callbacks: []callbackCase{{h: c1}, {h: c2}, {h: c3}, {h: c4, after: "c5"}, {h: c5, before: "c4"}},
			results:   []string{"c1", "c2", "c3", "c5", "c4"},
		},
		{
			callbacks: []callbackCase{{h: c1}, {h: c2, before: "c4", after: "c5"}, {h: c3}, {h: c4}, {h: c5}},
			results:   []string{"c1", "c5", "c2", "c3", "c4"},
		},
		{
			callbacks: []callbackCase{{h: c1, before: "c3", after: "c4"}, {h: c2, before: "c4", after: "c5"}, {h: c3, before: "c5"}, {h: c4}, {h: c5}},
			results:   []string{"c1", "c3", "c5", "c2", "c4"},
		},
		{
			callbacks: []callbackCase{{h: c1}, {h: c2, before: "c4", after: "c5"}, {h: c3}, {h: c4}, {h: c5}, {h: c2, remove: true}},
			results:   []string{"c1", "c5", "c3", "c4"},
		},
		{
			callbacks: []callbackCase{{h: c1}, {name: "c", h: c2}, {h: c3}, {name: "c", h: c4, replace: true}},
			results:   []string{"c1", "c4", "c3"},
		},
	}

	for idx, data := range datas {
		p := newTestProcessor()

		for _, c := range data.callbacks {
			if c.name == "" {
				c.name = getFuncName(c.h)
			}

			cb := &callback{processor: p}
			if c.before != "" {
				cb = cb.Before(c.before)
			}
			if c.after != "" {
				cb = cb.After(c.after)
			}

			switch {
			case c.remove:
				cb.Remove(c.name)
			case c.replace:
				cb.Replace(c.name, c.h)
			default:
				cb.Register(c.name, c.h)
			}
		}

		if ok, msg := assertCallbacks(p.fns, data.results); !ok {
			t.Errorf("callbacks tests #%v failed, got %v", idx+1, msg)
		}
	}
}

func TestCallbacksConflict(t *testing.T) {
	p := newTestProcessor()
	require.NoError(t, p.Register("c1", c1))
	require.NoError(t, p.After("c1").Register("c2", c2))

	err := p.Before("c1").After("c2").Register("c3", c3)
	assert.Error(t, err)
	ok, msg := assertCallbacks(p.fns, []string{"c1", "c2"})
	assert.True(t, ok, msg)
}

func TestDefaultCallbacks(t *testing.T) {
	db, err := NewRegistry(nil).Open(&Config{Logger: logger.Discard})
	require.NoError(t, err)

	datas := map[*processor][]string{
		db.Callback().Create():       {"ValidateAttributes", "ValidateReferences", "SimulateRules", "PopulateCreate", "CommitCreate"},
		db.Callback().Update():       {"LoadExisting", "ValidateAttributes", "ValidateReferences", "MergeUpdate", "SimulateRules", "PopulateUpdate", "CommitUpdate"},
		db.Callback().Delete():       {"LoadExisting", "SimulateRules", "CommitDelete", "DeleteAssociations"},
		db.Callback().Retrieve():     {"Query", "ReferenceNames", "FormattedValues"},
		db.Callback().Associate():    {"Associate"},
		db.Callback().Disassociate(): {"Disassociate"},
	}
	for p, expected := range datas {
		ok, msg := assertCallbacks(p.fns, expected)
		assert.True(t, ok, "%s: %s", p.operation, msg)
	}

	assert.NotNil(t, db.Callback().Create().Get("orgsim:commit"))
	assert.Nil(t, db.Callback().Create().Get("orgsim:unknown"))
}

func TestCustomCallbackRunsInOrder(t *testing.T) {
	db, err := NewRegistry(nil).Open(&Config{Logger: logger.Discard})
	require.NoError(t, err)

	var phases []Phase
	require.NoError(t, db.Callback().Create().Before("orgsim:commit").Register("test:observe", func(stmt *Statement) {
		phases = append(phases, stmt.Phase)
		stmt.Entity.Set("description", "observed")
	}))

	e := NewEntity("task").Set("subject", "call back")
	id, err := db.Create(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, []Phase{PhasePopulating}, phases)

	stored, ok := db.Table("task").Get(id)
	require.True(t, ok)
	assert.Equal(t, "observed", stored.GetString("description"))
}

func TestCallbackFaultStopsPipeline(t *testing.T) {
	db, err := NewRegistry(nil).Open(&Config{Logger: logger.Discard})
	require.NoError(t, err)

	require.NoError(t, db.Callback().Create().Before("orgsim:commit").Register("test:reject", func(stmt *Statement) {
		stmt.AddFault(newFault(ErrRuleViolation, CodeBusinessRule, "rejected"))
	}))

	_, err = db.Create(context.Background(), NewEntity("account").Set("name", "Contoso"))
	require.ErrorIs(t, err, ErrRuleViolation)
	assert.Equal(t, 0, db.Table("account").Len())
}
