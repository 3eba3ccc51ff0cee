package orgsim

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/orgsim/orgsim/utils"
)

func initializeCallbacks(db *DB) *callbacks {
	cs := &callbacks{
		processors: map[string]*processor{
			"create":       {db: db, operation: OperationCreate},
			"update":       {db: db, operation: OperationUpdate},
			"delete":       {db: db, operation: OperationDelete},
			"retrieve":     {db: db, operation: OperationRetrieve},
			"associate":    {db: db, operation: OperationAssociate},
			"disassociate": {db: db, operation: OperationDisassociate},
		},
	}
	registerDefaultCallbacks(cs)
	return cs
}

// callbacks orgsim callbacks manager
type callbacks struct {
	processors map[string]*processor
}

type processor struct {
	db        *DB
	operation Operation
	mu        sync.RWMutex
	fns       []func(*Statement)
	callbacks []*callback
}

type callback struct {
	name      string
	before    string
	after     string
	remove    bool
	replace   bool
	handler   func(*Statement)
	processor *processor
}

func (cs *callbacks) Create() *processor {
	return cs.processors["create"]
}

func (cs *callbacks) Update() *processor {
	return cs.processors["update"]
}

func (cs *callbacks) Delete() *processor {
	return cs.processors["delete"]
}

// Retrieve runs on every record returned by Retrieve and RetrieveMultiple
func (cs *callbacks) Retrieve() *processor {
	return cs.processors["retrieve"]
}

func (cs *callbacks) Associate() *processor {
	return cs.processors["associate"]
}

func (cs *callbacks) Disassociate() *processor {
	return cs.processors["disassociate"]
}

// Execute runs the compiled callbacks, traces the statement and records metrics
func (p *processor) Execute(stmt *Statement) {
	curTime := time.Now()
	if stmt.Context == nil {
		stmt.Context = context.Background()
	}

	p.mu.RLock()
	fns := p.fns
	p.mu.RUnlock()

	for _, f := range fns {
		f(stmt)
	}

	if stmt.Fault != nil {
		stmt.Phase = PhaseFailed
	} else {
		stmt.Phase = PhaseDone
	}

	if stmt.nested {
		return
	}

	db := stmt.DB
	db.Logger.Trace(stmt.Context, curTime, func() (string, int64) {
		return stmt.describe(), stmt.RowsAffected
	}, stmt.Fault)
	db.Metrics.Observe(stmt.Context, string(stmt.Operation), stmt.Fault == nil, time.Since(curTime))
}

func (p *processor) Get(name string) func(*Statement) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for i := len(p.callbacks) - 1; i >= 0; i-- {
		if v := p.callbacks[i]; v.name == name && !v.remove {
			return v.handler
		}
	}
	return nil
}

func (p *processor) Before(name string) *callback {
	return &callback{before: name, processor: p}
}

func (p *processor) After(name string) *callback {
	return &callback{after: name, processor: p}
}

func (p *processor) Register(name string, fn func(*Statement)) error {
	return (&callback{processor: p}).Register(name, fn)
}

func (p *processor) Remove(name string) error {
	return (&callback{processor: p}).Remove(name)
}

func (p *processor) Replace(name string, fn func(*Statement)) error {
	return (&callback{processor: p}).Replace(name, fn)
}

func (p *processor) add(c *callback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, c)

	fns, err := sortCallbacks(p.callbacks)
	if err != nil {
		p.db.Logger.Error(context.Background(), "Got error when compile callbacks, got %v", err)
		p.callbacks = p.callbacks[:len(p.callbacks)-1]
		return err
	}
	p.fns = fns
	return nil
}

func (c *callback) Before(name string) *callback {
	c.before = name
	return c
}

func (c *callback) After(name string) *callback {
	c.after = name
	return c
}

func (c *callback) Register(name string, fn func(*Statement)) error {
	c.name = name
	c.handler = fn
	return c.processor.add(c)
}

func (c *callback) Remove(name string) error {
	c.processor.db.Logger.Warn(context.Background(), "removing callback `%v` from %v\n", name, utils.FileWithLineNum())
	c.name = name
	c.remove = true
	return c.processor.add(c)
}

func (c *callback) Replace(name string, fn func(*Statement)) error {
	c.processor.db.Logger.Info(context.Background(), "replacing callback `%v` from %v\n", name, utils.FileWithLineNum())
	c.name = name
	c.handler = fn
	c.replace = true
	return c.processor.add(c)
}

// getRIndex get right index from string slice
func getRIndex(strs []string, str string) int {
	for i := len(strs) - 1; i >= 0; i-- {
		if strs[i] == str {
			return i
		}
	}
	return -1
}

func sortCallbacks(input []*callback) (fns []func(*Statement), err error) {
	var (
		names, sorted []string
		sortCallback  func(*callback) error
		cs            = make([]*callback, len(input))
	)
	for idx, c := range input {
		copied := *c
		cs[idx] = &copied
	}
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[j].before == "*" || cs[j].after == "*"
	})

	for _, c := range cs {
		// show warning message the callback name already exists
		if idx := getRIndex(names, c.name); idx > -1 && !c.replace && !c.remove && !cs[idx].remove {
			c.processor.db.Logger.Warn(context.Background(), "duplicated callback `%v` from %v\n", c.name, utils.FileWithLineNum())
		}
		names = append(names, c.name)
	}

	sortCallback = func(c *callback) error {
		if c.before != "" { // if defined before callback
			if c.before == "*" && len(sorted) > 0 {
				if curIdx := getRIndex(sorted, c.name); curIdx == -1 {
					sorted = append([]string{c.name}, sorted...)
				}
			} else if sortedIdx := getRIndex(sorted, c.before); sortedIdx != -1 {
				if curIdx := getRIndex(sorted, c.name); curIdx == -1 {
					// if before callback already sorted, insert current callback just before it
					sorted = append(sorted[:sortedIdx], append([]string{c.name}, sorted[sortedIdx:]...)...)
				} else if curIdx > sortedIdx {
					return fmt.Errorf("conflicting callback %v with before %v", c.name, c.before)
				}
			} else if idx := getRIndex(names, c.before); idx != -1 {
				// if before callback exists
				cs[idx].after = c.name
			}
		}

		if c.after != "" { // if defined after callback
			if c.after == "*" && len(sorted) > 0 {
				if curIdx := getRIndex(sorted, c.name); curIdx == -1 {
					sorted = append(sorted, c.name)
				}
			} else if sortedIdx := getRIndex(sorted, c.after); sortedIdx != -1 {
				if curIdx := getRIndex(sorted, c.name); curIdx == -1 {
					// if after callback sorted, append current callback to last
					sorted = append(sorted, c.name)
				} else if curIdx < sortedIdx {
					return fmt.Errorf("conflicting callback %v with after %v", c.name, c.after)
				}
			} else if idx := getRIndex(names, c.after); idx != -1 {
				// if after callback exists but haven't sorted
				// set after callback's before callback to current callback
				after := cs[idx]

				if after.before == "" {
					after.before = c.name
				}

				if err := sortCallback(after); err != nil {
					return err
				}

				if err := sortCallback(c); err != nil {
					return err
				}
			}
		}

		// if current callback haven't been sorted, append it to last
		if getRIndex(sorted, c.name) == -1 {
			sorted = append(sorted, c.name)
		}

		return nil
	}

	for _, c := range cs {
		if err = sortCallback(c); err != nil {
			return
		}
	}

	for _, name := range sorted {
		if idx := getRIndex(names, name); !cs[idx].remove {
			fns = append(fns, cs[idx].handler)
		}
	}

	return
}
