package orgsim

import (
	"sync"

	"github.com/google/uuid"
)

// Table records of one type keyed by id, in insertion order
type Table struct {
	LogicalName string

	mu      sync.RWMutex
	records map[uuid.UUID]*Entity
	order   []uuid.UUID
}

func newTable(logicalName string) *Table {
	return &Table{LogicalName: logicalName, records: map[uuid.UUID]*Entity{}}
}

// Len number of records
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Contains reports whether a record with the id exists
func (t *Table) Contains(id uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.records[id]
	return ok
}

// Get returns a copy of the record
func (t *Table) Get(id uuid.UUID) (*Entity, bool) {
	t.mu.RLock()
	e, ok := t.records[id]
	t.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// Insert stores a copy of the record, failing when the id is taken
func (t *Table) Insert(e *Entity) error {
	stored := e.Clone()
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[stored.ID]; ok {
		return newFault(ErrDuplicateKey, CodeDuplicateRecord, "Cannot insert duplicate key. A record of type '%s' with id %s already exists.", t.LogicalName, stored.ID)
	}
	t.records[stored.ID] = stored
	t.order = append(t.order, stored.ID)
	return nil
}

// Replace swaps the stored record for a copy of e
func (t *Table) Replace(e *Entity) error {
	stored := e.Clone()
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[stored.ID]; !ok {
		return errRecordNotFound(t.LogicalName, stored.ID)
	}
	t.records[stored.ID] = stored
	return nil
}

// Remove deletes the record, reporting whether it existed
func (t *Table) Remove(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[id]; !ok {
		return false
	}
	delete(t.records, id)
	for idx, v := range t.order {
		if v == id {
			t.order = append(t.order[:idx:idx], t.order[idx+1:]...)
			break
		}
	}
	return true
}

// Scan returns copies of every record in insertion order
func (t *Table) Scan() []*Entity {
	rows := t.snapshot()
	for idx, e := range rows {
		rows[idx] = e.Clone()
	}
	return rows
}

// snapshot returns the stored records, callers must treat them as read only
func (t *Table) snapshot() []*Entity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := make([]*Entity, 0, len(t.order))
	for _, id := range t.order {
		rows = append(rows, t.records[id])
	}
	return rows
}

// find returns the first stored record matching fn, read only
func (t *Table) find(fn func(*Entity) bool) (*Entity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, id := range t.order {
		if e := t.records[id]; fn(e) {
			return e, true
		}
	}
	return nil, false
}

// reset replaces every record with copies of rows in one step, readers see
// either the old records or the new ones
func (t *Table) reset(rows []*Entity) error {
	records := make(map[uuid.UUID]*Entity, len(rows))
	order := make([]uuid.UUID, 0, len(rows))
	for _, e := range rows {
		if _, ok := records[e.ID]; ok {
			return newFault(ErrDuplicateKey, CodeDuplicateRecord, "Cannot insert duplicate key. A record of type '%s' with id %s already exists.", t.LogicalName, e.ID)
		}
		records[e.ID] = e.Clone()
		order = append(order, e.ID)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.records, t.order = records, order
	return nil
}
