package tests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim"
	"github.com/orgsim/orgsim/clause"
	"github.com/orgsim/orgsim/logger"
	"github.com/stretchr/testify/require"
)

// Now the fixed clock of databases opened by OpenDB
var Now = time.Date(2024, time.March, 14, 9, 30, 15, 0, time.UTC)

// Models every fixture record type
func Models() []interface{} {
	return []interface{}{&Contact{}, &Account{}, &Incident{}, &Connection{}, &PhoneCall{}}
}

// OpenDB opens a database of its own for a test, the config may be nil
func OpenDB(t testing.TB, config *orgsim.Config) *orgsim.DB {
	t.Helper()
	if config == nil {
		config = &orgsim.Config{}
	}
	cfg := *config
	if cfg.DatabaseName == "" {
		cfg.DatabaseName = t.Name()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard
	}
	if cfg.NowFunc == nil {
		cfg.NowFunc = func() time.Time { return Now }
	}
	db, err := orgsim.NewRegistry(nil).Open(&cfg)
	require.NoError(t, err)
	return db
}

// MustCreate creates a record, failing the test on error
func MustCreate(t testing.TB, db *orgsim.DB, e *orgsim.Entity) uuid.UUID {
	t.Helper()
	id, err := db.Create(context.Background(), e)
	require.NoError(t, err, "create %s", e.LogicalName)
	return id
}

// MustRetrieve retrieves every column of a record, failing the test on error
func MustRetrieve(t testing.TB, db *orgsim.DB, logicalName string, id uuid.UUID) *orgsim.Entity {
	t.Helper()
	e, err := db.Retrieve(context.Background(), logicalName, id, clause.AllColumns())
	require.NoError(t, err, "retrieve %s %s", logicalName, id)
	return e
}

// NewContact a contact entity with first and last name
func NewContact(firstName, lastName string) *orgsim.Entity {
	return orgsim.NewEntity("contact").Set("firstname", firstName).Set("lastname", lastName)
}

// AssertFault fails the test unless err is a fault of kind with the code
func AssertFault(t testing.TB, err error, kind error, code orgsim.ErrorCode) *orgsim.Fault {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
	fault, ok := orgsim.AsFault(err)
	require.True(t, ok, "expected a fault, got %T %v", err, err)
	require.Equal(t, code, fault.Code, fault.Message)
	return fault
}
