package orgsim

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim/logger"
	"github.com/orgsim/orgsim/metrics"
	"github.com/orgsim/orgsim/schema"
)

const (
	// DefaultFullNameFormat first name, a space, last name
	DefaultFullNameFormat = "F L"
	// DefaultLanguageCode English (United States)
	DefaultLanguageCode = 1033
	// DefaultCurrencyCode ISO 4217 code used for money formatting
	DefaultCurrencyCode = "USD"
)

// Config database config, read once when the database is created
type Config struct {
	// DatabaseName isolation key, empty selects the shared default database
	DatabaseName string
	// CallerID acting user, stamped into createdby, modifiedby and ownerid
	CallerID uuid.UUID
	// CallerOnBehalfOfID delegating user, stamped into the onbehalfby fields
	CallerOnBehalfOfID uuid.UUID
	// BusinessUnitID business unit of the acting user
	BusinessUnitID uuid.UUID
	// OrganizationID returned by WhoAmI
	OrganizationID uuid.UUID
	// FullNameFormat template of computed full names, tokens F, M and L
	FullNameFormat string
	// LanguageCode LCID used for option set labels and date formats
	LanguageCode int
	// CurrencyCode ISO 4217 code used for money formatted values
	CurrencyCode string
	// Models record structs whose schemas validate attributes
	Models []interface{}
	// ManyToManyAssociationProvider resolves relationships that were not registered
	ManyToManyAssociationProvider ManyToManyAssociationProvider
	// PrimaryNameProvider resolves the display name attribute of a record type
	PrimaryNameProvider PrimaryNameProvider
	// Logger
	Logger logger.Interface
	// NowFunc the function to be used when creating a new timestamp
	NowFunc func() time.Time
	// Metrics receives one observation per operation
	Metrics metrics.Recorder
	// Rules business rules evaluated in addition to the built-in ones
	Rules []Rule
}

// DB one named in-memory organization database
type DB struct {
	*Config
	Name string

	registry  *Registry
	store     *store
	callbacks *callbacks
	rules     []Rule
}

type store struct {
	mu     sync.Mutex
	tables sync.Map
	models sync.Map
}

var defaultRegistry = NewRegistry(nil)

// Open returns the database named by config.DatabaseName from the package
// registry, shared by every caller opening that name. Use NewRegistry for a
// set of databases isolated from it
func Open(config *Config) (*DB, error) {
	return defaultRegistry.Open(config)
}

func newDB(r *Registry, config *Config) (*DB, error) {
	if config == nil {
		config = &Config{}
	}
	cfg := *config

	if cfg.CallerID == uuid.Nil {
		cfg.CallerID = uuid.New()
	}
	if cfg.BusinessUnitID == uuid.Nil {
		cfg.BusinessUnitID = uuid.New()
	}
	if cfg.OrganizationID == uuid.Nil {
		cfg.OrganizationID = uuid.New()
	}
	if cfg.FullNameFormat == "" {
		cfg.FullNameFormat = DefaultFullNameFormat
	}
	if cfg.LanguageCode == 0 {
		cfg.LanguageCode = DefaultLanguageCode
	}
	if cfg.CurrencyCode == "" {
		cfg.CurrencyCode = DefaultCurrencyCode
	}
	if cfg.PrimaryNameProvider == nil {
		cfg.PrimaryNameProvider = DefaultPrimaryNameProvider{}
	}
	if cfg.Logger == nil {
		cfg.Logger = r.config.Logger
	}
	if cfg.NowFunc == nil {
		cfg.NowFunc = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Metrics == nil {
		cfg.Metrics = r.config.Metrics
	}

	db := &DB{
		Config:   &cfg,
		Name:     cfg.DatabaseName,
		registry: r,
		store:    &store{},
	}
	db.callbacks = initializeCallbacks(db)
	db.rules = append(defaultRules(), cfg.Rules...)

	if err := db.RegisterModels(cfg.Models...); err != nil {
		return nil, err
	}
	if err := db.seed(); err != nil {
		return nil, err
	}
	return db, nil
}

// seed inserts the records the identity context refers to
func (db *DB) seed() error {
	now := db.now()

	bu := NewEntity("businessunit")
	bu.ID = db.BusinessUnitID
	bu.Set("businessunitid", bu.ID).Set("name", "Root Business Unit").Set("createdon", now)

	user := NewEntity("systemuser")
	user.ID = db.CallerID
	user.Set("systemuserid", user.ID).
		Set("fullname", "Calling User").
		Set("businessunitid", NewReference("businessunit", db.BusinessUnitID)).
		Set("createdon", now)

	org := NewEntity("organization")
	org.ID = db.OrganizationID
	org.Set("organizationid", org.ID).Set("name", "Organization").Set("createdon", now)

	for _, e := range []*Entity{bu, user, org} {
		if err := db.Table(e.LogicalName).Insert(e); err != nil {
			return err
		}
	}

	if db.CallerOnBehalfOfID != uuid.Nil && db.CallerOnBehalfOfID != db.CallerID {
		delegate := NewEntity("systemuser")
		delegate.ID = db.CallerOnBehalfOfID
		delegate.Set("systemuserid", delegate.ID).
			Set("fullname", "Delegating User").
			Set("businessunitid", NewReference("businessunit", db.BusinessUnitID)).
			Set("createdon", now)
		return db.Table("systemuser").Insert(delegate)
	}
	return nil
}

// Debug returns a database handle that logs every operation
func (db *DB) Debug() *DB {
	cfg := *db.Config
	cfg.Logger = db.Logger.LogMode(logger.Info)
	tx := *db
	tx.Config = &cfg
	return &tx
}

// Callback returns callback manager
func (db *DB) Callback() *callbacks {
	return db.callbacks
}

// Table returns the table of a record type, created on first use
func (db *DB) Table(logicalName string) *Table {
	logicalName = strings.ToLower(logicalName)
	if v, ok := db.store.tables.Load(logicalName); ok {
		return v.(*Table)
	}

	db.store.mu.Lock()
	defer db.store.mu.Unlock()
	if v, ok := db.store.tables.Load(logicalName); ok {
		return v.(*Table)
	}
	t := newTable(logicalName)
	db.store.tables.Store(logicalName, t)
	return t
}

// lookupTable returns an existing table without creating it
func (db *DB) lookupTable(logicalName string) (*Table, bool) {
	v, ok := db.store.tables.Load(strings.ToLower(logicalName))
	if !ok {
		return nil, false
	}
	return v.(*Table), true
}

// TableNames logical names of the tables created so far
func (db *DB) TableNames() []string {
	var names []string
	db.store.tables.Range(func(key, _ interface{}) bool {
		names = append(names, key.(string))
		return true
	})
	return names
}

// RegisterModels parses record structs and uses their schemas for validation
func (db *DB) RegisterModels(models ...interface{}) error {
	for _, model := range models {
		s, err := schema.Parse(model, db.registry.cacheStore, db.registry.config.NamingStrategy)
		if err != nil {
			return err
		}
		if v, loaded := db.store.models.LoadOrStore(s.LogicalName, s); loaded && v.(*schema.Schema) != s {
			db.Logger.Warn(context.Background(), "record type %s already registered by %s, keeping the first", s.LogicalName, v.(*schema.Schema).Name)
		}
	}
	return nil
}

// Schema returns the registered schema of a record type
func (db *DB) Schema(logicalName string) (*schema.Schema, bool) {
	v, ok := db.store.models.Load(strings.ToLower(logicalName))
	if !ok {
		return nil, false
	}
	return v.(*schema.Schema), true
}

// CallerReference the acting user
func (db *DB) CallerReference() EntityReference {
	return NewReference("systemuser", db.CallerID)
}

func (db *DB) now() time.Time {
	return db.NowFunc().UTC().Truncate(time.Second)
}

// primaryNameAttribute display name attribute of a record type
func (db *DB) primaryNameAttribute(logicalName string) string {
	if s, ok := db.Schema(logicalName); ok && s.PrimaryNameAttribute != "" {
		return s.PrimaryNameAttribute
	}
	return db.PrimaryNameProvider.PrimaryNameAttribute(logicalName)
}

// primaryIDAttribute id attribute of a record type
func (db *DB) primaryIDAttribute(logicalName string) string {
	if s, ok := db.Schema(logicalName); ok {
		return s.PrimaryIDAttribute
	}
	if isActivityType(logicalName) {
		return schema.ActivityIDAttribute
	}
	return logicalName + "id"
}
