package orgsim

import (
	"sort"
	"sync"
	"time"

	"github.com/orgsim/orgsim/internal/query_store"
	"github.com/orgsim/orgsim/logger"
	"github.com/orgsim/orgsim/metrics"
	"github.com/orgsim/orgsim/schema"
)

// RegistryConfig settings shared by every database of a registry
type RegistryConfig struct {
	// NamingStrategy logical names, entity set names naming strategy
	NamingStrategy schema.Namer
	// Logger default logger of databases that do not set one
	Logger logger.Interface
	// Metrics default recorder of databases that do not set one
	Metrics metrics.Recorder
	// FetchCacheSize translated fetch expressions kept for reuse, 0 uses the default
	FetchCacheSize int
	// FetchCacheTTL how long a translated fetch expression is kept
	FetchCacheTTL time.Duration
}

// Registry owns named databases, the schema cache and association metadata
type Registry struct {
	config RegistryConfig

	mu           sync.Mutex
	databases    sync.Map
	cacheStore   *sync.Map
	queries      query_store.Store
	associations *associationRegistry
}

// NewRegistry creates an empty registry
func NewRegistry(config *RegistryConfig) *Registry {
	r := &Registry{
		cacheStore:   &sync.Map{},
		associations: newAssociationRegistry(),
	}
	if config != nil {
		r.config = *config
	}
	if r.config.NamingStrategy == nil {
		r.config.NamingStrategy = schema.NamingStrategy{}
	}
	if r.config.Logger == nil {
		r.config.Logger = logger.Default
	}
	if r.config.Metrics == nil {
		r.config.Metrics = metrics.Noop{}
	}
	r.queries = query_store.New(r.config.FetchCacheSize, r.config.FetchCacheTTL)
	return r
}

// Open returns the database named by config.DatabaseName, creating it on first
// use. Later opens of the same name return the first instance and ignore config
func (r *Registry) Open(config *Config) (*DB, error) {
	name := ""
	if config != nil {
		name = config.DatabaseName
	}

	if v, ok := r.databases.Load(name); ok {
		return v.(*DB), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.databases.Load(name); ok {
		return v.(*DB), nil
	}

	db, err := newDB(r, config)
	if err != nil {
		return nil, err
	}
	r.databases.Store(name, db)
	return db, nil
}

// Database returns an existing database
func (r *Registry) Database(name string) (*DB, bool) {
	v, ok := r.databases.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*DB), true
}

// Drop forgets a database, the next Open of the name creates a fresh one
func (r *Registry) Drop(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.databases.Delete(name)
}

// DatabaseNames names of the open databases, sorted
func (r *Registry) DatabaseNames() []string {
	var names []string
	r.databases.Range(func(key, _ interface{}) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}

// Parse returns the schema of a record struct from the registry's cache
func (r *Registry) Parse(model interface{}) (*schema.Schema, error) {
	return schema.Parse(model, r.cacheStore, r.config.NamingStrategy)
}
