package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/avendale/groundwork/pkg/models"
)

// Factory turns a backend configuration into concrete repositories, one per
// entity kind. Call sites never branch on backend type: adding a backend
// means adding one case to newRepository.
//
// A Factory can be constructed explicitly with NewFactory and passed around,
// or accessed through the process-wide default established by Init.
type Factory struct {
	cfg Config

	mu     sync.Mutex
	db     *sql.DB // lazily opened, sqlite backend only
	stores map[string]any
}

// NewFactory validates the configuration and returns a factory. No backend
// resource is touched until a repository is constructed.
func NewFactory(cfg Config) (*Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Factory{cfg: cfg, stores: make(map[string]any)}, nil
}

func (f *Factory) Config() Config { return f.cfg }

// Close releases backend resources held by the factory.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.db != nil {
		err := f.db.Close()
		f.db = nil
		return err
	}
	return nil
}

// sqliteDB opens the shared sqlite handle on first use. Callers must hold
// the factory mutex.
func (f *Factory) sqliteDB() (*sql.DB, error) {
	if f.db == nil {
		db, err := OpenSQLite(f.cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	return f.db, nil
}

// newRepository resolves the configured backend into a store for one entity
// kind, reusing the instance on subsequent calls so that all access to a kind
// serializes on the same collection lock.
func newRepository[T any, PT Record[T]](f *Factory) (Repository[T], error) {
	var zero T
	kind := PT(&zero).Kind()

	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.stores[kind]; ok {
		return existing.(Repository[T]), nil
	}

	var repo Repository[T]
	switch f.cfg.Type {
	case BackendFile:
		repo = NewFileStore[T, PT](f.cfg.FilePath)
	case BackendSQLite:
		db, err := f.sqliteDB()
		if err != nil {
			return nil, err
		}
		s, err := NewSQLiteStore[T, PT](db)
		if err != nil {
			return nil, err
		}
		repo = s
	case BackendMongoDB, BackendPostgres:
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, f.cfg.Type)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, f.cfg.Type)
	}
	f.stores[kind] = repo
	return repo, nil
}

func (f *Factory) Projects() (Repository[models.Project], error) {
	return newRepository[models.Project, *models.Project](f)
}

func (f *Factory) Users() (Repository[models.User], error) {
	return newRepository[models.User, *models.User](f)
}

func (f *Factory) Documents() (Repository[models.Document], error) {
	return newRepository[models.Document, *models.Document](f)
}

func (f *Factory) Loans() (Repository[models.Loan], error) {
	return newRepository[models.Loan, *models.Loan](f)
}

func (f *Factory) Investors() (Repository[models.Investor], error) {
	return newRepository[models.Investor, *models.Investor](f)
}

func (f *Factory) Investments() (Repository[models.Investment], error) {
	return newRepository[models.Investment, *models.Investment](f)
}

func (f *Factory) Transactions() (Repository[models.Transaction], error) {
	return newRepository[models.Transaction, *models.Transaction](f)
}

var (
	defaultMu      sync.Mutex
	defaultFactory *Factory
)

// Init establishes the process-wide factory. The first successful call wins;
// later calls return the existing instance and ignore their configuration.
func Init(cfg Config) (*Factory, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultFactory != nil {
		return defaultFactory, nil
	}
	f, err := NewFactory(cfg)
	if err != nil {
		return nil, err
	}
	defaultFactory = f
	logger.Info().Str("backend", string(cfg.Type)).Msg("store factory initialized")
	return f, nil
}

// Instance returns the process-wide factory established by Init.
func Instance() (*Factory, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultFactory == nil {
		return nil, ErrNotInitialized
	}
	return defaultFactory, nil
}

// resetDefault drops the process-wide factory. Tests only.
func resetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultFactory = nil
}
