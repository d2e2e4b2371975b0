package ddbstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbiface"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/table"
)

var (
	// ErrTableNotFound is returned for operations on an unknown table.
	ErrTableNotFound = errors.New("table not found")
	// ErrTableExists is returned when creating a table that already exists
	// with a different key schema.
	ErrTableExists = errors.New("table already exists")
)

// Store is a local, DynamoDB-compatible table store backed by BadgerDB.
// Table definitions are persisted next to the items, so a store opened on
// an existing directory knows its tables again.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	mu     sync.RWMutex
	tables map[string]table.TableDefinition
}

var _ ddbiface.Client = (*Store)(nil)

// StoreOptions configures the BadgerDB store.
type StoreOptions struct {
	// Path to the database directory. If empty, uses in-memory mode.
	Path string
	// InMemory forces in-memory mode even if Path is set.
	InMemory bool
	// Logger receives store events and BadgerDB's own warnings and errors.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// New opens a store and registers defs in it.
func New(opts StoreOptions, defs ...table.TableDefinition) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)
	if opts.Path == "" || opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
		badgerOpts = badgerOpts.WithLogger(nil)
	} else {
		badgerOpts = badgerOpts.WithLogger(badgerLogger{logger.With("component", "badger")})
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
		tables: make(map[string]table.TableDefinition),
	}
	if err := s.loadTables(); err != nil {
		db.Close()
		return nil, err
	}
	for _, def := range defs {
		if err := s.CreateTable(context.Background(), def); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close closes the BadgerDB database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) loadTables() error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = tableMetaPrefix()
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var def table.TableDefinition
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &def)
			}); err != nil {
				return fmt.Errorf("load table definition %q: %w", it.Item().Key(), err)
			}
			s.tables[def.Name] = def
		}
		return nil
	})
}

// CreateTable registers def. Creating a table that exists with the same key
// schema is a no-op.
func (s *Store) CreateTable(ctx context.Context, def table.TableDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if err := validateTableName(def.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.tables[def.Name]; ok {
		if existing.KeyDefinitions != def.KeyDefinitions {
			return fmt.Errorf("%w: %s", ErrTableExists, def.Name)
		}
		return nil
	}

	raw, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encode table definition: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tableMetaKey(def.Name), raw)
	}); err != nil {
		return fmt.Errorf("create table %s: %w", def.Name, err)
	}

	s.tables[def.Name] = def
	s.logger.DebugContext(ctx, "table created", "table", def.Name)
	return nil
}

// DeleteTable drops a table and all of its items.
func (s *Store) DeleteTable(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	if err := s.db.DropPrefix(itemPrefix(name)); err != nil {
		return fmt.Errorf("drop items of %s: %w", name, err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(tableMetaKey(name))
	}); err != nil {
		return fmt.Errorf("delete table %s: %w", name, err)
	}

	delete(s.tables, name)
	s.logger.DebugContext(ctx, "table deleted", "table", name)
	return nil
}

// Tables returns the registered table definitions sorted by name.
func (s *Store) Tables() []table.TableDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs := make([]table.TableDefinition, 0, len(s.tables))
	for _, def := range s.tables {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

func (s *Store) getTable(tableName *string) (table.TableDefinition, error) {
	if tableName == nil || *tableName == "" {
		return table.TableDefinition{}, fmt.Errorf("table name is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.tables[*tableName]
	if !ok {
		return table.TableDefinition{}, fmt.Errorf("%w: %s", ErrTableNotFound, *tableName)
	}
	return def, nil
}

func (s *Store) keyEncoder(tableName *string) (keyEncoder, error) {
	def, err := s.getTable(tableName)
	if err != nil {
		return keyEncoder{}, err
	}
	return keyEncoder{tableName: def.Name, keyDefs: def.KeyDefinitions}, nil
}

// validateTableName accepts DynamoDB's table name alphabet. The zero byte is
// the key separator and must never appear in a name.
func validateTableName(name string) error {
	if len(name) > 255 {
		return fmt.Errorf("table name %q is longer than 255 characters", name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.':
		default:
			return fmt.Errorf("table name %q contains invalid character %q", name, r)
		}
	}
	return nil
}

// badgerLogger adapts slog to badger.Logger.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
