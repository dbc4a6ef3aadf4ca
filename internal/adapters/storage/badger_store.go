package storage

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/shy-share/rocketmq-connect/internal/domain"
	"github.com/shy-share/rocketmq-connect/internal/xjson"
)

const (
	connectorKeyPrefix = "connector:"
	taskKeyPrefix      = "task:"
)

// Open opens the badger database backing the durable stores. Badger's own
// logger is silenced; store operations log through slog instead.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	return badger.Open(opts)
}

// ConnectorStore is the badger-backed connector config map. Reads and
// writes go against an in-memory working copy; Load and Persist move the
// whole map between badger and memory, mirroring the startup/shutdown
// hooks of the coordinator.
type ConnectorStore struct {
	db     *badger.DB
	logger *slog.Logger

	mu      sync.RWMutex
	records map[string]*domain.ConnKeyValue
}

func NewConnectorStore(db *badger.DB, logger *slog.Logger) *ConnectorStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &ConnectorStore{
		db:      db,
		logger:  logger.With("component", "connector-store", "type", "badger"),
		records: make(map[string]*domain.ConnKeyValue),
	}
}

func (s *ConnectorStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := make(map[string]*domain.ConnKeyValue)
	err := s.db.View(func(txn *badger.Txn) error {
		return forEachPrefixed(txn, connectorKeyPrefix, func(name string, value []byte) error {
			var record domain.ConnKeyValue
			if err := xjson.Unmarshal(value, &record); err != nil {
				return err
			}
			loaded[name] = &record
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.records = loaded
	s.logger.Info("connector records loaded", "count", len(loaded))
	return nil
}

func (s *ConnectorStore) Get(name string) (*domain.ConnKeyValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[name]
	if !exists {
		return nil, false
	}
	return record.Clone(), true
}

func (s *ConnectorStore) Put(name string, record *domain.ConnKeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[name] = record.Clone()
}

func (s *ConnectorStore) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, name)
}

func (s *ConnectorStore) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.records[name]
	return exists
}

func (s *ConnectorStore) Snapshot() map[string]*domain.ConnKeyValue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*domain.ConnKeyValue, len(s.records))
	for name, record := range s.records {
		out[name] = record.Clone()
	}
	return out
}

func (s *ConnectorStore) Persist() error {
	s.mu.RLock()
	encoded := make(map[string][]byte, len(s.records))
	for name, record := range s.records {
		value, err := xjson.Marshal(record)
		if err != nil {
			s.mu.RUnlock()
			return err
		}
		encoded[name] = value
	}
	s.mu.RUnlock()

	if err := replacePrefixed(s.db, connectorKeyPrefix, encoded); err != nil {
		return err
	}
	s.logger.Info("connector records persisted", "count", len(encoded))
	return nil
}

// TaskStore is the badger-backed map from connector name to its ordered
// task record list.
type TaskStore struct {
	db     *badger.DB
	logger *slog.Logger

	mu      sync.RWMutex
	records map[string][]*domain.ConnKeyValue
}

func NewTaskStore(db *badger.DB, logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		db:      db,
		logger:  logger.With("component", "task-store", "type", "badger"),
		records: make(map[string][]*domain.ConnKeyValue),
	}
}

func (s *TaskStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := make(map[string][]*domain.ConnKeyValue)
	err := s.db.View(func(txn *badger.Txn) error {
		return forEachPrefixed(txn, taskKeyPrefix, func(name string, value []byte) error {
			var records []*domain.ConnKeyValue
			if err := xjson.Unmarshal(value, &records); err != nil {
				return err
			}
			loaded[name] = records
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.records = loaded
	s.logger.Info("task records loaded", "count", len(loaded))
	return nil
}

func (s *TaskStore) Get(name string) ([]*domain.ConnKeyValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, exists := s.records[name]
	if !exists {
		return nil, false
	}
	return domain.CloneRecordList(records), true
}

func (s *TaskStore) Put(name string, records []*domain.ConnKeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[name] = domain.CloneRecordList(records)
}

func (s *TaskStore) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, name)
}

func (s *TaskStore) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.records[name]
	return exists
}

func (s *TaskStore) Snapshot() map[string][]*domain.ConnKeyValue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]*domain.ConnKeyValue, len(s.records))
	for name, records := range s.records {
		out[name] = domain.CloneRecordList(records)
	}
	return out
}

func (s *TaskStore) Persist() error {
	s.mu.RLock()
	encoded := make(map[string][]byte, len(s.records))
	for name, records := range s.records {
		value, err := xjson.Marshal(records)
		if err != nil {
			s.mu.RUnlock()
			return err
		}
		encoded[name] = value
	}
	s.mu.RUnlock()

	if err := replacePrefixed(s.db, taskKeyPrefix, encoded); err != nil {
		return err
	}
	s.logger.Info("task records persisted", "count", len(encoded))
	return nil
}

func forEachPrefixed(txn *badger.Txn, prefix string, fn func(name string, value []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		name := strings.TrimPrefix(string(item.Key()), prefix)
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(name, value); err != nil {
			return err
		}
	}
	return nil
}

// replacePrefixed swaps the whole key range under prefix for the given
// entries in one transaction, so a persisted map never mixes generations.
func replacePrefixed(db *badger.DB, prefix string, entries map[string][]byte) error {
	return db.Update(func(txn *badger.Txn) error {
		var stale [][]byte
		if err := forEachPrefixed(txn, prefix, func(name string, _ []byte) error {
			if _, keep := entries[name]; !keep {
				stale = append(stale, []byte(prefix+name))
			}
			return nil
		}); err != nil {
			return err
		}

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for name, value := range entries {
			if err := txn.Set([]byte(prefix+name), value); err != nil {
				return err
			}
		}
		return nil
	})
}
