package memory

import (
	"log/slog"
	"sync"

	"github.com/shy-share/rocketmq-connect/internal/domain"
)

// ConnectorStore is the in-memory connector config map. Records are deep
// copied on the way in and out, so callers can never alias the live map.
type ConnectorStore struct {
	mu      sync.RWMutex
	records map[string]*domain.ConnKeyValue
	logger  *slog.Logger
}

func NewConnectorStore(logger *slog.Logger) *ConnectorStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &ConnectorStore{
		records: make(map[string]*domain.ConnKeyValue),
		logger:  logger.With("component", "connector-store", "type", "memory"),
	}
}

func (s *ConnectorStore) Load() error {
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
	s.logger.Debug("connector record stored", "connector", name, "epoch", record.Epoch)
}

func (s *ConnectorStore) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, name)
	s.logger.Debug("connector record removed", "connector", name)
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
	return nil
}

// TaskStore is the in-memory map from connector name to its ordered task
// record list. Put replaces the list wholesale.
type TaskStore struct {
	mu      sync.RWMutex
	records map[string][]*domain.ConnKeyValue
	logger  *slog.Logger
}

func NewTaskStore(logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		records: make(map[string][]*domain.ConnKeyValue),
		logger:  logger.With("component", "task-store", "type", "memory"),
	}
}

func (s *TaskStore) Load() error {
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
	s.logger.Debug("task records replaced", "connector", name, "tasks", len(records))
}

func (s *TaskStore) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, name)
	s.logger.Debug("task records removed", "connector", name)
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
	return nil
}
