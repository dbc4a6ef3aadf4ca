package ports

import (
	"github.com/shy-share/rocketmq-connect/internal/domain"
)

// ConnectorStore is the key-indexed map from connector name to its current
// configuration generation. Implementations must hand out deep copies:
// callers never receive references into the live map, and Snapshot is a
// point-in-time view that does not reflect later mutations.
//
// Load and Persist are the durability hooks; the in-memory implementation
// treats both as no-ops.
type ConnectorStore interface {
	Load() error
	Get(name string) (*domain.ConnKeyValue, bool)
	Put(name string, record *domain.ConnKeyValue)
	Remove(name string)
	Contains(name string) bool
	Snapshot() map[string]*domain.ConnKeyValue
	Persist() error
}

// TaskStore maps a connector name to its ordered list of derived task
// records. Put replaces the whole list; single-element updates are not
// part of the contract, so readers never observe a mixed-generation list.
type TaskStore interface {
	Load() error
	Get(name string) ([]*domain.ConnKeyValue, bool)
	Put(name string, records []*domain.ConnKeyValue)
	Remove(name string)
	Contains(name string) bool
	Snapshot() map[string][]*domain.ConnKeyValue
	Persist() error
}
