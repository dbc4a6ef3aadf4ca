// Package connect provides a versioned configuration coordinator for a
// pool of pluggable data-movement connectors and their derived tasks.
//
// The coordinator owns the authoritative in-memory record of what should
// be running: connector configs, derived per-task configs, and the
// desired lifecycle state of each connector. Mutations go through a
// single protocol — validate, bump the epoch, recompute derived task
// records, notify the registered listener — so cooperating subsystems
// always converge on a coherent desired state.
//
// Basic usage:
//
//	registry := connect.NewRegistry(logger)
//	registry.RegisterConnector("FooSource", func() connect.Connector { return &fooSource{} })
//
//	service, _ := connect.New(&connect.Config{WorkerID: "worker-1"}, registry, logger)
//	service.Start()
//	defer service.Stop()
//
//	service.PutConnectorConfig("conn1", connect.NewConnKeyValue(map[string]string{
//	    "connector.class":   "FooSource",
//	    "task.max":          "2",
//	    "connect.topicname": "topic-a",
//	}))
package connect

import (
	"log/slog"

	"github.com/dgraph-io/badger/v3"

	"github.com/shy-share/rocketmq-connect/internal/adapters/codec"
	"github.com/shy-share/rocketmq-connect/internal/adapters/datasync"
	"github.com/shy-share/rocketmq-connect/internal/adapters/memory"
	"github.com/shy-share/rocketmq-connect/internal/adapters/plugin"
	"github.com/shy-share/rocketmq-connect/internal/adapters/storage"
	"github.com/shy-share/rocketmq-connect/internal/core"
	"github.com/shy-share/rocketmq-connect/internal/domain"
	"github.com/shy-share/rocketmq-connect/internal/ports"
)

// Config carries the worker-level coordinator settings. Unset fields are
// filled with defaults.
type Config = domain.CoordinatorConfig

// ConnKeyValue is one generation of a connector configuration.
type ConnKeyValue = domain.ConnKeyValue

// NewConnKeyValue builds a record from raw attributes.
var NewConnKeyValue = domain.NewConnKeyValue

// TargetState is the desired run state a connector's tasks converge to.
type TargetState = domain.TargetState

const (
	TargetStateStarted = domain.TargetStateStarted
	TargetStatePaused  = domain.TargetStatePaused
)

// Connector is the handle a registered connector factory returns.
type Connector = ports.Connector

// ConnectorKind tags a connector class as source or sink.
type ConnectorKind = ports.ConnectorKind

const (
	ConnectorKindSource = ports.ConnectorKindSource
	ConnectorKindSink   = ports.ConnectorKindSink
)

// ConnectorFactory builds a connector handle for a registered class.
type ConnectorFactory = ports.ConnectorFactory

// ConfigUpdateListener is the single-slot change notification callback.
type ConfigUpdateListener = ports.ConfigUpdateListener

// ConfigUpdateListenerFunc adapts a function to the listener interface.
type ConfigUpdateListenerFunc = ports.ConfigUpdateListenerFunc

// DataSynchronizer is the boundary to the external signal transport.
type DataSynchronizer = ports.DataSynchronizer

// Registry resolves connector class names to implementations.
type Registry = plugin.Registry

// NewRegistry creates an empty connector class registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return plugin.NewRegistry(logger)
}

// Error predicates, re-exported for callers of the lifecycle operations.
var (
	IsConfigIncomplete = domain.IsConfigIncomplete
	IsConfigDuplicate  = domain.IsConfigDuplicate
	IsConfigInvalid    = domain.IsConfigInvalid
	IsNotFound         = domain.IsNotFound
	IsTransportFailure = domain.IsTransportFailure
)

// Service bundles the coordinator with the resources it was wired from.
// Stop flushes the stores and, in durable mode, closes the database.
type Service struct {
	*core.Coordinator

	db *badger.DB
}

// Option overrides a piece of the default wiring.
type Option func(*options)

type options struct {
	synchronizer ports.DataSynchronizer
	converter    ports.Converter
}

// WithSynchronizer replaces the in-process signal transport.
func WithSynchronizer(synchronizer ports.DataSynchronizer) Option {
	return func(o *options) {
		o.synchronizer = synchronizer
	}
}

// WithConverter replaces the JSON signal encoder.
func WithConverter(converter ports.Converter) Option {
	return func(o *options) {
		o.converter = converter
	}
}

// New wires a coordinator. With Config.StorePath set the stores are
// backed by badger and survive restarts; otherwise everything lives in
// memory.
func New(cfg *Config, registry *Registry, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := &options{
		synchronizer: datasync.NewMemorySynchronizer(cfg.ConfigStoreTopic, logger),
		converter:    codec.NewJSONConverter(),
	}
	for _, opt := range opts {
		opt(o)
	}

	var (
		connectorStore ports.ConnectorStore
		taskStore      ports.TaskStore
		db             *badger.DB
	)
	if cfg.StorePath != "" {
		var err error
		db, err = storage.Open(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		connectorStore = storage.NewConnectorStore(db, logger)
		taskStore = storage.NewTaskStore(db, logger)
	} else {
		connectorStore = memory.NewConnectorStore(logger)
		taskStore = memory.NewTaskStore(logger)
	}

	coordinator := core.NewCoordinator(cfg, connectorStore, taskStore, registry, o.converter, o.synchronizer, logger)
	return &Service{Coordinator: coordinator, db: db}, nil
}

// Stop flushes both stores and releases the backing database.
func (s *Service) Stop() error {
	if err := s.Coordinator.Stop(); err != nil {
		return err
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
