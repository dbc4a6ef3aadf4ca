package core

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/shy-share/rocketmq-connect/internal/domain"
	"github.com/shy-share/rocketmq-connect/internal/ports"
)

// Coordinator owns the authoritative desired-state record for a pool of
// connectors and their derived tasks: the connector config map, the task
// config map, and the protocol for mutating them. Every mutating
// operation is an atomic read-modify-write against both maps; the single
// registered listener is fired synchronously after the mutation commits.
//
// Restart intents are not state mutations. They are broadcast through the
// data synchronizer and never touch the stores or the listener.
type Coordinator struct {
	cfg    *domain.CoordinatorConfig
	logger *slog.Logger
	clock  *domain.EpochClock

	// mu serializes read-modify-write sequences across both stores, so
	// two operations on the same connector can never interleave their
	// read and write halves.
	mu             sync.Mutex
	connectorStore ports.ConnectorStore
	taskStore      ports.TaskStore

	plugin       ports.ConnectorPlugin
	converter    ports.Converter
	synchronizer ports.DataSynchronizer

	listenerMu sync.RWMutex
	listener   ports.ConfigUpdateListener
}

func NewCoordinator(
	cfg *domain.CoordinatorConfig,
	connectorStore ports.ConnectorStore,
	taskStore ports.TaskStore,
	plugin ports.ConnectorPlugin,
	converter ports.Converter,
	synchronizer ports.DataSynchronizer,
	logger *slog.Logger,
) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		cfg:            cfg,
		logger:         logger.With("component", "config-coordinator", "worker", cfg.WorkerID),
		clock:          domain.NewEpochClock(),
		connectorStore: connectorStore,
		taskStore:      taskStore,
		plugin:         plugin,
		converter:      converter,
		synchronizer:   synchronizer,
	}
}

// Start loads both stores through their durability hooks. In pure
// in-memory mode both loads are no-ops.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectorStore.Load(); err != nil {
		return fmt.Errorf("loading connector store: %w", err)
	}
	if err := c.taskStore.Load(); err != nil {
		return fmt.Errorf("loading task store: %w", err)
	}

	c.logger.Info("coordinator started", "topic", c.cfg.ConfigStoreTopic)
	return nil
}

// Stop flushes both stores.
func (c *Coordinator) Stop() error {
	if err := c.Persist(); err != nil {
		return err
	}
	c.logger.Info("coordinator stopped")
	return nil
}

func (c *Coordinator) Persist() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectorStore.Persist(); err != nil {
		return fmt.Errorf("persisting connector store: %w", err)
	}
	if err := c.taskStore.Persist(); err != nil {
		return fmt.Errorf("persisting task store: %w", err)
	}
	return nil
}

// PutConnectorConfig validates and stores a new connector config
// generation, then regenerates the derived task records. Submitting a
// config structurally identical to the stored one is rejected rather than
// silently accepted, so a client bug cannot hide behind a no-op.
func (c *Coordinator) PutConnectorConfig(name string, config *domain.ConnKeyValue) error {
	if err := validateRequiredKeys(name, config); err != nil {
		return err
	}

	className, _ := config.GetString(domain.KeyConnectorClass)
	connector, err := c.plugin.Resolve(className)
	if err != nil {
		return err
	}
	if err := validateForKind(name, config, connector.Kind()); err != nil {
		return err
	}

	c.mu.Lock()
	if old, exists := c.connectorStore.Get(name); exists && config.EqualProperties(old) {
		c.mu.Unlock()
		return domain.NewConfigDuplicateError(name)
	}

	next := config.Clone()
	next.TargetState = domain.TargetStateStarted
	next.Epoch = c.clock.Next()

	c.connectorStore.Put(name, next)
	c.replaceTaskRecords(name, next, connector)
	c.mu.Unlock()

	c.logger.Info("connector config stored",
		"connector", name, "class", className, "epoch", next.Epoch)
	c.notify()
	return nil
}

// RecomputeTaskConfigs re-derives the task record list from the stored
// connector config, replacing the prior list wholesale.
func (c *Coordinator) RecomputeTaskConfigs(name string) error {
	c.mu.Lock()
	config, exists := c.connectorStore.Get(name)
	if !exists {
		c.mu.Unlock()
		return fmt.Errorf("connector [%s]: %w", name, domain.ErrConnectorNotFound)
	}

	className, _ := config.GetString(domain.KeyConnectorClass)
	connector, err := c.plugin.Resolve(className)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	c.replaceTaskRecords(name, config, connector)
	c.mu.Unlock()

	c.notify()
	return nil
}

// PauseConnector moves the connector's desired state to PAUSED in a new
// generation. Pausing an already paused connector is legal and simply
// re-stamps the epoch. Task records are untouched.
func (c *Coordinator) PauseConnector(name string) error {
	return c.setTargetState(name, domain.TargetStatePaused)
}

// ResumeConnector moves the connector's desired state back to STARTED in
// a new generation.
func (c *Coordinator) ResumeConnector(name string) error {
	return c.setTargetState(name, domain.TargetStateStarted)
}

func (c *Coordinator) setTargetState(name string, state domain.TargetState) error {
	c.mu.Lock()
	current, exists := c.connectorStore.Get(name)
	if !exists {
		c.mu.Unlock()
		return fmt.Errorf("connector [%s]: %w", name, domain.ErrConnectorNotFound)
	}

	next := current.NextGeneration(c.clock.Next())
	next.TargetState = state
	c.connectorStore.Put(name, next)
	c.mu.Unlock()

	c.logger.Info("connector target state updated",
		"connector", name, "state", state, "epoch", next.Epoch)
	c.notify()
	return nil
}

// RestartConnector broadcasts a restart intent for the whole connector.
// Local state is not mutated and the listener does not fire; the restart
// is carried out by recipients reacting to the signal.
func (c *Coordinator) RestartConnector(name string) error {
	if !c.connectorStore.Contains(name) {
		return fmt.Errorf("connector [%s]: %w", name, domain.ErrConnectorNotFound)
	}
	return c.sendRestartSignal(domain.RestartConnectorKey(name))
}

// RestartTask broadcasts a restart intent for a single task. The two
// preconditions stay distinguishable: the connector may be absent, or it
// may exist without any derived tasks yet.
func (c *Coordinator) RestartTask(name string, task int) error {
	if !c.connectorStore.Contains(name) {
		return fmt.Errorf("connector [%s]: %w", name, domain.ErrConnectorNotFound)
	}
	if !c.taskStore.Contains(name) {
		return fmt.Errorf("task [%s/%d]: %w", name, task, domain.ErrTaskNotFound)
	}
	return c.sendRestartSignal(domain.RestartTaskKey(name, task))
}

func (c *Coordinator) sendRestartSignal(key string) error {
	signal := domain.RestartSignal{Epoch: c.clock.Next()}
	payload, err := c.converter.Encode(signal)
	if err != nil {
		return fmt.Errorf("encoding restart signal: %w", err)
	}

	if err := c.synchronizer.Send(key, payload); err != nil {
		return domain.NewTransportError(key, err)
	}

	c.logger.Info("restart signal sent", "key", key, "epoch", signal.Epoch)
	return nil
}

// DeleteConnectorConfig removes the connector record and its task record
// list together. Deleting an absent connector is a no-op.
func (c *Coordinator) DeleteConnectorConfig(name string) {
	c.mu.Lock()
	if !c.connectorStore.Contains(name) && !c.taskStore.Contains(name) {
		c.mu.Unlock()
		return
	}

	c.connectorStore.Remove(name)
	c.taskStore.Remove(name)
	c.mu.Unlock()

	c.logger.Info("connector config deleted", "connector", name)
	c.notify()
}

// GetConnectorConfigs returns a point-in-time snapshot of the connector
// config map. The snapshot does not reflect later mutations.
func (c *Coordinator) GetConnectorConfigs() map[string]*domain.ConnKeyValue {
	return c.connectorStore.Snapshot()
}

// GetTaskConfigs returns a point-in-time snapshot of the derived task
// record lists.
func (c *Coordinator) GetTaskConfigs() map[string][]*domain.ConnKeyValue {
	return c.taskStore.Snapshot()
}

// RegisterListener installs the config-update listener, overwriting any
// previous registration.
func (c *Coordinator) RegisterListener(listener ports.ConfigUpdateListener) {
	c.listenerMu.Lock()
	c.listener = listener
	c.listenerMu.Unlock()
}

// replaceTaskRecords derives the task record list from a connector config
// generation and swaps it in wholesale. Caller holds c.mu.
func (c *Coordinator) replaceTaskRecords(name string, config *domain.ConnKeyValue, connector ports.Connector) {
	taskMax, err := config.TaskMax()
	if err != nil {
		// Validation rejects bad task counts before storage.
		taskMax = 1
	}

	slices := connector.TaskConfigs(config.Clone().Properties, taskMax)
	records := make([]*domain.ConnKeyValue, 0, len(slices))
	for i, properties := range slices {
		record := domain.NewConnKeyValue(properties)
		record.Properties[domain.KeyTaskID] = strconv.Itoa(i)
		record.Properties[domain.KeyConnectorName] = name
		record.TargetState = config.TargetState
		record.Epoch = config.Epoch
		records = append(records, record)
	}

	c.taskStore.Put(name, records)
	c.logger.Debug("task records recomputed", "connector", name, "tasks", len(records))
}

func (c *Coordinator) notify() {
	c.listenerMu.RLock()
	listener := c.listener
	c.listenerMu.RUnlock()

	if listener == nil {
		return
	}
	listener.OnConfigUpdate()
}
