package domain

import (
	"dario.cat/mergo"
)

// CoordinatorConfig carries the worker-level settings the coordinator
// needs. Zero fields are filled from DefaultCoordinatorConfig.
type CoordinatorConfig struct {
	// WorkerID identifies this worker in logs and broadcast metadata.
	WorkerID string `json:"worker_id"`

	// ConfigStoreTopic is the logical channel restart signals are
	// broadcast on.
	ConfigStoreTopic string `json:"config_store_topic"`

	// StorePath, when set, enables the durable badger-backed store.
	// Empty means pure in-memory mode.
	StorePath string `json:"store_path"`
}

func DefaultCoordinatorConfig() *CoordinatorConfig {
	return &CoordinatorConfig{
		WorkerID:         "standalone-worker",
		ConfigStoreTopic: "connector-config-topic",
	}
}

// ApplyDefaults overlays default values onto unset fields.
func (c *CoordinatorConfig) ApplyDefaults() error {
	return mergo.Merge(c, DefaultCoordinatorConfig())
}
