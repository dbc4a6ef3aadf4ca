package domain

import "fmt"

const (
	restartConnectorPrefix = "restart-"
	restartTaskPrefix      = "restart-task-"
)

// RestartSignal is the ephemeral payload broadcast through the sync
// gateway. It is never written to the config store.
type RestartSignal struct {
	Epoch int64 `json:"epoch"`
}

// RestartConnectorKey builds the broadcast key for a connector restart.
func RestartConnectorKey(connectorName string) string {
	return restartConnectorPrefix + connectorName
}

// RestartTaskKey builds the broadcast key for a single task restart.
func RestartTaskKey(connectorName string, task int) string {
	return fmt.Sprintf("%s%s-%d", restartTaskPrefix, connectorName, task)
}
