package ports

import "fmt"

// ConnectorKind tags a connector implementation as a source or a sink.
// It is resolved once per class and carried explicitly into validation.
type ConnectorKind string

const (
	ConnectorKindSource ConnectorKind = "source"
	ConnectorKindSink   ConnectorKind = "sink"
)

// Connector is the handle the plugin layer returns for a resolved class.
// The coordinator only ever branches on the kind and asks the connector
// to slice its configuration into per-task configurations.
type Connector interface {
	Kind() ConnectorKind

	// TaskConfigs splits the connector configuration into at most
	// maxTasks per-task configurations. The returned order is the task
	// index order.
	TaskConfigs(config map[string]string, maxTasks int) []map[string]string
}

// ConnectorFactory builds a fresh connector handle for a registered class.
type ConnectorFactory func() Connector

// ConnectorPlugin resolves a connector class name to a usable handle.
type ConnectorPlugin interface {
	Resolve(className string) (Connector, error)
}

type ConnectorRegistrationError struct {
	ClassName string
	Reason    string
}

func (e *ConnectorRegistrationError) Error() string {
	return fmt.Sprintf("connector registration failed for '%s': %s", e.ClassName, e.Reason)
}
