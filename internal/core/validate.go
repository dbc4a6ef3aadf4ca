package core

import (
	"github.com/shy-share/rocketmq-connect/internal/domain"
	"github.com/shy-share/rocketmq-connect/internal/ports"
)

// requiredConfigKeys must be present in every submitted connector config.
var requiredConfigKeys = []string{
	domain.KeyConnectorClass,
	domain.KeyTaskMax,
}

func validateRequiredKeys(name string, config *domain.ConnKeyValue) error {
	for _, key := range requiredConfigKeys {
		if !config.Contains(key) {
			return domain.NewConfigIncompleteError(name, key)
		}
	}
	if _, err := config.TaskMax(); err != nil {
		return domain.NewConfigInvalidError(name, err.Error())
	}
	return nil
}

// validateForKind checks the fields whose legality depends on connector
// direction. The kind is a tagged variant resolved once at plugin
// resolution time; no runtime type inspection happens here.
func validateForKind(name string, config *domain.ConnKeyValue, kind ports.ConnectorKind) error {
	switch kind {
	case ports.ConnectorKindSource:
		if !config.Contains(domain.KeySourceTopic) {
			return domain.NewConfigIncompleteError(name, domain.KeySourceTopic)
		}
		if config.Contains(domain.KeySinkTopics) {
			return domain.NewConfigInvalidError(name, "source connector must not set "+domain.KeySinkTopics)
		}
	case ports.ConnectorKindSink:
		if !config.Contains(domain.KeySinkTopics) {
			return domain.NewConfigIncompleteError(name, domain.KeySinkTopics)
		}
		if config.Contains(domain.KeySourceTopic) {
			return domain.NewConfigInvalidError(name, "sink connector must not set "+domain.KeySourceTopic)
		}
	default:
		return domain.NewConfigInvalidError(name, "unknown connector kind: "+string(kind))
	}
	return nil
}
