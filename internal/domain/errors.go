package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConnectorNotFound = errors.New("connector does not exist")
	ErrTaskNotFound      = errors.New("task does not exist")
	ErrClassNotFound     = errors.New("connector class not registered")
)

type ConfigErrorKind int

const (
	ConfigIncomplete ConfigErrorKind = iota
	ConfigDuplicate
	ConfigInvalid
)

func (k ConfigErrorKind) String() string {
	switch k {
	case ConfigIncomplete:
		return "incomplete"
	case ConfigDuplicate:
		return "duplicate"
	case ConfigInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// ConfigError rejects a connector configuration before it reaches the
// store. None of these are retryable; the caller must fix the input.
type ConfigError struct {
	Kind      ConfigErrorKind
	Connector string
	Message   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config [%s] %s: %s", e.Connector, e.Kind, e.Message)
}

func (e *ConfigError) Is(target error) bool {
	var other *ConfigError
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

func NewConfigIncompleteError(connector, key string) *ConfigError {
	return &ConfigError{
		Kind:      ConfigIncomplete,
		Connector: connector,
		Message:   "required config key missing: " + key,
	}
}

func NewConfigDuplicateError(connector string) *ConfigError {
	return &ConfigError{
		Kind:      ConfigDuplicate,
		Connector: connector,
		Message:   "connector with same config already exists",
	}
}

func NewConfigInvalidError(connector, message string) *ConfigError {
	return &ConfigError{
		Kind:      ConfigInvalid,
		Connector: connector,
		Message:   message,
	}
}

func IsConfigIncomplete(err error) bool {
	return isConfigKind(err, ConfigIncomplete)
}

func IsConfigDuplicate(err error) bool {
	return isConfigKind(err, ConfigDuplicate)
}

func IsConfigInvalid(err error) bool {
	return isConfigKind(err, ConfigInvalid)
}

func isConfigKind(err error, kind ConfigErrorKind) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr) && cfgErr.Kind == kind
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrConnectorNotFound) || errors.Is(err, ErrTaskNotFound)
}

// TransportError wraps a failure surfaced from the sync gateway. The local
// decision to attempt a restart is not rolled back; the broadcast and the
// local intent are not transactionally linked.
type TransportError struct {
	Key string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport send failed for key %s: %v", e.Key, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func NewTransportError(key string, err error) *TransportError {
	return &TransportError{Key: key, Err: err}
}

func IsTransportFailure(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
