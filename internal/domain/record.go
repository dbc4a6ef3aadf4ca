package domain

import (
	"fmt"
	"strconv"
)

// TargetState is the desired run state a connector's tasks should converge to.
type TargetState string

const (
	TargetStateStarted TargetState = "STARTED"
	TargetStatePaused  TargetState = "PAUSED"
)

// Well-known configuration keys.
const (
	KeyConnectorClass = "connector.class"
	KeyTaskMax        = "task.max"
	KeySourceTopic    = "connect.topicname"
	KeySinkTopics     = "connect.topicnames"

	// Stamped on derived task records during recompute.
	KeyTaskID        = "task.id"
	KeyConnectorName = "connector.name"
)

// ConnKeyValue is one generation of a connector configuration: the raw
// attribute map plus the desired lifecycle state and the epoch of this
// generation. Stores and callers exchange deep copies only; a stored
// record is never mutated in place.
type ConnKeyValue struct {
	Properties  map[string]string `json:"properties"`
	TargetState TargetState       `json:"targetState"`
	Epoch       int64             `json:"epoch"`
}

// NewConnKeyValue builds a record from raw attributes. The map is copied,
// so the caller keeps ownership of its argument.
func NewConnKeyValue(properties map[string]string) *ConnKeyValue {
	return &ConnKeyValue{Properties: cloneProperties(properties)}
}

func (c *ConnKeyValue) Clone() *ConnKeyValue {
	if c == nil {
		return nil
	}
	return &ConnKeyValue{
		Properties:  cloneProperties(c.Properties),
		TargetState: c.TargetState,
		Epoch:       c.Epoch,
	}
}

// NextGeneration returns a copy of the record stamped with a new epoch.
func (c *ConnKeyValue) NextGeneration(epoch int64) *ConnKeyValue {
	next := c.Clone()
	next.Epoch = epoch
	return next
}

// EqualProperties reports whether the raw attribute maps are structurally
// equal. Target state and epoch are excluded: a fresh submission carries
// neither, so only the attributes can meaningfully match a stored record.
func (c *ConnKeyValue) EqualProperties(other *ConnKeyValue) bool {
	if c == nil || other == nil {
		return c == other
	}
	if len(c.Properties) != len(other.Properties) {
		return false
	}
	for k, v := range c.Properties {
		ov, ok := other.Properties[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

func (c *ConnKeyValue) GetString(key string) (string, bool) {
	v, ok := c.Properties[key]
	return v, ok
}

func (c *ConnKeyValue) Contains(key string) bool {
	_, ok := c.Properties[key]
	return ok
}

// TaskMax parses the declared task count. Absent or malformed values are
// rejected before any store mutation, so callers after validation can
// treat an error here as a bug.
func (c *ConnKeyValue) TaskMax() (int, error) {
	raw, ok := c.Properties[KeyTaskMax]
	if !ok {
		return 0, fmt.Errorf("missing key %q", KeyTaskMax)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("key %q is not an integer: %w", KeyTaskMax, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("key %q must be at least 1, got %d", KeyTaskMax, n)
	}
	return n, nil
}

func cloneProperties(properties map[string]string) map[string]string {
	out := make(map[string]string, len(properties))
	for k, v := range properties {
		out[k] = v
	}
	return out
}

// CloneRecordList deep-copies an ordered task record list.
func CloneRecordList(records []*ConnKeyValue) []*ConnKeyValue {
	if records == nil {
		return nil
	}
	out := make([]*ConnKeyValue, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
