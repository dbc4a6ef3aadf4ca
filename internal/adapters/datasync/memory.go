package datasync

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Callback receives every signal broadcast on the synchronizer's topic.
type Callback func(key string, payload []byte)

// MemorySynchronizer is the standalone-mode transport: signals are fanned
// out synchronously to in-process subscribers. It satisfies the
// DataSynchronizer port; clustered deployments plug in a real transport
// behind the same port instead.
type MemorySynchronizer struct {
	topic  string
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[string]Callback
}

func NewMemorySynchronizer(topic string, logger *slog.Logger) *MemorySynchronizer {
	if logger == nil {
		logger = slog.Default()
	}

	return &MemorySynchronizer{
		topic:       topic,
		logger:      logger.With("component", "data-synchronizer", "type", "memory", "topic", topic),
		subscribers: make(map[string]Callback),
	}
}

// Subscribe registers a callback for every future Send. The returned
// cancel function removes the subscription.
func (s *MemorySynchronizer) Subscribe(callback Callback) (string, func()) {
	id := uuid.New().String()

	s.mu.Lock()
	s.subscribers[id] = callback
	s.mu.Unlock()

	s.logger.Debug("subscriber registered", "subscription", id)

	cancel := func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
	return id, cancel
}

func (s *MemorySynchronizer) Send(key string, payload []byte) error {
	s.mu.RLock()
	callbacks := make([]Callback, 0, len(s.subscribers))
	for _, callback := range s.subscribers {
		callbacks = append(callbacks, callback)
	}
	s.mu.RUnlock()

	for _, callback := range callbacks {
		callback(key, payload)
	}

	s.logger.Debug("signal delivered", "key", key, "subscribers", len(callbacks))
	return nil
}
