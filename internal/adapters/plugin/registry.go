package plugin

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/shy-share/rocketmq-connect/internal/domain"
	"github.com/shy-share/rocketmq-connect/internal/ports"
)

// Registry maps connector class names to factories. It stands in for the
// runtime's plugin/classloading layer: the coordinator only needs a
// resolved handle to branch validation and slice task configs.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ports.ConnectorFactory
	logger    *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		factories: make(map[string]ports.ConnectorFactory),
		logger:    logger.With("component", "plugin-registry"),
	}
}

func (r *Registry) RegisterConnector(className string, factory ports.ConnectorFactory) error {
	if className == "" {
		return &ports.ConnectorRegistrationError{
			ClassName: className,
			Reason:    "class name cannot be empty",
		}
	}
	if factory == nil {
		return &ports.ConnectorRegistrationError{
			ClassName: className,
			Reason:    "factory cannot be nil",
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[className]; exists {
		r.logger.Warn("connector registration conflict", "class", className)
		return &ports.ConnectorRegistrationError{
			ClassName: className,
			Reason:    "class already registered",
		}
	}

	r.factories[className] = factory
	r.logger.Info("connector class registered", "class", className)
	return nil
}

func (r *Registry) Resolve(className string) (ports.Connector, error) {
	r.mu.RLock()
	factory, exists := r.factories[className]
	r.mu.RUnlock()

	if !exists {
		r.logger.Debug("connector class not found", "class", className)
		return nil, fmt.Errorf("class [%s]: %w", className, domain.ErrClassNotFound)
	}
	return factory(), nil
}

func (r *Registry) ListClasses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	classes := make([]string, 0, len(r.factories))
	for className := range r.factories {
		classes = append(classes, className)
	}
	return classes
}

func (r *Registry) HasClass(className string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[className]
	return exists
}
