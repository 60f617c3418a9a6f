// Package adapters defines the resource sources the pipeline fetches raw JSON
// documents from, and a registry of source factories keyed by source type.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is wrapped by sources when a named resource does not exist.
var ErrNotFound = errors.New("resource not found")

// ResourceSource provides named JSON resources such as totallist.json.
type ResourceSource interface {
	// Fetch returns the raw bytes of the named resource.
	Fetch(ctx context.Context, name string) ([]byte, error)

	// Name identifies the source in logs and errors.
	Name() string

	// Close releases any held resources.
	Close() error
}

// Watcher is implemented by sources that can report changed resources.
type Watcher interface {
	// Watch emits resource names as they change until ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}

// SourceConfig represents configuration for any source type.
type SourceConfig struct {
	SourceID string                 `json:"source_id" yaml:"source_id"`
	Type     string                 `json:"type" yaml:"type"`
	Config   map[string]interface{} `json:"config" yaml:"config"`
}

// String returns a string option.
func (c SourceConfig) String(key string) string {
	v, _ := c.Config[key].(string)
	return v
}

// Bool returns a boolean option.
func (c SourceConfig) Bool(key string) bool {
	v, _ := c.Config[key].(bool)
	return v
}

// Duration returns a duration option given either as a duration or as a
// string such as "30s".
func (c SourceConfig) Duration(key string) time.Duration {
	switch v := c.Config[key].(type) {
	case time.Duration:
		return v
	case string:
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return 0
}

// Int64 returns an integer option. YAML and JSON decoders produce different
// numeric types, all of which are accepted.
func (c SourceConfig) Int64(key string) int64 {
	switch v := c.Config[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

// SourceFactory creates instances of a specific source type.
type SourceFactory interface {
	// Create a new source instance.
	Create(config SourceConfig) (ResourceSource, error)

	// ValidateConfig checks configuration before creating.
	ValidateConfig(config SourceConfig) error
}

// SourceRegistry manages available source types.
type SourceRegistry struct {
	mu        sync.RWMutex
	factories map[string]SourceFactory
}

// NewSourceRegistry creates an empty registry.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{
		factories: make(map[string]SourceFactory),
	}
}

// RegisterSourceType registers a factory for a source type.
func (r *SourceRegistry) RegisterSourceType(sourceType string, factory SourceFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[sourceType]; exists {
		return fmt.Errorf("source type %s already registered", sourceType)
	}
	r.factories[sourceType] = factory
	return nil
}

// CreateSource validates config and creates a source of config.Type.
func (r *SourceRegistry) CreateSource(config SourceConfig) (ResourceSource, error) {
	r.mu.RLock()
	factory, exists := r.factories[config.Type]
	r.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("unknown source type: %s", config.Type)
	}

	if err := factory.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config for %s: %w", config.Type, err)
	}
	return factory.Create(config)
}

// GetAvailableTypes returns the registered source types, sorted.
func (r *SourceRegistry) GetAvailableTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

var defaultRegistry = NewSourceRegistry()

// RegisterSourceType registers a source type globally.
func RegisterSourceType(sourceType string, factory SourceFactory) error {
	return defaultRegistry.RegisterSourceType(sourceType, factory)
}

// CreateSource creates a source from configuration using the global registry.
func CreateSource(config SourceConfig) (ResourceSource, error) {
	return defaultRegistry.CreateSource(config)
}

// GetAvailableSourceTypes returns all globally registered source types.
func GetAvailableSourceTypes() []string {
	return defaultRegistry.GetAvailableTypes()
}

// SourceError represents errors from source operations.
type SourceError struct {
	SourceID  string `json:"source_id"`
	Operation string `json:"operation"`
	Resource  string `json:"resource"`
	Message   string `json:"message"`
	Cause     error  `json:"-"`
}

func (e *SourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("source %s: %s %s: %s: %v", e.SourceID, e.Operation, e.Resource, e.Message, e.Cause)
	}
	return fmt.Sprintf("source %s: %s %s: %s", e.SourceID, e.Operation, e.Resource, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

// NewSourceError creates a new source error.
func NewSourceError(sourceID, operation, resource, message string, cause error) *SourceError {
	return &SourceError{
		SourceID:  sourceID,
		Operation: operation,
		Resource:  resource,
		Message:   message,
		Cause:     cause,
	}
}
