// Package connectors defines the Connector Interface (C3) and a registry
// of concrete source connectors, grounded on
// original_source/engine/ingestion/base.py and the teacher's plurality of
// internal/monitors implementations (file/container/hybrid — each a
// different way of producing the same LogEntry shape).
package connectors

import "context"

// Connector fetches raw payloads from one external provider. Each
// returned item is stored as a RawCapture by the ingestion orchestrator,
// which performs the content-hash duplicate check; connectors themselves
// never touch the Store directly.
type Connector interface {
	// SourceName identifies this connector in RawCapture.Source,
	// FailedExtraction.Source, and the trust hierarchy.
	SourceName() string
	// Fetch retrieves the current set of raw payloads from the provider.
	Fetch(ctx context.Context) ([]map[string]interface{}, error)
}

// Factory builds a Connector from its source-specific configuration
// (already validated/decoded by internal/config).
type Factory func(config map[string]interface{}) (Connector, error)

// Registry maps a source name to the factory that builds its connector,
// matching the teacher's source_name -> monitor-factory registration
// pattern.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under sourceName. Registering the same name
// twice overwrites the previous factory, matching the teacher's
// last-registration-wins plugin pattern.
func (r *Registry) Register(sourceName string, factory Factory) {
	r.factories[sourceName] = factory
}

// Build looks up sourceName's factory and constructs a Connector from
// config.
func (r *Registry) Build(sourceName string, config map[string]interface{}) (Connector, error) {
	factory, ok := r.factories[sourceName]
	if !ok {
		return nil, &UnknownSourceError{Source: sourceName}
	}
	return factory(config)
}

// Names returns every registered source name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// UnknownSourceError is returned by Build for an unregistered source name.
type UnknownSourceError struct {
	Source string
}

func (e *UnknownSourceError) Error() string {
	return "connectors: unknown source " + e.Source
}
