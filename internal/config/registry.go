package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/inventa/pkg/provider/llm"
)

// ErrBackendNotRegistered is returned by [Registry.CreateCompleter] when no
// factory has been registered under the requested provider name.
var ErrBackendNotRegistered = errors.New("config: completion backend not registered")

// Registry maps completion backend names to their constructor functions.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	completers map[string]func(BackendEntry, CompletionConfig) (llm.Completer, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		completers: make(map[string]func(BackendEntry, CompletionConfig) (llm.Completer, error)),
	}
}

// RegisterCompleter registers a completion backend factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterCompleter(name string, factory func(BackendEntry, CompletionConfig) (llm.Completer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completers[name] = factory
}

// CreateCompleter instantiates a completion backend using the factory
// registered under entry.Provider. Returns [ErrBackendNotRegistered] if no
// factory has been registered for that name.
func (r *Registry) CreateCompleter(entry BackendEntry, cfg CompletionConfig) (llm.Completer, error) {
	r.mu.RLock()
	factory, ok := r.completers[entry.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotRegistered, entry.Provider)
	}
	return factory(entry, cfg)
}
