package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/de-tools/spark-advisor/pkg/services/config"
)

// Factory creates a Provider from the advisor configuration.
type Factory func(ctx context.Context, cfg config.Config) (Provider, error)

// Registry manages provider factories
type Registry interface {
	// Register adds a new provider factory
	Register(name string, factory Factory) error
	// Create instantiates the provider named by cfg.Provider
	Create(ctx context.Context, cfg config.Config) (Provider, error)
	// ListProviders returns the registered provider names, sorted
	ListProviders() []string
}

type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry(factories map[string]Factory) (Registry, error) {
	r := &registry{factories: make(map[string]Factory)}
	for name, f := range factories {
		if err := r.Register(name, f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("provider %q is already registered", name)
	}

	r.factories[name] = factory
	return nil
}

func (r *registry) Create(ctx context.Context, cfg config.Config) (Provider, error) {
	r.mu.RLock()
	factory, exists := r.factories[cfg.Provider]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("provider %q is not registered", cfg.Provider)
	}

	return factory(ctx, cfg)
}

func (r *registry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
