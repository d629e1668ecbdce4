package authconfig

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages provider factory registration and discovery.
// It provides thread-safe access to registered factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[ProviderName]ProviderFactory
}

// DefaultRegistry is the global provider registry.
// Providers register themselves via init() functions.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[ProviderName]ProviderFactory),
	}
}

// Register adds a provider factory to the registry.
// This is typically called from provider package init() functions.
func (r *Registry) Register(name ProviderName, f ProviderFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("provider already registered: %s", name)
	}

	r.factories[name] = f
	return nil
}

// New creates a fresh provider for one invocation.
func (r *Registry) New(name ProviderName) (Provider, error) {
	r.mu.RLock()
	f, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, ErrNotFound("provider", string(name))
	}
	return f.Create(), nil
}

// List returns all registered provider names in sorted order.
func (r *Registry) List() []ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]ProviderName, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Unregister removes a provider from the registry.
// This is mainly useful for testing.
func (r *Registry) Unregister(name ProviderName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, name)
}

// Global convenience functions that use DefaultRegistry

// Register adds a provider factory to the default registry.
func Register(name ProviderName, f ProviderFactory) error {
	return DefaultRegistry.Register(name, f)
}

// NewProvider creates a provider from the default registry.
func NewProvider(name ProviderName) (Provider, error) {
	return DefaultRegistry.New(name)
}

// ListProviders returns all providers in the default registry.
func ListProviders() []ProviderName {
	return DefaultRegistry.List()
}

// ProviderInfo contains metadata about a registered provider.
type ProviderInfo struct {
	Name            ProviderName
	Auth            AuthInfo
	Capabilities    []Capability
	RequiredOptions []OptionDescriptor
	OptionalOptions []OptionDescriptor
}

// Describe returns detailed info about all registered providers.
func (r *Registry) Describe() []ProviderInfo {
	var infos []ProviderInfo
	for _, name := range r.List() {
		p, err := r.New(name)
		if err != nil {
			continue
		}
		infos = append(infos, ProviderInfo{
			Name:            name,
			Auth:            p.Auth(),
			Capabilities:    p.Capabilities(),
			RequiredOptions: p.RequiredOptions(),
			OptionalOptions: p.OptionalOptions(),
		})
	}
	return infos
}
