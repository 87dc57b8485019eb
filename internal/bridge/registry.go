package bridge

import (
	"sort"

	"attache/pkg/models"
)

// Registry holds named provider configurations. It performs no I/O and is
// owned exclusively by the Client, which provides the locking.
type Registry struct {
	configs map[string]models.ProviderConfig
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{configs: make(map[string]models.ProviderConfig)}
}

// Register inserts or overwrites a provider config by name.
func (r *Registry) Register(cfg models.ProviderConfig) {
	r.configs[cfg.Name] = cfg
}

// Unregister removes a provider config. Returns whether it existed.
func (r *Registry) Unregister(name string) bool {
	if _, ok := r.configs[name]; !ok {
		return false
	}
	delete(r.configs, name)
	return true
}

// Get returns the config for a provider name.
func (r *Registry) Get(name string) (models.ProviderConfig, bool) {
	cfg, ok := r.configs[name]
	return cfg, ok
}

// Names returns all registered provider names, sorted for stable output.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
