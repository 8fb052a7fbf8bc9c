package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/motorefacciones/import-service/internal/adapters/base"
	"github.com/motorefacciones/import-service/internal/adapters/providers"
	"github.com/motorefacciones/import-service/internal/types"
)

// Registry manages provider adapter registration and retrieval
type Registry struct {
	mu       sync.RWMutex
	adapters map[types.ProviderCode]base.ProviderAdapter
}

// DefaultRegistry is the global registry instance
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[types.ProviderCode]base.ProviderAdapter),
	}
}

// Register registers a provider adapter for a given provider code
func (r *Registry) Register(code types.ProviderCode, adapter base.ProviderAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[code] = adapter
}

// Get retrieves a provider adapter by code
func (r *Registry) Get(code types.ProviderCode) (base.ProviderAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[code]
	return adapter, ok
}

// GetOrInit retrieves or initializes a provider adapter by code
func (r *Registry) GetOrInit(code types.ProviderCode) (base.ProviderAdapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if adapter, ok := r.adapters[code]; ok {
		return adapter, nil
	}

	adapter, err := newAdapter(code)
	if err != nil {
		return nil, err
	}

	r.adapters[code] = adapter
	return adapter, nil
}

// List returns all registered provider codes, sorted
func (r *Registry) List() []types.ProviderCode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]types.ProviderCode, 0, len(r.adapters))
	for code := range r.adapters {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// IsRegistered checks if a provider is registered
func (r *Registry) IsRegistered(code types.ProviderCode) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[code]
	return ok
}

func newAdapter(code types.ProviderCode) (base.ProviderAdapter, error) {
	var adapter base.ProviderAdapter
	var err error

	switch code {
	case types.ProviderMotosYEquipos:
		adapter, err = providers.NewMotosYEquiposAdapter()
	case types.ProviderMRM:
		adapter, err = providers.NewMRMAdapter()
	default:
		return nil, fmt.Errorf("no adapter implementation for provider: %s", code)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create adapter for %s: %w", code, err)
	}
	return adapter, nil
}

// GetAdapter is a convenience function to get an adapter from the default registry
func GetAdapter(code types.ProviderCode) (base.ProviderAdapter, error) {
	return DefaultRegistry.GetOrInit(code)
}

// InitializeDefaultAdapters registers every known provider adapter
func InitializeDefaultAdapters() error {
	for _, code := range []types.ProviderCode{types.ProviderMotosYEquipos, types.ProviderMRM} {
		if _, err := DefaultRegistry.GetOrInit(code); err != nil {
			return err
		}
	}
	return nil
}
