package llm

import (
	"sort"
	"sync"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/BaSui01/flowgate/types"
)

// Constructor builds a Provider from its configuration.
type Constructor func(cfg ProviderConfig, logger *zap.Logger) (Provider, error)

// AvailabilityProbe reports whether a provider kind is usable at all
// (credential material present, endpoint reachable in principle). It must
// not perform network calls.
type AvailabilityProbe func(cfg ProviderConfig) bool

// Entry pairs a provider constructor with its availability probe.
type Entry struct {
	New       Constructor
	Available AvailabilityProbe
}

// Registry tracks which provider kinds can be constructed at runtime.
// Availability is evaluated once per provider type and cached for the
// lifetime of the registry, so repeated Manager initializations do not
// re-probe. Registries are cheap; tests create isolated instances.
type Registry struct {
	mu           sync.RWMutex
	entries      map[ProviderType]Entry
	availability *gocache.Cache
	logger       *zap.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		entries:      make(map[ProviderType]Entry),
		availability: gocache.New(gocache.NoExpiration, 0),
		logger:       logger.With(zap.String("component", "provider_registry")),
	}
}

// Register adds a provider entry under the given type, replacing any
// previous entry and forgetting its cached availability.
func (r *Registry) Register(t ProviderType, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[t] = e
	r.availability.Delete(string(t))
}

// Available reports whether the provider type can be used with the given
// configuration. The first answer per type is cached for the registry's
// lifetime.
func (r *Registry) Available(t ProviderType, cfg ProviderConfig) bool {
	r.mu.RLock()
	entry, ok := r.entries[t]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	if cached, found := r.availability.Get(string(t)); found {
		return cached.(bool)
	}

	available := entry.Available == nil || entry.Available(cfg)
	r.availability.Set(string(t), available, gocache.NoExpiration)
	if !available {
		r.logger.Info("llm provider unavailable", zap.String("provider", string(t)))
	}
	return available
}

// Build constructs a provider of the given type. It fails with
// PROVIDER_UNAVAILABLE when the type is unknown or its probe reported the
// backend unusable.
func (r *Registry) Build(t ProviderType, cfg ProviderConfig, logger *zap.Logger) (Provider, error) {
	r.mu.RLock()
	entry, ok := r.entries[t]
	r.mu.RUnlock()
	if !ok {
		return nil, types.NewErrorf(types.ErrProviderUnavailable, "provider type %q is not registered", t)
	}
	if !r.Available(t, cfg) {
		return nil, types.NewErrorf(types.ErrProviderUnavailable, "provider %q is not usable (missing credentials or dependencies)", t).WithProvider(string(t))
	}
	return entry.New(cfg, logger)
}

// Types returns the registered provider types in sorted order.
func (r *Registry) Types() []ProviderType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ProviderType, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
