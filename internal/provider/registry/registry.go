// Package registry holds the named provider factories and decides
// which provider serves a request: an explicit override wins, then the
// per-route default, then the global fallback.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"marketgateway/internal/market"
	"marketgateway/internal/provider"
)

// Route names used as keys of the per-route default map.
const (
	RouteAssets     = "assets"
	RoutePrices     = "prices"
	RouteIndicators = "indicators"
	RouteQuotes     = "quotes"
)

// Factory builds a fresh, request-scoped provider instance.
type Factory func() provider.Provider

// Registry is read on every request and written only by the explicit
// administrative calls, so a plain RWMutex is enough.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	defaults  map[string]string
	fallback  string
}

func New() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		defaults:  make(map[string]string),
	}
}

// Register adds or overwrites the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// SetDefaultForRoute assigns the default provider for a route.
func (r *Registry) SetDefaultForRoute(route, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; !ok {
		return market.InvalidProvider(name)
	}
	r.defaults[route] = name
	return nil
}

// SetFallback assigns the provider used when a route has no default.
func (r *Registry) SetFallback(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; !ok {
		return market.InvalidProvider(name)
	}
	r.fallback = name
	return nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns a copy of the per-route default map and the global
// fallback name.
func (r *Registry) Defaults() (map[string]string, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defaults := make(map[string]string, len(r.defaults))
	for k, v := range r.defaults {
		defaults[k] = v
	}
	return defaults, r.fallback
}

// Acquire resolves a provider and returns it with a release func the
// caller must invoke on every exit path. An explicit name wins
// outright and fails with InvalidProvider when unknown; otherwise the
// route default, then the fallback, applies.
func (r *Registry) Acquire(explicit, route string) (provider.Provider, func(), error) {
	r.mu.RLock()
	name := explicit
	if name == "" {
		name = r.defaults[route]
	}
	if name == "" {
		name = r.fallback
	}
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		if explicit != "" {
			return nil, nil, market.InvalidProvider(explicit)
		}
		if name == "" {
			return nil, nil, &market.Error{
				Code:    market.CodeInvalidProvider,
				Message: fmt.Sprintf("no provider configured for route %q", route),
				Details: map[string]any{"route": route},
			}
		}
		return nil, nil, market.InvalidProvider(name)
	}

	p := factory()
	release := func() {
		if err := p.Close(); err != nil {
			slog.Warn("provider close failed", "provider", p.Name(), "error", err)
		}
	}
	return p, release, nil
}
