package provider

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Router manages multiple completion providers and routes requests.
type Router struct {
	providers map[string]Provider
	bindings  map[string]string   // site -> providerID
	fallbacks map[string][]string // site -> fallback provider chain
	defaults  string              // default provider ID
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewRouter creates a new provider router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		providers: make(map[string]Provider),
		bindings:  make(map[string]string),
		fallbacks: make(map[string][]string),
		logger:    logger,
	}
}

// Register adds a provider to the router.
func (r *Router) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
	if r.defaults == "" {
		r.defaults = p.ID()
	}
	r.logger.Info("registered provider", zap.String("id", p.ID()), zap.String("name", p.Name()))
}

// SetDefault sets the default provider.
func (r *Router) SetDefault(providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults = providerID
}

// Bind associates a site with a specific provider.
func (r *Router) Bind(site, providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[site] = providerID
}

// SetFallbacks configures fallback providers for a site.
func (r *Router) SetFallbacks(site string, providerIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks[site] = providerIDs
}

// For returns the provider serving a site, falling back to the default.
func (r *Router) For(site string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := r.getProvider(site)
	if p == nil {
		return nil, fmt.Errorf("no provider available for site %s", site)
	}
	return p, nil
}

// Route sends a structured completion request through the appropriate
// provider, walking the fallback chain on failure.
func (r *Router) Route(ctx context.Context, site string, req *Request) (*Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	primary := r.getProvider(site)
	if primary == nil {
		return nil, fmt.Errorf("no provider available for site %s", site)
	}

	res, err := primary.Complete(ctx, req)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	r.logger.Warn("primary provider failed, trying fallbacks",
		zap.String("site", site), zap.Error(err))

	for _, fbID := range r.fallbacks[site] {
		fb, ok := r.providers[fbID]
		if !ok {
			continue
		}
		res, err = fb.Complete(ctx, req)
		if err == nil {
			return res, nil
		}
		r.logger.Warn("fallback provider failed", zap.String("provider", fbID), zap.Error(err))
	}

	return nil, fmt.Errorf("all providers failed for site %s: %w", site, err)
}

func (r *Router) getProvider(site string) Provider {
	if pid, ok := r.bindings[site]; ok {
		if p, ok := r.providers[pid]; ok {
			return p
		}
	}
	if p, ok := r.providers[r.defaults]; ok {
		return p
	}
	return nil
}

// GetProvider returns a provider by ID.
func (r *Router) GetProvider(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// ListProviders returns all registered providers.
func (r *Router) ListProviders() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	return result
}
