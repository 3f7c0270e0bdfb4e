package provider

import (
	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
)

// Registry holds providers in registration order. URL resolution tries them
// in that order and the first match wins.
type Registry struct {
	providers []ports.RemoteCommitProvider
}

// NewRegistry creates a registry with the given providers.
func NewRegistry(providers ...ports.RemoteCommitProvider) *Registry {
	r := &Registry{}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register appends a provider. A provider with the same name replaces the
// earlier one in place.
func (r *Registry) Register(p ports.RemoteCommitProvider) {
	for i, existing := range r.providers {
		if existing.Name() == p.Name() {
			r.providers[i] = p
			return
		}
	}
	r.providers = append(r.providers, p)
}

// Providers returns the registered providers in order.
func (r *Registry) Providers() []ports.RemoteCommitProvider {
	out := make([]ports.RemoteCommitProvider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name string) (ports.RemoteCommitProvider, bool) {
	for _, p := range r.providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Resolve finds the first provider that recognizes rawURL. It returns nil
// values when no provider does.
func (r *Registry) Resolve(rawURL string) (ports.RemoteCommitProvider, *domain.RemoteLocation) {
	for _, p := range r.providers {
		if loc := p.ParseRemote(rawURL); loc != nil {
			return p, loc
		}
	}
	return nil, nil
}
