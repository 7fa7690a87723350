package provider

import (
	"context"
	"fmt"

	"github.com/ivlev/authsvc/internal/domain"
)

// OAuthVerifier exchanges an authorization code for a verified
// provider subject id. Implementations return identity facts only;
// user creation and linking happen upstream.
type OAuthVerifier interface {
	// Name returns the provider identifier (e.g. "vk", "yandex").
	Name() domain.Provider

	// AuthCodeURL returns the provider's authorization URL.
	AuthCodeURL(state string) string

	// Exchange trades the authorization code for the provider's
	// subject id. A failed exchange or a response without a usable
	// subject id reports domain.ErrInvalidCredential.
	Exchange(ctx context.Context, code string) (string, error)
}

// Registry holds configured OAuth verifiers keyed by provider name.
type Registry struct {
	verifiers map[domain.Provider]OAuthVerifier
}

// NewRegistry registers the given verifiers. Names must be unique.
func NewRegistry(list ...OAuthVerifier) *Registry {
	m := make(map[domain.Provider]OAuthVerifier, len(list))
	for _, v := range list {
		m[v.Name()] = v
	}
	return &Registry{verifiers: m}
}

// Get returns the verifier for a provider or an error if not registered.
func (r *Registry) Get(name domain.Provider) (OAuthVerifier, error) {
	v, ok := r.verifiers[name]
	if !ok {
		return nil, fmt.Errorf("unknown oauth provider: %s", name)
	}
	return v, nil
}
