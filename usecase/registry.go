package usecase

import (
	"fmt"

	"crosspost/domain/model"
	"crosspost/domain/repository"
)

// Adapters has one field per supported platform
type Adapters struct {
	YouTube   repository.IPlatformAdapter
	TikTok    repository.IPlatformAdapter
	Instagram repository.IPlatformAdapter
	Facebook  repository.IPlatformAdapter
}

// Registry dispatches a platform to its adapter
type Registry struct {
	adapters Adapters
}

// NewRegistry fails when an adapter is missing or registered under the wrong platform
func NewRegistry(a Adapters) (*Registry, error) {
	r := &Registry{adapters: a}
	for _, p := range model.AllProviders {
		adapter := r.lookup(p)
		if adapter == nil {
			return nil, fmt.Errorf("no adapter registered for %s", p)
		}
		if adapter.Platform() != p {
			return nil, fmt.Errorf("adapter for %s reports platform %s", p, adapter.Platform())
		}
	}
	return r, nil
}

func (r *Registry) lookup(p model.Provider) repository.IPlatformAdapter {
	switch p {
	case model.ProviderYouTube:
		return r.adapters.YouTube
	case model.ProviderTikTok:
		return r.adapters.TikTok
	case model.ProviderInstagram:
		return r.adapters.Instagram
	case model.ProviderFacebook:
		return r.adapters.Facebook
	}
	return nil
}

func (r *Registry) Adapter(p model.Provider) (repository.IPlatformAdapter, error) {
	if a := r.lookup(p); a != nil {
		return a, nil
	}
	return nil, fmt.Errorf("platform %q: %w", p, model.ErrUnsupportedOperation)
}
