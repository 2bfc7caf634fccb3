package usecase

import (
	"context"
	"errors"
	"fmt"

	"crosspost/domain/model"
	"crosspost/domain/repository"
)

var _ repository.ICredentialResolver = (*credentialResolver)(nil)

type credentialResolver struct {
	creds  repository.ICredential
	tokens ITokenManager
}

func NewCredentialResolver(creds repository.ICredential, tokens ITokenManager) repository.ICredentialResolver {
	return &credentialResolver{creds: creds, tokens: tokens}
}

// Resolve prefers the pinned account, then the default, then any account of the provider.
// Every call reads the store so tokens rotated by an earlier refresh are the ones used.
func (r *credentialResolver) Resolve(ctx context.Context, userID string, provider model.Provider, socialAccountID *int64) (*model.Credential, error) {
	cred, err := r.find(ctx, userID, provider, socialAccountID)
	if err != nil {
		return nil, err
	}
	return r.tokens.EnsureFresh(ctx, cred)
}

func (r *credentialResolver) find(ctx context.Context, userID string, provider model.Provider, socialAccountID *int64) (*model.Credential, error) {
	lookups := make([]func() (*model.Credential, error), 0, 3)
	if socialAccountID != nil {
		lookups = append(lookups, func() (*model.Credential, error) {
			return r.creds.FindByID(ctx, userID, provider, *socialAccountID)
		})
	}
	lookups = append(lookups,
		func() (*model.Credential, error) { return r.creds.FindDefault(ctx, userID, provider) },
		func() (*model.Credential, error) { return r.creds.FindAny(ctx, userID, provider) },
	)
	for _, lookup := range lookups {
		cred, err := lookup()
		if err == nil {
			return cred, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", provider, model.ErrNoAccountConnected)
}
