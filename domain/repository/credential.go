package repository

import (
	"context"
	"time"

	"crosspost/domain/model"
)

// ICredential persists OAuth credentials
type ICredential interface {
	// FindByID returns the credential with id owned by userID for provider
	FindByID(ctx context.Context, userID string, provider model.Provider, id int64) (*model.Credential, error)
	FindByProviderID(ctx context.Context, userID string, provider model.Provider, providerID string) (*model.Credential, error)
	FindDefault(ctx context.Context, userID string, provider model.Provider) (*model.Credential, error)
	// FindAny returns the oldest credential of the user for provider
	FindAny(ctx context.Context, userID string, provider model.Provider) (*model.Credential, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Credential, error)
	GetByIDForUser(ctx context.Context, userID string, id int64) (*model.Credential, error)

	// Upsert inserts or updates the credential keyed by (provider, provider_id)
	Upsert(ctx context.Context, c *model.Credential) (*model.Credential, error)
	// UpdateTokens writes rotated token fields of one credential
	UpdateTokens(ctx context.Context, id int64, ts *model.TokenSet) error
	Delete(ctx context.Context, userID string, id int64) error
	// SetDefault marks id as the only default for (userID, provider) in one transaction
	SetDefault(ctx context.Context, userID string, provider model.Provider, id int64) error
}

// ICredentialResolver picks the credential an adapter publishes with and makes sure it is fresh
type ICredentialResolver interface {
	Resolve(ctx context.Context, userID string, provider model.Provider, socialAccountID *int64) (*model.Credential, error)
}

// ITokenProvider exchanges a credential for a rotated token set
type ITokenProvider interface {
	Refresh(ctx context.Context, c *model.Credential) (*model.TokenSet, error)
}

// IAccountConnector drives the OAuth connect flow of one platform family
type IAccountConnector interface {
	AuthURL(state string) string
	// Connect exchanges an authorization code for credentials of every account it unlocks
	Connect(ctx context.Context, code string) ([]*model.Credential, error)
}

// IConnectStateStore keeps pending OAuth states until the callback consumes them
type IConnectStateStore interface {
	Put(ctx context.Context, state string, cs model.ConnectState, ttl time.Duration) error
	// Take returns and removes the state; an unknown or expired state yields model.ErrInvalidState
	Take(ctx context.Context, state string) (*model.ConnectState, error)
}
