package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newResolver(repo *MockCredentialRepo, provider *MockTokenProvider) repository.ICredentialResolver {
	tm := usecase.NewTokenManager(repo, usecase.TokenProviders{YouTube: provider, TikTok: provider, Meta: provider}, usecase.RefreshPolicy{}, nil)
	return usecase.NewCredentialResolver(repo, tm)
}

func TestResolver_PinnedAccount(t *testing.T) {
	repo := new(MockCredentialRepo)
	pinned := &model.Credential{ID: 12, UserID: "u1", Provider: model.ProviderFacebook, ProviderID: "pg_2"}
	repo.On("FindByID", mock.Anything, "u1", model.ProviderFacebook, int64(12)).Return(pinned, nil)

	id := int64(12)
	got, err := newResolver(repo, new(MockTokenProvider)).Resolve(context.Background(), "u1", model.ProviderFacebook, &id)
	require.NoError(t, err)
	assert.Equal(t, "pg_2", got.ProviderID)
	repo.AssertNotCalled(t, "FindDefault", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_PinnedAccountOfOtherProviderFallsBackToDefault(t *testing.T) {
	repo := new(MockCredentialRepo)
	def := &model.Credential{ID: 1, Provider: model.ProviderYouTube, IsDefault: true}
	repo.On("FindByID", mock.Anything, "u1", model.ProviderYouTube, int64(12)).Return(nil, model.ErrNotFound)
	repo.On("FindDefault", mock.Anything, "u1", model.ProviderYouTube).Return(def, nil)

	id := int64(12)
	got, err := newResolver(repo, new(MockTokenProvider)).Resolve(context.Background(), "u1", model.ProviderYouTube, &id)
	require.NoError(t, err)
	assert.Same(t, def, got)
}

func TestResolver_DefaultThenAny(t *testing.T) {
	repo := new(MockCredentialRepo)
	anyCred := &model.Credential{ID: 2, Provider: model.ProviderTikTok}
	repo.On("FindDefault", mock.Anything, "u1", model.ProviderTikTok).Return(nil, model.ErrNotFound)
	repo.On("FindAny", mock.Anything, "u1", model.ProviderTikTok).Return(anyCred, nil)

	got, err := newResolver(repo, new(MockTokenProvider)).Resolve(context.Background(), "u1", model.ProviderTikTok, nil)
	require.NoError(t, err)
	assert.Same(t, anyCred, got)
}

func TestResolver_NoAccountConnected(t *testing.T) {
	repo := new(MockCredentialRepo)
	repo.On("FindDefault", mock.Anything, "u1", model.ProviderInstagram).Return(nil, model.ErrNotFound)
	repo.On("FindAny", mock.Anything, "u1", model.ProviderInstagram).Return(nil, model.ErrNotFound)

	_, err := newResolver(repo, new(MockTokenProvider)).Resolve(context.Background(), "u1", model.ProviderInstagram, nil)
	require.ErrorIs(t, err, model.ErrNoAccountConnected)
	assert.Equal(t, "no_account_connected", model.ErrorCode(err))
}

func TestResolver_StoreErrorIsNotMaskedAsMissingAccount(t *testing.T) {
	repo := new(MockCredentialRepo)
	repo.On("FindDefault", mock.Anything, "u1", model.ProviderYouTube).Return(nil, errors.New("connection refused"))

	_, err := newResolver(repo, new(MockTokenProvider)).Resolve(context.Background(), "u1", model.ProviderYouTube, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNoAccountConnected)
}

// Tokens written by a refresh are the ones the next resolution reads back
func TestResolver_ReadsRotatedTokensAfterRefresh(t *testing.T) {
	repo := new(MockCredentialRepo)
	provider := new(MockTokenProvider)

	stale := &model.Credential{ID: 30, Provider: model.ProviderTikTok, AccessToken: "old", RefreshToken: strPtr("rt-old"), ExpiresAt: expiringIn(time.Minute)}
	ts := &model.TokenSet{AccessToken: "new", RefreshToken: strPtr("rt-new"), ExpiresAt: expiringIn(24 * time.Hour)}

	var stored *model.Credential
	repo.On("FindDefault", mock.Anything, "u1", model.ProviderTikTok).Return(stale, nil).Once()
	provider.On("Refresh", mock.Anything, stale).Return(ts, nil).Once()
	repo.On("UpdateTokens", mock.Anything, int64(30), ts).Run(func(mock.Arguments) {
		stored = stale.Apply(ts)
	}).Return(nil).Once()

	resolver := newResolver(repo, provider)
	first, err := resolver.Resolve(context.Background(), "u1", model.ProviderTikTok, nil)
	require.NoError(t, err)
	require.NotNil(t, stored)

	repo.On("FindDefault", mock.Anything, "u1", model.ProviderTikTok).Return(stored, nil).Once()
	second, err := resolver.Resolve(context.Background(), "u1", model.ProviderTikTok, nil)
	require.NoError(t, err)

	assert.Equal(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, *first.RefreshToken, *second.RefreshToken)
	assert.Equal(t, *first.ExpiresAt, *second.ExpiresAt)
	provider.AssertNumberOfCalls(t, "Refresh", 1)
}
