package usecase_test

import (
	"context"
	"testing"
	"time"

	"crosspost/domain/model"
	"crosspost/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type accountFixture struct {
	creds  *MockCredentialRepo
	meta   *MockConnector
	yt     *MockConnector
	states *MockStateStore
	uc     usecase.IAccountUsecase
}

func newAccountFixture() *accountFixture {
	f := &accountFixture{creds: new(MockCredentialRepo), meta: new(MockConnector), yt: new(MockConnector), states: new(MockStateStore)}
	f.uc = usecase.NewAccountUsecase(f.creds, usecase.Connectors{YouTube: f.yt, Meta: f.meta}, f.states)
	return f
}

func TestBeginConnect_StoresStateBoundToUser(t *testing.T) {
	f := newAccountFixture()
	var state string
	f.states.On("Put", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(cs model.ConnectState) bool {
		return cs.UserID == "u1" && cs.Provider == model.ProviderInstagram
	}), 10*time.Minute).Run(func(args mock.Arguments) {
		state = args.String(1)
	}).Return(nil)
	f.meta.On("AuthURL", mock.Anything).Return("https://www.facebook.com/v19.0/dialog/oauth?state=x")

	resp, err := f.uc.BeginConnect(context.Background(), "u1", model.ProviderInstagram)
	require.NoError(t, err)
	assert.Len(t, resp.State, 32)
	assert.Equal(t, state, resp.State)
	f.meta.AssertCalled(t, "AuthURL", resp.State)
}

func TestBeginConnect_UnconfiguredProvider(t *testing.T) {
	f := newAccountFixture()
	_, err := f.uc.BeginConnect(context.Background(), "u1", model.ProviderTikTok)
	assert.ErrorIs(t, err, model.ErrUnsupportedOperation)
}

func TestCompleteConnect_UpsertsEveryAccountForStateOwner(t *testing.T) {
	f := newAccountFixture()
	f.states.On("Take", mock.Anything, "st").Return(&model.ConnectState{UserID: "u1", Provider: model.ProviderInstagram}, nil)
	creds := []*model.Credential{
		{Provider: model.ProviderFacebook, ProviderID: "pg_1", AccessToken: "t1"},
		{Provider: model.ProviderInstagram, ProviderID: "ig_1", AccessToken: "t1"},
	}
	f.meta.On("Connect", mock.Anything, "code").Return(creds, nil)
	f.creds.On("Upsert", mock.Anything, mock.MatchedBy(func(c *model.Credential) bool { return c.UserID == "u1" })).
		Return(func(_ context.Context, c *model.Credential) *model.Credential {
			saved := *c
			saved.ID = 100
			saved.IsDefault = true
			return &saved
		}, nil)

	res, err := f.uc.CompleteConnect(context.Background(), model.ProviderFacebook, "st", "code")
	require.NoError(t, err)
	require.Len(t, res.Accounts, 2)
	assert.Equal(t, "pg_1", res.Accounts[0].ProviderID)
	assert.Equal(t, model.ProviderInstagram, res.Accounts[1].Provider)
	f.creds.AssertNumberOfCalls(t, "Upsert", 2)
}

func TestCompleteConnect_StateOfAnotherProvider(t *testing.T) {
	f := newAccountFixture()
	f.states.On("Take", mock.Anything, "st").Return(&model.ConnectState{UserID: "u1", Provider: model.ProviderYouTube}, nil)

	_, err := f.uc.CompleteConnect(context.Background(), model.ProviderFacebook, "st", "code")
	assert.ErrorIs(t, err, model.ErrInvalidState)
	f.meta.AssertNotCalled(t, "Connect", mock.Anything, mock.Anything)
}

func TestCompleteConnect_UnknownState(t *testing.T) {
	f := newAccountFixture()
	f.states.On("Take", mock.Anything, "nope").Return(nil, model.ErrInvalidState)

	_, err := f.uc.CompleteConnect(context.Background(), model.ProviderYouTube, "nope", "code")
	assert.ErrorIs(t, err, model.ErrInvalidState)
}

func TestListAccountsHidesExpiry(t *testing.T) {
	f := newAccountFixture()
	past := time.Now().Add(-time.Hour)
	f.creds.On("ListByUser", mock.Anything, "u1").Return([]*model.Credential{
		{ID: 1, Provider: model.ProviderFacebook, Name: "Page", AccessToken: "secret", IsDefault: true, ExpiresAt: &past},
		{ID: 2, Provider: model.ProviderYouTube, Name: "Channel", AccessToken: "secret"},
	}, nil)

	views, err := f.uc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].Expired)
	assert.True(t, views[0].IsDefault)
	assert.False(t, views[1].Expired)
}

func TestSetDefaultUsesCredentialProvider(t *testing.T) {
	f := newAccountFixture()
	f.creds.On("GetByIDForUser", mock.Anything, "u1", int64(7)).Return(&model.Credential{ID: 7, Provider: model.ProviderFacebook}, nil)
	f.creds.On("SetDefault", mock.Anything, "u1", model.ProviderFacebook, int64(7)).Return(nil).Once()

	require.NoError(t, f.uc.SetDefault(context.Background(), "u1", 7))
	f.creds.AssertExpectations(t)
}

func TestSetDefaultForeignAccount(t *testing.T) {
	f := newAccountFixture()
	f.creds.On("GetByIDForUser", mock.Anything, "u1", int64(8)).Return(nil, model.ErrNotFound)

	assert.ErrorIs(t, f.uc.SetDefault(context.Background(), "u1", 8), model.ErrNotFound)
	f.creds.AssertNotCalled(t, "SetDefault", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDisconnect(t *testing.T) {
	f := newAccountFixture()
	f.creds.On("Delete", mock.Anything, "u1", int64(9)).Return(nil).Once()
	require.NoError(t, f.uc.Disconnect(context.Background(), "u1", 9))
	f.creds.AssertExpectations(t)
}
