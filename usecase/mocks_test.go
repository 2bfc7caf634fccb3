package usecase_test

import (
	"context"
	"time"

	"crosspost/domain/dto"
	"crosspost/domain/model"

	"github.com/stretchr/testify/mock"
)

type MockCredentialRepo struct {
	mock.Mock
}

func credOrNil(args mock.Arguments) (*model.Credential, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credential), args.Error(1)
}

func (m *MockCredentialRepo) FindByID(ctx context.Context, userID string, provider model.Provider, id int64) (*model.Credential, error) {
	return credOrNil(m.Called(ctx, userID, provider, id))
}

func (m *MockCredentialRepo) FindByProviderID(ctx context.Context, userID string, provider model.Provider, providerID string) (*model.Credential, error) {
	return credOrNil(m.Called(ctx, userID, provider, providerID))
}

func (m *MockCredentialRepo) FindDefault(ctx context.Context, userID string, provider model.Provider) (*model.Credential, error) {
	return credOrNil(m.Called(ctx, userID, provider))
}

func (m *MockCredentialRepo) FindAny(ctx context.Context, userID string, provider model.Provider) (*model.Credential, error) {
	return credOrNil(m.Called(ctx, userID, provider))
}

func (m *MockCredentialRepo) ListByUser(ctx context.Context, userID string) ([]*model.Credential, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*model.Credential), args.Error(1)
}

func (m *MockCredentialRepo) GetByIDForUser(ctx context.Context, userID string, id int64) (*model.Credential, error) {
	return credOrNil(m.Called(ctx, userID, id))
}

func (m *MockCredentialRepo) Upsert(ctx context.Context, c *model.Credential) (*model.Credential, error) {
	args := m.Called(ctx, c)
	if fn, ok := args.Get(0).(func(context.Context, *model.Credential) *model.Credential); ok {
		return fn(ctx, c), args.Error(1)
	}
	return credOrNil(args)
}

func (m *MockCredentialRepo) UpdateTokens(ctx context.Context, id int64, ts *model.TokenSet) error {
	return m.Called(ctx, id, ts).Error(0)
}

func (m *MockCredentialRepo) Delete(ctx context.Context, userID string, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockCredentialRepo) SetDefault(ctx context.Context, userID string, provider model.Provider, id int64) error {
	return m.Called(ctx, userID, provider, id).Error(0)
}

type MockTokenProvider struct {
	mock.Mock
}

func (m *MockTokenProvider) Refresh(ctx context.Context, c *model.Credential) (*model.TokenSet, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenSet), args.Error(1)
}

type MockContentRepo struct {
	mock.Mock
}

func (m *MockContentRepo) Create(ctx context.Context, c *model.PublishableContent) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockContentRepo) GetByID(ctx context.Context, userID string, id int64) (*model.PublishableContent, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishableContent), args.Error(1)
}

func (m *MockContentRepo) Update(ctx context.Context, c *model.PublishableContent) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockContentRepo) UpdateStatus(ctx context.Context, id int64, status model.ContentStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockContentRepo) FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]*model.PublishableContent, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]*model.PublishableContent), args.Error(1)
}

type MockPublicationRepo struct {
	mock.Mock
}

func (m *MockPublicationRepo) CreatePending(ctx context.Context, contentID int64, platform model.Provider) (*model.Publication, error) {
	args := m.Called(ctx, contentID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Publication), args.Error(1)
}

func (m *MockPublicationRepo) MarkSuccess(ctx context.Context, contentID int64, platform model.Provider, result *model.PublishResult) error {
	return m.Called(ctx, contentID, platform, result.PlatformPostID, result.SocialAccountID).Error(0)
}

func (m *MockPublicationRepo) MarkFailed(ctx context.Context, contentID int64, platform model.Provider, errorMessage string) error {
	return m.Called(ctx, contentID, platform, errorMessage).Error(0)
}

func (m *MockPublicationRepo) FindSuccessfulByUser(ctx context.Context, userID string, platforms []model.Provider) ([]*model.Publication, error) {
	args := m.Called(ctx, userID, platforms)
	return args.Get(0).([]*model.Publication), args.Error(1)
}

func (m *MockPublicationRepo) UpdateStats(ctx context.Context, id int64, stats model.VideoStats) error {
	return m.Called(ctx, id, stats).Error(0)
}

func (m *MockPublicationRepo) ListByContent(ctx context.Context, contentID int64) ([]*model.Publication, error) {
	args := m.Called(ctx, contentID)
	return args.Get(0).([]*model.Publication), args.Error(1)
}

func (m *MockPublicationRepo) FindByID(ctx context.Context, id int64) (*model.Publication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Publication), args.Error(1)
}

type MockAdapter struct {
	mock.Mock
	platform model.Provider
}

func newMockAdapter(p model.Provider) *MockAdapter { return &MockAdapter{platform: p} }

func (m *MockAdapter) Platform() model.Provider { return m.platform }

func (m *MockAdapter) Publish(ctx context.Context, userID string, content *model.PublishableContent) (*model.PublishResult, error) {
	args := m.Called(ctx, userID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishResult), args.Error(1)
}

func (m *MockAdapter) GetStats(ctx context.Context, userID string, posts []model.PostRef) (map[string]model.VideoStats, error) {
	args := m.Called(ctx, userID, posts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]model.VideoStats), args.Error(1)
}

func (m *MockAdapter) GetComments(ctx context.Context, userID string, post model.PostRef) []model.Comment {
	return m.Called(ctx, userID, post).Get(0).([]model.Comment)
}

// MockDeletingAdapter also removes remote posts
type MockDeletingAdapter struct {
	MockAdapter
}

func (m *MockDeletingAdapter) DeletePost(ctx context.Context, userID string, post model.PostRef) error {
	return m.Called(ctx, userID, post).Error(0)
}

type MockAnalyticsCache struct {
	mock.Mock
}

func (m *MockAnalyticsCache) Get(ctx context.Context, userID string) (*dto.AnalyticsSummary, bool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*dto.AnalyticsSummary), args.Bool(1), args.Error(2)
}

func (m *MockAnalyticsCache) Set(ctx context.Context, userID string, summary *dto.AnalyticsSummary, ttl time.Duration) error {
	return m.Called(ctx, userID, summary, ttl).Error(0)
}

func (m *MockAnalyticsCache) Invalidate(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event model.PublicationEvent) error {
	return m.Called(ctx, event).Error(0)
}

type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) AuthURL(state string) string {
	return m.Called(state).String(0)
}

func (m *MockConnector) Connect(ctx context.Context, code string) ([]*model.Credential, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Credential), args.Error(1)
}

type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Put(ctx context.Context, state string, cs model.ConnectState, ttl time.Duration) error {
	return m.Called(ctx, state, cs, ttl).Error(0)
}

func (m *MockStateStore) Take(ctx context.Context, state string) (*model.ConnectState, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectState), args.Error(1)
}
