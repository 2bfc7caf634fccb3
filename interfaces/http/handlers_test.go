package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"crosspost/domain/dto"
	"crosspost/domain/model"
	"crosspost/interfaces/middleware"
	"crosspost/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockContentUsecase struct{ mock.Mock }

func (m *mockContentUsecase) Create(ctx context.Context, userID string, req dto.CreateContentRequest) (*dto.ContentResponse, error) {
	args := m.Called(ctx, userID, req)
	res, _ := args.Get(0).(*dto.ContentResponse)
	return res, args.Error(1)
}

func (m *mockContentUsecase) Get(ctx context.Context, userID string, contentID int64) (*dto.ContentResponse, error) {
	args := m.Called(ctx, userID, contentID)
	res, _ := args.Get(0).(*dto.ContentResponse)
	return res, args.Error(1)
}

func (m *mockContentUsecase) Update(ctx context.Context, userID string, contentID int64, req dto.UpdateContentRequest) (*dto.ContentResponse, error) {
	args := m.Called(ctx, userID, contentID, req)
	res, _ := args.Get(0).(*dto.ContentResponse)
	return res, args.Error(1)
}

type mockPublishUsecase struct{ mock.Mock }

func (m *mockPublishUsecase) Publish(ctx context.Context, userID string, contentID int64, req dto.PublishRequest) (*dto.PublishSummary, error) {
	args := m.Called(ctx, userID, contentID, req)
	res, _ := args.Get(0).(*dto.PublishSummary)
	return res, args.Error(1)
}

func (m *mockPublishUsecase) ProcessScheduled(ctx context.Context) (*dto.SweepResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*dto.SweepResult)
	return res, args.Error(1)
}

type mockAnalyticsUsecase struct{ mock.Mock }

func (m *mockAnalyticsUsecase) Summary(ctx context.Context, userID string, refresh bool) (*dto.AnalyticsSummary, error) {
	args := m.Called(ctx, userID, refresh)
	res, _ := args.Get(0).(*dto.AnalyticsSummary)
	return res, args.Error(1)
}

func (m *mockAnalyticsUsecase) Comments(ctx context.Context, userID string, publicationID int64) ([]model.Comment, error) {
	args := m.Called(ctx, userID, publicationID)
	res, _ := args.Get(0).([]model.Comment)
	return res, args.Error(1)
}

func (m *mockAnalyticsUsecase) DeleteRemote(ctx context.Context, userID string, publicationID int64) error {
	return m.Called(ctx, userID, publicationID).Error(0)
}

type mockAccountUsecase struct{ mock.Mock }

func (m *mockAccountUsecase) BeginConnect(ctx context.Context, userID string, provider model.Provider) (*dto.ConnectResponse, error) {
	args := m.Called(ctx, userID, provider)
	res, _ := args.Get(0).(*dto.ConnectResponse)
	return res, args.Error(1)
}

func (m *mockAccountUsecase) CompleteConnect(ctx context.Context, provider model.Provider, state, code string) (*dto.ConnectResult, error) {
	args := m.Called(ctx, provider, state, code)
	res, _ := args.Get(0).(*dto.ConnectResult)
	return res, args.Error(1)
}

func (m *mockAccountUsecase) List(ctx context.Context, userID string) ([]dto.AccountView, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).([]dto.AccountView)
	return res, args.Error(1)
}

func (m *mockAccountUsecase) SetDefault(ctx context.Context, userID string, accountID int64) error {
	return m.Called(ctx, userID, accountID).Error(0)
}

func (m *mockAccountUsecase) Disconnect(ctx context.Context, userID string, accountID int64) error {
	return m.Called(ctx, userID, accountID).Error(0)
}

// asUser stands in for the JWT middleware
func asUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, id)
		c.Next()
	}
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func do(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, dto.Res) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	var res dto.Res
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	return w, res
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errors.Join(usecase.ErrInvalidInput, errors.New("x")), http.StatusBadRequest, "invalid_input"},
		{model.ErrNotFound, http.StatusNotFound, "not_found"},
		{model.ErrNoAccountConnected, http.StatusConflict, "no_account_connected"},
		{model.NewTokenExpiredError(model.ProviderFacebook, "window elapsed", nil), http.StatusConflict, "reconnect_required"},
		{model.ErrUnsupportedMediaType, http.StatusUnprocessableEntity, "unsupported_media_type"},
		{model.ErrUnsupportedOperation, http.StatusNotImplemented, "unsupported_operation"},
		{model.NewPlatformAPIError(model.ProviderTikTok, 400, "spam risk", nil), http.StatusBadGateway, "platform_api_error"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		code := errorCode(tc.err)
		assert.Equal(t, tc.code, code)
		assert.Equal(t, tc.status, statusOf(code), tc.code)
	}
}

func TestContentHandler_Create(t *testing.T) {
	uc := new(mockContentUsecase)
	h := NewContentHandler(uc, new(mockPublishUsecase))
	r := newEngine()
	r.POST("/api/contents", asUser("u1"), h.Create)

	uc.On("Create", mock.Anything, "u1", mock.MatchedBy(func(req dto.CreateContentRequest) bool {
		return req.MediaType == model.MediaTypeVideo && len(req.Platforms) == 2
	})).Return(&dto.ContentResponse{PublishableContent: &model.PublishableContent{ID: 7, Status: model.ContentStatusDraft}}, nil)

	w, res := do(r, http.MethodPost, "/api/contents",
		`{"media_url":"https://cdn/v.mp4","media_type":"video","title":"Demo","platforms":["youtube","tiktok"]}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "201", res.ResponseCode)
	assert.Contains(t, w.Body.String(), `"id":7`)
}

func TestContentHandler_CreateRejectsBadBody(t *testing.T) {
	uc := new(mockContentUsecase)
	r := newEngine()
	r.POST("/api/contents", asUser("u1"), NewContentHandler(uc, new(mockPublishUsecase)).Create)

	w, res := do(r, http.MethodPost, "/api/contents", `{"media_url":"https://cdn/v.gif","media_type":"gif","title":"x","platforms":["youtube"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", res.ErrorCode)
	uc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestContentHandler_GetNotFound(t *testing.T) {
	uc := new(mockContentUsecase)
	r := newEngine()
	r.GET("/api/contents/:contentId", asUser("u1"), NewContentHandler(uc, new(mockPublishUsecase)).Get)
	uc.On("Get", mock.Anything, "u1", int64(99)).Return(nil, model.ErrNotFound)

	w, res := do(r, http.MethodGet, "/api/contents/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", res.ErrorCode)

	w, _ = do(r, http.MethodGet, "/api/contents/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContentHandler_PublishWithoutBody(t *testing.T) {
	pub := new(mockPublishUsecase)
	r := newEngine()
	r.POST("/api/contents/:contentId/publish", asUser("u1"), NewContentHandler(new(mockContentUsecase), pub).Publish)

	summary := dto.NewPublishSummary(5, []dto.PublishOutcome{
		{Platform: model.ProviderYouTube, Status: model.PublicationSuccess},
		{Platform: model.ProviderTikTok, Status: model.PublicationSuccess},
		{Platform: model.ProviderInstagram, Status: model.PublicationFailed, ErrorCode: "platform_api_error"},
	})
	pub.On("Publish", mock.Anything, "u1", int64(5), dto.PublishRequest{}).Return(summary, nil)

	w, res := do(r, http.MethodPost, "/api/contents/5/publish", "")
	require.Equal(t, http.StatusOK, w.Code)
	data, _ := json.Marshal(res.Data)
	assert.Contains(t, string(data), `"message":"published to 2, failed on 1"`)
}

func TestContentHandler_PublishForce(t *testing.T) {
	pub := new(mockPublishUsecase)
	r := newEngine()
	r.POST("/api/contents/:contentId/publish", asUser("u1"), NewContentHandler(new(mockContentUsecase), pub).Publish)
	req := dto.PublishRequest{Platforms: []model.Provider{model.ProviderFacebook}, Force: true}
	pub.On("Publish", mock.Anything, "u1", int64(5), req).Return(dto.NewPublishSummary(5, nil), nil)

	w, _ := do(r, http.MethodPost, "/api/contents/5/publish", `{"platforms":["facebook"],"force":true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	pub.AssertExpectations(t)
}

func TestContentHandler_ProcessScheduled(t *testing.T) {
	pub := new(mockPublishUsecase)
	r := newEngine()
	r.POST("/api/publish/process-scheduled", asUser("u1"), NewContentHandler(new(mockContentUsecase), pub).ProcessScheduled)
	pub.On("ProcessScheduled", mock.Anything).Return(&dto.SweepResult{Processed: 2}, nil)

	w, _ := do(r, http.MethodPost, "/api/publish/process-scheduled", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"processed":2`)
}

func TestAnalyticsHandler_SummaryRefreshFlag(t *testing.T) {
	uc := new(mockAnalyticsUsecase)
	r := newEngine()
	r.GET("/api/analytics", asUser("u1"), NewAnalyticsHandler(uc).Summary)
	uc.On("Summary", mock.Anything, "u1", true).Return(&dto.AnalyticsSummary{UserID: "u1", FailedPlatforms: []model.Provider{model.ProviderFacebook}}, nil).Once()
	uc.On("Summary", mock.Anything, "u1", false).Return(&dto.AnalyticsSummary{UserID: "u1", Cached: true}, nil).Once()

	w, _ := do(r, http.MethodGet, "/api/analytics?refresh=1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"failed_platforms":["facebook"]`)

	w, _ = do(r, http.MethodGet, "/api/analytics", "")
	assert.Contains(t, w.Body.String(), `"cached":true`)
	uc.AssertExpectations(t)
}

func TestAnalyticsHandler_CommentsAndDelete(t *testing.T) {
	uc := new(mockAnalyticsUsecase)
	h := NewAnalyticsHandler(uc)
	r := newEngine()
	r.GET("/api/publications/:publicationId/comments", asUser("u1"), h.Comments)
	r.DELETE("/api/publications/:publicationId/remote", asUser("u1"), h.DeleteRemote)

	uc.On("Comments", mock.Anything, "u1", int64(3)).Return([]model.Comment{{ID: "c1", Text: "nice"}}, nil)
	uc.On("DeleteRemote", mock.Anything, "u1", int64(4)).Return(model.ErrUnsupportedOperation)

	w, _ := do(r, http.MethodGet, "/api/publications/3/comments", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"nice"`)

	w, res := do(r, http.MethodDelete, "/api/publications/4/remote", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "unsupported_operation", res.ErrorCode)
}

func TestAccountHandler_ConnectFlow(t *testing.T) {
	uc := new(mockAccountUsecase)
	h := NewAccountHandler(uc)
	r := newEngine()
	r.GET("/api/auth/:provider", asUser("u1"), h.BeginConnect)
	r.GET("/auth/:provider/callback", h.Callback)

	uc.On("BeginConnect", mock.Anything, "u1", model.ProviderTikTok).Return(&dto.ConnectResponse{AuthURL: "https://www.tiktok.com/v2/auth/authorize/?state=s1", State: "s1"}, nil)
	uc.On("CompleteConnect", mock.Anything, model.ProviderTikTok, "s1", "c1").Return(&dto.ConnectResult{
		Provider: model.ProviderTikTok,
		Accounts: []dto.AccountView{{ID: 1, Provider: model.ProviderTikTok, ProviderID: "open_1", IsDefault: true}},
	}, nil)

	w, _ := do(r, http.MethodGet, "/api/auth/TikTok", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"s1"`)

	w, _ = do(r, http.MethodGet, "/auth/tiktok/callback?state=s1&code=c1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"provider_id":"open_1"`)

	w, res := do(r, http.MethodGet, "/auth/tiktok/callback?error=access_denied&error_description=user+cancelled", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, res.ResponseMessage, "user cancelled")

	w, _ = do(r, http.MethodGet, "/api/auth/myspace", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountHandler_ExpiredState(t *testing.T) {
	uc := new(mockAccountUsecase)
	r := newEngine()
	r.GET("/auth/:provider/callback", NewAccountHandler(uc).Callback)
	uc.On("CompleteConnect", mock.Anything, model.ProviderYouTube, "gone", "c").Return(nil, model.ErrInvalidState)

	w, res := do(r, http.MethodGet, "/auth/youtube/callback?state=gone&code=c", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_state", res.ErrorCode)
}

func TestAccountHandler_Management(t *testing.T) {
	uc := new(mockAccountUsecase)
	h := NewAccountHandler(uc)
	r := newEngine()
	r.GET("/api/accounts", asUser("u1"), h.List)
	r.PUT("/api/accounts/:accountId/default", asUser("u1"), h.SetDefault)
	r.DELETE("/api/accounts/:accountId", asUser("u1"), h.Disconnect)

	uc.On("List", mock.Anything, "u1").Return([]dto.AccountView{{ID: 1, Provider: model.ProviderFacebook, Name: "Page"}}, nil)
	uc.On("SetDefault", mock.Anything, "u1", int64(1)).Return(nil)
	uc.On("Disconnect", mock.Anything, "u1", int64(2)).Return(model.ErrNotFound)

	w, _ := do(r, http.MethodGet, "/api/accounts", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "access_token")

	w, _ = do(r, http.MethodPut, "/api/accounts/1/default", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(r, http.MethodDelete, "/api/accounts/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	r := newEngine()
	r.GET("/ok", NewHealthHandler(stubPinger{}).Healthz)
	r.GET("/down", NewHealthHandler(stubPinger{err: errors.New("connection refused")}).Healthz)
	r.GET("/nodb", NewHealthHandler(nil).Healthz)

	w, _ := do(r, http.MethodGet, "/ok", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(r, http.MethodGet, "/down", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w, _ = do(r, http.MethodGet, "/nodb", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
