package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crosspost/domain/model"
	"crosspost/infrastructure/configuration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenProvider_Refresh(t *testing.T) {
	var grants []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		grants = append(grants, r.Form.Get("grant_type")+":"+r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	cfg := NewOAuthConfig(configuration.PlatformClient{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL})
	p := NewTokenProvider(cfg, srv.Client())
	rt := "refresh-1"

	ts, err := p.Refresh(context.Background(), &model.Credential{AccessToken: "stale", RefreshToken: &rt})

	require.NoError(t, err)
	assert.Equal(t, []string{"refresh_token:refresh-1"}, grants)
	assert.Equal(t, "fresh", ts.AccessToken)
	assert.Nil(t, ts.RefreshToken, "unchanged refresh token is not reported as rotated")
	require.NotNil(t, ts.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *ts.ExpiresAt, time.Minute)
}

func TestTokenProvider_RefreshRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
	}))
	defer srv.Close()

	p := NewTokenProvider(NewOAuthConfig(configuration.PlatformClient{TokenURL: srv.URL}), srv.Client())
	rt := "refresh-1"
	_, err := p.Refresh(context.Background(), &model.Credential{RefreshToken: &rt})

	var apiErr *model.PlatformAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "expired or revoked")
}

func TestTokenProvider_MissingRefreshToken(t *testing.T) {
	p := NewTokenProvider(NewOAuthConfig(configuration.PlatformClient{}), nil)
	_, err := p.Refresh(context.Background(), &model.Credential{})
	assert.ErrorIs(t, err, model.ErrTokenExpiredUnrecoverable)
}

func TestConnector_ConnectReadsChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/token":
			_, _ = w.Write([]byte(`{"access_token":"a1","refresh_token":"r1","token_type":"Bearer","expires_in":3600}`))
		case strings.HasSuffix(r.URL.Path, "/youtube/v3/channels"):
			assert.Equal(t, "true", r.URL.Query().Get("mine"))
			_, _ = w.Write([]byte(`{"items":[{"id":"UC1","snippet":{"title":"My Channel","thumbnails":{"default":{"url":"https://img/1.jpg"}}}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := NewOAuthConfig(configuration.PlatformClient{ClientID: "id", TokenURL: srv.URL + "/token", RedirectURI: "http://localhost/cb"})
	c := NewConnector(cfg, srv.Client(), WithEndpoint(srv.URL+"/"))

	assert.Contains(t, c.AuthURL("st-1"), "state=st-1")
	assert.Contains(t, c.AuthURL("st-1"), "access_type=offline")

	creds, err := c.Connect(context.Background(), "code-1")
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "UC1", creds[0].ProviderID)
	assert.Equal(t, "My Channel", creds[0].Name)
	assert.Equal(t, "r1", *creds[0].RefreshToken)
	assert.Equal(t, "https://img/1.jpg", *creds[0].AvatarURL)
}
