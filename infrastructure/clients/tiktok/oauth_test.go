package tiktok

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"crosspost/domain/model"
	"crosspost/infrastructure/configuration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOAuthServer(t *testing.T) (*httptest.Server, *url.Values) {
	var lastForm url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/oauth/token/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		lastForm = r.PostForm
		if r.PostForm.Get("refresh_token") == "revoked" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Refresh token is invalid or expired."}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"act.new","expires_in":86400,"open_id":"open-1","refresh_token":"rft.new","refresh_expires_in":31536000,"scope":"video.publish","token_type":"Bearer"}`))
	})
	mux.HandleFunc("/v2/user/info/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer act.new", r.Header.Get("Authorization"))
		assert.Equal(t, "open_id,avatar_url,display_name", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`{"data":{"user":{"open_id":"open-1","display_name":"Creator","avatar_url":"https://img/a.png"}},"error":{"code":"ok","message":""}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &lastForm
}

func newTestOAuth(srv *httptest.Server) *OAuth {
	o := NewOAuth(configuration.PlatformClient{
		ClientID:     "ck",
		ClientSecret: "cs",
		RedirectURI:  "https://app.example/auth/tiktok/callback",
		Scopes:       []string{"user.info.basic", "video.publish"},
		APIBaseURL:   srv.URL,
	}, srv.Client())
	o.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return o
}

func TestOAuth_RefreshRotatesTokens(t *testing.T) {
	srv, form := newOAuthServer(t)
	o := newTestOAuth(srv)
	rt := "rft.old"

	ts, err := o.Refresh(context.Background(), &model.Credential{Provider: model.ProviderTikTok, RefreshToken: &rt})
	require.NoError(t, err)
	assert.Equal(t, "act.new", ts.AccessToken)
	require.NotNil(t, ts.RefreshToken)
	assert.Equal(t, "rft.new", *ts.RefreshToken)
	require.NotNil(t, ts.ExpiresAt)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), *ts.ExpiresAt)

	assert.Equal(t, "refresh_token", form.Get("grant_type"))
	assert.Equal(t, "ck", form.Get("client_key"))
	assert.Equal(t, "cs", form.Get("client_secret"))
	assert.Equal(t, "rft.old", form.Get("refresh_token"))
}

func TestOAuth_RefreshRejected(t *testing.T) {
	srv, _ := newOAuthServer(t)
	o := newTestOAuth(srv)
	rt := "revoked"

	_, err := o.Refresh(context.Background(), &model.Credential{RefreshToken: &rt})
	var apiErr *model.PlatformAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Refresh token is invalid or expired.", apiErr.Message)
}

func TestOAuth_RefreshWithoutRefreshToken(t *testing.T) {
	srv, _ := newOAuthServer(t)
	_, err := newTestOAuth(srv).Refresh(context.Background(), &model.Credential{})
	assert.ErrorIs(t, err, model.ErrTokenExpiredUnrecoverable)
}

func TestOAuth_AuthURL(t *testing.T) {
	srv, _ := newOAuthServer(t)
	u, err := url.Parse(newTestOAuth(srv).AuthURL("st-1"))
	require.NoError(t, err)
	assert.Equal(t, "www.tiktok.com", u.Host)
	q := u.Query()
	assert.Equal(t, "ck", q.Get("client_key"))
	assert.Equal(t, "user.info.basic,video.publish", q.Get("scope"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "st-1", q.Get("state"))
}

func TestOAuth_Connect(t *testing.T) {
	srv, form := newOAuthServer(t)
	creds, err := newTestOAuth(srv).Connect(context.Background(), "auth-code")
	require.NoError(t, err)
	require.Len(t, creds, 1)

	c := creds[0]
	assert.Equal(t, model.ProviderTikTok, c.Provider)
	assert.Equal(t, "open-1", c.ProviderID)
	assert.Equal(t, "Creator", c.Name)
	assert.Equal(t, "act.new", c.AccessToken)
	require.NotNil(t, c.AvatarURL)
	assert.Equal(t, "https://img/a.png", *c.AvatarURL)
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "auth-code", form.Get("code"))
}
