package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/configuration"

	"github.com/google/go-querystring/query"
)

const defaultAuthURL = "https://www.tiktok.com/v2/auth/authorize/"

var _ repository.ITokenProvider = (*OAuth)(nil)
var _ repository.IAccountConnector = (*OAuth)(nil)

// OAuth implements TikTok's token grants and the connect flow
type OAuth struct {
	cfg        configuration.PlatformClient
	httpClient *http.Client
	baseURL    string
	authURL    string
	now        func() time.Time
}

func NewOAuth(cfg configuration.PlatformClient, httpClient *http.Client) *OAuth {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}
	return &OAuth{cfg: cfg, httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/"), authURL: authURL, now: time.Now}
}

type authorizeParams struct {
	ClientKey    string `url:"client_key"`
	Scope        string `url:"scope"`
	ResponseType string `url:"response_type"`
	RedirectURI  string `url:"redirect_uri"`
	State        string `url:"state"`
}

type tokenForm struct {
	ClientKey    string `url:"client_key"`
	ClientSecret string `url:"client_secret"`
	GrantType    string `url:"grant_type"`
	Code         string `url:"code,omitempty"`
	RedirectURI  string `url:"redirect_uri,omitempty"`
	RefreshToken string `url:"refresh_token,omitempty"`
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	OpenID           string `json:"open_id"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	Scope            string `json:"scope"`
	TokenType        string `json:"token_type"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (o *OAuth) AuthURL(state string) string {
	v, _ := query.Values(authorizeParams{
		ClientKey:    o.cfg.ClientID,
		Scope:        strings.Join(o.cfg.Scopes, ","),
		ResponseType: "code",
		RedirectURI:  o.cfg.RedirectURI,
		State:        state,
	})
	return o.authURL + "?" + v.Encode()
}

// Refresh rotates both tokens; TikTok requires the refresh token to be present
func (o *OAuth) Refresh(ctx context.Context, cred *model.Credential) (*model.TokenSet, error) {
	if !cred.HasRefreshToken() {
		return nil, model.NewTokenExpiredError(model.ProviderTikTok, "missing refresh token", nil)
	}
	tok, err := o.token(ctx, tokenForm{
		ClientKey:    o.cfg.ClientID,
		ClientSecret: o.cfg.ClientSecret,
		GrantType:    "refresh_token",
		RefreshToken: *cred.RefreshToken,
	})
	if err != nil {
		return nil, err
	}
	return o.tokenSet(tok), nil
}

func (o *OAuth) Connect(ctx context.Context, code string) ([]*model.Credential, error) {
	tok, err := o.token(ctx, tokenForm{
		ClientKey:    o.cfg.ClientID,
		ClientSecret: o.cfg.ClientSecret,
		GrantType:    "authorization_code",
		Code:         code,
		RedirectURI:  o.cfg.RedirectURI,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/v2/user/info/?fields=open_id,avatar_url,display_name", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	var info struct {
		Data struct {
			User struct {
				OpenID      string `json:"open_id"`
				AvatarURL   string `json:"avatar_url"`
				DisplayName string `json:"display_name"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := doJSON(o.httpClient, req, &info); err != nil {
		return nil, err
	}

	ts := o.tokenSet(tok)
	openID := info.Data.User.OpenID
	if openID == "" {
		openID = tok.OpenID
	}
	cred := &model.Credential{
		Provider:     model.ProviderTikTok,
		ProviderID:   openID,
		AccessToken:  ts.AccessToken,
		RefreshToken: ts.RefreshToken,
		ExpiresAt:    ts.ExpiresAt,
		Name:         info.Data.User.DisplayName,
	}
	if info.Data.User.AvatarURL != "" {
		avatar := info.Data.User.AvatarURL
		cred.AvatarURL = &avatar
	}
	return []*model.Credential{cred}, nil
}

func (o *OAuth) token(ctx context.Context, form tokenForm) (*tokenResponse, error) {
	v, err := query.Values(form)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v2/oauth/token/", strings.NewReader(v.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, model.NewPlatformAPIError(model.ProviderTikTok, 0, "", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewPlatformAPIError(model.ProviderTikTok, resp.StatusCode, "", err)
	}
	var tok tokenResponse
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, model.NewPlatformAPIError(model.ProviderTikTok, resp.StatusCode, "invalid token response", err)
	}
	if resp.StatusCode != http.StatusOK || tok.Error != "" || tok.AccessToken == "" {
		msg := tok.ErrorDescription
		if msg == "" {
			msg = tok.Error
		}
		if msg == "" {
			msg = fmt.Sprintf("token endpoint returned %d", resp.StatusCode)
		}
		return nil, model.NewPlatformAPIError(model.ProviderTikTok, resp.StatusCode, msg, nil)
	}
	return &tok, nil
}

func (o *OAuth) tokenSet(tok *tokenResponse) *model.TokenSet {
	ts := &model.TokenSet{AccessToken: tok.AccessToken}
	if tok.RefreshToken != "" {
		rt := tok.RefreshToken
		ts.RefreshToken = &rt
	}
	if tok.ExpiresIn > 0 {
		exp := o.now().UTC().Add(time.Duration(tok.ExpiresIn) * time.Second)
		ts.ExpiresAt = &exp
	}
	return ts
}
