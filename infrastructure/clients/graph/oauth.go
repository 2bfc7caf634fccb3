package graph

import (
	"context"
	"net/http"
	"strings"
	"time"

	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/configuration"
	"crosspost/infrastructure/logger"

	"github.com/google/go-querystring/query"
)

const defaultDialogHost = "https://www.facebook.com"

var _ repository.ITokenProvider = (*OAuth)(nil)
var _ repository.IAccountConnector = (*OAuth)(nil)

// OAuth handles the Meta login flow shared by Facebook Pages and Instagram business accounts.
// Meta has no refresh grant: a still valid long-lived token is exchanged for a new one.
type OAuth struct {
	cfg     configuration.PlatformClient
	graph   *Client
	authURL string
	now     func() time.Time
}

func NewOAuth(cfg configuration.PlatformClient, httpClient *http.Client, version string) *OAuth {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = defaultDialogHost
	}
	g := NewClient(model.ProviderFacebook, httpClient, cfg.APIBaseURL, version)
	return &OAuth{cfg: cfg, graph: g, authURL: strings.TrimRight(authURL, "/"), now: time.Now}
}

type dialogParams struct {
	ClientID     string `url:"client_id"`
	RedirectURI  string `url:"redirect_uri"`
	State        string `url:"state"`
	Scope        string `url:"scope"`
	ResponseType string `url:"response_type"`
}

type codeExchangeParams struct {
	ClientID     string `url:"client_id"`
	ClientSecret string `url:"client_secret"`
	RedirectURI  string `url:"redirect_uri"`
	Code         string `url:"code"`
}

type longLivedParams struct {
	GrantType       string `url:"grant_type"`
	ClientID        string `url:"client_id"`
	ClientSecret    string `url:"client_secret"`
	FBExchangeToken string `url:"fb_exchange_token"`
}

type accessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type fieldsParams struct {
	Fields      string `url:"fields,omitempty"`
	Limit       int    `url:"limit,omitempty"`
	AccessToken string `url:"access_token"`
}

type pageAccount struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
	Picture     struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
	InstagramBusinessAccount *struct {
		ID                string `json:"id"`
		Username          string `json:"username"`
		Name              string `json:"name"`
		ProfilePictureURL string `json:"profile_picture_url"`
	} `json:"instagram_business_account"`
}

func (o *OAuth) AuthURL(state string) string {
	v, _ := query.Values(dialogParams{
		ClientID:     o.cfg.ClientID,
		RedirectURI:  o.cfg.RedirectURI,
		State:        state,
		Scope:        strings.Join(o.cfg.Scopes, ","),
		ResponseType: "code",
	})
	return o.authURL + "/" + o.graph.version + "/dialog/oauth?" + v.Encode()
}

// Refresh re-exchanges the current long-lived token. Once it has expired only a new login helps.
func (o *OAuth) Refresh(ctx context.Context, cred *model.Credential) (*model.TokenSet, error) {
	if cred.Expired(o.now()) {
		return nil, model.NewTokenExpiredError(cred.Provider, "long-lived token window elapsed", nil)
	}
	tok, err := o.exchange(ctx, cred.AccessToken)
	if err != nil {
		return nil, err
	}
	return o.tokenSet(tok), nil
}

// Connect turns an authorization code into one facebook credential per managed Page
// and one instagram credential per Page-linked business account, both using the Page token.
func (o *OAuth) Connect(ctx context.Context, code string) ([]*model.Credential, error) {
	var short accessToken
	err := o.graph.Get(ctx, "oauth/access_token", codeExchangeParams{
		ClientID:     o.cfg.ClientID,
		ClientSecret: o.cfg.ClientSecret,
		RedirectURI:  o.cfg.RedirectURI,
		Code:         code,
	}, &short)
	if err != nil {
		return nil, err
	}
	long, err := o.exchange(ctx, short.AccessToken)
	if err != nil {
		return nil, err
	}
	ts := o.tokenSet(long)

	var pages struct {
		Data []pageAccount `json:"data"`
	}
	err = o.graph.Get(ctx, "me/accounts", fieldsParams{
		Fields:      "id,name,access_token,picture{url},instagram_business_account{id,username,name,profile_picture_url}",
		Limit:       100,
		AccessToken: long.AccessToken,
	}, &pages)
	if err != nil {
		return nil, err
	}
	if len(pages.Data) == 0 {
		return nil, model.NewPlatformAPIError(model.ProviderFacebook, 0, "no pages available for this login", nil)
	}

	var creds []*model.Credential
	for _, p := range pages.Data {
		fb := &model.Credential{
			Provider:    model.ProviderFacebook,
			ProviderID:  p.ID,
			AccessToken: p.AccessToken,
			ExpiresAt:   ts.ExpiresAt,
			Name:        p.Name,
		}
		if p.Picture.Data.URL != "" {
			pic := p.Picture.Data.URL
			fb.AvatarURL = &pic
		}
		creds = append(creds, fb)

		if ig := p.InstagramBusinessAccount; ig != nil && ig.ID != "" {
			name := ig.Username
			if name == "" {
				name = ig.Name
			}
			igCred := &model.Credential{
				Provider:    model.ProviderInstagram,
				ProviderID:  ig.ID,
				AccessToken: p.AccessToken,
				ExpiresAt:   ts.ExpiresAt,
				Name:        name,
			}
			if ig.ProfilePictureURL != "" {
				pic := ig.ProfilePictureURL
				igCred.AvatarURL = &pic
			}
			creds = append(creds, igCred)
		}
	}
	logger.GetLogger().WithField("accounts", len(creds)).Info("meta accounts connected")
	return creds, nil
}

func (o *OAuth) exchange(ctx context.Context, token string) (*accessToken, error) {
	var tok accessToken
	err := o.graph.Get(ctx, "oauth/access_token", longLivedParams{
		GrantType:       "fb_exchange_token",
		ClientID:        o.cfg.ClientID,
		ClientSecret:    o.cfg.ClientSecret,
		FBExchangeToken: token,
	}, &tok)
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, model.NewPlatformAPIError(model.ProviderFacebook, 0, "token exchange returned no access_token", nil)
	}
	return &tok, nil
}

func (o *OAuth) tokenSet(tok *accessToken) *model.TokenSet {
	ts := &model.TokenSet{AccessToken: tok.AccessToken}
	if tok.ExpiresIn > 0 {
		exp := o.now().UTC().Add(time.Duration(tok.ExpiresIn) * time.Second)
		ts.ExpiresAt = &exp
	}
	return ts
}
