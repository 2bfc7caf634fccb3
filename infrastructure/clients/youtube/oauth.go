package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/configuration"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var _ repository.ITokenProvider = (*TokenProvider)(nil)
var _ repository.IAccountConnector = (*Connector)(nil)

// NewOAuthConfig builds the Google OAuth client from configuration
func NewOAuthConfig(cfg configuration.PlatformClient) *oauth2.Config {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
		Endpoint:     endpoint,
	}
}

// TokenProvider refreshes Google credentials with the refresh-token grant
type TokenProvider struct {
	config     *oauth2.Config
	httpClient *http.Client
}

func NewTokenProvider(config *oauth2.Config, httpClient *http.Client) *TokenProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenProvider{config: config, httpClient: httpClient}
}

func (p *TokenProvider) Refresh(ctx context.Context, cred *model.Credential) (*model.TokenSet, error) {
	if !cred.HasRefreshToken() {
		return nil, model.NewTokenExpiredError(model.ProviderYouTube, "missing refresh token", nil)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	// an empty access token forces the source to hit the token endpoint
	tok, err := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: *cred.RefreshToken}).Token()
	if err != nil {
		return nil, oauthError(model.ProviderYouTube, err)
	}
	return tokenSet(tok, cred.RefreshToken), nil
}

// Connector runs the Google consent flow and reads the authorized channel
type Connector struct {
	config     *oauth2.Config
	httpClient *http.Client
	endpoint   string
}

func NewConnector(config *oauth2.Config, httpClient *http.Client, opts ...Option) *Connector {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	return &Connector{config: config, httpClient: httpClient, endpoint: c.endpoint}
}

func (c *Connector) AuthURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (c *Connector) Connect(ctx context.Context, code string) ([]*model.Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, oauthError(model.ProviderYouTube, err)
	}
	opts := []option.ClientOption{option.WithHTTPClient(c.config.Client(ctx, tok))}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	response, err := service.Channels.List([]string{"snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, apiError(err)
	}
	if len(response.Items) == 0 {
		return nil, model.NewPlatformAPIError(model.ProviderYouTube, 0, "no channel found for authenticated user", nil)
	}

	ts := tokenSet(tok, nil)
	creds := make([]*model.Credential, 0, len(response.Items))
	for _, ch := range response.Items {
		cred := &model.Credential{
			Provider:     model.ProviderYouTube,
			ProviderID:   ch.Id,
			AccessToken:  ts.AccessToken,
			RefreshToken: ts.RefreshToken,
			ExpiresAt:    ts.ExpiresAt,
		}
		if ch.Snippet != nil {
			cred.Name = ch.Snippet.Title
			if ch.Snippet.Thumbnails != nil && ch.Snippet.Thumbnails.Default != nil {
				avatar := ch.Snippet.Thumbnails.Default.Url
				cred.AvatarURL = &avatar
			}
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

// tokenSet converts an oauth2 token; the refresh token is only reported when it rotated
func tokenSet(tok *oauth2.Token, current *string) *model.TokenSet {
	ts := &model.TokenSet{AccessToken: tok.AccessToken}
	if tok.RefreshToken != "" && (current == nil || *current != tok.RefreshToken) {
		rt := tok.RefreshToken
		ts.RefreshToken = &rt
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		ts.ExpiresAt = &exp
	}
	return ts
}

func oauthError(p model.Provider, err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		msg := rerr.ErrorDescription
		if msg == "" {
			msg = rerr.ErrorCode
		}
		return model.NewPlatformAPIError(p, status, msg, err)
	}
	return model.NewPlatformAPIError(p, 0, "", err)
}
