package model

import "time"

// Credential stores the OAuth token set of one external account (channel, page, profile) for a user
type Credential struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	Provider     Provider   `json:"provider"`
	ProviderID   string     `json:"provider_id"`
	AccessToken  string     `json:"-"`
	RefreshToken *string    `json:"-"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Name         string     `json:"name"`
	FirstName    *string    `json:"first_name,omitempty"`
	LastName     *string    `json:"last_name,omitempty"`
	AvatarURL    *string    `json:"avatar_url,omitempty"`
	Email        *string    `json:"email,omitempty"`
	IsDefault    bool       `json:"is_default"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasRefreshToken reports whether a non-empty refresh token is stored
func (c *Credential) HasRefreshToken() bool {
	return c.RefreshToken != nil && *c.RefreshToken != ""
}

// ExpiresWithin reports whether the access token expires before now+window.
// A credential without an expiry never expires.
func (c *Credential) ExpiresWithin(now time.Time, window time.Duration) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Add(window).Before(*c.ExpiresAt)
}

// Expired reports whether the access token is already past its expiry
func (c *Credential) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// Apply returns a copy of the credential with rotated token fields applied
func (c *Credential) Apply(ts *TokenSet) *Credential {
	cp := *c
	cp.AccessToken = ts.AccessToken
	if ts.RefreshToken != nil {
		rt := *ts.RefreshToken
		cp.RefreshToken = &rt
	}
	if ts.ExpiresAt != nil {
		exp := *ts.ExpiresAt
		cp.ExpiresAt = &exp
	}
	return &cp
}

// TokenSet holds rotated token fields. Nil pointers keep the stored value.
type TokenSet struct {
	AccessToken  string
	RefreshToken *string
	ExpiresAt    *time.Time
}

// ConnectState binds an OAuth state parameter to the user who started the flow
type ConnectState struct {
	UserID    string    `json:"user_id"`
	Provider  Provider  `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}
