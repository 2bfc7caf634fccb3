package model

import (
	"fmt"
	"strings"
)

// Provider identifies an external publishing platform
type Provider string

const (
	ProviderYouTube   Provider = "youtube"
	ProviderTikTok    Provider = "tiktok"
	ProviderInstagram Provider = "instagram"
	ProviderFacebook  Provider = "facebook"
)

// AllProviders lists every supported platform in display order
var AllProviders = []Provider{ProviderYouTube, ProviderTikTok, ProviderInstagram, ProviderFacebook}

// ParseProvider normalizes a platform name coming from the outside world
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case ProviderYouTube, ProviderTikTok, ProviderInstagram, ProviderFacebook:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

func (p Provider) String() string { return string(p) }

// IsMeta reports whether the platform authenticates through a Meta long-lived token
func (p Provider) IsMeta() bool {
	return p == ProviderFacebook || p == ProviderInstagram
}
