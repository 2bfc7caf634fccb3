package dto

import (
	"time"

	"crosspost/domain/model"
)

// AccountView is a connected account without its secrets
type AccountView struct {
	ID         int64          `json:"id"`
	Provider   model.Provider `json:"provider"`
	ProviderID string         `json:"provider_id"`
	Name       string         `json:"name"`
	AvatarURL  *string        `json:"avatar_url,omitempty"`
	IsDefault  bool           `json:"is_default"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
	Expired    bool           `json:"expired"`
}

type ConnectResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

type ConnectResult struct {
	Provider model.Provider `json:"provider"`
	Accounts []AccountView  `json:"accounts"`
}

// Res is the envelope of every JSON response
type Res struct {
	ResponseCode    string      `json:"response_code"`
	ResponseMessage string      `json:"response_message"`
	ErrorCode       string      `json:"error_code,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}
