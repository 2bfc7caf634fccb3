package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crosspost/domain/model"

	"github.com/google/go-querystring/query"
)

const (
	DefaultBaseURL = "https://graph.facebook.com"
	DefaultVersion = "v19.0"

	// codeInvalidToken is Graph's OAuthException code for expired or revoked tokens
	codeInvalidToken = 190
)

// Client is a thin versioned Graph API client shared by the Facebook and Instagram adapters.
// Request parameters are structs encoded with `url` tags.
type Client struct {
	platform   model.Provider
	httpClient *http.Client
	baseURL    string
	version    string
}

func NewClient(platform model.Provider, httpClient *http.Client, baseURL, version string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if version == "" {
		version = DefaultVersion
	}
	return &Client{
		platform:   platform,
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		version:    version,
	}
}

func (c *Client) Platform() model.Provider { return c.platform }

// Error is the Graph error envelope
type Error struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	FBTraceID    string `json:"fbtrace_id"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("graph %s (code %d): %s", e.Type, e.Code, e.Message)
}

func (c *Client) Get(ctx context.Context, path string, params interface{}, out interface{}) error {
	values, err := encode(params)
	if err != nil {
		return err
	}
	u := c.endpoint(path)
	if len(values) > 0 {
		u += "?" + values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// Post sends params form-encoded, which Graph accepts for every publish edge
func (c *Client) Post(ctx context.Context, path string, params interface{}, out interface{}) error {
	values, err := encode(params)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) Delete(ctx context.Context, path string, params interface{}) error {
	values, err := encode(params)
	if err != nil {
		return err
	}
	u := c.endpoint(path)
	if len(values) > 0 {
		u += "?" + values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + c.version + "/" + strings.TrimLeft(path, "/")
}

func encode(params interface{}) (url.Values, error) {
	if params == nil {
		return url.Values{}, nil
	}
	return query.Values(params)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewPlatformAPIError(c.platform, 0, "", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewPlatformAPIError(c.platform, resp.StatusCode, "", err)
	}

	var envelope struct {
		Error *Error `json:"error"`
	}
	_ = json.Unmarshal(data, &envelope)
	if envelope.Error != nil {
		apiErr := model.NewPlatformAPIError(c.platform, resp.StatusCode, envelope.Error.Message, envelope.Error)
		if envelope.Error.Code == codeInvalidToken {
			return model.NewTokenExpiredError(c.platform, envelope.Error.Message, apiErr)
		}
		return apiErr
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.NewPlatformAPIError(c.platform, resp.StatusCode, strings.TrimSpace(string(data)), nil)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return model.NewPlatformAPIError(c.platform, resp.StatusCode, "invalid response body", err)
	}
	return nil
}

// ParseTime reads Graph's ISO 8601 timestamps, which use a +0000 style offset
func ParseTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
