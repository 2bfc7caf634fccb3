package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/clients/media"
	"crosspost/infrastructure/logger"
)

const DefaultBaseURL = "https://open.tiktokapis.com"

var _ repository.IPlatformAdapter = (*Client)(nil)

// Client publishes to TikTok through the Content Posting API direct post flow
type Client struct {
	resolver     repository.ICredentialResolver
	media        *media.Client
	httpClient   *http.Client
	baseURL      string
	privacyLevel string
	now          func() time.Time
}

func NewTikTokClient(resolver repository.ICredentialResolver, mediaClient *media.Client, httpClient *http.Client, baseURL, privacyLevel string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if privacyLevel == "" {
		privacyLevel = "SELF_ONLY"
	}
	return &Client{
		resolver:     resolver,
		media:        mediaClient,
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(baseURL, "/"),
		privacyLevel: privacyLevel,
		now:          time.Now,
	}
}

func (c *Client) Platform() model.Provider { return model.ProviderTikTok }

type postInfo struct {
	Title        string `json:"title"`
	PrivacyLevel string `json:"privacy_level"`
}

type sourceInfo struct {
	Source          string `json:"source"`
	VideoSize       int64  `json:"video_size"`
	ChunkSize       int64  `json:"chunk_size"`
	TotalChunkCount int    `json:"total_chunk_count"`
}

type initRequest struct {
	PostInfo   postInfo   `json:"post_info"`
	SourceInfo sourceInfo `json:"source_info"`
}

type apiStatus struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

type initResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
		UploadURL string `json:"upload_url"`
	} `json:"data"`
	Error apiStatus `json:"error"`
}

// Publish declares the whole file as a single chunk, then PUTs the bytes to the returned upload URL.
// The publish id stands in for the post id; no finish call exists.
func (c *Client) Publish(ctx context.Context, userID string, content *model.PublishableContent) (*model.PublishResult, error) {
	if content.MediaType != model.MediaTypeVideo {
		return nil, fmt.Errorf("tiktok accepts videos only: %w", model.ErrUnsupportedMediaType)
	}
	cred, err := c.resolver.Resolve(ctx, userID, model.ProviderTikTok, content.SocialAccountID)
	if err != nil {
		return nil, err
	}

	size, err := c.media.Size(ctx, content.MediaURL)
	if err != nil {
		return nil, model.NewPlatformAPIError(model.ProviderTikTok, 0, "", err)
	}

	body := initRequest{
		PostInfo: postInfo{Title: content.Title, PrivacyLevel: c.privacyLevel},
		SourceInfo: sourceInfo{
			Source:          "FILE_UPLOAD",
			VideoSize:       size,
			ChunkSize:       size,
			TotalChunkCount: 1,
		},
	}
	var initResp initResponse
	if err := c.postJSON(ctx, cred.AccessToken, "/v2/post/publish/video/init/", body, &initResp); err != nil {
		return nil, err
	}
	if initResp.Data.UploadURL == "" || initResp.Data.PublishID == "" {
		return nil, model.NewPlatformAPIError(model.ProviderTikTok, 0, "init response missing upload_url or publish_id", nil)
	}

	if err := c.upload(ctx, initResp.Data.UploadURL, content.MediaURL, size); err != nil {
		return nil, err
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"user_id":    userID,
		"publish_id": initResp.Data.PublishID,
		"size":       size,
	}).Info("tiktok upload completed")
	return &model.PublishResult{PlatformPostID: initResp.Data.PublishID, PublishedAt: c.now().UTC(), SocialAccountID: &cred.ID}, nil
}

func (c *Client) upload(ctx context.Context, uploadURL, mediaURL string, size int64) error {
	src, _, err := c.media.Open(ctx, mediaURL)
	if err != nil {
		return model.NewPlatformAPIError(model.ProviderTikTok, 0, "", err)
	}
	defer src.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, src)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", size-1, size))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewPlatformAPIError(model.ProviderTikTok, 0, "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return model.NewPlatformAPIError(model.ProviderTikTok, resp.StatusCode, strings.TrimSpace(string(data)), nil)
	}
	return nil
}

// GetStats is empty: a publish id cannot be resolved to a video for metrics
func (c *Client) GetStats(ctx context.Context, userID string, posts []model.PostRef) (map[string]model.VideoStats, error) {
	return map[string]model.VideoStats{}, nil
}

// GetComments is empty for the same reason as GetStats
func (c *Client) GetComments(ctx context.Context, userID string, post model.PostRef) []model.Comment {
	return []model.Comment{}
}

func (c *Client) postJSON(ctx context.Context, accessToken, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	return doJSON(c.httpClient, req, out)
}

// doJSON decodes TikTok's {data, error} envelope; error.code "ok" means success
func doJSON(httpClient *http.Client, req *http.Request, out interface{}) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return model.NewPlatformAPIError(model.ProviderTikTok, 0, "", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewPlatformAPIError(model.ProviderTikTok, resp.StatusCode, "", err)
	}
	var envelope struct {
		Error apiStatus `json:"error"`
	}
	_ = json.Unmarshal(data, &envelope)
	if resp.StatusCode < 200 || resp.StatusCode > 299 || (envelope.Error.Code != "" && envelope.Error.Code != "ok") {
		msg := envelope.Error.Message
		if msg == "" {
			msg = envelope.Error.Code
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return model.NewPlatformAPIError(model.ProviderTikTok, resp.StatusCode, msg, nil)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return model.NewPlatformAPIError(model.ProviderTikTok, resp.StatusCode, "invalid response body", err)
		}
	}
	return nil
}
