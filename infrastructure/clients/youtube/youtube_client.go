package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/clients/media"
	"crosspost/infrastructure/logger"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// maxIDsPerList is the videos.list id limit
const maxIDsPerList = 50

var _ repository.IPlatformAdapter = (*Client)(nil)
var _ repository.IPostDeleter = (*Client)(nil)

// Client publishes to YouTube through the Data API v3 with the user's stored credential
type Client struct {
	resolver   repository.ICredentialResolver
	media      *media.Client
	httpClient *http.Client
	endpoint   string
}

type Option func(*Client)

// WithEndpoint points the client at another API root, used by tests
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

func NewYouTubeClient(resolver repository.ICredentialResolver, mediaClient *media.Client, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{resolver: resolver, media: mediaClient, httpClient: httpClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Platform() model.Provider { return model.ProviderYouTube }

// service builds a per-call API service bound to the credential's bearer token
func (c *Client) service(ctx context.Context, cred *model.Credential) (*youtube.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.AccessToken, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), ts)
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return service, nil
}

// Publish uploads the media as a public video in a single insert call
func (c *Client) Publish(ctx context.Context, userID string, content *model.PublishableContent) (*model.PublishResult, error) {
	if content.MediaType != model.MediaTypeVideo {
		return nil, fmt.Errorf("youtube accepts videos only: %w", model.ErrUnsupportedMediaType)
	}
	cred, err := c.resolver.Resolve(ctx, userID, model.ProviderYouTube, content.SocialAccountID)
	if err != nil {
		return nil, err
	}
	service, err := c.service(ctx, cred)
	if err != nil {
		return nil, err
	}

	body, _, err := c.media.Open(ctx, content.MediaURL)
	if err != nil {
		return nil, model.NewPlatformAPIError(model.ProviderYouTube, 0, "", err)
	}
	defer body.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       content.Title,
			Description: content.Caption(),
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}
	response, err := service.Videos.Insert([]string{"snippet", "status"}, video).Media(body).Context(ctx).Do()
	if err != nil {
		return nil, apiError(err)
	}

	publishedAt := time.Now().UTC()
	if response.Snippet != nil && response.Snippet.PublishedAt != "" {
		if t, perr := time.Parse(time.RFC3339, response.Snippet.PublishedAt); perr == nil {
			publishedAt = t
		}
	}
	return &model.PublishResult{PlatformPostID: response.Id, PublishedAt: publishedAt, SocialAccountID: &cred.ID}, nil
}

// GetStats batches video ids per credential into videos.list calls
func (c *Client) GetStats(ctx context.Context, userID string, posts []model.PostRef) (map[string]model.VideoStats, error) {
	out := make(map[string]model.VideoStats)
	keys, groups := model.GroupPostsByAccount(posts)
	var lastErr error
	for _, accountID := range keys {
		cred, err := c.resolver.Resolve(ctx, userID, model.ProviderYouTube, accountID)
		if err != nil {
			lastErr = err
			continue
		}
		service, err := c.service(ctx, cred)
		if err != nil {
			lastErr = err
			continue
		}
		group := groups[accountKey(accountID)]
		for start := 0; start < len(group); start += maxIDsPerList {
			end := start + maxIDsPerList
			if end > len(group) {
				end = len(group)
			}
			ids := make([]string, 0, end-start)
			for _, p := range group[start:end] {
				ids = append(ids, p.PostID)
			}
			response, err := service.Videos.List([]string{"statistics"}).Id(strings.Join(ids, ",")).Context(ctx).Do()
			if err != nil {
				lastErr = apiError(err)
				logger.GetLogger().WithFields(map[string]interface{}{"user_id": userID, "error": err}).Warn("youtube videos.list failed")
				continue
			}
			for _, item := range response.Items {
				if item.Statistics == nil {
					continue
				}
				out[item.Id] = model.VideoStats{
					Views:    int64(item.Statistics.ViewCount),
					Likes:    int64(item.Statistics.LikeCount),
					Comments: int64(item.Statistics.CommentCount),
				}
			}
		}
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func (c *Client) GetComments(ctx context.Context, userID string, post model.PostRef) []model.Comment {
	log := logger.GetLogger().WithFields(map[string]interface{}{"user_id": userID, "post_id": post.PostID})
	cred, err := c.resolver.Resolve(ctx, userID, model.ProviderYouTube, post.SocialAccountID)
	if err != nil {
		log.WithField("error", err).Warn("youtube comments: no credential")
		return []model.Comment{}
	}
	service, err := c.service(ctx, cred)
	if err != nil {
		log.WithField("error", err).Warn("youtube comments: service")
		return []model.Comment{}
	}
	response, err := service.CommentThreads.List([]string{"snippet"}).VideoId(post.PostID).MaxResults(50).Order("time").Context(ctx).Do()
	if err != nil {
		log.WithField("error", err).Warn("youtube commentThreads.list failed")
		return []model.Comment{}
	}
	comments := make([]model.Comment, 0, len(response.Items))
	for _, thread := range response.Items {
		if thread.Snippet == nil || thread.Snippet.TopLevelComment == nil || thread.Snippet.TopLevelComment.Snippet == nil {
			continue
		}
		s := thread.Snippet.TopLevelComment.Snippet
		publishedAt, _ := time.Parse(time.RFC3339, s.PublishedAt)
		comments = append(comments, model.Comment{
			ID:          thread.Snippet.TopLevelComment.Id,
			Author:      s.AuthorDisplayName,
			AuthorImage: s.AuthorProfileImageUrl,
			Text:        s.TextOriginal,
			LikeCount:   s.LikeCount,
			PublishedAt: publishedAt,
		})
	}
	return comments
}

// DeletePost removes a published video
func (c *Client) DeletePost(ctx context.Context, userID string, post model.PostRef) error {
	cred, err := c.resolver.Resolve(ctx, userID, model.ProviderYouTube, post.SocialAccountID)
	if err != nil {
		return err
	}
	service, err := c.service(ctx, cred)
	if err != nil {
		return err
	}
	if err := service.Videos.Delete(post.PostID).Context(ctx).Do(); err != nil {
		return apiError(err)
	}
	return nil
}

func accountKey(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

func apiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return model.NewPlatformAPIError(model.ProviderYouTube, gerr.Code, gerr.Message, err)
	}
	return model.NewPlatformAPIError(model.ProviderYouTube, 0, "", err)
}
