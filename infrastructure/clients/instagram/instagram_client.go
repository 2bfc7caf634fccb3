package instagram

import (
	"context"
	"time"

	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/clients/graph"
	"crosspost/infrastructure/logger"
)

const (
	defaultPollAttempts = 5
	defaultPollInterval = 2 * time.Second
)

var _ repository.IPlatformAdapter = (*Client)(nil)

// Client publishes to an Instagram business account through the container flow
type Client struct {
	resolver     repository.ICredentialResolver
	graph        *graph.Client
	pollAttempts int
	pollInterval time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
	now          func() time.Time
}

type Option func(*Client)

// WithSleep replaces the wait between container polls
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

func NewInstagramClient(resolver repository.ICredentialResolver, g *graph.Client, pollAttempts int, pollInterval time.Duration, opts ...Option) *Client {
	if pollAttempts <= 0 {
		pollAttempts = defaultPollAttempts
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	c := &Client{
		resolver:     resolver,
		graph:        g,
		pollAttempts: pollAttempts,
		pollInterval: pollInterval,
		sleep:        sleepContext,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Platform() model.Provider { return model.ProviderInstagram }

type fieldsParams struct {
	Fields      string `url:"fields,omitempty"`
	Limit       int    `url:"limit,omitempty"`
	AccessToken string `url:"access_token"`
}

type containerParams struct {
	MediaType   string `url:"media_type,omitempty"`
	VideoURL    string `url:"video_url,omitempty"`
	ImageURL    string `url:"image_url,omitempty"`
	Caption     string `url:"caption,omitempty"`
	AccessToken string `url:"access_token"`
}

type publishParams struct {
	CreationID  string `url:"creation_id"`
	AccessToken string `url:"access_token"`
}

type idResponse struct {
	ID string `json:"id"`
}

func (c *Client) Publish(ctx context.Context, userID string, content *model.PublishableContent) (*model.PublishResult, error) {
	params := containerParams{Caption: content.Caption()}
	switch content.MediaType {
	case model.MediaTypeVideo:
		params.MediaType = "REELS"
		params.VideoURL = content.MediaURL
	case model.MediaTypeImage:
		params.ImageURL = content.MediaURL
	default:
		return nil, model.ErrUnsupportedMediaType
	}

	cred, err := c.resolver.Resolve(ctx, userID, model.ProviderInstagram, content.SocialAccountID)
	if err != nil {
		return nil, err
	}
	params.AccessToken = cred.AccessToken

	var container idResponse
	if err := c.graph.Post(ctx, cred.ProviderID+"/media", params, &container); err != nil {
		return nil, err
	}

	log := logger.GetLogger().WithFields(map[string]interface{}{"user_id": userID, "container_id": container.ID})
	state, err := c.awaitContainer(ctx, container.ID, cred.AccessToken)
	if err != nil {
		log.WithFields(map[string]interface{}{"state": state.String(), "error": err}).Warn("instagram container not ready")
		return nil, err
	}

	var published idResponse
	if err := c.graph.Post(ctx, cred.ProviderID+"/media_publish", publishParams{CreationID: container.ID, AccessToken: cred.AccessToken}, &published); err != nil {
		return nil, err
	}
	log.WithField("media_id", published.ID).Info("instagram media published")
	return &model.PublishResult{PlatformPostID: published.ID, PublishedAt: c.now().UTC(), SocialAccountID: &cred.ID}, nil
}

type mediaInsights struct {
	ID            string `json:"id"`
	LikeCount     int64  `json:"like_count"`
	CommentsCount int64  `json:"comments_count"`
}

// GetStats reads like and comment counters per media; media that cannot be read are left out
func (c *Client) GetStats(ctx context.Context, userID string, posts []model.PostRef) (map[string]model.VideoStats, error) {
	out := make(map[string]model.VideoStats)
	keys, groups := model.GroupPostsByAccount(posts)
	var lastErr error
	for _, accountID := range keys {
		cred, err := c.resolver.Resolve(ctx, userID, model.ProviderInstagram, accountID)
		if err != nil {
			lastErr = err
			continue
		}
		for _, p := range groups[key(accountID)] {
			var m mediaInsights
			err := c.graph.Get(ctx, p.PostID, fieldsParams{Fields: "like_count,comments_count", AccessToken: cred.AccessToken}, &m)
			if err != nil {
				logger.GetLogger().WithFields(map[string]interface{}{"user_id": userID, "post_id": p.PostID, "error": err}).Warn("instagram media stats failed")
				continue
			}
			out[p.PostID] = model.VideoStats{Likes: m.LikeCount, Comments: m.CommentsCount}
		}
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

type commentsResponse struct {
	Data []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		Username  string `json:"username"`
		LikeCount int64  `json:"like_count"`
		Timestamp string `json:"timestamp"`
	} `json:"data"`
}

func (c *Client) GetComments(ctx context.Context, userID string, post model.PostRef) []model.Comment {
	log := logger.GetLogger().WithFields(map[string]interface{}{"user_id": userID, "post_id": post.PostID})
	cred, err := c.resolver.Resolve(ctx, userID, model.ProviderInstagram, post.SocialAccountID)
	if err != nil {
		log.WithField("error", err).Warn("instagram comments: no credential")
		return []model.Comment{}
	}
	var resp commentsResponse
	err = c.graph.Get(ctx, post.PostID+"/comments", fieldsParams{Fields: "id,text,username,like_count,timestamp", Limit: 50, AccessToken: cred.AccessToken}, &resp)
	if err != nil {
		log.WithField("error", err).Warn("instagram comments failed")
		return []model.Comment{}
	}
	comments := make([]model.Comment, 0, len(resp.Data))
	for _, d := range resp.Data {
		comments = append(comments, model.Comment{
			ID:          d.ID,
			Author:      d.Username,
			Text:        d.Text,
			LikeCount:   d.LikeCount,
			PublishedAt: graph.ParseTime(d.Timestamp),
		})
	}
	return comments
}

func key(accountID *int64) int64 {
	if accountID == nil {
		return 0
	}
	return *accountID
}
