package facebook

import (
	"context"
	"time"

	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/clients/graph"
	"crosspost/infrastructure/logger"
)

var _ repository.IPlatformAdapter = (*Client)(nil)

// Client publishes to a Facebook Page with the Page access token
type Client struct {
	resolver repository.ICredentialResolver
	graph    *graph.Client
	now      func() time.Time
}

func NewFacebookClient(resolver repository.ICredentialResolver, g *graph.Client) *Client {
	return &Client{resolver: resolver, graph: g, now: time.Now}
}

func (c *Client) Platform() model.Provider { return model.ProviderFacebook }

type videoParams struct {
	FileURL     string `url:"file_url"`
	Description string `url:"description,omitempty"`
	AccessToken string `url:"access_token"`
}

type photoParams struct {
	URL         string `url:"url"`
	Caption     string `url:"caption,omitempty"`
	AccessToken string `url:"access_token"`
}

type fieldsParams struct {
	Fields      string `url:"fields,omitempty"`
	Limit       int    `url:"limit,omitempty"`
	AccessToken string `url:"access_token"`
}

type publishResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

// Publish is a single call to the Page's videos or photos edge.
// The post id is kept over the object id since engagement is read from the post.
func (c *Client) Publish(ctx context.Context, userID string, content *model.PublishableContent) (*model.PublishResult, error) {
	if content.MediaType != model.MediaTypeVideo && content.MediaType != model.MediaTypeImage {
		return nil, model.ErrUnsupportedMediaType
	}
	cred, err := c.resolver.Resolve(ctx, userID, model.ProviderFacebook, content.SocialAccountID)
	if err != nil {
		return nil, err
	}
	var (
		edge   string
		params interface{}
	)
	if content.MediaType == model.MediaTypeVideo {
		edge = cred.ProviderID + "/videos"
		params = videoParams{FileURL: content.MediaURL, Description: content.Caption(), AccessToken: cred.AccessToken}
	} else {
		edge = cred.ProviderID + "/photos"
		params = photoParams{URL: content.MediaURL, Caption: content.Caption(), AccessToken: cred.AccessToken}
	}

	var resp publishResponse
	if err := c.graph.Post(ctx, edge, params, &resp); err != nil {
		return nil, err
	}
	postID := resp.PostID
	if postID == "" {
		postID = resp.ID
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"user_id": userID,
		"page_id": cred.ProviderID,
		"post_id": postID,
	}).Info("facebook post published")
	return &model.PublishResult{PlatformPostID: postID, PublishedAt: c.now().UTC(), SocialAccountID: &cred.ID}, nil
}

type summaryEdge struct {
	Summary struct {
		TotalCount int64 `json:"total_count"`
	} `json:"summary"`
}

type postEngagement struct {
	ID       string      `json:"id"`
	Likes    summaryEdge `json:"likes"`
	Comments summaryEdge `json:"comments"`
}

// GetStats reads like and comment totals per post; posts Graph cannot read are left out.
// Page posts expose no view count on the post node, so Views stays zero.
func (c *Client) GetStats(ctx context.Context, userID string, posts []model.PostRef) (map[string]model.VideoStats, error) {
	out := make(map[string]model.VideoStats)
	keys, groups := model.GroupPostsByAccount(posts)
	var lastErr error
	for _, accountID := range keys {
		cred, err := c.resolver.Resolve(ctx, userID, model.ProviderFacebook, accountID)
		if err != nil {
			lastErr = err
			continue
		}
		var k int64
		if accountID != nil {
			k = *accountID
		}
		for _, p := range groups[k] {
			var e postEngagement
			err := c.graph.Get(ctx, p.PostID, fieldsParams{
				Fields:      "likes.summary(true).limit(0),comments.summary(true).limit(0)",
				AccessToken: cred.AccessToken,
			}, &e)
			if err != nil {
				logger.GetLogger().WithFields(map[string]interface{}{"user_id": userID, "post_id": p.PostID, "error": err}).Warn("facebook post stats failed")
				continue
			}
			out[p.PostID] = model.VideoStats{Likes: e.Likes.Summary.TotalCount, Comments: e.Comments.Summary.TotalCount}
		}
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

type commentsResponse struct {
	Data []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
		From    struct {
			Name    string `json:"name"`
			Picture struct {
				Data struct {
					URL string `json:"url"`
				} `json:"data"`
			} `json:"picture"`
		} `json:"from"`
		LikeCount   int64  `json:"like_count"`
		CreatedTime string `json:"created_time"`
	} `json:"data"`
}

func (c *Client) GetComments(ctx context.Context, userID string, post model.PostRef) []model.Comment {
	log := logger.GetLogger().WithFields(map[string]interface{}{"user_id": userID, "post_id": post.PostID})
	cred, err := c.resolver.Resolve(ctx, userID, model.ProviderFacebook, post.SocialAccountID)
	if err != nil {
		log.WithField("error", err).Warn("facebook comments: no credential")
		return []model.Comment{}
	}
	var resp commentsResponse
	err = c.graph.Get(ctx, post.PostID+"/comments", fieldsParams{
		Fields:      "id,message,from{name,picture},like_count,created_time",
		Limit:       50,
		AccessToken: cred.AccessToken,
	}, &resp)
	if err != nil {
		log.WithField("error", err).Warn("facebook comments failed")
		return []model.Comment{}
	}
	comments := make([]model.Comment, 0, len(resp.Data))
	for _, d := range resp.Data {
		comments = append(comments, model.Comment{
			ID:          d.ID,
			Author:      d.From.Name,
			AuthorImage: d.From.Picture.Data.URL,
			Text:        d.Message,
			LikeCount:   d.LikeCount,
			PublishedAt: graph.ParseTime(d.CreatedTime),
		})
	}
	return comments
}
