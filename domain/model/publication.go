package model

import "time"

type PublicationStatus string

const (
	PublicationPending PublicationStatus = "pending"
	PublicationSuccess PublicationStatus = "success"
	PublicationFailed  PublicationStatus = "failed"
)

// Publication tracks one distribution attempt of a content item to a platform
type Publication struct {
	ID             int64             `json:"id"`
	ContentID      int64             `json:"content_id"`
	Platform       Provider          `json:"platform"`
	Status         PublicationStatus `json:"status"`
	PlatformPostID *string           `json:"platform_post_id,omitempty"`
	PublishedAt    *time.Time        `json:"published_at,omitempty"`
	ErrorMessage   *string           `json:"error_message,omitempty"`
	Views          int64             `json:"views"`
	Likes          int64             `json:"likes"`
	Comments       int64             `json:"comments"`
	AttemptCount   int               `json:"attempt_count"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`

	// UserID is joined from contents. SocialAccountID is the publishing credential,
	// falling back to the account pinned on the content for rows written before it was recorded.
	UserID          string `json:"-"`
	SocialAccountID *int64 `json:"-"`
}

// PostRef addresses a published post for stats and comment lookups
type PostRef struct {
	PostID          string
	SocialAccountID *int64
}

// VideoStats is the engagement snapshot returned by a platform
type VideoStats struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}

// Comment is a top-level comment on a published post
type Comment struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	AuthorImage string    `json:"author_image,omitempty"`
	Text        string    `json:"text"`
	LikeCount   int64     `json:"like_count"`
	PublishedAt time.Time `json:"published_at"`
}

// PublishResult is what a platform returns for a successful publish
type PublishResult struct {
	PlatformPostID string
	PublishedAt    time.Time
	// SocialAccountID is the credential the post was made through
	SocialAccountID *int64
}

// PublicationEvent is broadcast whenever a publication changes state
type PublicationEvent struct {
	UserID         string            `json:"user_id"`
	ContentID      int64             `json:"content_id"`
	Platform       Provider          `json:"platform"`
	Status         PublicationStatus `json:"status"`
	PlatformPostID *string           `json:"platform_post_id,omitempty"`
	Error          *string           `json:"error,omitempty"`
	At             time.Time         `json:"at"`
}

// GroupPostsByAccount splits posts by the credential they resolve through, keeping input order.
// Posts without a pinned account share the nil key.
func GroupPostsByAccount(posts []PostRef) ([]*int64, map[int64][]PostRef) {
	var keys []*int64
	groups := make(map[int64][]PostRef)
	for _, p := range posts {
		var k int64
		if p.SocialAccountID != nil {
			k = *p.SocialAccountID
		}
		if _, ok := groups[k]; !ok {
			keys = append(keys, p.SocialAccountID)
		}
		groups[k] = append(groups[k], p)
	}
	return keys, groups
}
