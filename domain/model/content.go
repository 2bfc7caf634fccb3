package model

import "time"

type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeImage MediaType = "image"
)

type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusScheduled ContentStatus = "scheduled"
	ContentStatusPublished ContentStatus = "published"
)

// PublishableContent is a media item a user wants distributed to one or more platforms
type PublishableContent struct {
	ID              int64         `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID          string        `json:"user_id" gorm:"size:128;not null;index"`
	MediaURL        string        `json:"media_url" gorm:"not null"`
	MediaType       MediaType     `json:"media_type" gorm:"size:16;not null"`
	Title           string        `json:"title" gorm:"size:255"`
	Description     *string       `json:"description,omitempty"`
	SocialAccountID *int64        `json:"social_account_id,omitempty"`
	Platforms       []Provider    `json:"platforms" gorm:"serializer:json"`
	Status          ContentStatus `json:"status" gorm:"size:16;not null;default:draft;index"`
	ScheduledAt     *time.Time    `json:"scheduled_at,omitempty" gorm:"index"`
	CreatedAt       time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

func (PublishableContent) TableName() string { return "contents" }

// Caption is the description, or the title when no description is set
func (c *PublishableContent) Caption() string {
	if c.Description != nil && *c.Description != "" {
		return *c.Description
	}
	return c.Title
}
