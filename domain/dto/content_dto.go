package dto

import (
	"time"

	"crosspost/domain/model"
)

type CreateContentRequest struct {
	MediaURL        string           `json:"media_url" binding:"required"`
	MediaType       model.MediaType  `json:"media_type" binding:"required,oneof=video image"`
	Title           string           `json:"title" binding:"required"`
	Description     *string          `json:"description,omitempty"`
	SocialAccountID *int64           `json:"social_account_id,omitempty"`
	Platforms       []model.Provider `json:"platforms" binding:"required,min=1"`
	ScheduledAt     *time.Time       `json:"scheduled_at,omitempty"`
}

// UpdateContentRequest edits metadata; nil fields are left untouched
type UpdateContentRequest struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	SocialAccountID *int64     `json:"social_account_id,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	Unschedule      bool       `json:"unschedule,omitempty"`
}

type ContentResponse struct {
	*model.PublishableContent
	Publications []*model.Publication `json:"publications"`
}
