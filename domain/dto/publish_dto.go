package dto

import (
	"fmt"
	"time"

	"crosspost/domain/model"
)

// PublishRequest triggers publishing of a content item
type PublishRequest struct {
	Platforms []model.Provider `json:"platforms,omitempty"` // defaults to the content's selected platforms
	Force     bool             `json:"force,omitempty"`
}

// PublishOutcome is the per-platform result of one publish action
type PublishOutcome struct {
	Platform       model.Provider          `json:"platform"`
	Status         model.PublicationStatus `json:"status"`
	PlatformPostID *string                 `json:"platform_post_id,omitempty"`
	PublishedAt    *time.Time              `json:"published_at,omitempty"`
	Error          string                  `json:"error,omitempty"`
	ErrorCode      string                  `json:"error_code,omitempty"`
	Skipped        bool                    `json:"skipped,omitempty"`
}

// PublishSummary groups the outcomes of one publish action
type PublishSummary struct {
	ContentID int64            `json:"content_id"`
	Outcomes  []PublishOutcome `json:"outcomes"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Message   string           `json:"message"`
}

// NewPublishSummary counts outcomes and renders the user-facing message
func NewPublishSummary(contentID int64, outcomes []PublishOutcome) *PublishSummary {
	s := &PublishSummary{ContentID: contentID, Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case model.PublicationSuccess:
			s.Succeeded++
		case model.PublicationFailed:
			s.Failed++
		}
	}
	switch {
	case s.Failed == 0:
		s.Message = fmt.Sprintf("published to %d", s.Succeeded)
	case s.Succeeded == 0:
		s.Message = fmt.Sprintf("failed on %d", s.Failed)
	default:
		s.Message = fmt.Sprintf("published to %d, failed on %d", s.Succeeded, s.Failed)
	}
	return s
}

// SweepResult reports one run of the scheduled publisher
type SweepResult struct {
	Processed int               `json:"processed"`
	Summaries []*PublishSummary `json:"summaries"`
}
