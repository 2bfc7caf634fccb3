package dto

import (
	"time"

	"crosspost/domain/model"
)

type PlatformTotals struct {
	Posts    int   `json:"posts"`
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}

// AnalyticsSummary aggregates engagement across a user's successful publications
type AnalyticsSummary struct {
	UserID          string                            `json:"user_id"`
	Totals          PlatformTotals                    `json:"totals"`
	ByPlatform      map[model.Provider]PlatformTotals `json:"by_platform"`
	FailedPlatforms []model.Provider                  `json:"failed_platforms,omitempty"`
	SyncedAt        time.Time                         `json:"synced_at"`
	Cached          bool                              `json:"cached"`
}
