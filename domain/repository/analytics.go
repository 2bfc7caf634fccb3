package repository

import (
	"context"
	"time"

	"crosspost/domain/dto"
	"crosspost/domain/model"
)

// IAnalyticsCache caches aggregated analytics per user
type IAnalyticsCache interface {
	Get(ctx context.Context, userID string) (*dto.AnalyticsSummary, bool, error)
	Set(ctx context.Context, userID string, summary *dto.AnalyticsSummary, ttl time.Duration) error
	Invalidate(ctx context.Context, userID string) error
}

// IPublicationNotifier receives publication state changes
type IPublicationNotifier interface {
	Notify(ctx context.Context, event model.PublicationEvent) error
}
