package repository

import (
	"context"

	"crosspost/domain/model"
)

// IPublication persists per-platform publication records
type IPublication interface {
	CreatePending(ctx context.Context, contentID int64, platform model.Provider) (*model.Publication, error)
	MarkSuccess(ctx context.Context, contentID int64, platform model.Provider, result *model.PublishResult) error
	MarkFailed(ctx context.Context, contentID int64, platform model.Provider, errorMessage string) error
	FindSuccessfulByUser(ctx context.Context, userID string, platforms []model.Provider) ([]*model.Publication, error)
	UpdateStats(ctx context.Context, id int64, stats model.VideoStats) error
	ListByContent(ctx context.Context, contentID int64) ([]*model.Publication, error)
	FindByID(ctx context.Context, id int64) (*model.Publication, error)
}
