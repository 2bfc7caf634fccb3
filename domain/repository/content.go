package repository

import (
	"context"
	"time"

	"crosspost/domain/model"
)

type IContent interface {
	Create(ctx context.Context, c *model.PublishableContent) error
	GetByID(ctx context.Context, userID string, id int64) (*model.PublishableContent, error)
	Update(ctx context.Context, c *model.PublishableContent) error
	UpdateStatus(ctx context.Context, id int64, status model.ContentStatus) error
	// FindDueScheduled returns scheduled content whose scheduled time is not after now
	FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]*model.PublishableContent, error)
}
