package persistence

import (
	"context"
	"errors"
	"time"

	"crosspost/domain/model"

	"gorm.io/gorm"
)

type ContentRepository struct{ db *gorm.DB }

func NewContentRepository(db *gorm.DB) *ContentRepository { return &ContentRepository{db: db} }

// AutoMigrate creates or updates the contents table
func (r *ContentRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&model.PublishableContent{})
}

func (r *ContentRepository) Create(ctx context.Context, c *model.PublishableContent) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ContentRepository) GetByID(ctx context.Context, userID string, id int64) (*model.PublishableContent, error) {
	var c model.PublishableContent
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Update saves the editable metadata of a content item
func (r *ContentRepository) Update(ctx context.Context, c *model.PublishableContent) error {
	res := r.db.WithContext(ctx).Model(c).
		Select("title", "description", "social_account_id", "status", "scheduled_at", "updated_at").
		Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ContentRepository) UpdateStatus(ctx context.Context, id int64, status model.ContentStatus) error {
	res := r.db.WithContext(ctx).Model(&model.PublishableContent{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ContentRepository) FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]*model.PublishableContent, error) {
	var out []*model.PublishableContent
	q := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", model.ContentStatusScheduled, now).
		Order("scheduled_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
