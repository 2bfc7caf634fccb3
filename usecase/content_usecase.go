package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crosspost/domain/dto"
	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/logger"
)

type IContentUsecase interface {
	Create(ctx context.Context, userID string, req dto.CreateContentRequest) (*dto.ContentResponse, error)
	Get(ctx context.Context, userID string, contentID int64) (*dto.ContentResponse, error)
	// Update edits metadata and schedule only; publications are never touched
	Update(ctx context.Context, userID string, contentID int64, req dto.UpdateContentRequest) (*dto.ContentResponse, error)
}

type contentUsecase struct {
	contents repository.IContent
	pubs     repository.IPublication
	now      func() time.Time
}

func NewContentUsecase(contents repository.IContent, pubs repository.IPublication) IContentUsecase {
	return &contentUsecase{contents: contents, pubs: pubs, now: time.Now}
}

func (u *contentUsecase) Create(ctx context.Context, userID string, req dto.CreateContentRequest) (*dto.ContentResponse, error) {
	if strings.TrimSpace(req.MediaURL) == "" {
		return nil, fmt.Errorf("media_url required: %w", ErrInvalidInput)
	}
	if req.MediaType != model.MediaTypeVideo && req.MediaType != model.MediaTypeImage {
		return nil, fmt.Errorf("media_type %q: %w", req.MediaType, ErrInvalidInput)
	}
	platforms, err := normalizePlatforms(req.Platforms)
	if err != nil {
		return nil, err
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("no platforms selected: %w", ErrInvalidInput)
	}

	content := &model.PublishableContent{
		UserID:          userID,
		MediaURL:        req.MediaURL,
		MediaType:       req.MediaType,
		Title:           req.Title,
		Description:     req.Description,
		SocialAccountID: req.SocialAccountID,
		Platforms:       platforms,
		Status:          model.ContentStatusDraft,
	}
	if req.ScheduledAt != nil {
		at := req.ScheduledAt.UTC()
		content.ScheduledAt = &at
		content.Status = model.ContentStatusScheduled
	}
	if err := u.contents.Create(ctx, content); err != nil {
		return nil, err
	}

	pubs := make([]*model.Publication, 0, len(platforms))
	for _, p := range platforms {
		pub, err := u.pubs.CreatePending(ctx, content.ID, p)
		if err != nil {
			return nil, fmt.Errorf("create %s publication: %w", p, err)
		}
		pubs = append(pubs, pub)
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"user_id":    userID,
		"content_id": content.ID,
		"status":     content.Status,
	}).Info("content created")
	return &dto.ContentResponse{PublishableContent: content, Publications: pubs}, nil
}

func (u *contentUsecase) Get(ctx context.Context, userID string, contentID int64) (*dto.ContentResponse, error) {
	content, err := u.contents.GetByID(ctx, userID, contentID)
	if err != nil {
		return nil, err
	}
	return u.withPublications(ctx, content)
}

func (u *contentUsecase) Update(ctx context.Context, userID string, contentID int64, req dto.UpdateContentRequest) (*dto.ContentResponse, error) {
	content, err := u.contents.GetByID(ctx, userID, contentID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		content.Title = *req.Title
	}
	if req.Description != nil {
		content.Description = req.Description
	}
	if req.SocialAccountID != nil {
		content.SocialAccountID = req.SocialAccountID
	}

	switch {
	case req.Unschedule:
		if content.Status == model.ContentStatusScheduled {
			content.Status = model.ContentStatusDraft
		}
		content.ScheduledAt = nil
	case req.ScheduledAt != nil:
		if content.Status == model.ContentStatusPublished {
			return nil, fmt.Errorf("content %d already published: %w", content.ID, model.ErrInvalidState)
		}
		at := req.ScheduledAt.UTC()
		content.ScheduledAt = &at
		content.Status = model.ContentStatusScheduled
	}
	content.UpdatedAt = u.now().UTC()

	if err := u.contents.Update(ctx, content); err != nil {
		return nil, err
	}
	return u.withPublications(ctx, content)
}

func (u *contentUsecase) withPublications(ctx context.Context, content *model.PublishableContent) (*dto.ContentResponse, error) {
	pubs, err := u.pubs.ListByContent(ctx, content.ID)
	if err != nil {
		return nil, err
	}
	return &dto.ContentResponse{PublishableContent: content, Publications: pubs}, nil
}
