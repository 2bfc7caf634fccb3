package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"crosspost/domain/dto"
	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/logger"
	"crosspost/infrastructure/metrics"

	"golang.org/x/sync/errgroup"
)

const (
	defaultSweepBatch       = 20
	defaultSweepConcurrency = 4
	recordTimeout           = 10 * time.Second

	codeAlreadyPublished = "already_published"
)

type IPublishUsecase interface {
	Publish(ctx context.Context, userID string, contentID int64, req dto.PublishRequest) (*dto.PublishSummary, error)
	// ProcessScheduled publishes every scheduled content item that is due
	ProcessScheduled(ctx context.Context) (*dto.SweepResult, error)
}

type PublishOptions struct {
	SweepBatchSize   int
	SweepConcurrency int
}

type publishUsecase struct {
	contents  repository.IContent
	pubs      repository.IPublication
	registry  *Registry
	cache     repository.IAnalyticsCache
	notifiers []repository.IPublicationNotifier
	metrics   metrics.Recorder
	opts      PublishOptions
	now       func() time.Time

	inflightMu sync.Mutex
	inflight   map[inflightKey]struct{}
	sweepMu    sync.Mutex
}

type inflightKey struct {
	contentID int64
	platform  model.Provider
}

func NewPublishUsecase(
	contents repository.IContent,
	pubs repository.IPublication,
	registry *Registry,
	cache repository.IAnalyticsCache,
	m metrics.Recorder,
	opts PublishOptions,
	notifiers ...repository.IPublicationNotifier,
) IPublishUsecase {
	if opts.SweepBatchSize <= 0 {
		opts.SweepBatchSize = defaultSweepBatch
	}
	if opts.SweepConcurrency <= 0 {
		opts.SweepConcurrency = defaultSweepConcurrency
	}
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	return &publishUsecase{
		contents:  contents,
		pubs:      pubs,
		registry:  registry,
		cache:     cache,
		notifiers: notifiers,
		metrics:   m,
		opts:      opts,
		now:       time.Now,
		inflight:  make(map[inflightKey]struct{}),
	}
}

func (u *publishUsecase) Publish(ctx context.Context, userID string, contentID int64, req dto.PublishRequest) (*dto.PublishSummary, error) {
	content, err := u.contents.GetByID(ctx, userID, contentID)
	if err != nil {
		return nil, err
	}
	platforms := req.Platforms
	if len(platforms) == 0 {
		platforms = content.Platforms
	}
	platforms, err = normalizePlatforms(platforms)
	if err != nil {
		return nil, err
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("no platforms selected: %w", ErrInvalidInput)
	}
	return u.publishContent(ctx, content, platforms, req.Force)
}

// publishContent attempts every platform independently, then marks the content published
// since the status records that an attempt happened, not that every platform succeeded.
func (u *publishUsecase) publishContent(ctx context.Context, content *model.PublishableContent, platforms []model.Provider, force bool) (*dto.PublishSummary, error) {
	existing, err := u.pubs.ListByContent(ctx, content.ID)
	if err != nil {
		return nil, err
	}
	byPlatform := make(map[model.Provider]*model.Publication, len(existing))
	for _, p := range existing {
		byPlatform[p.Platform] = p
	}

	outcomes := make([]dto.PublishOutcome, len(platforms))
	var g errgroup.Group
	for i, platform := range platforms {
		g.Go(func() error {
			outcomes[i] = u.publishOne(ctx, content, platform, byPlatform[platform], force)
			return nil
		})
	}
	_ = g.Wait()

	rctx, cancel := recordContext(ctx)
	defer cancel()
	if content.Status != model.ContentStatusPublished {
		if err := u.contents.UpdateStatus(rctx, content.ID, model.ContentStatusPublished); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{"content_id": content.ID, "error": err}).Error("failed to mark content published")
		} else {
			content.Status = model.ContentStatusPublished
		}
	}
	if u.cache != nil {
		if err := u.cache.Invalidate(rctx, content.UserID); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{"user_id": content.UserID, "error": err}).Warn("analytics cache invalidate failed")
		}
	}
	return dto.NewPublishSummary(content.ID, outcomes), nil
}

func (u *publishUsecase) publishOne(ctx context.Context, content *model.PublishableContent, platform model.Provider, existing *model.Publication, force bool) dto.PublishOutcome {
	log := logger.GetLogger().WithFields(map[string]interface{}{
		"content_id": content.ID,
		"user_id":    content.UserID,
		"platform":   platform,
	})

	if existing != nil && existing.Status == model.PublicationSuccess && !force {
		u.metrics.RecordPublish(string(platform), metrics.ResultSkipped, 0)
		return dto.PublishOutcome{
			Platform:       platform,
			Status:         model.PublicationSuccess,
			PlatformPostID: existing.PlatformPostID,
			PublishedAt:    existing.PublishedAt,
			ErrorCode:      codeAlreadyPublished,
			Skipped:        true,
		}
	}

	key := inflightKey{contentID: content.ID, platform: platform}
	if !u.acquire(key) {
		return dto.PublishOutcome{
			Platform:  platform,
			Status:    model.PublicationPending,
			Error:     model.ErrPublishInProgress.Error(),
			ErrorCode: model.ErrorCode(model.ErrPublishInProgress),
			Skipped:   true,
		}
	}
	defer u.release(key)

	if _, err := u.pubs.CreatePending(ctx, content.ID, platform); err != nil {
		log.WithField("error", err).Error("failed to reset publication to pending")
		return failedOutcome(platform, err)
	}
	u.notify(ctx, content, platform, model.PublicationPending, nil, nil)

	start := u.now()
	result, err := u.attempt(ctx, content, platform)

	// outcomes are recorded even after the caller has gone away
	rctx, cancel := recordContext(ctx)
	defer cancel()
	if err != nil {
		u.metrics.RecordPublish(string(platform), metrics.ResultFailure, u.now().Sub(start))
		log.WithField("error", err).Warn("publish failed")
		if merr := u.pubs.MarkFailed(rctx, content.ID, platform, err.Error()); merr != nil {
			log.WithField("error", merr).Error("failed to record publish failure")
		}
		msg := err.Error()
		u.notify(rctx, content, platform, model.PublicationFailed, nil, &msg)
		return failedOutcome(platform, err)
	}

	u.metrics.RecordPublish(string(platform), metrics.ResultSuccess, u.now().Sub(start))
	log.WithField("platform_post_id", result.PlatformPostID).Info("published")
	if err := u.pubs.MarkSuccess(rctx, content.ID, platform, result); err != nil {
		log.WithField("error", err).Error("failed to record publish success")
	}
	postID := result.PlatformPostID
	publishedAt := result.PublishedAt
	u.notify(rctx, content, platform, model.PublicationSuccess, &postID, nil)
	return dto.PublishOutcome{
		Platform:       platform,
		Status:         model.PublicationSuccess,
		PlatformPostID: &postID,
		PublishedAt:    &publishedAt,
	}
}

// attempt runs the adapter, turning a panic into an ordinary failure of this platform
func (u *publishUsecase) attempt(ctx context.Context, content *model.PublishableContent, platform model.Provider) (result *model.PublishResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s adapter panic: %v", platform, r)
		}
	}()
	adapter, err := u.registry.Adapter(platform)
	if err != nil {
		return nil, err
	}
	result, err = adapter.Publish(ctx, content.UserID, content)
	if err == nil && (result == nil || result.PlatformPostID == "") {
		err = model.NewPlatformAPIError(platform, 0, "publish returned no post id", nil)
	}
	return result, err
}

func recordContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
}

func failedOutcome(platform model.Provider, err error) dto.PublishOutcome {
	return dto.PublishOutcome{
		Platform:  platform,
		Status:    model.PublicationFailed,
		Error:     err.Error(),
		ErrorCode: model.ErrorCode(err),
	}
}

func (u *publishUsecase) acquire(key inflightKey) bool {
	u.inflightMu.Lock()
	defer u.inflightMu.Unlock()
	if _, busy := u.inflight[key]; busy {
		return false
	}
	u.inflight[key] = struct{}{}
	return true
}

func (u *publishUsecase) release(key inflightKey) {
	u.inflightMu.Lock()
	delete(u.inflight, key)
	u.inflightMu.Unlock()
}

func (u *publishUsecase) notify(ctx context.Context, content *model.PublishableContent, platform model.Provider, status model.PublicationStatus, postID, errMsg *string) {
	if len(u.notifiers) == 0 {
		return
	}
	event := model.PublicationEvent{
		UserID:         content.UserID,
		ContentID:      content.ID,
		Platform:       platform,
		Status:         status,
		PlatformPostID: postID,
		Error:          errMsg,
		At:             u.now().UTC(),
	}
	for _, n := range u.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"platform": platform,
				"user_id":  content.UserID,
				"error":    err,
			}).Warn("publication notifier failed")
		}
	}
}

// ProcessScheduled is skipped while a previous sweep is still running
func (u *publishUsecase) ProcessScheduled(ctx context.Context) (*dto.SweepResult, error) {
	if !u.sweepMu.TryLock() {
		logger.GetLogger().Debug("scheduled sweep already running")
		return &dto.SweepResult{}, nil
	}
	defer u.sweepMu.Unlock()

	due, err := u.contents.FindDueScheduled(ctx, u.now().UTC(), u.opts.SweepBatchSize)
	if err != nil {
		return nil, fmt.Errorf("find due scheduled content: %w", err)
	}

	summaries := make([]*dto.PublishSummary, len(due))
	var g errgroup.Group
	g.SetLimit(u.opts.SweepConcurrency)
	for i, content := range due {
		g.Go(func() error {
			platforms, err := normalizePlatforms(content.Platforms)
			if err != nil {
				logger.GetLogger().WithFields(map[string]interface{}{"content_id": content.ID, "error": err}).Warn("scheduled content has invalid platforms")
				platforms = nil
			}
			summary, err := u.publishContent(ctx, content, platforms, false)
			if err != nil {
				logger.GetLogger().WithFields(map[string]interface{}{"content_id": content.ID, "error": err}).Error("scheduled publish failed")
				return nil
			}
			summaries[i] = summary
			return nil
		})
	}
	_ = g.Wait()

	result := &dto.SweepResult{Summaries: make([]*dto.PublishSummary, 0, len(due))}
	for _, s := range summaries {
		if s != nil {
			result.Summaries = append(result.Summaries, s)
		}
	}
	result.Processed = len(result.Summaries)
	u.metrics.RecordScheduledSweep(result.Processed)
	if result.Processed > 0 {
		logger.GetLogger().WithField("processed", result.Processed).Info("scheduled sweep finished")
	}
	return result, nil
}

// normalizePlatforms validates and de-duplicates, keeping the first occurrence order
func normalizePlatforms(in []model.Provider) ([]model.Provider, error) {
	seen := make(map[model.Provider]bool, len(in))
	out := make([]model.Provider, 0, len(in))
	for _, raw := range in {
		p, err := model.ParseProvider(string(raw))
		if err != nil {
			return nil, errors.Join(ErrInvalidInput, err)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}
