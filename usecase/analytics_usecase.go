package usecase

import (
	"context"
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

const DefaultStatsCacheTTL = 60 * time.Second

type IAnalyticsUsecase interface {
	// Summary reconciles remote stats into the user's publications and aggregates them.
	// A cached summary is returned unless refresh is set.
	Summary(ctx context.Context, userID string, refresh bool) (*dto.AnalyticsSummary, error)
	Comments(ctx context.Context, userID string, publicationID int64) ([]model.Comment, error)
	DeleteRemote(ctx context.Context, userID string, publicationID int64) error
}

type analyticsUsecase struct {
	pubs     repository.IPublication
	registry *Registry
	cache    repository.IAnalyticsCache
	ttl      time.Duration
	metrics  metrics.Recorder
	now      func() time.Time
}

func NewAnalyticsUsecase(pubs repository.IPublication, registry *Registry, cache repository.IAnalyticsCache, ttl time.Duration, m metrics.Recorder) IAnalyticsUsecase {
	if ttl <= 0 {
		ttl = DefaultStatsCacheTTL
	}
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	return &analyticsUsecase{pubs: pubs, registry: registry, cache: cache, ttl: ttl, metrics: m, now: time.Now}
}

func (u *analyticsUsecase) Summary(ctx context.Context, userID string, refresh bool) (*dto.AnalyticsSummary, error) {
	log := logger.GetLogger().WithField("user_id", userID)
	if !refresh && u.cache != nil {
		cached, ok, err := u.cache.Get(ctx, userID)
		if err != nil {
			log.WithField("error", err).Warn("analytics cache read failed")
		}
		u.metrics.RecordAnalyticsCache(ok)
		if ok {
			cached.Cached = true
			return cached, nil
		}
	}

	pubs, err := u.pubs.FindSuccessfulByUser(ctx, userID, model.AllProviders)
	if err != nil {
		return nil, err
	}
	failed := u.sync(ctx, userID, pubs)

	// aggregate from the rows as stored after the merge
	pubs, err = u.pubs.FindSuccessfulByUser(ctx, userID, model.AllProviders)
	if err != nil {
		return nil, err
	}
	summary := aggregate(userID, pubs)
	summary.FailedPlatforms = failed
	summary.SyncedAt = u.now().UTC()

	if u.cache != nil {
		if err := u.cache.Set(ctx, userID, summary, u.ttl); err != nil {
			log.WithField("error", err).Warn("analytics cache write failed")
		}
	}
	return summary, nil
}

// sync fetches stats per platform concurrently and writes them back.
// It returns the platforms whose sync failed; their rows keep the previous counters.
func (u *analyticsUsecase) sync(ctx context.Context, userID string, pubs []*model.Publication) []model.Provider {
	byPlatform := make(map[model.Provider][]*model.Publication)
	for _, p := range pubs {
		if p.PlatformPostID == nil || *p.PlatformPostID == "" {
			continue
		}
		byPlatform[p.Platform] = append(byPlatform[p.Platform], p)
	}

	var (
		mu     sync.Mutex
		failed []model.Provider
		g      errgroup.Group
	)
	for _, platform := range model.AllProviders {
		rows := byPlatform[platform]
		if len(rows) == 0 {
			continue
		}
		g.Go(func() error {
			log := logger.GetLogger().WithFields(map[string]interface{}{"platform": platform, "user_id": userID})
			stats, err := u.fetchStats(ctx, userID, platform, rows)
			if err != nil {
				u.metrics.RecordStatsSync(string(platform), metrics.ResultFailure)
				log.WithField("error", err).Warn("stats sync failed")
				mu.Lock()
				failed = append(failed, platform)
				mu.Unlock()
				return nil
			}
			u.metrics.RecordStatsSync(string(platform), metrics.ResultSuccess)
			for _, row := range rows {
				s, ok := stats[*row.PlatformPostID]
				if !ok {
					continue
				}
				if err := u.pubs.UpdateStats(ctx, row.ID, s); err != nil {
					log.WithFields(map[string]interface{}{"publication_id": row.ID, "error": err}).Warn("stats merge failed")
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	// keep a stable order for callers and caches
	ordered := make([]model.Provider, 0, len(failed))
	for _, p := range model.AllProviders {
		for _, f := range failed {
			if f == p {
				ordered = append(ordered, p)
			}
		}
	}
	return ordered
}

func (u *analyticsUsecase) fetchStats(ctx context.Context, userID string, platform model.Provider, rows []*model.Publication) (stats map[string]model.VideoStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s stats panic: %v", platform, r)
		}
	}()
	adapter, err := u.registry.Adapter(platform)
	if err != nil {
		return nil, err
	}
	refs := make([]model.PostRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, model.PostRef{PostID: *row.PlatformPostID, SocialAccountID: row.SocialAccountID})
	}
	return adapter.GetStats(ctx, userID, refs)
}

func aggregate(userID string, pubs []*model.Publication) *dto.AnalyticsSummary {
	summary := &dto.AnalyticsSummary{UserID: userID, ByPlatform: make(map[model.Provider]dto.PlatformTotals)}
	for _, p := range pubs {
		t := summary.ByPlatform[p.Platform]
		t.Posts++
		t.Views += p.Views
		t.Likes += p.Likes
		t.Comments += p.Comments
		summary.ByPlatform[p.Platform] = t

		summary.Totals.Posts++
		summary.Totals.Views += p.Views
		summary.Totals.Likes += p.Likes
		summary.Totals.Comments += p.Comments
	}
	return summary
}

func (u *analyticsUsecase) ownedPublication(ctx context.Context, userID string, publicationID int64) (*model.Publication, error) {
	pub, err := u.pubs.FindByID(ctx, publicationID)
	if err != nil {
		return nil, err
	}
	if pub.UserID != userID {
		return nil, model.ErrNotFound
	}
	return pub, nil
}

// Comments is empty for publications without a remote post
func (u *analyticsUsecase) Comments(ctx context.Context, userID string, publicationID int64) ([]model.Comment, error) {
	pub, err := u.ownedPublication(ctx, userID, publicationID)
	if err != nil {
		return nil, err
	}
	if pub.Status != model.PublicationSuccess || pub.PlatformPostID == nil {
		return []model.Comment{}, nil
	}
	adapter, err := u.registry.Adapter(pub.Platform)
	if err != nil {
		return nil, err
	}
	return adapter.GetComments(ctx, userID, model.PostRef{PostID: *pub.PlatformPostID, SocialAccountID: pub.SocialAccountID}), nil
}

// DeleteRemote removes the post from the platform and marks the publication failed so it can be published again
func (u *analyticsUsecase) DeleteRemote(ctx context.Context, userID string, publicationID int64) error {
	pub, err := u.ownedPublication(ctx, userID, publicationID)
	if err != nil {
		return err
	}
	if pub.Status != model.PublicationSuccess || pub.PlatformPostID == nil {
		return fmt.Errorf("publication %d has no remote post: %w", pub.ID, model.ErrInvalidState)
	}
	adapter, err := u.registry.Adapter(pub.Platform)
	if err != nil {
		return err
	}
	deleter, ok := adapter.(repository.IPostDeleter)
	if !ok {
		return fmt.Errorf("delete on %s: %w", pub.Platform, model.ErrUnsupportedOperation)
	}
	if err := deleter.DeletePost(ctx, userID, model.PostRef{PostID: *pub.PlatformPostID, SocialAccountID: pub.SocialAccountID}); err != nil {
		return err
	}
	if err := u.pubs.MarkFailed(ctx, pub.ContentID, pub.Platform, "deleted from "+string(pub.Platform)); err != nil {
		return err
	}
	if u.cache != nil {
		if err := u.cache.Invalidate(ctx, userID); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{"user_id": userID, "error": err}).Warn("analytics cache invalidate failed")
		}
	}
	return nil
}
