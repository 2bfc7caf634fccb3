package cache

import (
	"context"
	"errors"
	"time"

	"crosspost/domain/dto"
	"crosspost/domain/model"
)

// AnalyticsCache caches reconciled analytics per user
type AnalyticsCache struct {
	store Cache[dto.AnalyticsSummary]
}

func NewAnalyticsCache(store Cache[dto.AnalyticsSummary]) *AnalyticsCache {
	return &AnalyticsCache{store: store}
}

func analyticsKey(userID string) string { return "analytics:" + userID }

func (a *AnalyticsCache) Get(ctx context.Context, userID string) (*dto.AnalyticsSummary, bool, error) {
	v, err := a.store.Get(ctx, analyticsKey(userID))
	if errors.Is(err, ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &v, true, nil
}

func (a *AnalyticsCache) Set(ctx context.Context, userID string, summary *dto.AnalyticsSummary, ttl time.Duration) error {
	return a.store.Set(ctx, analyticsKey(userID), *summary, ttl)
}

func (a *AnalyticsCache) Invalidate(ctx context.Context, userID string) error {
	return a.store.Delete(ctx, analyticsKey(userID))
}

// StateStore keeps pending OAuth connect states
type StateStore struct {
	store Cache[model.ConnectState]
}

func NewStateStore(store Cache[model.ConnectState]) *StateStore {
	return &StateStore{store: store}
}

func (s *StateStore) Put(ctx context.Context, state string, cs model.ConnectState, ttl time.Duration) error {
	return s.store.Set(ctx, "oauth_state:"+state, cs, ttl)
}

func (s *StateStore) Take(ctx context.Context, state string) (*model.ConnectState, error) {
	cs, err := s.store.Take(ctx, "oauth_state:"+state)
	if errors.Is(err, ErrCacheMiss) {
		return nil, model.ErrInvalidState
	}
	if err != nil {
		return nil, err
	}
	return &cs, nil
}
