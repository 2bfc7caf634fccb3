package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/logger"
	"crosspost/infrastructure/metrics"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultRefreshSkew is how long before expiry a credential counts as expiring soon
	DefaultRefreshSkew = 300 * time.Second
	// DefaultYouTubeRefreshSkew renews Google's one hour tokens in their last quarter
	DefaultYouTubeRefreshSkew = 15 * time.Minute
)

// RefreshPolicy sets the expiring-soon window, optionally per provider
type RefreshPolicy struct {
	Skew        time.Duration
	PerProvider map[model.Provider]time.Duration
}

func (p RefreshPolicy) skewFor(provider model.Provider) time.Duration {
	if d, ok := p.PerProvider[provider]; ok && d > 0 {
		return d
	}
	return p.Skew
}

type ITokenManager interface {
	// EnsureFresh returns cred unchanged unless it expires within the skew,
	// in which case the rotated tokens are persisted first and the updated credential returned.
	EnsureFresh(ctx context.Context, cred *model.Credential) (*model.Credential, error)
}

// TokenProviders holds one refresher per provider family; Meta serves Facebook and Instagram
type TokenProviders struct {
	YouTube repository.ITokenProvider
	TikTok  repository.ITokenProvider
	Meta    repository.ITokenProvider
}

func (p TokenProviders) forProvider(provider model.Provider) (repository.ITokenProvider, error) {
	var tp repository.ITokenProvider
	switch provider {
	case model.ProviderYouTube:
		tp = p.YouTube
	case model.ProviderTikTok:
		tp = p.TikTok
	case model.ProviderInstagram, model.ProviderFacebook:
		tp = p.Meta
	default:
		return nil, fmt.Errorf("token refresh for %q: %w", provider, model.ErrUnsupportedOperation)
	}
	if tp == nil {
		return nil, fmt.Errorf("token refresh for %q not configured: %w", provider, model.ErrUnsupportedOperation)
	}
	return tp, nil
}

type tokenManager struct {
	creds     repository.ICredential
	providers TokenProviders
	policy    RefreshPolicy
	metrics   metrics.Recorder
	now       func() time.Time
	group     singleflight.Group
}

func NewTokenManager(creds repository.ICredential, providers TokenProviders, policy RefreshPolicy, m metrics.Recorder) ITokenManager {
	if policy.Skew <= 0 {
		policy.Skew = DefaultRefreshSkew
	}
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	return &tokenManager{creds: creds, providers: providers, policy: policy, metrics: m, now: time.Now}
}

func (t *tokenManager) EnsureFresh(ctx context.Context, cred *model.Credential) (*model.Credential, error) {
	if !cred.ExpiresWithin(t.now(), t.policy.skewFor(cred.Provider)) {
		return cred, nil
	}
	// concurrent callers on one credential share a single refresh
	v, err, _ := t.group.Do(strconv.FormatInt(cred.ID, 10), func() (interface{}, error) {
		return t.refresh(ctx, cred)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Credential), nil
}

func (t *tokenManager) refresh(ctx context.Context, cred *model.Credential) (*model.Credential, error) {
	log := logger.GetLogger().WithFields(map[string]interface{}{
		"credential_id": cred.ID,
		"provider":      cred.Provider,
		"user_id":       cred.UserID,
	})
	provider, err := t.providers.forProvider(cred.Provider)
	if err != nil {
		return nil, err
	}

	ts, err := provider.Refresh(ctx, cred)
	if err != nil {
		t.metrics.RecordTokenRefresh(string(cred.Provider), metrics.ResultFailure)
		log.WithField("error", err).Warn("token refresh failed")
		return nil, refreshError(cred.Provider, err)
	}
	if err := t.creds.UpdateTokens(ctx, cred.ID, ts); err != nil {
		t.metrics.RecordTokenRefresh(string(cred.Provider), metrics.ResultFailure)
		return nil, fmt.Errorf("persist refreshed tokens: %w", err)
	}
	t.metrics.RecordTokenRefresh(string(cred.Provider), metrics.ResultSuccess)
	log.Info("token refreshed")
	return cred.Apply(ts), nil
}

// refreshError turns a rejected grant into a reconnect error.
// Transport failures and provider 5xx stay platform errors so they read as transient.
func refreshError(provider model.Provider, err error) error {
	if errors.Is(err, model.ErrTokenExpiredUnrecoverable) {
		return err
	}
	var apiErr *model.PlatformAPIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == 0 || apiErr.StatusCode >= http.StatusInternalServerError) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return model.NewTokenExpiredError(provider, "refresh rejected", err)
}
