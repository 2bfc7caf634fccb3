package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crosspost/domain/dto"
	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/cache"
	"crosspost/infrastructure/clients/facebook"
	"crosspost/infrastructure/clients/graph"
	"crosspost/infrastructure/clients/instagram"
	"crosspost/infrastructure/clients/media"
	"crosspost/infrastructure/clients/tiktok"
	youtubeclient "crosspost/infrastructure/clients/youtube"
	"crosspost/infrastructure/configuration"
	"crosspost/infrastructure/logger"
	"crosspost/infrastructure/metrics"
	"crosspost/infrastructure/persistence"
	"crosspost/infrastructure/pubsub"
	"crosspost/infrastructure/realtime"
	httpHandler "crosspost/interfaces/http"
	"crosspost/server"
	"crosspost/usecase"

	"golang.org/x/sync/errgroup"
)

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	app := configuration.C.App
	pub := configuration.C.Publisher
	recorder := metrics.Init(configuration.C.Metrics.Enabled)

	sqlDB, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		os.Exit(1)
	}
	defer sqlDB.Close()
	gormDB, err := persistence.NewGormDB(sqlDB)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot open gorm on PostgreSQL")
		os.Exit(1)
	}

	contentRepo := persistence.NewContentRepository(gormDB)
	if err := contentRepo.AutoMigrate(ctx); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed migrating contents")
		os.Exit(1)
	}
	if err := persistence.EnsureSchema(sqlDB); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed ensuring credential and publication schema")
		os.Exit(1)
	}
	credentialRepo := persistence.NewCredentialRepository(sqlDB)
	publicationRepo := persistence.NewPublicationRepository(sqlDB)
	logger.GetLogger().Info("Database connected.")

	analyticsCache, stateStore := initiateCache(ctx)

	httpClient := &http.Client{Timeout: pub.HTTPTimeout()}
	mediaClient := media.NewClient(httpClient)

	youtubeConfig := configuration.GetYouTubeConfig()
	googleOAuth := youtubeclient.NewOAuthConfig(youtubeConfig)
	var youtubeOpts []youtubeclient.Option
	if youtubeConfig.APIBaseURL != "" {
		youtubeOpts = append(youtubeOpts, youtubeclient.WithEndpoint(youtubeConfig.APIBaseURL))
	}
	tiktokConfig := configuration.GetTikTokConfig()
	tiktokOAuth := tiktok.NewOAuth(tiktokConfig, httpClient)
	metaConfig := configuration.GetMetaConfig()
	metaOAuth := graph.NewOAuth(metaConfig, httpClient, pub.GraphAPIVersion)
	logger.GetLogger().WithFields(map[string]interface{}{
		"youtube": youtubeConfig.ClientID != "",
		"tiktok":  tiktokConfig.ClientID != "",
		"meta":    metaConfig.ClientID != "",
	}).Info("Platform OAuth clients configured")

	tokenManager := usecase.NewTokenManager(
		credentialRepo,
		usecase.TokenProviders{
			YouTube: youtubeclient.NewTokenProvider(googleOAuth, httpClient),
			TikTok:  tiktokOAuth,
			Meta:    metaOAuth,
		},
		usecase.RefreshPolicy{
			Skew:        pub.RefreshSkew(),
			PerProvider: map[model.Provider]time.Duration{model.ProviderYouTube: pub.YouTubeRefreshSkew()},
		},
		recorder,
	)
	resolver := usecase.NewCredentialResolver(credentialRepo, tokenManager)

	registry, err := usecase.NewRegistry(usecase.Adapters{
		YouTube: youtubeclient.NewYouTubeClient(resolver, mediaClient, httpClient, youtubeOpts...),
		TikTok:  tiktok.NewTikTokClient(resolver, mediaClient, httpClient, tiktokConfig.APIBaseURL, pub.TikTokPrivacyLevel),
		Instagram: instagram.NewInstagramClient(
			resolver,
			graph.NewClient(model.ProviderInstagram, httpClient, metaConfig.APIBaseURL, pub.GraphAPIVersion),
			pub.InstagramPollAttempts,
			pub.InstagramPollInterval(),
		),
		Facebook: facebook.NewFacebookClient(resolver, graph.NewClient(model.ProviderFacebook, httpClient, metaConfig.APIBaseURL, pub.GraphAPIVersion)),
	})
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Invalid platform adapters")
		os.Exit(1)
	}

	hub := realtime.NewPublicationHub()
	notifiers := []repository.IPublicationNotifier{hub}
	if publisher := initiatePubSub(ctx); publisher != nil {
		defer publisher.Stop()
		notifiers = append(notifiers, publisher)
	}

	publishUsecase := usecase.NewPublishUsecase(
		contentRepo,
		publicationRepo,
		registry,
		analyticsCache,
		recorder,
		usecase.PublishOptions{SweepBatchSize: pub.SchedulerBatchSize, SweepConcurrency: pub.SchedulerConcurrency},
		notifiers...,
	)
	analyticsUsecase := usecase.NewAnalyticsUsecase(publicationRepo, registry, analyticsCache, pub.StatsCacheTTL(), recorder)
	contentUsecase := usecase.NewContentUsecase(contentRepo, publicationRepo)
	accountUsecase := usecase.NewAccountUsecase(credentialRepo, usecase.Connectors{
		YouTube: youtubeclient.NewConnector(googleOAuth, httpClient, youtubeOpts...),
		TikTok:  tiktokOAuth,
		Meta:    metaOAuth,
	}, stateStore)

	router := server.InitiateRouter(server.Handlers{
		Health:    httpHandler.NewHealthHandler(sqlDB),
		Content:   httpHandler.NewContentHandler(contentUsecase, publishUsecase),
		Analytics: httpHandler.NewAnalyticsHandler(analyticsUsecase),
		Account:   httpHandler.NewAccountHandler(accountUsecase),
		Stream:    hub.Serve,
	}, server.Options{
		SecretKey:   app.SecretKey,
		CorsOrigins: app.CorsOrigins,
		Metrics:     recorder,
	})

	g.Go(func() error {
		runScheduler(ctx, publishUsecase, pub.SchedulerInterval())
		return nil
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.GetLogger().WithFields(map[string]interface{}{"port": app.Port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		var err error
		if app.TLSEnabled && app.TLSCertFile != "" && app.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(app.TLSCertFile, app.TLSKeyFile)
		} else {
			if app.TLSEnabled {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			}
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// initiateCache prefers redis and falls back to process memory when it is not configured or unreachable
func initiateCache(ctx context.Context) (*cache.AnalyticsCache, *cache.StateStore) {
	rc := configuration.C.RedisClient
	if rc.Host != "" {
		client, err := cache.NewCache(ctx, fmt.Sprintf("%s:%s", rc.Host, rc.Port), rc.Username, rc.Password)
		if err == nil {
			logger.GetLogger().Info("Redis client initialized successfully.")
			return cache.NewAnalyticsCache(cache.NewRedisCache[dto.AnalyticsSummary](client, "crosspost:")),
				cache.NewStateStore(cache.NewRedisCache[model.ConnectState](client, "crosspost:"))
		}
		logger.GetLogger().WithField("error", err).Warn("Redis not available - using in-memory cache")
	}
	return cache.NewAnalyticsCache(cache.NewMemoryCache[dto.AnalyticsSummary]()),
		cache.NewStateStore(cache.NewMemoryCache[model.ConnectState]())
}

func initiatePubSub(ctx context.Context) *pubsub.PublicationPublisher {
	ps := configuration.C.Pubsub
	if ps.ProjectID == "" {
		return nil
	}
	client, err := pubsub.NewPubSub(ctx, ps.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - publication events stay in process")
		return nil
	}
	return pubsub.NewPublicationPublisher(client, ps.Topic)
}

// runScheduler publishes due content on every tick until ctx is done
func runScheduler(ctx context.Context, uc usecase.IPublishUsecase, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := uc.ProcessScheduled(ctx)
			if err != nil {
				logger.GetLogger().WithField("error", err).Error("scheduled publish sweep failed")
				continue
			}
			if res.Processed > 0 {
				logger.GetLogger().WithField("processed", res.Processed).Info("scheduled publish sweep done")
			}
		}
	}
}
