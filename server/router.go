package server

import (
	"time"

	"crosspost/infrastructure/metrics"
	httpHandler "crosspost/interfaces/http"
	"crosspost/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{"http://localhost:4200", "http://localhost:4201", "https://localhost:4200", "https://localhost:4201"}

type Handlers struct {
	Health    httpHandler.IHealthHandler
	Content   httpHandler.IContentHandler
	Analytics httpHandler.IAnalyticsHandler
	Account   httpHandler.IAccountHandler
	// Stream serves publication events as server-sent events
	Stream gin.HandlerFunc
}

type Options struct {
	SecretKey   string
	CorsOrigins []string
	Metrics     metrics.Recorder
}

func InitiateRouter(h Handlers, opts Options) *gin.Engine {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoopMetrics()
	}
	origins := opts.CorsOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.HTTPMetricsMiddleware(opts.Metrics))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", h.Health.Healthz)
	if _, noop := opts.Metrics.(*metrics.NoopMetrics); !noop {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// provider redirects carry no bearer token; the OAuth state identifies the user
	router.GET("/auth/:provider/callback", h.Account.Callback)

	api := router.Group("api")
	api.Use(middleware.Auth(opts.SecretKey))

	api.GET("/auth/:provider", h.Account.BeginConnect)
	accounts := api.Group("/accounts")
	{
		accounts.GET("", h.Account.List)
		accounts.PUT("/:accountId/default", h.Account.SetDefault)
		accounts.DELETE("/:accountId", h.Account.Disconnect)
	}

	contents := api.Group("/contents")
	{
		contents.POST("", h.Content.Create)
		contents.GET("/:contentId", h.Content.Get)
		contents.PATCH("/:contentId", h.Content.Update)
		contents.POST("/:contentId/publish", h.Content.Publish)
	}
	api.POST("/publish/process-scheduled", h.Content.ProcessScheduled)

	api.GET("/analytics", h.Analytics.Summary)
	publications := api.Group("/publications")
	{
		publications.GET("/:publicationId/comments", h.Analytics.Comments)
		publications.DELETE("/:publicationId/remote", h.Analytics.DeleteRemote)
		if h.Stream != nil {
			publications.GET("/stream", h.Stream)
		}
	}

	return router
}
