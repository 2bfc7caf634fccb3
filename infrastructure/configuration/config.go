package configuration

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"crosspost/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
	Metrics     Metrics     `json:"metrics"`
	Platforms   Platforms   `json:"platforms"`
	Publisher   Publisher   `json:"publisher"`
}

type App struct {
	Port        int      `json:"port"`
	SecretKey   string   `json:"secretKey"`
	TLSEnabled  bool     `json:"tlsEnabled"`
	TLSCertFile string   `json:"tlsCertFile"`
	TLSKeyFile  string   `json:"tlsKeyFile"`
	BaseURL     string   `json:"baseURL"`
	CorsOrigins []string `json:"corsOrigins"`
}

type Database struct {
	Psql Db `json:"psql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

type Logger struct {
	Format string `json:"format"`
	Level  string `json:"level"`
}

type Metrics struct {
	Enabled bool `json:"enabled"`
}

// Platforms holds OAuth clients of the platform families
type Platforms struct {
	YouTube PlatformClient `json:"youtube"`
	TikTok  PlatformClient `json:"tiktok"`
	Meta    PlatformClient `json:"meta"`
}

type PlatformClient struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURI  string   `json:"redirectURI"`
	Scopes       []string `json:"scopes"`
	// endpoint overrides, empty means the public API
	APIBaseURL string `json:"apiBaseURL"`
	AuthURL    string `json:"authURL"`
	TokenURL   string `json:"tokenURL"`
}

// Publisher tunes publishing, scheduling and stats sync
type Publisher struct {
	SchedulerIntervalSeconds     int    `json:"schedulerIntervalSeconds"`
	SchedulerBatchSize           int    `json:"schedulerBatchSize"`
	SchedulerConcurrency         int    `json:"schedulerConcurrency"`
	StatsCacheTTLSeconds         int    `json:"statsCacheTTLSeconds"`
	HTTPTimeoutSeconds           int    `json:"httpTimeoutSeconds"`
	InstagramPollAttempts        int    `json:"instagramPollAttempts"`
	InstagramPollIntervalSeconds int    `json:"instagramPollIntervalSeconds"`
	GraphAPIVersion              string `json:"graphAPIVersion"`
	TikTokPrivacyLevel           string `json:"tiktokPrivacyLevel"`
	RefreshSkewSeconds           int    `json:"refreshSkewSeconds"`
	YouTubeRefreshSkewSeconds    int    `json:"youtubeRefreshSkewSeconds"`
}

func (p Publisher) SchedulerInterval() time.Duration {
	return time.Duration(p.SchedulerIntervalSeconds) * time.Second
}

func (p Publisher) StatsCacheTTL() time.Duration {
	return time.Duration(p.StatsCacheTTLSeconds) * time.Second
}

func (p Publisher) HTTPTimeout() time.Duration {
	return time.Duration(p.HTTPTimeoutSeconds) * time.Second
}

func (p Publisher) InstagramPollInterval() time.Duration {
	return time.Duration(p.InstagramPollIntervalSeconds) * time.Second
}

func (p Publisher) RefreshSkew() time.Duration {
	return time.Duration(p.RefreshSkewSeconds) * time.Second
}

func (p Publisher) YouTubeRefreshSkew() time.Duration {
	return time.Duration(p.YouTubeRefreshSkewSeconds) * time.Second
}

var C Config

func init() {
	LoadEnvFromFile("config.env", ".env")
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initPublisher(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	C.Database.Psql.Name = getConfigValue(C.Database.Psql.Name, "DB_NAME", "crosspost")
	C.Database.Psql.Host = getConfigValue(C.Database.Psql.Host, "DB_HOST", "localhost")
	C.Database.Psql.Port = getConfigValue(C.Database.Psql.Port, "DB_PORT", "5432")
	C.Database.Psql.User = getConfigValue(C.Database.Psql.User, "DB_USER", "postgres")
	C.Database.Psql.Password = getConfigValue(C.Database.Psql.Password, "DB_PASSWORD", "")
	C.Database.Psql.SSLMode = getConfigValue(C.Database.Psql.SSLMode, "DB_SSLMODE", "disable")
	logger.GetLogger().WithFields(map[string]interface{}{
		"host": C.Database.Psql.Host,
		"port": C.Database.Psql.Port,
		"name": C.Database.Psql.Name,
	}).Info("Database configuration")

	C.RedisClient.Host = getConfigValue(C.RedisClient.Host, "REDIS_HOST", "")
	C.RedisClient.Port = getConfigValue(C.RedisClient.Port, "REDIS_PORT", "6379")
	C.RedisClient.Password = getConfigValue(C.RedisClient.Password, "REDIS_PASSWORD", "")
	C.Pubsub.ProjectID = getConfigValue(C.Pubsub.ProjectID, "PUBSUB_PROJECT_ID", "")
	C.Pubsub.Topic = getConfigValue(C.Pubsub.Topic, "PUBSUB_TOPIC", "publication-events")
}

func initApp(C *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// env overrides config: APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	scheme := "http"
	if C.App.TLSEnabled {
		scheme = "https"
	}
	C.App.BaseURL = getConfigValue(C.App.BaseURL, "APP_BASE_URL", fmt.Sprintf("%s://localhost:%d", scheme, C.App.Port))
	if v := os.Getenv("METRICS_ENABLED"); v == "true" || v == "1" {
		C.Metrics.Enabled = true
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initPublisher(C *Config) {
	p := &C.Publisher
	p.SchedulerIntervalSeconds = getIntValue(p.SchedulerIntervalSeconds, "SCHEDULER_INTERVAL_SECONDS", 30)
	p.SchedulerBatchSize = getIntValue(p.SchedulerBatchSize, "SCHEDULER_BATCH_SIZE", 20)
	p.SchedulerConcurrency = getIntValue(p.SchedulerConcurrency, "SCHEDULER_CONCURRENCY", 4)
	p.StatsCacheTTLSeconds = getIntValue(p.StatsCacheTTLSeconds, "STATS_CACHE_TTL_SECONDS", 60)
	p.HTTPTimeoutSeconds = getIntValue(p.HTTPTimeoutSeconds, "PLATFORM_HTTP_TIMEOUT_SECONDS", 120)
	p.InstagramPollAttempts = getIntValue(p.InstagramPollAttempts, "INSTAGRAM_POLL_ATTEMPTS", 5)
	p.InstagramPollIntervalSeconds = getIntValue(p.InstagramPollIntervalSeconds, "INSTAGRAM_POLL_INTERVAL_SECONDS", 2)
	p.RefreshSkewSeconds = getIntValue(p.RefreshSkewSeconds, "TOKEN_REFRESH_SKEW_SECONDS", 300)
	p.YouTubeRefreshSkewSeconds = getIntValue(p.YouTubeRefreshSkewSeconds, "YOUTUBE_REFRESH_SKEW_SECONDS", 900)
	p.GraphAPIVersion = getConfigValue(p.GraphAPIVersion, "GRAPH_API_VERSION", "v19.0")
	p.TikTokPrivacyLevel = getConfigValue(p.TikTokPrivacyLevel, "TIKTOK_PRIVACY_LEVEL", "SELF_ONLY")
}
