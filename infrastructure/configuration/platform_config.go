package configuration

import (
	"os"
	"strconv"
	"strings"
)

// GetYouTubeConfig returns the Google OAuth client with environment overrides applied
func GetYouTubeConfig() PlatformClient {
	c := C.Platforms.YouTube
	c.ClientID = getConfigValue(c.ClientID, "YOUTUBE_CLIENT_ID", "")
	c.ClientSecret = getConfigValue(c.ClientSecret, "YOUTUBE_CLIENT_SECRET", "")
	c.RedirectURI = getConfigValue(c.RedirectURI, "YOUTUBE_REDIRECT_URL", C.App.BaseURL+"/auth/youtube/callback")
	c.APIBaseURL = getConfigValue(c.APIBaseURL, "YOUTUBE_API_BASE_URL", "")
	if len(c.Scopes) == 0 {
		c.Scopes = []string{
			"https://www.googleapis.com/auth/youtube.upload",
			"https://www.googleapis.com/auth/youtube.readonly",
			"https://www.googleapis.com/auth/youtube.force-ssl",
		}
	}
	return c
}

// GetTikTokConfig returns the TikTok client, ClientID being the client key
func GetTikTokConfig() PlatformClient {
	c := C.Platforms.TikTok
	c.ClientID = getConfigValue(c.ClientID, "TIKTOK_CLIENT_KEY", "")
	c.ClientSecret = getConfigValue(c.ClientSecret, "TIKTOK_CLIENT_SECRET", "")
	c.RedirectURI = getConfigValue(c.RedirectURI, "TIKTOK_REDIRECT_URL", C.App.BaseURL+"/auth/tiktok/callback")
	c.APIBaseURL = getConfigValue(c.APIBaseURL, "TIKTOK_API_BASE_URL", "https://open.tiktokapis.com")
	c.AuthURL = getConfigValue(c.AuthURL, "TIKTOK_AUTH_URL", "https://www.tiktok.com/v2/auth/authorize/")
	if len(c.Scopes) == 0 {
		c.Scopes = []string{"user.info.basic", "video.upload", "video.publish"}
	}
	return c
}

// GetMetaConfig returns the Meta app used for both Facebook Pages and Instagram
func GetMetaConfig() PlatformClient {
	c := C.Platforms.Meta
	c.ClientID = getConfigValue(c.ClientID, "META_APP_ID", "")
	c.ClientSecret = getConfigValue(c.ClientSecret, "META_APP_SECRET", "")
	c.RedirectURI = getConfigValue(c.RedirectURI, "META_REDIRECT_URL", C.App.BaseURL+"/auth/facebook/callback")
	c.APIBaseURL = getConfigValue(c.APIBaseURL, "GRAPH_API_BASE_URL", "https://graph.facebook.com")
	c.AuthURL = getConfigValue(c.AuthURL, "META_AUTH_URL", "https://www.facebook.com")
	if len(c.Scopes) == 0 {
		c.Scopes = []string{
			"pages_show_list",
			"pages_read_engagement",
			"pages_manage_posts",
			"instagram_basic",
			"instagram_content_publish",
			"instagram_manage_comments",
			"business_management",
		}
	}
	return c
}

// getConfigValue prefers the environment, then a non-placeholder config value, then the default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

func getIntValue(configValue int, envKey string, defaultValue int) int {
	if v := os.Getenv(envKey); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	if configValue > 0 {
		return configValue
	}
	return defaultValue
}
