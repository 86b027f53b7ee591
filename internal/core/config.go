package core

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultServerHost is the bind address used when none is configured.
	DefaultServerHost = "0.0.0.0"
	// DefaultServerPort matches the port the service has always listened on.
	DefaultServerPort = 5000
	// DefaultMetadataTimeout bounds a single metadata extraction subprocess.
	DefaultMetadataTimeout = 30 * time.Second
	// DefaultDownloadTimeout bounds a single download subprocess.
	DefaultDownloadTimeout = 300 * time.Second
	// DefaultAPITimeout bounds HTTP calls to the provider metadata endpoints.
	DefaultAPITimeout = 10 * time.Second
	// DefaultErrorSnippetLength is how much downloader stderr is echoed back to callers.
	DefaultErrorSnippetLength = 200
	// DefaultYtdlpPath is the metadata/download tool used for YouTube links.
	DefaultYtdlpPath = "yt-dlp"
	// DefaultSpotdlPath is the download tool used for Spotify links.
	DefaultSpotdlPath = "spotdl"
	// DefaultUserAgent is the mobile client identity presented by yt-dlp.
	DefaultUserAgent = "com.google.android.youtube/17.36.4 (Linux; U; Android 12; GB) gzip"
	// DefaultPlayerClient is the YouTube player client forced on metadata extraction and downloads.
	DefaultPlayerClient = "android"
	// LogFormatJSON selects zap's JSON production encoder.
	LogFormatJSON = "json"
	// LogFormatConsole selects zap's human-readable development encoder.
	LogFormatConsole = "console"
	// WriteTimeoutMargin is added to the download timeout to get the HTTP write timeout.
	WriteTimeoutMargin = 30 * time.Second

	maxPort = 65535
)

type Config struct {
	Spotify SpotifyConfig
	YouTube YouTubeConfig
	Tools   ToolsConfig
	Server  ServerConfig
	Log     LogConfig
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	// BaseURL overrides the Web API root; empty means the public endpoint.
	BaseURL string
	// TokenURL overrides the client-credentials token endpoint; empty means the public endpoint.
	TokenURL string
	Timeout  time.Duration
}

type YouTubeConfig struct {
	// APIKey enables the Data API adapter. Empty disables it entirely.
	APIKey string
	// Cookies is raw cookie-file text handed to yt-dlp through a per-call temp file.
	Cookies string
	// BaseURL overrides the Data API root; empty means the public endpoint.
	BaseURL string
	Timeout time.Duration
}

type ToolsConfig struct {
	YtdlpPath          string
	SpotdlPath         string
	UserAgent          string
	PlayerClient       string
	MetadataTimeout    time.Duration
	DownloadTimeout    time.Duration
	DownloadDir        string
	ErrorSnippetLength int
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// AllowedOrigins feeds the CORS middleware.
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func DefaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			Timeout: DefaultAPITimeout,
		},
		YouTube: YouTubeConfig{
			Timeout: DefaultAPITimeout,
		},
		Tools: ToolsConfig{
			YtdlpPath:          DefaultYtdlpPath,
			SpotdlPath:         DefaultSpotdlPath,
			UserAgent:          DefaultUserAgent,
			PlayerClient:       DefaultPlayerClient,
			MetadataTimeout:    DefaultMetadataTimeout,
			DownloadTimeout:    DefaultDownloadTimeout,
			ErrorSnippetLength: DefaultErrorSnippetLength,
		},
		Server: ServerConfig{
			Host:           DefaultServerHost,
			Port:           DefaultServerPort,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   DefaultDownloadTimeout + WriteTimeoutMargin,
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatJSON,
		},
	}
}

// HasYouTubeAPI reports whether the Data API adapter should be tried before yt-dlp.
func (c *Config) HasYouTubeAPI() bool {
	return c.YouTube.APIKey != ""
}

// HasSpotifyCredentials reports whether both client-credentials halves are present.
func (c *Config) HasSpotifyCredentials() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != ""
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Tools.YtdlpPath == "" {
		errs = append(errs, errors.New("yt-dlp path must not be empty"))
	}
	if c.Tools.SpotdlPath == "" {
		errs = append(errs, errors.New("spotdl path must not be empty"))
	}
	if c.Tools.MetadataTimeout <= 0 {
		errs = append(errs, fmt.Errorf("metadata timeout must be positive, got %s", c.Tools.MetadataTimeout))
	}
	if c.Tools.DownloadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("download timeout must be positive, got %s", c.Tools.DownloadTimeout))
	}
	if c.Tools.ErrorSnippetLength < 0 {
		errs = append(errs, fmt.Errorf("error snippet length must not be negative, got %d", c.Tools.ErrorSnippetLength))
	}
	if c.Log.Format != LogFormatJSON && c.Log.Format != LogFormatConsole {
		errs = append(errs, fmt.Errorf("log format must be %q or %q, got %q", LogFormatJSON, LogFormatConsole, c.Log.Format))
	}
	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		errs = append(errs, fmt.Errorf("server port must be between 1 and %d, got %d", maxPort, c.Server.Port))
	}

	return errors.Join(errs...)
}
