// Package main provides the MusicOne CLI application entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"musicone/internal/core"
	"musicone/internal/extool"
	httpserver "musicone/internal/http"
	"musicone/internal/spotify"
	"musicone/internal/youtube"
	"musicone/pkg/medialink"
)

const envPrefix = "MUSICONE"

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

// envAliases maps flags onto the bare environment names deployments already use.
var envAliases = map[string]string{
	"spotify-client-id":     "SPOTIFY_CLIENT_ID",
	"spotify-client-secret": "SPOTIFY_CLIENT_SECRET",
	"youtube-api-key":       "YOUTUBE_API_KEY",
	"youtube-cookies":       "YOUTUBE_COOKIES",
	"server-port":           "PORT",
}

var rootCmd = &cobra.Command{
	Use:   "musicone",
	Short: "MusicOne - Spotify and YouTube song info and downloads",
	Long: `MusicOne resolves Spotify track and YouTube video links into normalized song metadata
and downloads their audio with spotdl or yt-dlp. Without a subcommand it serves the HTTP API.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Print the song info for a link as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Download the audio behind a link",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownload,
}

var classifyCmd = &cobra.Command{
	Use:   "classify <url>",
	Short: "Show which platform a link belongs to",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(serveCmd, resolveCmd, downloadCmd, classifyCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .env)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", core.LogFormatJSON, "log format (json, console)")
	flags.String("spotify-client-id", "", "Spotify client ID")
	flags.String("spotify-client-secret", "", "Spotify client secret")
	flags.String("spotify-base-url", "", "Spotify Web API base URL override")
	flags.String("spotify-token-url", "", "Spotify token endpoint override")
	flags.String("youtube-api-key", "", "YouTube Data API key (empty uses yt-dlp only)")
	flags.String("youtube-cookies", "", "Netscape cookie file contents passed to yt-dlp")
	flags.String("youtube-base-url", "", "YouTube Data API base URL override")
	flags.Duration("api-timeout", core.DefaultAPITimeout, "Timeout for provider API calls")
	flags.String("ytdlp-path", core.DefaultYtdlpPath, "yt-dlp executable")
	flags.String("spotdl-path", core.DefaultSpotdlPath, "spotdl executable")
	flags.String("user-agent", core.DefaultUserAgent, "User agent presented by yt-dlp")
	flags.String("player-client", core.DefaultPlayerClient, "YouTube player client forced on yt-dlp")
	flags.Duration("metadata-timeout", core.DefaultMetadataTimeout, "Timeout for yt-dlp metadata extraction")
	flags.Duration("download-timeout", core.DefaultDownloadTimeout, "Timeout for a single download")
	flags.String("download-dir", "", "Directory downloads are written to (default is the working directory)")
	flags.Int("error-snippet-length", core.DefaultErrorSnippetLength, "Characters of tool output echoed in download errors")
	flags.String("server-host", core.DefaultServerHost, "HTTP server host")
	flags.Int("server-port", core.DefaultServerPort, "HTTP server port")
	flags.StringSlice("allowed-origins", []string{"*"}, "CORS allowed origins")

	if err := viper.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for key, alias := range envAliases {
		if err := viper.BindEnv(key, envVarName(key), alias); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to bind %s: %v\n", alias, err)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level, config.Log.Format)
}

func envVarName(flagName string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureSpotify(cfg)
	configureYouTube(cfg)
	configureTools(cfg)
	configureServer(cfg)

	return cfg
}

func configureSpotify(cfg *core.Config) {
	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
	cfg.Spotify.BaseURL = viper.GetString("spotify-base-url")
	cfg.Spotify.TokenURL = viper.GetString("spotify-token-url")
	cfg.Spotify.Timeout = viper.GetDuration("api-timeout")
}

func configureYouTube(cfg *core.Config) {
	cfg.YouTube.APIKey = viper.GetString("youtube-api-key")
	cfg.YouTube.Cookies = viper.GetString("youtube-cookies")
	cfg.YouTube.BaseURL = viper.GetString("youtube-base-url")
	cfg.YouTube.Timeout = viper.GetDuration("api-timeout")
}

func configureTools(cfg *core.Config) {
	cfg.Tools.YtdlpPath = viper.GetString("ytdlp-path")
	cfg.Tools.SpotdlPath = viper.GetString("spotdl-path")
	cfg.Tools.UserAgent = viper.GetString("user-agent")
	cfg.Tools.PlayerClient = viper.GetString("player-client")
	cfg.Tools.MetadataTimeout = viper.GetDuration("metadata-timeout")
	cfg.Tools.DownloadTimeout = viper.GetDuration("download-timeout")
	cfg.Tools.DownloadDir = viper.GetString("download-dir")
	cfg.Tools.ErrorSnippetLength = viper.GetInt("error-snippet-length")
}

func configureServer(cfg *core.Config) {
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = core.DefaultServerHost
	}
	cfg.Server.Port = viper.GetInt("server-port")
	cfg.Server.WriteTimeout = cfg.Tools.DownloadTimeout + core.WriteTimeoutMargin
	if origins := viper.GetStringSlice("allowed-origins"); len(origins) > 0 {
		cfg.Server.AllowedOrigins = origins
	}
	cfg.Log.Level = viper.GetString("log-level")
	cfg.Log.Format = strings.ToLower(viper.GetString("log-format"))
}

func buildLogger(level, format string) *zap.Logger {
	builtLogger, err := loggerConfig(level, format).Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

// loggerConfig picks the human-readable development encoder for "console" and the JSON
// production encoder otherwise.
func loggerConfig(level, format string) zap.Config {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if strings.EqualFold(format, core.LogFormatConsole) {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	return cfg
}

func validateConfig() error {
	if err := config.Validate(); err != nil {
		return err
	}
	if !config.HasSpotifyCredentials() {
		logger.Warn("Spotify credentials are not configured; Spotify song info requests will fail")
	}
	return nil
}

type services struct {
	resolver   *core.Resolver
	downloads  *core.DownloadOrchestrator
	httpServer *httpserver.Server
}

// initializeServices wires adapters and orchestrators. recorder may be nil.
func initializeServices(ctx context.Context, recorder core.Recorder) *services {
	runner := extool.NewExecRunner(logger.Named("extool"))

	spotifyAdapter := spotify.NewAdapter(ctx, &config.Spotify, logger.Named("spotify"))

	var youtubeAPI core.MetadataAdapter
	if config.HasYouTubeAPI() {
		youtubeAPI = youtube.NewAPIAdapter(&config.YouTube, logger.Named("youtube-api"))
	}
	youtubeTool := youtube.NewToolAdapter(runner, &config.Tools, config.YouTube.Cookies, logger.Named("yt-dlp"))

	resolver := core.NewResolver(spotifyAdapter, youtubeAPI, youtubeTool, recorder, logger.Named("resolver"))
	downloads := core.NewDownloadOrchestrator(
		spotify.NewDownloader(runner, &config.Tools, logger.Named("spotdl")),
		youtube.NewDownloader(runner, &config.Tools, config.YouTube.Cookies, logger.Named("yt-dlp")),
		config.Tools.ErrorSnippetLength,
		recorder,
		logger.Named("downloads"),
	)

	return &services{resolver: resolver, downloads: downloads}
}

func runServe(_ *cobra.Command, _ []string) error {
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting MusicOne",
		zap.Bool("youtube_api", config.HasYouTubeAPI()),
		zap.Bool("youtube_cookies", config.YouTube.Cookies != ""),
		zap.Bool("spotify_credentials", config.HasSpotifyCredentials()))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	registry := httpserver.NewRegistry()
	metrics := httpserver.NewMetrics(registry)

	svcs := initializeServices(ctx, metrics)
	svcs.httpServer = httpserver.NewServer(&config.Server, svcs.resolver, svcs.downloads, metrics, registry,
		logger.Named("http"))

	return runServices(ctx, svcs)
}

func runServices(ctx context.Context, svcs *services) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svcs.httpServer.Start(gCtx)
	})

	logger.Info("MusicOne started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("MusicOne stopped with error", zap.Error(err))
		return err
	}

	logger.Info("MusicOne stopped")
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	defer func() { _ = logger.Sync() }()

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	svcs := initializeServices(cmd.Context(), nil)
	track, err := svcs.resolver.Resolve(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(track)
}

func runDownload(cmd *cobra.Command, args []string) error {
	defer func() { _ = logger.Sync() }()

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	svcs := initializeServices(cmd.Context(), nil)
	message, err := svcs.downloads.Download(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), message)
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	link := medialink.Classify(args[0])

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "platform: %s\n", link.Kind)
	if link.Kind == medialink.KindYouTube {
		if link.HasVideoID() {
			fmt.Fprintf(out, "video_id: %s\n", link.VideoID)
		} else {
			fmt.Fprintln(out, "video_id: (none)")
		}
	}
	if link.Kind == medialink.KindSpotify {
		fmt.Fprintf(out, "track_id: %s\n", medialink.SpotifyTrackID(link.URL))
	}
	return nil
}
