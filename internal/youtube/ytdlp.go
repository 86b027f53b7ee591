package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"musicone/internal/core"
	"musicone/internal/extool"
)

const (
	// ToolAdapterName identifies the yt-dlp metadata adapter in logs, metrics and attempts.
	ToolAdapterName = "yt-dlp"
	// DownloaderName identifies the yt-dlp audio downloader.
	DownloaderName = "yt-dlp"

	cookieFilePattern = "musicone-cookies-*.txt"
)

// toolProfile holds the argument profile shared by every yt-dlp invocation.
type toolProfile struct {
	runner  extool.Runner
	tools   *core.ToolsConfig
	cookies string
}

func (p *toolProfile) baseArgs(cookieFile string) []string {
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--extractor-args", "youtube:player_client=" + p.tools.PlayerClient,
		"--user-agent", p.tools.UserAgent,
	}
	if cookieFile != "" {
		args = append(args, "--cookies", cookieFile)
	}
	return args
}

// run executes yt-dlp with args built for the (possibly empty) cookie file path. When cookie
// material is configured it exists on disk only for the duration of this call.
func (p *toolProfile) run(ctx context.Context, cmd extool.Command, buildArgs func(cookieFile string) []string) (*extool.Result, error) {
	if p.cookies == "" {
		cmd.Args = buildArgs("")
		return p.runner.Run(ctx, cmd)
	}

	var result *extool.Result
	err := extool.WithTempFile("", cookieFilePattern, p.cookies, func(path string) error {
		cmd.Args = buildArgs(path)
		var runErr error
		result, runErr = p.runner.Run(ctx, cmd)
		return runErr
	})
	return result, err
}

// toolFetchError converts a runner failure into a FetchError that carries the tool's stderr.
func toolFetchError(source string, err error) *core.FetchError {
	var toolErr *extool.Error
	if !errors.As(err, &toolErr) {
		return core.NewFetchError(source, core.ReasonToolFailed, err.Error(), err)
	}

	detail := strings.TrimSpace(toolErr.Stderr)
	if errors.Is(err, extool.ErrTimeout) {
		if detail == "" {
			detail = fmt.Sprintf("%s timed out", toolErr.Tool)
		}
		return core.NewFetchError(source, core.ReasonTimeout, detail, err)
	}
	if detail == "" {
		detail = toolErr.Error()
	}
	return core.NewFetchError(source, core.ReasonToolFailed, detail, err)
}

// ToolAdapter extracts video metadata by running yt-dlp with --dump-json.
type ToolAdapter struct {
	profile toolProfile
	logger  *zap.Logger
}

// NewToolAdapter creates the yt-dlp metadata adapter. cookies is raw cookie-file text and may
// be empty.
func NewToolAdapter(runner extool.Runner, tools *core.ToolsConfig, cookies string, logger *zap.Logger) *ToolAdapter {
	return &ToolAdapter{
		profile: toolProfile{runner: runner, tools: tools, cookies: cookies},
		logger:  logger,
	}
}

func (a *ToolAdapter) Name() string {
	return ToolAdapterName
}

// MetadataArgs returns the yt-dlp arguments used to extract metadata for rawURL.
func (a *ToolAdapter) MetadataArgs(rawURL, cookieFile string) []string {
	args := []string{"--dump-json"}
	args = append(args, a.profile.baseArgs(cookieFile)...)
	return append(args, rawURL)
}

// Fetch runs yt-dlp against the full link and maps its JSON output.
func (a *ToolAdapter) Fetch(ctx context.Context, rawURL string) (*core.Track, error) {
	cmd := extool.Command{
		Path:    a.profile.tools.YtdlpPath,
		Timeout: a.profile.tools.MetadataTimeout,
	}

	result, err := a.profile.run(ctx, cmd, func(cookieFile string) []string {
		return a.MetadataArgs(rawURL, cookieFile)
	})
	if err != nil {
		fetchErr := toolFetchError(ToolAdapterName, err)
		a.logger.Warn("yt-dlp metadata extraction failed",
			zap.String("url", rawURL),
			zap.String("reason", string(fetchErr.Reason)),
			zap.String("stderr", fetchErr.Detail))
		return nil, fetchErr
	}

	track, err := parseToolOutput(result.Stdout)
	if err != nil {
		a.logger.Warn("yt-dlp produced unreadable output",
			zap.String("url", rawURL),
			zap.Error(err))
		return nil, core.NewFetchError(ToolAdapterName, core.ReasonMalformed, err.Error(), err)
	}
	return track, nil
}

// parseToolOutput maps a yt-dlp info JSON document. Absent text fields become "Unknown",
// absent duration becomes 0 and an absent thumbnail stays empty.
func parseToolOutput(stdout []byte) (*core.Track, error) {
	doc := bytes.TrimSpace(stdout)
	if len(doc) == 0 {
		return nil, errors.New("empty output")
	}
	if !gjson.ValidBytes(doc) {
		return nil, errors.New("output is not valid JSON")
	}

	info := gjson.ParseBytes(doc)
	if !info.IsObject() {
		return nil, errors.New("output is not a JSON object")
	}

	durationMS := int64(info.Get("duration").Float()) * millisPerSecond
	if durationMS < 0 {
		durationMS = 0
	}

	return &core.Track{
		Name:        stringOr(info, "title", core.UnknownValue),
		Artist:      stringOr(info, "uploader", core.UnknownValue),
		Album:       core.YouTubeAlbum,
		ReleaseDate: stringOr(info, "upload_date", core.UnknownValue),
		DurationMS:  durationMS,
		AlbumImage:  info.Get("thumbnail").String(),
		Platform:    core.PlatformYouTube,
	}, nil
}

func stringOr(info gjson.Result, path, fallback string) string {
	if value := info.Get(path).String(); value != "" {
		return value
	}
	return fallback
}

// Downloader fetches YouTube audio as best-quality MP3 with yt-dlp and the system encoder.
type Downloader struct {
	profile toolProfile
	logger  *zap.Logger
}

// NewDownloader creates the yt-dlp audio downloader.
func NewDownloader(runner extool.Runner, tools *core.ToolsConfig, cookies string, logger *zap.Logger) *Downloader {
	return &Downloader{
		profile: toolProfile{runner: runner, tools: tools, cookies: cookies},
		logger:  logger,
	}
}

func (d *Downloader) Name() string {
	return DownloaderName
}

// DownloadArgs returns the yt-dlp arguments used to download audio for rawURL.
func (d *Downloader) DownloadArgs(rawURL, cookieFile string) []string {
	args := []string{
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "0",
	}
	args = append(args, d.profile.baseArgs(cookieFile)...)
	return append(args, rawURL)
}

// Download runs yt-dlp in the configured download directory.
func (d *Downloader) Download(ctx context.Context, req core.DownloadRequest) error {
	cmd := extool.Command{
		Path:    d.profile.tools.YtdlpPath,
		Dir:     d.profile.tools.DownloadDir,
		Timeout: d.profile.tools.DownloadTimeout,
	}

	result, err := d.profile.run(ctx, cmd, func(cookieFile string) []string {
		return d.DownloadArgs(req.Link.URL, cookieFile)
	})
	if err != nil {
		fetchErr := toolFetchError(DownloaderName, err)
		d.logger.Error("yt-dlp download failed",
			zap.String("url", req.Link.URL),
			zap.String("reason", string(fetchErr.Reason)),
			zap.String("stderr", fetchErr.Detail))
		return fetchErr
	}

	d.logger.Info("yt-dlp download finished",
		zap.String("url", req.Link.URL),
		zap.String("videoID", req.Link.VideoID),
		zap.Duration("elapsed", result.Duration))
	return nil
}
