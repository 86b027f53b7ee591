package spotify

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"musicone/internal/core"
	"musicone/internal/extool"
)

// DownloaderName identifies the spotdl downloader in logs and metrics.
const DownloaderName = "spotdl"

// Downloader hands a Spotify link to spotdl, which finds a matching audio source and saves it.
type Downloader struct {
	runner extool.Runner
	tools  *core.ToolsConfig
	logger *zap.Logger
}

// NewDownloader creates the spotdl downloader.
func NewDownloader(runner extool.Runner, tools *core.ToolsConfig, logger *zap.Logger) *Downloader {
	return &Downloader{runner: runner, tools: tools, logger: logger}
}

func (d *Downloader) Name() string {
	return DownloaderName
}

// Download runs spotdl with the link as its only argument.
func (d *Downloader) Download(ctx context.Context, req core.DownloadRequest) error {
	result, err := d.runner.Run(ctx, extool.Command{
		Path:    d.tools.SpotdlPath,
		Args:    []string{req.Link.URL},
		Dir:     d.tools.DownloadDir,
		Timeout: d.tools.DownloadTimeout,
	})
	if err != nil {
		fetchErr := downloadError(err)
		d.logger.Error("spotdl download failed",
			zap.String("url", req.Link.URL),
			zap.String("reason", string(fetchErr.Reason)),
			zap.String("stderr", fetchErr.Detail))
		return fetchErr
	}

	d.logger.Info("spotdl download finished",
		zap.String("url", req.Link.URL),
		zap.Duration("elapsed", result.Duration))
	return nil
}

func downloadError(err error) *core.FetchError {
	reason := core.ReasonToolFailed
	if errors.Is(err, extool.ErrTimeout) {
		reason = core.ReasonTimeout
	}

	var toolErr *extool.Error
	if !errors.As(err, &toolErr) {
		return core.NewFetchError(DownloaderName, reason, err.Error(), err)
	}
	detail := strings.TrimSpace(toolErr.Stderr)
	if detail == "" {
		detail = toolErr.Error()
	}
	return core.NewFetchError(DownloaderName, reason, detail, err)
}
