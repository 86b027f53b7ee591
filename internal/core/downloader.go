package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"musicone/pkg/medialink"
)

const (
	msgUnsupportedDownload = "Unsupported URL"
	msgDownloadComplete    = "Download complete"
)

// DownloadOrchestrator hands a link to the external downloader for its platform.
type DownloadOrchestrator struct {
	spotify       MediaDownloader
	youtube       MediaDownloader
	snippetLength int
	recorder      Recorder
	logger        *zap.Logger
}

// NewDownloadOrchestrator builds a download orchestrator. snippetLength bounds how much tool
// output is echoed back in error messages.
func NewDownloadOrchestrator(
	spotify MediaDownloader,
	youtube MediaDownloader,
	snippetLength int,
	recorder Recorder,
	logger *zap.Logger,
) *DownloadOrchestrator {
	return &DownloadOrchestrator{
		spotify:       spotify,
		youtube:       youtube,
		snippetLength: snippetLength,
		recorder:      recorder,
		logger:        logger,
	}
}

// Download runs the matching downloader to completion and returns the caller-facing
// success message. Every failure is a *ResolutionError.
//
// YouTube links without an extractable video ID are still handed to yt-dlp, which
// understands more link shapes than the classifier does.
func (d *DownloadOrchestrator) Download(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		d.record(medialink.KindUnsupported, OutcomeInvalidInput)
		return "", invalidInput(msgMissingURL, ErrMissingURL)
	}

	link := medialink.Classify(rawURL)

	var (
		downloader MediaDownloader
		label      string
	)
	switch link.Kind {
	case medialink.KindSpotify:
		downloader, label = d.spotify, "Spotify"
	case medialink.KindYouTube:
		downloader, label = d.youtube, "YouTube"
	default:
		d.record(link.Kind, OutcomeInvalidInput)
		return "", invalidInput(msgUnsupportedDownload, ErrUnsupportedURL)
	}

	failed := fmt.Sprintf("%s download failed", label)
	if downloader == nil {
		d.record(link.Kind, OutcomeFailure)
		return "", upstreamFailure(failed, nil, ErrNoAdapter)
	}

	d.logger.Info("Starting download",
		zap.String("url", link.URL),
		zap.String("platform", link.Kind.String()),
		zap.String("downloader", downloader.Name()))

	if err := downloader.Download(ctx, DownloadRequest{Link: link}); err != nil {
		detail := err.Error()
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) && fetchErr.Detail != "" {
			detail = fetchErr.Detail
		}

		d.logger.Error("Download failed",
			zap.String("url", link.URL),
			zap.String("downloader", downloader.Name()),
			zap.String("reason", string(ReasonOf(err))),
			zap.Error(err))
		d.record(link.Kind, OutcomeFailure)

		attempts := []ResolutionAttempt{{Adapter: downloader.Name(), Err: err}}
		return "", upstreamFailure(failed+": "+Snippet(detail, d.snippetLength), attempts, err)
	}

	d.record(link.Kind, OutcomeSuccess)
	return msgDownloadComplete, nil
}

func (d *DownloadOrchestrator) record(kind medialink.Kind, outcome string) {
	if d.recorder != nil {
		d.recorder.RecordDownload(kind.String(), outcome)
	}
}
