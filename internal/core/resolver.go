package core

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"musicone/pkg/medialink"
)

// Messages returned to callers. Diagnostic detail goes to the log instead.
const (
	msgMissingURL        = "URL is required"
	msgUnsupportedURL    = "Unsupported URL. Please use Spotify or YouTube links."
	msgInvalidYouTubeURL = "Invalid YouTube URL"
	msgSpotifyFailed     = "Failed to fetch song info"
	msgYouTubeFailed     = "YouTube video info failed"
)

// Outcome labels passed to a Recorder.
const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeInvalidInput = "invalid_input"
)

// Recorder receives resolution and download outcomes. A nil Recorder is allowed.
type Recorder interface {
	RecordResolution(platform, outcome string)
	RecordAdapterAttempt(adapter, outcome string)
	RecordDownload(platform, outcome string)
}

// Resolver turns a media link into a Track by trying the adapters for its platform in order.
type Resolver struct {
	spotify    MetadataAdapter
	youtubeAPI MetadataAdapter
	youtubeCLI MetadataAdapter
	recorder   Recorder
	logger     *zap.Logger
}

// NewResolver builds a resolver. youtubeAPI may be nil, in which case YouTube links go
// straight to youtubeCLI.
func NewResolver(
	spotify MetadataAdapter,
	youtubeAPI MetadataAdapter,
	youtubeCLI MetadataAdapter,
	recorder Recorder,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		spotify:    spotify,
		youtubeAPI: youtubeAPI,
		youtubeCLI: youtubeCLI,
		recorder:   recorder,
		logger:     logger,
	}
}

// HasYouTubeAPI reports whether the Data API adapter is part of the YouTube chain.
func (r *Resolver) HasYouTubeAPI() bool {
	return r.youtubeAPI != nil
}

// Resolve classifies rawURL and returns the first track an adapter produces.
// Every failure is a *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*Track, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		r.record(medialink.KindUnsupported, OutcomeInvalidInput)
		return nil, invalidInput(msgMissingURL, ErrMissingURL)
	}

	link := medialink.Classify(rawURL)

	var (
		track *Track
		err   error
	)
	switch link.Kind {
	case medialink.KindSpotify:
		track, err = r.resolveSpotify(ctx, link)
	case medialink.KindYouTube:
		track, err = r.resolveYouTube(ctx, link)
	default:
		r.logger.Debug("Rejected unsupported URL", zap.String("url", rawURL))
		err = invalidInput(msgUnsupportedURL, ErrUnsupportedURL)
	}

	if err != nil {
		var resErr *ResolutionError
		if errors.As(err, &resErr) && resErr.Kind != KindUpstream {
			r.record(link.Kind, OutcomeInvalidInput)
		} else {
			r.record(link.Kind, OutcomeFailure)
		}
		return nil, err
	}

	r.record(link.Kind, OutcomeSuccess)
	return track, nil
}

func (r *Resolver) resolveSpotify(ctx context.Context, link medialink.ClassifiedURL) (*Track, error) {
	if r.spotify == nil {
		return nil, upstreamFailure(msgSpotifyFailed, nil, ErrNoAdapter)
	}

	trackID := medialink.SpotifyTrackID(link.URL)
	track, attempt := r.attempt(ctx, r.spotify, trackID)
	if attempt.Err != nil {
		r.logger.Error("Spotify resolution failed",
			zap.String("url", link.URL),
			zap.String("trackID", trackID),
			zap.String("reason", string(ReasonOf(attempt.Err))),
			zap.Error(attempt.Err))
		return nil, upstreamFailure(msgSpotifyFailed, []ResolutionAttempt{attempt}, attempt.Err)
	}
	return track, nil
}

func (r *Resolver) resolveYouTube(ctx context.Context, link medialink.ClassifiedURL) (*Track, error) {
	if !link.HasVideoID() {
		return nil, &ResolutionError{Kind: KindNotFound, Message: msgInvalidYouTubeURL, Err: ErrInvalidYouTubeURL}
	}

	var attempts []ResolutionAttempt

	if r.youtubeAPI != nil {
		track, attempt := r.attempt(ctx, r.youtubeAPI, link.VideoID)
		attempts = append(attempts, attempt)
		if attempt.Err == nil {
			return track, nil
		}
		r.logger.Info("YouTube Data API failed, falling back to yt-dlp",
			zap.String("videoID", link.VideoID),
			zap.String("reason", string(ReasonOf(attempt.Err))))
	}

	if r.youtubeCLI == nil {
		return nil, upstreamFailure(msgYouTubeFailed, attempts, ErrNoAdapter)
	}

	track, attempt := r.attempt(ctx, r.youtubeCLI, link.URL)
	attempts = append(attempts, attempt)
	if attempt.Err != nil {
		message := msgYouTubeFailed
		var fetchErr *FetchError
		if errors.As(attempt.Err, &fetchErr) && fetchErr.Detail != "" {
			message += ": " + fetchErr.Detail
		}
		r.logger.Error("YouTube resolution failed",
			zap.String("url", link.URL),
			zap.Strings("attempted", adapterNames(attempts)),
			zap.Error(attempt.Err))
		return nil, upstreamFailure(message, attempts, attempt.Err)
	}
	return track, nil
}

func (r *Resolver) attempt(ctx context.Context, adapter MetadataAdapter, input string) (*Track, ResolutionAttempt) {
	r.logger.Debug("Trying metadata adapter",
		zap.String("adapter", adapter.Name()),
		zap.String("identifier", input))

	track, err := adapter.Fetch(ctx, input)
	if err == nil && track == nil {
		r.logger.Error("Metadata adapter returned neither a track nor an error",
			zap.String("adapter", adapter.Name()))
		err = NewFetchError(adapter.Name(), ReasonMalformed, "", errNoTrack)
	}
	attempt := ResolutionAttempt{Adapter: adapter.Name(), Err: err}

	if r.recorder != nil {
		outcome := OutcomeSuccess
		if err != nil {
			outcome = OutcomeFailure
		}
		r.recorder.RecordAdapterAttempt(adapter.Name(), outcome)
	}
	return track, attempt
}

func (r *Resolver) record(kind medialink.Kind, outcome string) {
	if r.recorder != nil {
		r.recorder.RecordResolution(kind.String(), outcome)
	}
}

func adapterNames(attempts []ResolutionAttempt) []string {
	names := make([]string, 0, len(attempts))
	for _, attempt := range attempts {
		names = append(names, attempt.Adapter)
	}
	return names
}
