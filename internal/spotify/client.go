// Package spotify resolves Spotify track metadata through the Web API using the
// client-credentials flow.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"musicone/internal/core"
)

// AdapterName identifies this adapter in logs, metrics and resolution attempts.
const AdapterName = "spotify"

// Adapter fetches a single track by ID and normalizes it.
type Adapter struct {
	client *spotify.Client
	logger *zap.Logger
}

// NewAdapter builds an adapter whose HTTP client obtains and refreshes an app token on demand.
// ctx must outlive the adapter; it carries the token source's HTTP client.
func NewAdapter(ctx context.Context, config *core.SpotifyConfig, logger *zap.Logger) *Adapter {
	tokenURL := config.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}

	creds := &clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     tokenURL,
	}

	tokenHTTPClient := &http.Client{Timeout: config.Timeout}
	httpClient := creds.Client(context.WithValue(ctx, oauth2.HTTPClient, tokenHTTPClient))
	httpClient.Timeout = config.Timeout

	var opts []spotify.ClientOption
	if config.BaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(ensureTrailingSlash(config.BaseURL)))
	}

	return NewAdapterWithClient(spotify.New(httpClient, opts...), logger)
}

// NewAdapterWithClient wraps an already configured Web API client.
func NewAdapterWithClient(client *spotify.Client, logger *zap.Logger) *Adapter {
	return &Adapter{client: client, logger: logger}
}

func (a *Adapter) Name() string {
	return AdapterName
}

// Fetch looks up a track by its Spotify ID.
func (a *Adapter) Fetch(ctx context.Context, trackID string) (*core.Track, error) {
	if trackID == "" {
		return nil, core.NewFetchError(AdapterName, core.ReasonNotFound, "", errors.New("empty track ID"))
	}

	track, err := a.client.GetTrack(ctx, spotify.ID(trackID))
	if err != nil {
		fetchErr := classifyError(err)
		a.logger.Warn("Spotify track lookup failed",
			zap.String("trackID", trackID),
			zap.String("reason", string(fetchErr.Reason)),
			zap.Error(err))
		return nil, fetchErr
	}

	result := convertTrack(track)
	if result.Name == "" {
		a.logger.Warn("Spotify track has no name", zap.String("trackID", trackID))
		return nil, core.NewFetchError(AdapterName, core.ReasonMalformed, "", fmt.Errorf("track %q has no name", trackID))
	}

	a.logger.Debug("Spotify track resolved",
		zap.String("trackID", trackID),
		zap.String("name", result.Name))
	return &result, nil
}

// convertTrack maps a Web API track onto the normalized record. Release date and duration
// are passed through untouched.
func convertTrack(track *spotify.FullTrack) core.Track {
	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}

	var albumImage string
	if len(track.Album.Images) > 0 {
		albumImage = track.Album.Images[0].URL
	}

	durationMS := int64(track.Duration)
	if durationMS < 0 {
		durationMS = 0
	}

	return core.Track{
		Name:        track.Name,
		Artist:      strings.Join(artists, ", "),
		Album:       track.Album.Name,
		ReleaseDate: track.Album.ReleaseDate,
		DurationMS:  durationMS,
		AlbumImage:  albumImage,
		Platform:    core.PlatformSpotify,
	}
}

// classifyError keeps auth, not-found and transport failures apart even though callers only
// ever see one generic message for all of them.
func classifyError(err error) *core.FetchError {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return core.NewFetchError(AdapterName, core.ReasonAuth, string(retrieveErr.Body), err)
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return core.NewFetchError(AdapterName, core.ReasonAuth, apiErr.Message, err)
		case http.StatusNotFound, http.StatusBadRequest:
			return core.NewFetchError(AdapterName, core.ReasonNotFound, apiErr.Message, err)
		default:
			return core.NewFetchError(AdapterName, core.ReasonTransport, apiErr.Message, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewFetchError(AdapterName, core.ReasonTimeout, "", err)
	}

	return core.NewFetchError(AdapterName, core.ReasonTransport, "", fmt.Errorf("spotify request failed: %w", err))
}

func ensureTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
