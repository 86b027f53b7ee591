package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"musicone/internal/core"
	"musicone/pkg/medialink"
)

const (
	// APIAdapterName identifies the Data API adapter in logs, metrics and resolution attempts.
	APIAdapterName = "youtube-api"
	// DefaultAPIBaseURL is the YouTube Data API v3 root.
	DefaultAPIBaseURL = "https://www.googleapis.com/youtube/v3"

	publishedDateLength = 10
	millisPerSecond     = 1000
)

// thumbnailPreference lists thumbnail keys from largest to smallest.
var thumbnailPreference = []string{"maxres", "standard", "high", "medium", "default"}

type videoListResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID             string              `json:"id"`
	Snippet        videoSnippet        `json:"snippet"`
	ContentDetails videoContentDetails `json:"contentDetails"`
}

type videoSnippet struct {
	Title        string               `json:"title"`
	ChannelTitle string               `json:"channelTitle"`
	PublishedAt  string               `json:"publishedAt"`
	Thumbnails   map[string]thumbnail `json:"thumbnails"`
}

type videoContentDetails struct {
	Duration string `json:"duration"`
}

type thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// APIAdapter reads video metadata from the YouTube Data API.
type APIAdapter struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// NewAPIAdapter creates a Data API adapter. The caller decides whether to use it at all;
// an empty API key is not checked here.
func NewAPIAdapter(config *core.YouTubeConfig, logger *zap.Logger) *APIAdapter {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}

	return &APIAdapter{
		client:  newHTTPClient(config.Timeout),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  config.APIKey,
		logger:  logger,
	}
}

func (a *APIAdapter) Name() string {
	return APIAdapterName
}

// Fetch looks up a single video by ID. A response with no items is a failure, not an
// exception, so the caller can fall back.
func (a *APIAdapter) Fetch(ctx context.Context, videoID string) (*core.Track, error) {
	query := url.Values{}
	query.Set("part", "snippet,contentDetails")
	query.Set("id", videoID)
	query.Set("key", a.apiKey)
	reqURL := fmt.Sprintf("%s/videos?%s", a.baseURL, query.Encode())

	var resp videoListResponse
	if err := fetchJSON(ctx, a.client, reqURL, &resp); err != nil {
		return nil, a.classifyError(videoID, err)
	}

	if len(resp.Items) == 0 {
		a.logger.Info("YouTube Data API returned no items", zap.String("videoID", videoID))
		return nil, core.NewFetchError(APIAdapterName, core.ReasonNoItems, "", fmt.Errorf("no video with ID %q", videoID))
	}

	track := convertVideo(&resp.Items[0])
	if track.Name == "" {
		return nil, core.NewFetchError(APIAdapterName, core.ReasonMalformed, "", fmt.Errorf("video %q has no title", videoID))
	}
	return &track, nil
}

func (a *APIAdapter) classifyError(videoID string, err error) *core.FetchError {
	var fetchErr *core.FetchError

	var statusErr *statusError
	switch {
	case errors.As(err, &statusErr):
		reason := core.ReasonTransport
		switch statusErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			reason = core.ReasonAuth
		case http.StatusNotFound:
			reason = core.ReasonNotFound
		}
		fetchErr = core.NewFetchError(APIAdapterName, reason, statusErr.Body, err)
	case errors.Is(err, errMalformedResponse):
		fetchErr = core.NewFetchError(APIAdapterName, core.ReasonMalformed, "", err)
	case errors.Is(err, context.DeadlineExceeded):
		fetchErr = core.NewFetchError(APIAdapterName, core.ReasonTimeout, "", err)
	default:
		fetchErr = core.NewFetchError(APIAdapterName, core.ReasonTransport, "", err)
	}

	a.logger.Warn("YouTube Data API request failed",
		zap.String("videoID", videoID),
		zap.String("reason", string(fetchErr.Reason)),
		zap.Error(err))
	return fetchErr
}

func convertVideo(item *videoItem) core.Track {
	releaseDate := item.Snippet.PublishedAt
	if len(releaseDate) > publishedDateLength {
		releaseDate = releaseDate[:publishedDateLength]
	}

	durationMS := int64(medialink.ParseDuration(item.ContentDetails.Duration)) * millisPerSecond
	if durationMS < 0 {
		durationMS = 0
	}

	return core.Track{
		Name:        item.Snippet.Title,
		Artist:      item.Snippet.ChannelTitle,
		Album:       core.YouTubeAlbum,
		ReleaseDate: releaseDate,
		DurationMS:  durationMS,
		AlbumImage:  bestThumbnail(item.Snippet.Thumbnails),
		Platform:    core.PlatformYouTube,
	}
}

func bestThumbnail(thumbnails map[string]thumbnail) string {
	for _, key := range thumbnailPreference {
		if thumb, ok := thumbnails[key]; ok && thumb.URL != "" {
			return thumb.URL
		}
	}
	return ""
}
