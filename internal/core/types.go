package core

import (
	"context"

	"musicone/pkg/medialink"
)

// Platform identifies which adapter family produced a Track.
type Platform string

const (
	PlatformSpotify Platform = "spotify"
	PlatformYouTube Platform = "youtube"
)

const (
	// YouTubeAlbum is the album placeholder for every YouTube-sourced track.
	YouTubeAlbum = "YouTube Video"
	// UnknownValue fills required text fields a degraded source could not supply.
	UnknownValue = "Unknown"
)

// Track is the normalized metadata record every adapter produces. Optional fields are
// empty strings, never omitted, so JSON consumers need no presence checks.
type Track struct {
	Name        string   `json:"name"`
	Artist      string   `json:"artist"`
	Album       string   `json:"album"`
	ReleaseDate string   `json:"release_date"`
	DurationMS  int64    `json:"duration_ms"`
	AlbumImage  string   `json:"album_image"`
	Platform    Platform `json:"platform"`
}

// MetadataAdapter fetches metadata from one source. The input is whatever that source keys
// on: a Spotify track ID, a YouTube video ID, or the full link for yt-dlp.
// Failures are returned as *FetchError.
type MetadataAdapter interface {
	Name() string
	Fetch(ctx context.Context, input string) (*Track, error)
}

// DownloadRequest describes one download handed to a MediaDownloader.
type DownloadRequest struct {
	Link medialink.ClassifiedURL
}

// MediaDownloader fetches the audio behind a link with an external tool.
// Failures are returned as *FetchError.
type MediaDownloader interface {
	Name() string
	Download(ctx context.Context, req DownloadRequest) error
}

// ResolutionAttempt records one adapter's outcome inside a single resolution.
type ResolutionAttempt struct {
	Adapter string
	Err     error
}

// Succeeded reports whether the attempt produced a track.
func (a ResolutionAttempt) Succeeded() bool {
	return a.Err == nil
}
